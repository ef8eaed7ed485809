package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediahub/catalog/internal/auth"
	"github.com/mediahub/catalog/internal/catalog"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "ctl-secret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("STORAGE_DRIVER", "memory")

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	owner := catalog.NewID()
	out, err := run(t, "token", "--sub", owner)
	require.NoError(t, err)

	sub, err := auth.ParseToken("ctl-secret", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, owner, sub)
}

func TestTokenCommandRejectsBadSubject(t *testing.T) {
	_, err := run(t, "token", "--sub", "alice")
	assert.ErrorContains(t, err, "owner id")
}

func TestSweepCommandOnEmptyStorage(t *testing.T) {
	out, err := run(t, "sweep", "--grace", "1m")
	require.NoError(t, err)
	assert.Contains(t, out, "scanned=0 provisional=0 confirmed=0 deleted=0")
}

func TestMigrateCommandNeedsPostgres(t *testing.T) {
	_, err := run(t, "migrate")
	assert.ErrorContains(t, err, `"memory"`)
}

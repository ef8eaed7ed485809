package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediahub/catalog/internal/media"
)

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	rawVideo  = []byte{0x00, 0x00, 0x01, 0xba, 0xff, 0xfe, 0x10, 0x00, 0x02, 0x03, 0x04, 0x05}
)

type fakeProber struct {
	duration time.Duration
	err      error
	calls    int
}

func (p *fakeProber) Probe(_ context.Context, _ string) (*media.ProbeResult, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &media.ProbeResult{Duration: p.duration, VideoStreams: []media.VideoStream{{Codec: "h264"}}}, nil
}

type fixedRefs map[string]bool

func (r fixedRefs) ReferencedAssets(_ context.Context, urls []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, u := range urls {
		if r[u] {
			out[u] = true
		}
	}
	return out, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage("http://cdn.test/catalog/")

	require.NoError(t, s.Upload(ctx, "videos/a", strings.NewReader("abc"), 3, "video/mp4", map[string]string{"k": "v"}))
	data, ct, ok := s.Object("videos/a")
	require.True(t, ok)
	assert.Equal(t, "abc", string(data))
	assert.Equal(t, "video/mp4", ct)
	assert.Equal(t, "http://cdn.test/catalog/videos/a", s.PublicURL("videos/a"))

	tags, err := s.Tags(ctx, "videos/a")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"k": "v"}, tags)

	require.NoError(t, s.ClearTags(ctx, "videos/a"))
	tags, err = s.Tags(ctx, "videos/a")
	require.NoError(t, err)
	assert.Empty(t, tags)

	require.NoError(t, s.Upload(ctx, "thumbnails/b", bytes.NewReader(nil), 0, "image/png", nil))
	list, err := s.List(ctx, "videos/")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "videos/a", list[0].Key)
	assert.Equal(t, int64(3), list[0].Size)

	require.NoError(t, s.Delete(ctx, "videos/a"))
	err = s.Delete(ctx, "videos/a")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "memory", serr.Backend)
}

func TestMemoryStorageHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryStorage("http://cdn.test")
	err := s.Upload(ctx, "videos/x", strings.NewReader("x"), 1, "video/mp4", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, s.Len())
}

func TestGatewayUploadVideo(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage("http://cdn.test")
	prober := &fakeProber{duration: 12500 * time.Millisecond}
	g := NewGateway(s, prober, nil, quietLogger())
	g.now = func() time.Time { return time.Unix(1700000000, 0) }

	asset, err := g.Upload(ctx, writeFile(t, "clip", rawVideo), AssetVideo)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(asset.Key, "videos/"))
	assert.Equal(t, "http://cdn.test/"+asset.Key, asset.URL)
	assert.Equal(t, 12.5, asset.Duration)
	assert.Equal(t, int64(len(rawVideo)), asset.Size)
	assert.Equal(t, 1, prober.calls)

	tags, err := s.Tags(ctx, asset.Key)
	require.NoError(t, err)
	assert.Equal(t, "1700000000", tags[ProvisionalTag])
}

func TestGatewayUploadThumbnail(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage("http://cdn.test")
	prober := &fakeProber{}
	g := NewGateway(s, prober, nil, quietLogger())

	asset, err := g.Upload(ctx, writeFile(t, "thumb", pngHeader), AssetThumbnail)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(asset.Key, "thumbnails/"))
	assert.True(t, strings.HasPrefix(asset.ContentType, "image/"))
	assert.Zero(t, asset.Duration)
	assert.Zero(t, prober.calls)
}

func TestGatewayRejectsWrongMedia(t *testing.T) {
	s := NewMemoryStorage("http://cdn.test")
	g := NewGateway(s, nil, nil, quietLogger())

	_, err := g.Upload(context.Background(), writeFile(t, "notes.txt", []byte("plain text, not a picture")), AssetThumbnail)
	assert.ErrorIs(t, err, ErrUnsupportedMedia)
	assert.Equal(t, 0, s.Len())
}

func TestGatewayProbeFailureStoresNothing(t *testing.T) {
	s := NewMemoryStorage("http://cdn.test")
	g := NewGateway(s, &fakeProber{err: media.ErrNoVideoStreams}, nil, quietLogger())

	_, err := g.Upload(context.Background(), writeFile(t, "clip", rawVideo), AssetVideo)
	assert.ErrorIs(t, err, media.ErrNoVideoStreams)
	assert.Equal(t, 0, s.Len())
}

func TestGatewayUploadMissingFile(t *testing.T) {
	g := NewGateway(NewMemoryStorage("http://cdn.test"), nil, nil, quietLogger())
	_, err := g.Upload(context.Background(), filepath.Join(t.TempDir(), "missing"), AssetVideo)
	assert.Error(t, err)

	_, err = g.Upload(context.Background(), "", AssetVideo)
	assert.Error(t, err)
}

func TestGatewayConfirmAndRelease(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage("http://cdn.test")
	g := NewGateway(s, nil, nil, quietLogger())

	asset, err := g.Upload(ctx, writeFile(t, "thumb", pngHeader), AssetThumbnail)
	require.NoError(t, err)

	require.NoError(t, g.Confirm(ctx, asset.URL, "https://elsewhere.test/x.png"))
	tags, err := s.Tags(ctx, asset.Key)
	require.NoError(t, err)
	assert.NotContains(t, tags, ProvisionalTag)

	require.NoError(t, g.Release(ctx, asset.URL))
	tags, err = s.Tags(ctx, asset.Key)
	require.NoError(t, err)
	assert.Contains(t, tags, ProvisionalTag)

	err = g.Confirm(ctx, "http://cdn.test/thumbnails/gone.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestGatewayKeyFor(t *testing.T) {
	g := NewGateway(NewMemoryStorage("http://cdn.test"), nil, nil, quietLogger())

	key, ok := g.KeyFor("http://cdn.test/videos/a.mp4")
	assert.True(t, ok)
	assert.Equal(t, "videos/a.mp4", key)

	_, ok = g.KeyFor("http://cdn.test/")
	assert.False(t, ok)
	_, ok = g.KeyFor("http://other.test/videos/a.mp4")
	assert.False(t, ok)
}

func TestSweeper(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	s := NewMemoryStorage("http://cdn.test")

	marker := func(age time.Duration) map[string]string {
		return map[string]string{ProvisionalTag: strconv.FormatInt(now.Add(-age).Unix(), 10)}
	}
	put := func(key string, tags map[string]string) {
		require.NoError(t, s.Upload(ctx, key, strings.NewReader("x"), 1, "application/octet-stream", tags))
	}
	put("videos/orphan", marker(2*time.Hour))
	put("thumbnails/fresh", marker(time.Minute))
	put("videos/confirmed", nil)
	put("thumbnails/late-confirm", marker(3*time.Hour))
	put("videos/bad-marker", map[string]string{ProvisionalTag: "soon"})

	refs := fixedRefs{s.PublicURL("thumbnails/late-confirm"): true}
	sw := NewSweeper(s, refs, time.Hour, nil, quietLogger())
	sw.now = func() time.Time { return now }

	report, err := sw.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Scanned: 5, Provisional: 4, Confirmed: 1, Deleted: 1}, report)

	_, _, ok := s.Object("videos/orphan")
	assert.False(t, ok)
	for _, key := range []string{"thumbnails/fresh", "videos/confirmed", "thumbnails/late-confirm", "videos/bad-marker"} {
		_, _, ok := s.Object(key)
		assert.True(t, ok, key)
	}
	tags, err := s.Tags(ctx, "thumbnails/late-confirm")
	require.NoError(t, err)
	assert.Empty(t, tags)
}

type failingRefs struct{}

func (failingRefs) ReferencedAssets(context.Context, []string) (map[string]bool, error) {
	return nil, errors.New("store down")
}

func TestSweeperKeepsObjectsWhenReferencesUnknown(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage("http://cdn.test")
	old := strconv.FormatInt(time.Now().Add(-48*time.Hour).Unix(), 10)
	require.NoError(t, s.Upload(ctx, "videos/a", strings.NewReader("x"), 1, "video/mp4", map[string]string{ProvisionalTag: old}))

	sw := NewSweeper(s, failingRefs{}, time.Hour, nil, quietLogger())
	_, err := sw.Sweep(ctx)
	assert.Error(t, err)
	assert.Equal(t, 1, s.Len())
}

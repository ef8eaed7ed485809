package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := MustNew(reg)

	m.ObserveUpload("video", nil, 10*time.Millisecond)
	m.ObserveUpload("video", errors.New("boom"), time.Millisecond)
	m.IncPublication("create_content", "ok")
	m.ObserveSweep(3, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues("video", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues("video", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.publications.WithLabelValues("create_content", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.sweptObjects))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sweepRuns.WithLabelValues("ok")))
}

func TestMustNewReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := MustNew(reg)
	second := MustNew(reg)

	first.IncPublication("toggle_publish", "ok")
	second.IncPublication("toggle_publish", "ok")

	require.Same(t, first.publications, second.publications)
	assert.Equal(t, 2.0, testutil.ToFloat64(first.publications.WithLabelValues("toggle_publish", "ok")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveUpload("thumbnail", nil, time.Second)
		m.IncPublication("delete_content", "ok")
		m.ObserveSweep(1, nil)
	})
}

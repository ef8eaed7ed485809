package storage

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mediahub/catalog/internal/metrics"
)

// ReferenceChecker reports which asset URLs are still referenced by a document.
type ReferenceChecker interface {
	ReferencedAssets(ctx context.Context, urls []string) (map[string]bool, error)
}

// Report summarises one sweep.
type Report struct {
	Scanned     int
	Provisional int
	Confirmed   int
	Deleted     int
}

// Sweeper deletes provisional objects older than the grace period that no document references.
type Sweeper struct {
	storage Storage
	refs    ReferenceChecker
	grace   time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewSweeper returns a Sweeper over the video and thumbnail prefixes of storage.
func NewSweeper(storage Storage, refs ReferenceChecker, grace time.Duration, m *metrics.Metrics, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{storage: storage, refs: refs, grace: grace, metrics: m, logger: logger, now: time.Now}
}

// Sweep runs one pass. Referenced objects that still carry the marker are confirmed
// instead of deleted. Per-object failures do not stop the pass and are joined into the
// returned error.
func (s *Sweeper) Sweep(ctx context.Context) (Report, error) {
	report, err := s.sweep(ctx)
	s.metrics.ObserveSweep(report.Deleted, err)
	if err != nil {
		s.logger.Error("sweeper: pass failed", "error", err, "deleted", report.Deleted)
		return report, err
	}
	s.logger.Info("sweeper: pass finished",
		"scanned", report.Scanned,
		"provisional", report.Provisional,
		"confirmed", report.Confirmed,
		"deleted", report.Deleted,
	)
	return report, nil
}

func (s *Sweeper) sweep(ctx context.Context) (Report, error) {
	var report Report
	cutoff := s.now().Add(-s.grace)

	var expired []string
	for _, prefix := range []string{AssetVideo.Prefix(), AssetThumbnail.Prefix()} {
		objects, err := s.storage.List(ctx, prefix)
		if err != nil {
			return report, err
		}
		for _, obj := range objects {
			report.Scanned++
			tags, err := s.storage.Tags(ctx, obj.Key)
			if err != nil {
				return report, err
			}
			raw, ok := tags[ProvisionalTag]
			if !ok {
				continue
			}
			report.Provisional++
			since, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				s.logger.Warn("sweeper: bad provisional marker", "key", obj.Key, "value", raw)
				continue
			}
			if time.Unix(since, 0).After(cutoff) {
				continue
			}
			expired = append(expired, obj.Key)
		}
	}
	if len(expired) == 0 {
		return report, nil
	}

	urls := make([]string, len(expired))
	for i, key := range expired {
		urls[i] = s.storage.PublicURL(key)
	}
	referenced, err := s.refs.ReferencedAssets(ctx, urls)
	if err != nil {
		return report, err
	}

	var errs []error
	for i, key := range expired {
		if referenced[urls[i]] {
			if err := s.storage.ClearTags(ctx, key); err != nil {
				errs = append(errs, err)
				continue
			}
			report.Confirmed++
			continue
		}
		if err := s.storage.Delete(ctx, key); err != nil {
			errs = append(errs, err)
			continue
		}
		report.Deleted++
		s.logger.Debug("sweeper: deleted orphan", "key", key)
	}
	return report, errors.Join(errs...)
}

// Schedule registers the sweeper on c with a standard five-field cron spec.
// Each run is bounded by timeout.
func (s *Sweeper) Schedule(c *cron.Cron, spec string, timeout time.Duration) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_, _ = s.Sweep(ctx)
	})
}

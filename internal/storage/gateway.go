package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/mediahub/catalog/internal/media"
	"github.com/mediahub/catalog/internal/metrics"
)

// ProvisionalTag marks an object that no document references yet. Its value is the
// unix time at which the object became provisional.
const ProvisionalTag = "provisional"

// ErrUnsupportedMedia is returned when a staged file's content type does not match
// the asset kind it is uploaded as.
var ErrUnsupportedMedia = errors.New("unsupported media type")

// AssetKind selects the key prefix and the accepted content types of an upload.
type AssetKind string

const (
	AssetVideo     AssetKind = "video"
	AssetThumbnail AssetKind = "thumbnail"
)

// Prefix returns the object key prefix for the kind.
func (k AssetKind) Prefix() string {
	switch k {
	case AssetVideo:
		return "videos/"
	case AssetThumbnail:
		return "thumbnails/"
	}
	return "misc/"
}

func (k AssetKind) accepts(contentType string) bool {
	switch k {
	case AssetVideo:
		return strings.HasPrefix(contentType, "video/") || contentType == "application/octet-stream"
	case AssetThumbnail:
		return strings.HasPrefix(contentType, "image/")
	}
	return false
}

// Asset is the result of a successful upload.
type Asset struct {
	URL         string
	Key         string
	Duration    float64 // seconds, videos only
	Size        int64
	ContentType string
}

// Gateway moves staged local files into object storage.
type Gateway struct {
	store   Storage
	prober  media.Prober
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewGateway returns a Gateway. prober may be nil, in which case video durations are zero.
func NewGateway(store Storage, prober media.Prober, m *metrics.Metrics, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{store: store, prober: prober, metrics: m, logger: logger, now: time.Now}
}

// Upload stores the file at localPath as a provisional object of the given kind.
func (g *Gateway) Upload(ctx context.Context, localPath string, kind AssetKind) (*Asset, error) {
	start := g.now()
	asset, err := g.upload(ctx, localPath, kind)
	g.metrics.ObserveUpload(string(kind), err, g.now().Sub(start))
	if err != nil {
		return nil, err
	}
	g.logger.Debug("storage: uploaded asset", "kind", kind, "key", asset.Key, "size", asset.Size)
	return asset, nil
}

func (g *Gateway) upload(ctx context.Context, localPath string, kind AssetKind) (*Asset, error) {
	if localPath == "" {
		return nil, errors.New("upload: empty local path")
	}

	mtype, err := mimetype.DetectFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("detect content type: %w", err)
	}
	contentType := mtype.String()
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	if !kind.accepts(contentType) {
		return nil, fmt.Errorf("%s as %s: %w", contentType, kind, ErrUnsupportedMedia)
	}

	var duration float64
	if kind == AssetVideo && g.prober != nil {
		probe, err := g.prober.Probe(ctx, localPath)
		if err != nil {
			return nil, fmt.Errorf("probe video: %w", err)
		}
		duration = probe.Duration.Seconds()
	}

	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open staged file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat staged file: %w", err)
	}

	key := kind.Prefix() + uuid.NewString() + mtype.Extension()
	if err := g.store.Upload(ctx, key, f, info.Size(), contentType, g.provisionalTags()); err != nil {
		return nil, err
	}

	return &Asset{
		URL:         g.store.PublicURL(key),
		Key:         key,
		Duration:    duration,
		Size:        info.Size(),
		ContentType: contentType,
	}, nil
}

// Confirm removes the provisional marker from the objects behind urls.
func (g *Gateway) Confirm(ctx context.Context, urls ...string) error {
	var errs []error
	for _, u := range urls {
		key, ok := g.KeyFor(u)
		if !ok {
			g.logger.Warn("storage: confirm skipped foreign url", "url", u)
			continue
		}
		if err := g.store.ClearTags(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Release marks the objects behind urls provisional again so the sweeper can reclaim them.
func (g *Gateway) Release(ctx context.Context, urls ...string) error {
	var errs []error
	for _, u := range urls {
		key, ok := g.KeyFor(u)
		if !ok {
			g.logger.Warn("storage: release skipped foreign url", "url", u)
			continue
		}
		if err := g.store.SetTags(ctx, key, g.provisionalTags()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// KeyFor maps a public URL produced by this gateway back to its object key.
func (g *Gateway) KeyFor(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, g.store.PublicURL(""))
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

func (g *Gateway) provisionalTags() map[string]string {
	return map[string]string{ProvisionalTag: strconv.FormatInt(g.now().Unix(), 10)}
}

// Package pgstore implements store.Store on PostgreSQL. Collections map to the
// users, videos, tweets and likes tables created by the db migrations; joins that
// the document backend expresses as $lookup are plain SQL joins here.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mediahub/catalog/internal/catalog"
	"github.com/mediahub/catalog/internal/store"
)

var _ store.Store = (*Store)(nil)

const (
	videoColumns = `v.id, v.video_url, v.thumbnail_url, v.title, v.description, v.duration,
		v.is_published, v.owner_id, v.created_at, v.updated_at`
	tweetColumns = `t.id, t.content, t.owner_id, t.created_at, t.updated_at`
)

var sortColumns = map[string]string{
	catalog.SortByCreatedAt: "v.created_at",
	catalog.SortByUpdatedAt: "v.updated_at",
	catalog.SortByTitle:     "v.title",
	catalog.SortByDuration:  "v.duration",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Store handles all catalog database operations.
type Store struct {
	db *pgxpool.Pool
}

// New creates a new Store with the given connection pool.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Close closes the pool.
func (s *Store) Close(context.Context) error {
	s.db.Close()
	return nil
}

// CreatePost inserts a tweet.
func (s *Store) CreatePost(ctx context.Context, p *catalog.Post) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO tweets (id, content, owner_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Content, p.Owner, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert tweet: %w", err)
	}
	return nil
}

// FindPost fetches a tweet by id.
func (s *Store) FindPost(ctx context.Context, id string) (*catalog.Post, error) {
	row := s.db.QueryRow(ctx, `SELECT `+tweetColumns+` FROM tweets t WHERE t.id = $1`, id)
	return scanPost(row, "find tweet")
}

// UpdatePostContent sets the content of a tweet owned by ownerID.
func (s *Store) UpdatePostContent(ctx context.Context, id, ownerID, content string) (*catalog.Post, error) {
	row := s.db.QueryRow(ctx,
		`UPDATE tweets t SET content = $3, updated_at = NOW()
		 WHERE t.id = $1 AND t.owner_id = $2
		 RETURNING `+tweetColumns,
		id, ownerID, content,
	)
	return scanPost(row, "update tweet")
}

// DeletePost removes a tweet owned by ownerID and returns it, or nil when nothing matched.
func (s *Store) DeletePost(ctx context.Context, id, ownerID string) (*catalog.Post, error) {
	row := s.db.QueryRow(ctx,
		`DELETE FROM tweets t WHERE t.id = $1 AND t.owner_id = $2 RETURNING `+tweetColumns,
		id, ownerID,
	)
	p, err := scanPost(row, "delete tweet")
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

// PostsByOwner joins users to their tweets.
func (s *Store) PostsByOwner(ctx context.Context, ownerID string) ([]catalog.Post, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+tweetColumns+`
		 FROM users u JOIN tweets t ON t.owner_id = u.id
		 WHERE u.id = $1
		 ORDER BY t.created_at, t.id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query owner tweets: %w", err)
	}
	defer rows.Close()

	out := []catalog.Post{}
	for rows.Next() {
		p, err := scanPost(rows, "scan owner tweet")
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// CreateContent inserts a video.
func (s *Store) CreateContent(ctx context.Context, c *catalog.Content) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO videos (id, video_url, thumbnail_url, title, description, duration,
		                     is_published, owner_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.VideoAssetURL, c.ThumbnailURL, c.Title, c.Description, c.Duration,
		c.IsPublished, c.Owner, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

// FindContent fetches a video by id.
func (s *Store) FindContent(ctx context.Context, id string) (*catalog.Content, error) {
	row := s.db.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos v WHERE v.id = $1`, id)
	return scanContent(row, "find video")
}

// UpdateContentMetadata sets title and description of a video owned by ownerID.
func (s *Store) UpdateContentMetadata(ctx context.Context, id, ownerID, title, description string) (*catalog.Content, error) {
	row := s.db.QueryRow(ctx,
		`UPDATE videos v SET title = $3, description = $4, updated_at = NOW()
		 WHERE v.id = $1 AND v.owner_id = $2
		 RETURNING `+videoColumns,
		id, ownerID, title, description,
	)
	return scanContent(row, "update video details")
}

// ReplaceThumbnail swaps the thumbnail URL inside a transaction so the previous value is known.
func (s *Store) ReplaceThumbnail(ctx context.Context, id, ownerID, url string) (*catalog.Content, *catalog.Content, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	before, err := scanContent(tx.QueryRow(ctx,
		`SELECT `+videoColumns+` FROM videos v
		 WHERE v.id = $1 AND v.owner_id = $2
		 FOR UPDATE`,
		id, ownerID,
	), "lock video")
	if err != nil {
		return nil, nil, err
	}

	after, err := scanContent(tx.QueryRow(ctx,
		`UPDATE videos v SET thumbnail_url = $2, updated_at = NOW()
		 WHERE v.id = $1
		 RETURNING `+videoColumns,
		id, url,
	), "update thumbnail")
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit thumbnail: %w", err)
	}
	return before, after, nil
}

// DeleteContent removes a video owned by ownerID and returns it, or nil when nothing matched.
func (s *Store) DeleteContent(ctx context.Context, id, ownerID string) (*catalog.Content, error) {
	row := s.db.QueryRow(ctx,
		`DELETE FROM videos v WHERE v.id = $1 AND v.owner_id = $2 RETURNING `+videoColumns,
		id, ownerID,
	)
	c, err := scanContent(row, "delete video")
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, nil
	}
	return c, err
}

// TogglePublished negates is_published in a single UPDATE.
func (s *Store) TogglePublished(ctx context.Context, id, ownerID string) (*catalog.Content, error) {
	row := s.db.QueryRow(ctx,
		`UPDATE videos v SET is_published = NOT v.is_published, updated_at = NOW()
		 WHERE v.id = $1 AND v.owner_id = $2
		 RETURNING `+videoColumns,
		id, ownerID,
	)
	return scanContent(row, "toggle publish")
}

// ContentByOwner joins users to their videos.
func (s *Store) ContentByOwner(ctx context.Context, ownerID string) ([]catalog.Content, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+videoColumns+`
		 FROM users u JOIN videos v ON v.owner_id = u.id
		 WHERE u.id = $1
		 ORDER BY v.created_at, v.id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query owner videos: %w", err)
	}
	return collectContents(rows)
}

// ContentView joins a video with the first matching owner and counts its likes.
func (s *Store) ContentView(ctx context.Context, id string) (*catalog.ContentView, error) {
	var (
		c     catalog.Content
		owner catalog.OwnerProjection
		likes int64
	)
	err := s.db.QueryRow(ctx,
		`SELECT `+videoColumns+`,
		        COALESCE(u.full_name, ''), COALESCE(u.username, ''), COALESCE(u.avatar_url, ''),
		        (SELECT COUNT(*) FROM likes l WHERE l.target_kind = 'video' AND l.target_id = v.id)
		 FROM videos v
		 LEFT JOIN LATERAL (
		     SELECT full_name, username, avatar_url FROM users
		     WHERE users.id = v.owner_id
		     ORDER BY created_at
		     LIMIT 1
		 ) u ON TRUE
		 WHERE v.id = $1`,
		id,
	).Scan(&c.ID, &c.VideoAssetURL, &c.ThumbnailURL, &c.Title, &c.Description, &c.Duration,
		&c.IsPublished, &c.Owner, &c.CreatedAt, &c.UpdatedAt,
		&owner.FullName, &owner.Username, &owner.AvatarURL, &likes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query video view: %w", err)
	}
	return catalog.NewContentView(&c, owner, likes), nil
}

// ListContent builds the filtered, sorted window of videos.
func (s *Store) ListContent(ctx context.Context, f catalog.ListFilter) ([]catalog.Content, error) {
	var (
		sb   strings.Builder
		args []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	sb.WriteString(`SELECT ` + videoColumns)
	if f.OwnerID != "" {
		sb.WriteString(` FROM users u JOIN videos v ON v.owner_id = u.id WHERE u.id = ` + arg(f.OwnerID))
	} else {
		sb.WriteString(` FROM videos v WHERE TRUE`)
	}
	sb.WriteString(` AND (v.is_published OR v.owner_id = ` + arg(f.ViewerID) + `)`)
	if f.Query != "" {
		p := arg("%" + likeEscaper.Replace(f.Query) + "%")
		sb.WriteString(` AND (v.title ILIKE ` + p + ` OR v.description ILIKE ` + p + `)`)
	}
	dir := "ASC"
	if f.Descending() {
		dir = "DESC"
	}
	sb.WriteString(` ORDER BY ` + sortColumns[f.SortBy] + ` ` + dir + `, v.id ASC`)
	sb.WriteString(` LIMIT ` + arg(f.Limit) + ` OFFSET ` + arg(f.Skip()))

	rows, err := s.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	return collectContents(rows)
}

// ReferencedAssets reports which of urls are still stored on a video row.
func (s *Store) ReferencedAssets(ctx context.Context, urls []string) (map[string]bool, error) {
	refs := make(map[string]bool)
	if len(urls) == 0 {
		return refs, nil
	}
	rows, err := s.db.Query(ctx,
		`SELECT video_url, thumbnail_url FROM videos
		 WHERE video_url = ANY($1) OR thumbnail_url = ANY($1)`,
		urls,
	)
	if err != nil {
		return nil, fmt.Errorf("query referenced assets: %w", err)
	}
	defer rows.Close()

	want := make(map[string]bool, len(urls))
	for _, u := range urls {
		want[u] = true
	}
	for rows.Next() {
		var video, thumb string
		if err := rows.Scan(&video, &thumb); err != nil {
			return nil, fmt.Errorf("scan referenced asset: %w", err)
		}
		if want[video] {
			refs[video] = true
		}
		if want[thumb] {
			refs[thumb] = true
		}
	}
	return refs, rows.Err()
}

// OwnerExists returns true if a user with the given id exists.
func (s *Store) OwnerExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check owner existence: %w", err)
	}
	return exists, nil
}

// OwnerProfile returns the public projection of one user.
func (s *Store) OwnerProfile(ctx context.Context, id string) (*catalog.OwnerProjection, error) {
	p := &catalog.OwnerProjection{}
	err := s.db.QueryRow(ctx,
		`SELECT full_name, username, avatar_url FROM users WHERE id = $1`, id,
	).Scan(&p.FullName, &p.Username, &p.AvatarURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get owner profile: %w", err)
	}
	return p, nil
}

func scanContent(row pgx.Row, op string) (*catalog.Content, error) {
	c := &catalog.Content{}
	err := row.Scan(&c.ID, &c.VideoAssetURL, &c.ThumbnailURL, &c.Title, &c.Description, &c.Duration,
		&c.IsPublished, &c.Owner, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func scanPost(row pgx.Row, op string) (*catalog.Post, error) {
	p := &catalog.Post{}
	err := row.Scan(&p.ID, &p.Content, &p.Owner, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func collectContents(rows pgx.Rows) ([]catalog.Content, error) {
	defer rows.Close()
	out := []catalog.Content{}
	for rows.Next() {
		c, err := scanContent(rows, "scan video")
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

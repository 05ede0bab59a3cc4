// Package pgstore implements poststore.Store on PostgreSQL through a pgx
// connection pool.
package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/five82/postboard/internal/post"
	"github.com/five82/postboard/internal/poststore"
)

const schema = `
CREATE TABLE IF NOT EXISTS posts (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  content TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NULL,
  active BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_posts_active_created_at ON posts(active, created_at DESC);
`

// Store implements poststore.Store on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ poststore.Store = (*Store)(nil)

// New connects to dsn, ensures the posts table exists and returns a Store.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create posts table: %w", err)
	}
	return &Store{pool: pool, now: time.Now}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// ListActive implements poststore.Store.
func (s *Store) ListActive(ctx context.Context) ([]post.Post, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, title, content, created_at, updated_at
FROM posts
WHERE active
ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, poststore.Fail("list", fmt.Errorf("query posts: %w", err))
	}
	defer rows.Close()

	var out []post.Post
	for rows.Next() {
		var (
			p         post.Post
			createdAt time.Time
			updatedAt *time.Time
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &createdAt, &updatedAt); err != nil {
			return nil, poststore.Fail("list", fmt.Errorf("scan post: %w", err))
		}
		p.CreatedAt = post.Timestamp(createdAt)
		if updatedAt != nil {
			p.UpdatedAt = post.Timestamp(*updatedAt)
		}
		p.Active = true
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, poststore.Fail("list", fmt.Errorf("iterate posts: %w", err))
	}
	return out, nil
}

// Create implements poststore.Store. A new id is always assigned.
func (s *Store) Create(ctx context.Context, p post.Post) (string, error) {
	id := uuid.NewString()
	createdAt := p.ParsedCreatedAt()
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO posts (id, title, content, created_at, active) VALUES ($1, $2, $3, $4, $5)`,
		id, p.Title, p.Content, createdAt.UTC(), p.Active,
	)
	if err != nil {
		return "", poststore.Fail("create", fmt.Errorf("insert post: %w", err))
	}
	return id, nil
}

// Update implements poststore.Store.
func (s *Store) Update(ctx context.Context, id string, fields post.Draft) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE posts SET title = $1, content = $2, updated_at = $3 WHERE id = $4`,
		fields.Title, fields.Content, s.now().UTC(), id,
	)
	if err != nil {
		return poststore.Fail("update", fmt.Errorf("update post: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return poststore.Fail("update", poststore.ErrNotFound)
	}
	return nil
}

// SoftDelete implements poststore.Store.
func (s *Store) SoftDelete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE posts SET active = FALSE, updated_at = $1 WHERE id = $2`,
		s.now().UTC(), id,
	)
	if err != nil {
		return poststore.Fail("delete", fmt.Errorf("deactivate post: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return poststore.Fail("delete", poststore.ErrNotFound)
	}
	return nil
}

package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/five82/postboard/internal/post"
	"github.com/five82/postboard/internal/poststore"
)

// Store implements poststore.Store on SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ poststore.Store = (*Store)(nil)

// New returns a Store bound to an opened database handle.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ListActive implements poststore.Store.
func (s *Store) ListActive(ctx context.Context) ([]post.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, created_at, updated_at
		FROM posts
		WHERE active = 1
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, poststore.Fail("list", fmt.Errorf("query posts: %w", err))
	}
	defer rows.Close()

	var posts []post.Post
	for rows.Next() {
		var (
			p         post.Post
			updatedAt sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.CreatedAt, &updatedAt); err != nil {
			return nil, poststore.Fail("list", fmt.Errorf("scan post: %w", err))
		}
		p.UpdatedAt = updatedAt.String
		p.Active = true
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, poststore.Fail("list", fmt.Errorf("iterate posts: %w", err))
	}
	return posts, nil
}

// Create implements poststore.Store. A new id is always assigned.
func (s *Store) Create(ctx context.Context, p post.Post) (string, error) {
	id := uuid.NewString()
	createdAt := normalizeTimestamp(p.CreatedAt, s.now())

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (id, title, content, created_at, updated_at, active) VALUES (?, ?, ?, ?, NULL, ?)`,
		id, p.Title, p.Content, createdAt, boolToInt(p.Active),
	)
	if err != nil {
		return "", poststore.Fail("create", fmt.Errorf("insert post: %w", err))
	}
	return id, nil
}

// Update implements poststore.Store.
func (s *Store) Update(ctx context.Context, id string, fields post.Draft) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE posts SET title = ?, content = ?, updated_at = ? WHERE id = ?`,
		fields.Title, fields.Content, post.Timestamp(s.now()), id,
	)
	if err != nil {
		return poststore.Fail("update", fmt.Errorf("update post: %w", err))
	}
	return requireRow("update", res)
}

// SoftDelete implements poststore.Store.
func (s *Store) SoftDelete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE posts SET active = 0, updated_at = ? WHERE id = ?`,
		post.Timestamp(s.now()), id,
	)
	if err != nil {
		return poststore.Fail("delete", fmt.Errorf("deactivate post: %w", err))
	}
	return requireRow("delete", res)
}

func requireRow(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return poststore.Fail(op, fmt.Errorf("rows affected: %w", err))
	}
	if n == 0 {
		return poststore.Fail(op, poststore.ErrNotFound)
	}
	return nil
}

// normalizeTimestamp rewrites parsable timestamps to post.TimestampLayout so
// that lexical ORDER BY created_at matches chronological order.
func normalizeTimestamp(value string, fallback time.Time) string {
	t := post.Post{CreatedAt: value}.ParsedCreatedAt()
	if t.IsZero() {
		t = fallback
	}
	return post.Timestamp(t)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package poststore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/five82/postboard/internal/post"
)

// Memory is an in-process Store. It backs tests and the "memory" server driver.
type Memory struct {
	mu    sync.RWMutex
	posts map[string]post.Post
	now   func() time.Time
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{posts: make(map[string]post.Post), now: time.Now}
}

// ListActive implements Store.
func (m *Memory) ListActive(ctx context.Context) ([]post.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, Fail("list", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]post.Post, 0, len(m.posts))
	for _, p := range m.posts {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].ParsedCreatedAt(), out[j].ParsedCreatedAt()
		if ti.Equal(tj) {
			return out[i].ID > out[j].ID
		}
		return ti.After(tj)
	})
	return out, nil
}

// Create implements Store. The client-supplied id is replaced.
func (m *Memory) Create(ctx context.Context, p post.Post) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", Fail("create", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p.ID = uuid.NewString()
	if p.CreatedAt == "" {
		p.CreatedAt = post.Timestamp(m.clock())
	}
	m.ensure()
	m.posts[p.ID] = p
	return p.ID, nil
}

// Update implements Store.
func (m *Memory) Update(ctx context.Context, id string, fields post.Draft) error {
	if err := ctx.Err(); err != nil {
		return Fail("update", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[id]
	if !ok {
		return Fail("update", ErrNotFound)
	}
	p.Title = fields.Title
	p.Content = fields.Content
	p.UpdatedAt = post.Timestamp(m.clock())
	m.posts[id] = p
	return nil
}

// SoftDelete implements Store.
func (m *Memory) SoftDelete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return Fail("delete", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[id]
	if !ok {
		return Fail("delete", ErrNotFound)
	}
	p.Active = false
	p.UpdatedAt = post.Timestamp(m.clock())
	m.posts[id] = p
	return nil
}

// Get returns the stored post regardless of its active flag.
func (m *Memory) Get(id string) (post.Post, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.posts[id]
	return p, ok
}

func (m *Memory) ensure() {
	if m.posts == nil {
		m.posts = make(map[string]post.Post)
	}
}

func (m *Memory) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}

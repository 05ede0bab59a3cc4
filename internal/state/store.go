package state

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/five82/postboard/internal/post"
	"github.com/five82/postboard/internal/poststore"
)

// RequestStatus tracks one in-flight request kind.
type RequestStatus struct {
	IsLoading bool
	Error     string
	IsError   bool
}

// Focused is the post currently viewed or edited, mirrored from Posts, plus the
// status of the last add/edit/delete request.
type Focused struct {
	Post   *post.Post
	Status RequestStatus
}

// State is the application state observed by the presentation layer.
type State struct {
	Posts      []post.Post
	Focused    Focused
	Collection RequestStatus
}

// Transition names a state-transition operation.
type Transition string

const (
	TransitionSetPosts             Transition = "setPosts"
	TransitionAddPostOptimistic    Transition = "addPostOptimistic"
	TransitionUpdatePostInList     Transition = "updatePostInList"
	TransitionSetFocusedPost       Transition = "setFocusedPost"
	TransitionSyncFocusedPost      Transition = "syncFocusedPost"
	TransitionRemovePostFromList   Transition = "removePostFromList"
	TransitionSetCollectionLoading Transition = "setCollectionLoading"
	TransitionSetFocusedLoading    Transition = "setFocusedLoading"
	TransitionSetCollectionError   Transition = "setCollectionError"
	TransitionSetFocusedError      Transition = "setFocusedError"
)

// Change is delivered to subscribers after every transition.
type Change struct {
	Transition Transition
	State      State
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for optimistic posts.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDs overrides the id generator used for optimistic posts.
func WithIDs(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// Store holds State and applies named transitions. The zero value is ready
// to use.
type Store struct {
	// notifyMu serialises apply+notify so subscribers observe changes in the
	// order they were applied.
	notifyMu sync.Mutex
	mu       sync.RWMutex
	state    State

	subs   map[int]func(Change)
	nextID int

	now   func() time.Time
	newID func() string
}

// New returns a Store configured with opts.
func New(opts ...Option) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneState(s.state)
}

// Subscribe registers fn to be called once after every transition. fn runs
// on the goroutine that applied the transition and must not apply
// transitions itself. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = make(map[int]func(Change))
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// SetPosts replaces the whole collection, keeping the given order.
func (s *Store) SetPosts(posts []post.Post) {
	s.apply(TransitionSetPosts, func(st *State) {
		st.Posts = clonePosts(posts)
	})
}

// AddPostOptimistic builds a local post from d, focuses it and starts a fresh
// focused request. The built post is returned.
func (s *Store) AddPostOptimistic(d post.Draft) post.Post {
	p := post.Post{
		ID:        s.generateID(),
		Title:     d.Title,
		Content:   d.Content,
		CreatedAt: post.Timestamp(s.clock()),
		Active:    true,
	}
	s.apply(TransitionAddPostOptimistic, func(st *State) {
		focused := p
		st.Focused.Post = &focused
		st.Focused.Status = RequestStatus{IsLoading: true}
	})
	return p
}

// UpdatePostInList merges p's title, content and updated_at into the entry
// with the same id. Unknown ids are ignored.
func (s *Store) UpdatePostInList(p post.Post) {
	s.apply(TransitionUpdatePostInList, func(st *State) {
		for i := range st.Posts {
			if st.Posts[i].ID != p.ID {
				continue
			}
			st.Posts[i].Title = p.Title
			st.Posts[i].Content = p.Content
			if p.UpdatedAt != "" {
				st.Posts[i].UpdatedAt = p.UpdatedAt
			}
		}
	})
}

// SetFocusedPost mirrors p into the focused slot; nil clears it.
func (s *Store) SetFocusedPost(p *post.Post) {
	s.apply(TransitionSetFocusedPost, func(st *State) {
		if p == nil {
			st.Focused.Post = nil
			return
		}
		mirror := *p
		st.Focused.Post = &mirror
	})
}

// SyncFocused copies the title, content and updated_at of p onto the focused
// post when it has the same id. The check and the write happen under one lock.
func (s *Store) SyncFocused(p post.Post) {
	s.apply(TransitionSyncFocusedPost, func(st *State) {
		if st.Focused.Post == nil || st.Focused.Post.ID != p.ID {
			return
		}
		mirror := *st.Focused.Post
		mirror.Title = p.Title
		mirror.Content = p.Content
		if p.UpdatedAt != "" {
			mirror.UpdatedAt = p.UpdatedAt
		}
		st.Focused.Post = &mirror
	})
}

// RemovePostFromList drops the post with id from the collection, if present.
func (s *Store) RemovePostFromList(id string) {
	s.apply(TransitionRemovePostFromList, func(st *State) {
		kept := make([]post.Post, 0, len(st.Posts))
		for _, p := range st.Posts {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		st.Posts = kept
	})
}

// SetCollectionLoading sets the collection loading flag.
func (s *Store) SetCollectionLoading(loading bool) {
	s.apply(TransitionSetCollectionLoading, func(st *State) {
		st.Collection.IsLoading = loading
	})
}

// SetFocusedLoading sets the focused-post loading flag.
func (s *Store) SetFocusedLoading(loading bool) {
	s.apply(TransitionSetFocusedLoading, func(st *State) {
		st.Focused.Status.IsLoading = loading
	})
}

// SetCollectionError records msg as the collection error. An empty msg leaves
// any earlier error in place.
func (s *Store) SetCollectionError(msg string) {
	s.apply(TransitionSetCollectionError, func(st *State) {
		if msg == "" {
			return
		}
		st.Collection.Error = msg
		st.Collection.IsError = true
	})
}

// SetFocusedError records err as the focused-post error. A nil err leaves any
// earlier error in place.
func (s *Store) SetFocusedError(err error) {
	s.apply(TransitionSetFocusedError, func(st *State) {
		if err == nil {
			return
		}
		st.Focused.Status.Error = poststore.Message(err)
		st.Focused.Status.IsError = true
	})
}

func (s *Store) apply(t Transition, mutate func(*State)) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	mutate(&s.state)
	change := Change{Transition: t, State: cloneState(s.state)}
	subs := make([]func(Change), 0, len(s.subs))
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(change)
	}
}

func (s *Store) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func (s *Store) generateID() string {
	if s.newID == nil {
		return uuid.NewString()
	}
	return s.newID()
}

func cloneState(st State) State {
	out := st
	out.Posts = clonePosts(st.Posts)
	if st.Focused.Post != nil {
		p := *st.Focused.Post
		out.Focused.Post = &p
	}
	return out
}

func clonePosts(posts []post.Post) []post.Post {
	if posts == nil {
		return nil
	}
	dup := make([]post.Post, len(posts))
	copy(dup, posts)
	return dup
}

package effects

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/postboard/internal/post"
	"github.com/five82/postboard/internal/poststore"
	"github.com/five82/postboard/internal/state"
)

// FetchErrorMessage is recorded as the collection error when a fetch fails.
const FetchErrorMessage = "Error fetching posts"

const (
	defaultRequestTimeout = 10 * time.Second
	intentBuffer          = 64
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger used for sequence diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRequestTimeout bounds each remote store call. Zero or negative disables
// the bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithObserver registers fn to see every intent the run loop accepts, before
// its sequence starts.
func WithObserver(fn func(Intent)) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

// WithClock overrides the time source used to stamp local edits.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator runs one effect sequence per intent against the remote post
// store and reports progress through state transitions.
type Orchestrator struct {
	store  *state.Store
	posts  poststore.Store
	logger *slog.Logger

	timeout  time.Duration
	observer func(Intent)
	now      func() time.Time

	intents  chan Intent
	stopped  chan struct{}
	stopOnce sync.Once
	inflight sync.WaitGroup
}

// New returns an Orchestrator that mutates store and talks to posts.
func New(store *state.Store, posts poststore.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:   store,
		posts:   posts,
		logger:  slog.New(slog.DiscardHandler),
		timeout: defaultRequestTimeout,
		now:     time.Now,
		intents: make(chan Intent, intentBuffer),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Dispatch queues an intent. It returns once the intent is queued; the outcome
// is visible only through the state store. Intents dispatched after Run has
// stopped are dropped.
func (o *Orchestrator) Dispatch(in Intent) {
	select {
	case <-o.stopped:
		o.logger.Warn("intent dropped, orchestrator stopped", "intent", in.Name())
		return
	default:
	}
	select {
	case o.intents <- in:
	case <-o.stopped:
		o.logger.Warn("intent dropped, orchestrator stopped", "intent", in.Name())
	}
}

// Fetch dispatches FetchCollection.
func (o *Orchestrator) Fetch() {
	o.Dispatch(FetchCollection{})
}

// SubmitAdd validates d and dispatches AddPost. A *post.ValidationError is
// returned, and nothing is dispatched, when d breaks a rule.
func (o *Orchestrator) SubmitAdd(d post.Draft) error {
	if err := post.Validate(d); err != nil {
		return err
	}
	o.Dispatch(AddPost{Title: d.Title, Content: d.Content})
	return nil
}

// SubmitEdit validates e and dispatches EditPost.
func (o *Orchestrator) SubmitEdit(e post.Edit) error {
	if e.ID == "" {
		return &post.ValidationError{Problems: []string{"Post id is required"}}
	}
	if err := post.Validate(e.Draft()); err != nil {
		return err
	}
	o.Dispatch(EditPost{ID: e.ID, Title: e.Title, Content: e.Content})
	return nil
}

// Delete dispatches DeletePost for id.
func (o *Orchestrator) Delete(id string) {
	o.Dispatch(DeletePost{ID: id})
}

// Run consumes intents until ctx is done, starting one goroutine per intent.
// Sequences already started are not cancelled: Run waits for them before it
// returns. Intents still queued at that point are dropped and logged.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer func() {
		o.stopOnce.Do(func() { close(o.stopped) })
		o.inflight.Wait()
		o.dropQueued()
	}()

	seqCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in := <-o.intents:
			if o.observer != nil {
				o.observer(in)
			}
			o.inflight.Add(1)
			go func() {
				defer o.inflight.Done()
				o.handle(seqCtx, in)
			}()
		}
	}
}

func (o *Orchestrator) dropQueued() {
	for {
		select {
		case in := <-o.intents:
			o.logger.Warn("intent dropped, orchestrator stopped", "intent", in.Name())
		default:
			return
		}
	}
}

func (o *Orchestrator) handle(ctx context.Context, in Intent) {
	o.logger.Debug("sequence started", "intent", in.Name())
	switch in := in.(type) {
	case FetchCollection:
		o.fetchCollection(ctx)
	case AddPost:
		o.addPost(ctx, in)
	case EditPost:
		o.editPost(ctx, in)
	case DeletePost:
		o.deletePost(ctx, in)
	default:
		o.logger.Warn("unknown intent ignored", "intent", in.Name())
	}
}

func (o *Orchestrator) fetchCollection(ctx context.Context) {
	o.store.SetCollectionLoading(true)
	// Cleared again on every path, even after the success branch clears it.
	defer o.store.SetCollectionLoading(false)

	var posts []post.Post
	err := o.call(ctx, func(ctx context.Context) error {
		var err error
		posts, err = o.posts.ListActive(ctx)
		return err
	})
	if err != nil {
		o.logger.Error("fetch posts failed", "error", err)
		o.store.SetCollectionError(FetchErrorMessage)
		return
	}

	o.store.SetPosts(posts)
	o.store.SetCollectionLoading(false)
	o.logger.Debug("fetched posts", "count", len(posts))
}

func (o *Orchestrator) addPost(ctx context.Context, in AddPost) {
	draft := post.Draft{Title: in.Title, Content: in.Content}
	if err := post.Validate(draft); err != nil {
		o.logger.Warn("add intent failed validation, dropped", "error", err)
		return
	}

	optimistic := o.store.AddPostOptimistic(draft)
	o.mutate(ctx, "create", func(ctx context.Context) error {
		id, err := o.posts.Create(ctx, optimistic)
		if err == nil {
			o.logger.Info("post created", "id", id, "local_id", optimistic.ID)
		}
		return err
	})
}

func (o *Orchestrator) editPost(ctx context.Context, in EditPost) {
	edit := post.Edit{ID: in.ID, Title: in.Title, Content: in.Content}
	if err := post.Validate(edit.Draft()); err != nil || in.ID == "" {
		o.logger.Warn("edit intent failed validation, dropped", "id", in.ID, "error", err)
		return
	}

	edited := post.Post{ID: in.ID, Title: in.Title, Content: in.Content, UpdatedAt: post.Timestamp(o.now())}
	o.store.UpdatePostInList(edited)
	o.store.SyncFocused(edited)

	o.mutate(ctx, "update", func(ctx context.Context) error {
		return o.posts.Update(ctx, in.ID, edit.Draft())
	})
}

func (o *Orchestrator) deletePost(ctx context.Context, in DeletePost) {
	o.store.RemovePostFromList(in.ID)
	o.mutate(ctx, "delete", func(ctx context.Context) error {
		return o.posts.SoftDelete(ctx, in.ID)
	})
}

// mutate runs the shared tail of every add/edit/delete sequence and then
// raises the follow-up fetch so the list is re-derived from the remote store.
func (o *Orchestrator) mutate(ctx context.Context, op string, fn func(context.Context) error) {
	o.store.SetFocusedLoading(true)

	if err := o.call(ctx, fn); err != nil {
		o.logger.Error("post "+op+" failed", "error", err)
		o.store.SetFocusedError(err)
	} else {
		o.store.SetFocusedLoading(false)
	}
	o.store.SetFocusedLoading(false)

	o.Dispatch(FetchCollection{})
}

func (o *Orchestrator) call(ctx context.Context, fn func(context.Context) error) error {
	if o.timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return fn(ctx)
}

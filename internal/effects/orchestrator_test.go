package effects

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/five82/postboard/internal/post"
	"github.com/five82/postboard/internal/poststore"
	"github.com/five82/postboard/internal/state"
)

type fakeStore struct {
	mu sync.Mutex

	listResult []post.Post
	listErr    error
	createErr  error
	updateErr  error
	deleteErr  error

	// When gate is non-nil every call signals entered and waits for gate.
	gate    chan struct{}
	entered chan struct{}

	calls   []string
	created []post.Post
	updates []post.Edit
	deleted []string
	ctxErrs []error
}

var _ poststore.Store = (*fakeStore)(nil)

func (f *fakeStore) wait(ctx context.Context, call string) {
	if f.gate != nil {
		f.entered <- struct{}{}
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
}

func (f *fakeStore) ListActive(ctx context.Context) ([]post.Post, error) {
	f.wait(ctx, "list")
	return f.listResult, f.listErr
}

func (f *fakeStore) Create(ctx context.Context, p post.Post) (string, error) {
	f.wait(ctx, "create")
	f.mu.Lock()
	f.created = append(f.created, p)
	f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	return "server-1", nil
}

func (f *fakeStore) Update(ctx context.Context, id string, fields post.Draft) error {
	f.wait(ctx, "update")
	f.mu.Lock()
	f.updates = append(f.updates, post.Edit{ID: id, Title: fields.Title, Content: fields.Content})
	f.mu.Unlock()
	return f.updateErr
}

func (f *fakeStore) SoftDelete(ctx context.Context, id string) error {
	f.wait(ctx, "delete")
	f.mu.Lock()
	f.deleted = append(f.deleted, id)
	f.mu.Unlock()
	return f.deleteErr
}

func (f *fakeStore) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

// syncBuffer is a bytes.Buffer safe for a logger shared across goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func recordTransitions(s *state.Store) func() []state.Transition {
	var mu sync.Mutex
	var got []state.Transition
	s.Subscribe(func(c state.Change) {
		mu.Lock()
		got = append(got, c.Transition)
		mu.Unlock()
	})
	return func() []state.Transition {
		mu.Lock()
		defer mu.Unlock()
		return append([]state.Transition(nil), got...)
	}
}

// drainQueued returns the intents dispatched while no run loop was consuming.
func drainQueued(o *Orchestrator) []Intent {
	var out []Intent
	for {
		select {
		case in := <-o.intents:
			out = append(out, in)
		default:
			return out
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestFetchCollection_Success(t *testing.T) {
	posts := []post.Post{{ID: "p1", Title: "one", Active: true}, {ID: "p2", Title: "two", Active: true}}
	fake := &fakeStore{listResult: posts}
	store := state.New()
	transitions := recordTransitions(store)
	o := New(store, fake)

	o.handle(context.Background(), FetchCollection{})

	snap := store.Snapshot()
	if !reflect.DeepEqual(snap.Posts, posts) {
		t.Fatalf("Posts = %#v, want %#v", snap.Posts, posts)
	}
	if snap.Collection != (state.RequestStatus{}) {
		t.Fatalf("Collection = %#v, want idle without error", snap.Collection)
	}
	want := []state.Transition{
		state.TransitionSetCollectionLoading,
		state.TransitionSetPosts,
		state.TransitionSetCollectionLoading,
		state.TransitionSetCollectionLoading,
	}
	if got := transitions(); !reflect.DeepEqual(got, want) {
		t.Fatalf("transitions = %v, want %v", got, want)
	}
	if queued := drainQueued(o); len(queued) != 0 {
		t.Fatalf("fetch must not raise follow-ups, got %v", queued)
	}
}

func TestFetchCollection_Failure(t *testing.T) {
	fake := &fakeStore{listErr: errors.New("unavailable")}
	store := state.New()
	store.SetPosts([]post.Post{{ID: "keep"}})
	transitions := recordTransitions(store)
	o := New(store, fake)

	o.handle(context.Background(), FetchCollection{})

	snap := store.Snapshot()
	want := state.RequestStatus{IsLoading: false, IsError: true, Error: FetchErrorMessage}
	if snap.Collection != want {
		t.Fatalf("Collection = %#v, want %#v", snap.Collection, want)
	}
	if len(snap.Posts) != 1 || snap.Posts[0].ID != "keep" {
		t.Fatalf("Posts = %#v, failed fetch must keep previous posts", snap.Posts)
	}
	wantT := []state.Transition{
		state.TransitionSetCollectionLoading,
		state.TransitionSetCollectionError,
		state.TransitionSetCollectionLoading,
	}
	if got := transitions(); !reflect.DeepEqual(got, wantT) {
		t.Fatalf("transitions = %v, want %v", got, wantT)
	}
}

func TestAddPost_Success(t *testing.T) {
	fake := &fakeStore{}
	store := state.New(state.WithIDs(func() string { return "local-1" }))
	var loading []bool
	store.Subscribe(func(c state.Change) {
		if c.Transition == state.TransitionSetFocusedLoading || c.Transition == state.TransitionAddPostOptimistic {
			loading = append(loading, c.State.Focused.Status.IsLoading)
		}
	})
	o := New(store, fake)

	o.handle(context.Background(), AddPost{Title: "hello", Content: "world"})

	if len(loading) < 2 || !loading[0] || loading[len(loading)-1] {
		t.Fatalf("focused loading history = %v, want true → false", loading)
	}
	snap := store.Snapshot()
	if snap.Focused.Status != (state.RequestStatus{}) {
		t.Fatalf("Focused.Status = %#v, want idle without error", snap.Focused.Status)
	}
	if len(fake.created) != 1 || fake.created[0].ID != "local-1" || fake.created[0].Title != "hello" || !fake.created[0].Active {
		t.Fatalf("created = %#v, want optimistic post", fake.created)
	}
	if snap.Focused.Post == nil || snap.Focused.Post.ID != "local-1" {
		t.Fatalf("Focused.Post = %#v, want optimistic post", snap.Focused.Post)
	}
	if len(snap.Posts) != 0 {
		t.Fatalf("Posts = %#v, add must not insert locally", snap.Posts)
	}

	queued := drainQueued(o)
	if len(queued) != 1 || queued[0] != (FetchCollection{}) {
		t.Fatalf("follow-up intents = %v, want exactly one FetchCollection", queued)
	}
}

func TestAddPost_Failure(t *testing.T) {
	fake := &fakeStore{createErr: errors.New("boom")}
	store := state.New()
	transitions := recordTransitions(store)
	o := New(store, fake)

	o.handle(context.Background(), AddPost{Title: "hello", Content: "world"})

	snap := store.Snapshot()
	want := state.RequestStatus{IsLoading: false, IsError: true, Error: "boom"}
	if snap.Focused.Status != want {
		t.Fatalf("Focused.Status = %#v, want %#v", snap.Focused.Status, want)
	}
	if snap.Focused.Post == nil {
		t.Fatalf("optimistic focused post should survive a failed add")
	}
	wantT := []state.Transition{
		state.TransitionAddPostOptimistic,
		state.TransitionSetFocusedLoading,
		state.TransitionSetFocusedError,
		state.TransitionSetFocusedLoading,
	}
	if got := transitions(); !reflect.DeepEqual(got, wantT) {
		t.Fatalf("transitions = %v, want %v", got, wantT)
	}
	queued := drainQueued(o)
	if len(queued) != 1 || queued[0] != (FetchCollection{}) {
		t.Fatalf("follow-up intents = %v, want exactly one FetchCollection", queued)
	}
}

func TestAddPost_InvalidIntentIsDropped(t *testing.T) {
	fake := &fakeStore{}
	store := state.New()
	transitions := recordTransitions(store)
	o := New(store, fake)

	o.handle(context.Background(), AddPost{Title: "", Content: "body"})

	if got := transitions(); len(got) != 0 {
		t.Fatalf("transitions = %v, want none", got)
	}
	if len(fake.calls) != 0 {
		t.Fatalf("store calls = %v, want none", fake.calls)
	}
	if queued := drainQueued(o); len(queued) != 0 {
		t.Fatalf("follow-up intents = %v, want none", queued)
	}
}

func TestSubmitAdd_ValidationGate(t *testing.T) {
	store := state.New()
	transitions := recordTransitions(store)
	o := New(store, &fakeStore{})

	err := o.SubmitAdd(post.Draft{Title: "", Content: ""})
	var verr *post.ValidationError
	if !errors.As(err, &verr) || len(verr.Problems) != 2 {
		t.Fatalf("SubmitAdd error = %v, want ValidationError with 2 problems", err)
	}
	if queued := drainQueued(o); len(queued) != 0 {
		t.Fatalf("invalid submit dispatched %v", queued)
	}
	if got := transitions(); len(got) != 0 {
		t.Fatalf("invalid submit applied transitions %v", got)
	}
	if store.Snapshot().Focused.Status.IsError {
		t.Fatalf("validation errors must not reach the state store")
	}

	if err := o.SubmitAdd(post.Draft{Title: "t", Content: "c"}); err != nil {
		t.Fatalf("SubmitAdd valid error = %v", err)
	}
	queued := drainQueued(o)
	if len(queued) != 1 || queued[0] != (AddPost{Title: "t", Content: "c"}) {
		t.Fatalf("queued = %v, want one AddPost", queued)
	}
}

func TestSubmitEdit_RequiresID(t *testing.T) {
	o := New(state.New(), &fakeStore{})
	if err := o.SubmitEdit(post.Edit{Title: "t", Content: "c"}); err == nil {
		t.Fatalf("SubmitEdit without id returned nil error")
	}
	if err := o.SubmitEdit(post.Edit{ID: "p1", Title: "t", Content: ""}); err == nil {
		t.Fatalf("SubmitEdit with empty content returned nil error")
	}
	if queued := drainQueued(o); len(queued) != 0 {
		t.Fatalf("queued = %v, want none", queued)
	}
}

func TestEditPost_UpdatesListAndFocusedMirror(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	fake := &fakeStore{}
	store := state.New()
	original := post.Post{ID: "p1", Title: "old", Content: "old body", CreatedAt: "2025-01-01T00:00:00Z", Active: true}
	store.SetPosts([]post.Post{original})
	store.SetFocusedPost(&original)
	transitions := recordTransitions(store)
	o := New(store, fake, WithClock(func() time.Time { return fixed }))

	o.handle(context.Background(), EditPost{ID: "p1", Title: "new", Content: "new body"})

	wantT := []state.Transition{
		state.TransitionUpdatePostInList,
		state.TransitionSyncFocusedPost,
		state.TransitionSetFocusedLoading,
		state.TransitionSetFocusedLoading,
		state.TransitionSetFocusedLoading,
	}
	if got := transitions(); !reflect.DeepEqual(got, wantT) {
		t.Fatalf("transitions = %v, want %v", got, wantT)
	}

	snap := store.Snapshot()
	if snap.Posts[0].Title != "new" || snap.Posts[0].Content != "new body" || snap.Posts[0].UpdatedAt != post.Timestamp(fixed) {
		t.Fatalf("Posts[0] = %#v, want edited fields", snap.Posts[0])
	}
	if snap.Focused.Post == nil || *snap.Focused.Post != snap.Posts[0] {
		t.Fatalf("Focused.Post = %#v, want mirror of %#v", snap.Focused.Post, snap.Posts[0])
	}
	if len(fake.updates) != 1 || fake.updates[0] != (post.Edit{ID: "p1", Title: "new", Content: "new body"}) {
		t.Fatalf("updates = %#v", fake.updates)
	}
	if snap.Focused.Status != (state.RequestStatus{}) {
		t.Fatalf("Focused.Status = %#v, want idle", snap.Focused.Status)
	}
	if queued := drainQueued(o); len(queued) != 1 || queued[0] != (FetchCollection{}) {
		t.Fatalf("follow-up intents = %v, want one FetchCollection", queued)
	}
}

func TestEditPost_FailureIsStickyAndLeavesLoadingOff(t *testing.T) {
	fake := &fakeStore{updateErr: poststore.Fail("update", poststore.ErrNotFound)}
	store := state.New()
	o := New(store, fake)

	o.handle(context.Background(), EditPost{ID: "missing", Title: "t", Content: "c"})

	st := store.Snapshot().Focused.Status
	if st.IsLoading || !st.IsError || st.Error != "update post: post not found" {
		t.Fatalf("Focused.Status = %#v", st)
	}

	// A later success clears loading but keeps the sticky error.
	fake.updateErr = nil
	o.handle(context.Background(), EditPost{ID: "missing", Title: "t", Content: "c"})
	st = store.Snapshot().Focused.Status
	if st.IsLoading || !st.IsError {
		t.Fatalf("Focused.Status after success = %#v, want sticky error", st)
	}
}

func TestDeletePost(t *testing.T) {
	fake := &fakeStore{}
	store := state.New()
	store.SetPosts([]post.Post{{ID: "p1"}, {ID: "p2"}})
	o := New(store, fake)

	o.handle(context.Background(), DeletePost{ID: "p1"})

	snap := store.Snapshot()
	if len(snap.Posts) != 1 || snap.Posts[0].ID != "p2" {
		t.Fatalf("Posts = %#v, want only p2", snap.Posts)
	}
	if len(fake.deleted) != 1 || fake.deleted[0] != "p1" {
		t.Fatalf("deleted = %v, want [p1]", fake.deleted)
	}
	if queued := drainQueued(o); len(queued) != 1 || queued[0] != (FetchCollection{}) {
		t.Fatalf("follow-up intents = %v, want one FetchCollection", queued)
	}
}

func TestEditPost_LeavesOtherFocusedPostAlone(t *testing.T) {
	store := state.New()
	other := post.Post{ID: "p2", Title: "keep", Content: "keep body"}
	store.SetPosts([]post.Post{{ID: "p1", Title: "old", Content: "old"}, other})
	store.SetFocusedPost(&other)
	o := New(store, &fakeStore{})

	o.handle(context.Background(), EditPost{ID: "p1", Title: "new", Content: "new body"})

	if got := store.Snapshot().Focused.Post; got == nil || *got != other {
		t.Fatalf("Focused.Post = %#v, want untouched %#v", got, other)
	}
}

func TestDeletePost_FailureIsStickyAndStillRefetches(t *testing.T) {
	fake := &fakeStore{deleteErr: poststore.Fail("delete", poststore.ErrNotFound)}
	store := state.New()
	store.SetPosts([]post.Post{{ID: "p1"}, {ID: "p2"}})
	transitions := recordTransitions(store)
	o := New(store, fake)

	o.handle(context.Background(), DeletePost{ID: "p1"})

	wantT := []state.Transition{
		state.TransitionRemovePostFromList,
		state.TransitionSetFocusedLoading,
		state.TransitionSetFocusedError,
		state.TransitionSetFocusedLoading,
	}
	if got := transitions(); !reflect.DeepEqual(got, wantT) {
		t.Fatalf("transitions = %v, want %v", got, wantT)
	}

	snap := store.Snapshot()
	if len(snap.Posts) != 1 || snap.Posts[0].ID != "p2" {
		t.Fatalf("Posts = %#v, want only p2 until the refetch", snap.Posts)
	}
	st := snap.Focused.Status
	if st.IsLoading || !st.IsError || st.Error != "delete post: post not found" {
		t.Fatalf("Focused.Status = %#v", st)
	}
	if queued := drainQueued(o); len(queued) != 1 || queued[0] != (FetchCollection{}) {
		t.Fatalf("follow-up intents = %v, want one FetchCollection", queued)
	}
}

func TestRun_DropsQueuedIntentsOnStop(t *testing.T) {
	var buf syncBuffer
	fake := &fakeStore{}
	o := New(state.New(), fake, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	o.Fetch()
	o.Fetch()
	o.Fetch()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := o.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}

	if queued := drainQueued(o); len(queued) != 0 {
		t.Fatalf("queued after Run = %v, want none", queued)
	}
	dropped := strings.Count(buf.String(), "intent dropped, orchestrator stopped")
	if handled := fake.callCount("list"); handled+dropped != 3 {
		t.Fatalf("handled %d + dropped %d, want 3 intents accounted for", handled, dropped)
	}
}

func TestRun_AddTriggersFollowUpFetch(t *testing.T) {
	mem := poststore.NewMemory()
	store := state.New()

	var mu sync.Mutex
	var seen []string
	o := New(store, mem, WithObserver(func(in Intent) {
		mu.Lock()
		seen = append(seen, in.Name())
		mu.Unlock()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	if err := o.SubmitAdd(post.Draft{Title: "hello", Content: "world"}); err != nil {
		t.Fatalf("SubmitAdd: %v", err)
	}

	waitFor(t, func() bool {
		snap := store.Snapshot()
		return len(snap.Posts) == 1 && !snap.Collection.IsLoading
	})

	snap := store.Snapshot()
	if snap.Posts[0].Title != "hello" || snap.Posts[0].ID == snap.Focused.Post.ID {
		t.Fatalf("Posts[0] = %#v, want server copy with server id", snap.Posts[0])
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(seen, []string{"add-post", "fetch-collection"}) {
		t.Fatalf("observed intents = %v, want [add-post fetch-collection]", seen)
	}
}

func TestRun_ConcurrentFetchesAreNotDeduplicated(t *testing.T) {
	fake := &fakeStore{
		gate:       make(chan struct{}),
		entered:    make(chan struct{}, 2),
		listResult: []post.Post{{ID: "p1"}},
	}
	store := state.New()
	o := New(store, fake)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	o.Fetch()
	o.Fetch()
	for i := 0; i < 2; i++ {
		select {
		case <-fake.entered:
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of 2 fetches reached the store concurrently", i)
		}
	}
	close(fake.gate)

	waitFor(t, func() bool { return fake.callCount("list") == 2 })
	cancel()
	<-done
}

func TestRun_CancelDoesNotAbortInFlightSequence(t *testing.T) {
	fake := &fakeStore{
		gate:       make(chan struct{}),
		entered:    make(chan struct{}, 1),
		listResult: []post.Post{{ID: "p1"}},
	}
	store := state.New()
	o := New(store, fake, WithRequestTimeout(0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	o.Fetch()
	<-fake.entered
	cancel()

	select {
	case <-done:
		t.Fatalf("Run returned before the in-flight sequence finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(fake.gate)
	<-done

	snap := store.Snapshot()
	if len(snap.Posts) != 1 || snap.Collection.IsLoading {
		t.Fatalf("state = %#v, want completed fetch", snap)
	}
	if fake.ctxErrs[0] != nil {
		t.Fatalf("store call saw cancelled context: %v", fake.ctxErrs[0])
	}

	// Intents after shutdown are dropped instead of blocking.
	o.Fetch()
}

// Package state holds the application state shared by the effect
// orchestrator and the terminal UI.
//
// # Overview
//
// The Store is the single mutable resource of the client. It is built once at
// startup and injected into the orchestrator and the UI; nothing reaches it
// through a global. State changes only through the named transition methods
// (SetPosts, AddPostOptimistic, UpdatePostInList, SetFocusedPost, SyncFocused,
// RemovePostFromList, Set*Loading, Set*Error).
//
// # Architecture
//
//	Producer (effects):               Consumer (UI):
//	┌─────────────────────┐          ┌──────────────────┐
//	│ SetCollectionLoading│          │                  │
//	│ ListActive()        │          │                  │
//	│ SetPosts()          │─────────→│ Subscribe(fn)    │
//	│ SetCollectionLoading│ (mutex)  │ Snapshot()       │
//	└─────────────────────┘          └──────────────────┘
//
// Several effect sequences may run at once, each on its own goroutine. Every
// transition is applied under a mutex and then announced to subscribers with
// a deep-copied State, so no reader ever sees a half-applied change.
// Notifications are delivered one transition at a time in application order.
//
// # State Shape
//
//	State
//	├── Posts       []post.Post   replaced wholesale by SetPosts
//	├── Focused
//	│   ├── Post    *post.Post    a copy, not an alias of a Posts entry
//	│   └── Status  RequestStatus add/edit/delete requests
//	└── Collection  RequestStatus fetch requests
//
// # Error Semantics
//
// Errors are sticky. SetCollectionError("") and SetFocusedError(nil) do not
// clear a recorded error, and Set*Loading(false) only touches IsLoading. The
// only reset is AddPostOptimistic, which starts a fresh focused status for the
// new add.
//
// # Testing Considerations
//
// The zero Store is usable. New accepts WithClock and WithIDs so tests can
// pin the timestamp and id of optimistic posts.
package state

// Package effects coordinates user intents with the remote post store.
//
// Each intent (FetchCollection, AddPost, EditPost, DeletePost) runs one fixed
// effect sequence on its own goroutine. A sequence issues state transitions
// in a strict order around a single remote store call:
//
//	fetch:  loading(true) → ListActive → SetPosts, loading(false) | SetCollectionError
//	        → loading(false)
//	add:    AddPostOptimistic → focused loading(true) → Create
//	        → loading(false) | SetFocusedError → loading(false) → FetchCollection
//	edit:   UpdatePostInList, focused mirror → loading(true) → Update → … → FetchCollection
//	delete: RemovePostFromList → loading(true) → SoftDelete → … → FetchCollection
//
// Sequences of different intents interleave freely and nothing is
// deduplicated; the last SetPosts to land wins. There are no retries and no
// rollbacks. A failed add leaves its optimistic post in the focused slot.
//
// Mutations end by dispatching FetchCollection themselves, so the follow-up
// fetch flows through the same run loop as any other intent.
package effects

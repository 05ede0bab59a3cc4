// Package post defines the post data model and the validation rule that
// gates every user-authored add or edit.
//
// Timestamps are kept as RFC 3339 strings, the representation the remote
// post store persists and returns; the Parsed* helpers turn them into
// time.Time values for display and ordering.
package post

// Package poststore defines the remote post store contract shared by the
// client's effect orchestrator and every persistence backend.
package poststore

import (
	"context"
	"errors"

	"github.com/five82/postboard/internal/post"
)

// Store persists posts. Implementations must be safe for concurrent use.
type Store interface {
	// ListActive returns active posts ordered by created_at descending.
	ListActive(ctx context.Context) ([]post.Post, error)

	// Create stores a new post and returns the identifier the store assigned.
	Create(ctx context.Context, p post.Post) (string, error)

	// Update replaces the title and content of the post with the given id.
	Update(ctx context.Context, id string, fields post.Draft) error

	// SoftDelete marks the post inactive. Posts are never physically removed.
	SoftDelete(ctx context.Context, id string) error
}

// ErrNotFound reports that no post exists with the requested id.
var ErrNotFound = errors.New("post not found")

const unknownErrorMessage = "Unknown error"

// Error is returned by Store implementations for any backend failure.
type Error struct {
	Op      string // list, create, update, delete
	Message string // user-facing text; may be empty
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Op + " post: " + e.Err.Error()
	}
	return e.Op + " post failed"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fail wraps err as a store error for op. It returns nil when err is nil.
func Fail(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, Err: err}
}

// Message converts an error into the text shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var se *Error
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return unknownErrorMessage
}

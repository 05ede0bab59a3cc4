package post

import (
	"strings"
	"time"
)

const (
	// TimestampLayout is a fixed-width RFC 3339 layout, so stored timestamps
	// sort lexically in chronological order.
	TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

	legacyTimestampLayout = "2006-01-02 15:04:05"
)

// Post is a short text post as stored by the remote post store.
type Post struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at,omitempty"`
	Active    bool   `json:"active"`
}

// Draft holds the user-authored fields of a post.
type Draft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Edit is the payload of an edit: the target id plus the new draft fields.
type Edit struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Draft returns the user-authored fields of the edit.
func (e Edit) Draft() Draft {
	return Draft{Title: e.Title, Content: e.Content}
}

// Draft returns the user-authored fields of the post.
func (p Post) Draft() Draft {
	return Draft{Title: p.Title, Content: p.Content}
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (p Post) ParsedCreatedAt() time.Time {
	return parseTime(p.CreatedAt)
}

// ParsedUpdatedAt returns the parsed UpdatedAt timestamp.
func (p Post) ParsedUpdatedAt() time.Time {
	return parseTime(p.UpdatedAt)
}

// HumanDate renders the creation date as "Jan 2, 2006", or "" when the
// timestamp cannot be parsed.
func (p Post) HumanDate() string {
	t := p.ParsedCreatedAt()
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("Jan 2, 2006")
}

// Timestamp formats t the way posts store their timestamps.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(legacyTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}

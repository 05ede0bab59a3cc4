package post

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Length limits for user-authored fields, counted in characters.
const (
	MaxTitleLength   = 100
	MaxContentLength = 500
)

// ValidationError lists every rule a draft violates.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "\n")
}

// Validate checks a draft against the title and content length rules. It
// returns nil or a *ValidationError carrying one message per violation.
func Validate(d Draft) error {
	problems := Violations(d)
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

// Violations returns the human-readable rule violations of d, in field order.
func Violations(d Draft) []string {
	var problems []string
	problems = appendLengthProblem(problems, "Title", d.Title, MaxTitleLength)
	problems = appendLengthProblem(problems, "Content", d.Content, MaxContentLength)
	return problems
}

func appendLengthProblem(problems []string, field, value string, max int) []string {
	n := utf8.RuneCountInString(value)
	switch {
	case n < 1:
		return append(problems, field+" is required")
	case n > max:
		return append(problems, field+" must be "+strconv.Itoa(max)+" characters or less")
	}
	return problems
}

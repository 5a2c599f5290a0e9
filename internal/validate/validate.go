package validate

import (
	"regexp"
	"strings"
)

const (
	reasonRequired = "Tweet URL is required"
	reasonInvalid  = "Please enter a valid Twitter/X URL"
)

// postURLPattern matches http(s)://(twitter.com|x.com)/<handle>/status/<digits>,
// optionally followed by a path, query or fragment.
var postURLPattern = regexp.MustCompile(`^https?://(twitter\.com|x\.com)/([A-Za-z0-9_]{1,15})/status/(\d+)(?:[/?#].*)?$`)

// Result is the outcome of checking a single input field.
type Result struct {
	Valid  bool
	Reason string
}

// PostRef identifies a post by author handle and status id.
type PostRef struct {
	Handle string
	ID     string
}

// Error is a field-level validation failure for the URL input.
type Error struct {
	Input  string
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

// Check reports whether raw is a syntactically valid post URL.
// It never touches the network.
func Check(raw string) Result {
	if _, err := Parse(raw); err != nil {
		return Result{Reason: err.(*Error).Reason}
	}
	return Result{Valid: true}
}

// Parse validates raw and extracts the handle and status id.
func Parse(raw string) (PostRef, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return PostRef{}, &Error{Input: raw, Reason: reasonRequired}
	}
	m := postURLPattern.FindStringSubmatch(s)
	if m == nil {
		return PostRef{}, &Error{Input: raw, Reason: reasonInvalid}
	}
	return PostRef{Handle: m[2], ID: m[3]}, nil
}

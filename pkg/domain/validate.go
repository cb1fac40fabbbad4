package domain

import (
	"regexp"
	"strings"
)

// slugPattern requires the presence of at least one allowed character, not
// that the whole slug is made of them. The rule has been this loose since
// the first deployment and clients may rely on it, so it stays.
var slugPattern = regexp.MustCompile(`[a-zA-Z0-9_-]`)

// CreateInput is the decoded body of a create request. A client may send a
// slug; whether it is honoured is the service's call, not validation's.
type CreateInput struct {
	Slug    string `json:"slug"`
	Content string `json:"paste"`
}

// Validate trims both fields in place and checks them against the create
// rules. It returns nil when the input is acceptable and performs no I/O.
func (in *CreateInput) Validate() error {
	in.Slug = strings.TrimSpace(in.Slug)
	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" {
		return ErrPasteRequired
	}
	if in.Slug != "" && !slugPattern.MatchString(in.Slug) {
		return ErrInvalidSlug
	}
	return nil
}

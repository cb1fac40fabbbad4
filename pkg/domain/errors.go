package domain

import (
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrPasteRequired  = NewErr("PASTE_REQUIRED", "paste content is required", http.StatusBadRequest)
	ErrInvalidSlug    = NewErr("INVALID_SLUG", "slug must contain at least one of [a-zA-Z0-9_-]", http.StatusBadRequest)
	ErrInvalidRequest = NewErr("INVALID_REQUEST", "invalid request", http.StatusBadRequest)
	ErrSlugTaken      = NewErr("SLUG_TAKEN", "slug already exists", http.StatusConflict)
	ErrPasteNotFound  = NewErr("PASTE_NOT_FOUND", "paste not found", http.StatusNotFound)
	ErrInternalServer = NewErr("INTERNAL_ERROR", "internal error", http.StatusInternalServerError)
)

type Err struct {
	Code   string `json:"code"`
	Msg    string `json:"message"`
	Status int    `json:"-"`
}

func (e *Err) Error() string { return e.Msg }
func NewErr(code, msg string, status int) *Err {
	return &Err{Code: code, Msg: msg, Status: status}
}

// Message resolves any error chain to the user-facing message of the typed
// error at its root, or a generic message for untyped failures.
func Message(err error) string {
	if e, ok := err.(*Err); ok {
		return e.Msg
	}
	if e, ok := errors.Cause(err).(*Err); ok {
		return e.Msg
	}
	return "internal error"
}

func Status(err error) int {
	if e, ok := err.(*Err); ok {
		return e.Status
	}
	if e, ok := errors.Cause(err).(*Err); ok {
		return e.Status
	}
	return http.StatusInternalServerError
}

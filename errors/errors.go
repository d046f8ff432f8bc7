package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidIdentity    = fmt.Errorf("invalid identity: empty user id")
	ErrEmptyMessage       = fmt.Errorf("message text is empty")
	ErrNoChannel          = fmt.Errorf("no active conversation channel")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrWeakPassword       = fmt.Errorf("password does not meet requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrNotFound           = fmt.Errorf("record not found")
	ErrSubscriptionClosed = fmt.Errorf("subscription already closed")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
)

// MapToHTTPStatus translates domain sentinels into transport status codes.
// Unknown errors deliberately collapse to 500 so internals never leak.
func MapToHTTPStatus(err error) int {
	switch {
	case stderrors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case stderrors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	case stderrors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrInvalidIdentity),
		stderrors.Is(err, ErrEmptyMessage),
		stderrors.Is(err, ErrNoChannel),
		stderrors.Is(err, ErrWeakPassword):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

package profile

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies lookup failures.
type Kind int

const (
	KindUnknown Kind = iota
	EmptyInput
	NotFound
	RateLimited
	ProviderUnavailable
	Malformed
	NoProfileToRefresh
)

func (k Kind) String() string {
	switch k {
	case EmptyInput:
		return "empty_input"
	case NotFound:
		return "not_found"
	case RateLimited:
		return "rate_limited"
	case ProviderUnavailable:
		return "provider_unavailable"
	case Malformed:
		return "malformed"
	case NoProfileToRefresh:
		return "no_profile_to_refresh"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is checks. Any *Error matches the sentinel of its Kind.
var (
	ErrEmptyInput          = &Error{Kind: EmptyInput}
	ErrNotFound            = &Error{Kind: NotFound}
	ErrRateLimited         = &Error{Kind: RateLimited}
	ErrProviderUnavailable = &Error{Kind: ProviderUnavailable}
	ErrMalformed           = &Error{Kind: Malformed}
	ErrNoProfileToRefresh  = &Error{Kind: NoProfileToRefresh}
)

// Error is a classified lookup failure.
type Error struct {
	Kind   Kind
	Handle string // Handle the failure relates to, if any.
	Msg    string // Overrides the default message for Kind when set.
	Err    error  // Underlying cause, if any.
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message() + ": " + e.Err.Error()
	}
	return e.Message()
}

// Message returns the user-facing text without the underlying cause.
func (e *Error) Message() string {
	if e.Msg != "" {
		return e.Msg
	}
	return defaultMessage(e.Kind, e.Handle)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func defaultMessage(k Kind, handle string) string {
	switch k {
	case EmptyInput:
		return "Please enter a Discord username"
	case NotFound:
		if handle != "" {
			return fmt.Sprintf("profile %q not found", handle)
		}
		return "profile not found"
	case RateLimited:
		return "too many requests to the profile service; try again in a moment"
	case ProviderUnavailable:
		return "profile service unavailable"
	case Malformed:
		return "stored data is malformed"
	case NoProfileToRefresh:
		return "No profile to refresh"
	default:
		return "An unknown error occurred"
	}
}

// KindOf classifies err. Unclassified errors, including context deadline and
// cancellation, count as ProviderUnavailable since they come from reaching
// the provider. A nil error has KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ProviderUnavailable
}

// Classify returns err as an *Error, wrapping unclassified errors as
// ProviderUnavailable for handle. A nil error returns nil.
func Classify(err error, handle string) *Error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: ProviderUnavailable, Handle: handle, Msg: "profile service timed out", Err: err}
	}
	return &Error{Kind: ProviderUnavailable, Handle: handle, Err: err}
}

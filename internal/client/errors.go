package client

import "errors"

// Kind classifies a client-side failure. The taxonomy decides how a
// failure propagates: validation and policy denials resolve locally,
// an expired session forces a global unauthenticated transition, and
// everything else surfaces a message while leaving state intact.
type Kind int

const (
	// KindValidation is a client-detected input problem; no network
	// call was made.
	KindValidation Kind = iota
	// KindAuthorizationDenied is a client-side policy veto; no network
	// call was made. It is a UX convenience, never a real grant or
	// denial — the server re-validates everything.
	KindAuthorizationDenied
	// KindSessionExpired is a 401 from the backing store. The stored
	// credential has already been cleared by the time the caller sees
	// this error.
	KindSessionExpired
	// KindConflictOrServer is any other non-2xx response.
	KindConflictOrServer
	// KindNetworkUnavailable means the call could not complete at all.
	KindNetworkUnavailable
)

// Error is the typed failure returned by every gateway operation.
// Message is safe to show to the end user: it is either the store's own
// message or a generic fallback, never a structural internal.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func deniedError(msg string) *Error {
	return &Error{Kind: KindAuthorizationDenied, Message: msg}
}

// KindOf returns the Kind of err, or KindNetworkUnavailable when err is
// not a client *Error (the most conservative classification).
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindNetworkUnavailable
}

// IsSessionExpired reports whether err signals a dead credential.
func IsSessionExpired(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == KindSessionExpired
}

package apperr

import "errors"

// Sentinel errors for the routine failure modes of the API and the call
// state machine. Handlers map these onto HTTP status codes; everything
// else is treated as an internal error.
var (
	// ErrNotFound means a referenced user, call, room or message does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the caller is not a party authorized for the action.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict means a state-machine guard failed: the action was attempted
	// from a status that does not permit it.
	ErrConflict = errors.New("conflict")
	// ErrInvalidArgument means malformed input, e.g. an unrecognized status
	// or call kind.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnauthenticated means the request or connection carried no valid token.
	ErrUnauthenticated = errors.New("unauthenticated")
)

package driver

import (
	"errors"
)

var (
	// ErrUnknownPredicate is returned by the predicate compilers when
	// they encounter a condition node they don't understand.
	ErrUnknownPredicate = errors.New("unknown predicate")
	// ErrUnsupportedQuery is returned when a backend cannot express
	// the requested query, e.g. an offset without a limit on MySQL.
	// Backends fail explicitly rather than silently ignore the option.
	ErrUnsupportedQuery = errors.New("unsupported query")
	// ErrUndefinedBindValue is returned when a value bound to a SQL
	// parameter cannot be passed to the driver. It is detected before
	// the query is issued.
	ErrUndefinedBindValue = errors.New("undefined bind value")
	// ErrProtocolMismatch is returned by an Opener when the
	// configuration URL does not use the backend's scheme.
	ErrProtocolMismatch = errors.New("protocol mismatch")
)

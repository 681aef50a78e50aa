package strata

import (
	"errors"

	"github.com/strata-db/strata/schema"
)

var (
	// ErrNotFound is returned by Query.One when no row matches.
	ErrNotFound = errors.New("no results found")
	// ErrNoDefaultConnection is returned when a model has no explicit
	// driver and no process-wide default has been set.
	ErrNoDefaultConnection = errors.New("no default connection")
	// ErrUnknownField is returned when a payload or condition
	// references a field the model does not declare. Validation runs
	// before any backend I/O.
	ErrUnknownField = errors.New("unknown field")
	// ErrAutoValue is returned when a payload supplies a value for an
	// auto-assigned field.
	ErrAutoValue = errors.New("value supplied for auto field")
	// ErrRequiredFieldMissing is returned by Insert when a required
	// field is absent from the payload.
	ErrRequiredFieldMissing = errors.New("required field missing")
	// ErrRequiredFieldNull is returned when a required field is set
	// to nil.
	ErrRequiredFieldNull = errors.New("required field is null")
	// ErrFieldTooLong is returned when a string value exceeds the
	// field's declared size.
	ErrFieldTooLong = errors.New("value exceeds field size")
	// ErrForeignKeyViolation is returned when a foreign key value has
	// no matching row in the referenced model.
	ErrForeignKeyViolation = errors.New("foreign key violation")
)

// IsValidationError reports whether the error was produced by payload
// or condition validation, before any backend I/O.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrUnknownField) ||
		errors.Is(err, ErrAutoValue) ||
		errors.Is(err, ErrRequiredFieldMissing) ||
		errors.Is(err, ErrRequiredFieldNull) ||
		errors.Is(err, ErrFieldTooLong) ||
		errors.Is(err, ErrForeignKeyViolation) ||
		errors.Is(err, schema.ErrFieldNotFound)
}

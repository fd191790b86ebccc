package schema

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownKind       = errors.New("schema: unknown kind")
	ErrEmptyEnum         = errors.New("schema: enum declares no values")
	ErrDuplicateProperty = errors.New("schema: duplicate property")
	ErrMissingItems      = errors.New("schema: array requires items")
	ErrInvalidConstraint = errors.New("schema: invalid constraint")
	ErrDefaultViolation  = errors.New("schema: default violates constraints")
	ErrUnknownReference  = errors.New("schema: unknown cross-field reference")
	ErrEmptyPropertyName = errors.New("schema: property name is empty")
)

const errUnsupportedNodeKind = "schema: unsupported node %T"

// ConfigError reports a malformed definition. Path uses dotted notation
// relative to the root passed to Build ("" for the root itself).
type ConfigError struct {
	Path   string
	Err    error
	Detail string
}

func (e *ConfigError) Error() string {
	location := e.Path
	if location == "" {
		location = "<root>"
	}
	if e.Detail == "" {
		return fmt.Sprintf("%v at %s", e.Err, location)
	}
	return fmt.Sprintf("%v at %s: %s", e.Err, location, e.Detail)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configError(path string, err error, format string, args ...any) *ConfigError {
	return &ConfigError{
		Path:   path,
		Err:    err,
		Detail: fmt.Sprintf(format, args...),
	}
}

func unsupported(node Node) string {
	return fmt.Sprintf(errUnsupportedNodeKind, node)
}

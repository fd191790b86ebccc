package model

import (
	"errors"
	"fmt"
)

var (
	ErrMissingID           = errors.New("missing form id")
	ErrEmptyFieldName      = errors.New("empty field name")
	ErrDuplicateField      = errors.New("duplicate field")
	ErrMissingSchema       = errors.New("missing schema")
	ErrUnknownDependency   = errors.New("unknown dependency")
	ErrDependencyCycle     = errors.New("dependency cycle")
	ErrMissingOptionSource = errors.New("dependent field without option loader")
	ErrInvalidOption       = errors.New("invalid option")
	ErrInvalidDefault      = errors.New("invalid default")
	ErrUnknownLayout       = errors.New("unknown layout kind")
	ErrInvalidLayout       = errors.New("invalid layout")
	ErrUnknownSection      = errors.New("unknown section")
	ErrUnknownLoader       = errors.New("unknown option loader")
	ErrDuplicateForm       = errors.New("duplicate form")
	ErrInvalidDocument     = errors.New("invalid document")
)

// ConfigError reports a malformed form specification. Err is one of the
// sentinel errors of this package or a wrapped *schema.ConfigError.
type ConfigError struct {
	Form   string
	Field  string
	Err    error
	Detail string
}

func (e *ConfigError) Error() string {
	msg := "model: "
	if e.Form != "" {
		msg += fmt.Sprintf("form %q: ", e.Form)
	}
	if e.Field != "" {
		msg += fmt.Sprintf("field %q: ", e.Field)
	}
	msg += e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configError(form, field string, err error, format string, args ...any) *ConfigError {
	return &ConfigError{Form: form, Field: field, Err: err, Detail: fmt.Sprintf(format, args...)}
}

package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration value")

// FieldError rejects one setting, named by its dotted key.
type FieldError struct {
	Field  string // e.g. "session.ttl"
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrInvalid, e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrInvalid }

// EnvVar is the environment variable that overrides the field.
func (e *FieldError) EnvVar() string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(e.Field, ".", "_"))
}

func invalid(field, format string, args ...any) error {
	return &FieldError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// fieldErrors flattens the FieldErrors out of a Validate result.
func fieldErrors(err error) []*FieldError {
	switch e := err.(type) {
	case nil:
		return nil
	case *FieldError:
		return []*FieldError{e}
	case interface{ Unwrap() []error }:
		var out []*FieldError
		for _, inner := range e.Unwrap() {
			out = append(out, fieldErrors(inner)...)
		}
		return out
	case interface{ Unwrap() error }:
		return fieldErrors(e.Unwrap())
	}
	return nil
}

// PermissionError means the config file or its directory is not accessible.
type PermissionError struct {
	Path    string
	Op      string // "read" or "write"
	Fix     string
	Details string
}

func (e *PermissionError) Error() string {
	msg := fmt.Sprintf("cannot %s food-search config %s: permission denied\n", e.Op, e.Path)
	if e.Details != "" {
		msg += e.Details + "\n"
	}
	return msg + "💡 Fix: " + e.Fix
}

// ConfigNotFoundError means --config named a file that does not exist.
type ConfigNotFoundError struct {
	Path string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("config file not found: %s\n\n💡 Run 'food-search config init --path %s' to create it", e.Path, e.Path)
}

// InvalidConfigError is a config that cannot be parsed or decoded, or one
// whose values fail Validate. Fields lists the rejected keys in the last case.
type InvalidConfigError struct {
	Path    string
	Fields  []string
	Message string
	Hint    string
	Err     error
}

func (e *InvalidConfigError) Error() string {
	path := e.Path
	if path == "" {
		path = "(defaults and environment)"
	}
	msg := fmt.Sprintf("invalid config: %s\n", path)
	if e.Message != "" {
		msg += e.Message + "\n"
	}
	if e.Hint != "" {
		msg += "💡 " + e.Hint
	}
	return msg
}

func (e *InvalidConfigError) Unwrap() error { return e.Err }

// rejected wraps a Validate failure for path, naming each bad key and the
// variable that can override it.
func rejected(path string, err error) *InvalidConfigError {
	fes := fieldErrors(err)
	fields := make([]string, 0, len(fes))
	lines := make([]string, 0, len(fes))
	vars := make([]string, 0, len(fes))
	for _, fe := range fes {
		fields = append(fields, fe.Field)
		lines = append(lines, "  "+fe.Field+" "+fe.Reason)
		vars = append(vars, fe.EnvVar())
	}
	return &InvalidConfigError{
		Path:    path,
		Fields:  fields,
		Message: strings.Join(lines, "\n"),
		Hint: fmt.Sprintf("Fix these keys in the file or unset %s; 'food-search config init --force' writes valid defaults",
			strings.Join(vars, ", ")),
		Err: err,
	}
}

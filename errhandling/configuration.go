package errhandling

import (
	"errors"
	"fmt"
	"reflect"

	"google.golang.org/grpc/codes"
)

// ConfigurationError reports an invalid configuration value: a property of a
// configuration or mapping type that cannot be used as given.
type ConfigurationError struct {
	Type     string
	Property string
	Err      error
}

// NewConfigurationError names the offending type by its unqualified name.
// Pointers are named after the type they point to.
func NewConfigurationError(configurationType any, property string) *ConfigurationError {
	return &ConfigurationError{Type: typeName(configurationType), Property: property}
}

// ConfigurationErrorf is NewConfigurationError with a formatted cause.
func ConfigurationErrorf(configurationType any, property string, format string, args ...any) *ConfigurationError {
	e := NewConfigurationError(configurationType, property)
	e.Err = fmt.Errorf(format, args...)
	return e
}

func typeName(v any) string {
	switch t := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return t
	case reflect.Type:
		return nameOf(t)
	default:
		return nameOf(reflect.TypeOf(v))
	}
}

func nameOf(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}

func (e *ConfigurationError) Message() string {
	return fmt.Sprintf("Configuration error in %s for property %s", e.Type, e.Property)
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s-%s: %v", CodeConfiguration, e.Message(), e.Err)
	}
	return CodeConfiguration + "-" + e.Message()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *ConfigurationError) ErrorCode() string {
	return CodeConfiguration
}

func (e *ConfigurationError) GRPCCode() codes.Code {
	return codes.FailedPrecondition
}

func (e *ConfigurationError) Is(target error) bool {
	var c Coded
	if !errors.As(target, &c) {
		return false
	}
	return c.ErrorCode() == CodeConfiguration
}

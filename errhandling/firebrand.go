package errhandling

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
)

const (
	// CodeUnknown is the code of uncategorized failures.
	CodeUnknown = "UnknownException"
	// CodeConfiguration is the code of ConfigurationError.
	CodeConfiguration = "ConfigurationError"
)

// Coded is implemented by every error carrying a Firebrand error code.
type Coded interface {
	error
	ErrorCode() string
	GRPCCode() codes.Code
}

// FirebrandError is an error code plus a message and an optional cause.
//
// Two FirebrandErrors are considered the same by errors.Is when their codes
// match, so package level values work as sentinels:
//
//	var ErrEndPointNotFound = errhandling.New("RedisEndPointNotFound", "No endpoints specified")
//	...
//	errors.Is(err, ErrEndPointNotFound)
type FirebrandError struct {
	Code    string
	Message string
	Err     error
	status  codes.Code
}

// New returns an error with the given code and message. The gRPC code
// defaults to codes.Unknown.
func New(code, message string) *FirebrandError {
	return &FirebrandError{Code: code, Message: message, status: codes.Unknown}
}

// Wrap is New with an inner cause.
func Wrap(code, message string, err error) *FirebrandError {
	e := New(code, message)
	e.Err = err
	return e
}

// Unknown returns an error with CodeUnknown.
func Unknown(message string, err error) *FirebrandError {
	return Wrap(CodeUnknown, message, err)
}

// WithGRPCCode returns a copy of e mapped to the gRPC code c.
func (e *FirebrandError) WithGRPCCode(c codes.Code) *FirebrandError {
	cp := *e
	cp.status = c
	return &cp
}

// WithCause returns a copy of e wrapping err. Used to attach detail to a
// sentinel without losing its code.
func (e *FirebrandError) WithCause(err error) *FirebrandError {
	cp := *e
	cp.Err = err
	return &cp
}

func (e *FirebrandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s-%s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + "-" + e.Message
}

func (e *FirebrandError) Unwrap() error {
	return e.Err
}

func (e *FirebrandError) ErrorCode() string {
	return e.Code
}

func (e *FirebrandError) GRPCCode() codes.Code {
	return e.status
}

// Is reports whether target is a coded error with the same code.
func (e *FirebrandError) Is(target error) bool {
	var c Coded
	if !errors.As(target, &c) {
		return false
	}
	return c.ErrorCode() == e.Code
}

// CodeOf returns the code of the first coded error in err's chain, or
// CodeUnknown.
func CodeOf(err error) string {
	var c Coded
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return CodeUnknown
}

package errhandling

import (
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
)

// HTTPError error type with info about http.StatusCode
type HTTPError interface {
	Error() string
	StatusCode() int
}

type ErrorWithStatus struct {
	err        error
	statusCode int
}

// NewErrorStatus pairs err with the HTTP status its gRPC code maps to.
func NewErrorStatus(err error) *ErrorWithStatus {
	return &ErrorWithStatus{
		err:        err,
		statusCode: HTTPStatus(err),
	}
}

func (e *ErrorWithStatus) StatusCode() int {
	return e.statusCode
}

func (e *ErrorWithStatus) Error() string {
	return e.err.Error()
}

func (e *ErrorWithStatus) Unwrap() error {
	return e.err
}

// HTTPStatus maps err to an HTTP status code the way the grpc gateway would.
func HTTPStatus(err error) int {
	return runtime.HTTPStatusFromCode(ToStatus(err).Code())
}

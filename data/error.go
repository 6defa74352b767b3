package data

import (
	"fmt"

	"google.golang.org/grpc/codes"

	"github.com/firebrand/go-firebrand-common/errhandling"
)

const (
	CodeEntityNotFound     = "EntityNotFound"
	CodeMaxLengthExceeded  = "MaxLengthExceeded"
	CodeDuplicateKey       = "DuplicateKey"
	CodeConcurrencyFailure = "ConcurrencyFailure"
)

var (
	ErrEntityNotFound = errhandling.New(CodeEntityNotFound, "Entity not found").
				WithGRPCCode(codes.NotFound)
	ErrMaxLengthExceeded = errhandling.New(CodeMaxLengthExceeded, "Value exceeds the column maximum length").
				WithGRPCCode(codes.InvalidArgument)
	ErrDuplicateKey = errhandling.New(CodeDuplicateKey, "An entity with that key already exists").
			WithGRPCCode(codes.AlreadyExists)
	// ErrConcurrencyFailure is returned when an update or delete matched no row.
	ErrConcurrencyFailure = errhandling.New(CodeConcurrencyFailure, "No row was affected").
				WithGRPCCode(codes.Aborted)
)

func entityNotFoundError(table string, key any) error {
	return ErrEntityNotFound.WithCause(fmt.Errorf("%s %v", table, key))
}

func maxLengthError(column string, length, limit int) error {
	return ErrMaxLengthExceeded.WithCause(fmt.Errorf("%s: %d > %d", column, length, limit))
}

package redis

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"

	"github.com/firebrand/go-firebrand-common/errhandling"
)

const (
	CodeConfigurationNotFound = "RedisConfigurationNotFound"
	CodeEndPointNotFound      = "RedisEndPointNotFound"
	CodeClientNotFound        = "RedisClientNotFound"
)

var (
	ErrConfigurationNotFound = errhandling.New(CodeConfigurationNotFound, "No Redis configurations specified").
					WithGRPCCode(codes.FailedPrecondition)
	ErrEndPointNotFound = errhandling.New(CodeEndPointNotFound, "No endpoints specified").
				WithGRPCCode(codes.FailedPrecondition)
	ErrClientNotFound = errhandling.New(CodeClientNotFound, "No Redis connection configured with that name").
				WithGRPCCode(codes.NotFound)

	ErrAdminNotAllowed    = errors.New("redis admin commands not allowed")
	ErrDatabaseOutOfRange = errors.New("redis database out of range")
	ErrNotConnected       = errors.New("redis client not connected")
	ErrRedisClose         = errors.New("redis close error")
	ErrRedisConnect       = errors.New("redis connect error")
	ErrRedisCodec         = errors.New("redis codec error")
)

func ClientNotFoundError(name string) error {
	return ErrClientNotFound.WithCause(fmt.Errorf("connection %q", name))
}

func CloseError(err error, name string) error {
	return fmt.Errorf("%w %s: %w", ErrRedisClose, name, err)
}

func ConnectError(err error, name string) error {
	return fmt.Errorf("%w %s: %w", ErrRedisConnect, name, err)
}

func DatabaseOutOfRangeError(db int, count int) error {
	return fmt.Errorf("%w: %d not in [0, %d)", ErrDatabaseOutOfRange, db, count)
}

func CodecError(err error, codec string, key string) error {
	return fmt.Errorf("%w %s %s: %w", ErrRedisCodec, codec, key, err)
}

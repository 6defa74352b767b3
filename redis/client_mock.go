package redis

// Defines a mock for a single redis database handle

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/stretchr/testify/mock"
)

// mockDatabase is a mock Database
type mockDatabase struct {
	mock.Mock
}

func (md *mockDatabase) Get(ctx context.Context, key string) *redis.StringCmd {
	arguments := md.Called(key)
	return arguments.Get(0).(*redis.StringCmd)
}

func (md *mockDatabase) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	arguments := md.Called(key, value, expiration)
	return arguments.Get(0).(*redis.StatusCmd)
}

func (md *mockDatabase) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	arguments := md.Called(keys)
	return arguments.Get(0).(*redis.IntCmd)
}

func (md *mockDatabase) Ping(ctx context.Context) *redis.StatusCmd {
	arguments := md.Called()
	return arguments.Get(0).(*redis.StatusCmd)
}

func (md *mockDatabase) FlushDB(ctx context.Context) *redis.StatusCmd {
	arguments := md.Called()
	return arguments.Get(0).(*redis.StatusCmd)
}

func (md *mockDatabase) Close() error {
	arguments := md.Called()
	return arguments.Error(0)
}

package hashing

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/firebrand/go-firebrand-common/logger"
	"github.com/firebrand/go-firebrand-common/metrics"
	"github.com/firebrand/go-firebrand-common/objectcache"
)

// mockStrategy is a mock HashStrategy
type mockStrategy struct {
	mock.Mock
}

func (ms *mockStrategy) Hash(input []byte) ([]byte, error) {
	arguments := ms.Called(input)
	return arguments.Get(0).([]byte), arguments.Error(1)
}

func (ms *mockStrategy) HashWithSalt(input, salt []byte) ([]byte, error) {
	arguments := ms.Called(input, salt)
	return arguments.Get(0).([]byte), arguments.Error(1)
}

func (ms *mockStrategy) Close() error {
	arguments := ms.Called()
	return arguments.Error(0)
}

// blockingStrategy never returns until released.
type blockingStrategy struct {
	SHA256Strategy
	release chan struct{}
}

func (bs *blockingStrategy) HashWithSalt(input, salt []byte) ([]byte, error) {
	<-bs.release
	return bs.SHA256Strategy.HashWithSalt(input, salt)
}

func fastArgon2() *Argon2Strategy {
	return &Argon2Strategy{Time: 1, Memory: 1024, Threads: 1, KeyLength: 16}
}

func fastPBKDF2() *PBKDF2Strategy {
	return &PBKDF2Strategy{Iterations: 1000}
}

func TestHashAndVerify(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	strategies := []struct {
		name     string
		strategy HashStrategy
	}{
		{"sha256", &SHA256Strategy{}},
		{"sha512", &SHA512Strategy{}},
		{"hmacsha256", &HMACSHA256Strategy{}},
		{"pbkdf2", fastPBKDF2()},
		{"argon2", fastArgon2()},
	}

	for _, test := range strategies {
		t.Run(test.name, func(t *testing.T) {
			m := NewHashManager(test.strategy)
			defer m.Close()

			input := []byte("correct horse battery staple")
			salt, err := CreateSalt(0)
			require.NoError(t, err)
			require.Len(t, salt, DefaultSaltSize)

			h, err := m.HashWithSalt(input, salt)
			require.NoError(t, err)

			again, err := m.HashWithSalt(input, salt)
			require.NoError(t, err)
			assert.Equal(t, h, again)

			ok, err := m.Verify(input, salt, h)
			require.NoError(t, err)
			assert.True(t, ok)

			mutations := []struct {
				name                  string
				input, salt, expected []byte
			}{
				{"input", flip(input, 0), salt, h},
				{"salt", input, flip(salt, len(salt)-1), h},
				{"hash", input, salt, flip(h, len(h)/2)},
				{"truncated hash", input, salt, h[:len(h)-1]},
				{"byte moved into salt", input[:len(input)-1], append([]byte{input[len(input)-1]}, salt...), h},
				{"byte moved into input", append(append([]byte(nil), input...), salt[0]), salt[1:], h},
			}
			for _, mu := range mutations {
				ok, err := m.Verify(mu.input, mu.salt, mu.expected)
				require.NoError(t, err)
				assert.False(t, ok, "mutated %s verified", mu.name)
			}
		})
	}
}

func flip(b []byte, i int) []byte {
	out := append([]byte(nil), b...)
	out[i] ^= 0x01
	return out
}

func TestKnownDigests(t *testing.T) {
	m := NewHashManager(&SHA256Strategy{})

	h, err := m.Hash([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", hex.EncodeToString(h))

	salted, err := m.HashWithSalt([]byte("abc"), []byte("salt"))
	require.NoError(t, err)
	// sha256 of 0x0000000000000003 "abc" "salt"
	assert.Equal(t, "8ac260d51cde28061abb6330798dea4726c68c52fcd7a7678f0746b7b812f52a", hex.EncodeToString(salted))

	// the input length is part of the hashed bytes
	shifted, err := m.HashWithSalt([]byte("ab"), []byte("csalt"))
	require.NoError(t, err)
	assert.NotEqual(t, salted, shifted)
}

func TestSaltRequired(t *testing.T) {
	for _, s := range []HashStrategy{fastPBKDF2(), fastArgon2()} {
		m := NewHashManager(s)

		_, err := m.Hash([]byte("x"))
		assert.ErrorIs(t, err, ErrSaltRequired)

		_, err = m.HashWithSalt([]byte("x"), nil)
		assert.ErrorIs(t, err, ErrSaltRequired)
	}
}

func TestHashStringAndVerifyString(t *testing.T) {
	ctx := context.Background()
	m := NewHashManager(&HMACSHA256Strategy{})

	encoded, err := m.HashString(ctx, "Hello, world!", "pepper")
	require.NoError(t, err)

	ok, err := m.VerifyString(ctx, "Hello, world!", "pepper", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.VerifyString(ctx, "Hello, world?", "pepper", encoded)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = m.VerifyString(ctx, "Hello, world!", "pepper", "***")
	assert.Error(t, err)
}

func TestHashContextCancelled(t *testing.T) {
	bs := &blockingStrategy{release: make(chan struct{})}
	defer close(bs.release)
	m := NewHashManager(bs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.HashContext(ctx, []byte("x"), []byte("y"))
	assert.ErrorIs(t, err, context.Canceled)

	ctx, cancel = context.WithCancel(context.Background())
	go cancel()
	_, err = m.HashContext(ctx, []byte("x"), []byte("y"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHashContextUnsalted(t *testing.T) {
	ms := &mockStrategy{}
	ms.On("Hash", []byte("x")).Return([]byte{1}, nil)
	m := NewHashManager(ms)

	h, err := m.HashContext(context.Background(), []byte("x"), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, h)
	ms.AssertExpectations(t)
}

func TestVerifyContextUnsalted(t *testing.T) {
	ctx := context.Background()
	m := NewHashManager(&SHA512Strategy{})

	h, err := m.HashContext(ctx, []byte("x"), nil)
	require.NoError(t, err)

	ok, err := m.VerifyContext(ctx, []byte("x"), nil, h)
	require.NoError(t, err)
	assert.True(t, ok)

	// an empty salt is still a salt
	ok, err = m.VerifyContext(ctx, []byte("x"), []byte{}, h)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStrategyErrorPropagates(t *testing.T) {
	errStrategy := errors.New("hsm unavailable")
	ms := &mockStrategy{}
	ms.On("HashWithSalt", []byte("x"), []byte("s")).Return([]byte(nil), errStrategy)
	m := NewHashManager(ms)

	ok, err := m.Verify([]byte("x"), []byte("s"), []byte{1})
	assert.False(t, ok)
	assert.ErrorIs(t, err, errStrategy)
}

func TestCloseClosesStrategy(t *testing.T) {
	ms := &mockStrategy{}
	ms.On("Close").Return(nil).Once()
	m := NewHashManager(ms)

	require.NoError(t, m.Close())
	ms.AssertExpectations(t)
}

func TestNewHashManagerFromCache(t *testing.T) {
	cache := objectcache.New()

	a := NewHashManagerFromCache[Argon2Strategy](cache)
	b := NewHashManagerFromCache[Argon2Strategy](cache)
	c := NewHashManagerFromCache[SHA256Strategy](cache)

	assert.Same(t, a.strategy, b.strategy)
	assert.NotEqual(t, a.strategy, c.strategy)
	assert.Equal(t, 2, cache.Len())

	// defaults applied through objectcache.Initializer
	argon := a.strategy.(*Argon2Strategy)
	assert.Equal(t, DefaultArgon2Time, argon.Time)
	assert.Equal(t, DefaultArgon2Memory, argon.Memory)
	assert.Equal(t, "argon2", a.name)
}

func TestHashMetrics(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	m := metrics.New(logger.Sugar, "auth")
	hm := NewHashManager(&SHA256Strategy{}, WithMetrics(m), WithLogger(logger.Sugar))

	_, err := hm.Hash([]byte("x"))
	require.NoError(t, err)
	_, err = hm.Verify([]byte("x"), nil, nil)
	require.NoError(t, err)

	o := metrics.NewHashObservers(m)
	assert.Equal(t, 1.0, testutil.ToFloat64(o.Operations().WithLabelValues("auth", "sha256", "hash", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.Operations().WithLabelValues("auth", "sha256", "verify", metrics.OutcomeOK)))
}

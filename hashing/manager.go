package hashing

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/firebrand/go-firebrand-common/logger"
	"github.com/firebrand/go-firebrand-common/metrics"
	"github.com/firebrand/go-firebrand-common/objectcache"
)

type Logger = logger.Logger

const (
	DefaultSaltSize = 16
)

// HashManager owns one HashStrategy for its lifetime and adds salt creation,
// verification and string framing around it. Close must be called once the
// manager is no longer needed.
type HashManager struct {
	strategy  HashStrategy
	name      string
	log       Logger
	observers *metrics.HashObservers
}

type HashManagerOption func(*HashManager)

func WithLogger(log Logger) HashManagerOption {
	return func(m *HashManager) {
		m.log = log
	}
}

// WithMetrics counts operations per strategy. A nil Metrics is ignored.
func WithMetrics(m *metrics.Metrics) HashManagerOption {
	return func(hm *HashManager) {
		hm.observers = metrics.NewHashObservers(m)
	}
}

func NewHashManager(strategy HashStrategy, opts ...HashManagerOption) *HashManager {
	m := &HashManager{
		strategy: strategy,
		name:     strategyName(strategy),
		log:      logger.Sugar,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewHashManagerFromCache uses the strategy of type T held by cache, creating
// it on first use. Every manager built from the same cache shares it.
//
//	m := hashing.NewHashManagerFromCache[hashing.Argon2Strategy](cache)
func NewHashManagerFromCache[T any, PT interface {
	*T
	HashStrategy
}](cache *objectcache.Cache, opts ...HashManagerOption) *HashManager {
	return NewHashManager(PT(objectcache.GetOrCreate[T](cache)), opts...)
}

// strategyName is the type name without the Strategy suffix, lower-cased.
func strategyName(s HashStrategy) string {
	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return strings.ToLower(strings.TrimSuffix(t.Name(), "Strategy"))
}

// CreateSalt returns size cryptographically random bytes, DefaultSaltSize
// when size is not positive.
func CreateSalt(size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSaltSize
	}
	salt := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("create salt: %w", err)
	}
	return salt, nil
}

func (m *HashManager) Hash(input []byte) ([]byte, error) {
	h, err := m.strategy.Hash(input)
	m.observers.ObserveHash(m.name, "hash", err)
	return h, err
}

func (m *HashManager) HashWithSalt(input, salt []byte) ([]byte, error) {
	h, err := m.strategy.HashWithSalt(input, salt)
	m.observers.ObserveHash(m.name, "hash", err)
	return h, err
}

// HashContext hashes input, salted unless salt is nil, returning early with
// ctx.Err() if ctx is done first.
func (m *HashManager) HashContext(ctx context.Context, input, salt []byte) ([]byte, error) {
	h, err := m.hashContext(ctx, input, salt)
	m.observers.ObserveHash(m.name, "hash", err)
	return h, err
}

type hashResult struct {
	hash []byte
	err  error
}

func (m *HashManager) hashContext(ctx context.Context, input, salt []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cs, ok := m.strategy.(ContextHashStrategy); ok {
		return cs.HashContext(ctx, input, salt)
	}

	done := make(chan hashResult, 1)
	go func() {
		var r hashResult
		if salt == nil {
			r.hash, r.err = m.strategy.Hash(input)
		} else {
			r.hash, r.err = m.strategy.HashWithSalt(input, salt)
		}
		done <- r
	}()

	select {
	case r := <-done:
		return r.hash, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// HashString hashes the UTF-8 bytes of input salted with the UTF-8 bytes of
// salt and returns the hash Base64 encoded.
func (m *HashManager) HashString(ctx context.Context, input, salt string) (string, error) {
	h, err := m.HashContext(ctx, []byte(input), []byte(salt))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(h), nil
}

// Verify recomputes the salted hash of input and compares it with expected
// in constant time.
func (m *HashManager) Verify(input, salt, expected []byte) (bool, error) {
	h, err := m.strategy.HashWithSalt(input, salt)
	m.observers.ObserveHash(m.name, "verify", err)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(h, expected) == 1, nil
}

// VerifyContext is Verify honouring ctx. As with HashContext a nil salt
// means unsalted.
func (m *HashManager) VerifyContext(ctx context.Context, input, salt, expected []byte) (bool, error) {
	h, err := m.hashContext(ctx, input, salt)
	m.observers.ObserveHash(m.name, "verify", err)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(h, expected) == 1, nil
}

// VerifyString is the string form of VerifyContext; expected is Base64.
func (m *HashManager) VerifyString(ctx context.Context, input, salt, expected string) (bool, error) {
	want, err := base64.StdEncoding.DecodeString(expected)
	if err != nil {
		return false, fmt.Errorf("expected hash: %w", err)
	}
	return m.VerifyContext(ctx, []byte(input), []byte(salt), want)
}

// Close closes the strategy. Strategies obtained from an objectcache are
// shared, so only close those that hold resources of their own.
func (m *HashManager) Close() error {
	m.log.Debugf("closing %s hash manager", m.name)
	return m.strategy.Close()
}

package hashing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"hash"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

var (
	ErrSaltRequired = errors.New("salt required")
)

// HashStrategy is a hashing algorithm the HashManager delegates to.
type HashStrategy interface {
	Hash(input []byte) ([]byte, error)
	HashWithSalt(input, salt []byte) ([]byte, error)
	Close() error
}

// ContextHashStrategy is implemented by strategies that can honour
// cancellation themselves. Other strategies are run on a separate goroutine.
type ContextHashStrategy interface {
	HashStrategy
	HashContext(ctx context.Context, input, salt []byte) ([]byte, error)
}

func digest(newHash func() hash.Hash, input []byte) []byte {
	h := newHash()
	h.Write(input)
	return h.Sum(nil)
}

// saltedDigest hashes the big endian uint64 length of input, then input, then
// salt. The length fixes the boundary, so no byte can move between input and
// salt without changing the digest.
func saltedDigest(newHash func() hash.Hash, input, salt []byte) []byte {
	h := newHash()
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(input)))
	h.Write(n[:])
	h.Write(input)
	h.Write(salt)
	return h.Sum(nil)
}

// SHA256Strategy hashes the length prefixed input followed by the salt.
type SHA256Strategy struct{}

func (*SHA256Strategy) Hash(input []byte) ([]byte, error) {
	return digest(sha256.New, input), nil
}

func (*SHA256Strategy) HashWithSalt(input, salt []byte) ([]byte, error) {
	return saltedDigest(sha256.New, input, salt), nil
}

func (*SHA256Strategy) Close() error { return nil }

// SHA512Strategy hashes the length prefixed input followed by the salt.
type SHA512Strategy struct{}

func (*SHA512Strategy) Hash(input []byte) ([]byte, error) {
	return digest(sha512.New, input), nil
}

func (*SHA512Strategy) HashWithSalt(input, salt []byte) ([]byte, error) {
	return saltedDigest(sha512.New, input, salt), nil
}

func (*SHA512Strategy) Close() error { return nil }

// HMACSHA256Strategy keys an HMAC-SHA256 with the salt. Unsalted hashes use
// an empty key.
type HMACSHA256Strategy struct{}

func (*HMACSHA256Strategy) Hash(input []byte) ([]byte, error) {
	return digest(func() hash.Hash { return hmac.New(sha256.New, nil) }, input), nil
}

func (*HMACSHA256Strategy) HashWithSalt(input, salt []byte) ([]byte, error) {
	return digest(func() hash.Hash { return hmac.New(sha256.New, salt) }, input), nil
}

func (*HMACSHA256Strategy) Close() error { return nil }

const (
	DefaultPBKDF2Iterations = 210_000
	DefaultKeyLength        = 32
)

// PBKDF2Strategy derives a key with PBKDF2-HMAC-SHA512. A salt is required.
// Zero fields take the package defaults.
type PBKDF2Strategy struct {
	Iterations int
	KeyLength  int
}

// Init applies defaults; called by objectcache on construction.
func (s *PBKDF2Strategy) Init() {
	if s.Iterations <= 0 {
		s.Iterations = DefaultPBKDF2Iterations
	}
	if s.KeyLength <= 0 {
		s.KeyLength = DefaultKeyLength
	}
}

func (*PBKDF2Strategy) Hash(input []byte) ([]byte, error) {
	return nil, ErrSaltRequired
}

func (s *PBKDF2Strategy) HashWithSalt(input, salt []byte) ([]byte, error) {
	if len(salt) == 0 {
		return nil, ErrSaltRequired
	}
	cfg := *s
	cfg.Init()
	return pbkdf2.Key(input, salt, cfg.Iterations, cfg.KeyLength, sha512.New), nil
}

func (*PBKDF2Strategy) Close() error { return nil }

const (
	DefaultArgon2Time    uint32 = 3
	DefaultArgon2Memory  uint32 = 64 * 1024
	DefaultArgon2Threads uint8  = 2
)

// Argon2Strategy derives a key with argon2id. A salt is required. Zero fields
// take the package defaults.
type Argon2Strategy struct {
	Time      uint32
	Memory    uint32
	Threads   uint8
	KeyLength uint32
}

// Init applies defaults; called by objectcache on construction.
func (s *Argon2Strategy) Init() {
	if s.Time == 0 {
		s.Time = DefaultArgon2Time
	}
	if s.Memory == 0 {
		s.Memory = DefaultArgon2Memory
	}
	if s.Threads == 0 {
		s.Threads = DefaultArgon2Threads
	}
	if s.KeyLength == 0 {
		s.KeyLength = DefaultKeyLength
	}
}

func (*Argon2Strategy) Hash(input []byte) ([]byte, error) {
	return nil, ErrSaltRequired
}

func (s *Argon2Strategy) HashWithSalt(input, salt []byte) ([]byte, error) {
	if len(salt) == 0 {
		return nil, ErrSaltRequired
	}
	cfg := *s
	cfg.Init()
	return argon2.IDKey(input, salt, cfg.Time, cfg.Memory, cfg.Threads, cfg.KeyLength), nil
}

func (*Argon2Strategy) Close() error { return nil }

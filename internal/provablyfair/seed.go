// Package provablyfair derives game outcomes from pre-committed seeds.
//
// Every outcome is a pure function of a 32-byte seed published as a
// 64-character lowercase hex string. Before the outcome is used the player
// receives the commitment, the SHA-256 hex digest of that hex string. After
// the round is over the seed is disclosed and the player can recompute both
// the commitment and the outcome with the functions in this package.
//
// Outcome derivation, for v = the first 8 hex characters of the seed read as
// an unsigned 32-bit integer:
//
//	dice:  roll = (v mod 10000) / 100
//	crash: v mod 33 == 0 -> 1.00, else clamp((99 / (1 - v/2^32)) / 100, 1.01, 10000) at 2 dp
//	mines: Fisher-Yates shuffle of [0, grid) driven by splitmix64(v); mines are the
//	       first mines_count entries. Bounded draws use rejection sampling:
//	       threshold = (2^64 - n) mod n, draw until x >= threshold, take x mod n.
//
// All rounding is round-half-to-even.
package provablyfair

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// SeedBytes is the amount of entropy drawn for a single outcome.
	SeedBytes = 32
	// SeedHexLength is the length of a seed's canonical hex form.
	SeedHexLength = SeedBytes * 2
)

var (
	ErrEntropy     = errors.New("entropy source failed")
	ErrInvalidSeed = errors.New("seed must be 64 lowercase hex characters")
)

// Seed is the canonical lowercase hex form of 32 random bytes.
type Seed string

// Commitment is the SHA-256 hex digest of a Seed.
type Commitment string

// IssueSeed draws a fresh seed from crypto/rand and returns it with its commitment.
func IssueSeed() (Seed, Commitment, error) {
	return IssueSeedFrom(rand.Reader)
}

// IssueSeedFrom is IssueSeed with an explicit entropy source.
func IssueSeedFrom(r io.Reader) (Seed, Commitment, error) {
	buf := make([]byte, SeedBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrEntropy, err)
	}

	seed := Seed(hex.EncodeToString(buf))
	return seed, Commit(seed), nil
}

// Commit hashes the seed's hex string, matching what a player gets from any
// SHA-256 tool fed the disclosed seed.
func Commit(seed Seed) Commitment {
	sum := sha256.Sum256([]byte(seed))
	return Commitment(hex.EncodeToString(sum[:]))
}

// VerifyCommitment reports whether seed hashes to commitment.
func VerifyCommitment(seed Seed, commitment Commitment) bool {
	expected := Commit(seed)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(string(commitment)))) == 1
}

// ParseSeed validates a seed supplied from outside the engine.
func ParseSeed(s string) (Seed, error) {
	if len(s) != SeedHexLength {
		return "", ErrInvalidSeed
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') {
			return "", ErrInvalidSeed
		}
	}
	return Seed(s), nil
}

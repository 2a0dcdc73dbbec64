// Package codegen produces short random codes for invites and profiles.
//
// Codes are drawn with crypto/rand so they cannot be predicted from earlier
// codes. Uniqueness is the caller's concern: GenerateUnique checks each draw
// against a lookup and gives up after a bounded number of attempts.
package codegen

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/dalemusser/brewcircles/internal/app/system/circleerr"
)

const (
	// InviteAlphabet is upper-case letters and digits without the look-alikes
	// 0/O and 1/I.
	InviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// InviteCodeLength is the length of every circle invite code.
	InviteCodeLength = 8

	// DefaultMaxAttempts bounds GenerateUnique when the caller has no override.
	DefaultMaxAttempts = 10

	profileLetters = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	profileDigits  = "23456789"
)

var errBadAlphabet = errors.New("codegen: alphabet must not be empty")

// ExistsFunc reports whether code is already taken.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Generate draws length characters uniformly from alphabet.
func Generate(alphabet string, length int) (string, error) {
	if alphabet == "" {
		return "", errBadAlphabet
	}
	if length <= 0 {
		return "", fmt.Errorf("codegen: length must be positive, got %d", length)
	}
	symbols := []rune(alphabet)
	max := big.NewInt(int64(len(symbols)))

	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("codegen: read random: %w", err)
		}
		b.WriteRune(symbols[n.Int64()])
	}
	return b.String(), nil
}

// GenerateUnique draws codes until exists reports one free, trying at most
// maxAttempts times. It fails with circleerr.ErrCodeGenerationExhausted when
// every draw collided. A lookup error stops the loop and is returned as is.
func GenerateUnique(ctx context.Context, exists ExistsFunc, alphabet string, length, maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := Generate(alphabet, length)
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("codegen: lookup: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", circleerr.ErrCodeGenerationExhausted
}

// InviteCode returns one 8-character invite code. It does not check
// uniqueness.
func InviteCode() (string, error) {
	return Generate(InviteAlphabet, InviteCodeLength)
}

// ProfileCode returns a profile handle of 4 letters followed by 2 digits.
func ProfileCode() (string, error) {
	letters, err := Generate(profileLetters, 4)
	if err != nil {
		return "", err
	}
	digits, err := Generate(profileDigits, 2)
	if err != nil {
		return "", err
	}
	return letters + digits, nil
}

// NormalizeInvite upper-cases and trims a user-typed invite code.
func NormalizeInvite(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsInviteCode reports whether code has the length and alphabet of an
// invite code. The comparison is case-insensitive.
func IsInviteCode(code string) bool {
	code = NormalizeInvite(code)
	if len(code) != InviteCodeLength {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(InviteAlphabet, r) {
			return false
		}
	}
	return true
}

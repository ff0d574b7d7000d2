package security

import (
	"errors"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrHashingFailed   = errors.New("passkey hashing failed")
	ErrInvalidPasskey  = errors.New("passkey must be exactly 6 digits")
	ErrPasskeyMismatch = errors.New("invalid passkey")
)

var passkeyPattern = regexp.MustCompile(`^[0-9]{6}$`)

// PasskeyVerifier checks candidate passkeys against one configured admin passkey
type PasskeyVerifier interface {
	Verify(candidate string) error
}

type bcryptVerifier struct {
	hash []byte
}

// NewPasskeyVerifier hashes passkey so the plain value is not kept in memory
// after startup.
func NewPasskeyVerifier(passkey string, cost int) (PasskeyVerifier, error) {
	if !passkeyPattern.MatchString(passkey) {
		return nil, ErrInvalidPasskey
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(passkey), cost)
	if err != nil {
		return nil, ErrHashingFailed
	}
	return &bcryptVerifier{hash: hash}, nil
}

func (b *bcryptVerifier) Verify(candidate string) error {
	if !passkeyPattern.MatchString(candidate) {
		return ErrPasskeyMismatch
	}
	if err := bcrypt.CompareHashAndPassword(b.hash, []byte(candidate)); err != nil {
		return ErrPasskeyMismatch
	}
	return nil
}

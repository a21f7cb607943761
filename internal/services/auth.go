package services

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
)

// ErrUnauthorized is returned when a supplied admin password does not
// match the configured shared secret.
var ErrUnauthorized = errors.New("invalid password")

// verifySecret compares the supplied password against the configured
// one in constant time. Hashing both sides first keeps the comparison
// length-independent.
func verifySecret(configured, supplied string) error {
	want := sha256.Sum256([]byte(configured))
	got := sha256.Sum256([]byte(supplied))
	if subtle.ConstantTimeCompare(want[:], got[:]) != 1 {
		return ErrUnauthorized
	}
	return nil
}

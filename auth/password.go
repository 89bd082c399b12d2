package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a salted bcrypt hash of password at the given cost.
func HashPassword(password string, cost int) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, ErrPasswordTooLong
	}
	return hash, err
}

// bcrypt ignores everything past this many bytes.
const maxPasswordBytes = 72

// VerifyPassword re-hashes password with the salt embedded in hash and
// compares digests. Passwords HashPassword would reject never verify.
func VerifyPassword(password string, hash []byte) bool {
	if len(password) > maxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

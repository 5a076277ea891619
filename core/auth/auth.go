package auth

import (
	"errors"
	"fmt"
	"sync/atomic"

	"tunex/core/apperr"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is bcrypt's input limit; longer passwords are refused
// rather than silently truncated.
const maxPasswordBytes = 72

var passwordCost atomic.Int32

func init() {
	passwordCost.Store(int32(bcrypt.DefaultCost))
}

// SetPasswordCost changes the bcrypt work factor used for new hashes.
// Values outside bcrypt's range fall back to bcrypt.DefaultCost. Existing
// hashes keep verifying because the cost is stored inside each hash.
func SetPasswordCost(cost int) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	passwordCost.Store(int32(cost))
}

// PasswordCost returns the work factor HashPassword currently uses.
func PasswordCost() int {
	return int(passwordCost.Load())
}

// HashPassword hashes a user's password for storage. An empty password or
// one longer than bcrypt accepts is an ErrValidation.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", apperr.Validation("password is required")
	}
	if len(password) > maxPasswordBytes {
		return "", apperr.Validation("password must be at most %d bytes", maxPasswordBytes)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost())
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperr.Validation("password must be at most %d bytes", maxPasswordBytes)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPasswordHash reports whether password matches the stored hash. A
// malformed hash never matches.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NeedsRehash reports whether hash was made with a different work factor
// than the current one.
func NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	return err != nil || cost != PasswordCost()
}

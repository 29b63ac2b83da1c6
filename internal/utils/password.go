package utils // package utils holds small helpers shared by services

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash of plain using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a bcrypt hash with a plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// BurnCompare runs a bcrypt comparison against a throwaway hash of the given
// cost.  Login calls it when the username is unknown so that a miss costs
// about as much time as a wrong password.
func BurnCompare(plain string, cost int) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plain))
}

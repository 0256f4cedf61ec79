package auth

import (
	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLen = 8

// hashCost is lowered in tests.
var hashCost = bcrypt.DefaultCost

func HashPassword(pw string) (string, error) {
	if len(pw) < MinPasswordLen {
		return "", ErrWeakPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pw), hashCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// MinPasswordLen is the shortest password accepted at registration.
const MinPasswordLen = 6

// ValidPassword reports whether a plain password meets the minimum
// length requirement.
func ValidPassword(plain string) bool {
	return len(plain) >= MinPasswordLen
}

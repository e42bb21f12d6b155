// Package auth holds the single place where file passwords are compared.
package auth

import "crypto/subtle"

// PasswordMatches compares a stored plaintext password with user input.
// An empty stored password never matches.
func PasswordMatches(stored, supplied string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}

// Package password holds the pluggable password policy and the bcrypt
// hashing used by the auth service.
package password

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// Policy validates candidate passwords. An empty slice means the password
// is acceptable; otherwise each entry is a human-readable violation.
type Policy interface {
	Validate(password string) []string
}

// Hasher abstracts one-way password hashing so the service depends only on
// hash/compare semantics.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// DefaultPolicy mirrors the common validator set: minimum length,
// not entirely numeric, not a known-common password.
type DefaultPolicy struct {
	MinLength int
}

// Small built-in denylist. A production deployment would load a larger
// breach list; the policy interface keeps that swappable.
var commonPasswords = map[string]struct{}{
	"password":   {},
	"password1":  {},
	"12345678":   {},
	"123456789":  {},
	"qwerty123":  {},
	"iloveyou":   {},
	"letmein123": {},
	"admin123":   {},
}

func (p *DefaultPolicy) Validate(password string) []string {
	var violations []string

	minLength := p.MinLength
	if minLength == 0 {
		minLength = 8
	}
	if len(password) < minLength {
		violations = append(violations, fmt.Sprintf("This password is too short. It must contain at least %d characters.", minLength))
	}
	if _, found := commonPasswords[strings.ToLower(password)]; found {
		violations = append(violations, "This password is too common.")
	}
	if password != "" && isEntirelyNumeric(password) {
		violations = append(violations, "This password is entirely numeric.")
	}

	return violations
}

func isEntirelyNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Bcrypt implements Hasher with bcrypt at the default cost.
type Bcrypt struct{}

func (Bcrypt) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (Bcrypt) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

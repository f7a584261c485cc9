// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the work factor used when hashing new passwords.
// Cost 12 takes roughly 250ms per hash on current hardware.
const bcryptCost = 12

// ErrInvalidCredentials is returned when a login attempt fails. The same
// error covers unknown usernames and wrong passwords so callers cannot
// distinguish the two.
var ErrInvalidCredentials = errors.New("invalid credentials")

// PasswordVerifier checks login credentials against the configured admin
// account. The password is stored only as a bcrypt hash, produced ahead of
// time by `specula passwd` and placed in the config file.
type PasswordVerifier struct {
	username     string
	passwordHash []byte
}

// NewPasswordVerifier creates a verifier for the configured account.
// The hash must be a well-formed bcrypt hash.
func NewPasswordVerifier(username, passwordHash string) (*PasswordVerifier, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if passwordHash == "" {
		return nil, fmt.Errorf("password hash is required")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("malformed password hash (generate one with 'specula passwd'): %w", err)
	}
	return &PasswordVerifier{
		username:     username,
		passwordHash: []byte(passwordHash),
	}, nil
}

// Verify checks a username and password pair. Both comparisons always run,
// so response time does not reveal whether the username matched.
func (v *PasswordVerifier) Verify(username, password string) error {
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(v.username)) == 1
	passwordErr := bcrypt.CompareHashAndPassword(v.passwordHash, []byte(password))

	if !usernameMatch || passwordErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Username returns the configured login name.
func (v *PasswordVerifier) Username() string {
	return v.username
}

// HashPassword produces a bcrypt hash suitable for the auth.password_hash
// config key. Used by `specula passwd`.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

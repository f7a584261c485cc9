// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// newPasswordVerifierForTest builds a verifier from a plaintext password
// hashed at bcrypt.MinCost. Production hashes use cost 12, which takes
// around 250ms per comparison; MinCost keeps the test suite fast while
// exercising the same code paths.
//
// TESTING ONLY. Production verifiers are built from a pre-computed hash
// via NewPasswordVerifier.
func newPasswordVerifierForTest(username, password string) (*PasswordVerifier, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return &PasswordVerifier{
		username:     username,
		passwordHash: hash,
	}, nil
}

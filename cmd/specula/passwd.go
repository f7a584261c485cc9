// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/specula/internal/auth"
	"github.com/tomtom215/specula/internal/config"
)

var passwdUsername string

var passwdCmd = &cobra.Command{
	Use:   "passwd [password]",
	Short: "Hash a dashboard password for the config",
	Long: `Checks the password against the admin password policy and prints
its bcrypt hash, ready for auth.password_hash / ADMIN_PASSWORD_HASH.
With no argument the password is read from standard input.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPasswd,
}

func init() {
	passwdCmd.Flags().StringVarP(&passwdUsername, "user", "u", "", "admin username, for the similarity check")
	rootCmd.AddCommand(passwdCmd)
}

func runPasswd(cmd *cobra.Command, args []string) error {
	var password string
	if len(args) == 1 {
		password = args[0]
	} else {
		fmt.Fprint(os.Stderr, "password: ")
		sc := bufio.NewScanner(os.Stdin)
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
			return fmt.Errorf("no password given")
		}
		password = strings.TrimRight(sc.Text(), "\r\n")
	}

	policy := config.DefaultPasswordPolicy()
	result := policy.Validate(password, passwdUsername)
	if !result.Valid {
		return fmt.Errorf("password rejected: %s", strings.Join(result.Errors, "; "))
	}
	for _, warning := range result.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", warning)
	}
	fmt.Fprintln(os.Stderr, "strength:", result.Strength)

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	fmt.Println(hash)
	return nil
}

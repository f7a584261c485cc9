// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package main

import (
	"os"

	"github.com/spf13/cobra"
)

const appVersion = "1.0.0"

var rootCmd = &cobra.Command{
	Use:     "specula",
	Short:   "Specula - watchable values and home dashboard toolkit",
	Version: appVersion,
	Long: `Specula serves a home dashboard backed by observable typed values.

Served pages bind their fields to live values: application-side changes
stream to the page, user edits flow back through the same bindings, and
camera streams, video serving and a JSON API sit alongside.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

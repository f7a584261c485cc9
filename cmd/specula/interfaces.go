// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/specula/internal/netinf"
)

var interfacesJSON bool

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List network interfaces and their addresses",
	Long: `Runs ifconfig and prints the parsed interfaces: names, IPv4
addresses with their attributes, and MAC addresses. The same parse
feeds the startup banner and the /api/v1/interfaces endpoint.`,
	RunE: runInterfaces,
}

func init() {
	interfacesCmd.Flags().BoolVar(&interfacesJSON, "json", false, "print the parse result as JSON")
	rootCmd.AddCommand(interfacesCmd)
}

func runInterfaces(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	ifaces, err := netinf.Interfaces(ctx)
	if err != nil {
		return err
	}

	if interfacesJSON {
		out, err := json.MarshalIndent(ifaces, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INTERFACE\tIPV4\tMAC")
	for _, inf := range ifaces {
		addrs := make([]string, 0, len(inf.IPv4))
		for _, ip := range inf.IPv4 {
			addrs = append(addrs, ip.Addr)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", inf.Name, strings.Join(addrs, ", "), strings.Join(inf.MAC, ", "))
	}
	return w.Flush()
}

// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

// Package netinf reports the host's network interfaces and their IPv4
// addresses by parsing ifconfig output. The startup banner and the
// interfaces CLI command use it to tell the user where the server listens.
package netinf

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// loopback4 is the one address never reported as externally reachable.
const loopback4 = "127.0.0.1"

// IPv4 is one inet line of an interface: the address itself and the
// key/value pairs following it (netmask, broadcast, ...).
type IPv4 struct {
	Addr  string            `json:"addr"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

// Interface is one interface block of ifconfig output.
type Interface struct {
	Name string   `json:"name"`
	IPv4 []IPv4   `json:"ipv4,omitempty"`
	MAC  []string `json:"mac,omitempty"`
}

// Parse reads ifconfig-style output: interface blocks headed by a
// "name: flags" line, indented detail lines, blank lines between blocks.
// Only inet and ether details are kept; inet6, loop and the RX/TX counter
// lines are skipped, as is any unrecognised detail. Interfaces come back in
// the order they appear.
func Parse(r io.Reader) ([]Interface, error) {
	sc := bufio.NewScanner(r)
	var out []Interface
	var cur *Interface
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.TrimSpace(line) == "":
			cur = nil
		case line[0] == ' ' || line[0] == '\t':
			if cur == nil {
				continue
			}
			fields := strings.Fields(line)
			switch fields[0] {
			case "inet":
				ip, err := parseInet(fields)
				if err != nil {
					return nil, fmt.Errorf("netinf: interface %s: %w", cur.Name, err)
				}
				cur.IPv4 = append(cur.IPv4, ip)
			case "ether":
				if len(fields) >= 2 {
					cur.MAC = append(cur.MAC, fields[1])
				}
			case "inet6", "loop", "RX", "TX":
			default:
			}
		default:
			name, _, ok := strings.Cut(line, ":")
			if !ok {
				return nil, fmt.Errorf("netinf: malformed interface line %q", line)
			}
			out = append(out, Interface{Name: name})
			cur = &out[len(out)-1]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("netinf: reading: %w", err)
	}
	return out, nil
}

// parseInet turns "inet ADDR k1 v1 k2 v2 ..." into an IPv4. A dangling key
// with no value is dropped.
func parseInet(fields []string) (IPv4, error) {
	if len(fields) < 2 {
		return IPv4{}, fmt.Errorf("inet line with no address")
	}
	ip := IPv4{Addr: fields[1]}
	for i := 2; i+1 < len(fields); i += 2 {
		if ip.Attrs == nil {
			ip.Attrs = make(map[string]string)
		}
		ip.Attrs[fields[i]] = fields[i+1]
	}
	return ip, nil
}

// Interfaces runs ifconfig and parses its output.
func Interfaces(ctx context.Context) ([]Interface, error) {
	out, err := exec.CommandContext(ctx, "ifconfig").Output()
	if err != nil {
		return nil, fmt.Errorf("netinf: running ifconfig: %w", err)
	}
	return Parse(bytes.NewReader(out))
}

// IPv4Addrs returns every IPv4 address of the given interfaces except the
// loopback address, in interface order.
func IPv4Addrs(ifaces []Interface) []string {
	var addrs []string
	for _, inf := range ifaces {
		for _, ip := range inf.IPv4 {
			if ip.Addr != loopback4 {
				addrs = append(addrs, ip.Addr)
			}
		}
	}
	return addrs
}

// AllIPv4 runs ifconfig and returns the non-loopback IPv4 addresses.
func AllIPv4(ctx context.Context) ([]string, error) {
	ifaces, err := Interfaces(ctx)
	if err != nil {
		return nil, err
	}
	return IPv4Addrs(ifaces), nil
}

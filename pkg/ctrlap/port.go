// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctrlap

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// ParsePort accepts "app", "net" or an access port number.
func ParsePort(s string) (Port, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "app":
		return AppPort, nil
	case "net":
		return NetPort, nil
	}
	n, err := strconv.ParseUint(strings.TrimSpace(s), 0, 8)
	if err != nil {
		return 0, fmt.Errorf("bad access port %q", s)
	}
	return Port(n), nil
}

// ParsePorts parses every element of ss, keeping the order and rejecting
// duplicates.
func ParsePorts(ss []string) ([]Port, error) {
	ports := make([]Port, 0, len(ss))
	for _, s := range ss {
		p, err := ParsePort(s)
		if err != nil {
			return nil, err
		}
		if slices.Contains(ports, p) {
			return nil, fmt.Errorf("access port %s listed twice", p)
		}
		ports = append(ports, p)
	}
	return ports, nil
}

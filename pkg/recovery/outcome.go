// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recovery

import (
	"time"

	"github.com/u-root/aprecover/pkg/ctrlap"
)

// PortStatus holds the protection disable registers as read after the
// erase.
type PortStatus struct {
	Port            ctrlap.Port
	Approtect       uint32
	SecureApprotect uint32
}

// Unlocked reports whether both registers read 0. Recover itself never
// looks at the values.
func (s PortStatus) Unlocked() bool {
	return s.Approtect == 0 && s.SecureApprotect == 0
}

// Outcome is the result of a successful recovery, ports in request order.
type Outcome struct {
	Ports   []PortStatus
	Elapsed time.Duration
}

// Status returns the verification result for port.
func (o *Outcome) Status(port ctrlap.Port) (PortStatus, bool) {
	for _, s := range o.Ports {
		if s.Port == port {
			return s, true
		}
	}
	return PortStatus{}, false
}

// Map returns the outcome keyed by port.
func (o *Outcome) Map() map[ctrlap.Port]PortStatus {
	m := make(map[ctrlap.Port]PortStatus, len(o.Ports))
	for _, s := range o.Ports {
		m[s.Port] = s
	}
	return m
}

// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recovery

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/u-root/aprecover/pkg/ctrlap"
)

// TransportError is a register transaction that the debug port failed.
type TransportError struct {
	Write    bool
	Port     ctrlap.Port
	Register ctrlap.Register
	Value    uint32
	Err      error
}

func (e *TransportError) Error() string {
	if e.Write {
		return fmt.Sprintf("write %s[%s] = 0x%08x: %v", e.Port, e.Register, e.Value, e.Err)
	}
	return fmt.Sprintf("read %s[%s]: %v", e.Port, e.Register, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// EraseTimeoutError means ERASEALLSTATUS did not read 0 within the erase
// timeout.
type EraseTimeoutError struct {
	Port       ctrlap.Port
	Limit      time.Duration
	Polls      int
	LastStatus uint32
}

func (e *EraseTimeoutError) Error() string {
	return fmt.Sprintf("mass erase of port %s not complete after %v (%d polls, ERASEALLSTATUS = 0x%08x)",
		e.Port, e.Limit, e.Polls, e.LastStatus)
}

// Timeout marks the error as a timeout, like net.Error.
func (e *EraseTimeoutError) Timeout() bool {
	return true
}

// PreconditionError is returned before any transaction has been issued.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "recovery precondition: " + e.Reason
}

// Error wraps the failure that ended a recovery with the phase and port it
// happened in.
type Error struct {
	Phase Phase
	Port  ctrlap.Port
	// Reached is the last phase each requested port completed.
	Reached map[ctrlap.Port]Phase
	Err     error
}

func (e *Error) Error() string {
	ports := make([]ctrlap.Port, 0, len(e.Reached))
	for p := range e.Reached {
		ports = append(ports, p)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })
	reached := make([]string, len(ports))
	for i, p := range ports {
		reached[i] = fmt.Sprintf("%s=%s", p, e.Reached[p])
	}
	return fmt.Sprintf("%s phase failed on port %s: %v (completed: %s)",
		e.Phase, e.Port, e.Err, strings.Join(reached, ", "))
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recovery

import (
	"fmt"
	"time"

	"github.com/u-root/aprecover/pkg/ctrlap"
)

// Phase is a state of the recovery state machine. Phases are only ever
// entered in increasing order.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseResetting
	PhaseErasing
	PhaseResettingAgain
	PhaseVerifying
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseResetting:
		return "reset"
	case PhaseErasing:
		return "erase"
	case PhaseResettingAgain:
		return "reset again"
	case PhaseVerifying:
		return "verify"
	case PhaseDone:
		return "done"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Progress is reported when a port enters a phase, and once more with
// PhaseDone after the last step.
type Progress struct {
	Phase Phase
	Port  ctrlap.Port
	// Step counts from 1 up to TotalSteps, one step per port per phase.
	Step       int
	TotalSteps int
	Elapsed    time.Duration
}

// ProgressFunc is called synchronously from Recover. It should return
// quickly since a mass erase may be in flight.
type ProgressFunc func(Progress)

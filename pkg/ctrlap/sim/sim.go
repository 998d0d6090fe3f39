// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sim implements a simulated nRF53 CTRL-AP.
//
// Every port starts out locked. ERASEALL arms an erase that reports busy on
// ERASEALLSTATUS for a configurable number of reads. Once the erase is done
// the protection disable registers read back 0, or, for parts configured
// with NeedsResetAfterErase, only after a further RESET pulse.
package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/u-root/aprecover/pkg/ctrlap"
)

// Locked is what the protection disable registers read before recovery.
const Locked uint32 = 0xffffffff

var ErrNotAttached = errors.New("debug port not attached")

// Config describes the simulated chip.
type Config struct {
	Ports []ctrlap.Port
	// ErasePolls is the number of ERASEALLSTATUS reads that report busy
	// after ERASEALL has been written.
	ErasePolls           int
	NeedsResetAfterErase bool
}

var DefaultConfig = Config{
	Ports:      []ctrlap.Port{ctrlap.AppPort, ctrlap.NetPort},
	ErasePolls: 64,
}

type core struct {
	inReset      bool
	erasing      bool
	busyLeft     int
	pendingReset bool
	erases       int

	approtect       uint32
	secureApprotect uint32
}

// Target is an in-memory CTRL-AP implementing ctrlap.Interface.
type Target struct {
	cfg      Config
	attached bool
	cores    map[ctrlap.Port]*core
}

// New returns a detached Target with every port of cfg locked.
func New(cfg Config) *Target {
	t := &Target{cfg: cfg, cores: make(map[ctrlap.Port]*core)}
	for _, p := range cfg.Ports {
		t.cores[p] = &core{approtect: Locked, secureApprotect: Locked}
	}
	return t
}

func (t *Target) Attach()        { t.attached = true }
func (t *Target) Detach()        { t.attached = false }
func (t *Target) Attached() bool { return t.attached }
func (t *Target) Name() string   { return "simulated nRF53 CTRL-AP" }

// Unlocked reports whether both protection registers of port read 0.
func (t *Target) Unlocked(port ctrlap.Port) bool {
	c, ok := t.cores[port]
	return ok && c.approtect == 0 && c.secureApprotect == 0
}

// Erases returns how many mass erases port has completed.
func (t *Target) Erases(port ctrlap.Port) int {
	if c, ok := t.cores[port]; ok {
		return c.erases
	}
	return 0
}

// InReset reports whether port currently has its reset asserted.
func (t *Target) InReset(port ctrlap.Port) bool {
	c, ok := t.cores[port]
	return ok && c.inReset
}

func (t *Target) core(port ctrlap.Port) (*core, error) {
	if !t.attached {
		return nil, ErrNotAttached
	}
	c, ok := t.cores[port]
	if !ok {
		return nil, fmt.Errorf("no access port %d", uint8(port))
	}
	return c, nil
}

func (t *Target) WriteRegister(ctx context.Context, port ctrlap.Port, reg ctrlap.Register, value uint32) error {
	c, err := t.core(port)
	if err != nil {
		return err
	}
	switch reg {
	case ctrlap.RESET:
		switch value {
		case 1:
			c.inReset = true
		case 0:
			if c.inReset && c.pendingReset {
				c.pendingReset = false
				c.unlock()
			}
			c.inReset = false
		default:
			return fmt.Errorf("invalid %s value %#x", reg, value)
		}
	case ctrlap.ERASEALL:
		if value != 1 {
			return fmt.Errorf("invalid %s value %#x", reg, value)
		}
		if !c.erasing {
			c.erasing = true
			c.busyLeft = t.cfg.ErasePolls
		}
	default:
		return fmt.Errorf("register %s on port %d is read-only", reg, uint8(port))
	}
	return nil
}

func (t *Target) ReadRegister(ctx context.Context, port ctrlap.Port, reg ctrlap.Register) (uint32, error) {
	c, err := t.core(port)
	if err != nil {
		return 0, err
	}
	switch reg {
	case ctrlap.RESET:
		if c.inReset {
			return 1, nil
		}
		return 0, nil
	case ctrlap.ERASEALL:
		return 0, nil
	case ctrlap.ERASEALLSTATUS:
		if !c.erasing {
			return 0, nil
		}
		if c.busyLeft > 0 {
			c.busyLeft--
			return 1, nil
		}
		c.finishErase(t.cfg.NeedsResetAfterErase)
		return 0, nil
	case ctrlap.APPROTECTDISABLE:
		return c.approtect, nil
	case ctrlap.SECUREAPPROTECTDISABLE:
		return c.secureApprotect, nil
	}
	return 0, fmt.Errorf("no register at offset %#02x", uint8(reg))
}

func (c *core) finishErase(needsReset bool) {
	c.erasing = false
	c.erases++
	if needsReset {
		c.pendingReset = true
		return
	}
	c.unlock()
}

func (c *core) unlock() {
	c.approtect = 0
	c.secureApprotect = 0
}

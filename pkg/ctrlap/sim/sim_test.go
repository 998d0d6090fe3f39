// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/u-root/aprecover/pkg/ctrlap"
)

func mustWrite(t *testing.T, s *Target, p ctrlap.Port, r ctrlap.Register, v uint32) {
	t.Helper()
	if err := s.WriteRegister(context.Background(), p, r, v); err != nil {
		t.Fatalf("write %s[%s] = %d: %v", p, r, v, err)
	}
}

func mustRead(t *testing.T, s *Target, p ctrlap.Port, r ctrlap.Register) uint32 {
	t.Helper()
	v, err := s.ReadRegister(context.Background(), p, r)
	if err != nil {
		t.Fatalf("read %s[%s]: %v", p, r, err)
	}
	return v
}

func TestNotAttached(t *testing.T) {
	s := New(DefaultConfig)
	err := s.WriteRegister(context.Background(), ctrlap.AppPort, ctrlap.RESET, 1)
	if !errors.Is(err, ErrNotAttached) {
		t.Errorf("Expected ErrNotAttached, got %v", err)
	}
	if s.Attached() {
		t.Errorf("Expected new target to be detached")
	}
}

func TestUnknownPort(t *testing.T) {
	s := New(DefaultConfig)
	s.Attach()
	if _, err := s.ReadRegister(context.Background(), 7, ctrlap.APPROTECTDISABLE); err == nil {
		t.Errorf("Expected error reading from AP 7")
	}
}

func TestReadOnlyRegisters(t *testing.T) {
	s := New(DefaultConfig)
	s.Attach()
	for _, r := range ctrlap.Registers {
		if r.Writable() {
			continue
		}
		if err := s.WriteRegister(context.Background(), ctrlap.AppPort, r, 1); err == nil {
			t.Errorf("Expected write to %s to fail", r)
		}
	}
}

func TestEraseUnlocks(t *testing.T) {
	s := New(Config{Ports: []ctrlap.Port{ctrlap.AppPort}, ErasePolls: 3})
	s.Attach()
	p := ctrlap.AppPort

	if v := mustRead(t, s, p, ctrlap.APPROTECTDISABLE); v != Locked {
		t.Errorf("Expected locked part, APPROTECTDISABLE = %08x", v)
	}

	mustWrite(t, s, p, ctrlap.RESET, 1)
	if !s.InReset(p) {
		t.Errorf("Expected reset asserted")
	}
	mustWrite(t, s, p, ctrlap.RESET, 0)
	mustWrite(t, s, p, ctrlap.ERASEALL, 1)

	for i := 0; i < 3; i++ {
		if v := mustRead(t, s, p, ctrlap.ERASEALLSTATUS); v != 1 {
			t.Fatalf("poll %d: expected busy, got %d", i, v)
		}
	}
	if v := mustRead(t, s, p, ctrlap.ERASEALLSTATUS); v != 0 {
		t.Fatalf("Expected erase done, got %d", v)
	}
	if !s.Unlocked(p) {
		t.Errorf("Expected port unlocked after erase")
	}
	if s.Erases(p) != 1 {
		t.Errorf("Expected 1 erase, got %d", s.Erases(p))
	}
	if v := mustRead(t, s, p, ctrlap.SECUREAPPROTECTDISABLE); v != 0 {
		t.Errorf("SECUREAPPROTECTDISABLE = %08x, want 0", v)
	}
}

func TestNeedsResetAfterErase(t *testing.T) {
	s := New(Config{Ports: []ctrlap.Port{ctrlap.NetPort}, NeedsResetAfterErase: true})
	s.Attach()
	p := ctrlap.NetPort

	mustWrite(t, s, p, ctrlap.ERASEALL, 1)
	if v := mustRead(t, s, p, ctrlap.ERASEALLSTATUS); v != 0 {
		t.Fatalf("Expected immediate erase completion, got %d", v)
	}
	if s.Unlocked(p) {
		t.Errorf("Expected port to stay locked until reset")
	}
	mustWrite(t, s, p, ctrlap.RESET, 1)
	mustWrite(t, s, p, ctrlap.RESET, 0)
	if !s.Unlocked(p) {
		t.Errorf("Expected port unlocked after reset")
	}
}

func TestEraseAllIgnoredWhileBusy(t *testing.T) {
	s := New(Config{Ports: []ctrlap.Port{ctrlap.AppPort}, ErasePolls: 2})
	s.Attach()
	p := ctrlap.AppPort
	mustWrite(t, s, p, ctrlap.ERASEALL, 1)
	mustRead(t, s, p, ctrlap.ERASEALLSTATUS)
	mustWrite(t, s, p, ctrlap.ERASEALL, 1)
	if v := mustRead(t, s, p, ctrlap.ERASEALLSTATUS); v != 1 {
		t.Fatalf("Expected busy, got %d", v)
	}
	if v := mustRead(t, s, p, ctrlap.ERASEALLSTATUS); v != 0 {
		t.Fatalf("Expected erase done, got %d", v)
	}
	if s.Erases(p) != 1 {
		t.Errorf("Expected 1 erase, got %d", s.Erases(p))
	}
}

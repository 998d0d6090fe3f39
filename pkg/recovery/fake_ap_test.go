// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recovery

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jmhodges/clock"

	"github.com/u-root/aprecover/pkg/ctrlap"
)

var errNak = errors.New("SWD NAK")

type op struct {
	write bool
	port  ctrlap.Port
	reg   ctrlap.Register
	data  uint32
	err   error
}

func opstr(o *op) string {
	t := "read"
	if o.write {
		t = "write"
	}
	return fmt.Sprintf("{%s %s[%s] = %08x}", t, o.port, o.reg, o.data)
}

// fakeAP replays a list of expected transactions.
type fakeAP struct {
	t   *testing.T
	ops []op
}

func (f *fakeAP) next() (op, bool) {
	if len(f.ops) == 0 {
		return op{}, false
	}
	o := f.ops[0]
	f.ops = f.ops[1:]
	return o, true
}

func (f *fakeAP) WriteRegister(ctx context.Context, port ctrlap.Port, reg ctrlap.Register, value uint32) error {
	o, ok := f.next()
	if !ok {
		f.t.Errorf("Unexpected write %s[%s] = %08x", port, reg, value)
		return errNak
	}
	if !o.write || o.port != port || o.reg != reg || o.data != value {
		f.t.Errorf("Expected %s, got write %s[%s] = %08x", opstr(&o), port, reg, value)
	}
	return o.err
}

func (f *fakeAP) ReadRegister(ctx context.Context, port ctrlap.Port, reg ctrlap.Register) (uint32, error) {
	o, ok := f.next()
	if !ok {
		f.t.Errorf("Unexpected read %s[%s]", port, reg)
		return 0, errNak
	}
	if o.write || o.port != port || o.reg != reg {
		f.t.Errorf("Expected %s, got read %s[%s]", opstr(&o), port, reg)
	}
	return o.data, o.err
}

func (f *fakeAP) ExpectWrite(port ctrlap.Port, reg ctrlap.Register, v uint32) {
	f.ops = append(f.ops, op{true, port, reg, v, nil})
}

func (f *fakeAP) FailWrite(port ctrlap.Port, reg ctrlap.Register, v uint32, err error) {
	f.ops = append(f.ops, op{true, port, reg, v, err})
}

func (f *fakeAP) FakeRead(port ctrlap.Port, reg ctrlap.Register, v uint32) {
	f.ops = append(f.ops, op{false, port, reg, v, nil})
}

func (f *fakeAP) Done() {
	if len(f.ops) != 0 {
		f.t.Errorf("%d expected transactions not issued, next is %s", len(f.ops), opstr(&f.ops[0]))
	}
}

func fakeDebugPort(t *testing.T) *fakeAP {
	return &fakeAP{t, make([]op, 0)}
}

// stuckAP never finishes erasing ports in stuck. Every status read moves
// clk forward by step.
type stuckAP struct {
	stuck map[ctrlap.Port]bool
	clk   clock.FakeClock
	step  time.Duration
}

func (s *stuckAP) WriteRegister(ctx context.Context, port ctrlap.Port, reg ctrlap.Register, value uint32) error {
	return nil
}

func (s *stuckAP) ReadRegister(ctx context.Context, port ctrlap.Port, reg ctrlap.Register) (uint32, error) {
	if reg != ctrlap.ERASEALLSTATUS {
		return 0, nil
	}
	s.clk.Add(s.step)
	if s.stuck[port] {
		return 1, nil
	}
	return 0, nil
}

// failingAP passes transactions to iface until the n-th one (0 based), which
// fails.
type failingAP struct {
	iface ctrlap.Interface
	n     int
	seen  int
}

func (f *failingAP) fail() bool {
	f.seen++
	return f.seen-1 == f.n
}

func (f *failingAP) WriteRegister(ctx context.Context, port ctrlap.Port, reg ctrlap.Register, value uint32) error {
	if f.fail() {
		return errNak
	}
	return f.iface.WriteRegister(ctx, port, reg, value)
}

func (f *failingAP) ReadRegister(ctx context.Context, port ctrlap.Port, reg ctrlap.Register) (uint32, error) {
	if f.fail() {
		return 0, errNak
	}
	return f.iface.ReadRegister(ctx, port, reg)
}

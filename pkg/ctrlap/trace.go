// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctrlap

import (
	"context"
	"fmt"
)

// Transaction is one register access as seen by a Trace.
type Transaction struct {
	Write    bool
	Port     Port
	Register Register
	// Value is the value written, or the value returned by a read.
	Value uint32
	Err   error
}

func (t Transaction) String() string {
	s := ""
	if t.Write {
		s = fmt.Sprintf("write %s[%s] = %08x", t.Port, t.Register, t.Value)
	} else {
		s = fmt.Sprintf("read %s[%s] == %08x", t.Port, t.Register, t.Value)
	}
	if t.Err != nil {
		s += fmt.Sprintf(" (%v)", t.Err)
	}
	return s
}

// Trace records every transaction that passes through it, failed ones
// included.
type Trace struct {
	iface Interface
	log   []Transaction
}

func NewTrace(iface Interface) *Trace {
	return &Trace{iface: iface}
}

func (t *Trace) WriteRegister(ctx context.Context, port Port, reg Register, value uint32) error {
	err := t.iface.WriteRegister(ctx, port, reg, value)
	t.log = append(t.log, Transaction{true, port, reg, value, err})
	return err
}

func (t *Trace) ReadRegister(ctx context.Context, port Port, reg Register) (uint32, error) {
	v, err := t.iface.ReadRegister(ctx, port, reg)
	t.log = append(t.log, Transaction{false, port, reg, v, err})
	return v, err
}

// Attached forwards to the wrapped interface if it is an Attacher.
func (t *Trace) Attached() bool {
	if a, ok := t.iface.(Attacher); ok {
		return a.Attached()
	}
	return true
}

// Transactions returns a copy of the recorded log.
func (t *Trace) Transactions() []Transaction {
	return append([]Transaction(nil), t.log...)
}

func (t *Trace) Reset() {
	t.log = nil
}

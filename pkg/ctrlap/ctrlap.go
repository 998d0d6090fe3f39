// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Library for talking to the CTRL-AP of nRF53 series parts
//
// The CTRL-AP is a vendor specific access port that stays reachable even
// when APPROTECT has locked out every other access port on the chip. It
// exposes a small register map that can reset the core behind the port and
// trigger a mass erase, which as a side effect removes the protection.
//
// Writing to these registers is not reversible. ERASEALL wipes the flash of
// the core behind the port, including UICR. Be warned.
//
// This package does not know how to reach a probe. Anything that can issue
// a raw AP register read or write on an attached debug port satisfies
// Interface.

package ctrlap

import (
	"context"
	"fmt"
)

// Port selects one access port on the debug port. On the nRF5340 the
// application core CTRL-AP is AP 2 and the network core CTRL-AP is AP 3.
type Port uint8

const (
	AppPort Port = 2
	NetPort Port = 3
)

func (p Port) String() string {
	switch p {
	case AppPort:
		return "app(2)"
	case NetPort:
		return "net(3)"
	}
	return fmt.Sprintf("%d", uint8(p))
}

// Register is an offset in the CTRL-AP register map.
type Register uint8

const (
	RESET                  Register = 0x00
	ERASEALL               Register = 0x04
	ERASEALLSTATUS         Register = 0x08
	APPROTECTDISABLE       Register = 0x10
	SECUREAPPROTECTDISABLE Register = 0x14
)

// Registers lists the complete register map in offset order.
var Registers = []Register{
	RESET,
	ERASEALL,
	ERASEALLSTATUS,
	APPROTECTDISABLE,
	SECUREAPPROTECTDISABLE,
}

func (r Register) String() string {
	switch r {
	case RESET:
		return "RESET"
	case ERASEALL:
		return "ERASEALL"
	case ERASEALLSTATUS:
		return "ERASEALLSTATUS"
	case APPROTECTDISABLE:
		return "APPROTECTDISABLE"
	case SECUREAPPROTECTDISABLE:
		return "SECUREAPPROTECTDISABLE"
	}
	return fmt.Sprintf("0x%02x", uint8(r))
}

// Writable reports whether the register accepts writes.
func (r Register) Writable() bool {
	return r == RESET || r == ERASEALL
}

// Interface is a debug port that has been attached and can issue raw
// access port register transactions. Calls are not safe for concurrent use,
// the transport below handles one transaction at a time.
type Interface interface {
	WriteRegister(ctx context.Context, port Port, reg Register, value uint32) error
	ReadRegister(ctx context.Context, port Port, reg Register) (uint32, error)
}

// Attacher is implemented by interfaces that can tell whether the debug
// port is currently attached.
type Attacher interface {
	Attached() bool
}

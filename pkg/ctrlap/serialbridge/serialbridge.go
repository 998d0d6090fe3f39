// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package serialbridge talks to a debug probe bridge over a serial port.
//
// The bridge firmware owns the SWD lines and accepts one request per line,
// all numbers in hex:
//
//	A                      attach the debug port
//	W <port> <reg> <value> write an access port register
//	R <port> <reg>         read an access port register
//
// and answers every request with "OK", "OK <value>" or "ERR <message>".
package serialbridge

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tarm/serial"

	"github.com/u-root/aprecover/pkg/ctrlap"
)

// Config selects the serial device the bridge firmware listens on.
type Config struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

// DefaultConfig is the usual CDC-ACM device of the bridge firmware.
var DefaultConfig = Config{
	Device:      "/dev/ttyACM0",
	Baud:        115200,
	ReadTimeout: 2 * time.Second,
}

// RemoteError is an ERR reply from the bridge.
type RemoteError struct {
	Request string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("bridge rejected %q: %s", e.Request, e.Message)
}

// Bridge is a ctrlap.Interface talking to probe bridge firmware.
type Bridge struct {
	name     string
	rw       io.ReadWriter
	r        *bufio.Reader
	attached bool
}

// New wraps an already open connection to a bridge.
func New(name string, rw io.ReadWriter) *Bridge {
	return &Bridge{name: name, rw: rw, r: bufio.NewReader(rw)}
}

// Open opens the serial device described by c.
func Open(c Config) (*Bridge, error) {
	s, err := serial.OpenPort(&serial.Config{Name: c.Device, Baud: c.Baud, ReadTimeout: c.ReadTimeout})
	if err != nil {
		return nil, fmt.Errorf("serial.OpenPort: %v", err)
	}
	return New(c.Device, s), nil
}

func (b *Bridge) Name() string {
	return "serial bridge " + b.name
}

func (b *Bridge) Attached() bool {
	return b.attached
}

// Attach asks the bridge to bring up the debug port.
func (b *Bridge) Attach(ctx context.Context) error {
	if _, err := b.roundTrip(ctx, "A"); err != nil {
		return fmt.Errorf("attach: %w", err)
	}
	b.attached = true
	return nil
}

func (b *Bridge) WriteRegister(ctx context.Context, port ctrlap.Port, reg ctrlap.Register, value uint32) error {
	_, err := b.roundTrip(ctx, fmt.Sprintf("W %x %x %x", uint8(port), uint8(reg), value))
	return err
}

func (b *Bridge) ReadRegister(ctx context.Context, port ctrlap.Port, reg ctrlap.Register) (uint32, error) {
	req := fmt.Sprintf("R %x %x", uint8(port), uint8(reg))
	arg, err := b.roundTrip(ctx, req)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(arg, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("bad reply to %q: %v", req, err)
	}
	return uint32(v), nil
}

func (b *Bridge) Close() error {
	b.attached = false
	if c, ok := b.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (b *Bridge) roundTrip(ctx context.Context, req string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := io.WriteString(b.rw, req+"\n"); err != nil {
		return "", fmt.Errorf("send %q: %w", req, err)
	}
	line, err := b.r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line == "" {
			err = io.ErrUnexpectedEOF
		}
		return "", fmt.Errorf("reply to %q: %w", req, err)
	}
	line = strings.TrimRight(line, "\r\n")
	status, arg, _ := strings.Cut(line, " ")
	switch status {
	case "OK":
		return arg, nil
	case "ERR":
		return "", &RemoteError{Request: req, Message: arg}
	}
	return "", fmt.Errorf("malformed reply to %q: %q", req, line)
}

// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctrlap

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type loggedInterface struct {
	iface Interface
	log   *zap.Logger
}

// WithLogging returns an Interface that logs every transaction on l at
// debug level.
func WithLogging(iface Interface, l *zap.Logger) Interface {
	return &loggedInterface{iface, l}
}

func (l *loggedInterface) WriteRegister(ctx context.Context, port Port, reg Register, value uint32) error {
	err := l.iface.WriteRegister(ctx, port, reg, value)
	l.log.Debug("ap write",
		zap.Uint8("port", uint8(port)),
		zap.Stringer("reg", reg),
		zap.String("value", fmt.Sprintf("0x%08x", value)),
		zap.Error(err))
	return err
}

func (l *loggedInterface) ReadRegister(ctx context.Context, port Port, reg Register) (uint32, error) {
	v, err := l.iface.ReadRegister(ctx, port, reg)
	l.log.Debug("ap read",
		zap.Uint8("port", uint8(port)),
		zap.Stringer("reg", reg),
		zap.String("value", fmt.Sprintf("0x%08x", v)),
		zap.Error(err))
	return v, err
}

func (l *loggedInterface) Attached() bool {
	if a, ok := l.iface.(Attacher); ok {
		return a.Attached()
	}
	return true
}

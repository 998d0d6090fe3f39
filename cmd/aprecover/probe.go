// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"

	"github.com/u-root/aprecover/config"
	"github.com/u-root/aprecover/pkg/ctrlap"
	"github.com/u-root/aprecover/pkg/ctrlap/serialbridge"
	"github.com/u-root/aprecover/pkg/ctrlap/sim"
)

// probe is an attached debug port.
type probe interface {
	ctrlap.Interface
	ctrlap.Attacher
	Name() string
	Close() error
}

type simProbe struct {
	*sim.Target
}

func (s simProbe) Close() error {
	s.Detach()
	return nil
}

func openProbe(ctx context.Context, c *config.Config) (probe, error) {
	switch c.Probe.Kind {
	case config.ProbeSim:
		ports, err := ctrlap.ParsePorts(c.Recovery.Ports)
		if err != nil {
			return nil, err
		}
		t := sim.New(sim.Config{
			Ports:                ports,
			ErasePolls:           c.Sim.ErasePolls,
			NeedsResetAfterErase: c.Sim.NeedsResetAfterErase,
		})
		t.Attach()
		return simProbe{t}, nil
	case config.ProbeSerial:
		b, err := serialbridge.Open(serialbridge.Config{
			Device:      c.Probe.Device,
			Baud:        c.Probe.Baud,
			ReadTimeout: c.Probe.ReadTimeout,
		})
		if err != nil {
			return nil, err
		}
		if err := b.Attach(ctx); err != nil {
			b.Close()
			return nil, err
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown probe %q", c.Probe.Kind)
}

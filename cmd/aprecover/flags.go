// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/spf13/cobra"

	"github.com/u-root/aprecover/config"
)

// applyFlags overrides c with every flag given on the command line.
func applyFlags(cmd *cobra.Command, c *config.Config) error {
	f := cmd.Flags()
	if f.Changed("probe") {
		c.Probe.Kind = probeKind
	}
	if f.Changed("device") {
		c.Probe.Device = device
	}
	if f.Changed("baud") {
		c.Probe.Baud = baud
	}
	if f.Changed("ports") {
		c.Recovery.Ports = ports
	}
	if f.Changed("reset-after-erase") {
		c.Recovery.ResetAfterErase = resetAfterErase
	}
	if f.Changed("erase-timeout") {
		c.Recovery.EraseTimeout = eraseTimeout
	}
	if f.Changed("poll-interval") {
		c.Recovery.PollInterval = pollInterval
		if c.Recovery.MaxPollInterval < pollInterval {
			c.Recovery.MaxPollInterval = pollInterval
		}
	}
	if f.Changed("metrics-textfile") {
		c.Metrics.Textfile = metricsTextfile
	}
	if f.Changed("verbose") {
		c.Log.Verbose = verbose
	}
	return c.Validate()
}

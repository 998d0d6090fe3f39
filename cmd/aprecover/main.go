// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// aprecover unlocks an APPROTECT'd nRF5340 by mass erasing the application
// and network cores through their CTRL-APs.
//
// All flash on the selected cores is erased. There is no undo.
package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/u-root/aprecover/config"
)

var (
	cfgFile         string
	probeKind       string
	device          string
	baud            int
	ports           []string
	resetAfterErase bool
	eraseTimeout    time.Duration
	pollInterval    time.Duration
	trace           bool
	metricsTextfile string
	verbose         bool

	rootCmd = &cobra.Command{
		Use:   "aprecover",
		Short: "Erase and unlock a protected nRF5340",
		Long: "Resets every selected core, mass erases it through its CTRL-AP and reads back " +
			"the APPROTECT and SECUREAPPROTECT disable registers. All flash is lost.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(afero.NewOsFs(), cfgFile)
			if err != nil {
				return err
			}
			if err := applyFlags(cmd, c); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, unix.SIGTERM)
			defer stop()
			return run(ctx, afero.NewOsFs(), c, trace, cmd.OutOrStdout())
		},
	}
)

func init() {
	f := rootCmd.Flags()
	f.StringVar(&cfgFile, "config", "", "TOML config file")
	f.StringVar(&probeKind, "probe", "", "probe to use: sim or serial")
	f.StringVar(&device, "device", "", "serial device of the probe bridge")
	f.IntVar(&baud, "baud", 0, "serial baud rate")
	f.StringSliceVar(&ports, "ports", nil, "access ports to recover, e.g. app,net or 2,3")
	f.BoolVar(&resetAfterErase, "reset-after-erase", false, "pulse RESET again after all erases")
	f.DurationVar(&eraseTimeout, "erase-timeout", 0, "give up on a mass erase after this long")
	f.DurationVar(&pollInterval, "poll-interval", 0, "initial delay between erase status polls")
	f.BoolVar(&trace, "trace", false, "print every register transaction")
	f.StringVar(&metricsTextfile, "metrics-textfile", "", "write prometheus metrics to this file")
	f.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

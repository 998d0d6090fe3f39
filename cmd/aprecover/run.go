// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/u-root/aprecover/config"
	"github.com/u-root/aprecover/pkg/ctrlap"
	"github.com/u-root/aprecover/pkg/logger"
	"github.com/u-root/aprecover/pkg/metric"
	"github.com/u-root/aprecover/pkg/recovery"
)

const tickInterval = time.Second

func run(ctx context.Context, fs afero.Fs, c *config.Config, trace bool, out io.Writer) error {
	w := &lockedWriter{w: out}
	l, err := logger.New(fs, logger.Config{Verbose: c.Log.Verbose, File: c.Log.File, Console: w})
	if err != nil {
		return err
	}
	defer l.Sync()
	l = l.With(zap.String("run", uuid.New().String()), zap.String("version", c.Version.Version))

	ports, err := ctrlap.ParsePorts(c.Recovery.Ports)
	if err != nil {
		return err
	}

	p, err := openProbe(ctx, c)
	if err != nil {
		return fmt.Errorf("open probe: %w", err)
	}
	defer p.Close()
	fmt.Fprintf(w, "Opened probe %s\n", p.Name())
	fmt.Fprintln(w, "Attached")

	tr := ctrlap.NewTrace(ctrlap.WithLogging(p, l))
	reg := prometheus.NewRegistry()
	m := metric.NewRecovery(reg)

	phases := 3
	if c.Recovery.ResetAfterErase {
		phases++
	}
	total := int64(phases * len(ports))
	steps := &stepCounter{}

	tickCtx, stopTicker := context.WithCancel(ctx)
	defer stopTicker()
	var res *recovery.Outcome
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stopTicker()
		var err error
		res, err = recovery.Recover(gctx, tr, ports,
			recovery.WithResetAfterErase(c.Recovery.ResetAfterErase),
			recovery.WithEraseTimeout(c.Recovery.EraseTimeout),
			recovery.WithPollInterval(c.Recovery.PollInterval, c.Recovery.MaxPollInterval),
			recovery.WithLogger(l),
			recovery.WithMetrics(m),
			recovery.WithProgress(func(pr recovery.Progress) {
				steps.update(pr)
				printStep(w, pr)
			}))
		steps.finish(err)
		return err
	})
	g.Go(func() error {
		watch(tickCtx, w, steps, total, tickInterval)
		return nil
	})
	err = g.Wait()

	if trace {
		for _, t := range tr.Transactions() {
			fmt.Fprintf(w, "    %s\n", t)
		}
	}
	if c.Metrics.Textfile != "" {
		if merr := metric.WriteTextfile(reg, c.Metrics.Textfile); merr != nil {
			l.Error("unable to write metrics", zap.String("path", c.Metrics.Textfile), zap.Error(merr))
		}
	}

	if err != nil {
		report(w, ports, err)
		return err
	}
	for _, s := range res.Ports {
		fmt.Fprintf(w, "Port %s: APPROTECTDISABLE %X SECUREAPPROTECTDISABLE %X\n", s.Port, s.Approtect, s.SecureApprotect)
	}
	fmt.Fprintln(w, "Done")
	return nil
}

// report tells the operator how far each port got. Erased ports stay
// erased.
func report(w io.Writer, ports []ctrlap.Port, err error) {
	fmt.Fprintf(w, "Recovery failed: %v\n", err)
	var re *recovery.Error
	if !errors.As(err, &re) {
		return
	}
	for _, p := range ports {
		fmt.Fprintf(w, "  port %s completed phase: %s\n", p, re.Reached[p])
	}
	var et *recovery.EraseTimeoutError
	if errors.As(err, &et) {
		fmt.Fprintln(w, "The erase did not finish in time. Power cycle the target and run again.")
	}
}

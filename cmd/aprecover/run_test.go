// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/u-root/aprecover/config"
	"github.com/u-root/aprecover/pkg/recovery"
)

func simConfig() *config.Config {
	c := *config.DefaultConfig
	c.Sim.ErasePolls = 3
	c.Recovery.PollInterval = 0
	c.Recovery.MaxPollInterval = 0
	return &c
}

func TestRunSim(t *testing.T) {
	c := simConfig()
	c.Metrics.Textfile = filepath.Join(t.TempDir(), "aprecover.prom")
	var b bytes.Buffer
	if err := run(context.Background(), afero.NewMemMapFs(), c, true, &b); err != nil {
		t.Fatalf("run: %v\n%s", err, b.String())
	}
	got := b.String()
	for _, want := range []string{
		"Opened probe simulated nRF53 CTRL-AP\nAttached\n",
		"[1/6] reset app(2)",
		"[4/6] erase net(3)",
		"write app(2)[ERASEALL] = 00000001",
		"Port app(2): APPROTECTDISABLE 0 SECUREAPPROTECTDISABLE 0",
		"Port net(3): APPROTECTDISABLE 0 SECUREAPPROTECTDISABLE 0",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected %q in output:\n%s", want, got)
		}
	}
	if !strings.HasSuffix(got, "Done\n") {
		t.Errorf("Expected output to end with Done:\n%s", got)
	}
	m, err := os.ReadFile(c.Metrics.Textfile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(m), `aprecover_runs_total{result="ok"} 1`) {
		t.Errorf("Unexpected metrics:\n%s", m)
	}
}

func TestRunResetAfterErase(t *testing.T) {
	c := simConfig()
	c.Sim.NeedsResetAfterErase = true
	c.Recovery.ResetAfterErase = true
	c.Recovery.Ports = []string{"net"}
	var b bytes.Buffer
	if err := run(context.Background(), afero.NewMemMapFs(), c, false, &b); err != nil {
		t.Fatalf("run: %v\n%s", err, b.String())
	}
	if !strings.Contains(b.String(), "[3/4] reset again net(3)") || !strings.Contains(b.String(), "Done") {
		t.Errorf("Unexpected output:\n%s", b.String())
	}
}

func TestRunEraseTimeout(t *testing.T) {
	c := simConfig()
	c.Sim.ErasePolls = 1 << 30
	c.Recovery.EraseTimeout = time.Nanosecond
	var b bytes.Buffer
	err := run(context.Background(), afero.NewMemMapFs(), c, false, &b)
	var et *recovery.EraseTimeoutError
	if !errors.As(err, &et) {
		t.Fatalf("Expected EraseTimeoutError, got %v", err)
	}
	got := b.String()
	if strings.Contains(got, "Done") {
		t.Errorf("Done printed after failure:\n%s", got)
	}
	for _, want := range []string{
		"Recovery failed: erase phase failed on port app(2)",
		"port app(2) completed phase: reset",
		"port net(3) completed phase: reset",
		"did not finish in time",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected %q in output:\n%s", want, got)
		}
	}
}

func TestRunBadPorts(t *testing.T) {
	c := simConfig()
	c.Recovery.Ports = []string{"app", "app"}
	if err := run(context.Background(), afero.NewMemMapFs(), c, false, &bytes.Buffer{}); err == nil {
		t.Errorf("Expected error for duplicate ports")
	}
}

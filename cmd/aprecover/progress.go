// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/machinebox/progress"

	"github.com/u-root/aprecover/pkg/recovery"
)

// stepCounter implements progress.Counter over recovery steps.
type stepCounter struct {
	mu    sync.Mutex
	n     int64
	phase recovery.Phase
	err   error
}

func (s *stepCounter) N() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

func (s *stepCounter) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *stepCounter) update(p recovery.Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = p.Phase
	s.n = int64(p.Step - 1)
	if p.Phase == recovery.PhaseDone {
		s.n = int64(p.TotalSteps)
	}
}

func (s *stepCounter) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *stepCounter) current() recovery.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// lockedWriter serializes writes from the recovery and the ticker.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(b []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(b)
}

func printStep(w io.Writer, p recovery.Progress) {
	if p.Phase == recovery.PhaseDone {
		return
	}
	fmt.Fprintf(w, "  [%d/%d] %s %s\n", p.Step, p.TotalSteps, p.Phase, p.Port)
}

// watch prints an estimate every interval until ctx is done or all steps
// have completed.
func watch(ctx context.Context, w io.Writer, s *stepCounter, total int64, interval time.Duration) {
	for p := range progress.NewTicker(ctx, s, total, interval) {
		if p.Complete() {
			continue
		}
		remaining := p.Remaining().Round(time.Second)
		if remaining < 0 {
			fmt.Fprintf(w, "  still in %s phase, %.0f%% done\n", s.current(), p.Percent())
			continue
		}
		fmt.Fprintf(w, "  still in %s phase, %.0f%% done, about %v left\n", s.current(), p.Percent(), remaining)
	}
}

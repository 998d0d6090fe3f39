// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recovery

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jpillora/backoff"
	"go.uber.org/zap"

	"github.com/u-root/aprecover/pkg/ctrlap"
)

// Recoverer runs the recovery sequence on one attached debug port. It owns
// the interface for the duration of Recover.
type Recoverer struct {
	iface  ctrlap.Interface
	config Config
}

// New returns a Recoverer driving iface. It panics if iface is nil.
func New(iface ctrlap.Interface, opts ...Option) *Recoverer {
	if iface == nil {
		panic("recovery: nil interface")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Recoverer{iface: iface, config: cfg}
}

// Recover is shorthand for New(iface, opts...).Recover(ctx, ports).
func Recover(ctx context.Context, iface ctrlap.Interface, ports []ctrlap.Port, opts ...Option) (*Outcome, error) {
	return New(iface, opts...).Recover(ctx, ports)
}

type step func(ctx context.Context, port ctrlap.Port) error

type stage struct {
	phase Phase
	do    step
}

// Recover resets, erases and verifies every port in ports. An empty list
// succeeds without touching the debug port.
func (r *Recoverer) Recover(ctx context.Context, ports []ctrlap.Port) (*Outcome, error) {
	if err := r.check(ports); err != nil {
		r.countRun("precondition")
		return nil, err
	}

	start := r.config.Clock.Now()
	out := &Outcome{Ports: make([]PortStatus, 0, len(ports))}
	if len(ports) == 0 {
		r.countRun("ok")
		return out, nil
	}

	verify := func(ctx context.Context, port ctrlap.Port) error {
		s, err := r.verify(ctx, port)
		if err != nil {
			return err
		}
		out.Ports = append(out.Ports, s)
		return nil
	}

	stages := []stage{{PhaseResetting, r.reset}, {PhaseErasing, r.erase}}
	if r.config.ResetAfterErase {
		stages = append(stages, stage{PhaseResettingAgain, r.reset})
	}
	stages = append(stages, stage{PhaseVerifying, verify})

	reached := make(map[ctrlap.Port]Phase, len(ports))
	for _, p := range ports {
		reached[p] = PhaseIdle
	}

	total := len(stages) * len(ports)
	n := 0
	for _, s := range stages {
		r.config.Logger.Debug("entering phase", zap.Stringer("phase", s.phase), zap.Int("ports", len(ports)))
		for _, p := range ports {
			n++
			err := ctx.Err()
			if err == nil {
				r.report(Progress{Phase: s.phase, Port: p, Step: n, TotalSteps: total, Elapsed: r.config.Clock.Now().Sub(start)})
				err = s.do(ctx, p)
			}
			if err != nil {
				r.countRun(result(err))
				r.config.Logger.Error("recovery aborted",
					zap.Stringer("phase", s.phase),
					zap.Stringer("port", p),
					zap.Error(err))
				return nil, &Error{Phase: s.phase, Port: p, Reached: reached, Err: err}
			}
			reached[p] = s.phase
		}
	}

	out.Elapsed = r.config.Clock.Now().Sub(start)
	r.report(Progress{Phase: PhaseDone, Port: ports[len(ports)-1], Step: total, TotalSteps: total, Elapsed: out.Elapsed})
	r.countRun("ok")
	r.config.Logger.Info("recovery complete",
		zap.Int("ports", len(ports)),
		zap.Duration("elapsed", out.Elapsed))
	return out, nil
}

func (r *Recoverer) check(ports []ctrlap.Port) error {
	if r.config.EraseTimeout <= 0 {
		return &PreconditionError{fmt.Sprintf("erase timeout must be positive, got %v", r.config.EraseTimeout)}
	}
	if r.config.PollInterval < 0 || r.config.MaxPollInterval < r.config.PollInterval {
		return &PreconditionError{fmt.Sprintf("bad poll interval range [%v, %v]", r.config.PollInterval, r.config.MaxPollInterval)}
	}
	if a, ok := r.iface.(ctrlap.Attacher); ok && !a.Attached() {
		return &PreconditionError{"debug port is not attached"}
	}
	seen := make(map[ctrlap.Port]bool, len(ports))
	for _, p := range ports {
		if seen[p] {
			return &PreconditionError{fmt.Sprintf("port %s requested twice", p)}
		}
		seen[p] = true
	}
	return nil
}

func (r *Recoverer) reset(ctx context.Context, port ctrlap.Port) error {
	if err := r.write(ctx, port, ctrlap.RESET, 1); err != nil {
		return err
	}
	return r.write(ctx, port, ctrlap.RESET, 0)
}

func (r *Recoverer) erase(ctx context.Context, port ctrlap.Port) error {
	if err := r.write(ctx, port, ctrlap.ERASEALL, 1); err != nil {
		return err
	}

	clk := r.config.Clock
	start := clk.Now()
	deadline := start.Add(r.config.EraseTimeout)
	b := &backoff.Backoff{
		Min:    r.config.PollInterval,
		Max:    r.config.MaxPollInterval,
		Factor: 2,
	}
	label := strconv.Itoa(int(port))

	for polls := 1; ; polls++ {
		status, err := r.read(ctx, port, ctrlap.ERASEALLSTATUS)
		if err != nil {
			return err
		}
		if m := r.config.Metrics; m != nil {
			m.ErasePolls.WithLabelValues(label).Inc()
		}
		if status == 0 {
			d := clk.Now().Sub(start)
			if m := r.config.Metrics; m != nil {
				m.EraseDuration.WithLabelValues(label).Observe(d.Seconds())
			}
			r.config.Logger.Debug("mass erase complete",
				zap.Stringer("port", port),
				zap.Int("polls", polls),
				zap.Duration("elapsed", d))
			return nil
		}
		if !clk.Now().Before(deadline) {
			return &EraseTimeoutError{Port: port, Limit: r.config.EraseTimeout, Polls: polls, LastStatus: status}
		}
		if r.config.PollInterval > 0 {
			clk.Sleep(b.Duration())
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (r *Recoverer) verify(ctx context.Context, port ctrlap.Port) (PortStatus, error) {
	s := PortStatus{Port: port}
	var err error
	if s.Approtect, err = r.read(ctx, port, ctrlap.APPROTECTDISABLE); err != nil {
		return s, err
	}
	if s.SecureApprotect, err = r.read(ctx, port, ctrlap.SECUREAPPROTECTDISABLE); err != nil {
		return s, err
	}
	if m := r.config.Metrics; m != nil {
		label := strconv.Itoa(int(port))
		m.Protection.WithLabelValues(label, ctrlap.APPROTECTDISABLE.String()).Set(float64(s.Approtect))
		m.Protection.WithLabelValues(label, ctrlap.SECUREAPPROTECTDISABLE.String()).Set(float64(s.SecureApprotect))
	}
	return s, nil
}

func (r *Recoverer) write(ctx context.Context, port ctrlap.Port, reg ctrlap.Register, value uint32) error {
	err := r.iface.WriteRegister(ctx, port, reg, value)
	r.countTransaction("write", err)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		return &TransportError{Write: true, Port: port, Register: reg, Value: value, Err: err}
	}
	return nil
}

func (r *Recoverer) read(ctx context.Context, port ctrlap.Port, reg ctrlap.Register) (uint32, error) {
	v, err := r.iface.ReadRegister(ctx, port, reg)
	r.countTransaction("read", err)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return 0, cerr
		}
		return 0, &TransportError{Port: port, Register: reg, Err: err}
	}
	return v, nil
}

func (r *Recoverer) report(p Progress) {
	if r.config.Progress != nil {
		r.config.Progress(p)
	}
}

func (r *Recoverer) countTransaction(op string, err error) {
	if r.config.Metrics == nil {
		return
	}
	res := "ok"
	if err != nil {
		res = "error"
	}
	r.config.Metrics.Transactions.WithLabelValues(op, res).Inc()
}

func (r *Recoverer) countRun(res string) {
	if r.config.Metrics != nil {
		r.config.Metrics.Runs.WithLabelValues(res).Inc()
	}
}

func result(err error) string {
	var te *TransportError
	var et *EraseTimeoutError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.As(err, &te):
		return "transport"
	case errors.As(err, &et):
		return "timeout"
	}
	return "error"
}

// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recovery

import (
	"time"

	"github.com/jmhodges/clock"
	"go.uber.org/zap"

	"github.com/u-root/aprecover/pkg/metric"
)

const (
	DefaultEraseTimeout    = 15 * time.Second
	DefaultPollInterval    = time.Millisecond
	DefaultMaxPollInterval = 50 * time.Millisecond
)

// Config holds the recoverer configuration.
type Config struct {
	// ResetAfterErase pulses RESET on every port again once all erases are
	// done. Some parts only report the protection as disabled after that.
	ResetAfterErase bool

	// EraseTimeout bounds the wait for ERASEALLSTATUS to read 0, per port.
	EraseTimeout time.Duration

	// PollInterval is the initial delay between ERASEALLSTATUS reads. It
	// doubles up to MaxPollInterval. Zero polls back to back.
	PollInterval    time.Duration
	MaxPollInterval time.Duration

	Clock    clock.Clock
	Logger   *zap.Logger
	Metrics  *metric.Recovery
	Progress ProgressFunc
}

func defaultConfig() Config {
	return Config{
		EraseTimeout:    DefaultEraseTimeout,
		PollInterval:    DefaultPollInterval,
		MaxPollInterval: DefaultMaxPollInterval,
		Clock:           clock.New(),
		Logger:          zap.NewNop(),
	}
}

// Option is a functional option for configuring the Recoverer.
type Option func(*Config)

// WithResetAfterErase adds a second reset pulse between erase and verify.
func WithResetAfterErase(enable bool) Option {
	return func(c *Config) {
		c.ResetAfterErase = enable
	}
}

// WithEraseTimeout bounds how long a single port may report erase busy.
func WithEraseTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.EraseTimeout = d
	}
}

// WithPollInterval sets the bounds of the ERASEALLSTATUS poll backoff.
func WithPollInterval(min, max time.Duration) Option {
	return func(c *Config) {
		c.PollInterval = min
		c.MaxPollInterval = max
	}
}

// WithClock replaces the clock used for the erase timeout and poll delays.
func WithClock(clk clock.Clock) Option {
	return func(c *Config) {
		c.Clock = clk
	}
}

// WithLogger sets the logger for phase and completion messages.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithMetrics records runs, transactions and erase polls in m.
func WithMetrics(m *metric.Recovery) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithProgress calls f before each port step and once when done.
func WithProgress(f ProgressFunc) Option {
	return func(c *Config) {
		c.Progress = f
	}
}

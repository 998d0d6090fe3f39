// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/u-root/aprecover/pkg/ctrlap/serialbridge"
)

const (
	ProbeSim    = "sim"
	ProbeSerial = "serial"

	EnvPrefix = "APRECOVER"
)

type Version struct {
	Version string `mapstructure:"version"`
	GitHash string `mapstructure:"git_hash"`
}

type Probe struct {
	// Kind is either "sim" or "serial"
	Kind        string        `mapstructure:"kind"`
	Device      string        `mapstructure:"device"`
	Baud        int           `mapstructure:"baud"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

// Sim configures the simulated target used with Probe.Kind "sim"
type Sim struct {
	ErasePolls           int  `mapstructure:"erase_polls"`
	NeedsResetAfterErase bool `mapstructure:"needs_reset_after_erase"`
}

type Recovery struct {
	// Ports are access port numbers or the aliases "app" and "net"
	Ports           []string      `mapstructure:"ports"`
	ResetAfterErase bool          `mapstructure:"reset_after_erase"`
	EraseTimeout    time.Duration `mapstructure:"erase_timeout"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	MaxPollInterval time.Duration `mapstructure:"max_poll_interval"`
}

type Log struct {
	Verbose bool   `mapstructure:"verbose"`
	File    string `mapstructure:"file"`
}

type Metrics struct {
	// Textfile is written in the prometheus text format after every run
	Textfile string `mapstructure:"textfile"`
}

type Config struct {
	Probe    Probe    `mapstructure:"probe"`
	Sim      Sim      `mapstructure:"sim"`
	Recovery Recovery `mapstructure:"recovery"`
	Log      Log      `mapstructure:"log"`
	Metrics  Metrics  `mapstructure:"metrics"`
	Version  Version  `mapstructure:"version"`
}

var DefaultConfig = &Config{
	// Nothing is erased unless a probe is explicitly selected.
	Probe: Probe{
		Kind:        ProbeSim,
		Device:      serialbridge.DefaultConfig.Device,
		Baud:        serialbridge.DefaultConfig.Baud,
		ReadTimeout: serialbridge.DefaultConfig.ReadTimeout,
	},
	Sim: Sim{
		ErasePolls: 64,
	},
	// nRF5340: application core CTRL-AP on AP 2, network core on AP 3.
	// The nRF5340 reports the protection as disabled straight after the
	// erase, so the second reset stays off.
	Recovery: Recovery{
		Ports:           []string{"app", "net"},
		EraseTimeout:    15 * time.Second,
		PollInterval:    time.Millisecond,
		MaxPollInterval: 50 * time.Millisecond,
	},
	Version: Version{
		Version: "dev",
	},
}

// Load starts from DefaultConfig, applies the TOML file at path (if not
// empty) and then APRECOVER_* environment variables, e.g.
// APRECOVER_RECOVERY_ERASE_TIMEOUT=30s.
func Load(fs afero.Fs, path string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	setDefaults(v, DefaultConfig)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %v", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("probe.kind", c.Probe.Kind)
	v.SetDefault("probe.device", c.Probe.Device)
	v.SetDefault("probe.baud", c.Probe.Baud)
	v.SetDefault("probe.read_timeout", c.Probe.ReadTimeout)
	v.SetDefault("sim.erase_polls", c.Sim.ErasePolls)
	v.SetDefault("sim.needs_reset_after_erase", c.Sim.NeedsResetAfterErase)
	v.SetDefault("recovery.ports", c.Recovery.Ports)
	v.SetDefault("recovery.reset_after_erase", c.Recovery.ResetAfterErase)
	v.SetDefault("recovery.erase_timeout", c.Recovery.EraseTimeout)
	v.SetDefault("recovery.poll_interval", c.Recovery.PollInterval)
	v.SetDefault("recovery.max_poll_interval", c.Recovery.MaxPollInterval)
	v.SetDefault("log.verbose", c.Log.Verbose)
	v.SetDefault("log.file", c.Log.File)
	v.SetDefault("metrics.textfile", c.Metrics.Textfile)
	v.SetDefault("version.version", c.Version.Version)
	v.SetDefault("version.git_hash", c.Version.GitHash)
}

// Validate reports every problem in c at once
func (c *Config) Validate() error {
	var errs *multierror.Error
	switch c.Probe.Kind {
	case ProbeSim:
		if c.Sim.ErasePolls < 0 {
			errs = multierror.Append(errs, fmt.Errorf("sim.erase_polls must not be negative"))
		}
	case ProbeSerial:
		if c.Probe.Device == "" {
			errs = multierror.Append(errs, fmt.Errorf("probe.device is required for the serial probe"))
		}
		if c.Probe.Baud <= 0 {
			errs = multierror.Append(errs, fmt.Errorf("probe.baud must be positive, got %d", c.Probe.Baud))
		}
	default:
		errs = multierror.Append(errs, fmt.Errorf("unknown probe.kind %q", c.Probe.Kind))
	}
	if c.Recovery.EraseTimeout <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("recovery.erase_timeout must be positive, got %v", c.Recovery.EraseTimeout))
	}
	if c.Recovery.PollInterval < 0 || c.Recovery.MaxPollInterval < c.Recovery.PollInterval {
		errs = multierror.Append(errs, fmt.Errorf("recovery.poll_interval %v and max_poll_interval %v are not a valid range",
			c.Recovery.PollInterval, c.Recovery.MaxPollInterval))
	}
	return errs.ErrorOrNil()
}

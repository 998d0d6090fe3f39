// Copyright 2021 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects where log output goes
type Config struct {
	// Verbose lowers the console level to debug
	Verbose bool
	// File, if set, additionally receives JSON encoded entries
	File string
	// Console is where console entries are written, stdout if nil
	Console io.Writer
}

// New creates a logger writing to the console and, if configured, to a
// log file created on fs
func New(fs afero.Fs, c Config) (*zap.Logger, error) {
	cores := []zapcore.Core{getConsoleCore(c)}
	if c.File != "" {
		f, err := fs.Create(c.File)
		if err != nil {
			return nil, fmt.Errorf("unable to create logfile: %v", err)
		}
		cores = append(cores, getJsonCore(f))
	}
	return zap.New(zapcore.NewTee(cores...)), nil
}

// Must mirrors New but panics on error
func Must(fs afero.Fs, c Config) *zap.Logger {
	l, err := New(fs, c)
	if err != nil {
		panic(err)
	}
	return l
}

func getConsoleEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func getJsonEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.EpochTimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

func getConsoleCore(c Config) zapcore.Core {
	level := zapcore.InfoLevel
	if c.Verbose {
		level = zapcore.DebugLevel
	}
	w := c.Console
	if w == nil {
		w = os.Stdout
	}
	return zapcore.NewCore(getConsoleEncoder(), zapcore.AddSync(w), level)
}

func getJsonCore(w io.Writer) zapcore.Core {
	return zapcore.NewCore(getJsonEncoder(), zapcore.AddSync(w), zapcore.DebugLevel)
}

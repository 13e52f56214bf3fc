// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package conf

type Level string

const (
	TraceLevel Level = "trace"
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
	FatalLevel Level = "fatal"
)

const (
	OutputStdout = "stdout"
	OutputFile   = "file"

	DefaultCore = "logrus"
)

// LogConfig controls the process logger. Core selects the backing
// implementation; only logrus is wired today.
type LogConfig struct {
	Core      string    `yaml:"core"`
	Level     Level     `yaml:"level"`
	Formatter Formatter `yaml:"formatter"`
	Output    Output    `yaml:"output"`
}

// Output selects where log lines go. A non-empty Path switches the sink to a
// size-rotated file.
type Output struct {
	Type       string `yaml:"type"`
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
}

func DefaultConfig() *LogConfig {
	return &LogConfig{
		Core:      DefaultCore,
		Level:     InfoLevel,
		Formatter: ConsoleFormater,
		Output: Output{
			Type: OutputStdout,
		},
	}
}

func (c *LogConfig) Normalize() {
	if c.Core == "" {
		c.Core = DefaultCore
	}
	if !isValidLevel(c.Level) {
		c.Level = InfoLevel
	}
	if !isValidFormatter(c.Formatter) {
		c.Formatter = ConsoleFormater
	}
	if c.Output.Type == "" {
		c.Output.Type = OutputStdout
	}
	if c.Output.Type == OutputFile && c.Output.MaxSizeMB <= 0 {
		c.Output.MaxSizeMB = 100
	}
}

func isValidLevel(l Level) bool {
	switch l {
	case TraceLevel, DebugLevel, InfoLevel, WarnLevel, ErrorLevel, FatalLevel:
		return true
	}
	return false
}

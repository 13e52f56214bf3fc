// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package logrus

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/conf"
)

var levelMap = map[conf.Level]logrus.Level{
	conf.TraceLevel: logrus.TraceLevel,
	conf.DebugLevel: logrus.DebugLevel,
	conf.InfoLevel:  logrus.InfoLevel,
	conf.WarnLevel:  logrus.WarnLevel,
	conf.ErrorLevel: logrus.ErrorLevel,
	conf.FatalLevel: logrus.FatalLevel,
}

// LogrusWrapper adapts a logrus entry to the logger.Logger interface.
type LogrusWrapper struct {
	entry *logrus.Entry
}

func NewLogrusWrapper(cfg *conf.LogConfig) (logger.Logger, error) {
	if cfg == nil {
		cfg = conf.DefaultConfig()
	}
	cfg.Normalize()

	l := logrus.New()
	l.SetLevel(toLogrusLevel(cfg.Level))
	l.SetFormatter(buildFormatter(cfg.Formatter))
	l.SetOutput(buildOutput(&cfg.Output))

	return &LogrusWrapper{entry: logrus.NewEntry(l)}, nil
}

func toLogrusLevel(level conf.Level) logrus.Level {
	if lvl, ok := levelMap[level]; ok {
		return lvl
	}
	return logrus.InfoLevel
}

func buildFormatter(f conf.Formatter) logrus.Formatter {
	switch f {
	case conf.JSONFormater:
		return &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano}
	case conf.StructuredFormater:
		return &logrus.TextFormatter{
			FullTimestamp:    true,
			DisableColors:    true,
			QuoteEmptyFields: true,
		}
	default:
		return &logrus.TextFormatter{FullTimestamp: true}
	}
}

func buildOutput(out *conf.Output) io.Writer {
	if out.Type == conf.OutputFile && out.Path != "" {
		return &lumberjack.Logger{
			Filename:   out.Path,
			MaxSize:    out.MaxSizeMB,
			MaxBackups: out.MaxBackups,
			MaxAge:     out.MaxAgeDays,
			Compress:   out.Compress,
		}
	}
	return os.Stdout
}

func (w *LogrusWrapper) Log(level conf.Level, args ...interface{}) {
	w.entry.Log(toLogrusLevel(level), args...)
}

func (w *LogrusWrapper) Logf(level conf.Level, format string, args ...interface{}) {
	w.entry.Logf(toLogrusLevel(level), format, args...)
}

func (w *LogrusWrapper) Trace(args ...interface{}) { w.entry.Trace(args...) }
func (w *LogrusWrapper) Tracef(format string, args ...interface{}) {
	w.entry.Tracef(format, args...)
}
func (w *LogrusWrapper) Debug(args ...interface{}) { w.entry.Debug(args...) }
func (w *LogrusWrapper) Debugf(format string, args ...interface{}) {
	w.entry.Debugf(format, args...)
}
func (w *LogrusWrapper) Info(args ...interface{}) { w.entry.Info(args...) }
func (w *LogrusWrapper) Infof(format string, args ...interface{}) {
	w.entry.Infof(format, args...)
}
func (w *LogrusWrapper) Warn(args ...interface{}) { w.entry.Warn(args...) }
func (w *LogrusWrapper) Warnf(format string, args ...interface{}) {
	w.entry.Warnf(format, args...)
}
func (w *LogrusWrapper) Error(args ...interface{}) { w.entry.Error(args...) }
func (w *LogrusWrapper) Errorf(format string, args ...interface{}) {
	w.entry.Errorf(format, args...)
}

func (w *LogrusWrapper) Fatal(args ...interface{}) {
	w.entry.Log(logrus.FatalLevel, args...)
	os.Exit(1)
}

func (w *LogrusWrapper) Fatalf(format string, args ...interface{}) {
	w.entry.Logf(logrus.FatalLevel, format, args...)
	os.Exit(1)
}

func (w *LogrusWrapper) WithField(key string, value interface{}) logger.Logger {
	return &LogrusWrapper{entry: w.entry.WithField(key, value)}
}

func (w *LogrusWrapper) WithFields(fields map[string]interface{}) logger.Logger {
	return &LogrusWrapper{entry: w.entry.WithFields(fields)}
}

func (w *LogrusWrapper) WithError(err error) logger.Logger {
	return &LogrusWrapper{entry: w.entry.WithError(err)}
}

func (w *LogrusWrapper) WithContext(ctx context.Context) logger.Logger {
	if ctx == nil {
		return w
	}
	entry := w.entry.WithContext(ctx)
	if v := ctx.Value(logger.RequestIDKey); v != nil {
		entry = entry.WithField(logger.RequestIDKey, v)
	}
	return &LogrusWrapper{entry: entry}
}

// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package logger

import (
	"context"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/conf"
)

// RequestIDKey is the context key the HTTP layer stores the per-request id
// under; WithContext lifts it into a log field.
const RequestIDKey = "request_id"

// Logger is the minimal surface the rest of the codebase logs through.
// Implementations are immutable: the With* methods return derived loggers.
type Logger interface {
	Log(level conf.Level, args ...interface{})
	Logf(level conf.Level, format string, args ...interface{})

	Trace(args ...interface{})
	Tracef(format string, args ...interface{})
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})

	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger
	WithContext(ctx context.Context) Logger
}

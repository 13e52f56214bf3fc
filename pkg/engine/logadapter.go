// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package engine

import (
	"fmt"

	sdklog "go.temporal.io/sdk/log"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/log"
)

// logAdapter routes SDK-internal logging through the process logger.
type logAdapter struct{}

var _ sdklog.Logger = logAdapter{}

func (logAdapter) Debug(msg string, keyvals ...interface{}) { withKeyvals(keyvals).Debug(msg) }
func (logAdapter) Info(msg string, keyvals ...interface{})  { withKeyvals(keyvals).Info(msg) }
func (logAdapter) Warn(msg string, keyvals ...interface{})  { withKeyvals(keyvals).Warn(msg) }
func (logAdapter) Error(msg string, keyvals ...interface{}) { withKeyvals(keyvals).Error(msg) }

// withKeyvals folds the SDK's alternating key/value pairs into log fields.
// A trailing key without a value is dropped.
func withKeyvals(keyvals []interface{}) logger.Logger {
	base := log.GlobalLogger().WithField("component", "temporal")
	if len(keyvals) < 2 {
		return base
	}
	fields := make(map[string]interface{}, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprint(keyvals[i])
		}
		fields[key] = keyvals[i+1]
	}
	return base.WithFields(fields)
}

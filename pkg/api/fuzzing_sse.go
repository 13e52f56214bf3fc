// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/clientsets"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/log"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/progress"
)

// ssePollInterval is the cadence the SSE stream re-reads the run state
// on. SSE is the polling twin of the WebSocket stream: same payloads,
// simpler transport.
const ssePollInterval = 5 * time.Second

func streamFuzzingSSE(c *gin.Context) {
	runID := c.Param("run_id")
	store := clientsets.GetProgressStore()

	// Reject unknown runs before committing to the stream content type.
	if _, err := store.ReadStats(runID); err != nil {
		_ = c.Error(err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		log.Errorf("SSE stream for run %s: response writer does not support flushing", runID)
		return
	}

	// Watermark: crashes with a timestamp after the last emit are new.
	var watermark time.Time
	emit := func(ev progress.Event) bool {
		payload, err := json.Marshal(ev)
		if err != nil {
			log.Errorf("SSE marshal failed for run %s: %v", runID, err)
			return false
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	ticker := time.NewTicker(ssePollInterval)
	defer ticker.Stop()

	for {
		stats, err := store.ReadStats(runID)
		if err != nil {
			// Track purged mid-stream.
			return
		}
		if !emit(progress.Event{Type: progress.EventStatsUpdate, Data: *stats}) {
			return
		}
		crashes, err := store.ReadCrashes(runID)
		if err != nil {
			return
		}
		base := watermark
		for _, crash := range crashes {
			if !crash.Timestamp.After(base) {
				continue
			}
			if !emit(progress.Event{Type: progress.EventCrashReport, Data: crash}) {
				return
			}
			if crash.Timestamp.After(watermark) {
				watermark = crash.Timestamp
			}
		}

		select {
		case <-ticker.C:
		case <-c.Request.Context().Done():
			return
		}
	}
}

// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/clientsets"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/log"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/progress"
)

// wsHeartbeatInterval is how long the stream may stay silent before a
// heartbeat frame is pushed.
const wsHeartbeatInterval = 30 * time.Second

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// streamFuzzingWS upgrades the connection and forwards the run's progress
// events. On connect the current snapshot is pushed first, so a client
// joining mid-campaign starts from known state.
func streamFuzzingWS(c *gin.Context) {
	runID := c.Param("run_id")
	store := clientsets.GetProgressStore()

	// Subscribe before the upgrade: an unknown run is still a plain HTTP
	// error at this point.
	sub, err := store.Subscribe(runID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		store.Unsubscribe(runID, sub)
		log.Errorf("WebSocket upgrade failed for run %s: %v", runID, err)
		return
	}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			store.Unsubscribe(runID, sub)
			conn.Close()
			log.Debugf("WebSocket subscriber for run %s unregistered", runID)
		})
	}
	defer cleanup()

	// Writes come from this handler and from the ping-answering reader
	// goroutine; gorilla allows one concurrent writer only.
	var writeMu sync.Mutex
	writeJSON := func(v interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(v)
	}

	snapshot, err := store.ReadStats(runID)
	if err == nil {
		if err := writeJSON(progress.Event{Type: progress.EventStatsUpdate, Data: *snapshot}); err != nil {
			return
		}
	}

	// Reader goroutine: answers ping frames and detects disconnects.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			msgType, payload, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Debugf("WebSocket read ended for run %s: %v", runID, err)
				}
				return
			}
			if msgType == websocket.TextMessage && string(payload) == "ping" {
				writeMu.Lock()
				err := conn.WriteMessage(websocket.TextMessage, []byte("pong"))
				writeMu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()

	heartbeat := time.NewTimer(wsHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				// Track purged: tell the client and finish cleanly.
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run purged"),
					time.Now().Add(time.Second))
				return
			}
			if err := writeJSON(ev); err != nil {
				return
			}
			resetTimer(heartbeat, wsHeartbeatInterval)
		case <-heartbeat.C:
			if err := writeJSON(progress.Event{Type: progress.EventHeartbeat}); err != nil {
				return
			}
			heartbeat.Reset(wsHeartbeatInterval)
		case <-readerDone:
			return
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

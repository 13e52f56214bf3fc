// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/errors"
)

// MessageInitializing is the body message engine-gated endpoints answer with
// while bootstrap has not reached ready. Clients poll on it, so it is part of
// the wire contract.
const MessageInitializing = "Temporal connection is still initializing, please retry shortly"

// ErrorBody is the inner object of the error envelope. Type is one of the
// closed error kinds; suggestions are rendered verbatim by CLI clients.
type ErrorBody struct {
	Type         string   `json:"type"`
	Message      string   `json:"message"`
	Timestamp    string   `json:"timestamp"`
	WorkflowName string   `json:"workflow_name,omitempty"`
	RunID        string   `json:"run_id,omitempty"`
	Container    string   `json:"container,omitempty"`
	Deployment   string   `json:"deployment,omitempty"`
	Suggestions  []string `json:"suggestions"`
}

// ErrorEnvelope is the body of every non-2xx response.
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// NotReadyResp is the 200 body engine-gated endpoints return instead of a
// 5xx while the engine connection is still coming up.
type NotReadyResp struct {
	Temporal interface{} `json:"temporal"`
	Message  string      `json:"message"`
}

func NewErrorEnvelope(err *errors.Error) ErrorEnvelope {
	return ErrorEnvelope{
		Error: ErrorBody{
			Type:         string(err.Kind),
			Message:      err.Message,
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
			WorkflowName: err.WorkflowName,
			RunID:        err.RunID,
			Container:    err.Container,
			Deployment:   err.Deployment,
			Suggestions:  err.EffectiveSuggestions(),
		},
	}
}

func NewNotReadyResp(snapshot interface{}) NotReadyResp {
	return NotReadyResp{
		Temporal: snapshot,
		Message:  MessageInitializing,
	}
}

// ParseErrorEnvelope reads a response body and extracts the envelope, if the
// body is one. Used by client-side tooling (workerctl).
func ParseErrorEnvelope(bodyReader io.Reader) (*ErrorBody, bool) {
	buffer := &bytes.Buffer{}
	if _, err := buffer.ReadFrom(bodyReader); err != nil {
		return nil, false
	}
	envelope := &ErrorEnvelope{}
	if err := json.Unmarshal(buffer.Bytes(), envelope); err != nil {
		return nil, false
	}
	if envelope.Error.Type == "" {
		return nil, false
	}
	return &envelope.Error, true
}

// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

// Package submission binds an uploaded target to a workflow run: storage
// upload, parameter resolution, engine dispatch, and progress-track
// initialisation for fuzzing workflows.
package submission

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/engine"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/errors"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/log"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/metrics"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/progress"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/registry"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/storage"
)

var submissions = metrics.NewCounterVec("submissions", "workflow submissions by outcome", []string{"workflow", "outcome"})

// Pipeline wires the collaborators a submission crosses. All fields are
// required.
type Pipeline struct {
	reg      *registry.Registry
	store    storage.ObjectStore
	eng      engine.Client
	progress *progress.Store
	maxBytes int64
}

// NewPipeline builds the submission pipeline. maxBytes caps the streamed
// upload size.
func NewPipeline(reg *registry.Registry, store storage.ObjectStore, eng engine.Client, prog *progress.Store, maxBytes int64) *Pipeline {
	return &Pipeline{
		reg:      reg,
		store:    store,
		eng:      eng,
		progress: prog,
		maxBytes: maxBytes,
	}
}

// Response is the submission result returned to the client.
type Response struct {
	RunID        string `json:"run_id"`
	Status       string `json:"status"`
	WorkflowName string `json:"workflow_name"`
	Message      string `json:"message"`
	Deprecated   bool   `json:"deprecated,omitempty"`
}

// UploadRequest is a multipart upload-and-submit submission.
type UploadRequest struct {
	WorkflowName     string
	Body             io.Reader
	OriginalFilename string
	// ParamsJSON is the raw "parameters" form field; empty means no
	// user overrides.
	ParamsJSON string
	Timeout    time.Duration
}

// PathRequest is a legacy server-local-path submission.
type PathRequest struct {
	WorkflowName string
	TargetPath   string
	Params       map[string]interface{}
	Timeout      time.Duration
}

// SubmitUpload runs the whole upload-and-submit flow and returns the new
// run id. The streamed body is spooled to a temp file which is always
// removed before returning.
func (p *Pipeline) SubmitUpload(ctx context.Context, req *UploadRequest) (*Response, error) {
	def, err := p.lookup(req.WorkflowName)
	if err != nil {
		return nil, p.reject(req.WorkflowName, err)
	}

	// Parse parameters before spooling: a malformed request should not
	// cost a 10 GiB copy.
	userParams, err := ParseParams(req.ParamsJSON)
	if err != nil {
		return nil, p.reject(req.WorkflowName, err)
	}

	tmpPath, size, err := SpoolToTemp(req.Body, p.maxBytes)
	if err != nil {
		return nil, p.reject(req.WorkflowName, err)
	}
	defer os.Remove(tmpPath)
	log.Infof("Spooled %d byte upload for workflow %s", size, req.WorkflowName)

	targetID, err := p.store.UploadTarget(ctx, &storage.UploadTargetRequest{
		LocalPath:        tmpPath,
		Owner:            "api",
		Workflow:         req.WorkflowName,
		OriginalFilename: req.OriginalFilename,
		UploadMethod:     "multipart",
	})
	if err != nil {
		return nil, p.reject(req.WorkflowName, err)
	}

	resp, err := p.start(ctx, def, targetID, userParams, req.Timeout)
	if err != nil {
		return nil, p.reject(req.WorkflowName, err)
	}
	return resp, nil
}

// SubmitPath is the deprecated path-based submission kept for co-located
// clients. The response is flagged deprecated; remote clients should use
// SubmitUpload.
func (p *Pipeline) SubmitPath(ctx context.Context, req *PathRequest) (*Response, error) {
	def, err := p.lookup(req.WorkflowName)
	if err != nil {
		return nil, p.reject(req.WorkflowName, err)
	}

	info, err := os.Stat(req.TargetPath)
	if err != nil {
		return nil, p.reject(req.WorkflowName, errors.Wrap(err, errors.KindVolumeError,
			fmt.Sprintf("target path %s is not accessible on the server", req.TargetPath)))
	}
	if info.IsDir() {
		return nil, p.reject(req.WorkflowName, errors.Newf(errors.KindVolumeError,
			"target path %s is a directory, expected a tarball", req.TargetPath))
	}

	targetID, err := p.store.UploadTarget(ctx, &storage.UploadTargetRequest{
		LocalPath:        req.TargetPath,
		Owner:            "api",
		Workflow:         req.WorkflowName,
		OriginalFilename: req.TargetPath,
		UploadMethod:     "path",
	})
	if err != nil {
		return nil, p.reject(req.WorkflowName, err)
	}

	resp, err := p.start(ctx, def, targetID, req.Params, req.Timeout)
	if err != nil {
		return nil, p.reject(req.WorkflowName, err)
	}
	resp.Deprecated = true
	resp.Message = "path-based submission is deprecated, use upload-and-submit"
	return resp, nil
}

// start resolves parameters, dispatches the run and initialises the
// progress track for fuzzing workflows.
func (p *Pipeline) start(ctx context.Context, def *registry.WorkflowDefinition, targetID string, userParams map[string]interface{}, timeout time.Duration) (*Response, error) {
	if def.Vertical == "" {
		return nil, errors.Newf(errors.KindMissingVertical,
			"workflow %s has no vertical configured", def.Name).WithWorkflow(def.Name)
	}

	params := def.EffectiveDefaults()
	for k, v := range userParams {
		params[k] = v
	}
	if err := def.ParametersSchema.ValidateParams(params); err != nil {
		return nil, errors.Wrap(err, errors.KindValidationError, "parameter validation failed").
			WithWorkflow(def.Name)
	}

	runID := NewRunID(def.Name)
	args := engine.BuildArgs(targetID, def.ParametersSchema, params)

	_, err := p.eng.Start(ctx, &engine.StartRequest{
		EntryType: def.EntryType,
		Args:      args,
		RunID:     runID,
		TaskQueue: def.TaskQueue(),
		Timeout:   timeout,
	})
	if err != nil {
		return nil, err
	}

	if def.IsFuzzing() {
		p.progress.Init(runID, def.Name)
	}

	submissions.Inc(def.Name, "ok")
	log.Infof("Submitted run %s (workflow=%s, queue=%s, target=%s)",
		runID, def.Name, def.TaskQueue(), targetID)
	return &Response{
		RunID:        runID,
		Status:       string(engine.StatusRunning),
		WorkflowName: def.Name,
		Message:      fmt.Sprintf("workflow %s started", def.Name),
	}, nil
}

func (p *Pipeline) lookup(name string) (*registry.WorkflowDefinition, error) {
	def, ok := p.reg.Get(name)
	if ok {
		return def, nil
	}
	names := p.reg.Names()
	hint := "Available workflows: none registered yet"
	if len(names) > 0 {
		hint = "Available workflows: " + strings.Join(names, ", ")
	}
	return nil, errors.Newf(errors.KindWorkflowNotFound, "unknown workflow %q", name).
		WithWorkflow(name).
		WithSuggestions(hint, "GET /workflows/ lists the registered workflows")
}

func (p *Pipeline) reject(workflow string, err error) error {
	submissions.Inc(workflow, string(errors.KindOf(err)))
	return err
}

// ParseParams decodes the user-supplied parameters JSON. The root must be
// an object; an empty string means no overrides.
func ParseParams(raw string) (map[string]interface{}, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]interface{}{}, nil
	}
	params := map[string]interface{}{}
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, errors.Wrap(err, errors.KindInvalidParameters,
			"parameters must be a JSON object")
	}
	return params, nil
}

// NewRunID builds `<workflow>-<8 hex>` with a random suffix, so repeated
// submissions of the same workflow never collide.
func NewRunID(workflowName string) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return workflowName + "-" + suffix
}

// WorkflowFromRunID recovers the workflow name embedded in a run id:
// everything before the last dash.
func WorkflowFromRunID(runID string) string {
	if i := strings.LastIndex(runID, "-"); i > 0 {
		return runID[:i]
	}
	return runID
}

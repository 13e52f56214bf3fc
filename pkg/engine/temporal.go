// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package engine

import (
	"context"
	stderrors "errors"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/config"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/errors"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/log"
)

const defaultListLimit = 100

// submissionRetryPolicy is attached to every run at submission time.
var submissionRetryPolicy = &temporal.RetryPolicy{
	InitialInterval:    time.Second,
	BackoffCoefficient: 2,
	MaximumInterval:    time.Minute,
	MaximumAttempts:    3,
}

// TemporalClient implements Client on the Temporal Go SDK. Run ids are
// used verbatim as Temporal workflow ids, so every call passes an empty
// engine-internal run id and resolves the latest attempt.
type TemporalClient struct {
	cli client.Client
}

var _ Client = (*TemporalClient)(nil)

// NewTemporalClient dials lazily: construction always succeeds and the
// first RPC establishes the connection. Process start therefore does not
// depend on engine availability; the bootstrap loop owns that wait.
func NewTemporalClient(cfg config.TemporalConfig) (*TemporalClient, error) {
	cli, err := client.NewLazyClient(client.Options{
		HostPort:  cfg.GetAddress(),
		Namespace: cfg.GetNamespace(),
		Logger:    logAdapter{},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.KindEngineUnavailable, "create engine client")
	}
	log.Infof("Initialized engine client: address=%s, namespace=%s", cfg.GetAddress(), cfg.GetNamespace())
	return &TemporalClient{cli: cli}, nil
}

func (t *TemporalClient) Start(ctx context.Context, req *StartRequest) (*RunHandle, error) {
	opts := client.StartWorkflowOptions{
		ID:          req.RunID,
		TaskQueue:   req.TaskQueue,
		RetryPolicy: submissionRetryPolicy,
	}
	if req.Timeout > 0 {
		opts.WorkflowExecutionTimeout = req.Timeout
	}
	run, err := t.cli.ExecuteWorkflow(ctx, opts, req.EntryType, req.Args...)
	if err != nil {
		return nil, classifyEngineError(err, errors.KindWorkflowSubmissionError, "start run").WithRunID(req.RunID)
	}
	log.Infof("Started run %s: entry=%s, queue=%s", run.GetID(), req.EntryType, req.TaskQueue)
	return &RunHandle{RunID: run.GetID(), EngineRunID: run.GetRunID()}, nil
}

func (t *TemporalClient) Describe(ctx context.Context, runID string) (*RunDescription, error) {
	resp, err := t.cli.DescribeWorkflowExecution(ctx, runID, "")
	if err != nil {
		return nil, classifyEngineError(err, errors.KindWorkflowError, "describe run").WithRunID(runID)
	}
	info := resp.GetWorkflowExecutionInfo()
	return &RunDescription{
		RunID:         runID,
		Status:        statusFromProto(info.GetStatus()),
		TaskQueue:     info.GetTaskQueue(),
		StartTime:     protoTime(info.GetStartTime()),
		CloseTime:     protoTime(info.GetCloseTime()),
		ExecutionTime: protoTime(info.GetExecutionTime()),
	}, nil
}

func (t *TemporalClient) Result(ctx context.Context, runID string, timeout time.Duration) (interface{}, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	var result interface{}
	if err := t.cli.GetWorkflow(ctx, runID, "").Get(ctx, &result); err != nil {
		return nil, classifyEngineError(err, errors.KindWorkflowError, "fetch run result").WithRunID(runID)
	}
	return result, nil
}

func (t *TemporalClient) Cancel(ctx context.Context, runID string) error {
	if err := t.cli.CancelWorkflow(ctx, runID, ""); err != nil {
		return classifyEngineError(err, errors.KindWorkflowError, "cancel run").WithRunID(runID)
	}
	log.Infof("Requested cancellation of run %s", runID)
	return nil
}

func (t *TemporalClient) List(ctx context.Context, query string, limit int) ([]*RunSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	resp, err := t.cli.ListWorkflow(ctx, &workflowservice.ListWorkflowExecutionsRequest{
		Query:    query,
		PageSize: int32(limit),
	})
	if err != nil {
		return nil, classifyEngineError(err, errors.KindWorkflowError, "list runs")
	}
	summaries := make([]*RunSummary, 0, len(resp.GetExecutions()))
	for _, info := range resp.GetExecutions() {
		summaries = append(summaries, &RunSummary{
			RunID:        info.GetExecution().GetWorkflowId(),
			WorkflowType: info.GetType().GetName(),
			Status:       statusFromProto(info.GetStatus()),
			StartTime:    protoTime(info.GetStartTime()),
			CloseTime:    protoTime(info.GetCloseTime()),
		})
	}
	return summaries, nil
}

func (t *TemporalClient) CheckHealth(ctx context.Context) error {
	if _, err := t.cli.CheckHealth(ctx, &client.CheckHealthRequest{}); err != nil {
		return errors.Wrap(err, errors.KindEngineUnavailable, "engine health check failed")
	}
	return nil
}

func (t *TemporalClient) Close() {
	t.cli.Close()
}

// SDK exposes the underlying Temporal client for worker registration.
func (t *TemporalClient) SDK() client.Client {
	return t.cli
}

// statusFromProto collapses Temporal's execution statuses onto the API
// vocabulary. Continued-as-new chains count as still running.
func statusFromProto(status enumspb.WorkflowExecutionStatus) RunStatus {
	switch status {
	case enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING,
		enumspb.WORKFLOW_EXECUTION_STATUS_CONTINUED_AS_NEW:
		return StatusRunning
	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		return StatusCompleted
	case enumspb.WORKFLOW_EXECUTION_STATUS_FAILED,
		enumspb.WORKFLOW_EXECUTION_STATUS_TIMED_OUT:
		return StatusFailed
	case enumspb.WORKFLOW_EXECUTION_STATUS_CANCELED,
		enumspb.WORKFLOW_EXECUTION_STATUS_TERMINATED:
		return StatusCancelled
	}
	return StatusUnknown
}

func protoTime(ts *timestamppb.Timestamp) *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.AsTime()
	return &t
}

// classifyEngineError maps SDK errors onto typed kinds: unknown run ids
// become NotFound, connectivity failures EngineUnavailable, everything
// else the caller's fallback kind.
func classifyEngineError(err error, fallback errors.Kind, msg string) *errors.Error {
	var notFound *serviceerror.NotFound
	if stderrors.As(err, &notFound) {
		return errors.Wrap(err, errors.KindNotFound, msg)
	}
	var unavailable *serviceerror.Unavailable
	if stderrors.As(err, &unavailable) {
		return errors.Wrap(err, errors.KindEngineUnavailable, msg)
	}
	return errors.Wrap(err, fallback, msg)
}

// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/bootstrap"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/clientsets"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/errors"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/model/rest"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/registry"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/submission"
)

// workflowSummary is one row of the workflow listing.
type workflowSummary struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Vertical    string   `json:"vertical"`
	Tags        []string `json:"tags"`
}

type listWorkflowsResp struct {
	Workflows []workflowSummary   `json:"workflows"`
	Temporal  *bootstrap.Snapshot `json:"temporal"`
	Message   string              `json:"message,omitempty"`
}

func listWorkflows(c *gin.Context) {
	boot := clientsets.GetBootstrap()
	if !boot.IsReady() {
		c.JSON(http.StatusOK, listWorkflowsResp{
			Workflows: []workflowSummary{},
			Temporal:  boot.Snapshot(),
			Message:   rest.MessageInitializing,
		})
		return
	}

	defs := clientsets.GetRegistry().List()
	summaries := make([]workflowSummary, 0, len(defs))
	for _, def := range defs {
		summaries = append(summaries, workflowSummary{
			Name:        def.Name,
			Version:     def.Version,
			Description: def.Description,
			Vertical:    def.Vertical,
			Tags:        def.Tags,
		})
	}
	c.JSON(http.StatusOK, listWorkflowsResp{
		Workflows: summaries,
		Temporal:  boot.Snapshot(),
	})
}

func getMetadataSchema(c *gin.Context) {
	c.JSON(http.StatusOK, registry.MetadataSchema())
}

// lookupWorkflow resolves the :name parameter or attaches the structured
// not-found error.
func lookupWorkflow(c *gin.Context) (*registry.WorkflowDefinition, bool) {
	name := c.Param("name")
	def, ok := clientsets.GetRegistry().Get(name)
	if !ok {
		names := clientsets.GetRegistry().Names()
		hint := "Available workflows: none registered yet"
		if len(names) > 0 {
			hint = "Available workflows: " + strings.Join(names, ", ")
		}
		_ = c.Error(errors.Newf(errors.KindWorkflowNotFound, "unknown workflow %q", name).
			WithWorkflow(name).
			WithSuggestions(hint, "GET /workflows/ lists the registered workflows"))
		return nil, false
	}
	return def, true
}

func getWorkflowMetadata(c *gin.Context) {
	if notReady(c) {
		return
	}
	def, ok := lookupWorkflow(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, def)
}

type workflowParametersResp struct {
	WorkflowName string                     `json:"workflow_name"`
	Schema       *registry.ParametersSchema `json:"parameters_schema"`
	Defaults     map[string]interface{}     `json:"defaults"`
	Required     []string                   `json:"required"`
}

func getWorkflowParameters(c *gin.Context) {
	if notReady(c) {
		return
	}
	def, ok := lookupWorkflow(c)
	if !ok {
		return
	}
	resp := workflowParametersResp{
		WorkflowName: def.Name,
		Schema:       def.ParametersSchema,
		Defaults:     def.EffectiveDefaults(),
		Required:     []string{},
	}
	if def.ParametersSchema != nil && def.ParametersSchema.Required != nil {
		resp.Required = def.ParametersSchema.Required
	}
	c.JSON(http.StatusOK, resp)
}

type workerInfoResp struct {
	Vertical      string `json:"vertical"`
	WorkerService string `json:"worker_service"`
	TaskQueue     string `json:"task_queue"`
	Required      bool   `json:"required"`
}

func getWorkerInfo(c *gin.Context) {
	if notReady(c) {
		return
	}
	def, ok := lookupWorkflow(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, workerInfoResp{
		Vertical:      def.Vertical,
		WorkerService: "worker-" + def.Vertical,
		TaskQueue:     def.TaskQueue(),
		Required:      true,
	})
}

// submitPathReq is the body of the deprecated server-local-path submit.
type submitPathReq struct {
	TargetPath string                 `json:"target_path" binding:"required"`
	Parameters map[string]interface{} `json:"parameters"`
	Timeout    float64                `json:"timeout"`
}

func submitPath(c *gin.Context) {
	if notReady(c) {
		return
	}
	req := &submitPathReq{}
	if err := c.ShouldBindJSON(req); err != nil {
		_ = c.Error(errors.Wrap(err, errors.KindValidationError, "invalid submit body"))
		return
	}
	resp, err := clientsets.GetPipeline().SubmitPath(c.Request.Context(), &submission.PathRequest{
		WorkflowName: c.Param("name"),
		TargetPath:   req.TargetPath,
		Params:       req.Parameters,
		Timeout:      time.Duration(req.Timeout * float64(time.Second)),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func uploadAndSubmit(c *gin.Context) {
	if notReady(c) {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		_ = c.Error(errors.Wrap(err, errors.KindValidationError,
			"multipart field \"file\" is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		_ = c.Error(errors.Wrap(err, errors.KindValidationError, "cannot read uploaded file"))
		return
	}
	defer file.Close()

	var timeout time.Duration
	if raw := c.PostForm("timeout"); raw != "" {
		seconds, err := parseTimeoutSeconds(raw)
		if err != nil {
			_ = c.Error(err)
			return
		}
		timeout = seconds
	}

	resp, err := clientsets.GetPipeline().SubmitUpload(c.Request.Context(), &submission.UploadRequest{
		WorkflowName:     c.Param("name"),
		Body:             file,
		OriginalFilename: fileHeader.Filename,
		ParamsJSON:       c.PostForm("parameters"),
		Timeout:          timeout,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

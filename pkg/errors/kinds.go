// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package errors

import "net/http"

// Kind names a failure class. The set is closed: clients switch on these
// strings, so new kinds are an API change.
type Kind string

const (
	KindWorkflowNotFound        Kind = "WorkflowNotFound"
	KindMissingVertical         Kind = "MissingVertical"
	KindValidationError         Kind = "ValidationError"
	KindInvalidParameters       Kind = "InvalidParameters"
	KindFileTooLarge            Kind = "FileTooLarge"
	KindVolumeError             Kind = "VolumeError"
	KindImageError              Kind = "ImageError"
	KindResourceError           Kind = "ResourceError"
	KindWorkflowError           Kind = "WorkflowError"
	KindWorkflowSubmissionError Kind = "WorkflowSubmissionError"
	KindEngineUnavailable       Kind = "EngineUnavailable"
	KindStorageError            Kind = "StorageError"
	KindNotFound                Kind = "NotFound"
)

var kindStatus = map[Kind]int{
	KindWorkflowNotFound:        http.StatusNotFound,
	KindMissingVertical:         http.StatusInternalServerError,
	KindValidationError:         http.StatusBadRequest,
	KindInvalidParameters:       http.StatusBadRequest,
	KindFileTooLarge:            http.StatusRequestEntityTooLarge,
	KindVolumeError:             http.StatusBadRequest,
	KindImageError:              http.StatusInternalServerError,
	KindResourceError:           http.StatusInternalServerError,
	KindWorkflowError:           http.StatusInternalServerError,
	KindWorkflowSubmissionError: http.StatusInternalServerError,
	KindEngineUnavailable:       http.StatusServiceUnavailable,
	KindStorageError:            http.StatusInternalServerError,
	KindNotFound:                http.StatusNotFound,
}

// HTTPStatus maps the kind onto the status code the envelope is sent with.
func (k Kind) HTTPStatus() int {
	if status, ok := kindStatus[k]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func defaultSuggestions(kind Kind) []string {
	switch kind {
	case KindWorkflowNotFound:
		return []string{
			"Check the workflow name for typos",
			"GET /workflows/ lists the currently registered workflows",
		}
	case KindMissingVertical:
		return []string{
			"The workflow's metadata.yaml must declare a vertical",
			"Re-run discovery after fixing the metadata",
		}
	case KindValidationError:
		return []string{
			"Compare the parameter values against GET /workflows/{name}/parameters",
		}
	case KindInvalidParameters:
		return []string{
			"Parameters must be a JSON object, e.g. {\"scan_mode\": \"detect\"}",
		}
	case KindFileTooLarge:
		return []string{
			"Reduce the target size or split it into several uploads",
			"Strip build artifacts and VCS history from the tarball",
		}
	case KindVolumeError:
		return []string{
			"The target path must exist and be readable by the server process",
			"Prefer POST /workflows/{name}/upload-and-submit for remote clients",
		}
	case KindImageError:
		return []string{
			"Build the worker image for this vertical before submitting",
			"crashwise-workerctl start <vertical> rebuilds the worker image",
		}
	case KindResourceError:
		return []string{
			"Free memory or CPU on the worker host and retry",
		}
	case KindEngineUnavailable:
		return []string{
			"The workflow engine is still initialising; retry shortly",
			"Verify TEMPORAL_ADDRESS is reachable from the server",
		}
	case KindStorageError:
		return []string{
			"Verify S3_ENDPOINT, credentials and bucket permissions",
		}
	case KindNotFound:
		return []string{
			"Check the identifier; the resource may have been cleaned up",
		}
	default:
		return []string{
			"Retry the submission; if it keeps failing check the server logs",
		}
	}
}

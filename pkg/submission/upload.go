// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package submission

import (
	"io"
	"os"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/errors"
)

// SpoolToTemp streams the upload body into a temporary file, enforcing the
// size cap as bytes arrive. The temp file is removed on every failure
// path; on success the caller owns it and removes it after the object
// store upload.
func SpoolToTemp(body io.Reader, maxBytes int64) (path string, size int64, err error) {
	tmp, err := os.CreateTemp("", "crashwise-upload-*.tar.gz")
	if err != nil {
		return "", 0, errors.Wrap(err, errors.KindStorageError, "create temp file for upload")
	}
	tmpName := tmp.Name()
	defer func() {
		closeErr := tmp.Close()
		if err == nil && closeErr != nil {
			err = errors.Wrap(closeErr, errors.KindStorageError, "flush uploaded file")
		}
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	// Copy one byte past the cap: landing there means the stream was
	// larger than allowed.
	size, err = io.Copy(tmp, io.LimitReader(body, maxBytes+1))
	if err != nil {
		return "", 0, errors.Wrap(err, errors.KindWorkflowSubmissionError, "read upload stream")
	}
	if size > maxBytes {
		return "", 0, errors.Newf(errors.KindFileTooLarge,
			"upload exceeds the %d byte limit", maxBytes)
	}
	return tmpName, size, nil
}

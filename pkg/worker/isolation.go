// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package worker

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"
)

// IsolationMode controls how a run's workspace relates to the shared
// download cache.
type IsolationMode string

const (
	// IsolationShared hands every run the same cached blob. Read-only
	// workflows use this.
	IsolationShared IsolationMode = "shared"

	// IsolationIsolated gives each run its own workspace copy. Required
	// for write-heavy workflows that mutate the target in place.
	IsolationIsolated IsolationMode = "isolated"

	// IsolationCopyOnWrite shares the download but copies into a per-run
	// workspace before handing the path to the workflow.
	IsolationCopyOnWrite IsolationMode = "copy-on-write"
)

// ParseIsolationMode maps the wire string onto a mode. The empty string
// means shared.
func ParseIsolationMode(s string) (IsolationMode, error) {
	switch IsolationMode(s) {
	case "", IsolationShared:
		return IsolationShared, nil
	case IsolationIsolated:
		return IsolationIsolated, nil
	case IsolationCopyOnWrite:
		return IsolationCopyOnWrite, nil
	}
	return "", fmt.Errorf("unknown isolation mode %q", s)
}

// copyFile duplicates src at dst, creating parent directories and
// preserving the source's permission bits.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return pkgerrors.Wrapf(err, "open %s", src)
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return pkgerrors.Wrapf(err, "stat %s", src)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return pkgerrors.Wrapf(err, "create dir for %s", dst)
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return pkgerrors.Wrapf(err, "create %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return pkgerrors.Wrapf(err, "copy %s to %s", src, dst)
	}
	return out.Close()
}

// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

//go:build !linux

package storage

import (
	"os"
	"time"
)

// Touch sets both atime and mtime, so the modification time is an
// equivalent recency signal where stat access fields are not portable.
func fileAtime(fi os.FileInfo) time.Time {
	return fi.ModTime()
}

// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

// Package version carries the build identity stamped in by the linker.
package version

var (
	// Version is the semantic release version, overridden at build time
	// with -ldflags "-X .../pkg/version.Version=v1.2.3".
	Version = "dev"
	// GitCommit is the short commit hash of the build.
	GitCommit = "unknown"
)

// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

// Package project locates the Arbor project root on disk.
//
// The root is identified by a marker file (the project Makefile by
// convention). Discovery walks upward from the working directory until
// the marker is found or the filesystem root is reached. The result is
// never cached: the supervisor may be launched from different
// directories across runs, and every stack operation recomputes the
// root so it always reflects the process's actual working directory.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultMarker is the marker filename identifying the project root.
const DefaultMarker = "Makefile"

// ErrRootNotFound is returned when no ancestor directory contains the
// marker file.
var ErrRootNotFound = errors.New("project root not found")

// Find walks upward from the current working directory and returns the
// first ancestor (including the working directory itself) containing
// the marker file. It returns ErrRootNotFound if the filesystem root is
// reached without finding the marker.
func Find(marker string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return FindFrom(wd, marker)
}

// FindFrom is Find starting at an explicit directory. Exposed for
// callers and tests that work against a known starting point.
func FindFrom(dir, marker string) (string, error) {
	if marker == "" {
		marker = DefaultMarker
	}

	dir = filepath.Clean(dir)
	for {
		info, err := os.Stat(filepath.Join(dir, marker))
		if err == nil && !info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: no %s in any ancestor directory", ErrRootNotFound, marker)
		}
		dir = parent
	}
}

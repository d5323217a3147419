// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package release

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"release-manager/internal/logger"
)

// CleanReport lists what clean mode removed and what it could not.
type CleanReport struct {
	Removed  []string
	Problems []error
}

// Clean removes the generated artifact directories matching targets under
// workDir. It never fails: problems are collected in the report. Targets that
// resolve outside workDir are refused.
func Clean(workDir string, targets []string) CleanReport {
	var report CleanReport
	root, err := filepath.Abs(workDir)
	if err != nil {
		report.Problems = append(report.Problems, fmt.Errorf("resolving %s: %w", workDir, err))
		return report
	}

	seen := make(map[string]bool)
	for _, target := range targets {
		matches, err := filepath.Glob(filepath.Join(root, target))
		if err != nil {
			report.Problems = append(report.Problems, fmt.Errorf("clean target %q: %w", target, err))
			continue
		}
		sort.Strings(matches)
		for _, match := range matches {
			if seen[match] {
				continue
			}
			seen[match] = true

			rel, err := filepath.Rel(root, match)
			if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				report.Problems = append(report.Problems, fmt.Errorf("refusing to remove %s outside %s", match, root))
				continue
			}
			if err := os.RemoveAll(match); err != nil {
				report.Problems = append(report.Problems, fmt.Errorf("removing %s: %w", rel, err))
				continue
			}
			logger.Info("removed build artifact", "path", rel)
			report.Removed = append(report.Removed, rel)
		}
	}

	for _, p := range report.Problems {
		logger.Warn("clean problem", "error", p)
	}
	return report
}

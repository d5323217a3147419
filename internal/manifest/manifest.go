// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package manifest rewrites the version declaration of a packaging manifest.
// The manifest is treated as plain text: only the quoted value on the single
// `version = "..."` line changes.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"regexp"
)

var (
	// ErrNoVersionLine is returned when no version declaration is present.
	ErrNoVersionLine = errors.New("no version declaration found")
	// ErrAmbiguousVersion is returned when more than one line declares a version.
	ErrAmbiguousVersion = errors.New("multiple version declarations found")
)

// versionLine captures the prefix up to the opening quote, the value and the
// closing quote of a `version = "..."` line.
var versionLine = regexp.MustCompile(`(?m)^([ \t]*version[ \t]*=[ \t]*")([^"\r\n]*)(")`)

// CurrentVersion returns the version declared in content.
func CurrentVersion(content []byte) (string, error) {
	matches := versionLine.FindAllSubmatch(content, -1)
	switch len(matches) {
	case 0:
		return "", ErrNoVersionLine
	case 1:
		return string(matches[0][2]), nil
	default:
		return "", fmt.Errorf("%w (%d lines)", ErrAmbiguousVersion, len(matches))
	}
}

// SetVersion returns content with the declared version replaced by version.
// All other bytes are preserved.
func SetVersion(content []byte, version string) ([]byte, error) {
	locs := versionLine.FindAllSubmatchIndex(content, -1)
	switch {
	case len(locs) == 0:
		return nil, ErrNoVersionLine
	case len(locs) > 1:
		return nil, fmt.Errorf("%w (%d lines)", ErrAmbiguousVersion, len(locs))
	}

	// locs[0][4]:locs[0][5] is the value group.
	start, end := locs[0][4], locs[0][5]
	out := make([]byte, 0, len(content)-(end-start)+len(version))
	out = append(out, content[:start]...)
	out = append(out, version...)
	out = append(out, content[end:]...)
	return out, nil
}

// ReadVersion reads path and returns its declared version.
func ReadVersion(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading manifest %s: %w", path, err)
	}
	v, err := CurrentVersion(data)
	if err != nil {
		return "", fmt.Errorf("manifest %s: %w", path, err)
	}
	return v, nil
}

// UpdateFile rewrites the version declaration in path, keeping its file mode.
// It returns the previous version. The file is left untouched on error.
func UpdateFile(path, version string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("reading manifest %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading manifest %s: %w", path, err)
	}

	previous, err := CurrentVersion(data)
	if err != nil {
		return "", fmt.Errorf("manifest %s: %w", path, err)
	}
	updated, err := SetVersion(data, version)
	if err != nil {
		return "", fmt.Errorf("manifest %s: %w", path, err)
	}

	if err := os.WriteFile(path, updated, info.Mode().Perm()); err != nil {
		return "", fmt.Errorf("writing manifest %s: %w", path, err)
	}
	return previous, nil
}

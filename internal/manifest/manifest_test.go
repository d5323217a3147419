// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pyproject = `[project]
name = "updr"
version = "0.1.0"
description = "Upgrade direct dependencies"
dependencies = ["toml>=0.10"]

[tool.setuptools]
packages = ["updr"]
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pyproject.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSetVersionReplacesOnlyValue(t *testing.T) {
	got, err := SetVersion([]byte(pyproject), "9.9.9")
	require.NoError(t, err)

	want := `[project]
name = "updr"
version = "9.9.9"
description = "Upgrade direct dependencies"
dependencies = ["toml>=0.10"]

[tool.setuptools]
packages = ["updr"]
`
	assert.Equal(t, want, string(got))
}

func TestSetVersionPreservesSpacingAndLineEndings(t *testing.T) {
	in := "name = \"x\"\r\n  version   =\t\"1.0\"  # pinned\r\nother = 1\r\n"
	got, err := SetVersion([]byte(in), "2.0")
	require.NoError(t, err)
	assert.Equal(t, "name = \"x\"\r\n  version   =\t\"2.0\"  # pinned\r\nother = 1\r\n", string(got))
}

func TestSetVersionIgnoresSimilarKeys(t *testing.T) {
	in := "python_version = \"3.11\"\nversion = \"1.0\"\nversion_scheme = \"pep440\"\n"
	got, err := SetVersion([]byte(in), "1.1")
	require.NoError(t, err)
	assert.Equal(t, "python_version = \"3.11\"\nversion = \"1.1\"\nversion_scheme = \"pep440\"\n", string(got))
}

func TestSetVersionErrors(t *testing.T) {
	_, err := SetVersion([]byte("name = \"x\"\n"), "1.0")
	assert.ErrorIs(t, err, ErrNoVersionLine)

	_, err = SetVersion([]byte("version = \"1\"\nversion = \"2\"\n"), "3")
	assert.ErrorIs(t, err, ErrAmbiguousVersion)
}

func TestCurrentVersion(t *testing.T) {
	v, err := CurrentVersion([]byte(pyproject))
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", v)
}

func TestUpdateFile(t *testing.T) {
	path := writeManifest(t, pyproject)

	previous, err := UpdateFile(path, "9.9.9")
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", previous)

	v, err := ReadVersion(path)
	require.NoError(t, err)
	assert.Equal(t, "9.9.9", v)
}

func TestUpdateFileLeavesFileUnchangedWithoutVersionLine(t *testing.T) {
	content := "[project]\nname = \"updr\"\n"
	path := writeManifest(t, content)

	_, err := UpdateFile(path, "9.9.9")
	require.ErrorIs(t, err, ErrNoVersionLine)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, content, string(data))
}

func TestUpdateFileMissing(t *testing.T) {
	_, err := UpdateFile(filepath.Join(t.TempDir(), "absent.toml"), "1.0")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"lec-simulator/internal/data"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateJSON(t *testing.T) {
	dir := t.TempDir()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--households", "6", "--days", "1", "--start", "2021-06-01", "--out", dir, "--format", "json"})
	require.NoError(t, cmd.Execute())

	ds, err := data.LoadJSON(filepath.Join(dir, "dataset.json"))
	require.NoError(t, err)
	assert.Len(t, ds.Households, 6)
	assert.Equal(t, 24, ds.Len())
	assert.Contains(t, out.String(), "6 households x 24 hours")
}

func TestGenerateRejectsUnknownFormat(t *testing.T) {
	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--households", "1", "--days", "1", "--out", t.TempDir(), "--format", "parquet"})
	assert.ErrorContains(t, cmd.Execute(), "unsupported format")
}

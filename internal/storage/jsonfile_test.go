package storage

import (
	"os"
	"path/filepath"
	"testing"

	"wfseller/internal/common"

	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestWriteJSON_ThenReadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.json")

	require.NoError(t, WriteJSON(path, record{Name: "abating_link", Count: 3}))

	var got record
	require.NoError(t, ReadJSON(path, &got))
	require.Equal(t, record{Name: "abating_link", Count: 3}, got)
}

func TestWriteJSON_OverwritesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "record.json")

	require.NoError(t, WriteJSON(path, record{Name: "a"}))
	require.NoError(t, WriteJSON(path, record{Name: "b"}))

	var got record
	require.NoError(t, ReadJSON(path, &got))
	require.Equal(t, "b", got.Name)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files should be renamed or removed")
}

func TestReadJSON_MissingFile(t *testing.T) {
	var got record
	err := ReadJSON(filepath.Join(t.TempDir(), "nope.json"), &got)
	require.ErrorIs(t, err, common.ErrStorageUnavailable)
	require.Contains(t, err.Error(), "nope.json")
}

func TestReadJSON_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	var got record
	require.ErrorIs(t, ReadJSON(path, &got), common.ErrStorageUnavailable)
}

func TestWriteJSON_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "record.json")
	require.ErrorIs(t, WriteJSON(path, record{}), common.ErrStorageUnavailable)
}

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	up, down, err := create(dir, "add_index", now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20260304050607_add_index.up.sql"), up)
	assert.Equal(t, filepath.Join(dir, "20260304050607_add_index.down.sql"), down)
	data, err := os.ReadFile(up)
	require.NoError(t, err)
	assert.Equal(t, "-- up migration\n", string(data))

	_, _, err = create(dir, "add_index", now)
	assert.Error(t, err, "existing files must not be overwritten")
}

func TestCreateMigrationRejectsBadNames(t *testing.T) {
	for _, name := range []string{"", "two words", "a/b"} {
		_, _, err := create(t.TempDir(), name, time.Now())
		assert.Error(t, err, name)
	}
}

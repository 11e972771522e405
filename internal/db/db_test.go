package db

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psykos/internal/config"
)

func openSQLite(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DBDriver = "sqlite"
	cfg.DatabaseURL = "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	cfg.DBMaxOpenConns = 1
	return cfg
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.DatabaseURL = "whatever"
	cfg.DBDriver = "oracle"
	_, err := Open(cfg)
	assert.ErrorContains(t, err, "unsupported")

	cfg.DatabaseURL = ""
	_, err = Open(cfg)
	assert.Error(t, err)
}

func TestLoadPromptLibrary(t *testing.T) {
	conn, err := Open(openSQLite(t))
	require.NoError(t, err)
	require.NoError(t, Migrate(conn))

	path := filepath.Join(t.TempDir(), "prompts.csv")
	csv := "category,text\nice-breaker, What is your hidden talent?\nIce-Breaker,What is your hidden talent?\nnaked-truth,\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	n, err := LoadPromptLibrary(conn, path, func(string) bool { return true })
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var count int64
	require.NoError(t, conn.Model(&PromptLibrary{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = LoadPromptLibrary(conn, path, func(string) bool { return false })
	assert.ErrorContains(t, err, "unknown category")
}

func TestReadPromptsSkipsHeaderAndBlanks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.csv")
	require.NoError(t, os.WriteFile(path, []byte("category,text\nsolo\nacronyms,  \n"), 0o644))

	records, err := ReadPrompts(path)
	require.NoError(t, err)
	assert.Empty(t, records)
}

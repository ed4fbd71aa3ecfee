package cmd

import (
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rana718/migcheck/internal/config"
)

func TestRunInit(t *testing.T) {
	color.NoColor = true
	dir := t.TempDir()
	originalDir, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(originalDir)
	require.NoError(t, os.Chdir(dir))

	require.NoError(t, runInit(false))
	assert.FileExists(t, config.FileName)
	assert.DirExists(t, config.DefaultConfig().MigrationsPath)

	require.NoError(t, os.WriteFile(config.FileName, []byte(`{"format": "yaml"}`), 0644))
	require.NoError(t, runInit(false))
	data, err := os.ReadFile(config.FileName)
	require.NoError(t, err)
	assert.Equal(t, `{"format": "yaml"}`, string(data))

	require.NoError(t, runInit(true))
	data, err = os.ReadFile(config.FileName)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"migrations_path"`)
}

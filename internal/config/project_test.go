package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veld-lang/veld/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadProjectDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.LoadProject(filepath.Join(dir, "main.veld"))
	require.NoError(t, err)

	assert.Equal(t, "auto", cfg.Color)
	assert.Empty(t, cfg.Output)
	assert.True(t, cfg.CacheEnabled())
}

func TestLoadProjectSameDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ProjectFileName), "output: build\ncolor: never\ncache: false\n")

	cfg, err := config.LoadProject(filepath.Join(dir, "main.veld"))
	require.NoError(t, err)

	assert.Equal(t, "build", cfg.Output)
	assert.Equal(t, "never", cfg.Color)
	assert.False(t, cfg.CacheEnabled())
}

func TestLoadProjectWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, config.ProjectFileName), "output: out\n")

	src := filepath.Join(root, "src", "nested", "main.veld")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))

	cfg, err := config.LoadProject(src)
	require.NoError(t, err)
	assert.Equal(t, "out", cfg.Output)
	assert.Equal(t, "auto", cfg.Color, "color stays on its default when the file omits it")
}

func TestLoadProjectNearestFileWins(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, config.ProjectFileName), "output: outer\n")
	writeFile(t, filepath.Join(root, "app", config.ProjectFileName), "output: inner\n")

	cfg, err := config.LoadProject(filepath.Join(root, "app", "main.veld"))
	require.NoError(t, err)
	assert.Equal(t, "inner", cfg.Output)
}

func TestLoadProjectMalformedYaml(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ProjectFileName), "output: [unclosed\n")

	_, err := config.LoadProject(filepath.Join(dir, "main.veld"))
	assert.Error(t, err)
}

func TestCacheEnabled(t *testing.T) {
	on, off := true, false
	assert.True(t, config.ProjectConfig{}.CacheEnabled())
	assert.True(t, config.ProjectConfig{Cache: &on}.CacheEnabled())
	assert.False(t, config.ProjectConfig{Cache: &off}.CacheEnabled())
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/quill/internal/match"
	"github.com/zjrosen/quill/internal/render"
)

func TestSaveThemePreset_CreatesNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, SaveThemePreset(path, "dracula"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "theme:\n  preset: dracula\n", string(data))
}

func TestSaveThemePreset_PreservesCommentsAndOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	require.NoError(t, SaveThemePreset(path, "nord"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "# Quill Configuration")
	assert.Contains(t, content, "preset: nord")
	assert.NotContains(t, content, "preset: default")
	assert.Contains(t, content, "algorithm: subletters")
	assert.Contains(t, content, "# Scoring algorithm")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "nord", cfg.Theme.Preset)
}

func TestSaveThemePreset_Unknown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.ErrorIs(t, SaveThemePreset(path, "solarized"), render.ErrUnknownPreset)
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "nothing written on error")
}

func TestSaveThemeStyle_DottedType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("theme:\n  preset: nord # base\n"), 0o644))

	require.NoError(t, SaveThemeStyle(path, "string.template", "color", "#FF0000"))
	require.NoError(t, SaveThemeStyle(path, "string.template", "italic", "true"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "preset: nord # base")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, render.Style{"color": "#FF0000", "italic": "true"}, cfg.Theme.FlattenedStyles()["string.template"])

	require.Error(t, SaveThemeStyle(path, "", "color", "red"))
}

func TestSaveCompletionAlgorithm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("completion: ~\ndebug: true\n"), 0o644))

	require.NoError(t, SaveCompletionAlgorithm(path, "Dice_Coefficient"))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, match.DiceCoefficient.String(), cfg.Completion.Algorithm)
	require.True(t, cfg.Debug)

	require.ErrorIs(t, SaveCompletionAlgorithm(path, "fuzzy"), match.ErrUnknownAlgorithm)
}

func TestSaveValue_RejectsNonMappingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- a\n- b\n"), 0o644))

	require.ErrorContains(t, SaveThemePreset(path, "nord"), "not a mapping")
}

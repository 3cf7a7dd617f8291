package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/quill/internal/match"
	"github.com/zjrosen/quill/internal/tracing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.Equal(t, "default", cfg.Theme.Preset)
	require.Equal(t, "subletters", cfg.Completion.Algorithm)
	require.Equal(t, match.DefaultThreshold, cfg.Completion.Threshold)
	require.Zero(t, cfg.Completion.Limit)
	require.False(t, cfg.Tracing.Enabled)
	require.Equal(t, tracing.ExporterFile, cfg.Tracing.Exporter)
	require.False(t, cfg.Debug)
	require.NoError(t, cfg.Validate())
}

func TestDefaultConfigTemplate_MatchesDefaults(t *testing.T) {
	var raw map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(DefaultConfigTemplate()), &raw))

	cfg := loadConfigFromYAML(t, DefaultConfigTemplate())
	require.NoError(t, cfg.Validate())
	require.Equal(t, Defaults().Completion, cfg.Completion)
	require.Equal(t, Defaults().Theme.Preset, cfg.Theme.Preset)
	require.Equal(t, []string{"~/.config/quill/languages"}, cfg.Languages.Dirs)
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".quill", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))
}

func TestValidateCompletion(t *testing.T) {
	tests := []struct {
		name string
		cfg  CompletionConfig
		err  string
	}{
		{"valid", CompletionConfig{Algorithm: "dice", Threshold: 0.2, Limit: 10}, ""},
		{"alias", CompletionConfig{Algorithm: "Prefix_Suffix_Sorted"}, ""},
		{"unknown algorithm", CompletionConfig{Algorithm: "levenshtein"}, "completion.algorithm"},
		{"empty algorithm", CompletionConfig{}, "completion.algorithm"},
		{"negative threshold", CompletionConfig{Algorithm: "prefix", Threshold: -0.1}, "completion.threshold"},
		{"threshold of one", CompletionConfig{Algorithm: "prefix", Threshold: 1}, "completion.threshold"},
		{"negative limit", CompletionConfig{Algorithm: "prefix", Limit: -1}, "completion.limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCompletion(tt.cfg)
			if tt.err == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.err)
		})
	}
}

func TestValidateTheme(t *testing.T) {
	require.NoError(t, ValidateTheme(ThemeConfig{}))
	require.NoError(t, ValidateTheme(ThemeConfig{Preset: "nord"}))

	err := ValidateTheme(ThemeConfig{Preset: "solarized"})
	require.ErrorContains(t, err, `theme.preset "solarized"`)
}

func TestValidateLanguages(t *testing.T) {
	require.NoError(t, ValidateLanguages(LanguagesConfig{Dirs: []string{"a"}, CacheTTL: -1}))
	require.ErrorContains(t, ValidateLanguages(LanguagesConfig{Dirs: []string{"a", ""}}), "languages.dirs[1]")
	require.ErrorContains(t, ValidateLanguages(LanguagesConfig{MatchTimeout: -time.Second}), "match_timeout")
}

func TestValidateTracing(t *testing.T) {
	tests := []struct {
		name string
		cfg  tracing.Config
		err  string
	}{
		{"disabled defaults", tracing.DefaultConfig(), ""},
		{"bad sample rate", tracing.Config{SampleRate: 2}, "sample_rate"},
		{"bad exporter", tracing.Config{Exporter: "jaeger"}, "tracing.exporter"},
		{"file without path", tracing.Config{Enabled: true, Exporter: "file"}, "file_path is required"},
		{"otlp without endpoint", tracing.Config{Enabled: true, Exporter: "otlp"}, "otlp_endpoint is required"},
		{"disabled file without path", tracing.Config{Exporter: "file"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTracing(tt.cfg)
			if tt.err == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.err)
		})
	}
}

func TestCompletionConfig_Scorer(t *testing.T) {
	s, err := CompletionConfig{Algorithm: "prefix-suffix-sorted"}.Scorer()
	require.NoError(t, err)
	require.Equal(t, match.PrefixSuffixSorted, s.Algorithm())

	_, err = CompletionConfig{Algorithm: "nope"}.Scorer()
	require.ErrorIs(t, err, match.ErrUnknownAlgorithm)

	results := match.Strings(s, []string{"hello", "hell", "hello-world"}, "hell",
		CompletionConfig{Threshold: 0.95, Limit: 5}.MatchOptions()...)
	require.Len(t, results, 2)
}

func TestLanguagesConfig_RegistryConfigExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	rc := LanguagesConfig{Dirs: []string{"~/langs", "/abs", "rel"}, CacheTTL: time.Minute}.RegistryConfig()
	require.Equal(t, []string{filepath.Join(home, "langs"), "/abs", "rel"}, rc.Dirs)
	require.Equal(t, time.Minute, rc.CacheTTL)
}

func TestConfigDirPaths(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Skip("no home directory")
	}
	require.True(t, strings.HasPrefix(DefaultLanguagesDir(), dir))
	require.True(t, strings.HasSuffix(DefaultTracesFilePath(), filepath.Join("traces", "traces.jsonl")))
}

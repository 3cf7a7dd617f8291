// Package config provides configuration types and defaults for quill.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/zjrosen/quill/internal/language"
	"github.com/zjrosen/quill/internal/log"
	"github.com/zjrosen/quill/internal/match"
	"github.com/zjrosen/quill/internal/render"
	"github.com/zjrosen/quill/internal/tracing"
)

// Config holds all configuration options for quill.
type Config struct {
	Languages  LanguagesConfig  `mapstructure:"languages"`
	Theme      ThemeConfig      `mapstructure:"theme"`
	Completion CompletionConfig `mapstructure:"completion"`
	Tracing    tracing.Config   `mapstructure:"tracing"`
	Debug      bool             `mapstructure:"debug"`
}

// LanguagesConfig locates user language files.
type LanguagesConfig struct {
	// Dirs are searched for *.yaml language files before the built-ins.
	// Earlier directories win.
	Dirs []string `mapstructure:"dirs"`

	// CacheTTL is how long a compiled language stays cached.
	// 0 keeps languages until their file changes, negative disables caching.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// MatchTimeout bounds a single pattern match. 0 uses the engine default.
	MatchTimeout time.Duration `mapstructure:"match_timeout"`
}

// RegistryConfig converts the section for language.NewRegistry.
func (l LanguagesConfig) RegistryConfig() language.Config {
	dirs := make([]string, 0, len(l.Dirs))
	for _, d := range l.Dirs {
		dirs = append(dirs, expandHome(d))
	}
	return language.Config{Dirs: dirs, CacheTTL: l.CacheTTL, MatchTimeout: l.MatchTimeout}
}

// ThemeConfig holds all theme customization options.
type ThemeConfig struct {
	// Preset loads a built-in theme as the base (optional).
	// Valid values: "default", "catppuccin-mocha", "catppuccin-latte",
	// "dracula", "nord", "high-contrast"
	Preset string `mapstructure:"preset"`

	// File loads a theme YAML file as the base. It wins over Preset.
	File string `mapstructure:"file"`

	// Styles overrides attributes per token type.
	// Scalar values are attributes, nested maps are sub-scopes:
	//   styles:
	//     keyword: {color: "#FF79C6", bold: true}
	//     string:
	//       color: "#F1FA8C"
	//       template: {italic: true}   # string.template
	// Quoted dot notation works too:
	//   styles:
	//     "string.template": {italic: true}
	Styles map[string]any `mapstructure:"styles"`
}

// FlattenedStyles returns Styles keyed by dotted token type.
func (t ThemeConfig) FlattenedStyles() map[string]render.Style {
	result := make(map[string]render.Style)
	flattenStyles("", t.Styles, result)
	return result
}

// flattenStyles walks a nested styles map. Keys whose value is a map are
// token types; every other value is an attribute of prefix.
func flattenStyles(prefix string, m map[string]any, result map[string]render.Style) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch val := v.(type) {
		case map[string]any:
			flattenStyles(key, val, result)
		case map[any]any:
			// YAML sometimes produces map[any]any instead of map[string]any
			converted := make(map[string]any, len(val))
			for mk, mv := range val {
				if strKey, ok := mk.(string); ok {
					converted[strKey] = mv
				}
			}
			flattenStyles(key, converted, result)
		case nil:
		default:
			if prefix == "" {
				continue
			}
			if result[prefix] == nil {
				result[prefix] = render.Style{}
			}
			result[prefix][k] = fmt.Sprint(val)
		}
	}
}

// Resolve builds the configured theme: File or Preset as the base with
// Styles laid over it.
func (t ThemeConfig) Resolve() (*render.Theme, error) {
	var (
		theme *render.Theme
		err   error
	)
	switch {
	case t.File != "":
		theme, err = render.LoadTheme(expandHome(t.File))
	case t.Preset != "":
		theme, err = render.PresetTheme(t.Preset)
	default:
		theme, err = render.PresetTheme(render.DefaultPreset.Name)
	}
	if err != nil {
		return nil, err
	}
	if len(t.Styles) > 0 {
		theme = theme.WithStyles(t.FlattenedStyles())
	}
	return theme, nil
}

// CompletionConfig configures candidate ranking.
type CompletionConfig struct {
	// Algorithm is one of "prefix", "prefix-suffix-sorted", "substring",
	// "dice", "subletters".
	Algorithm string `mapstructure:"algorithm"`

	// Threshold is the exclusive minimum score for a kept candidate.
	Threshold float64 `mapstructure:"threshold"`

	// Limit caps the number of results. 0 means no limit.
	Limit int `mapstructure:"limit"`
}

// Scorer returns the scorer for Algorithm.
func (c CompletionConfig) Scorer() (*match.Scorer, error) {
	alg, err := match.ParseAlgorithm(c.Algorithm)
	if err != nil {
		return nil, err
	}
	return match.NewScorer(alg)
}

// MatchOptions returns the filter options for Threshold and Limit.
func (c CompletionConfig) MatchOptions() []match.Option {
	return []match.Option{match.WithThreshold(c.Threshold), match.WithLimit(c.Limit)}
}

// ConfigDir returns ~/.config/quill, or "" if the home dir is unavailable.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "quill")
}

// DefaultLanguagesDir returns the default user language directory.
func DefaultLanguagesDir() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "languages")
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/quill/traces/traces.jsonl or empty string if home dir unavailable.
func DefaultTracesFilePath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := ValidateLanguages(c.Languages); err != nil {
		return err
	}
	if err := ValidateTheme(c.Theme); err != nil {
		return err
	}
	if err := ValidateCompletion(c.Completion); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

// ValidateLanguages checks language configuration for errors.
func ValidateLanguages(l LanguagesConfig) error {
	for i, d := range l.Dirs {
		if d == "" {
			return fmt.Errorf("languages.dirs[%d]: path is empty", i)
		}
	}
	if l.MatchTimeout < 0 {
		return fmt.Errorf("languages.match_timeout must not be negative, got %v", l.MatchTimeout)
	}
	return nil
}

// ValidateTheme checks theme configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTheme(t ThemeConfig) error {
	if t.Preset != "" {
		if _, ok := render.Presets[t.Preset]; !ok {
			return fmt.Errorf("theme.preset %q is not one of: %v", t.Preset, render.PresetNames())
		}
	}
	for _, typ := range sortedKeys(t.FlattenedStyles()) {
		if typ == "" {
			return fmt.Errorf("theme.styles: empty token type")
		}
	}
	return nil
}

// ValidateCompletion checks completion configuration for errors.
func ValidateCompletion(c CompletionConfig) error {
	if _, err := match.ParseAlgorithm(c.Algorithm); err != nil {
		return fmt.Errorf("completion.algorithm: %w", err)
	}
	if c.Threshold < 0 || c.Threshold >= 1 {
		return fmt.Errorf("completion.threshold must be in [0, 1), got %v", c.Threshold)
	}
	if c.Limit < 0 {
		return fmt.Errorf("completion.limit must not be negative, got %d", c.Limit)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	if t.Exporter != "" {
		switch t.Exporter {
		case tracing.ExporterNone, tracing.ExporterFile, tracing.ExporterStdout, tracing.ExporterOTLP:
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if t.Enabled {
		if t.Exporter == tracing.ExporterFile && t.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if t.Exporter == tracing.ExporterOTLP && t.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	tr := tracing.DefaultConfig()
	tr.FilePath = DefaultTracesFilePath()

	var dirs []string
	if d := DefaultLanguagesDir(); d != "" {
		dirs = []string{d}
	}
	return Config{
		Languages: LanguagesConfig{
			Dirs:         dirs,
			CacheTTL:     0,
			MatchTimeout: 0,
		},
		Theme: ThemeConfig{
			Preset: render.DefaultPreset.Name,
		},
		Completion: CompletionConfig{
			Algorithm: match.Subletters.String(),
			Threshold: match.DefaultThreshold,
			Limit:     0,
		},
		Tracing: tr,
	}
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Quill Configuration

# Language definitions
languages:
  # Directories searched for *.yaml language files. Earlier directories win,
  # and every directory wins over the built-in languages (css, javascript, json).
  dirs:
    - ~/.config/quill/languages
  # How long a compiled language stays cached (0 = until its file changes,
  # negative = never cache)
  # cache_ttl: 0
  # Upper bound for a single pattern match, guards against runaway patterns
  # match_timeout: 100ms

# Theme configuration
# Use a preset theme or a theme file, then override individual token types
theme:
  # Use a preset (run 'quill themes' to see available presets):
  preset: default
  #
  # Available presets:
  #   default           - Default quill theme
  #   catppuccin-mocha  - Warm, cozy dark theme
  #   catppuccin-latte  - Warm, cozy light theme
  #   dracula           - Dark theme with vibrant colors
  #   nord              - Arctic, north-bluish palette
  #   high-contrast     - High contrast for accessibility
  #
  # Or load a theme file (wins over preset):
  # file: ~/.config/quill/themes/mine.yaml
  #
  # Override specific token types (works with preset or file):
  # styles:
  #   keyword: {color: "#FF79C6", bold: true}
  #   string:
  #     color: "#F1FA8C"
  #     template: {italic: true}
  #   "attr-name": {color: "#50FA7B"}

# Completion ranking
completion:
  # Scoring algorithm: prefix, prefix-suffix-sorted, substring, dice, subletters
  algorithm: subletters
  # Candidates must score above this to be kept (0.0-1.0)
  threshold: 0.1
  # Maximum number of results (0 = unlimited)
  limit: 0

# Tracing configuration
# Records spans for tokenizing, rendering and completion
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/quill/traces/traces.jsonl  # Output file for file exporter
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
#
# Example: Send traces to Jaeger via OTLP
# tracing:
#   enabled: true
#   exporter: otlp
#   otlp_endpoint: jaeger.internal:4317
#   sample_rate: 0.1  # Sample 10% of traces

# Write a debug log to ./debug.log
# debug: false
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "created default config", "path", configPath)
	return nil
}

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/zjrosen/quill/internal/log"
)

// KeyDelimiter separates nested viper keys. It is "::" so dotted token
// types like "string.template" in theme.styles stay single keys.
const KeyDelimiter = "::"

// EnvPrefix prefixes environment overrides, e.g. QUILL_COMPLETION_ALGORITHM.
const EnvPrefix = "QUILL"

// Key joins a nested config path with KeyDelimiter.
func Key(parts ...string) string {
	return strings.Join(parts, KeyDelimiter)
}

// NewViper returns a viper instance with Defaults registered and
// environment overrides enabled.
func NewViper() *viper.Viper {
	v := viper.NewWithOptions(viper.KeyDelimiter(KeyDelimiter))
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(KeyDelimiter, "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers every default leaf on v.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault(Key("languages", "dirs"), d.Languages.Dirs)
	v.SetDefault(Key("languages", "cache_ttl"), d.Languages.CacheTTL)
	v.SetDefault(Key("languages", "match_timeout"), d.Languages.MatchTimeout)
	v.SetDefault(Key("theme", "preset"), d.Theme.Preset)
	v.SetDefault(Key("theme", "file"), d.Theme.File)
	v.SetDefault(Key("completion", "algorithm"), d.Completion.Algorithm)
	v.SetDefault(Key("completion", "threshold"), d.Completion.Threshold)
	v.SetDefault(Key("completion", "limit"), d.Completion.Limit)
	v.SetDefault(Key("tracing", "enabled"), d.Tracing.Enabled)
	v.SetDefault(Key("tracing", "exporter"), d.Tracing.Exporter)
	v.SetDefault(Key("tracing", "file_path"), d.Tracing.FilePath)
	v.SetDefault(Key("tracing", "otlp_endpoint"), d.Tracing.OTLPEndpoint)
	v.SetDefault(Key("tracing", "sample_rate"), d.Tracing.SampleRate)
	v.SetDefault(Key("tracing", "service_name"), d.Tracing.ServiceName)
	v.SetDefault("debug", d.Debug)
}

// Decode unmarshals v into a Config and validates it.
func Decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Load reads the config file at path over the defaults. A missing file
// yields the defaults.
func Load(path string) (Config, error) {
	v := NewViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isNotExist(err) {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		log.Debug(log.CatConfig, "config file not found, using defaults", "path", path)
	}
	return Decode(v)
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Rana718/migcheck/internal/extract"
	"github.com/Rana718/migcheck/internal/report"
)

const (
	FileName  = "migcheck.config.json"
	EnvPrefix = "MIGCHECK"
)

var ErrAlreadyInitialized = errors.New("config file already exists")

type Config struct {
	Version        string   `json:"version" mapstructure:"version"`
	MigrationsPath string   `json:"migrations_path" mapstructure:"migrations_path"`
	Dialect        string   `json:"dialect" mapstructure:"dialect"`
	Format         string   `json:"format" mapstructure:"format"`
	Analysis       Analysis `json:"analysis" mapstructure:"analysis"`
	Log            Log      `json:"log" mapstructure:"log"`
}

type Analysis struct {
	// GuessForeignKeys infers the target of foreign keys that do not name
	// one (user_id -> users).
	GuessForeignKeys bool `json:"guess_foreign_keys" mapstructure:"guess_foreign_keys"`
}

type Log struct {
	Level       string `json:"level" mapstructure:"level"`
	Development bool   `json:"development,omitempty" mapstructure:"development"`
}

func DefaultConfig() *Config {
	return &Config{
		Version:        "1",
		MigrationsPath: "db/migrations",
		Dialect:        string(extract.DialectAuto),
		Format:         string(report.FormatText),
		Analysis:       Analysis{GuessForeignKeys: true},
		Log:            Log{Level: "warn"},
	}
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom unmarshals v into a Config. Defaults are registered on v first so
// that environment variables override keys missing from the config file.
func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("version", def.Version)
	v.SetDefault("migrations_path", def.MigrationsPath)
	v.SetDefault("dialect", def.Dialect)
	v.SetDefault("format", def.Format)
	v.SetDefault("analysis.guess_foreign_keys", def.Analysis.GuessForeignKeys)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.development", def.Log.Development)
}

func (c *Config) Validate() error {
	if c.MigrationsPath == "" {
		return fmt.Errorf("migrations_path cannot be empty")
	}
	if _, err := extract.ParseDialect(c.Dialect); err != nil {
		return err
	}
	if _, err := report.ParseFormat(c.Format); err != nil {
		return err
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return nil
}

// ExtractorOptions translates the analysis settings into extractor options.
func (c *Config) ExtractorOptions() []extract.Option {
	dialect, _ := extract.ParseDialect(c.Dialect)
	opts := []extract.Option{extract.WithDialect(dialect)}
	if !c.Analysis.GuessForeignKeys {
		opts = append(opts, extract.WithGuesser(extract.NoGuess))
	}
	return opts
}

func IsInitialized() bool {
	_, err := os.Stat(FileName)
	return err == nil
}

// InitializeProject writes a default config file into dir. An existing file
// is only replaced when force is set.
func InitializeProject(dir string, force bool) (string, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%w: %s", ErrAlreadyInitialized, path)
	}

	data, err := json.MarshalIndent(DefaultConfig(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/nconklindev/t24codes/internal/workbook"
)

// EnvPrefix scopes environment overrides, e.g. T24CODES_LOG__LEVEL=debug
// sets log.level.
const EnvPrefix = "T24CODES_"

type LogConfig struct {
	Level  string `koanf:"level"`
	JSON   bool   `koanf:"json"`
	File   string `koanf:"file"`    // used by the interactive UI instead of stderr
	SeqURL string `koanf:"seq_url"` // optional Seq server
}

type OutputConfig struct {
	Sheet  string `koanf:"sheet"`  // results sheet name
	Suffix string `koanf:"suffix"` // appended to the input name for the default output file
}

type Config struct {
	Log    LogConfig    `koanf:"log"`
	Output OutputConfig `koanf:"output"`
}

// Load merges YAML (if present) with env-vars and applies defaults.
// A missing file is not an error.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// envKey maps T24CODES_OUTPUT__SHEET to output.sheet.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

func applyDefaults(c *Config) {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Output.Sheet == "" {
		c.Output.Sheet = workbook.DefaultResultSheet
	}
	if c.Output.Suffix == "" {
		c.Output.Suffix = workbook.DefaultSuffix
	}
}

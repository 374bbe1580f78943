package config

import (
	"fmt"

	"github.com/cognicore/ocrfix/pkg/ocrfix/internalerr"
)

// Defaults for a learning run.
const (
	DefaultThreshold      = 40.0
	DefaultMinOccurrences = 2
	DefaultOutput         = "corrections.json"
	DefaultRedisKey       = "custom_dict"
)

// Settings configures one learning run. Populated by the CLI from flags,
// OCRFIX_* environment variables and an optional config file.
type Settings struct {
	Threshold      float64 `mapstructure:"threshold"`
	MinOccurrences int     `mapstructure:"min-occur"`
	Output         string  `mapstructure:"output"`
	Quiet          bool    `mapstructure:"quiet"`
	TablesPath     string  `mapstructure:"tables"`
	ReplaceTables  bool    `mapstructure:"replace-tables"`
	DictionaryPath string  `mapstructure:"dictionary"`
	RedisAddr      string  `mapstructure:"redis-addr"`
	RedisPassword  string  `mapstructure:"redis-password"`
	RedisDB        int     `mapstructure:"redis-db"`
	RedisKey       string  `mapstructure:"redis-key"`
	DBPath         string  `mapstructure:"db"`
	IncludeHOCR    bool    `mapstructure:"hocr"`
}

// DefaultSettings returns the settings used when nothing is overridden.
func DefaultSettings() Settings {
	return Settings{
		Threshold:      DefaultThreshold,
		MinOccurrences: DefaultMinOccurrences,
		Output:         DefaultOutput,
		RedisKey:       DefaultRedisKey,
	}
}

// Validate checks ranges.
func (s Settings) Validate() error {
	if s.Threshold <= 0 || s.Threshold > 100 {
		return fmt.Errorf("%w: threshold must be in (0, 100], got %v", internalerr.ErrInvalidConfig, s.Threshold)
	}
	if s.MinOccurrences < 1 {
		return fmt.Errorf("%w: min-occur must be >= 1, got %d", internalerr.ErrInvalidConfig, s.MinOccurrences)
	}
	if s.Output == "" {
		return fmt.Errorf("%w: output path is empty", internalerr.ErrInvalidConfig)
	}
	if s.RedisAddr != "" && s.RedisKey == "" {
		return fmt.Errorf("%w: redis-key is required with redis-addr", internalerr.ErrInvalidConfig)
	}
	return nil
}

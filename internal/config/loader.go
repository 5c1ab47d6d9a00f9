package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"schemadrift/internal/gen"
)

// configName is the config file name without extension.
const configName = ".schemadrift"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for schemadrift settings.
const envPrefix = "SCHEMADRIFT"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	viperCfg := viper.New()
	applyDefaults(viperCfg)

	var cfg Config
	if err := viperCfg.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config defaults do not unmarshal: %v", err))
	}

	return &cfg
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("analysis.sample_rows", DefaultSampleRows)
	viperCfg.SetDefault("analysis.batch_candidates", DefaultBatchCandidates)
	viperCfg.SetDefault("analysis.workers", DefaultWorkers)
	viperCfg.SetDefault("analysis.well_known", []string{})
	viperCfg.SetDefault("analysis.include_ticks", false)
	viperCfg.SetDefault("analysis.tick_field_sample", DefaultTickFieldSample)

	viperCfg.SetDefault("profile.verbosity", DefaultVerbosity)
	viperCfg.SetDefault("profile.low_cardinality_threshold", DefaultLowCardinalityThreshold)
	viperCfg.SetDefault("profile.top_values", DefaultTopValues)
	viperCfg.SetDefault("profile.cardinality_cap", DefaultCardinalityCap)

	viperCfg.SetDefault("gen.output_dir", DefaultOutputDir)
	viperCfg.SetDefault("gen.package_name", "")
	viperCfg.SetDefault("gen.category_enum", DefaultCategoryEnum)
	viperCfg.SetDefault("gen.field_enum", DefaultFieldEnum)
	viperCfg.SetDefault("gen.header_order", gen.DefaultHeaderOrder)
	viperCfg.SetDefault("gen.dotted_header_keys", []string{"addons"})
	viperCfg.SetDefault("gen.strict_schemas", true)
	viperCfg.SetDefault("gen.collisions", DefaultCollisions)

	viperCfg.SetDefault("validate.coverage_threshold", DefaultCoverageThreshold)
	viperCfg.SetDefault("validate.schema_row_limit", DefaultSchemaRowLimit)
	viperCfg.SetDefault("validate.suggestions", DefaultSuggestions)
	viperCfg.SetDefault("validate.max_issues", DefaultMaxIssues)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)
}

// Package config provides configuration loading from YAML files
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/saiid2001/vsf-analyzer/internal/constants"
)

// RulesConfig points at the six pattern-list files consulted by the
// differ and classifier.
type RulesConfig struct {
	HeaderIgnore        string `yaml:"header_ignore"`
	CookieIgnore        string `yaml:"cookie_ignore"`
	QueryNameIgnore     string `yaml:"query_name_ignore"`
	VariableNameIgnore  string `yaml:"variable_name_ignore"`
	VariableNameSwap    string `yaml:"variable_name_swappable"`
	VariableValueSwap   string `yaml:"variable_value_swappable"`
}

// AnalysisConfig configures the candidate processor's variable-swap
// enumeration.
type AnalysisConfig struct {
	UnifyVariableNames   bool     `yaml:"unify_variable_names"`
	MaxSwaps             int      `yaml:"max_swaps"`
	Seed                 int64    `yaml:"seed"`
	SwapLocationsInclude []string `yaml:"swap_locations_include"`
	SwapLocationsExclude []string `yaml:"swap_locations_exclude"`
	SwapNameIncludeFile  string   `yaml:"swap_name_include_file"`
	SwapNameExcludeFile  string   `yaml:"swap_name_exclude_file"`
	SwapValueIncludeFile string   `yaml:"swap_value_include_file"`
	SwapValueExcludeFile string   `yaml:"swap_value_exclude_file"`
}

// DatabaseConfig configures the task-store connection.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MigrationsPath  string        `yaml:"migrations_path"`
}

// QueueConfig configures the candidate-pairs/swap-candidates Kafka topics.
type QueueConfig struct {
	Brokers             []string `yaml:"brokers"`
	CandidatePairsTopic string   `yaml:"candidate_pairs_topic"`
	SwapCandidatesTopic string   `yaml:"swap_candidates_topic"`
	ConsumerGroup       string   `yaml:"consumer_group"`
	PublishPerSecond    float64  `yaml:"publish_per_second"`
}

// LoggingConfig configures the ambient logger.
type LoggingConfig struct {
	Path string `yaml:"path"`
}

// Config aggregates all service configurations.
type Config struct {
	Rules    RulesConfig     `yaml:"rules"`
	Analysis AnalysisConfig  `yaml:"analysis"`
	Database DatabaseConfig  `yaml:"database"`
	Queue    QueueConfig     `yaml:"queue"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// LoadConfig loads the configuration from the given YAML file path and
// fills in defaults for anything the file leaves zero-valued.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Analysis.MaxSwaps == 0 {
		c.Analysis.MaxSwaps = constants.DefaultMaxSwaps
	}
	if c.Analysis.Seed == 0 {
		c.Analysis.Seed = constants.DefaultSeed
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if c.Queue.PublishPerSecond == 0 {
		c.Queue.PublishPerSecond = 50
	}
}

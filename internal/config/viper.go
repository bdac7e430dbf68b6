// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Data struct {
		Directory string `mapstructure:"directory" yaml:"directory"`
	} `mapstructure:"data" yaml:"data"`

	Sync struct {
		BaseCurrency string `mapstructure:"base_currency" yaml:"base_currency"`
		CutoffDate   string `mapstructure:"cutoff_date" yaml:"cutoff_date"`
	} `mapstructure:"sync" yaml:"sync"`

	Rules struct {
		File string `mapstructure:"file" yaml:"file"`
	} `mapstructure:"rules" yaml:"rules"`

	Categorization struct {
		SemanticThreshold float64 `mapstructure:"semantic_threshold" yaml:"semantic_threshold"`
		EmbeddingDim      int     `mapstructure:"embedding_dim" yaml:"embedding_dim"`
	} `mapstructure:"categorization" yaml:"categorization"`

	Rates struct {
		ProviderURL string `mapstructure:"provider_url" yaml:"provider_url"`
	} `mapstructure:"rates" yaml:"rates"`

	TrueLayer struct {
		APIBase   string `mapstructure:"api_base" yaml:"api_base"`
		TokenFile string `mapstructure:"token_file" yaml:"token_file"`
	} `mapstructure:"truelayer" yaml:"truelayer"`

	Notion struct {
		Token              string            `mapstructure:"token" yaml:"-"` // Never serialize the token
		ExpensesDatabaseID string            `mapstructure:"expenses_database_id" yaml:"expenses_database_id"`
		IncomeDatabaseID   string            `mapstructure:"income_database_id" yaml:"income_database_id"`
		AccountRelationID  string            `mapstructure:"account_relation_id" yaml:"account_relation_id"`
		CategoryRelations  map[string]string `mapstructure:"category_relations" yaml:"category_relations"`
		FallbackCategory   string            `mapstructure:"fallback_category" yaml:"fallback_category"`
	} `mapstructure:"notion" yaml:"notion"`
}

// CutoffTime parses the configured cutoff date. Validation guarantees the
// format, so this never fails after InitializeConfig.
func (c *Config) CutoffTime() time.Time {
	cutoff, _ := time.Parse("2006-01-02", c.Sync.CutoffDate)
	return cutoff
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.revolut-notion")
	v.AddConfigPath(".revolut-notion")
	v.AddConfigPath(".")

	// 3. Environment variables
	v.SetEnvPrefix("RNS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Log the error but don't fail - continue with defaults and env vars
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
		// Config file not found or invalid is OK, we'll use defaults and env vars
	}

	// 5. Secrets always come from unprefixed environment variables
	if err := v.BindEnv("notion.token", "NOTION_TOKEN"); err != nil {
		fmt.Printf("Warning: failed to bind NOTION_TOKEN environment variable: %v\n", err)
	}
	if err := v.BindEnv("notion.expenses_database_id", "EXPENSES_DB_ID"); err != nil {
		fmt.Printf("Warning: failed to bind EXPENSES_DB_ID environment variable: %v\n", err)
	}
	if err := v.BindEnv("notion.income_database_id", "INCOME_DB_ID"); err != nil {
		fmt.Printf("Warning: failed to bind INCOME_DB_ID environment variable: %v\n", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Data defaults
	v.SetDefault("data.directory", "data")

	// Sync defaults
	v.SetDefault("sync.base_currency", "USD")
	v.SetDefault("sync.cutoff_date", "2024-01-01")

	// Rules defaults
	v.SetDefault("rules.file", "")

	// Categorization defaults
	v.SetDefault("categorization.semantic_threshold", 0.2)
	v.SetDefault("categorization.embedding_dim", 64)

	// Rates defaults
	v.SetDefault("rates.provider_url", "https://api.frankfurter.app")

	// TrueLayer defaults
	v.SetDefault("truelayer.api_base", "https://api.truelayer.com")
	v.SetDefault("truelayer.token_file", "data/tokens.json")

	// Notion defaults
	v.SetDefault("notion.account_relation_id", "")
	v.SetDefault("notion.fallback_category", "Other")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	// Validate log level
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	// Validate log format
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	// Validate base currency
	if len(config.Sync.BaseCurrency) != 3 {
		return fmt.Errorf("sync.base_currency must be a 3-letter ISO code, got: %s", config.Sync.BaseCurrency)
	}

	// Validate cutoff date
	if _, err := time.Parse("2006-01-02", config.Sync.CutoffDate); err != nil {
		return fmt.Errorf("sync.cutoff_date must be YYYY-MM-DD, got: %s", config.Sync.CutoffDate)
	}

	// Validate semantic threshold
	if config.Categorization.SemanticThreshold < -1.0 || config.Categorization.SemanticThreshold > 1.0 {
		return fmt.Errorf("categorization.semantic_threshold must be between -1.0 and 1.0, got: %f", config.Categorization.SemanticThreshold)
	}

	if config.Categorization.EmbeddingDim < 1 {
		return fmt.Errorf("categorization.embedding_dim must be positive, got: %d", config.Categorization.EmbeddingDim)
	}

	return nil
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	// Parse and set log level
	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Configure log format
	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"fmt"
	"io"

	"github.com/iwvelando/loan-review/internal/ratesource"
	"github.com/iwvelando/loan-review/pkg/constants"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for loan-review.
type Configuration struct {
	Logging  LoggingConfig       `mapstructure:"logging" yaml:"logging,omitempty"`
	Output   OutputConfig        `mapstructure:"output" yaml:"output,omitempty"`
	Rates    ratesource.Settings `mapstructure:"rates" yaml:"rates,omitempty"`
	Contract Contract            `mapstructure:"contract" yaml:"contract"`
	Theses   Theses              `mapstructure:"theses" yaml:"theses,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty"` // pretty, csv, json, xlsx
	File   string `mapstructure:"file" yaml:"file,omitempty"`     // xlsx target
}

// Contract describes the credit contract under review as typed by the user.
// Principal accepts a plain number or a pt-BR amount ("60.000,00") and the
// contracted rate is a monthly percentage (2.8 for 2.8% a month).
type Contract struct {
	Modality       string  `mapstructure:"modality" yaml:"modality"`
	ContractDate   string  `mapstructure:"contractDate" yaml:"contractDate"`
	Principal      string  `mapstructure:"principal" yaml:"principal"`
	ContractedRate float64 `mapstructure:"contractedRate" yaml:"contractedRate"`
	TermMonths     int     `mapstructure:"termMonths" yaml:"termMonths"`
	Amortization   string  `mapstructure:"amortization" yaml:"amortization"`
}

// Theses selects the tolerance theses. Tolerances are percentages over the
// reference rate (50 accepts up to 1.5 times the reference rate).
type Theses struct {
	CustomTolerance *float64       `mapstructure:"customTolerance" yaml:"customTolerance,omitempty"`
	List            []ThesisConfig `mapstructure:"list" yaml:"list,omitempty"`
}

// ThesisConfig is one configured thesis.
type ThesisConfig struct {
	Label     string  `mapstructure:"label" yaml:"label"`
	Tolerance float64 `mapstructure:"tolerance" yaml:"tolerance"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("output.file", constants.DefaultXLSXFile)
	v.SetDefault("rates.baseURL", constants.DefaultRateBaseURL)
	v.SetDefault("rates.timeout", constants.DefaultRateTimeout)
	v.SetDefault("rates.retries", 0)
	v.SetDefault("rates.retryBackoff", constants.DefaultRetryBackoff)
	v.SetDefault("rates.cache.backend", constants.CacheBackendMemory)
	v.SetDefault("rates.cache.ttl", constants.DefaultCacheTTL)
	v.SetDefault("contract.amortization", "price")
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")
	v.SetEnvPrefix("LOAN_REVIEW")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")
	setDefaults(v)

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// SetCustomTolerance overrides the custom thesis with percent.
func (c *Configuration) SetCustomTolerance(percent float64) {
	c.Theses.CustomTolerance = &percent
}

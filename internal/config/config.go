// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/iwvelando/emi-calculator/pkg/constants"
	"github.com/iwvelando/emi-calculator/pkg/datetime"
	"github.com/iwvelando/emi-calculator/pkg/validation"
	"github.com/spf13/viper"
)

// ErrInvalidConfiguration marks configuration values that cannot be parsed.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// MonthLayout is the format expected in config files and is also the output
// month format.
const MonthLayout = constants.MonthLayout

// Configuration holds all configuration for emi-calculator.
type Configuration struct {
	// StartMonth anchors every loan without its own start month. Empty means
	// the current month.
	StartMonth string
	Loans      []Loan
	Logging    LoggingConfig `yaml:"logging,omitempty"`
	Output     OutputConfig  `yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format  string `yaml:"format,omitempty"`  // pretty, csv, json
	Monthly bool   `yaml:"monthly,omitempty"` // list every month in pretty output
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	err := v.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	return &configuration, nil
}

// Anchor resolves the month a loan's first installment falls in: the loan's
// own start month, then the configured one, then the month of now.
func (conf *Configuration) Anchor(loan Loan, now time.Time) (datetime.YearMonth, error) {
	switch {
	case loan.StartMonth != "":
		anchor, err := datetime.Parse(loan.StartMonth)
		if err != nil {
			return datetime.YearMonth{}, fmt.Errorf("%w: loan %s: invalid start month: %w", ErrInvalidConfiguration, loan.Name, err)
		}
		return anchor, nil
	case conf.StartMonth != "":
		anchor, err := datetime.Parse(conf.StartMonth)
		if err != nil {
			return datetime.YearMonth{}, fmt.Errorf("%w: invalid start month: %w", ErrInvalidConfiguration, err)
		}
		return anchor, nil
	default:
		return datetime.FromTime(now), nil
	}
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (conf *Configuration) ValidateConfiguration() []string {
	return conf.ValidateConfigurationWithFixedTime(time.Now())
}

// ValidateConfigurationWithFixedTime validates the configuration, resolving
// unset start months against fixedTime.
func (conf *Configuration) ValidateConfigurationWithFixedTime(fixedTime time.Time) []string {
	var loanConfigs []validation.LoanConfig
	for _, loan := range conf.Loans {
		anchor, err := conf.Anchor(loan, fixedTime)
		if err != nil {
			continue
		}
		loanConfig := validation.LoanConfig{
			Name:       loan.Name,
			StartMonth: anchor.String(),
			Term:       loan.Parameters().TenureMonths(),
			Principal:  loan.Principal,
		}
		if loan.PrePayment != nil {
			loanConfig.HasPrePayment = true
			loanConfig.PrePaymentAmount = loan.PrePayment.Amount
			loanConfig.PrePaymentStart = loan.PrePayment.StartDate
		}
		loanConfigs = append(loanConfigs, loanConfig)
	}

	validator := &validation.ConfigValidator{Loans: loanConfigs}
	return validator.ValidateAll()
}

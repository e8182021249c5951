package binance

import (
	"github.com/go-playground/validator/v10"

	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// Config holds the Binance session settings.
type Config struct {
	APIKey    string `json:"api_key" yaml:"api_key" validate:"required"`
	SecretKey string `json:"secret_key" yaml:"secret_key" validate:"required"`
	// BaseURL overrides the REST endpoint; takes precedence over UseTestnet.
	BaseURL string `json:"base_url" yaml:"base_url"`
	// UseTestnet connects to the Binance spot testnet.
	UseTestnet bool `json:"use_testnet" yaml:"use_testnet"`
	// AccountCurrency is the quote asset treated as the account's cash
	// balance, e.g. USDT.
	AccountCurrency string `json:"account_currency" yaml:"account_currency" validate:"required"`
	// RequestsPerSecond and Burst bound outbound REST calls so bulk
	// operations like warm-up stay under the exchange's request weight.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" validate:"gt=0"`
	Burst             int     `json:"burst" yaml:"burst" validate:"gte=1"`
}

// DefaultConfig returns conservative session defaults. Credentials have no
// default and must come from the caller's configuration.
func DefaultConfig() Config {
	return Config{
		AccountCurrency:   "USDT",
		RequestsPerSecond: 10,
		Burst:             20,
	}
}

// Validate checks the configuration for completeness.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid binance adapter configuration", err)
	}

	return nil
}

// Package config loads process configuration for the chaincode binary.
// Nothing here influences ledger semantics, which must be identical on
// every endorsing peer.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the chaincode process settings.
type Config struct {
	// Chaincode-as-a-service. The process runs as a server only when both
	// are set; otherwise it dials the peer.
	CCID    string `env:"CHAINCODE_ID"`
	Address string `env:"CHAINCODE_SERVER_ADDRESS"`

	TLSDisabled  bool   `env:"CHAINCODE_TLS_DISABLED" envDefault:"true"`
	TLSKeyFile   string `env:"CHAINCODE_TLS_KEY"`
	TLSCertFile  string `env:"CHAINCODE_TLS_CERT"`
	ClientCAFile string `env:"CHAINCODE_CLIENT_CA_CERT"`

	LogSpec        string `env:"CHAINCODE_LOG_SPEC" envDefault:"info"`
	MetricsAddress string `env:"METRICS_ADDRESS"`
}

// Load parses Config from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects half-configured server or TLS settings.
func (c Config) Validate() error {
	if (c.CCID == "") != (c.Address == "") {
		return errors.New("CHAINCODE_ID and CHAINCODE_SERVER_ADDRESS must be set together")
	}
	if c.AsService() && !c.TLSDisabled && (c.TLSKeyFile == "" || c.TLSCertFile == "") {
		return errors.New("CHAINCODE_TLS_KEY and CHAINCODE_TLS_CERT are required when TLS is enabled")
	}
	return nil
}

// AsService reports whether the chaincode should run as an external server.
func (c Config) AsService() bool {
	return c.CCID != "" && c.Address != ""
}

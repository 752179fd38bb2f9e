package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds the marketd service configuration.
type Config struct {
	RPCAddress        string            `toml:"RPCAddress"`
	Environment       string            `toml:"Environment"`
	DefaultFeeBps     uint32            `toml:"DefaultFeeBps"`
	DefaultRoyaltyBps uint32            `toml:"DefaultRoyaltyBps"`
	DevFeeRecipient   string            `toml:"DevFeeRecipient,omitempty"`
	FeeTreasury       string            `toml:"FeeTreasury,omitempty"`
	Operator          string            `toml:"Operator,omitempty"`
	PayTokens         []string          `toml:"PayTokens"`
	Alloc             map[string]string `toml:"Alloc,omitempty"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "local"
	}
	if cfg.PayTokens == nil {
		cfg.PayTokens = []string{}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:        ":8080",
		Environment:       "local",
		DefaultFeeBps:     250,
		DefaultRoyaltyBps: 0,
		PayTokens:         []string{},
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

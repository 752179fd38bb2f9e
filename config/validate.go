package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const maxBps = 10_000

// Validate rejects configurations the engines would refuse at wiring time.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil configuration")
	}
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		return fmt.Errorf("config: RPCAddress is required")
	}
	if cfg.DefaultFeeBps > maxBps {
		return fmt.Errorf("config: DefaultFeeBps %d exceeds %d", cfg.DefaultFeeBps, maxBps)
	}
	if cfg.DefaultRoyaltyBps > maxBps {
		return fmt.Errorf("config: DefaultRoyaltyBps %d exceeds %d", cfg.DefaultRoyaltyBps, maxBps)
	}
	if err := validateAddress("DevFeeRecipient", cfg.DevFeeRecipient); err != nil {
		return err
	}
	if err := validateAddress("FeeTreasury", cfg.FeeTreasury); err != nil {
		return err
	}
	if err := validateAddress("Operator", cfg.Operator); err != nil {
		return err
	}
	seen := make(map[string]bool, len(cfg.PayTokens))
	for _, symbol := range cfg.PayTokens {
		normalized := strings.ToUpper(strings.TrimSpace(symbol))
		if normalized == "" {
			return fmt.Errorf("config: empty pay token symbol")
		}
		if seen[normalized] {
			return fmt.Errorf("config: duplicate pay token %q", normalized)
		}
		seen[normalized] = true
	}
	for account := range cfg.Alloc {
		if !common.IsHexAddress(account) {
			return fmt.Errorf("config: invalid alloc address %q", account)
		}
	}
	return nil
}

func validateAddress(field, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	if !common.IsHexAddress(trimmed) {
		return fmt.Errorf("config: invalid %s address %q", field, value)
	}
	return nil
}

// Address parses an optional hex address field. The zero address stands for
// unset.
func Address(value string) [20]byte {
	trimmed := strings.TrimSpace(value)
	if !common.IsHexAddress(trimmed) {
		return [20]byte{}
	}
	return common.HexToAddress(trimmed)
}

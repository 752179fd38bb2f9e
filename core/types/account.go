package types

import "math/big"

// Account tracks the funds held by a marketplace participant. Balance is the
// native settlement currency; Tokens maps registered fungible token symbols
// to their balances.
type Account struct {
	Nonce   uint64              `json:"nonce"`
	Balance *big.Int            `json:"balance"`
	Tokens  map[string]*big.Int `json:"tokens,omitempty"`
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := &Account{Nonce: a.Nonce, Balance: big.NewInt(0)}
	if a.Balance != nil {
		clone.Balance = new(big.Int).Set(a.Balance)
	}
	if len(a.Tokens) > 0 {
		clone.Tokens = make(map[string]*big.Int, len(a.Tokens))
		for sym, amt := range a.Tokens {
			if amt != nil {
				clone.Tokens[sym] = new(big.Int).Set(amt)
			} else {
				clone.Tokens[sym] = big.NewInt(0)
			}
		}
	}
	return clone
}

// TokenBalance returns the balance held for the supplied token symbol,
// treating missing entries as zero. The returned value is a copy.
func (a *Account) TokenBalance(symbol string) *big.Int {
	if a == nil || a.Tokens == nil {
		return big.NewInt(0)
	}
	amt, ok := a.Tokens[symbol]
	if !ok || amt == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(amt)
}

// SetTokenBalance stores the balance for the supplied token symbol,
// allocating the token map on first use.
func (a *Account) SetTokenBalance(symbol string, amt *big.Int) {
	if a == nil {
		return
	}
	if a.Tokens == nil {
		a.Tokens = make(map[string]*big.Int)
	}
	if amt == nil {
		amt = big.NewInt(0)
	}
	a.Tokens[symbol] = new(big.Int).Set(amt)
}

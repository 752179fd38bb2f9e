package market

import "errors"

var (
	errNilState  = errors.New("market engine: state not configured")
	errNilAssets = errors.New("market engine: asset adapter not configured")

	// ErrInvalidQuantity rejects listings and purchases with a bad quantity.
	ErrInvalidQuantity = errors.New("market: invalid quantity")
	// ErrInvalidDuration rejects non-positive sale durations.
	ErrInvalidDuration = errors.New("market: invalid duration")
	// ErrInvalidPrice rejects zero or negative unit prices.
	ErrInvalidPrice = errors.New("market: price must be positive")
	// ErrNotOwner is returned when the seller does not hold the listed amount.
	ErrNotOwner = errors.New("market: seller does not hold the listed amount")
	// ErrNotAuthorized is returned for callers lacking the required role.
	ErrNotAuthorized = errors.New("market: caller not authorized")
	// ErrUnsupportedPayMethod rejects payment method indices outside the
	// registry.
	ErrUnsupportedPayMethod = errors.New("market: unsupported payment method")
	// ErrInsufficientFunds is returned when a payment does not cover the
	// required amount.
	ErrInsufficientFunds = errors.New("market: insufficient funds")
	// ErrInsufficientFree is the reservation underflow guard: the holder's
	// free balance does not cover the requested commitment.
	ErrInsufficientFree = errors.New("market: insufficient free balance")
	// ErrOverRelease is the reservation overflow guard: releasing more than
	// is committed.
	ErrOverRelease = errors.New("market: release exceeds committed amount")
	// ErrSaleNotOpen is returned for operations against closed, expired or
	// unknown sales.
	ErrSaleNotOpen = errors.New("market: sale not open")
	// ErrWrongSaleKind is returned when an operation does not match the
	// sale's kind.
	ErrWrongSaleKind = errors.New("market: operation does not match sale kind")
	// ErrNoActiveBid is returned when removing a bid that does not exist.
	ErrNoActiveBid = errors.New("market: no active bid for bidder")
	// ErrSelfTrade rejects sales where both sides are the same party.
	ErrSelfTrade = errors.New("market: counterparties must differ")
)

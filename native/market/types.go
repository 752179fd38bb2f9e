package market

import (
	"fmt"
	"math/big"
)

// SaleKind distinguishes the three disposal flows a sale record can follow.
type SaleKind uint8

const (
	// SaleKindFixed is a fixed-price listing, buyable in partial quantity.
	SaleKindFixed SaleKind = iota
	// SaleKindAuction is a timed auction over exactly one copy.
	SaleKindAuction
	// SaleKindOffer is an unsolicited bid on an owner's inventory, escrowed
	// up front by the offerer.
	SaleKindOffer
)

// Valid reports whether the kind is one of the three supported flows.
func (k SaleKind) Valid() bool {
	switch k {
	case SaleKindFixed, SaleKindAuction, SaleKindOffer:
		return true
	default:
		return false
	}
}

func (k SaleKind) String() string {
	switch k {
	case SaleKindFixed:
		return "fixed"
	case SaleKindAuction:
		return "auction"
	case SaleKindOffer:
		return "offer"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

const (
	// bpsDenominator is the parts-per-10000 divisor used for every ratio.
	bpsDenominator = 10_000
	// devFeeBps is the fixed developer cut applied when a dev recipient is
	// configured. It is computed on the total independently of the seller
	// payout identity.
	devFeeBps = 10
)

// SaleRecord is the authoritative entry for one sale. A record whose
// StartTime and EndTime are both zero is tombstoned: cancelled or fully
// settled, permanently closed. Ids are assigned monotonically and never
// reused.
type SaleRecord struct {
	ID           uint64
	Creator      [20]byte
	Seller       [20]byte
	Collection   [20]byte
	ItemID       uint64
	Quantity     *big.Int
	PayMethod    uint8
	UnitPrice    *big.Int
	Kind         SaleKind
	StartTime    int64
	EndTime      int64
	FeeBps       uint32
	RoyaltyBps   uint32
	Counterparty [20]byte
}

// Closed reports whether the record is tombstoned.
func (s *SaleRecord) Closed() bool {
	if s == nil {
		return true
	}
	return s.StartTime == 0 && s.EndTime == 0
}

// Clone returns a deep copy of the sale record.
func (s *SaleRecord) Clone() *SaleRecord {
	if s == nil {
		return nil
	}
	clone := *s
	if s.Quantity != nil {
		clone.Quantity = new(big.Int).Set(s.Quantity)
	} else {
		clone.Quantity = big.NewInt(0)
	}
	if s.UnitPrice != nil {
		clone.UnitPrice = new(big.Int).Set(s.UnitPrice)
	} else {
		clone.UnitPrice = big.NewInt(0)
	}
	return &clone
}

// SanitizeSale validates and normalises a sale record loaded from state,
// returning a clone with non-nil amounts.
func SanitizeSale(s *SaleRecord) (*SaleRecord, error) {
	if s == nil {
		return nil, fmt.Errorf("nil sale record")
	}
	clone := s.Clone()
	if !clone.Kind.Valid() {
		return nil, fmt.Errorf("invalid sale kind: %d", clone.Kind)
	}
	if clone.Quantity.Sign() < 0 {
		return nil, fmt.Errorf("sale quantity must be non-negative")
	}
	if clone.UnitPrice.Sign() < 0 {
		return nil, fmt.Errorf("sale unit price must be non-negative")
	}
	if clone.FeeBps > bpsDenominator {
		return nil, fmt.Errorf("sale fee bps out of range: %d", clone.FeeBps)
	}
	if clone.RoyaltyBps > bpsDenominator {
		return nil, fmt.Errorf("sale royalty bps out of range: %d", clone.RoyaltyBps)
	}
	return clone, nil
}

// Reservation tracks how much of a holder's live balance is committed to
// open sales for one (collection, item, holder) triple. Records are created
// on first touch and never deleted; Committed may return to zero.
type Reservation struct {
	Collection  [20]byte
	ItemID      uint64
	Holder      [20]byte
	Committed   *big.Int
	Initialized bool
}

// Clone returns a deep copy of the reservation.
func (r *Reservation) Clone() *Reservation {
	if r == nil {
		return nil
	}
	clone := *r
	if r.Committed != nil {
		clone.Committed = new(big.Int).Set(r.Committed)
	} else {
		clone.Committed = big.NewInt(0)
	}
	return &clone
}

// Bid is one bidder's active bid on an auction sale. A bidder appears at
// most once per sale.
type Bid struct {
	Bidder [20]byte
	Price  *big.Int
}

// Clone returns a deep copy of the bid.
func (b Bid) Clone() Bid {
	clone := b
	if b.Price != nil {
		clone.Price = new(big.Int).Set(b.Price)
	} else {
		clone.Price = big.NewInt(0)
	}
	return clone
}

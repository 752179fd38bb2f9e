package market

import "math/big"

// The reservation ledger constrains this engine's view of a holder's
// inventory. Live balances can change outside the engine, so each
// (collection, item, holder) record is seeded from the live balance on first
// touch: a holder can never commit more than they currently and provably
// hold.

func (e *Engine) liveBalance(collection [20]byte, itemID uint64, holder [20]byte) (*big.Int, error) {
	if e == nil || e.assets == nil {
		return nil, errNilAssets
	}
	return e.assets.OwnerOrBalance(collection, itemID, holder)
}

func (e *Engine) loadReservation(collection [20]byte, itemID uint64, holder [20]byte) *Reservation {
	if res, ok := e.state.ReservationGet(collection, itemID, holder); ok && res != nil {
		return res.Clone()
	}
	return &Reservation{
		Collection: collection,
		ItemID:     itemID,
		Holder:     holder,
		Committed:  big.NewInt(0),
	}
}

// reserve commits amount of the holder's free balance to an open sale.
func (e *Engine) reserve(collection [20]byte, itemID uint64, holder [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidQuantity
	}
	live, err := e.liveBalance(collection, itemID, holder)
	if err != nil {
		return err
	}
	res := e.loadReservation(collection, itemID, holder)
	if !res.Initialized {
		if live.Cmp(amount) < 0 {
			return ErrInsufficientFree
		}
		res.Committed = new(big.Int).Set(amount)
		res.Initialized = true
		return e.state.ReservationPut(res)
	}
	free := new(big.Int).Sub(live, res.Committed)
	if free.Cmp(amount) < 0 {
		return ErrInsufficientFree
	}
	res.Committed = new(big.Int).Add(res.Committed, amount)
	return e.state.ReservationPut(res)
}

// release returns amount from the committed pool to the free pool. Used on
// cancellation and, at settlement, to consume the commitment alongside the
// custody transfer.
func (e *Engine) release(collection [20]byte, itemID uint64, holder [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidQuantity
	}
	res := e.loadReservation(collection, itemID, holder)
	if !res.Initialized || res.Committed.Cmp(amount) < 0 {
		return ErrOverRelease
	}
	res.Committed = new(big.Int).Sub(res.Committed, amount)
	return e.state.ReservationPut(res)
}

// FreeAmount returns the holder's balance not committed to open sales: the
// live balance when the record was never touched, else live minus committed,
// floored at zero.
func (e *Engine) FreeAmount(collection [20]byte, itemID uint64, holder [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	live, err := e.liveBalance(collection, itemID, holder)
	if err != nil {
		return nil, err
	}
	res, ok := e.state.ReservationGet(collection, itemID, holder)
	if !ok || res == nil || !res.Initialized {
		return live, nil
	}
	free := new(big.Int).Sub(live, res.Committed)
	if free.Sign() < 0 {
		return big.NewInt(0), nil
	}
	return free, nil
}

// CommittedAmount returns the holder's committed quantity for bookkeeping
// queries.
func (e *Engine) CommittedAmount(collection [20]byte, itemID uint64, holder [20]byte) *big.Int {
	if e == nil || e.state == nil {
		return big.NewInt(0)
	}
	res, ok := e.state.ReservationGet(collection, itemID, holder)
	if !ok || res == nil || res.Committed == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(res.Committed)
}

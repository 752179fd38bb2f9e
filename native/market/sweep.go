package market

import "math/big"

// Sweep finalizes the supplied sales whose time window has elapsed. Ids that
// are unknown, already closed or not yet expired are skipped untouched. The
// batch is atomic: a failure reverts the whole call. Operator only.
func (e *Engine) Sweep(saleIDs []uint64, caller [20]byte) error {
	return e.runLocked(func() error {
		if !e.isOperator(caller) {
			return ErrNotAuthorized
		}
		now := e.now()
		for _, id := range saleIDs {
			sale, err := e.loadSale(id)
			if err != nil {
				continue
			}
			if sale.Closed() || now <= sale.EndTime {
				continue
			}
			if err := e.sweepSale(sale); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *Engine) sweepSale(sale *SaleRecord) error {
	switch sale.Kind {
	case SaleKindFixed:
		// Expired without a sale: hand the inventory back.
		if err := e.release(sale.Collection, sale.ItemID, sale.Seller, sale.Quantity); err != nil {
			return err
		}
		if err := e.tombstone(sale); err != nil {
			return err
		}
		e.emit(NewSaleCancelledEvent(sale))
		return nil
	case SaleKindAuction:
		return e.finalizeAuction(sale)
	case SaleKindOffer:
		refund := new(big.Int).Mul(sale.Quantity, sale.UnitPrice)
		if err := e.transferFunds(e.state.MarketVaultAddress(), sale.Counterparty, sale.PayMethod, refund); err != nil {
			return err
		}
		if err := e.tombstone(sale); err != nil {
			return err
		}
		e.emit(NewSaleCancelledEvent(sale))
		return nil
	default:
		return ErrWrongSaleKind
	}
}

// ListExpired enumerates open sales past their window within [start, end).
// Pure query, no mutation.
func (e *Engine) ListExpired(start, end uint64) []uint64 {
	if e == nil || e.state == nil {
		return nil
	}
	if count := e.state.SaleCount(); end > count {
		end = count
	}
	now := e.now()
	var expired []uint64
	for id := start; id < end; id++ {
		sale, ok := e.state.SaleGet(id)
		if !ok || sale == nil || sale.Closed() {
			continue
		}
		if now > sale.EndTime {
			expired = append(expired, id)
		}
	}
	return expired
}

package market

import "math/big"

// trade atomically settles quantitySettled units of the sale for totalPrice
// already held in engine custody. Side effect ordering is fixed: funds out,
// asset custody transfer, ledger mutation, event.
//
// The seller payout identity is total minus service fee minus royalty. The
// dev cut is computed on the total independently and is not part of that
// identity: when a dev recipient is configured the sum of disbursements can
// exceed the nominal total, with the overhead absorbed by engine custody.
// That asymmetry is modeled deliberately; do not fold the dev cut into the
// payout identity. The service fee stays in engine custody unless a fee
// treasury is configured, in which case it is disbursed there.
func (e *Engine) trade(sale *SaleRecord, buyer [20]byte, totalPrice, quantitySettled *big.Int) error {
	if sale == nil || sale.Closed() {
		return ErrSaleNotOpen
	}
	if totalPrice == nil || totalPrice.Sign() <= 0 {
		return ErrInvalidPrice
	}
	if quantitySettled == nil || quantitySettled.Sign() <= 0 || quantitySettled.Cmp(sale.Quantity) > 0 {
		return ErrInvalidQuantity
	}
	snapshot := sale.Clone()
	vault := e.state.MarketVaultAddress()

	serviceFee := mulBps(totalPrice, sale.FeeBps)
	royalty := mulBps(totalPrice, sale.RoyaltyBps)
	devFee := big.NewInt(0)
	if e.devConfigured() {
		devFee = mulBps(totalPrice, devFeeBps)
	}
	sellerPayout := new(big.Int).Sub(totalPrice, serviceFee)
	sellerPayout.Sub(sellerPayout, royalty)

	if sellerPayout.Sign() > 0 {
		if err := e.transferFunds(vault, sale.Seller, sale.PayMethod, sellerPayout); err != nil {
			return err
		}
	}
	if royalty.Sign() > 0 {
		if err := e.transferFunds(vault, sale.Creator, sale.PayMethod, royalty); err != nil {
			return err
		}
	}
	if serviceFee.Sign() > 0 && e.treasuryConfigured() {
		if err := e.transferFunds(vault, e.feeTreasury, sale.PayMethod, serviceFee); err != nil {
			return err
		}
	}
	if devFee.Sign() > 0 {
		if err := e.transferFunds(vault, e.devRecipient, sale.PayMethod, devFee); err != nil {
			return err
		}
	}

	if err := e.assets.Transfer(sale.Collection, sale.Seller, buyer, sale.ItemID, quantitySettled); err != nil {
		return err
	}

	if err := e.release(sale.Collection, sale.ItemID, sale.Seller, quantitySettled); err != nil {
		return err
	}
	sale.Quantity = new(big.Int).Sub(sale.Quantity, quantitySettled)
	if sale.Quantity.Sign() == 0 || sale.Kind == SaleKindOffer {
		if err := e.tombstone(sale); err != nil {
			return err
		}
	} else {
		if err := e.state.SalePut(sale); err != nil {
			return err
		}
	}

	e.emit(NewTradeEvent(snapshot, buyer, totalPrice, quantitySettled, e.now()))
	return nil
}

func mulBps(total *big.Int, bps uint32) *big.Int {
	if total == nil || bps == 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(total, new(big.Int).SetUint64(uint64(bps)))
	return out.Div(out, big.NewInt(bpsDenominator))
}

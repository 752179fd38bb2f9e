package market

import "math/big"

func findBid(bids []Bid, bidder [20]byte) int {
	for i := range bids {
		if bids[i].Bidder == bidder {
			return i
		}
	}
	return -1
}

// PlaceBid escrows a bid against an open auction. A bidder holds at most one
// active bid: rebidding refunds the previous price in full before the new
// price is captured, so a bidder can never be double-charged even when the
// replacement is lower.
func (e *Engine) PlaceBid(saleID uint64, bidder [20]byte, price *big.Int) error {
	return e.runLocked(func() error {
		sale, err := e.loadSale(saleID)
		if err != nil {
			return err
		}
		if sale.Closed() {
			return ErrSaleNotOpen
		}
		if sale.Kind != SaleKindAuction {
			return ErrWrongSaleKind
		}
		if !withinWindow(sale, e.now()) {
			return ErrSaleNotOpen
		}
		if bidder == sale.Seller {
			return ErrSelfTrade
		}
		floor := new(big.Int).Mul(sale.UnitPrice, sale.Quantity)
		if price == nil || price.Cmp(floor) < 0 {
			return ErrInsufficientFunds
		}
		vault := e.state.MarketVaultAddress()
		bids := e.state.BidListGet(saleID)
		if idx := findBid(bids, bidder); idx >= 0 {
			if err := e.transferFunds(vault, bidder, sale.PayMethod, bids[idx].Price); err != nil {
				return err
			}
			if err := e.transferFunds(bidder, vault, sale.PayMethod, price); err != nil {
				return err
			}
			bids[idx].Price = new(big.Int).Set(price)
		} else {
			if err := e.transferFunds(bidder, vault, sale.PayMethod, price); err != nil {
				return err
			}
			bids = append(bids, Bid{Bidder: bidder, Price: new(big.Int).Set(price)})
		}
		if err := e.state.BidListPut(saleID, bids); err != nil {
			return err
		}
		e.emit(NewBidPlacedEvent(sale, bidder, price))
		return nil
	})
}

// RemoveBid withdraws the bidder's active bid with a full refund. Removal
// swaps with the last entry and pops; ordering among remaining bids carries
// no meaning.
func (e *Engine) RemoveBid(saleID uint64, bidder [20]byte) error {
	return e.runLocked(func() error {
		sale, err := e.loadSale(saleID)
		if err != nil {
			return err
		}
		if sale.Closed() {
			return ErrSaleNotOpen
		}
		if sale.Kind != SaleKindAuction {
			return ErrWrongSaleKind
		}
		bids := e.state.BidListGet(saleID)
		idx := findBid(bids, bidder)
		if idx < 0 {
			return ErrNoActiveBid
		}
		price := bids[idx].Price
		if err := e.transferFunds(e.state.MarketVaultAddress(), bidder, sale.PayMethod, price); err != nil {
			return err
		}
		bids[idx] = bids[len(bids)-1]
		bids = bids[:len(bids)-1]
		if err := e.state.BidListPut(saleID, bids); err != nil {
			return err
		}
		e.emit(NewBidRemovedEvent(sale, bidder, price))
		return nil
	})
}

// Bids returns a copy of the sale's active bid list.
func (e *Engine) Bids(saleID uint64) []Bid {
	if e == nil || e.state == nil {
		return nil
	}
	return e.state.BidListGet(saleID)
}

// finalizeAuction closes an expired auction: the first-seen highest bid
// wins, every other bid is refunded in full, and the winning price settles
// through the settlement routine. Without a usable winning bid the seller's
// reservation is released and the sale tombstones with no settlement.
func (e *Engine) finalizeAuction(sale *SaleRecord) error {
	bids := e.state.BidListGet(sale.ID)
	winner := -1
	for i := range bids {
		if bids[i].Price == nil || bids[i].Price.Sign() == 0 {
			continue
		}
		if winner < 0 || bids[i].Price.Cmp(bids[winner].Price) > 0 {
			winner = i
		}
	}
	vault := e.state.MarketVaultAddress()
	for i := range bids {
		if i == winner {
			continue
		}
		if err := e.transferFunds(vault, bids[i].Bidder, sale.PayMethod, bids[i].Price); err != nil {
			return err
		}
	}
	if err := e.state.BidListPut(sale.ID, nil); err != nil {
		return err
	}
	if winner < 0 {
		if err := e.release(sale.Collection, sale.ItemID, sale.Seller, sale.Quantity); err != nil {
			return err
		}
		if err := e.tombstone(sale); err != nil {
			return err
		}
		e.emit(NewSaleCancelledEvent(sale))
		return nil
	}
	sale.Counterparty = bids[winner].Bidder
	return e.trade(sale, bids[winner].Bidder, bids[winner].Price, big.NewInt(1))
}

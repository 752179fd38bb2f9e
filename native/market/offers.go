package market

import "math/big"

// AcceptOffer settles an open offer against the owner's current inventory.
// If free inventory has shrunk below the offered quantity since the offer
// was made, only the available amount settles and the shortfall is refunded
// to the offerer before settlement. Partial fulfillment is a first-class
// outcome, not an error.
func (e *Engine) AcceptOffer(saleID uint64, caller [20]byte) error {
	return e.runLocked(func() error {
		sale, err := e.loadSale(saleID)
		if err != nil {
			return err
		}
		if sale.Closed() {
			return ErrSaleNotOpen
		}
		if sale.Kind != SaleKindOffer {
			return ErrWrongSaleKind
		}
		if !withinWindow(sale, e.now()) {
			return ErrSaleNotOpen
		}
		if caller != sale.Seller {
			return ErrNotAuthorized
		}
		free, err := e.FreeAmount(sale.Collection, sale.ItemID, sale.Seller)
		if err != nil {
			return err
		}
		available := new(big.Int).Set(sale.Quantity)
		if free.Cmp(available) < 0 {
			available = new(big.Int).Set(free)
		}
		if available.Sign() == 0 {
			return ErrInsufficientFree
		}
		shortfall := new(big.Int).Sub(sale.Quantity, available)
		if shortfall.Sign() > 0 {
			refund := new(big.Int).Mul(shortfall, sale.UnitPrice)
			if err := e.transferFunds(e.state.MarketVaultAddress(), sale.Counterparty, sale.PayMethod, refund); err != nil {
				return err
			}
		}
		if err := e.reserve(sale.Collection, sale.ItemID, sale.Seller, available); err != nil {
			return err
		}
		total := new(big.Int).Mul(available, sale.UnitPrice)
		return e.trade(sale, sale.Counterparty, total, available)
	})
}

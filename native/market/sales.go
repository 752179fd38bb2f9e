package market

import (
	"math/big"

	"curio/native/assets"
)

// CreateFixedSale lists quantity copies of an item at a fixed unit price.
// The seller's inventory is committed in the reservation ledger for the
// lifetime of the listing.
func (e *Engine) CreateFixedSale(collection [20]byte, itemID uint64, seller [20]byte, quantity *big.Int, payMethod uint8, durationSecs int64, unitPrice *big.Int, royaltyOverride *uint32) (*SaleRecord, error) {
	var sale *SaleRecord
	err := e.run(func() error {
		var err error
		sale, err = e.createListing(SaleKindFixed, collection, itemID, seller, quantity, payMethod, durationSecs, unitPrice, royaltyOverride)
		return err
	})
	return sale, err
}

// CreateAuction lists exactly one copy for timed bidding. The unit price is
// the reserve price bids must meet.
func (e *Engine) CreateAuction(collection [20]byte, itemID uint64, seller [20]byte, payMethod uint8, durationSecs int64, unitPrice *big.Int, royaltyOverride *uint32) (*SaleRecord, error) {
	var sale *SaleRecord
	err := e.run(func() error {
		var err error
		sale, err = e.createListing(SaleKindAuction, collection, itemID, seller, big.NewInt(1), payMethod, durationSecs, unitPrice, royaltyOverride)
		return err
	})
	return sale, err
}

func (e *Engine) createListing(kind SaleKind, collection [20]byte, itemID uint64, seller [20]byte, quantity *big.Int, payMethod uint8, durationSecs int64, unitPrice *big.Int, royaltyOverride *uint32) (*SaleRecord, error) {
	if e.assets == nil {
		return nil, errNilAssets
	}
	if quantity == nil || quantity.Sign() <= 0 {
		return nil, ErrInvalidQuantity
	}
	if durationSecs <= 0 {
		return nil, ErrInvalidDuration
	}
	if unitPrice == nil || unitPrice.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	assetKind := e.assets.Classify(collection)
	if !assetKind.Valid() {
		return nil, assets.ErrUnsupportedAsset
	}
	one := big.NewInt(1)
	if kind == SaleKindAuction && quantity.Cmp(one) != 0 {
		return nil, ErrInvalidQuantity
	}
	if assetKind == assets.KindUnique && quantity.Cmp(one) != 0 {
		return nil, ErrInvalidQuantity
	}
	if _, err := e.payMethodSymbol(payMethod); err != nil {
		return nil, err
	}
	live, err := e.liveBalance(collection, itemID, seller)
	if err != nil {
		return nil, err
	}
	if live.Cmp(quantity) < 0 {
		return nil, ErrNotOwner
	}
	creator, err := e.assets.CreatorOf(collection, itemID)
	if err != nil {
		return nil, err
	}
	if err := e.reserve(collection, itemID, seller, quantity); err != nil {
		return nil, err
	}
	now := e.now()
	royalty := e.royaltyBps
	if royaltyOverride != nil {
		royalty = *royaltyOverride
		if royalty > bpsDenominator {
			royalty = bpsDenominator
		}
	}
	sale := &SaleRecord{
		Creator:    creator,
		Seller:     seller,
		Collection: collection,
		ItemID:     itemID,
		Quantity:   new(big.Int).Set(quantity),
		PayMethod:  payMethod,
		UnitPrice:  new(big.Int).Set(unitPrice),
		Kind:       kind,
		StartTime:  now,
		EndTime:    now + durationSecs,
		FeeBps:     e.feeBps,
		RoyaltyBps: royalty,
	}
	id, err := e.state.SaleAppend(sale)
	if err != nil {
		return nil, err
	}
	sale.ID = id
	if err := e.state.SalePut(sale); err != nil {
		return nil, err
	}
	e.emit(NewSaleListedEvent(sale))
	return sale.Clone(), nil
}

// CreateOffer records an unsolicited offer against the owner's inventory.
// The offerer's payment is captured into engine custody immediately; the
// owner's inventory is only checked and committed at acceptance time.
func (e *Engine) CreateOffer(collection [20]byte, itemID uint64, owner, offerer [20]byte, quantity *big.Int, payMethod uint8, unitPrice *big.Int, durationSecs int64) (*SaleRecord, error) {
	var sale *SaleRecord
	err := e.runLocked(func() error {
		if e.assets == nil {
			return errNilAssets
		}
		if offerer == owner {
			return ErrSelfTrade
		}
		if quantity == nil || quantity.Sign() <= 0 {
			return ErrInvalidQuantity
		}
		if durationSecs <= 0 {
			return ErrInvalidDuration
		}
		if unitPrice == nil || unitPrice.Sign() <= 0 {
			return ErrInvalidPrice
		}
		assetKind := e.assets.Classify(collection)
		if !assetKind.Valid() {
			return assets.ErrUnsupportedAsset
		}
		if assetKind == assets.KindUnique && quantity.Cmp(big.NewInt(1)) != 0 {
			return ErrInvalidQuantity
		}
		creator, err := e.assets.CreatorOf(collection, itemID)
		if err != nil {
			return err
		}
		escrow := new(big.Int).Mul(quantity, unitPrice)
		if err := e.transferFunds(offerer, e.state.MarketVaultAddress(), payMethod, escrow); err != nil {
			return err
		}
		now := e.now()
		sale = &SaleRecord{
			Creator:      creator,
			Seller:       owner,
			Collection:   collection,
			ItemID:       itemID,
			Quantity:     new(big.Int).Set(quantity),
			PayMethod:    payMethod,
			UnitPrice:    new(big.Int).Set(unitPrice),
			Kind:         SaleKindOffer,
			StartTime:    now,
			EndTime:      now + durationSecs,
			FeeBps:       e.feeBps,
			RoyaltyBps:   e.royaltyBps,
			Counterparty: offerer,
		}
		id, err := e.state.SaleAppend(sale)
		if err != nil {
			return err
		}
		sale.ID = id
		if err := e.state.SalePut(sale); err != nil {
			return err
		}
		e.emit(NewOfferMadeEvent(sale))
		sale = sale.Clone()
		return nil
	})
	return sale, err
}

// Cancel tombstones an open sale. Auctions cannot be cancelled; they run to
// expiry. Fixed sales release the seller's reservation; offers always refund
// the escrowed payment to the offerer before closing.
func (e *Engine) Cancel(saleID uint64, caller [20]byte) error {
	return e.runLocked(func() error {
		sale, err := e.loadSale(saleID)
		if err != nil {
			return err
		}
		if sale.Closed() {
			return ErrSaleNotOpen
		}
		if sale.Kind == SaleKindAuction {
			return ErrWrongSaleKind
		}
		return e.cancelSale(sale, caller)
	})
}

func (e *Engine) cancelSale(sale *SaleRecord, caller [20]byte) error {
	switch sale.Kind {
	case SaleKindFixed:
		if caller != sale.Seller && !e.isOperator(caller) {
			return ErrNotAuthorized
		}
		if err := e.release(sale.Collection, sale.ItemID, sale.Seller, sale.Quantity); err != nil {
			return err
		}
	case SaleKindOffer:
		if caller != sale.Counterparty && caller != sale.Seller && !e.isOperator(caller) {
			return ErrNotAuthorized
		}
		refund := new(big.Int).Mul(sale.Quantity, sale.UnitPrice)
		if err := e.transferFunds(e.state.MarketVaultAddress(), sale.Counterparty, sale.PayMethod, refund); err != nil {
			return err
		}
	default:
		return ErrWrongSaleKind
	}
	if err := e.tombstone(sale); err != nil {
		return err
	}
	e.emit(NewSaleCancelledEvent(sale))
	return nil
}

// Buy purchases up to the outstanding quantity of a fixed-price sale. The
// payment argument is the amount the buyer commits; it must cover the total
// and the engine pulls exactly the total.
func (e *Engine) Buy(saleID uint64, buyer [20]byte, amount *big.Int, payment *big.Int) error {
	return e.runLocked(func() error {
		sale, err := e.loadSale(saleID)
		if err != nil {
			return err
		}
		if sale.Closed() {
			return ErrSaleNotOpen
		}
		if sale.Kind != SaleKindFixed {
			return ErrWrongSaleKind
		}
		if !withinWindow(sale, e.now()) {
			return ErrSaleNotOpen
		}
		if buyer == sale.Seller {
			return ErrSelfTrade
		}
		if amount == nil || amount.Sign() <= 0 || amount.Cmp(sale.Quantity) > 0 {
			return ErrInvalidQuantity
		}
		total := new(big.Int).Mul(amount, sale.UnitPrice)
		if payment == nil || payment.Cmp(total) < 0 {
			return ErrInsufficientFunds
		}
		if err := e.transferFunds(buyer, e.state.MarketVaultAddress(), sale.PayMethod, total); err != nil {
			return err
		}
		sale.Counterparty = buyer
		return e.trade(sale, buyer, total, amount)
	})
}

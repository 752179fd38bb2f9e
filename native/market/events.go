package market

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"curio/core/types"
)

const (
	EventTypeSaleListed    = "market.sale.listed"
	EventTypeSaleCancelled = "market.sale.cancelled"
	EventTypeBidPlaced     = "market.bid.placed"
	EventTypeBidRemoved    = "market.bid.removed"
	EventTypeOfferMade     = "market.offer.made"
	EventTypeTradeExecuted = "market.trade"
)

// NewSaleListedEvent returns the canonical payload for a new listing.
func NewSaleListedEvent(s *SaleRecord) *types.Event {
	return newSaleEvent(EventTypeSaleListed, s)
}

// NewSaleCancelledEvent returns the canonical payload for a cancelled or
// expired-without-sale record.
func NewSaleCancelledEvent(s *SaleRecord) *types.Event {
	return newSaleEvent(EventTypeSaleCancelled, s)
}

// NewOfferMadeEvent returns the canonical payload for a recorded offer.
func NewOfferMadeEvent(s *SaleRecord) *types.Event {
	return newSaleEvent(EventTypeOfferMade, s)
}

// NewBidPlacedEvent returns the payload emitted when a bid is accepted.
func NewBidPlacedEvent(s *SaleRecord, bidder [20]byte, price *big.Int) *types.Event {
	evt := newSaleEvent(EventTypeBidPlaced, s)
	evt.Attributes["bidder"] = hex.EncodeToString(bidder[:])
	if price != nil {
		evt.Attributes["price"] = price.String()
	}
	return evt
}

// NewBidRemovedEvent returns the payload emitted when a bid is withdrawn
// and refunded.
func NewBidRemovedEvent(s *SaleRecord, bidder [20]byte, price *big.Int) *types.Event {
	evt := newSaleEvent(EventTypeBidRemoved, s)
	evt.Attributes["bidder"] = hex.EncodeToString(bidder[:])
	if price != nil {
		evt.Attributes["refund"] = price.String()
	}
	return evt
}

// NewTradeEvent returns the payload for an executed trade. The sale snapshot
// is the pre-decrement record so indexers see the state the trade settled
// against.
func NewTradeEvent(snapshot *SaleRecord, buyer [20]byte, totalPrice, settled *big.Int, ts int64) *types.Event {
	evt := newSaleEvent(EventTypeTradeExecuted, snapshot)
	evt.Attributes["buyer"] = hex.EncodeToString(buyer[:])
	if totalPrice != nil {
		evt.Attributes["totalPrice"] = totalPrice.String()
	}
	if settled != nil {
		evt.Attributes["settled"] = settled.String()
	}
	evt.Attributes["timestamp"] = strconv.FormatInt(ts, 10)
	return evt
}

func newSaleEvent(eventType string, s *SaleRecord) *types.Event {
	attrs := make(map[string]string)
	if s == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	sanitized, err := SanitizeSale(s)
	if err != nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["saleId"] = strconv.FormatUint(sanitized.ID, 10)
	attrs["kind"] = sanitized.Kind.String()
	attrs["seller"] = hex.EncodeToString(sanitized.Seller[:])
	attrs["creator"] = hex.EncodeToString(sanitized.Creator[:])
	attrs["collection"] = hex.EncodeToString(sanitized.Collection[:])
	attrs["itemId"] = strconv.FormatUint(sanitized.ItemID, 10)
	attrs["quantity"] = sanitized.Quantity.String()
	attrs["payMethod"] = strconv.FormatUint(uint64(sanitized.PayMethod), 10)
	attrs["unitPrice"] = sanitized.UnitPrice.String()
	attrs["startTime"] = strconv.FormatInt(sanitized.StartTime, 10)
	attrs["endTime"] = strconv.FormatInt(sanitized.EndTime, 10)
	attrs["feeBps"] = strconv.FormatUint(uint64(sanitized.FeeBps), 10)
	attrs["royaltyBps"] = strconv.FormatUint(uint64(sanitized.RoyaltyBps), 10)
	if sanitized.Counterparty != ([20]byte{}) {
		attrs["counterparty"] = hex.EncodeToString(sanitized.Counterparty[:])
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

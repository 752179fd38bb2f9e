package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"curio/native/assets"
	nativecommon "curio/native/common"
	"curio/native/market"
)

type createFixedSaleParams struct {
	Seller     string  `json:"seller"`
	Collection string  `json:"collection"`
	ItemID     uint64  `json:"itemId"`
	Quantity   string  `json:"quantity"`
	PayMethod  uint8   `json:"payMethod"`
	Duration   int64   `json:"durationSecs"`
	UnitPrice  string  `json:"unitPrice"`
	RoyaltyBps *uint32 `json:"royaltyBps,omitempty"`
}

type createAuctionParams struct {
	Seller       string  `json:"seller"`
	Collection   string  `json:"collection"`
	ItemID       uint64  `json:"itemId"`
	PayMethod    uint8   `json:"payMethod"`
	Duration     int64   `json:"durationSecs"`
	ReservePrice string  `json:"reservePrice"`
	RoyaltyBps   *uint32 `json:"royaltyBps,omitempty"`
}

type createOfferParams struct {
	Offerer    string `json:"offerer"`
	Owner      string `json:"owner"`
	Collection string `json:"collection"`
	ItemID     uint64 `json:"itemId"`
	Quantity   string `json:"quantity"`
	PayMethod  uint8  `json:"payMethod"`
	UnitPrice  string `json:"unitPrice"`
	Duration   int64  `json:"durationSecs"`
}

type buyParams struct {
	Buyer   string `json:"buyer"`
	SaleID  uint64 `json:"saleId"`
	Amount  string `json:"amount"`
	Payment string `json:"payment"`
}

type bidParams struct {
	Bidder string `json:"bidder"`
	SaleID uint64 `json:"saleId"`
	Price  string `json:"price,omitempty"`
}

type saleCallParams struct {
	Caller string `json:"caller"`
	SaleID uint64 `json:"saleId"`
}

type saleQueryParams struct {
	SaleID uint64 `json:"saleId"`
}

type freeQueryParams struct {
	Collection string `json:"collection"`
	ItemID     uint64 `json:"itemId"`
	Holder     string `json:"holder"`
}

type listExpiredParams struct {
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

type sweepParams struct {
	Caller  string   `json:"caller"`
	SaleIDs []uint64 `json:"saleIds"`
}

type setRatiosParams struct {
	FeeBps     *uint32 `json:"feeBps,omitempty"`
	RoyaltyBps *uint32 `json:"royaltyBps,omitempty"`
}

type setDevRecipientParams struct {
	Recipient string `json:"recipient"`
}

type setFeeTreasuryParams struct {
	Treasury string `json:"treasury"`
}

type setPausedParams struct {
	Module string `json:"module"`
	Paused bool   `json:"paused"`
}

type saleResult struct {
	SaleID       uint64 `json:"saleId"`
	Kind         string `json:"kind"`
	Seller       string `json:"seller"`
	Creator      string `json:"creator"`
	Collection   string `json:"collection"`
	ItemID       uint64 `json:"itemId"`
	Quantity     string `json:"quantity"`
	PayMethod    uint8  `json:"payMethod"`
	UnitPrice    string `json:"unitPrice"`
	StartTime    int64  `json:"startTime"`
	EndTime      int64  `json:"endTime"`
	FeeBps       uint32 `json:"feeBps"`
	RoyaltyBps   uint32 `json:"royaltyBps"`
	Counterparty string `json:"counterparty,omitempty"`
	Open         bool   `json:"open"`
}

type bidResult struct {
	Bidder string `json:"bidder"`
	Price  string `json:"price"`
}

func formatSale(sale *market.SaleRecord) saleResult {
	result := saleResult{
		SaleID:     sale.ID,
		Kind:       sale.Kind.String(),
		Seller:     formatAddress(sale.Seller),
		Creator:    formatAddress(sale.Creator),
		Collection: formatAddress(sale.Collection),
		ItemID:     sale.ItemID,
		Quantity:   bigString(sale.Quantity),
		PayMethod:  sale.PayMethod,
		UnitPrice:  bigString(sale.UnitPrice),
		StartTime:  sale.StartTime,
		EndTime:    sale.EndTime,
		FeeBps:     sale.FeeBps,
		RoyaltyBps: sale.RoyaltyBps,
		Open:       !sale.Closed(),
	}
	if sale.Counterparty != ([20]byte{}) {
		result.Counterparty = formatAddress(sale.Counterparty)
	}
	return result
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount is required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}

func decodeSingleParam(req *RPCRequest, out interface{}) *RPCError {
	if len(req.Params) != 1 {
		return &RPCError{Code: codeInvalidParams, Message: "exactly one parameter object expected"}
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return &RPCError{Code: codeInvalidParams, Message: "invalid parameter object", Data: err.Error()}
	}
	return nil
}

// marketErrorCode buckets engine failures the way the escrow module buckets
// its own: caller mistakes surface as invalid params, domain rejections get
// the module code.
func marketErrorCode(err error) int {
	switch {
	case errors.Is(err, market.ErrInvalidQuantity),
		errors.Is(err, market.ErrInvalidDuration),
		errors.Is(err, market.ErrInvalidPrice),
		errors.Is(err, market.ErrUnsupportedPayMethod),
		errors.Is(err, assets.ErrUnsupportedAsset),
		errors.Is(err, assets.ErrUnknownItem):
		return codeInvalidParams
	case errors.Is(err, market.ErrNotAuthorized),
		errors.Is(err, nativecommon.ErrModulePaused):
		return codeUnauthorized
	default:
		return codeMarketError
	}
}

func writeMarketError(w http.ResponseWriter, id interface{}, err error) {
	writeError(w, http.StatusBadRequest, id, marketErrorCode(err), "market operation failed", err.Error())
}

func (s *Server) handleMarketCreateFixedSale(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params createFixedSaleParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	seller, err := decodeAddress(params.Seller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid seller address", err.Error())
		return
	}
	collection, err := decodeAddress(params.Collection)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid collection address", err.Error())
		return
	}
	quantity, err := parseAmount(params.Quantity)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	unitPrice, err := parseAmount(params.UnitPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	sale, err := s.node.MarketCreateFixedSale(collection, params.ItemID, seller, quantity, params.PayMethod, params.Duration, unitPrice, params.RoyaltyBps)
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatSale(sale))
}

func (s *Server) handleMarketCreateAuction(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params createAuctionParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	seller, err := decodeAddress(params.Seller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid seller address", err.Error())
		return
	}
	collection, err := decodeAddress(params.Collection)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid collection address", err.Error())
		return
	}
	reserve, err := parseAmount(params.ReservePrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	sale, err := s.node.MarketCreateAuction(collection, params.ItemID, seller, params.PayMethod, params.Duration, reserve, params.RoyaltyBps)
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatSale(sale))
}

func (s *Server) handleMarketCreateOffer(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params createOfferParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	offerer, err := decodeAddress(params.Offerer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid offerer address", err.Error())
		return
	}
	owner, err := decodeAddress(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid owner address", err.Error())
		return
	}
	collection, err := decodeAddress(params.Collection)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid collection address", err.Error())
		return
	}
	quantity, err := parseAmount(params.Quantity)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	unitPrice, err := parseAmount(params.UnitPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	sale, err := s.node.MarketCreateOffer(collection, params.ItemID, owner, offerer, quantity, params.PayMethod, unitPrice, params.Duration)
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatSale(sale))
}

func (s *Server) handleMarketBuy(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params buyParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	buyer, err := decodeAddress(params.Buyer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid buyer address", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	payment, err := parseAmount(params.Payment)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.MarketBuy(params.SaleID, buyer, amount, payment); err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"saleId": params.SaleID, "settled": amount.String()})
}

func (s *Server) handleMarketPlaceBid(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params bidParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	bidder, err := decodeAddress(params.Bidder)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid bidder address", err.Error())
		return
	}
	price, err := parseAmount(params.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.MarketPlaceBid(params.SaleID, bidder, price); err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"saleId": params.SaleID, "price": price.String()})
}

func (s *Server) handleMarketRemoveBid(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params bidParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	bidder, err := decodeAddress(params.Bidder)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid bidder address", err.Error())
		return
	}
	if err := s.node.MarketRemoveBid(params.SaleID, bidder); err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"saleId": params.SaleID, "removed": true})
}

func (s *Server) handleMarketAcceptOffer(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params saleCallParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.node.MarketAcceptOffer(params.SaleID, caller); err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"saleId": params.SaleID, "accepted": true})
}

func (s *Server) handleMarketCancel(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params saleCallParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.node.MarketCancel(params.SaleID, caller); err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"saleId": params.SaleID, "cancelled": true})
}

func (s *Server) handleMarketGetSale(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params saleQueryParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	sale, err := s.node.MarketGetSale(params.SaleID)
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatSale(sale))
}

func (s *Server) handleMarketListBids(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params saleQueryParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	bids := s.node.MarketBids(params.SaleID)
	results := make([]bidResult, 0, len(bids))
	for _, bid := range bids {
		results = append(results, bidResult{Bidder: formatAddress(bid.Bidder), Price: bigString(bid.Price)})
	}
	writeResult(w, req.ID, results)
}

func (s *Server) handleMarketFree(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params freeQueryParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	collection, err := decodeAddress(params.Collection)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid collection address", err.Error())
		return
	}
	holder, err := decodeAddress(params.Holder)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid holder address", err.Error())
		return
	}
	free, err := s.node.MarketFreeAmount(collection, params.ItemID, holder)
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	committed := s.node.MarketCommittedAmount(collection, params.ItemID, holder)
	writeResult(w, req.ID, map[string]string{"free": free.String(), "committed": bigString(committed)})
}

func (s *Server) handleMarketListExpired(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params listExpiredParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	ids := s.node.MarketListExpired(params.Start, params.End)
	if ids == nil {
		ids = []uint64{}
	}
	writeResult(w, req.ID, ids)
}

func (s *Server) handleMarketSweep(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params sweepParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.node.MarketSweep(params.SaleIDs, caller); err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"swept": len(params.SaleIDs)})
}

func (s *Server) handleMarketSetRatios(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params setRatiosParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	if params.FeeBps != nil {
		s.node.MarketSetDefaultFeeBps(*params.FeeBps)
	}
	if params.RoyaltyBps != nil {
		s.node.MarketSetDefaultRoyaltyBps(*params.RoyaltyBps)
	}
	writeResult(w, req.ID, map[string]uint32{
		"feeBps":     s.node.MarketDefaultFeeBps(),
		"royaltyBps": s.node.MarketDefaultRoyaltyBps(),
	})
}

func (s *Server) handleMarketSetDevRecipient(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params setDevRecipientParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	recipient, err := decodeAddress(params.Recipient)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid recipient address", err.Error())
		return
	}
	s.node.MarketSetDevRecipient(recipient)
	writeResult(w, req.ID, map[string]string{"recipient": formatAddress(recipient)})
}

func (s *Server) handleMarketSetFeeTreasury(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params setFeeTreasuryParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	treasury, err := decodeAddress(params.Treasury)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid treasury address", err.Error())
		return
	}
	s.node.MarketSetFeeTreasury(treasury)
	writeResult(w, req.ID, map[string]string{"treasury": formatAddress(treasury)})
}

func (s *Server) handleMarketSetPaused(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params setPausedParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	module := strings.TrimSpace(params.Module)
	if module == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "module is required", nil)
		return
	}
	s.node.SetPaused(module, params.Paused)
	writeResult(w, req.ID, map[string]interface{}{"module": module, "paused": params.Paused})
}

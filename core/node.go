package core

import (
	"math/big"
	"sync"

	"curio/native/assets"
	"curio/native/market"
	"curio/state"
)

// Node owns the shared engine stack for a running service. The market
// engine and state manager execute one call at a time; stateMu serializes
// every operation so concurrent RPC requests and the background sweeper
// reconstruct that execution model over one shared manager.
type Node struct {
	stateMu sync.Mutex
	state   *state.Manager
	engine  *market.Engine
	assets  *assets.Adapter
}

// NewNode wraps an already wired engine stack.
func NewNode(manager *state.Manager, engine *market.Engine, adapter *assets.Adapter) *Node {
	return &Node{state: manager, engine: engine, assets: adapter}
}

func (n *Node) MarketCreateFixedSale(collection [20]byte, itemID uint64, seller [20]byte, quantity *big.Int, payMethod uint8, durationSecs int64, unitPrice *big.Int, royaltyOverride *uint32) (*market.SaleRecord, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	return n.engine.CreateFixedSale(collection, itemID, seller, quantity, payMethod, durationSecs, unitPrice, royaltyOverride)
}

func (n *Node) MarketCreateAuction(collection [20]byte, itemID uint64, seller [20]byte, payMethod uint8, durationSecs int64, unitPrice *big.Int, royaltyOverride *uint32) (*market.SaleRecord, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	return n.engine.CreateAuction(collection, itemID, seller, payMethod, durationSecs, unitPrice, royaltyOverride)
}

func (n *Node) MarketCreateOffer(collection [20]byte, itemID uint64, owner, offerer [20]byte, quantity *big.Int, payMethod uint8, unitPrice *big.Int, durationSecs int64) (*market.SaleRecord, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	return n.engine.CreateOffer(collection, itemID, owner, offerer, quantity, payMethod, unitPrice, durationSecs)
}

func (n *Node) MarketBuy(saleID uint64, buyer [20]byte, amount, payment *big.Int) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	return n.engine.Buy(saleID, buyer, amount, payment)
}

func (n *Node) MarketPlaceBid(saleID uint64, bidder [20]byte, price *big.Int) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	return n.engine.PlaceBid(saleID, bidder, price)
}

func (n *Node) MarketRemoveBid(saleID uint64, bidder [20]byte) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	return n.engine.RemoveBid(saleID, bidder)
}

func (n *Node) MarketAcceptOffer(saleID uint64, caller [20]byte) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	return n.engine.AcceptOffer(saleID, caller)
}

func (n *Node) MarketCancel(saleID uint64, caller [20]byte) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	return n.engine.Cancel(saleID, caller)
}

func (n *Node) MarketGetSale(id uint64) (*market.SaleRecord, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	return n.engine.GetSale(id)
}

func (n *Node) MarketBids(saleID uint64) []market.Bid {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	return n.engine.Bids(saleID)
}

func (n *Node) MarketFreeAmount(collection [20]byte, itemID uint64, holder [20]byte) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	return n.engine.FreeAmount(collection, itemID, holder)
}

func (n *Node) MarketCommittedAmount(collection [20]byte, itemID uint64, holder [20]byte) *big.Int {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	return n.engine.CommittedAmount(collection, itemID, holder)
}

func (n *Node) MarketListExpired(start, end uint64) []uint64 {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	return n.engine.ListExpired(start, end)
}

func (n *Node) MarketSweep(saleIDs []uint64, caller [20]byte) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	return n.engine.Sweep(saleIDs, caller)
}

func (n *Node) MarketSetDefaultFeeBps(bps uint32) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	n.engine.SetDefaultFeeBps(bps)
}

func (n *Node) MarketSetDefaultRoyaltyBps(bps uint32) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	n.engine.SetDefaultRoyaltyBps(bps)
}

func (n *Node) MarketDefaultFeeBps() uint32 {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	return n.engine.DefaultFeeBps()
}

func (n *Node) MarketDefaultRoyaltyBps() uint32 {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	return n.engine.DefaultRoyaltyBps()
}

func (n *Node) MarketSetDevRecipient(addr [20]byte) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	n.engine.SetDevRecipient(addr)
}

func (n *Node) MarketSetFeeTreasury(addr [20]byte) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	n.engine.SetFeeTreasury(addr)
}

func (n *Node) SetPaused(module string, paused bool) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	n.state.SetPaused(module, paused)
}

func (n *Node) AssetsRegister(address [20]byte, kind assets.Kind, name string) (*assets.Collection, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	return n.assets.Register(address, kind, name)
}

func (n *Node) AssetsMint(collection [20]byte, itemID uint64, creator, holder [20]byte, uri string, amount *big.Int) (*assets.Item, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	return n.assets.Mint(collection, itemID, creator, holder, uri, amount)
}

func (n *Node) AssetsOwnerOrBalance(collection [20]byte, itemID uint64, holder [20]byte) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	return n.assets.OwnerOrBalance(collection, itemID, holder)
}

func (n *Node) AssetsLocator(collection [20]byte, itemID uint64) (string, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	return n.assets.Locator(collection, itemID)
}

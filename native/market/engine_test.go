package market

import (
	"bytes"
	"fmt"
	"math/big"
	"testing"

	"curio/core/events"
	"curio/core/types"
	"curio/native/assets"
)

type reservationKey struct {
	collection [20]byte
	itemID     uint64
	holder     [20]byte
}

type mockState struct {
	accounts     map[[20]byte]*types.Account
	sales        []*SaleRecord
	reservations map[reservationKey]*Reservation
	bids         map[uint64][]Bid
	payTokens    []string
	vault        [20]byte
	snapshots    []*mockState
}

func newMockState() *mockState {
	return &mockState{
		accounts:     make(map[[20]byte]*types.Account),
		reservations: make(map[reservationKey]*Reservation),
		bids:         make(map[uint64][]Bid),
		payTokens:    []string{"CRO"},
		vault:        newTestAddress(0xEE),
	}
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

func (m *mockState) copyData() *mockState {
	clone := &mockState{
		accounts:     make(map[[20]byte]*types.Account, len(m.accounts)),
		sales:        make([]*SaleRecord, len(m.sales)),
		reservations: make(map[reservationKey]*Reservation, len(m.reservations)),
		bids:         make(map[uint64][]Bid, len(m.bids)),
		payTokens:    append([]string(nil), m.payTokens...),
		vault:        m.vault,
	}
	for addr, acc := range m.accounts {
		clone.accounts[addr] = acc.Clone()
	}
	for i, sale := range m.sales {
		clone.sales[i] = sale.Clone()
	}
	for key, res := range m.reservations {
		clone.reservations[key] = res.Clone()
	}
	for id, bids := range m.bids {
		cloned := make([]Bid, len(bids))
		for i := range bids {
			cloned[i] = bids[i].Clone()
		}
		clone.bids[id] = cloned
	}
	return clone
}

func (m *mockState) Snapshot() int {
	m.snapshots = append(m.snapshots, m.copyData())
	return len(m.snapshots) - 1
}

func (m *mockState) RevertToSnapshot(rev int) {
	if rev < 0 || rev >= len(m.snapshots) {
		return
	}
	snap := m.snapshots[rev]
	m.accounts = snap.accounts
	m.sales = snap.sales
	m.reservations = snap.reservations
	m.bids = snap.bids
	m.payTokens = snap.payTokens
	m.snapshots = m.snapshots[:rev]
}

func (m *mockState) SaleCount() uint64 { return uint64(len(m.sales)) }

func (m *mockState) SaleAppend(sale *SaleRecord) (uint64, error) {
	if sale == nil {
		return 0, fmt.Errorf("nil sale")
	}
	id := uint64(len(m.sales))
	clone := sale.Clone()
	clone.ID = id
	m.sales = append(m.sales, clone)
	return id, nil
}

func (m *mockState) SalePut(sale *SaleRecord) error {
	if sale == nil || sale.ID >= uint64(len(m.sales)) {
		return fmt.Errorf("unknown sale")
	}
	m.sales[sale.ID] = sale.Clone()
	return nil
}

func (m *mockState) SaleGet(id uint64) (*SaleRecord, bool) {
	if id >= uint64(len(m.sales)) {
		return nil, false
	}
	return m.sales[id].Clone(), true
}

func (m *mockState) ReservationGet(collection [20]byte, itemID uint64, holder [20]byte) (*Reservation, bool) {
	res, ok := m.reservations[reservationKey{collection, itemID, holder}]
	if !ok {
		return nil, false
	}
	return res.Clone(), true
}

func (m *mockState) ReservationPut(res *Reservation) error {
	if res == nil {
		return fmt.Errorf("nil reservation")
	}
	m.reservations[reservationKey{res.Collection, res.ItemID, res.Holder}] = res.Clone()
	return nil
}

func (m *mockState) BidListGet(saleID uint64) []Bid {
	bids := m.bids[saleID]
	if len(bids) == 0 {
		return nil
	}
	out := make([]Bid, len(bids))
	for i := range bids {
		out[i] = bids[i].Clone()
	}
	return out
}

func (m *mockState) BidListPut(saleID uint64, bids []Bid) error {
	if len(bids) == 0 {
		delete(m.bids, saleID)
		return nil
	}
	stored := make([]Bid, len(bids))
	for i := range bids {
		stored[i] = bids[i].Clone()
	}
	m.bids[saleID] = stored
	return nil
}

func (m *mockState) PayTokenResolve(method uint8) (string, bool) {
	if method == 0 {
		return "", true
	}
	idx := int(method) - 1
	if idx >= len(m.payTokens) {
		return "", false
	}
	return m.payTokens[idx], true
}

func (m *mockState) MarketVaultAddress() [20]byte { return m.vault }

func (m *mockState) GetAccount(addr []byte) (*types.Account, error) {
	var key [20]byte
	copy(key[:], addr)
	acc, ok := m.accounts[key]
	if !ok {
		return nil, nil
	}
	return acc.Clone(), nil
}

func (m *mockState) PutAccount(addr []byte, account *types.Account) error {
	var key [20]byte
	copy(key[:], addr)
	m.accounts[key] = account.Clone()
	return nil
}

func (m *mockState) setBalance(addr [20]byte, amount int64) {
	m.accounts[addr] = &types.Account{Balance: big.NewInt(amount)}
}

func (m *mockState) balance(addr [20]byte) *big.Int {
	acc, ok := m.accounts[addr]
	if !ok || acc.Balance == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(acc.Balance)
}

type assetKey struct {
	collection [20]byte
	itemID     uint64
}

type mockAssets struct {
	kinds    map[[20]byte]assets.Kind
	creators map[assetKey][20]byte
	uris     map[assetKey]string
	holdings map[assetKey]map[[20]byte]*big.Int
	failNext bool
}

func newMockAssets() *mockAssets {
	return &mockAssets{
		kinds:    make(map[[20]byte]assets.Kind),
		creators: make(map[assetKey][20]byte),
		uris:     make(map[assetKey]string),
		holdings: make(map[assetKey]map[[20]byte]*big.Int),
	}
}

func (a *mockAssets) addItem(collection [20]byte, kind assets.Kind, itemID uint64, creator, holder [20]byte, amount int64) {
	a.kinds[collection] = kind
	key := assetKey{collection, itemID}
	a.creators[key] = creator
	a.uris[key] = fmt.Sprintf("ipfs://item/%d", itemID)
	if a.holdings[key] == nil {
		a.holdings[key] = make(map[[20]byte]*big.Int)
	}
	a.holdings[key][holder] = big.NewInt(amount)
}

func (a *mockAssets) setHolding(collection [20]byte, itemID uint64, holder [20]byte, amount int64) {
	key := assetKey{collection, itemID}
	if a.holdings[key] == nil {
		a.holdings[key] = make(map[[20]byte]*big.Int)
	}
	a.holdings[key][holder] = big.NewInt(amount)
}

func (a *mockAssets) Classify(collection [20]byte) assets.Kind {
	kind, ok := a.kinds[collection]
	if !ok {
		return assets.KindUnsupported
	}
	return kind
}

func (a *mockAssets) OwnerOrBalance(collection [20]byte, itemID uint64, holder [20]byte) (*big.Int, error) {
	if !a.Classify(collection).Valid() {
		return nil, assets.ErrUnsupportedAsset
	}
	held, ok := a.holdings[assetKey{collection, itemID}]
	if !ok {
		return nil, assets.ErrUnknownItem
	}
	amt, ok := held[holder]
	if !ok || amt == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(amt), nil
}

func (a *mockAssets) CreatorOf(collection [20]byte, itemID uint64) ([20]byte, error) {
	if !a.Classify(collection).Valid() {
		return [20]byte{}, assets.ErrUnsupportedAsset
	}
	creator, ok := a.creators[assetKey{collection, itemID}]
	if !ok {
		return [20]byte{}, assets.ErrUnknownItem
	}
	return creator, nil
}

func (a *mockAssets) Locator(collection [20]byte, itemID uint64) (string, error) {
	if !a.Classify(collection).Valid() {
		return "", assets.ErrUnsupportedAsset
	}
	uri, ok := a.uris[assetKey{collection, itemID}]
	if !ok {
		return "", assets.ErrUnknownItem
	}
	return uri, nil
}

func (a *mockAssets) Transfer(collection [20]byte, from, to [20]byte, itemID uint64, amount *big.Int) error {
	if a.failNext {
		a.failNext = false
		return fmt.Errorf("transfer forced to fail")
	}
	if !a.Classify(collection).Valid() {
		return assets.ErrUnsupportedAsset
	}
	held, ok := a.holdings[assetKey{collection, itemID}]
	if !ok {
		return assets.ErrUnknownItem
	}
	fromBal, ok := held[from]
	if !ok || fromBal == nil || fromBal.Cmp(amount) < 0 {
		return assets.ErrInsufficientBalance
	}
	held[from] = new(big.Int).Sub(fromBal, amount)
	toBal, ok := held[to]
	if !ok || toBal == nil {
		toBal = big.NewInt(0)
	}
	held[to] = new(big.Int).Add(toBal, amount)
	return nil
}

type capturingEmitter struct {
	events []events.Event
}

func (c *capturingEmitter) Emit(evt events.Event) {
	c.events = append(c.events, evt)
}

func eventSeen(emitter *capturingEmitter, eventType string) bool {
	for _, evt := range emitter.events {
		if evt.EventType() == eventType {
			return true
		}
	}
	return false
}

func setupEngine(t *testing.T) (*Engine, *mockState, *mockAssets, *capturingEmitter) {
	t.Helper()
	state := newMockState()
	adapter := newMockAssets()
	emitter := &capturingEmitter{}
	engine := NewEngine()
	engine.SetState(state)
	engine.SetAssets(adapter)
	engine.SetEmitter(emitter)
	engine.SetNowFunc(func() int64 { return 1000 })
	engine.SetOperator(newTestAddress(0xAD))
	return engine, state, adapter, emitter
}

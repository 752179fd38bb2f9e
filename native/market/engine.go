package market

import (
	"math/big"
	"time"

	"curio/core/events"
	"curio/core/types"
	"curio/native/assets"
	nativecommon "curio/native/common"
)

const marketModuleName = "market"

type engineState interface {
	SaleCount() uint64
	SaleAppend(*SaleRecord) (uint64, error)
	SalePut(*SaleRecord) error
	SaleGet(id uint64) (*SaleRecord, bool)
	ReservationGet(collection [20]byte, itemID uint64, holder [20]byte) (*Reservation, bool)
	ReservationPut(*Reservation) error
	BidListGet(saleID uint64) []Bid
	BidListPut(saleID uint64, bids []Bid) error
	PayTokenResolve(method uint8) (string, bool)
	MarketVaultAddress() [20]byte
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
	Snapshot() int
	RevertToSnapshot(int)
}

// AssetAdapter is the capability contract the engine dispatches asset
// questions and custody transfers through.
type AssetAdapter interface {
	Classify(collection [20]byte) assets.Kind
	OwnerOrBalance(collection [20]byte, itemID uint64, holder [20]byte) (*big.Int, error)
	CreatorOf(collection [20]byte, itemID uint64) ([20]byte, error)
	Locator(collection [20]byte, itemID uint64) (string, error)
	Transfer(collection [20]byte, from, to [20]byte, itemID uint64, amount *big.Int) error
}

type marketEvent struct {
	evt *types.Event
}

func (e marketEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e marketEvent) Event() *types.Event { return e.evt }

// Engine owns the sale ledger, reservation ledger, bid book and settlement
// routine. Every public mutating operation runs inside a state snapshot and
// reverts on failure, so a failing call leaves no partial mutation behind.
type Engine struct {
	state        engineState
	assets       AssetAdapter
	emitter      events.Emitter
	nowFn        func() int64
	pauses       nativecommon.PauseView
	lock         nativecommon.CallLock
	feeBps       uint32
	royaltyBps   uint32
	devRecipient [20]byte
	feeTreasury  [20]byte
	operator     [20]byte
}

// NewEngine constructs a market engine with a no-op emitter and zero default
// ratios. Callers wire state, assets and configuration via the setters.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetAssets configures the asset capability adapter.
func (e *Engine) SetAssets(adapter AssetAdapter) { e.assets = adapter }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source, primarily used in tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetPauses configures the administrative pause view.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetDefaultFeeBps sets the platform fee ratio snapshotted onto future
// sales. Existing records keep the ratio captured at creation.
func (e *Engine) SetDefaultFeeBps(bps uint32) {
	if bps > bpsDenominator {
		bps = bpsDenominator
	}
	e.feeBps = bps
}

// SetDefaultRoyaltyBps sets the royalty ratio applied when a listing carries
// no override. Snapshot-only, never retroactive.
func (e *Engine) SetDefaultRoyaltyBps(bps uint32) {
	if bps > bpsDenominator {
		bps = bpsDenominator
	}
	e.royaltyBps = bps
}

// SetDevRecipient configures the developer cut recipient. The zero address
// disables the dev fee.
func (e *Engine) SetDevRecipient(addr [20]byte) { e.devRecipient = addr }

// SetFeeTreasury configures where the platform service fee is disbursed on
// settlement. The zero address leaves the fee in engine custody.
func (e *Engine) SetFeeTreasury(addr [20]byte) { e.feeTreasury = addr }

// SetOperator configures the administrative role permitted to cancel sales
// and drive the expiry sweeper.
func (e *Engine) SetOperator(addr [20]byte) { e.operator = addr }

// DefaultFeeBps returns the currently configured platform fee ratio.
func (e *Engine) DefaultFeeBps() uint32 { return e.feeBps }

// DefaultRoyaltyBps returns the currently configured royalty ratio.
func (e *Engine) DefaultRoyaltyBps() uint32 { return e.royaltyBps }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(marketEvent{evt: evt})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) isOperator(caller [20]byte) bool {
	return e.operator != ([20]byte{}) && caller == e.operator
}

func (e *Engine) devConfigured() bool {
	return e.devRecipient != ([20]byte{})
}

func (e *Engine) treasuryConfigured() bool {
	return e.feeTreasury != ([20]byte{})
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{Balance: big.NewInt(0)}
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return acc
}

// run wraps a mutating operation in a snapshot covering ledger mutation and
// fund/asset movement together: the whole call takes effect or none of it.
func (e *Engine) run(fn func() error) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, marketModuleName); err != nil {
		return err
	}
	snap := e.state.Snapshot()
	if err := fn(); err != nil {
		e.state.RevertToSnapshot(snap)
		return err
	}
	return nil
}

// runLocked additionally holds the engine's non-reentrant call lock for the
// duration of a funds-moving entry point.
func (e *Engine) runLocked(fn func() error) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.lock.Acquire(); err != nil {
		return err
	}
	defer e.lock.Release()
	return e.run(fn)
}

// payMethodSymbol resolves a payment method index. The empty string denotes
// the native currency.
func (e *Engine) payMethodSymbol(method uint8) (string, error) {
	if e == nil || e.state == nil {
		return "", errNilState
	}
	symbol, ok := e.state.PayTokenResolve(method)
	if !ok {
		return "", ErrUnsupportedPayMethod
	}
	return symbol, nil
}

// transferFunds moves amount between two accounts in the designated payment
// medium. Zero amounts are a no-op.
func (e *Engine) transferFunds(from, to [20]byte, method uint8, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if amt.Sign() < 0 {
		return ErrInsufficientFunds
	}
	symbol, err := e.payMethodSymbol(method)
	if err != nil {
		return err
	}
	fromAcc, err := e.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	toAcc, err := e.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	fromAcc = ensureAccount(fromAcc)
	toAcc = ensureAccount(toAcc)
	if symbol == "" {
		if fromAcc.Balance.Cmp(amt) < 0 {
			return ErrInsufficientFunds
		}
		fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amt)
		toAcc.Balance = new(big.Int).Add(toAcc.Balance, amt)
	} else {
		fromBal := fromAcc.TokenBalance(symbol)
		if fromBal.Cmp(amt) < 0 {
			return ErrInsufficientFunds
		}
		fromAcc.SetTokenBalance(symbol, new(big.Int).Sub(fromBal, amt))
		toAcc.SetTokenBalance(symbol, new(big.Int).Add(toAcc.TokenBalance(symbol), amt))
	}
	if err := e.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to[:], toAcc)
}

func (e *Engine) loadSale(id uint64) (*SaleRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	sale, ok := e.state.SaleGet(id)
	if !ok {
		return nil, ErrSaleNotOpen
	}
	return SanitizeSale(sale)
}

// IsOpen reports whether the sale exists and is not tombstoned.
func (e *Engine) IsOpen(id uint64) bool {
	if e == nil || e.state == nil {
		return false
	}
	if id >= e.state.SaleCount() {
		return false
	}
	sale, ok := e.state.SaleGet(id)
	if !ok || sale == nil {
		return false
	}
	return !sale.Closed()
}

// GetSale returns a sanitized copy of the sale record.
func (e *Engine) GetSale(id uint64) (*SaleRecord, error) {
	return e.loadSale(id)
}

// withinWindow reports whether now falls inside the sale's time window.
func withinWindow(sale *SaleRecord, now int64) bool {
	if sale == nil || sale.Closed() {
		return false
	}
	return now >= sale.StartTime && now <= sale.EndTime
}

// tombstone closes the record permanently by zeroing its time window.
func (e *Engine) tombstone(sale *SaleRecord) error {
	sale.StartTime = 0
	sale.EndTime = 0
	return e.state.SalePut(sale)
}

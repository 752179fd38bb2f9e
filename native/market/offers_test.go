package market

import (
	"errors"
	"math/big"
	"testing"

	"curio/native/assets"
)

func setupOffer(t *testing.T, quantity, unitPrice int64) (*Engine, *mockState, *mockAssets, *capturingEmitter, *SaleRecord) {
	t.Helper()
	engine, state, adapter, emitter := setupEngine(t)
	collection := newTestAddress(0x10)
	owner := newTestAddress(0x01)
	offerer := newTestAddress(0x03)
	adapter.addItem(collection, assets.KindMultiUnit, 1, newTestAddress(0x02), owner, quantity)
	state.setBalance(offerer, 100_000)
	sale, err := engine.CreateOffer(collection, 1, owner, offerer, big.NewInt(quantity), 0, big.NewInt(unitPrice), 600)
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	return engine, state, adapter, emitter, sale
}

func TestCreateOfferEscrowsPayment(t *testing.T) {
	engine, state, _, emitter, sale := setupOffer(t, 5, 100)
	offerer := newTestAddress(0x03)

	if got := state.balance(offerer); got.Cmp(big.NewInt(99_500)) != 0 {
		t.Fatalf("offer escrow not captured: %s", got)
	}
	if got := state.balance(state.vault); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("vault escrow mismatch: %s", got)
	}
	if sale.Counterparty != offerer {
		t.Fatalf("offerer not recorded as counterparty")
	}
	if sale.Kind != SaleKindOffer {
		t.Fatalf("unexpected kind %v", sale.Kind)
	}
	if !engine.IsOpen(sale.ID) {
		t.Fatalf("offer must be open")
	}
	if !eventSeen(emitter, EventTypeOfferMade) {
		t.Fatalf("expected offer made event")
	}
}

func TestCreateOfferRejections(t *testing.T) {
	engine, state, adapter, _, _ := setupOffer(t, 5, 100)
	collection := newTestAddress(0x10)
	owner := newTestAddress(0x01)
	offerer := newTestAddress(0x03)

	if _, err := engine.CreateOffer(collection, 1, owner, owner, big.NewInt(1), 0, big.NewInt(100), 600); !errors.Is(err, ErrSelfTrade) {
		t.Fatalf("expected self offer rejection, got %v", err)
	}
	if _, err := engine.CreateOffer(collection, 1, owner, offerer, big.NewInt(0), 0, big.NewInt(100), 600); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected quantity rejection, got %v", err)
	}
	if _, err := engine.CreateOffer(collection, 1, owner, offerer, big.NewInt(1), 0, big.NewInt(100), 0); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected duration rejection, got %v", err)
	}
	if _, err := engine.CreateOffer(collection, 1, owner, offerer, big.NewInt(1), 0, nil, 600); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected price rejection, got %v", err)
	}

	unique := newTestAddress(0x11)
	adapter.addItem(unique, assets.KindUnique, 7, newTestAddress(0x02), owner, 1)
	if _, err := engine.CreateOffer(unique, 7, owner, offerer, big.NewInt(2), 0, big.NewInt(100), 600); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected whole-item rejection, got %v", err)
	}

	broke := newTestAddress(0x04)
	state.setBalance(broke, 10)
	if _, err := engine.CreateOffer(collection, 1, owner, broke, big.NewInt(1), 0, big.NewInt(100), 600); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected funds rejection, got %v", err)
	}
}

func TestAcceptOfferFullSettlement(t *testing.T) {
	engine, state, adapter, emitter, sale := setupOffer(t, 5, 100)
	owner := newTestAddress(0x01)
	offerer := newTestAddress(0x03)

	if err := engine.AcceptOffer(sale.ID, owner); err != nil {
		t.Fatalf("accept offer: %v", err)
	}
	held, err := adapter.OwnerOrBalance(newTestAddress(0x10), 1, offerer)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if held.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("items not delivered: %s", held)
	}
	if got := state.balance(owner); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("owner payout mismatch: %s", got)
	}
	if got := state.balance(state.vault); got.Sign() != 0 {
		t.Fatalf("vault must be drained: %s", got)
	}
	stored, _ := state.SaleGet(sale.ID)
	if !stored.Closed() {
		t.Fatalf("settled offer must tombstone")
	}
	if !eventSeen(emitter, EventTypeTradeExecuted) {
		t.Fatalf("expected trade event")
	}
}

// Offer acceptance settles against free inventory at acceptance time: with
// quantity 5 at unit price 100 but only 3 units free, 3 settle and the
// shortfall of 200 refunds to the offerer before settlement.
func TestAcceptOfferPartialWithShortfallRefund(t *testing.T) {
	engine, state, adapter, _, sale := setupOffer(t, 5, 100)
	collection := newTestAddress(0x10)
	owner := newTestAddress(0x01)
	offerer := newTestAddress(0x03)
	adapter.setHolding(collection, 1, owner, 3)

	if err := engine.AcceptOffer(sale.ID, owner); err != nil {
		t.Fatalf("accept offer: %v", err)
	}
	held, _ := adapter.OwnerOrBalance(collection, 1, offerer)
	if held.Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("expected 3 units delivered, got %s", held)
	}
	if got := state.balance(offerer); got.Cmp(big.NewInt(99_700)) != 0 {
		t.Fatalf("shortfall not refunded: %s", got)
	}
	if got := state.balance(owner); got.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("owner payout mismatch: %s", got)
	}
	if got := state.balance(state.vault); got.Sign() != 0 {
		t.Fatalf("vault must be drained after partial settle: %s", got)
	}
	stored, _ := state.SaleGet(sale.ID)
	if !stored.Closed() {
		t.Fatalf("partially settled offer must still tombstone")
	}
}

func TestAcceptOfferNoFreeInventory(t *testing.T) {
	engine, state, adapter, _, sale := setupOffer(t, 5, 100)
	collection := newTestAddress(0x10)
	owner := newTestAddress(0x01)
	offerer := newTestAddress(0x03)
	adapter.setHolding(collection, 1, owner, 0)

	if err := engine.AcceptOffer(sale.ID, owner); !errors.Is(err, ErrInsufficientFree) {
		t.Fatalf("expected free inventory rejection, got %v", err)
	}
	if got := state.balance(offerer); got.Cmp(big.NewInt(99_500)) != 0 {
		t.Fatalf("failed accept must not move escrow: %s", got)
	}
	if engine.IsOpen(sale.ID) != true {
		t.Fatalf("offer must remain open after failed accept")
	}
}

func TestAcceptOfferAuthorizationAndWindow(t *testing.T) {
	engine, _, _, _, sale := setupOffer(t, 5, 100)
	owner := newTestAddress(0x01)

	if err := engine.AcceptOffer(sale.ID, newTestAddress(0x03)); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("offerer must not accept their own offer, got %v", err)
	}
	if err := engine.AcceptOffer(sale.ID, newTestAddress(0x09)); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("stranger must not accept, got %v", err)
	}
	engine.SetNowFunc(func() int64 { return 2000 })
	if err := engine.AcceptOffer(sale.ID, owner); !errors.Is(err, ErrSaleNotOpen) {
		t.Fatalf("expired offer must not settle, got %v", err)
	}
}

func TestCancelOfferRefundsOfferer(t *testing.T) {
	engine, state, _, emitter, sale := setupOffer(t, 5, 100)
	offerer := newTestAddress(0x03)

	if err := engine.Cancel(sale.ID, newTestAddress(0x09)); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("stranger must not cancel, got %v", err)
	}
	if err := engine.Cancel(sale.ID, offerer); err != nil {
		t.Fatalf("offerer cancel: %v", err)
	}
	if got := state.balance(offerer); got.Cmp(big.NewInt(100_000)) != 0 {
		t.Fatalf("escrow not refunded: %s", got)
	}
	if got := state.balance(state.vault); got.Sign() != 0 {
		t.Fatalf("vault must be empty: %s", got)
	}
	if engine.IsOpen(sale.ID) {
		t.Fatalf("cancelled offer must close")
	}
	if !eventSeen(emitter, EventTypeSaleCancelled) {
		t.Fatalf("expected cancelled event")
	}
}

package core

import (
	"math/big"
	"sync"
	"testing"

	"curio/core/types"
	"curio/native/assets"
	"curio/native/market"
	"curio/state"
)

func addr(fill byte) [20]byte {
	var out [20]byte
	out[19] = fill
	return out
}

func newTestNode(t *testing.T) (*Node, *state.Manager) {
	t.Helper()
	manager := state.NewManager()
	adapter := assets.NewAdapter()
	adapter.SetState(manager)
	engine := market.NewEngine()
	engine.SetState(manager)
	engine.SetAssets(adapter)
	engine.SetPauses(manager)
	engine.SetNowFunc(func() int64 { return 1000 })
	engine.SetOperator(addr(0xAD))
	return NewNode(manager, engine, adapter), manager
}

func fund(t *testing.T, manager *state.Manager, holder [20]byte, amount int64) {
	t.Helper()
	if err := manager.PutAccount(holder[:], &types.Account{Balance: big.NewInt(amount)}); err != nil {
		t.Fatalf("fund %x: %v", holder, err)
	}
}

// Concurrent buyers, readers and sweep calls share one state manager. The
// node serializes them, so every unit settles exactly once and the ledger
// balances at the end.
func TestConcurrentOperationsSerialize(t *testing.T) {
	node, manager := newTestNode(t)
	collection := addr(0x10)
	seller := addr(0x01)
	operator := addr(0xAD)

	if _, err := node.AssetsRegister(collection, assets.KindMultiUnit, "drops"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := node.AssetsMint(collection, 1, addr(0x02), seller, "ipfs://drops/1", big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	sale, err := node.MarketCreateFixedSale(collection, 1, seller, big.NewInt(64), 0, 600, big.NewInt(10), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const buyers = 16
	errs := make(chan error, buyers+8)
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		buyer := addr(byte(0x20 + i))
		fund(t, manager, buyer, 10)
		wg.Add(1)
		go func(buyer [20]byte) {
			defer wg.Done()
			errs <- node.MarketBuy(sale.ID, buyer, big.NewInt(1), big.NewInt(10))
		}(buyer)
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 32; j++ {
				if _, err := node.MarketGetSale(sale.ID); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 8; j++ {
			expired := node.MarketListExpired(0, ^uint64(0))
			if err := node.MarketSweep(expired, operator); err != nil {
				errs <- err
				return
			}
		}
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent operation failed: %v", err)
		}
	}

	stored, err := node.MarketGetSale(sale.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Quantity.Cmp(big.NewInt(64-buyers)) != 0 {
		t.Fatalf("remaining quantity after concurrent buys: %s", stored.Quantity)
	}
	sellerAcc, err := manager.GetAccount(seller[:])
	if err != nil {
		t.Fatalf("seller account: %v", err)
	}
	if sellerAcc.Balance.Cmp(big.NewInt(10*buyers)) != 0 {
		t.Fatalf("seller proceeds after concurrent buys: %s", sellerAcc.Balance)
	}
	for i := 0; i < buyers; i++ {
		buyer := addr(byte(0x20 + i))
		acc, err := manager.GetAccount(buyer[:])
		if err != nil {
			t.Fatalf("buyer account: %v", err)
		}
		if acc.Balance.Sign() != 0 {
			t.Fatalf("buyer %d charged wrong amount: %s", i, acc.Balance)
		}
	}
}

func TestNodeAdminSettersSerializeWithTrades(t *testing.T) {
	node, manager := newTestNode(t)
	collection := addr(0x10)
	seller := addr(0x01)
	buyer := addr(0x03)

	if _, err := node.AssetsRegister(collection, assets.KindMultiUnit, "drops"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := node.AssetsMint(collection, 1, addr(0x02), seller, "u", big.NewInt(50)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	sale, err := node.MarketCreateFixedSale(collection, 1, seller, big.NewInt(32), 0, 600, big.NewInt(1), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	fund(t, manager, buyer, 32)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 32; i++ {
			_ = node.MarketBuy(sale.ID, buyer, big.NewInt(1), big.NewInt(1))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 32; i++ {
			node.MarketSetFeeTreasury(addr(0xFE))
			node.MarketSetDevRecipient(addr(0x0D))
			node.MarketSetDefaultFeeBps(uint32(i % 500))
			node.MarketSetDefaultRoyaltyBps(uint32(i % 300))
		}
	}()
	wg.Wait()

	stored, err := node.MarketGetSale(sale.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Quantity.Sign() != 0 || !stored.Closed() {
		t.Fatalf("all units must settle: quantity=%s closed=%v", stored.Quantity, stored.Closed())
	}
}

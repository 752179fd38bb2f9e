package market

import (
	"errors"
	"math/big"
	"math/rand"
	"testing"

	"curio/native/assets"
)

func TestReserveLazyInitialization(t *testing.T) {
	engine, _, adapter, _ := setupEngine(t)
	collection := newTestAddress(0x10)
	holder := newTestAddress(0x01)
	adapter.addItem(collection, assets.KindMultiUnit, 1, newTestAddress(0x02), holder, 8)

	free, err := engine.FreeAmount(collection, 1, holder)
	if err != nil {
		t.Fatalf("free amount before touch: %v", err)
	}
	if free.Cmp(big.NewInt(8)) != 0 {
		t.Fatalf("untouched free must equal live balance, got %s", free)
	}
	if err := engine.reserve(collection, 1, holder, big.NewInt(3)); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	free, _ = engine.FreeAmount(collection, 1, holder)
	if free.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("free after first reserve: %s", free)
	}
	if got := engine.CommittedAmount(collection, 1, holder); got.Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("committed after first reserve: %s", got)
	}
}

func TestReserveFailsClosed(t *testing.T) {
	engine, _, adapter, _ := setupEngine(t)
	collection := newTestAddress(0x10)
	holder := newTestAddress(0x01)
	adapter.addItem(collection, assets.KindMultiUnit, 1, newTestAddress(0x02), holder, 4)

	if err := engine.reserve(collection, 1, holder, big.NewInt(5)); !errors.Is(err, ErrInsufficientFree) {
		t.Fatalf("expected insufficient free on first touch, got %v", err)
	}
	if err := engine.reserve(collection, 1, holder, big.NewInt(3)); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := engine.reserve(collection, 1, holder, big.NewInt(2)); !errors.Is(err, ErrInsufficientFree) {
		t.Fatalf("expected insufficient free, got %v", err)
	}
	if err := engine.release(collection, 1, holder, big.NewInt(4)); !errors.Is(err, ErrOverRelease) {
		t.Fatalf("expected over release, got %v", err)
	}
	if err := engine.release(collection, 1, holder, big.NewInt(3)); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := engine.release(collection, 1, holder, big.NewInt(1)); !errors.Is(err, ErrOverRelease) {
		t.Fatalf("expected over release on empty commitment, got %v", err)
	}
}

// Reservation conservation: free + committed equals the live balance after
// every successful operation across random reserve/release sequences.
func TestReservationConservation(t *testing.T) {
	engine, _, adapter, _ := setupEngine(t)
	collection := newTestAddress(0x10)
	holder := newTestAddress(0x01)
	const live = 50
	adapter.addItem(collection, assets.KindMultiUnit, 1, newTestAddress(0x02), holder, live)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		amount := big.NewInt(rng.Int63n(10) + 1)
		if rng.Intn(2) == 0 {
			err := engine.reserve(collection, 1, holder, amount)
			if err != nil && !errors.Is(err, ErrInsufficientFree) {
				t.Fatalf("step %d reserve: %v", i, err)
			}
		} else {
			err := engine.release(collection, 1, holder, amount)
			if err != nil && !errors.Is(err, ErrOverRelease) {
				t.Fatalf("step %d release: %v", i, err)
			}
		}
		free, err := engine.FreeAmount(collection, 1, holder)
		if err != nil {
			t.Fatalf("step %d free amount: %v", i, err)
		}
		committed := engine.CommittedAmount(collection, 1, holder)
		sum := new(big.Int).Add(free, committed)
		if sum.Cmp(big.NewInt(live)) != 0 {
			t.Fatalf("step %d conservation violated: free=%s committed=%s live=%d", i, free, committed, live)
		}
	}
}

func TestFreeAmountClampsWhenLiveShrinks(t *testing.T) {
	engine, _, adapter, _ := setupEngine(t)
	collection := newTestAddress(0x10)
	holder := newTestAddress(0x01)
	adapter.addItem(collection, assets.KindMultiUnit, 1, newTestAddress(0x02), holder, 6)

	if err := engine.reserve(collection, 1, holder, big.NewInt(5)); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	// Inventory moved outside the engine: live drops below committed.
	adapter.setHolding(collection, 1, holder, 2)
	free, err := engine.FreeAmount(collection, 1, holder)
	if err != nil {
		t.Fatalf("free amount: %v", err)
	}
	if free.Sign() != 0 {
		t.Fatalf("free must clamp at zero, got %s", free)
	}
}

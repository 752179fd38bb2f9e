package assets

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"curio/core/events"
	"curio/core/types"
)

var (
	errNilState = errors.New("asset adapter: state not configured")

	// ErrUnsupportedAsset is returned whenever a collection matches neither
	// capability profile. Every operation dispatching through the adapter
	// rejects with this same error.
	ErrUnsupportedAsset = errors.New("asset adapter: unsupported collection")
	// ErrUnknownItem is returned for item ids never minted into a collection.
	ErrUnknownItem = errors.New("asset adapter: item not found")
	// ErrInsufficientBalance is returned when a transfer exceeds the sender's
	// holdings.
	ErrInsufficientBalance = errors.New("asset adapter: insufficient balance")
	// ErrInvalidAmount is returned for non-positive transfer or mint amounts.
	ErrInvalidAmount = errors.New("asset adapter: amount must be positive")
	// ErrItemExists is returned when minting reuses an existing item id.
	ErrItemExists = errors.New("asset adapter: item already exists")
	// ErrCollectionExists is returned when registering an address twice.
	ErrCollectionExists = errors.New("asset adapter: collection already registered")
)

type adapterState interface {
	CollectionGet(addr [20]byte) (*Collection, bool)
	CollectionPut(*Collection) error
}

type assetEvent struct {
	evt *types.Event
}

func (e assetEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e assetEvent) Event() *types.Event { return e.evt }

// Adapter answers ownership, creator and metadata questions for the two
// supported asset kinds and moves custody between holders. Classification is
// resolved once per collection and cached.
type Adapter struct {
	state   adapterState
	emitter events.Emitter
	kinds   map[[20]byte]Kind
}

// NewAdapter constructs an adapter with a no-op emitter.
func NewAdapter() *Adapter {
	return &Adapter{
		emitter: events.NoopEmitter{},
		kinds:   make(map[[20]byte]Kind),
	}
}

// SetState configures the state backend used by the adapter.
func (a *Adapter) SetState(state adapterState) { a.state = state }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (a *Adapter) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		a.emitter = events.NoopEmitter{}
		return
	}
	a.emitter = emitter
}

func (a *Adapter) emit(evt *types.Event) {
	if a == nil || a.emitter == nil || evt == nil {
		return
	}
	a.emitter.Emit(assetEvent{evt: evt})
}

// Classify resolves the capability profile of the collection. The first
// valid classification is pinned and stays authoritative for later
// dispatches, but only while the collection is still present in state, so a
// registration undone by a snapshot revert never leaks a stale kind.
func (a *Adapter) Classify(collection [20]byte) Kind {
	if a == nil || a.state == nil {
		return KindUnsupported
	}
	col, ok := a.state.CollectionGet(collection)
	if !ok || col == nil || !col.Kind.Valid() {
		return KindUnsupported
	}
	if kind, ok := a.kinds[collection]; ok {
		return kind
	}
	a.kinds[collection] = col.Kind
	return col.Kind
}

func (a *Adapter) loadItem(collection [20]byte, itemID uint64) (*Collection, *Item, error) {
	if a == nil || a.state == nil {
		return nil, nil, errNilState
	}
	if !a.Classify(collection).Valid() {
		return nil, nil, ErrUnsupportedAsset
	}
	col, ok := a.state.CollectionGet(collection)
	if !ok || col == nil {
		return nil, nil, ErrUnsupportedAsset
	}
	item, ok := col.Items[itemID]
	if !ok || item == nil {
		return nil, nil, ErrUnknownItem
	}
	return col, item, nil
}

// OwnerOrBalance returns the holder's stake in the item: 1 or 0 for unique
// items depending on ownership, the tracked balance for multi-unit items.
func (a *Adapter) OwnerOrBalance(collection [20]byte, itemID uint64, holder [20]byte) (*big.Int, error) {
	col, item, err := a.loadItem(collection, itemID)
	if err != nil {
		return nil, err
	}
	switch col.Kind {
	case KindUnique:
		if item.Owner == holder {
			return big.NewInt(1), nil
		}
		return big.NewInt(0), nil
	case KindMultiUnit:
		amt, ok := item.Balances[holder]
		if !ok || amt == nil {
			return big.NewInt(0), nil
		}
		return new(big.Int).Set(amt), nil
	default:
		return nil, ErrUnsupportedAsset
	}
}

// CreatorOf returns the item's designated creator, the royalty recipient.
func (a *Adapter) CreatorOf(collection [20]byte, itemID uint64) ([20]byte, error) {
	_, item, err := a.loadItem(collection, itemID)
	if err != nil {
		return [20]byte{}, err
	}
	return item.Creator, nil
}

// Locator returns the item's metadata locator.
func (a *Adapter) Locator(collection [20]byte, itemID uint64) (string, error) {
	_, item, err := a.loadItem(collection, itemID)
	if err != nil {
		return "", err
	}
	return item.URI, nil
}

// Transfer moves custody of amount units of the item from one holder to
// another. Unique items only move whole: amount must be exactly 1.
func (a *Adapter) Transfer(collection [20]byte, from, to [20]byte, itemID uint64, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	col, item, err := a.loadItem(collection, itemID)
	if err != nil {
		return err
	}
	switch col.Kind {
	case KindUnique:
		if amount.Cmp(big.NewInt(1)) != 0 {
			return ErrInvalidAmount
		}
		if item.Owner != from {
			return ErrInsufficientBalance
		}
		item.Owner = to
	case KindMultiUnit:
		fromBal, ok := item.Balances[from]
		if !ok || fromBal == nil || fromBal.Cmp(amount) < 0 {
			return ErrInsufficientBalance
		}
		item.Balances[from] = new(big.Int).Sub(fromBal, amount)
		toBal, ok := item.Balances[to]
		if !ok || toBal == nil {
			toBal = big.NewInt(0)
		}
		item.Balances[to] = new(big.Int).Add(toBal, amount)
	default:
		return ErrUnsupportedAsset
	}
	col.Items[itemID] = item
	return a.state.CollectionPut(col)
}

// Register records a new asset class under the supplied address.
func (a *Adapter) Register(address [20]byte, kind Kind, name string) (*Collection, error) {
	if a == nil || a.state == nil {
		return nil, errNilState
	}
	if !kind.Valid() {
		return nil, ErrUnsupportedAsset
	}
	if _, ok := a.state.CollectionGet(address); ok {
		return nil, ErrCollectionExists
	}
	col := &Collection{
		Address: address,
		Kind:    kind,
		Name:    strings.TrimSpace(name),
		Items:   make(map[uint64]*Item),
	}
	if err := a.state.CollectionPut(col); err != nil {
		return nil, err
	}
	a.kinds[address] = kind
	a.emit(NewCollectionRegisteredEvent(col))
	return col.Clone(), nil
}

// Mint creates an item inside the collection and assigns the initial custody
// to the supplied holder. For unique items amount must be 1.
func (a *Adapter) Mint(collection [20]byte, itemID uint64, creator, holder [20]byte, uri string, amount *big.Int) (*Item, error) {
	if a == nil || a.state == nil {
		return nil, errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	kind := a.Classify(collection)
	if !kind.Valid() {
		return nil, ErrUnsupportedAsset
	}
	col, ok := a.state.CollectionGet(collection)
	if !ok || col == nil {
		return nil, ErrUnsupportedAsset
	}
	if _, exists := col.Items[itemID]; exists {
		return nil, ErrItemExists
	}
	trimmedURI := strings.TrimSpace(uri)
	item := &Item{
		ID:       itemID,
		Creator:  creator,
		URI:      trimmedURI,
		MetaHash: ethcrypto.Keccak256Hash(collection[:], []byte(fmt.Sprintf("%d", itemID)), []byte(trimmedURI)),
		Supply:   new(big.Int).Set(amount),
	}
	switch kind {
	case KindUnique:
		if amount.Cmp(big.NewInt(1)) != 0 {
			return nil, ErrInvalidAmount
		}
		item.Owner = holder
	case KindMultiUnit:
		item.Balances = map[[20]byte]*big.Int{holder: new(big.Int).Set(amount)}
	}
	if col.Items == nil {
		col.Items = make(map[uint64]*Item)
	}
	col.Items[itemID] = item
	if err := a.state.CollectionPut(col); err != nil {
		return nil, err
	}
	a.emit(NewItemMintedEvent(col, item, holder))
	return item.Clone(), nil
}

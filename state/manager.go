package state

import (
	"errors"
	"fmt"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"curio/core/types"
	"curio/native/assets"
	"curio/native/market"
)

var (
	errBadAddress        = errors.New("state: address must be 20 bytes")
	errUnknownSale       = errors.New("state: sale not found")
	errTokenExists       = errors.New("state: token symbol already registered")
	errTokenInvalid      = errors.New("state: token symbol required")
	errTokenRegistryFull = errors.New("state: payment method registry full")
)

type reservationKey struct {
	collection [20]byte
	itemID     uint64
	holder     [20]byte
}

// Manager is the process-wide engine state: accounts, asset collections,
// sale records, reservations, bid lists, the payment token registry and
// module pause flags. Every mutation is journaled so a snapshot taken at the
// start of a public operation can undo the whole call on failure,
// reconstructing the one-call-one-atomic-unit execution model the engines
// assume.
type Manager struct {
	accounts     map[[20]byte]*types.Account
	collections  map[[20]byte]*assets.Collection
	sales        []*market.SaleRecord
	reservations map[reservationKey]*market.Reservation
	bids         map[uint64][]market.Bid
	payTokens    []string
	paused       map[string]bool
	vault        [20]byte
	journal      []func()
}

// NewManager returns an initialized, empty state manager. The market vault
// address is derived deterministically from a fixed label.
func NewManager() *Manager {
	var vault [20]byte
	digest := ethcrypto.Keccak256([]byte("curio/market/vault"))
	copy(vault[:], digest[12:])
	return &Manager{
		accounts:     make(map[[20]byte]*types.Account),
		collections:  make(map[[20]byte]*assets.Collection),
		reservations: make(map[reservationKey]*market.Reservation),
		bids:         make(map[uint64][]market.Bid),
		paused:       make(map[string]bool),
		vault:        vault,
	}
}

// Snapshot marks the current journal position. The returned revision is
// only valid until a lower revision is reverted.
func (m *Manager) Snapshot() int { return len(m.journal) }

// RevertToSnapshot unwinds every mutation recorded after the revision.
func (m *Manager) RevertToSnapshot(rev int) {
	if rev < 0 || rev > len(m.journal) {
		return
	}
	for i := len(m.journal) - 1; i >= rev; i-- {
		m.journal[i]()
	}
	m.journal = m.journal[:rev]
}

func (m *Manager) appendJournal(undo func()) {
	m.journal = append(m.journal, undo)
}

func toAddress(addr []byte) ([20]byte, error) {
	var out [20]byte
	if len(addr) != len(out) {
		return out, errBadAddress
	}
	copy(out[:], addr)
	return out, nil
}

// GetAccount returns a deep copy of the account, or nil when absent.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	key, err := toAddress(addr)
	if err != nil {
		return nil, err
	}
	acc, ok := m.accounts[key]
	if !ok {
		return nil, nil
	}
	return acc.Clone(), nil
}

// PutAccount stores a deep copy of the account.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	key, err := toAddress(addr)
	if err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("state: nil account for %x", key)
	}
	prev, existed := m.accounts[key]
	m.appendJournal(func() {
		if existed {
			m.accounts[key] = prev
		} else {
			delete(m.accounts, key)
		}
	})
	m.accounts[key] = account.Clone()
	return nil
}

// CollectionGet returns a deep copy of the registered collection.
func (m *Manager) CollectionGet(addr [20]byte) (*assets.Collection, bool) {
	col, ok := m.collections[addr]
	if !ok {
		return nil, false
	}
	return col.Clone(), true
}

// CollectionPut stores a deep copy of the collection.
func (m *Manager) CollectionPut(col *assets.Collection) error {
	if col == nil {
		return fmt.Errorf("state: nil collection")
	}
	key := col.Address
	prev, existed := m.collections[key]
	m.appendJournal(func() {
		if existed {
			m.collections[key] = prev
		} else {
			delete(m.collections, key)
		}
	})
	m.collections[key] = col.Clone()
	return nil
}

// SaleCount returns the number of sale ids ever assigned.
func (m *Manager) SaleCount() uint64 { return uint64(len(m.sales)) }

// SaleAppend assigns the next monotonic sale id and stores the record.
func (m *Manager) SaleAppend(sale *market.SaleRecord) (uint64, error) {
	if sale == nil {
		return 0, fmt.Errorf("state: nil sale record")
	}
	id := uint64(len(m.sales))
	m.appendJournal(func() { m.sales = m.sales[:len(m.sales)-1] })
	clone := sale.Clone()
	clone.ID = id
	m.sales = append(m.sales, clone)
	return id, nil
}

// SalePut overwrites an existing sale record.
func (m *Manager) SalePut(sale *market.SaleRecord) error {
	if sale == nil {
		return fmt.Errorf("state: nil sale record")
	}
	if sale.ID >= uint64(len(m.sales)) {
		return errUnknownSale
	}
	id := sale.ID
	prev := m.sales[id]
	m.appendJournal(func() { m.sales[id] = prev })
	m.sales[id] = sale.Clone()
	return nil
}

// SaleGet returns a deep copy of the sale record.
func (m *Manager) SaleGet(id uint64) (*market.SaleRecord, bool) {
	if id >= uint64(len(m.sales)) {
		return nil, false
	}
	return m.sales[id].Clone(), true
}

// ReservationGet returns a deep copy of the reservation record.
func (m *Manager) ReservationGet(collection [20]byte, itemID uint64, holder [20]byte) (*market.Reservation, bool) {
	res, ok := m.reservations[reservationKey{collection, itemID, holder}]
	if !ok {
		return nil, false
	}
	return res.Clone(), true
}

// ReservationPut stores a deep copy of the reservation record.
func (m *Manager) ReservationPut(res *market.Reservation) error {
	if res == nil {
		return fmt.Errorf("state: nil reservation")
	}
	key := reservationKey{res.Collection, res.ItemID, res.Holder}
	prev, existed := m.reservations[key]
	m.appendJournal(func() {
		if existed {
			m.reservations[key] = prev
		} else {
			delete(m.reservations, key)
		}
	})
	m.reservations[key] = res.Clone()
	return nil
}

// BidListGet returns a deep copy of the sale's bid list.
func (m *Manager) BidListGet(saleID uint64) []market.Bid {
	bids, ok := m.bids[saleID]
	if !ok || len(bids) == 0 {
		return nil
	}
	out := make([]market.Bid, len(bids))
	for i := range bids {
		out[i] = bids[i].Clone()
	}
	return out
}

// BidListPut replaces the sale's bid list. A nil or empty list clears it.
func (m *Manager) BidListPut(saleID uint64, bids []market.Bid) error {
	prev, existed := m.bids[saleID]
	m.appendJournal(func() {
		if existed {
			m.bids[saleID] = prev
		} else {
			delete(m.bids, saleID)
		}
	})
	if len(bids) == 0 {
		delete(m.bids, saleID)
		return nil
	}
	stored := make([]market.Bid, len(bids))
	for i := range bids {
		stored[i] = bids[i].Clone()
	}
	m.bids[saleID] = stored
	return nil
}

// RegisterPayToken adds a fungible token symbol to the payment registry and
// returns its payment method index. Index 0 is reserved for the native
// currency, leaving room for 255 token methods.
func (m *Manager) RegisterPayToken(symbol string) (uint8, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(symbol))
	if trimmed == "" {
		return 0, errTokenInvalid
	}
	if len(m.payTokens) >= 255 {
		return 0, errTokenRegistryFull
	}
	for _, existing := range m.payTokens {
		if existing == trimmed {
			return 0, errTokenExists
		}
	}
	m.appendJournal(func() { m.payTokens = m.payTokens[:len(m.payTokens)-1] })
	m.payTokens = append(m.payTokens, trimmed)
	return uint8(len(m.payTokens)), nil
}

// PayTokenResolve maps a payment method index to its token symbol. The empty
// string with ok=true denotes the native currency.
func (m *Manager) PayTokenResolve(method uint8) (string, bool) {
	if method == 0 {
		return "", true
	}
	idx := int(method) - 1
	if idx >= len(m.payTokens) {
		return "", false
	}
	return m.payTokens[idx], true
}

// MarketVaultAddress returns the account holding escrowed funds.
func (m *Manager) MarketVaultAddress() [20]byte { return m.vault }

// IsPaused implements the pause view consumed by engine guards.
func (m *Manager) IsPaused(module string) bool {
	return m.paused[strings.ToLower(strings.TrimSpace(module))]
}

// SetPaused toggles the administrative pause flag for a module.
func (m *Manager) SetPaused(module string, paused bool) {
	key := strings.ToLower(strings.TrimSpace(module))
	if key == "" {
		return
	}
	prev, existed := m.paused[key]
	m.appendJournal(func() {
		if existed {
			m.paused[key] = prev
		} else {
			delete(m.paused, key)
		}
	})
	m.paused[key] = paused
}

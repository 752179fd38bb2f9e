package assets

import "math/big"

// Kind is the closed capability variant resolved once per collection.
type Kind uint8

const (
	// KindUnsupported marks a collection matching neither capability profile.
	KindUnsupported Kind = iota
	// KindUnique marks single-owner items: one holder owns the entire item.
	KindUnique
	// KindMultiUnit marks fungible-batch items: many holders carry balances.
	KindMultiUnit
)

// Valid reports whether the kind is one of the two supported profiles.
func (k Kind) Valid() bool {
	return k == KindUnique || k == KindMultiUnit
}

func (k Kind) String() string {
	switch k {
	case KindUnique:
		return "unique"
	case KindMultiUnit:
		return "multiunit"
	default:
		return "unsupported"
	}
}

// Item is a single asset inside a collection. Unique items use Owner;
// multi-unit items use the per-holder balance map and total Supply.
type Item struct {
	ID       uint64
	Creator  [20]byte
	URI      string
	MetaHash [32]byte
	Owner    [20]byte
	Balances map[[20]byte]*big.Int
	Supply   *big.Int
}

// Clone returns a deep copy of the item.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	clone := *i
	if i.Supply != nil {
		clone.Supply = new(big.Int).Set(i.Supply)
	} else {
		clone.Supply = big.NewInt(0)
	}
	if len(i.Balances) > 0 {
		clone.Balances = make(map[[20]byte]*big.Int, len(i.Balances))
		for holder, amt := range i.Balances {
			if amt != nil {
				clone.Balances[holder] = new(big.Int).Set(amt)
			} else {
				clone.Balances[holder] = big.NewInt(0)
			}
		}
	} else {
		clone.Balances = nil
	}
	return &clone
}

// Collection is a registered asset class keyed by its 20-byte address.
type Collection struct {
	Address [20]byte
	Kind    Kind
	Name    string
	Items   map[uint64]*Item
}

// Clone returns a deep copy of the collection and its items.
func (c *Collection) Clone() *Collection {
	if c == nil {
		return nil
	}
	clone := *c
	if len(c.Items) > 0 {
		clone.Items = make(map[uint64]*Item, len(c.Items))
		for id, item := range c.Items {
			clone.Items[id] = item.Clone()
		}
	} else {
		clone.Items = nil
	}
	return &clone
}

package assets

import (
	"encoding/hex"
	"strconv"

	"curio/core/types"
)

const (
	EventTypeCollectionRegistered = "assets.collection.registered"
	EventTypeItemMinted           = "assets.item.minted"
)

// NewCollectionRegisteredEvent returns the canonical payload for a newly
// registered asset class.
func NewCollectionRegisteredEvent(c *Collection) *types.Event {
	attrs := make(map[string]string)
	if c != nil {
		attrs["collection"] = hex.EncodeToString(c.Address[:])
		attrs["kind"] = strconv.FormatUint(uint64(c.Kind), 10)
		attrs["name"] = c.Name
	}
	return &types.Event{Type: EventTypeCollectionRegistered, Attributes: attrs}
}

// NewItemMintedEvent returns the canonical payload for a freshly minted item.
func NewItemMintedEvent(c *Collection, i *Item, holder [20]byte) *types.Event {
	attrs := make(map[string]string)
	if c != nil {
		attrs["collection"] = hex.EncodeToString(c.Address[:])
	}
	if i != nil {
		attrs["itemId"] = strconv.FormatUint(i.ID, 10)
		attrs["creator"] = hex.EncodeToString(i.Creator[:])
		attrs["uri"] = i.URI
		if i.Supply != nil {
			attrs["supply"] = i.Supply.String()
		}
	}
	attrs["holder"] = hex.EncodeToString(holder[:])
	return &types.Event{Type: EventTypeItemMinted, Attributes: attrs}
}

package offer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ItemKind classifies a trade item by the transfer semantics of its asset.
// The set is closed: KindFungible exists so that fungible-token legs can be
// named and rejected, never traded.
type ItemKind uint8

const (
	// KindCurrency is the chain-native unit of value, denominated in wei.
	KindCurrency ItemKind = iota

	// KindFungible is a divisible token under an asset contract.
	// This offerer does not trade fungible tokens in either direction.
	KindFungible

	// KindNonFungible is a unique, indivisible token (one per AssetID).
	KindNonFungible

	// KindSemiFungible is a token whose AssetID carries a divisible quantity.
	KindSemiFungible
)

func (k ItemKind) String() string {
	switch k {
	case KindCurrency:
		return "currency"
	case KindFungible:
		return "fungible"
	case KindNonFungible:
		return "non_fungible"
	case KindSemiFungible:
		return "semi_fungible"
	default:
		return "unknown"
	}
}

// Item is one leg entry in a proposed trade.
//
// AssetContract is meaningless for currency items. AssetID is used for
// non-fungible and semi-fungible items and ignored for currency. Quantity is
// a wei count for currency and a unit count otherwise; protocol convention
// (not enforced here) is Quantity == 1 for non-fungible items.
type Item struct {
	Kind          ItemKind       `json:"kind"`
	AssetContract common.Address `json:"assetContract"`
	AssetID       *big.Int       `json:"assetId"`
	Quantity      *big.Int       `json:"quantity"`
}

// ReceivedItem is an Item with a delivery recipient attached. Consideration
// legs of finalized terms are ReceivedItems addressed to this offerer.
type ReceivedItem struct {
	Item
	Recipient common.Address `json:"recipient"`
}

// FinalizedTerms is the authoritative output of trade construction: what this
// offerer gives (Offer) and what it must receive in exchange (Consideration).
// Terms are built fresh per call and never persisted.
type FinalizedTerms struct {
	Offer         []Item         `json:"offer"`
	Consideration []ReceivedItem `json:"consideration"`
}

// quantity returns the item's quantity, treating nil as zero so that
// callers never dereference a missing amount.
func quantity(it Item) *big.Int {
	if it.Quantity == nil {
		return new(big.Int)
	}
	return it.Quantity
}

// cloneItem deep-copies an item so finalized terms never alias caller inputs.
func cloneItem(it Item) Item {
	out := Item{
		Kind:          it.Kind,
		AssetContract: it.AssetContract,
	}
	if it.AssetID != nil {
		out.AssetID = new(big.Int).Set(it.AssetID)
	}
	if it.Quantity != nil {
		out.Quantity = new(big.Int).Set(it.Quantity)
	}
	return out
}

// cloneItems deep-copies a slice of items.
func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = cloneItem(it)
	}
	return out
}

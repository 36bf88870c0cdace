package offer_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/emo-eth/aquaculture/pkg/offer"
)

var (
	tokenA = common.HexToAddress("0x00000000000000000000000000000000000000A1")
	tokenB = common.HexToAddress("0x00000000000000000000000000000000000000B2")
)

func currencyItem(wei int64) offer.Item {
	return offer.Item{Kind: offer.KindCurrency, Quantity: big.NewInt(wei)}
}

func nftItem(contract common.Address, id int64) offer.Item {
	return offer.Item{
		Kind:          offer.KindNonFungible,
		AssetContract: contract,
		AssetID:       big.NewInt(id),
		Quantity:      big.NewInt(1),
	}
}

func sftItem(contract common.Address, id, qty int64) offer.Item {
	return offer.Item{
		Kind:          offer.KindSemiFungible,
		AssetContract: contract,
		AssetID:       big.NewInt(id),
		Quantity:      big.NewInt(qty),
	}
}

// TestValidateCurrencyOnWanted covers the direction where this offerer gives
// currency and receives tokens.
func TestValidateCurrencyOnWanted(t *testing.T) {
	wanted := []offer.Item{currencyItem(1)}
	offered := []offer.Item{nftItem(tokenA, 69)}

	currencyOnWanted, amount, err := offer.ValidateTrade(wanted, offered)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !currencyOnWanted {
		t.Error("expected currency on wanted side")
	}
	if amount.Cmp(big.NewInt(1)) != 0 {
		t.Errorf("amount = %s, want 1", amount)
	}
}

// TestValidateCurrencyOnOffered covers the opposite direction.
func TestValidateCurrencyOnOffered(t *testing.T) {
	wanted := []offer.Item{nftItem(tokenA, 69)}
	offered := []offer.Item{currencyItem(1)}

	currencyOnWanted, amount, err := offer.ValidateTrade(wanted, offered)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if currencyOnWanted {
		t.Error("expected currency on offered side")
	}
	if amount.Cmp(big.NewInt(1)) != 0 {
		t.Errorf("amount = %s, want 1", amount)
	}
}

// TestValidateAmountIsItemCount confirms pricing counts items, never sums
// their quantities: a semi-fungible item with quantity 1000 is one unit.
func TestValidateAmountIsItemCount(t *testing.T) {
	wanted := []offer.Item{currencyItem(3)}
	offered := []offer.Item{
		sftItem(tokenA, 1, 1000),
		sftItem(tokenA, 2, 500),
		nftItem(tokenB, 7),
	}

	_, amount, err := offer.ValidateTrade(wanted, offered)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if amount.Cmp(big.NewInt(3)) != 0 {
		t.Errorf("amount = %s, want 3 (item count)", amount)
	}

	// Same trade priced at the quantity sum must be rejected.
	wanted = []offer.Item{currencyItem(1507)}
	if _, _, err := offer.ValidateTrade(wanted, offered); !errors.Is(err, offer.ErrInvalidCurrencyAmount) {
		t.Errorf("expected ErrInvalidCurrencyAmount, got %v", err)
	}
}

// TestValidateRejections walks every rejection rule in order.
func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name    string
		wanted  []offer.Item
		offered []offer.Item
		wantErr error
	}{
		{
			name:    "empty wanted",
			wanted:  nil,
			offered: []offer.Item{currencyItem(1)},
			wantErr: offer.ErrEmptyWantedList,
		},
		{
			name:    "empty offered",
			wanted:  []offer.Item{currencyItem(1)},
			offered: nil,
			wantErr: offer.ErrEmptyOfferedList,
		},
		{
			name:    "both sides currency",
			wanted:  []offer.Item{currencyItem(1)},
			offered: []offer.Item{currencyItem(1)},
			wantErr: offer.ErrInvalidItemShape,
		},
		{
			name:    "neither side currency",
			wanted:  []offer.Item{nftItem(tokenA, 1)},
			offered: []offer.Item{nftItem(tokenB, 2)},
			wantErr: offer.ErrInvalidItemShape,
		},
		{
			name:    "multiple currency items",
			wanted:  []offer.Item{currencyItem(1), currencyItem(1)},
			offered: []offer.Item{nftItem(tokenA, 1), nftItem(tokenA, 2)},
			wantErr: offer.ErrMultipleCurrencyItems,
		},
		{
			name:    "currency amount above item count",
			wanted:  []offer.Item{currencyItem(2)},
			offered: []offer.Item{nftItem(tokenA, 1)},
			wantErr: offer.ErrInvalidCurrencyAmount,
		},
		{
			name:    "currency amount below item count",
			wanted:  []offer.Item{currencyItem(1)},
			offered: []offer.Item{nftItem(tokenA, 1), nftItem(tokenA, 2)},
			wantErr: offer.ErrInvalidCurrencyAmount,
		},
		{
			name:   "fungible token on counter side",
			wanted: []offer.Item{currencyItem(2)},
			offered: []offer.Item{
				nftItem(tokenA, 1),
				{Kind: offer.KindFungible, AssetContract: tokenB, Quantity: big.NewInt(100)},
			},
			wantErr: offer.ErrInvalidItemShape,
		},
		{
			name:   "currency hidden in counter side",
			wanted: []offer.Item{currencyItem(2)},
			offered: []offer.Item{
				nftItem(tokenA, 1),
				currencyItem(1),
			},
			wantErr: offer.ErrInvalidItemShape,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := offer.ValidateTrade(tc.wanted, tc.offered)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

// TestValidateFirstElementClassification pins the first-element shortcut:
// only the first item of each side decides which side is the currency side.
// A non-currency first element followed by a currency item on the same side
// is caught by the per-item re-check, not the classification.
func TestValidateFirstElementClassification(t *testing.T) {
	// Currency listed second on the wanted side: the wanted side classifies
	// as non-currency, so the currency item inside it fails the per-item
	// kind check.
	wanted := []offer.Item{nftItem(tokenA, 1), currencyItem(1)}
	offered := []offer.Item{currencyItem(2)}

	if _, _, err := offer.ValidateTrade(wanted, offered); !errors.Is(err, offer.ErrInvalidItemShape) {
		t.Errorf("expected ErrInvalidItemShape, got %v", err)
	}
}

// TestValidateNonFungibleQuantityNotEnforced pins the policy gap: a
// non-fungible item with quantity other than 1 is still accepted.
func TestValidateNonFungibleQuantityNotEnforced(t *testing.T) {
	odd := nftItem(tokenA, 5)
	odd.Quantity = big.NewInt(3)

	wanted := []offer.Item{currencyItem(1)}
	offered := []offer.Item{odd}

	if _, _, err := offer.ValidateTrade(wanted, offered); err != nil {
		t.Errorf("expected acceptance, got %v", err)
	}
}

// TestValidateNoMutation confirms validation never touches its inputs.
func TestValidateNoMutation(t *testing.T) {
	wanted := []offer.Item{currencyItem(1)}
	offered := []offer.Item{sftItem(tokenA, 9, 42)}

	offer.ValidateTrade(wanted, offered)

	if wanted[0].Quantity.Cmp(big.NewInt(1)) != 0 {
		t.Error("wanted quantity mutated")
	}
	if offered[0].Quantity.Cmp(big.NewInt(42)) != 0 || offered[0].AssetID.Cmp(big.NewInt(9)) != 0 {
		t.Error("offered item mutated")
	}
}

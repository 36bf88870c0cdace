package offer

import "math/big"

// ValidateTrade classifies a proposed trade against the one shape this
// offerer accepts: a single currency item on exactly one side, priced at
// 1 wei per item on the other side, which must hold only non-fungible or
// semi-fungible items.
//
// wanted is the side the caller asks this offerer to supply; offered is the
// side the caller supplies in exchange. Validation is direction-neutral.
//
// Returns which side holds the currency and the validated wei amount.
// Performs no mutation.
func ValidateTrade(wanted, offered []Item) (currencyOnWanted bool, amount *big.Int, err error) {
	if len(wanted) == 0 {
		return false, nil, ErrEmptyWantedList
	}
	if len(offered) == 0 {
		return false, nil, ErrEmptyOfferedList
	}

	// Classification looks only at the first element of each side. The
	// currency side is then pinned to length one, and the counter side is
	// re-verified element by element below, so the shortcut cannot let a
	// mixed side through.
	wantedIsCurrency := wanted[0].Kind == KindCurrency
	offeredIsCurrency := offered[0].Kind == KindCurrency

	if wantedIsCurrency == offeredIsCurrency {
		return false, nil, ErrInvalidItemShape
	}

	currencySide, counterSide := wanted, offered
	if offeredIsCurrency {
		currencySide, counterSide = offered, wanted
	}

	if len(currencySide) != 1 {
		return false, nil, ErrMultipleCurrencyItems
	}

	// 1 wei per counter-side item. Each item counts as one priced unit
	// regardless of its own quantity: a semi-fungible item carrying
	// quantity 1000 is still one unit of consideration.
	amount = quantity(currencySide[0])
	if amount.Cmp(big.NewInt(int64(len(counterSide)))) != 0 {
		return false, nil, ErrInvalidCurrencyAmount
	}

	for _, it := range counterSide {
		if it.Kind != KindNonFungible && it.Kind != KindSemiFungible {
			return false, nil, ErrInvalidItemShape
		}
	}

	return wantedIsCurrency, amount, nil
}

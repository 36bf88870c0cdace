package offer

import "errors"

// Rejection errors for trade validation and execution. Error identity is the
// diagnostic payload: callers branch on these sentinels with errors.Is, and
// every one of them aborts the whole call.
var (
	// ErrEmptyWantedList rejects a trade whose wanted side has no items.
	ErrEmptyWantedList = errors.New("wanted list is empty")

	// ErrEmptyOfferedList rejects a trade whose offered side has no items.
	ErrEmptyOfferedList = errors.New("offered list is empty")

	// ErrInvalidItemShape rejects a trade that does not match the one
	// supported pattern: exactly one currency side, the other side holding
	// only non-fungible or semi-fungible items.
	ErrInvalidItemShape = errors.New("invalid item shape")

	// ErrMultipleCurrencyItems rejects a currency side with more than one item.
	ErrMultipleCurrencyItems = errors.New("multiple currency items")

	// ErrInvalidCurrencyAmount rejects a currency quantity that does not
	// equal the number of items on the opposite side (1 wei per unit).
	ErrInvalidCurrencyAmount = errors.New("invalid currency amount")

	// ErrUnauthorizedCaller rejects trade execution by anyone other than
	// the settlement engine.
	ErrUnauthorizedCaller = errors.New("unauthorized caller")

	// ErrApprovalFailed reports that an asset contract refused or failed
	// an operator-approval call.
	ErrApprovalFailed = errors.New("operator approval failed")

	// ErrCurrencyTransferFailed reports that the recipient could not accept
	// a currency release. The held balance is left unchanged.
	ErrCurrencyTransferFailed = errors.New("currency transfer failed")
)

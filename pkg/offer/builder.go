package offer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Gateway is the side-effect surface the offerer needs to make finalized
// terms executable: granting the settlement engine transfer rights over
// held assets, or releasing held currency to it.
type Gateway interface {
	GrantTransferRights(items []Item) error
	ReleaseCurrency(amount *big.Int, to common.Address) error
}

// Offerer is the automated counterparty. It evaluates proposed trades against
// the fixed 1-wei-per-item policy and produces the terms a settlement engine
// enforces atomically. One instance per deployment; the only durable state it
// touches (the held currency balance) lives behind the Gateway.
type Offerer struct {
	self       common.Address // delivery recipient for all consideration items
	settlement common.Address // the only caller allowed to execute trades
	gateway    Gateway
	log        *zap.SugaredLogger
}

// NewOfferer constructs an offerer bound to its own address and the address
// of the trusted settlement engine.
func NewOfferer(self, settlement common.Address, gw Gateway, log *zap.SugaredLogger) *Offerer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Offerer{
		self:       self,
		settlement: settlement,
		gateway:    gw,
		log:        log,
	}
}

// Address returns the offerer's own address.
func (o *Offerer) Address() common.Address {
	return o.self
}

// SettlementEngine returns the address trusted to execute trades.
func (o *Offerer) SettlementEngine() common.Address {
	return o.settlement
}

// buildTerms turns a validated trade into finalized terms: wanted is echoed
// unchanged as the offer side, offered becomes the consideration side with
// this offerer as recipient of every item. Inputs are deep-copied so the
// terms never alias caller memory.
func (o *Offerer) buildTerms(wanted, offered []Item) *FinalizedTerms {
	consideration := make([]ReceivedItem, len(offered))
	for i, it := range offered {
		consideration[i] = ReceivedItem{
			Item:      cloneItem(it),
			Recipient: o.self,
		}
	}
	return &FinalizedTerms{
		Offer:         cloneItems(wanted),
		Consideration: consideration,
	}
}

// PreviewTrade validates a proposed trade and returns the terms this offerer
// would settle it on. Callable by anyone; no authorization check, no side
// effects, and identical inputs always yield identical terms.
func (o *Offerer) PreviewTrade(wanted, offered []Item) (*FinalizedTerms, error) {
	if _, _, err := ValidateTrade(wanted, offered); err != nil {
		return nil, err
	}
	return o.buildTerms(wanted, offered), nil
}

// TradeOutcome reports which side effect an executed trade performed, so
// callers can describe the execution without re-deriving it from the items.
type TradeOutcome struct {
	CurrencyOut bool     // currency was released to the caller
	AmountWei   *big.Int // the validated currency amount
	ItemCount   int      // non-currency items priced by that amount
}

// ExecuteTrade validates a proposed trade, performs the side effect that
// makes the terms deliverable, and returns the finalized terms together with
// the outcome describing the side effect. Only the settlement engine may call
// it; the caller check runs before validation so an unauthorized caller
// learns nothing about input validity.
//
// When this offerer gives currency (currency on the wanted side), the
// validated wei amount is released to the caller. When it gives assets, the
// settlement engine is approved as operator on every wanted item's contract.
// context carries opaque settlement-engine bytes and is not interpreted.
func (o *Offerer) ExecuteTrade(caller common.Address, wanted, offered []Item, context []byte) (*FinalizedTerms, *TradeOutcome, error) {
	if caller != o.settlement {
		return nil, nil, ErrUnauthorizedCaller
	}

	currencyOnWanted, amount, err := ValidateTrade(wanted, offered)
	if err != nil {
		return nil, nil, err
	}

	outcome := &TradeOutcome{
		CurrencyOut: currencyOnWanted,
		AmountWei:   new(big.Int).Set(amount),
	}

	if currencyOnWanted {
		outcome.ItemCount = len(offered)
		if err := o.gateway.ReleaseCurrency(amount, caller); err != nil {
			return nil, nil, err
		}
		o.log.Infow("trade_executed",
			"direction", "currency_out",
			"amount_wei", amount.String(),
			"items", outcome.ItemCount)
	} else {
		outcome.ItemCount = len(wanted)
		if err := o.gateway.GrantTransferRights(wanted); err != nil {
			return nil, nil, err
		}
		o.log.Infow("trade_executed",
			"direction", "assets_out",
			"amount_wei", amount.String(),
			"items", outcome.ItemCount)
	}

	return o.buildTerms(wanted, offered), outcome, nil
}

// AcknowledgeSettlement is the post-settlement confirmation hook. The
// settlement engine is the source of truth for delivery, so this only echoes
// the fixed acknowledgment selector: no validation, no side effects, and it
// cannot fail.
func (o *Offerer) AcknowledgeSettlement(offer []ReceivedItem, consideration []ReceivedItem, tradeID [32]byte) [4]byte {
	return AckSelector()
}

package gateway

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/emo-eth/aquaculture/pkg/offer"
)

// Gateway performs the side effects that make finalized terms executable:
// approving the settlement engine as operator on held asset contracts, and
// releasing held currency. It owns no policy; direction decisions are made
// upstream by the offerer.
type Gateway struct {
	releaseMu sync.Mutex // serializes check, transfer, and debit of a release
	vault     *Vault
	contracts *Registry
	native    CurrencyLedger
	operator  common.Address // the settlement engine, granted approvals
	log       *zap.SugaredLogger
}

// NewGateway wires a gateway to its vault, contract registry, native-currency
// ledger, and the operator (settlement engine) address.
func NewGateway(vault *Vault, contracts *Registry, native CurrencyLedger, operator common.Address, log *zap.SugaredLogger) *Gateway {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Gateway{
		vault:     vault,
		contracts: contracts,
		native:    native,
		operator:  operator,
		log:       log,
	}
}

// Vault exposes the held currency balance for observation.
func (g *Gateway) Vault() *Vault {
	return g.vault
}

// GrantTransferRights approves the settlement engine as operator on every
// distinct asset contract referenced by items, in first-seen order. Each
// approval is checked individually and the first failure aborts the pass.
// Approvals granted before the failing call remain granted: operator approval
// is an independent per-contract capability, not a transaction to roll back.
func (g *Gateway) GrantTransferRights(items []offer.Item) error {
	seen := make(map[common.Address]bool, len(items))

	for _, it := range items {
		addr := it.AssetContract
		if seen[addr] {
			continue
		}
		seen[addr] = true

		contract, err := g.contracts.Resolve(addr)
		if err != nil {
			return fmt.Errorf("%w: %v", offer.ErrApprovalFailed, err)
		}

		if err := contract.ApproveOperator(g.operator, true); err != nil {
			return fmt.Errorf("%w: contract %s: %v", offer.ErrApprovalFailed, addr.Hex(), err)
		}

		g.log.Debugw("operator_approved", "contract", addr.Hex(), "operator", g.operator.Hex())
	}

	return nil
}

// ReleaseCurrency transfers amount wei of held currency to the recipient and
// debits the vault. Transfer and debit are one all-or-nothing step: the vault
// is only debited after the ledger confirms delivery, and any failure leaves
// the held balance unchanged. Releases are serialized, so a balance that
// covers one release cannot be spent twice by overlapping calls.
func (g *Gateway) ReleaseCurrency(amount *big.Int, to common.Address) error {
	g.releaseMu.Lock()
	defer g.releaseMu.Unlock()

	if g.vault.Balance().Cmp(amount) < 0 {
		return fmt.Errorf("%w: held balance below %s wei", offer.ErrCurrencyTransferFailed, amount)
	}

	if err := g.native.TransferValue(to, amount); err != nil {
		return fmt.Errorf("%w: recipient %s: %v", offer.ErrCurrencyTransferFailed, to.Hex(), err)
	}

	if err := g.vault.Debit(amount); err != nil {
		// Delivery already happened; the debit can only fail on storage,
		// which must surface rather than silently desync the balance.
		return fmt.Errorf("failed to record release of %s wei: %w", amount, err)
	}

	g.log.Infow("currency_released", "amount_wei", amount.String(), "to", to.Hex())
	return nil
}

// AcceptDeposit credits the vault with an unconditional deposit.
func (g *Gateway) AcceptDeposit(amount *big.Int) error {
	if err := g.vault.Credit(amount); err != nil {
		return fmt.Errorf("failed to record deposit of %s wei: %w", amount, err)
	}
	g.log.Infow("deposit_accepted", "amount_wei", amount.String())
	return nil
}

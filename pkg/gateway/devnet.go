package gateway

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Local development stand-ins for the external capability interfaces. The
// real deployment binds on-chain contracts here; devnet and tests bind these.

// DevContract is an in-memory asset contract that records operator approvals
// and the transfers the settlement engine drives with them.
type DevContract struct {
	mu        sync.Mutex
	approvals map[common.Address]bool
	transfers []DevTransfer
	failAll   bool
}

// DevTransfer records one delivered token movement.
type DevTransfer struct {
	To     common.Address
	ID     *big.Int
	Amount *big.Int
}

// NewDevContract creates a contract that accepts every call.
func NewDevContract() *DevContract {
	return &DevContract{approvals: make(map[common.Address]bool)}
}

// FailApprovals makes every subsequent approval call fail, for exercising
// failure paths.
func (c *DevContract) FailApprovals(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failAll = fail
}

// ApproveOperator records the approval.
func (c *DevContract) ApproveOperator(operator common.Address, approved bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failAll {
		return fmt.Errorf("approval rejected")
	}
	c.approvals[operator] = approved
	return nil
}

// IsApproved reports whether the operator currently holds approval.
func (c *DevContract) IsApproved(operator common.Address) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.approvals[operator]
}

// TransferValue delivers a token movement. Devnet enforces the one rule a
// settlement walkthrough depends on: an operator must hold approval before
// value can move.
func (c *DevContract) TransferValue(to common.Address, id, amount *big.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ok := false
	for _, approved := range c.approvals {
		if approved {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("no operator approved")
	}
	c.transfers = append(c.transfers, DevTransfer{
		To:     to,
		ID:     new(big.Int).Set(id),
		Amount: new(big.Int).Set(amount),
	})
	return nil
}

// Transfers returns the recorded deliveries.
func (c *DevContract) Transfers() []DevTransfer {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]DevTransfer, len(c.transfers))
	copy(out, c.transfers)
	return out
}

// DevLedger is an in-memory native-currency ledger crediting recipients.
type DevLedger struct {
	mu        sync.Mutex
	received  map[common.Address]*big.Int
	rejectAll bool
}

// NewDevLedger creates a ledger that accepts every transfer.
func NewDevLedger() *DevLedger {
	return &DevLedger{received: make(map[common.Address]*big.Int)}
}

// RejectTransfers makes every subsequent transfer fail, simulating a
// recipient that cannot accept value.
func (l *DevLedger) RejectTransfers(reject bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rejectAll = reject
}

// TransferValue credits the recipient.
func (l *DevLedger) TransferValue(to common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.rejectAll {
		return fmt.Errorf("recipient rejected transfer")
	}
	cur, ok := l.received[to]
	if !ok {
		cur = new(big.Int)
		l.received[to] = cur
	}
	cur.Add(cur, amount)
	return nil
}

// Received returns the total value transferred to an address.
func (l *DevLedger) Received(addr common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.received[addr]; ok {
		return new(big.Int).Set(cur)
	}
	return new(big.Int)
}

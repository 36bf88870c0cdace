package gateway

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// AssetContract is the minimal capability surface of an external asset
// contract (non-fungible or semi-fungible). Implementations talk to whatever
// actually holds the tokens; tests substitute in-memory fakes.
type AssetContract interface {
	// ApproveOperator grants or revokes blanket transfer rights over every
	// token this contract holds for the offerer.
	ApproveOperator(operator common.Address, approved bool) error

	// TransferValue moves amount units of token id to the recipient. The
	// settlement engine drives this with the operator rights granted during
	// execution; the gateway itself never moves tokens.
	TransferValue(to common.Address, id, amount *big.Int) error
}

// CurrencyLedger is the native-value transfer capability. A failed transfer
// means the recipient cannot accept the value; the caller treats the whole
// release as not having happened.
type CurrencyLedger interface {
	TransferValue(to common.Address, amount *big.Int) error
}

// Registry resolves asset contract addresses to their capability bindings.
// Thread-safe; bindings are registered once at wiring time and looked up on
// every approval pass.
type Registry struct {
	mu        sync.RWMutex
	contracts map[common.Address]AssetContract
}

// NewRegistry creates an empty contract registry.
func NewRegistry() *Registry {
	return &Registry{contracts: make(map[common.Address]AssetContract)}
}

// Register binds an asset contract address to its capability implementation.
// Re-registering an address replaces the previous binding.
func (r *Registry) Register(addr common.Address, contract AssetContract) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contracts[addr] = contract
}

// Resolve returns the binding for an address.
func (r *Registry) Resolve(addr common.Address) (AssetContract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contracts[addr]
	if !ok {
		return nil, fmt.Errorf("no contract registered at %s", addr.Hex())
	}
	return c, nil
}

// Count returns the number of registered contracts.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.contracts)
}

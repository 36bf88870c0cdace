package gateway

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"github.com/cockroachdb/pebble"
)

// vaultKey is the single Pebble key holding the vault record. The vault is
// one balance per deployment, not a keyed collection, so no prefix scheme is
// needed.
var vaultKey = []byte("vault:state")

// vaultRecord is the persisted shape of the vault. Amounts are decimal
// strings so arbitrary wei magnitudes round-trip exactly through JSON.
type vaultRecord struct {
	Balance       string `json:"balance"`
	TotalCredited string `json:"totalCredited"`
	TotalReleased string `json:"totalReleased"`
	DepositCount  int64  `json:"depositCount"`
	ReleaseCount  int64  `json:"releaseCount"`
}

// Vault is the held currency balance: the only durable state in the system.
// It is credited by unconditional deposits and debited only after a release
// has been confirmed delivered. One explicit instance per process lifetime,
// passed by reference to whoever needs it.
type Vault struct {
	mu sync.Mutex
	db *pebble.DB

	balance       *big.Int
	totalCredited *big.Int
	totalReleased *big.Int
	depositCount  int64
	releaseCount  int64
}

// NewVault opens (or creates) the vault database at dbPath and loads the
// persisted balance.
func NewVault(dbPath string) (*Vault, error) {
	opts := &pebble.Options{
		Cache:        pebble.NewCache(8 << 20), // tiny working set, one record
		MemTableSize: 4 << 20,
		MaxOpenFiles: 100,
	}

	db, err := pebble.Open(dbPath, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault db at %s: %w", dbPath, err)
	}

	v := &Vault{
		db:            db,
		balance:       new(big.Int),
		totalCredited: new(big.Int),
		totalReleased: new(big.Int),
	}

	if err := v.load(); err != nil {
		db.Close()
		return nil, err
	}

	return v, nil
}

// Close closes the underlying database.
func (v *Vault) Close() error {
	return v.db.Close()
}

// Balance returns a copy of the current held balance in wei.
func (v *Vault) Balance() *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return new(big.Int).Set(v.balance)
}

// Stats returns cumulative credited/released totals and operation counts.
func (v *Vault) Stats() (credited, released *big.Int, deposits, releases int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return new(big.Int).Set(v.totalCredited), new(big.Int).Set(v.totalReleased),
		v.depositCount, v.releaseCount
}

// Credit unconditionally increases the held balance. There is no policy
// failure mode; only a storage error can surface.
func (v *Vault) Credit(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("credit amount must be non-negative")
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.balance.Add(v.balance, amount)
	v.totalCredited.Add(v.totalCredited, amount)
	v.depositCount++

	return v.persistLocked()
}

// Debit decreases the held balance after a confirmed release. Callers must
// have already delivered the value; Debit only enforces that the balance
// never goes negative.
func (v *Vault) Debit(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("debit amount must be non-negative")
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.balance.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient held balance: have %s, need %s", v.balance, amount)
	}

	v.balance.Sub(v.balance, amount)
	v.totalReleased.Add(v.totalReleased, amount)
	v.releaseCount++

	return v.persistLocked()
}

// load reads the persisted record, leaving a zero balance if none exists yet.
func (v *Vault) load() error {
	data, closer, err := v.db.Get(vaultKey)
	if err == pebble.ErrNotFound {
		return nil // fresh vault
	}
	if err != nil {
		return fmt.Errorf("failed to read vault record: %w", err)
	}
	defer closer.Close()

	var rec vaultRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("failed to unmarshal vault record: %w", err)
	}

	var ok bool
	if v.balance, ok = new(big.Int).SetString(rec.Balance, 10); !ok {
		return fmt.Errorf("corrupt vault balance: %q", rec.Balance)
	}
	if v.totalCredited, ok = new(big.Int).SetString(rec.TotalCredited, 10); !ok {
		return fmt.Errorf("corrupt vault credit total: %q", rec.TotalCredited)
	}
	if v.totalReleased, ok = new(big.Int).SetString(rec.TotalReleased, 10); !ok {
		return fmt.Errorf("corrupt vault release total: %q", rec.TotalReleased)
	}
	v.depositCount = rec.DepositCount
	v.releaseCount = rec.ReleaseCount

	return nil
}

// persistLocked writes the record with a durable sync. Caller holds the lock.
func (v *Vault) persistLocked() error {
	rec := vaultRecord{
		Balance:       v.balance.String(),
		TotalCredited: v.totalCredited.String(),
		TotalReleased: v.totalReleased.String(),
		DepositCount:  v.depositCount,
		ReleaseCount:  v.releaseCount,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal vault record: %w", err)
	}

	if err := v.db.Set(vaultKey, data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to persist vault record: %w", err)
	}

	return nil
}

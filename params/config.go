package params

import (
	"fmt"
	"math/big"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

// Offerer holds the identity of this counterparty and the settlement engine
// it trusts.
type Offerer struct {
	// Address is this offerer's own address, attached as recipient to every
	// consideration item. Derived from PrivateKeyHex when one is set.
	Address common.Address

	// PrivateKeyHex is the offerer's key, used only by tooling that needs to
	// sign on its behalf. Optional for the service itself.
	PrivateKeyHex string

	// SettlementEngine is the only address allowed to execute trades.
	SettlementEngine common.Address

	// ChainID scopes request signatures to one chain.
	ChainID *big.Int
}

// Node holds service-level settings.
type Node struct {
	APIAddr     string // HTTP listen address
	VaultDBPath string // Pebble directory for the held currency balance
	LogFile     string // structured log output path
}

type Config struct {
	Offerer Offerer
	Node    Node
}

// Default returns a devnet configuration: local chain, placeholder settlement
// engine, data under ./data.
func Default() Config {
	return Config{
		Offerer: Offerer{
			Address:          common.HexToAddress("0x00000000000000000000000000000000000AC0A1"),
			SettlementEngine: common.HexToAddress("0x00000000000000000000000000000000005EA401"),
			ChainID:          big.NewInt(1337),
		},
		Node: Node{
			APIAddr:     ":8080",
			VaultDBPath: "data/vault.db",
			LogFile:     "data/offerer.log",
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: environment > .env file > defaults.
func LoadFromEnv(envPath string) (Config, error) {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("OFFERER_ADDRESS"); v != "" {
		if !common.IsHexAddress(v) {
			return cfg, fmt.Errorf("invalid OFFERER_ADDRESS: %s", v)
		}
		cfg.Offerer.Address = common.HexToAddress(v)
	}
	if v := os.Getenv("OFFERER_PRIVATE_KEY"); v != "" {
		cfg.Offerer.PrivateKeyHex = v
	}
	if v := os.Getenv("SETTLEMENT_ENGINE_ADDRESS"); v != "" {
		if !common.IsHexAddress(v) {
			return cfg, fmt.Errorf("invalid SETTLEMENT_ENGINE_ADDRESS: %s", v)
		}
		cfg.Offerer.SettlementEngine = common.HexToAddress(v)
	}
	if v := os.Getenv("CHAIN_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid CHAIN_ID: %s", v)
		}
		cfg.Offerer.ChainID = big.NewInt(id)
	}

	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.Node.APIAddr = v
	}
	if v := os.Getenv("VAULT_DB_PATH"); v != "" {
		cfg.Node.VaultDBPath = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Node.LogFile = v
	}

	return cfg, nil
}

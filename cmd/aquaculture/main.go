package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common"

	"github.com/emo-eth/aquaculture/params"
	"github.com/emo-eth/aquaculture/pkg/api"
	"github.com/emo-eth/aquaculture/pkg/crypto"
	"github.com/emo-eth/aquaculture/pkg/gateway"
	"github.com/emo-eth/aquaculture/pkg/offer"
	"github.com/emo-eth/aquaculture/pkg/util"
)

func main() {
	cfg, err := params.LoadFromEnv("")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := util.NewLoggerWithFile(cfg.Node.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	// The offerer address can come from a configured key instead of being
	// set directly.
	offererAddr := cfg.Offerer.Address
	if cfg.Offerer.PrivateKeyHex != "" {
		signer, err := crypto.FromPrivateKeyHex(cfg.Offerer.PrivateKeyHex)
		if err != nil {
			sugar.Fatalw("offerer_key_invalid", "err", err)
		}
		offererAddr = signer.Address()
	}

	// ---- Held currency balance ----
	vault, err := gateway.NewVault(cfg.Node.VaultDBPath)
	if err != nil {
		sugar.Fatalw("vault_open_failed", "err", err)
	}
	defer vault.Close()
	sugar.Infow("vault_opened", "path", cfg.Node.VaultDBPath, "balance_wei", vault.Balance().String())

	// ---- Asset contract bindings ----
	// Devnet mode: ASSET_CONTRACTS is a comma-separated address list, each
	// bound to an in-memory contract. Production swaps in on-chain bindings.
	registry := gateway.NewRegistry()
	if raw := os.Getenv("ASSET_CONTRACTS"); raw != "" {
		for _, a := range strings.Split(raw, ",") {
			a = strings.TrimSpace(a)
			if !common.IsHexAddress(a) {
				sugar.Fatalw("invalid_asset_contract", "addr", a)
			}
			registry.Register(common.HexToAddress(a), gateway.NewDevContract())
		}
	}
	sugar.Infow("contracts_registered", "count", registry.Count())

	ledger := gateway.NewDevLedger()
	gw := gateway.NewGateway(vault, registry, ledger, cfg.Offerer.SettlementEngine, sugar)

	// ---- Offerer ----
	offerer := offer.NewOfferer(offererAddr, cfg.Offerer.SettlementEngine, gw, sugar)
	sugar.Infow("offerer_ready",
		"address", offererAddr.Hex(),
		"settlement_engine", cfg.Offerer.SettlementEngine.Hex(),
		"chain_id", cfg.Offerer.ChainID.String())

	// ---- API server ----
	trades := crypto.NewTradeSigner(crypto.DefaultDomain(cfg.Offerer.ChainID, offererAddr))
	server := api.NewServer(offerer, gw, trades, sugar)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.Start(cfg.Node.APIAddr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("shutting down")
}

// sign-trade builds and signs a sample trade execution request, printing the
// JSON body to POST to /api/v1/trades/execute. Use it to exercise a local
// offerer as the settlement engine.
package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/emo-eth/aquaculture/pkg/crypto"
	"github.com/emo-eth/aquaculture/pkg/offer"
)

func main() {
	var signer *crypto.Signer
	var err error

	if key := os.Getenv("SETTLEMENT_PRIVATE_KEY"); key != "" {
		signer, err = crypto.FromPrivateKeyHex(key)
	} else {
		fmt.Println("SETTLEMENT_PRIVATE_KEY not set, generating throwaway key...")
		signer, err = crypto.GenerateKey()
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Signing as: %s\n\n", signer.Address().Hex())

	// Sample trade: the caller asks for 1 wei and supplies one token.
	contract := common.HexToAddress("0x00000000000000000000000000000000000000A7")
	wanted := []offer.Item{{
		Kind:     offer.KindCurrency,
		Quantity: big.NewInt(1),
	}}
	offered := []offer.Item{{
		Kind:          offer.KindNonFungible,
		AssetContract: contract,
		AssetID:       big.NewInt(69),
		Quantity:      big.NewInt(1),
	}}

	chainID := big.NewInt(1337)
	offererAddr := common.HexToAddress(os.Getenv("OFFERER_ADDRESS"))
	nonce := big.NewInt(1)

	trades := crypto.NewTradeSigner(crypto.DefaultDomain(chainID, offererAddr))
	sig, err := trades.SignRequest(signer, wanted, offered, nil, nonce)
	if err != nil {
		fmt.Printf("Error signing: %v\n", err)
		os.Exit(1)
	}

	body := map[string]interface{}{
		"wanted": []map[string]string{{
			"kind":     "currency",
			"quantity": "1",
		}},
		"offered": []map[string]string{{
			"kind":          "non_fungible",
			"assetContract": contract.Hex(),
			"assetId":       "69",
			"quantity":      "1",
		}},
		"context":   "",
		"nonce":     nonce.String(),
		"signature": hexutil.Encode(sig),
	}

	out, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("POST /api/v1/trades/execute")
	fmt.Println(string(out))
}

package crypto

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/emo-eth/aquaculture/pkg/offer"
)

// EIP-712 typed-data signing for trade execution requests. The settlement
// engine signs a digest binding the full proposed trade, its opaque context,
// and a nonce; the service recovers the caller address from that signature
// before any trade logic runs.

// Domain is the EIP-712 domain separator, scoping signatures to one offerer
// deployment on one chain.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

// DefaultDomain returns the domain for an offerer deployed at the given
// address.
func DefaultDomain(chainID *big.Int, offerer common.Address) Domain {
	return Domain{
		Name:              "Aquaculture",
		Version:           "1",
		ChainID:           chainID,
		VerifyingContract: offerer,
	}
}

// TradeSigner hashes and verifies trade execution requests under one domain.
type TradeSigner struct {
	domain Domain
}

// NewTradeSigner creates a trade signer for the given domain.
func NewTradeSigner(domain Domain) *TradeSigner {
	return &TradeSigner{domain: domain}
}

// HashItem produces the canonical 32-byte commitment to one item:
// keccak256(kind || contract || id || quantity), with id and quantity
// left-padded to 32 bytes.
func HashItem(it offer.Item) common.Hash {
	buf := make([]byte, 0, 1+20+32+32)
	buf = append(buf, byte(it.Kind))
	buf = append(buf, it.AssetContract.Bytes()...)
	buf = append(buf, common.BigToHash(bigOrZero(it.AssetID)).Bytes()...)
	buf = append(buf, common.BigToHash(bigOrZero(it.Quantity)).Bytes()...)
	return crypto.Keccak256Hash(buf)
}

// HashTrade commits to an entire proposed trade: the concatenated item
// hashes of each side plus the context hash.
func HashTrade(wanted, offered []offer.Item, context []byte) common.Hash {
	var buf []byte
	for _, it := range wanted {
		buf = append(buf, HashItem(it).Bytes()...)
	}
	for _, it := range offered {
		buf = append(buf, HashItem(it).Bytes()...)
	}
	buf = append(buf, crypto.Keccak256(context)...)
	return crypto.Keccak256Hash(buf)
}

// HashRequest returns the EIP-712 digest the settlement engine signs for an
// execution request.
func (t *TradeSigner) HashRequest(tradeHash common.Hash, nonce *big.Int) ([]byte, error) {
	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"TradeRequest": []apitypes.Type{
				{Name: "tradeHash", Type: "bytes32"},
				{Name: "nonce", Type: "uint256"},
			},
		},
		PrimaryType: "TradeRequest",
		Domain: apitypes.TypedDataDomain{
			Name:              t.domain.Name,
			Version:           t.domain.Version,
			ChainId:           (*math.HexOrDecimal256)(t.domain.ChainID),
			VerifyingContract: t.domain.VerifyingContract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"tradeHash": tradeHash.Hex(),
			"nonce":     bigOrZero(nonce).String(),
		},
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to hash domain: %w", err)
	}
	messageHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to hash message: %w", err)
	}

	// digest = keccak256("\x19\x01" || domainSeparator || messageHash)
	raw := append(append([]byte("\x19\x01"), domainSeparator...), messageHash...)
	return crypto.Keccak256(raw), nil
}

// SignRequest signs an execution request for the given trade.
func (t *TradeSigner) SignRequest(signer *Signer, wanted, offered []offer.Item, context []byte, nonce *big.Int) ([]byte, error) {
	digest, err := t.HashRequest(HashTrade(wanted, offered, context), nonce)
	if err != nil {
		return nil, err
	}
	return signer.Sign(digest)
}

// RecoverCaller recovers the address that signed an execution request.
func (t *TradeSigner) RecoverCaller(wanted, offered []offer.Item, context []byte, nonce *big.Int, sig []byte) (common.Address, error) {
	digest, err := t.HashRequest(HashTrade(wanted, offered, context), nonce)
	if err != nil {
		return common.Address{}, err
	}
	return RecoverAddress(digest, sig)
}

func bigOrZero(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return x
}

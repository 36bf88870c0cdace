package api

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/emo-eth/aquaculture/pkg/offer"
)

// JSON wire types for REST endpoints and WebSocket messages. Amounts and
// token IDs travel as decimal strings so arbitrary wei magnitudes survive
// JSON number handling in any client.

// ItemJSON is one trade leg entry on the wire.
type ItemJSON struct {
	Kind          string `json:"kind"`          // "currency" | "fungible" | "non_fungible" | "semi_fungible"
	AssetContract string `json:"assetContract"` // 0x address; ignored for currency
	AssetID       string `json:"assetId"`       // decimal string; ignored for currency
	Quantity      string `json:"quantity"`      // decimal string
}

// ReceivedItemJSON is an item with its delivery recipient.
type ReceivedItemJSON struct {
	ItemJSON
	Recipient string `json:"recipient"`
}

// PreviewRequest proposes a trade for read-only evaluation.
type PreviewRequest struct {
	Wanted  []ItemJSON `json:"wanted"`
	Offered []ItemJSON `json:"offered"`
}

// ExecuteRequest proposes a trade for execution. The signature is the
// settlement engine's EIP-712 signature over the trade, context, and nonce;
// the recovered address becomes the caller.
type ExecuteRequest struct {
	Wanted    []ItemJSON `json:"wanted"`
	Offered   []ItemJSON `json:"offered"`
	Context   string     `json:"context"`   // 0x-prefixed opaque bytes, may be empty
	Nonce     string     `json:"nonce"`     // decimal string
	Signature string     `json:"signature"` // 0x-prefixed 65 bytes
}

// TermsResponse is the finalized terms of an accepted trade.
type TermsResponse struct {
	RequestID     string             `json:"requestId"`
	Offer         []ItemJSON         `json:"offer"`
	Consideration []ReceivedItemJSON `json:"consideration"`
}

// AckRequest echoes settled terms back for confirmation.
type AckRequest struct {
	Offer         []ReceivedItemJSON `json:"offer"`
	Consideration []ReceivedItemJSON `json:"consideration"`
	TradeID       string             `json:"tradeId"` // 0x-prefixed 32 bytes
}

// AckResponse carries the fixed acknowledgment token.
type AckResponse struct {
	Ack string `json:"ack"` // 0x-prefixed 4 bytes
}

// DepositRequest attaches value to the vault.
type DepositRequest struct {
	Amount string `json:"amount"` // decimal wei
}

// VaultInfo is the externally observable held currency balance.
type VaultInfo struct {
	Balance       string `json:"balance"`
	TotalCredited string `json:"totalCredited"`
	TotalReleased string `json:"totalReleased"`
	DepositCount  int64  `json:"depositCount"`
	ReleaseCount  int64  `json:"releaseCount"`
}

// SchemaJSON identifies one supported protocol schema.
type SchemaJSON struct {
	ID       string `json:"id"`
	Metadata string `json:"metadata"` // 0x-prefixed bytes
}

// CapabilitiesResponse advertises the offerer's capability set.
type CapabilitiesResponse struct {
	Name        string       `json:"name"`
	Address     string       `json:"address"`
	InterfaceID string       `json:"interfaceId"` // combined counterparty interface
	Schemas     []SchemaJSON `json:"schemas"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WSSubscribeRequest is the client->server subscription message.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}

// TradeEvent is broadcast on the "trades" channel after each execution.
type TradeEvent struct {
	Type      string `json:"type"` // "trade"
	RequestID string `json:"requestId"`
	Direction string `json:"direction"` // "currency_out" or "assets_out"
	AmountWei string `json:"amountWei"`
	Items     int    `json:"items"`
	Timestamp int64  `json:"timestamp"`
}

// DepositEvent is broadcast on the "deposits" channel.
type DepositEvent struct {
	Type      string `json:"type"` // "deposit"
	AmountWei string `json:"amountWei"`
	Balance   string `json:"balance"`
	Timestamp int64  `json:"timestamp"`
}

// ==============================
// Wire <-> domain conversion
// ==============================

func parseKind(s string) (offer.ItemKind, error) {
	switch s {
	case "currency":
		return offer.KindCurrency, nil
	case "fungible":
		return offer.KindFungible, nil
	case "non_fungible":
		return offer.KindNonFungible, nil
	case "semi_fungible":
		return offer.KindSemiFungible, nil
	default:
		return 0, fmt.Errorf("unknown item kind: %q", s)
	}
}

func parseBig(field, s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s: %q", field, s)
	}
	return v, nil
}

func itemFromJSON(in ItemJSON) (offer.Item, error) {
	kind, err := parseKind(in.Kind)
	if err != nil {
		return offer.Item{}, err
	}
	id, err := parseBig("assetId", in.AssetID)
	if err != nil {
		return offer.Item{}, err
	}
	qty, err := parseBig("quantity", in.Quantity)
	if err != nil {
		return offer.Item{}, err
	}
	var contract common.Address
	if in.AssetContract != "" {
		if !common.IsHexAddress(in.AssetContract) {
			return offer.Item{}, fmt.Errorf("invalid assetContract: %q", in.AssetContract)
		}
		contract = common.HexToAddress(in.AssetContract)
	}
	return offer.Item{
		Kind:          kind,
		AssetContract: contract,
		AssetID:       id,
		Quantity:      qty,
	}, nil
}

func itemsFromJSON(in []ItemJSON) ([]offer.Item, error) {
	out := make([]offer.Item, len(in))
	for i, dto := range in {
		item, err := itemFromJSON(dto)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = item
	}
	return out, nil
}

func itemToJSON(it offer.Item) ItemJSON {
	id, qty := "0", "0"
	if it.AssetID != nil {
		id = it.AssetID.String()
	}
	if it.Quantity != nil {
		qty = it.Quantity.String()
	}
	return ItemJSON{
		Kind:          it.Kind.String(),
		AssetContract: it.AssetContract.Hex(),
		AssetID:       id,
		Quantity:      qty,
	}
}

func termsToJSON(requestID string, terms *offer.FinalizedTerms) TermsResponse {
	out := TermsResponse{
		RequestID:     requestID,
		Offer:         make([]ItemJSON, len(terms.Offer)),
		Consideration: make([]ReceivedItemJSON, len(terms.Consideration)),
	}
	for i, it := range terms.Offer {
		out.Offer[i] = itemToJSON(it)
	}
	for i, ri := range terms.Consideration {
		out.Consideration[i] = ReceivedItemJSON{
			ItemJSON:  itemToJSON(ri.Item),
			Recipient: ri.Recipient.Hex(),
		}
	}
	return out
}

func parseHexBytes(field, s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", field, err)
	}
	return b, nil
}

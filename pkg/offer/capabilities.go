package offer

import (
	"math/big"

	"golang.org/x/crypto/sha3"
)

// Capability advertisement: a fixed, closed description of what this offerer
// can do, queried by settlement engines before routing trades to it.

// Canonical operation signatures. Interface IDs are the first four bytes of
// the keccak-256 hash of the signature, XOR-combined per capability set.
const (
	sigPreviewTrade          = "previewTrade(Item[],Item[])"
	sigExecuteTrade          = "executeTrade(Item[],Item[],bytes)"
	sigAcknowledgeSettlement = "acknowledgeSettlement(ReceivedItem[],ReceivedItem[],bytes32)"
	sigDescribeCapabilities  = "describeCapabilities()"
)

// SchemaInfo identifies one protocol schema this offerer conforms to.
type SchemaInfo struct {
	ID       *big.Int `json:"id"`
	Metadata []byte   `json:"metadata"`
}

// Metadata returns the offerer's name and the protocol schemas it implements.
// Fixed-shape response with no policy content.
func (o *Offerer) Metadata() (string, []SchemaInfo) {
	return "Aquaculture", []SchemaInfo{
		{ID: big.NewInt(7), Metadata: []byte{}},
	}
}

// SupportsInterface reports whether the given four-byte interface ID is in
// this offerer's closed capability set: each individual operation plus the
// combined trade-counterparty interface.
func (o *Offerer) SupportsInterface(id [4]byte) bool {
	switch id {
	case Selector(sigPreviewTrade),
		Selector(sigExecuteTrade),
		Selector(sigAcknowledgeSettlement),
		Selector(sigDescribeCapabilities),
		CounterpartyInterfaceID():
		return true
	}
	return false
}

// Selector returns the first four bytes of keccak256(sig).
func Selector(sig string) [4]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(sig))
	sum := h.Sum(nil)
	var id [4]byte
	copy(id[:], sum[:4])
	return id
}

// CounterpartyInterfaceID is the XOR of all operation selectors, identifying
// the full trade-counterparty capability set as one interface.
func CounterpartyInterfaceID() [4]byte {
	sigs := []string{
		sigPreviewTrade,
		sigExecuteTrade,
		sigAcknowledgeSettlement,
		sigDescribeCapabilities,
	}
	var id [4]byte
	for _, sig := range sigs {
		sel := Selector(sig)
		for i := range id {
			id[i] ^= sel[i]
		}
	}
	return id
}

// AckSelector is the fixed acknowledgment token returned by
// AcknowledgeSettlement.
func AckSelector() [4]byte {
	return Selector(sigAcknowledgeSettlement)
}

package offer_test

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/emo-eth/aquaculture/pkg/offer"
)

var (
	offererAddr    = common.HexToAddress("0x00000000000000000000000000000000000AC0A1")
	settlementAddr = common.HexToAddress("0x00000000000000000000000000000000005EA401")
	strangerAddr   = common.HexToAddress("0x000000000000000000000000000000000000DEAD")
)

// stubGateway records side-effect calls and can be told to fail them.
type stubGateway struct {
	approved   [][]offer.Item
	released   []*big.Int
	releasedTo []common.Address
	approveErr error
	releaseErr error
}

func (g *stubGateway) GrantTransferRights(items []offer.Item) error {
	if g.approveErr != nil {
		return g.approveErr
	}
	g.approved = append(g.approved, items)
	return nil
}

func (g *stubGateway) ReleaseCurrency(amount *big.Int, to common.Address) error {
	if g.releaseErr != nil {
		return g.releaseErr
	}
	g.released = append(g.released, new(big.Int).Set(amount))
	g.releasedTo = append(g.releasedTo, to)
	return nil
}

func newTestOfferer(gw offer.Gateway) *offer.Offerer {
	return offer.NewOfferer(offererAddr, settlementAddr, gw, nil)
}

// TestPreviewTradeTerms checks the round-trip shape of finalized terms:
// wanted comes back unchanged as the offer side, offered becomes the
// consideration side addressed to the offerer.
func TestPreviewTradeTerms(t *testing.T) {
	o := newTestOfferer(&stubGateway{})

	wanted := []offer.Item{nftItem(tokenA, 69), sftItem(tokenB, 4, 500)}
	offered := []offer.Item{currencyItem(2)}

	terms, err := o.PreviewTrade(wanted, offered)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}

	if len(terms.Offer) != 2 {
		t.Fatalf("offer side has %d items, want 2", len(terms.Offer))
	}
	for i, it := range terms.Offer {
		if it.Kind != wanted[i].Kind || it.AssetContract != wanted[i].AssetContract {
			t.Errorf("offer item %d changed: %+v", i, it)
		}
		if it.AssetID.Cmp(wanted[i].AssetID) != 0 || it.Quantity.Cmp(wanted[i].Quantity) != 0 {
			t.Errorf("offer item %d amounts changed: %+v", i, it)
		}
	}

	if len(terms.Consideration) != 1 {
		t.Fatalf("consideration side has %d items, want 1", len(terms.Consideration))
	}
	got := terms.Consideration[0]
	if got.Kind != offer.KindCurrency || got.Quantity.Cmp(big.NewInt(2)) != 0 {
		t.Errorf("consideration item changed: %+v", got)
	}
	if got.Recipient != offererAddr {
		t.Errorf("recipient = %s, want offerer %s", got.Recipient.Hex(), offererAddr.Hex())
	}
}

// TestPreviewTradeNoAliasing confirms terms never share big.Int pointers with
// the caller's items.
func TestPreviewTradeNoAliasing(t *testing.T) {
	o := newTestOfferer(&stubGateway{})

	wanted := []offer.Item{nftItem(tokenA, 69)}
	offered := []offer.Item{currencyItem(1)}

	terms, err := o.PreviewTrade(wanted, offered)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}

	terms.Offer[0].AssetID.SetInt64(999)
	if wanted[0].AssetID.Cmp(big.NewInt(69)) != 0 {
		t.Error("terms alias caller memory")
	}
}

// TestPreviewTradeIdempotent checks byte-identical output for repeat calls.
func TestPreviewTradeIdempotent(t *testing.T) {
	o := newTestOfferer(&stubGateway{})

	wanted := []offer.Item{currencyItem(1)}
	offered := []offer.Item{nftItem(tokenA, 69)}

	first, err := o.PreviewTrade(wanted, offered)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	second, err := o.PreviewTrade(wanted, offered)
	if err != nil {
		t.Fatalf("second preview failed: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("preview not idempotent:\n%s\n%s", a, b)
	}
}

// TestExecuteMatchesPreview checks that an authorized execution produces the
// same terms as a preview of the same trade.
func TestExecuteMatchesPreview(t *testing.T) {
	gw := &stubGateway{}
	o := newTestOfferer(gw)

	wanted := []offer.Item{currencyItem(1)}
	offered := []offer.Item{nftItem(tokenA, 69)}

	previewed, err := o.PreviewTrade(wanted, offered)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	executed, _, err := o.ExecuteTrade(settlementAddr, wanted, offered, nil)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	a, _ := json.Marshal(previewed)
	b, _ := json.Marshal(executed)
	if string(a) != string(b) {
		t.Errorf("execute terms differ from preview:\n%s\n%s", a, b)
	}
}

// TestExecuteCurrencyOut: the caller asks for 1 wei and supplies one token,
// so the side effect is a 1 wei release to the caller.
func TestExecuteCurrencyOut(t *testing.T) {
	gw := &stubGateway{}
	o := newTestOfferer(gw)

	wanted := []offer.Item{currencyItem(1)}
	offered := []offer.Item{nftItem(tokenA, 69)}

	_, outcome, err := o.ExecuteTrade(settlementAddr, wanted, offered, nil)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if len(gw.released) != 1 || gw.released[0].Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("released = %v, want one release of 1 wei", gw.released)
	}
	if gw.releasedTo[0] != settlementAddr {
		t.Errorf("released to %s, want caller %s", gw.releasedTo[0].Hex(), settlementAddr.Hex())
	}
	if len(gw.approved) != 0 {
		t.Errorf("unexpected approvals: %v", gw.approved)
	}
	if !outcome.CurrencyOut || outcome.AmountWei.Cmp(big.NewInt(1)) != 0 || outcome.ItemCount != 1 {
		t.Errorf("outcome = %+v, want currency out of 1 wei for 1 item", outcome)
	}
}

// TestExecuteAssetsOut: the caller asks for a token and supplies 1 wei, so
// the side effect grants transfer rights over the wanted token's contract.
func TestExecuteAssetsOut(t *testing.T) {
	gw := &stubGateway{}
	o := newTestOfferer(gw)

	wanted := []offer.Item{nftItem(tokenA, 69)}
	offered := []offer.Item{currencyItem(1)}

	_, outcome, err := o.ExecuteTrade(settlementAddr, wanted, offered, nil)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if len(gw.approved) != 1 || len(gw.approved[0]) != 1 {
		t.Fatalf("approved = %v, want one approval pass over one item", gw.approved)
	}
	if gw.approved[0][0].AssetContract != tokenA {
		t.Errorf("approved contract %s, want %s", gw.approved[0][0].AssetContract.Hex(), tokenA.Hex())
	}
	if len(gw.released) != 0 {
		t.Errorf("unexpected currency release: %v", gw.released)
	}
	if outcome.CurrencyOut || outcome.AmountWei.Cmp(big.NewInt(1)) != 0 || outcome.ItemCount != 1 {
		t.Errorf("outcome = %+v, want assets out priced at 1 wei for 1 item", outcome)
	}
}

// TestExecuteUnauthorized checks that a wrong caller is rejected before
// validation, even on otherwise invalid input.
func TestExecuteUnauthorized(t *testing.T) {
	gw := &stubGateway{}
	o := newTestOfferer(gw)

	// Valid trade, wrong caller.
	wanted := []offer.Item{currencyItem(1)}
	offered := []offer.Item{nftItem(tokenA, 69)}
	if _, _, err := o.ExecuteTrade(strangerAddr, wanted, offered, nil); !errors.Is(err, offer.ErrUnauthorizedCaller) {
		t.Errorf("got %v, want ErrUnauthorizedCaller", err)
	}

	// Invalid trade, wrong caller: still the authorization error.
	if _, _, err := o.ExecuteTrade(strangerAddr, nil, nil, nil); !errors.Is(err, offer.ErrUnauthorizedCaller) {
		t.Errorf("got %v, want ErrUnauthorizedCaller before validation", err)
	}

	if len(gw.approved) != 0 || len(gw.released) != 0 {
		t.Error("side effects ran for unauthorized caller")
	}
}

// TestExecuteSideEffectFailure checks that gateway failures surface and
// abort the call.
func TestExecuteSideEffectFailure(t *testing.T) {
	gw := &stubGateway{releaseErr: offer.ErrCurrencyTransferFailed}
	o := newTestOfferer(gw)

	wanted := []offer.Item{currencyItem(1)}
	offered := []offer.Item{nftItem(tokenA, 69)}

	if _, _, err := o.ExecuteTrade(settlementAddr, wanted, offered, nil); !errors.Is(err, offer.ErrCurrencyTransferFailed) {
		t.Errorf("got %v, want ErrCurrencyTransferFailed", err)
	}

	gw = &stubGateway{approveErr: offer.ErrApprovalFailed}
	o = newTestOfferer(gw)
	if _, _, err := o.ExecuteTrade(settlementAddr, offered, wanted, nil); !errors.Is(err, offer.ErrApprovalFailed) {
		t.Errorf("got %v, want ErrApprovalFailed", err)
	}
}

// TestExecuteContextIgnored confirms opaque context bytes change nothing.
func TestExecuteContextIgnored(t *testing.T) {
	gw := &stubGateway{}
	o := newTestOfferer(gw)

	wanted := []offer.Item{currencyItem(1)}
	offered := []offer.Item{nftItem(tokenA, 69)}

	plain, _, err := o.ExecuteTrade(settlementAddr, wanted, offered, nil)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	withContext, _, err := o.ExecuteTrade(settlementAddr, wanted, offered, []byte("arbitrary opaque bytes"))
	if err != nil {
		t.Fatalf("execute with context failed: %v", err)
	}

	a, _ := json.Marshal(plain)
	b, _ := json.Marshal(withContext)
	if string(a) != string(b) {
		t.Error("context bytes changed the terms")
	}
}

// TestAcknowledgeSettlement checks the fixed acknowledgment token.
func TestAcknowledgeSettlement(t *testing.T) {
	o := newTestOfferer(&stubGateway{})

	var tradeID [32]byte
	ack := o.AcknowledgeSettlement(nil, nil, tradeID)
	if ack != offer.AckSelector() {
		t.Errorf("ack = %x, want %x", ack, offer.AckSelector())
	}

	// Echoed items and trade ID are irrelevant.
	tradeID[0] = 0xFF
	ack2 := o.AcknowledgeSettlement([]offer.ReceivedItem{{}}, nil, tradeID)
	if ack2 != ack {
		t.Error("ack token is not fixed")
	}
}

// TestCapabilities checks the closed capability set.
func TestCapabilities(t *testing.T) {
	o := newTestOfferer(&stubGateway{})

	name, schemas := o.Metadata()
	if name == "" || len(schemas) == 0 {
		t.Fatalf("metadata incomplete: name=%q schemas=%d", name, len(schemas))
	}

	if !o.SupportsInterface(offer.CounterpartyInterfaceID()) {
		t.Error("combined counterparty interface not supported")
	}
	if !o.SupportsInterface(offer.AckSelector()) {
		t.Error("acknowledge selector not supported")
	}
	if o.SupportsInterface([4]byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Error("arbitrary interface reported as supported")
	}
}

package api

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/emo-eth/aquaculture/pkg/crypto"
	"github.com/emo-eth/aquaculture/pkg/gateway"
	"github.com/emo-eth/aquaculture/pkg/offer"
)

// Server exposes the offerer over REST and streams trade/deposit events over
// WebSocket.
type Server struct {
	offerer *offer.Offerer
	gw      *gateway.Gateway
	trades  *crypto.TradeSigner
	router  *mux.Router
	hub     *Hub
	log     *zap.SugaredLogger
}

// NewServer wires the API surface to an offerer, its gateway, and the trade
// signature domain.
func NewServer(o *offer.Offerer, gw *gateway.Gateway, trades *crypto.TradeSigner, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{
		offerer: o,
		gw:      gw,
		trades:  trades,
		router:  mux.NewRouter(),
		hub:     NewHub(log),
		log:     log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/trades/preview", s.handlePreviewTrade).Methods("POST")
	api.HandleFunc("/trades/execute", s.handleExecuteTrade).Methods("POST")
	api.HandleFunc("/trades/ack", s.handleAcknowledge).Methods("POST")

	api.HandleFunc("/vault/deposit", s.handleDeposit).Methods("POST")
	api.HandleFunc("/vault", s.handleGetVault).Methods("GET")

	api.HandleFunc("/capabilities", s.handleCapabilities).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the fully assembled HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// Start runs the WebSocket hub and serves HTTP on addr. Blocks.
func (s *Server) Start(addr string) error {
	go s.hub.Run()
	s.log.Infow("api_server_starting", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// ==============================
// REST handlers
// ==============================

func (s *Server) handlePreviewTrade(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	wanted, err := itemsFromJSON(req.Wanted)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid wanted items", err.Error())
		return
	}
	offered, err := itemsFromJSON(req.Offered)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid offered items", err.Error())
		return
	}

	terms, err := s.offerer.PreviewTrade(wanted, offered)
	if err != nil {
		respondTradeError(w, err)
		return
	}

	respondJSON(w, termsToJSON(uuid.NewString(), terms))
}

func (s *Server) handleExecuteTrade(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	wanted, err := itemsFromJSON(req.Wanted)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid wanted items", err.Error())
		return
	}
	offered, err := itemsFromJSON(req.Offered)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid offered items", err.Error())
		return
	}
	context, err := parseHexBytes("context", req.Context)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid context", err.Error())
		return
	}
	nonce, err := parseBig("nonce", req.Nonce)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid nonce", err.Error())
		return
	}
	sig, err := parseHexBytes("signature", req.Signature)
	if err != nil || len(sig) != 65 {
		respondError(w, http.StatusBadRequest, "invalid signature", "expected 65 signature bytes")
		return
	}

	// The recovered signer is the caller. Authorization itself is decided by
	// the offerer, not here.
	caller, err := s.trades.RecoverCaller(wanted, offered, context, nonce, sig)
	if err != nil {
		respondError(w, http.StatusBadRequest, "signature recovery failed", err.Error())
		return
	}

	terms, outcome, err := s.offerer.ExecuteTrade(caller, wanted, offered, context)
	if err != nil {
		respondTradeError(w, err)
		return
	}

	requestID := uuid.NewString()
	s.log.Infow("trade_request_settled", "request_id", requestID, "caller", caller.Hex())

	direction := "assets_out"
	if outcome.CurrencyOut {
		direction = "currency_out"
	}
	s.hub.BroadcastToChannel("trades", TradeEvent{
		Type:      "trade",
		RequestID: requestID,
		Direction: direction,
		AmountWei: outcome.AmountWei.String(),
		Items:     outcome.ItemCount,
		Timestamp: time.Now().UnixMilli(),
	})

	respondJSON(w, termsToJSON(requestID, terms))
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	var req AckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	var tradeID [32]byte
	if req.TradeID != "" {
		b, err := parseHexBytes("tradeId", req.TradeID)
		if err != nil || len(b) != 32 {
			respondError(w, http.StatusBadRequest, "invalid tradeId", "expected 32 bytes")
			return
		}
		copy(tradeID[:], b)
	}

	// The echoed items are not validated; the settlement engine is the
	// source of truth for delivery.
	ack := s.offerer.AcknowledgeSettlement(nil, nil, tradeID)
	respondJSON(w, AckResponse{Ack: hexutil.Encode(ack[:])})
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok || amount.Sign() < 0 {
		respondError(w, http.StatusBadRequest, "invalid amount", "expected non-negative decimal wei")
		return
	}

	if err := s.gw.AcceptDeposit(amount); err != nil {
		respondError(w, http.StatusInternalServerError, "deposit failed", err.Error())
		return
	}

	s.hub.BroadcastToChannel("deposits", DepositEvent{
		Type:      "deposit",
		AmountWei: amount.String(),
		Balance:   s.gw.Vault().Balance().String(),
		Timestamp: time.Now().UnixMilli(),
	})

	respondJSON(w, s.vaultInfo())
}

func (s *Server) handleGetVault(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.vaultInfo())
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	name, schemas := s.offerer.Metadata()
	ifaceID := offer.CounterpartyInterfaceID()

	out := CapabilitiesResponse{
		Name:        name,
		Address:     s.offerer.Address().Hex(),
		InterfaceID: hexutil.Encode(ifaceID[:]),
		Schemas:     make([]SchemaJSON, len(schemas)),
	}
	for i, sc := range schemas {
		out.Schemas[i] = SchemaJSON{
			ID:       sc.ID.String(),
			Metadata: hexutil.Encode(sc.Metadata),
		}
	}

	respondJSON(w, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) vaultInfo() VaultInfo {
	v := s.gw.Vault()
	credited, released, deposits, releases := v.Stats()
	return VaultInfo{
		Balance:       v.Balance().String(),
		TotalCredited: credited.String(),
		TotalReleased: released.String(),
		DepositCount:  deposits,
		ReleaseCount:  releases,
	}
}

// ==============================
// Helpers
// ==============================

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, errMsg string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: errMsg, Message: message})
}

// respondTradeError maps domain rejections to HTTP statuses: authorization to
// 403, malformed trades to 422, and external capability failures to 502.
func respondTradeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, offer.ErrUnauthorizedCaller):
		respondError(w, http.StatusForbidden, "unauthorized caller", err.Error())
	case errors.Is(err, offer.ErrApprovalFailed),
		errors.Is(err, offer.ErrCurrencyTransferFailed):
		respondError(w, http.StatusBadGateway, "side effect failed", err.Error())
	case errors.Is(err, offer.ErrEmptyWantedList),
		errors.Is(err, offer.ErrEmptyOfferedList),
		errors.Is(err, offer.ErrInvalidItemShape),
		errors.Is(err, offer.ErrMultipleCurrencyItems),
		errors.Is(err, offer.ErrInvalidCurrencyAmount):
		respondError(w, http.StatusUnprocessableEntity, "trade rejected", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error", err.Error())
	}
}

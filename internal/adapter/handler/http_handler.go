package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/provly/provenance/internal/adapter/payment"
	"github.com/provly/provenance/internal/core/domain"
	"github.com/provly/provenance/internal/core/service"
)

type HTTPHandler struct {
	market *service.Marketplace
	wallet *payment.Wallet
}

func NewHTTPHandler(market *service.Marketplace, wallet *payment.Wallet) *HTTPHandler {
	return &HTTPHandler{market: market, wallet: wallet}
}

// Register wires every route onto the mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/api/participants", h.RegisterParticipant)
	mux.HandleFunc("/api/certifiers", h.AddCertifier)
	mux.HandleFunc("/api/items", h.RegisterItem)
	mux.HandleFunc("/api/items/certify", h.CertifyItem)
	mux.HandleFunc("/api/items/list", h.ListItemForSale)
	mux.HandleFunc("/api/items/purchase", h.PurchaseItem)
	mux.HandleFunc("/api/items/transfer", h.TransferItem)
	mux.HandleFunc("/api/verify", h.VerifyBySerial)
	mux.HandleFunc("/api/items/history", h.HistoryOf)
	mux.HandleFunc("/api/items/owned", h.ItemsOf)
	mux.HandleFunc("/api/counts", h.Counts)
	mux.HandleFunc("/api/wallet/deposit", h.Deposit)
	mux.HandleFunc("/api/wallet/balance", h.Balance)
}

type errorResponse struct {
	Error string `json:"error"`
}

type registerParticipantRequest struct {
	ID string `json:"id"`
}

func (h *HTTPHandler) RegisterParticipant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req registerParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := h.market.RegisterParticipant(r.Context(), req.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": req.ID})
}

type addCertifierRequest struct {
	Caller string `json:"caller"`
	ID     string `json:"id"`
}

func (h *HTTPHandler) AddCertifier(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req addCertifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Caller == "" || req.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := h.market.AddCertifier(r.Context(), req.Caller, req.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": req.ID})
}

type registerItemRequest struct {
	Caller         string `json:"caller"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	EstimatedValue int64  `json:"estimated_value"`
	Serial         string `json:"serial"`
	ImageRef       string `json:"image_ref"`
}

type registerItemResponse struct {
	ItemID uint64 `json:"item_id"`
}

func (h *HTTPHandler) RegisterItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req registerItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Caller == "" || req.Name == "" || req.Serial == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing required fields"})
		return
	}

	id, err := h.market.RegisterItem(r.Context(), req.Caller, service.RegisterItemInput{
		Name:           req.Name,
		Description:    req.Description,
		EstimatedValue: req.EstimatedValue,
		Serial:         req.Serial,
		ImageRef:       req.ImageRef,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerItemResponse{ItemID: id})
}

type certifyItemRequest struct {
	Caller string `json:"caller"`
	ItemID uint64 `json:"item_id"`
}

func (h *HTTPHandler) CertifyItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req certifyItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Caller == "" || req.ItemID == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := h.market.CertifyItem(r.Context(), req.Caller, req.ItemID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"item_id": req.ItemID})
}

type listItemRequest struct {
	Caller string `json:"caller"`
	ItemID uint64 `json:"item_id"`
	Price  int64  `json:"price"`
}

func (h *HTTPHandler) ListItemForSale(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req listItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Caller == "" || req.ItemID == 0 || req.Price < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := h.market.ListItemForSale(r.Context(), req.Caller, req.ItemID, req.Price); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"item_id": req.ItemID})
}

type purchaseRequest struct {
	RequestID string `json:"request_id"`
	Caller    string `json:"caller"`
	ItemID    uint64 `json:"item_id"`
	Payment   int64  `json:"payment"`
}

type purchaseResponse struct {
	Fee          int64 `json:"fee"`
	SellerAmount int64 `json:"seller_amount"`
	Refund       int64 `json:"refund"`
}

func (h *HTTPHandler) PurchaseItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.RequestID == "" || req.Caller == "" || req.ItemID == 0 || req.Payment < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing required fields"})
		return
	}

	receipt, err := h.market.PurchaseItem(r.Context(), req.RequestID, req.Caller, req.ItemID, req.Payment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, purchaseResponse{
		Fee:          receipt.Fee,
		SellerAmount: receipt.SellerAmount,
		Refund:       receipt.Refund,
	})
}

type transferRequest struct {
	Caller    string `json:"caller"`
	ItemID    uint64 `json:"item_id"`
	Recipient string `json:"recipient"`
}

func (h *HTTPHandler) TransferItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Caller == "" || req.ItemID == 0 || req.Recipient == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := h.market.TransferItem(r.Context(), req.Caller, req.ItemID, req.Recipient); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"item_id": req.ItemID})
}

type verifyResponse struct {
	Exists    bool   `json:"exists"`
	ItemID    uint64 `json:"item_id,omitempty"`
	Owner     string `json:"owner,omitempty"`
	Certified bool   `json:"certified"`
}

func (h *HTTPHandler) VerifyBySerial(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	serial := r.URL.Query().Get("serial")
	if serial == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing serial"})
		return
	}

	v := h.market.VerifyBySerial(serial)
	writeJSON(w, http.StatusOK, verifyResponse{
		Exists:    v.Exists,
		ItemID:    v.ItemID,
		Owner:     v.Owner,
		Certified: v.Certified,
	})
}

type historyEntry struct {
	From  string `json:"from,omitempty"`
	To    string `json:"to"`
	At    string `json:"at"`
	Kind  string `json:"kind"`
	Price int64  `json:"price"`
}

func (h *HTTPHandler) HistoryOf(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseUint(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid item id"})
		return
	}

	entries, err := h.market.HistoryOf(id)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]historyEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyEntry{
			From:  e.From,
			To:    e.To,
			At:    e.At.Format("2006-01-02T15:04:05.000Z07:00"),
			Kind:  string(e.Kind),
			Price: e.Price,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) ItemsOf(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	owner := r.URL.Query().Get("owner")
	if owner == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing owner"})
		return
	}

	writeJSON(w, http.StatusOK, map[string][]uint64{"items": h.market.ItemsOf(owner)})
}

type countsResponse struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	ForSale   int `json:"for_sale"`
	Certified int `json:"certified"`
}

func (h *HTTPHandler) Counts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	c := h.market.CountItems()
	writeJSON(w, http.StatusOK, countsResponse{
		Total:     c.Total,
		Active:    c.Active,
		ForSale:   c.ForSale,
		Certified: c.Certified,
	})
}

type depositRequest struct {
	Account string `json:"account"`
	Amount  int64  `json:"amount"`
}

func (h *HTTPHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Account == "" || req.Amount <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	h.wallet.Deposit(req.Account, req.Amount)
	writeJSON(w, http.StatusOK, map[string]int64{"balance": h.wallet.Balance(req.Account)})
}

func (h *HTTPHandler) Balance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	account := r.URL.Query().Get("account")
	if account == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing account"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"balance": h.wallet.Balance(account)})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError maps the error kind to a status so callers can assert on cause.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidState):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

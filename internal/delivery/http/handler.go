package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Xausdorf/qris-hub/internal/domain/entity"
	"github.com/Xausdorf/qris-hub/internal/domain/qris"
	"github.com/Xausdorf/qris-hub/internal/domain/repository"
	"github.com/Xausdorf/qris-hub/internal/usecase/checkout"
	"github.com/Xausdorf/qris-hub/internal/usecase/dashboard"
	"github.com/Xausdorf/qris-hub/internal/usecase/generateqr"
	"github.com/Xausdorf/qris-hub/internal/usecase/gettransaction"
	"github.com/Xausdorf/qris-hub/internal/usecase/listtransactions"
	"github.com/Xausdorf/qris-hub/internal/usecase/updatestatus"
)

type Handler struct {
	generateQRUC       *generateqr.UseCase
	checkoutUC         *checkout.UseCase
	getTransactionUC   *gettransaction.UseCase
	listTransactionsUC *listtransactions.UseCase
	updateStatusUC     *updatestatus.UseCase
	dashboardUC        *dashboard.UseCase
	logger             *slog.Logger
}

func NewHandler(
	generateQRUC *generateqr.UseCase,
	checkoutUC *checkout.UseCase,
	getTransactionUC *gettransaction.UseCase,
	listTransactionsUC *listtransactions.UseCase,
	updateStatusUC *updatestatus.UseCase,
	dashboardUC *dashboard.UseCase,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		generateQRUC:       generateQRUC,
		checkoutUC:         checkoutUC,
		getTransactionUC:   getTransactionUC,
		listTransactionsUC: listTransactionsUC,
		updateStatusUC:     updateStatusUC,
		dashboardUC:        dashboardUC,
		logger:             logger,
	}
}

type QRResponse struct {
	Payload string `json:"payload"`
	Image   string `json:"image"`
}

type CheckoutRequest struct {
	DomainID string       `json:"domain_id"`
	Amount   int64        `json:"amount"`
	Buyer    entity.Buyer `json:"buyer"`
}

type UpdateStatusRequest struct {
	Status     string `json:"status"`
	VerifiedBy string `json:"verified_by"`
}

type TransactionResponse struct {
	ID            string       `json:"id"`
	DomainID      string       `json:"domain_id"`
	TransactionID string       `json:"transaction_id"`
	Amount        int64        `json:"amount"`
	Status        string       `json:"status"`
	PaymentMethod string       `json:"payment_method"`
	BuyerInfo     entity.Buyer `json:"buyer_info"`
	QRISData      string       `json:"qris_data"`
	VerifiedBy    string       `json:"verified_by,omitempty"`
	VerifiedAt    *time.Time   `json:"verified_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	QRImage       string       `json:"qr_image,omitempty"`
}

type StatsResponse struct {
	TotalRevenue        int64                 `json:"total_revenue"`
	PendingTransactions int64                 `json:"pending_transactions"`
	RecentTransactions  []TransactionResponse `json:"recent_transactions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) HandleQR(w http.ResponseWriter, r *http.Request) {
	amount, ok := parseAmount(w, r)
	if !ok {
		return
	}

	resp, err := h.generateQRUC.Execute(r.Context(), generateqr.Request{Amount: amount})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, QRResponse{
		Payload: resp.Payload,
		Image:   resp.Image.DataURI(),
	})
}

func (h *Handler) HandleQRImage(w http.ResponseWriter, r *http.Request) {
	amount, ok := parseAmount(w, r)
	if !ok {
		return
	}

	resp, err := h.generateQRUC.Execute(r.Context(), generateqr.Request{Amount: amount})
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(resp.Image.PNG)
}

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	domainID, err := uuid.Parse(req.DomainID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid domain_id"})
		return
	}

	resp, err := h.checkoutUC.Execute(r.Context(), checkout.Request{
		IdempotencyKey: r.Header.Get("X-Idempotency-Key"),
		DomainID:       domainID,
		Amount:         req.Amount,
		Buyer:          req.Buyer,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	body := toTransactionResponse(resp.Transaction)
	if resp.Image != nil {
		body.QRImage = resp.Image.DataURI()
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, body)
}

func (h *Handler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	txn, err := h.getTransactionUC.Execute(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(txn))
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	status, err := entity.ParseStatus(req.Status)
	if err != nil {
		h.writeError(w, err)
		return
	}

	txn, err := h.updateStatusUC.Execute(r.Context(), updatestatus.Request{
		TransactionID: id,
		Status:        status,
		VerifiedBy:    req.VerifiedBy,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(txn))
}

func (h *Handler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	var req listtransactions.Request

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := entity.ParseStatus(raw)
		if err != nil {
			h.writeError(w, err)
			return
		}
		req.Status = status
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		req.Limit = limit
	}

	list, err := h.listTransactionsUC.Execute(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponses(list))
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	resp, err := h.dashboardUC.Execute(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		TotalRevenue:        resp.Revenue,
		PendingTransactions: resp.PendingCount,
		RecentTransactions:  toTransactionResponses(resp.Recent),
	})
}

func parseAmount(w http.ResponseWriter, r *http.Request) (int64, bool) {
	amountStr := r.URL.Query().Get("amount")
	if amountStr == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "amount query param required"})
		return 0, false
	}

	amount, err := strconv.ParseInt(amountStr, 10, 64)
	if err != nil || amount <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid amount"})
		return 0, false
	}
	return amount, true
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid transaction id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, qris.ErrInvalidAmount),
		errors.Is(err, entity.ErrNegativeAmount),
		errors.Is(err, entity.ErrMissingBuyer),
		errors.Is(err, entity.ErrInvalidStatus),
		errors.Is(err, entity.ErrVerifierRequired),
		errors.Is(err, listtransactions.ErrInvalidLimit):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrInvalidTransition),
		errors.Is(err, checkout.ErrIdempotencyConflict):
		return http.StatusConflict
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, generateqr.ErrRender):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func toTransactionResponse(t *entity.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID().String(),
		DomainID:      t.DomainID().String(),
		TransactionID: t.Code(),
		Amount:        t.Amount(),
		Status:        string(t.Status()),
		PaymentMethod: t.PaymentMethod(),
		BuyerInfo:     t.Buyer(),
		QRISData:      t.QRISData(),
		VerifiedBy:    t.VerifiedBy(),
		VerifiedAt:    t.VerifiedAt(),
		CreatedAt:     t.CreatedAt(),
		UpdatedAt:     t.UpdatedAt(),
	}
}

func toTransactionResponses(list []*entity.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vanshika/algopay/backend/internal/domain"
	"github.com/vanshika/algopay/backend/internal/ledger"
	"github.com/vanshika/algopay/backend/internal/service"
)

const maxListLimit = 200

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger     *slog.Logger
	submitter  *service.Submitter
	reconciler *service.Reconciler
	ledger     ledger.Store
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, submitter *service.Submitter, reconciler *service.Reconciler, store ledger.Store) *APIHandlers {
	return &APIHandlers{
		logger:     logger,
		submitter:  submitter,
		reconciler: reconciler,
		ledger:     store,
	}
}

func (h *APIHandlers) handleTransfers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.submitTransfer(w, r)
	case http.MethodGet:
		h.listTransfers(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (h *APIHandlers) submitTransfer(w http.ResponseWriter, r *http.Request) {
	var payload transferRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.submitter.SubmitTransfer(r.Context(), domain.TransferRequest{
		Sender:         payload.From,
		Recipient:      payload.To,
		Amount:         payload.Amount,
		RecoveryPhrase: payload.Mnemonic,
		Note:           payload.Note,
	})
	if err != nil {
		h.writeSubmissionError(w, err)
		return
	}

	resp := submitResponse{
		Success:  true,
		TxID:     result.TxID,
		Recorded: result.Recorded,
		Message:  "Transaction submitted successfully",
	}
	if !result.Recorded {
		resp.Message = "Transaction submitted but not recorded locally; check its status later"
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *APIHandlers) writeSubmissionError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidCredential):
		writeError(w, http.StatusBadRequest, "invalid mnemonic format")
	case errors.Is(err, domain.ErrSenderMismatch):
		writeError(w, http.StatusBadRequest, "sender address does not match mnemonic")
	case errors.Is(err, domain.ErrNetworkUnavailable):
		h.logger.Error("consensus network unavailable", "error", err)
		writeError(w, http.StatusServiceUnavailable, "cannot reach the consensus network; try again later")
	case errors.Is(err, domain.ErrRejectedByNetwork):
		h.logger.Error("transaction rejected by network", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		h.logger.Error("failed to submit transfer", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to send transaction")
	}
}

func (h *APIHandlers) handleTransferStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	txID := strings.TrimPrefix(r.URL.Path, "/api/transfers/")
	txID = strings.Trim(txID, "/")
	if txID == "" {
		writeError(w, http.StatusBadRequest, "transaction ID is required")
		return
	}

	record, err := h.reconciler.Reconcile(r.Context(), txID)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownTransaction) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		if errors.Is(err, domain.ErrNetworkUnavailable) && record.TxID != "" {
			// Soft failure: the last known local status stays
			// authoritative until a future reconciliation succeeds.
			h.logger.Warn("status check degraded to local record", "txId", txID, "error", err)
			respondJSON(w, http.StatusOK, toRecordResponse(record))
			return
		}
		h.logger.Error("failed to reconcile transaction", "error", err, "txId", txID)
		writeError(w, http.StatusInternalServerError, "failed to get transaction status")
		return
	}

	respondJSON(w, http.StatusOK, toRecordResponse(record))
}

func (h *APIHandlers) listTransfers(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 50)
	if limit <= 0 {
		limit = 50
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	records, err := h.ledger.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch transactions")
		return
	}

	items := make([]recordResponse, 0, len(records))
	for _, record := range records {
		items = append(items, toRecordResponse(record))
	}
	respondJSON(w, http.StatusOK, listResponse{Items: items})
}

// --- Request & Response DTOs ---

type transferRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Amount   int64  `json:"amount"`
	Mnemonic string `json:"mnemonic"`
	Note     string `json:"note"`
}

type submitResponse struct {
	Success  bool   `json:"success"`
	TxID     string `json:"txId"`
	Recorded bool   `json:"recorded"`
	Message  string `json:"message"`
}

type recordResponse struct {
	TxID           string `json:"txId"`
	From           string `json:"from"`
	To             string `json:"to"`
	Amount         uint64 `json:"amount"`
	Note           string `json:"note,omitempty"`
	Status         string `json:"status"`
	ConfirmedRound uint64 `json:"confirmedRound,omitempty"`
	CreatedAt      string `json:"createdAt"`
}

type listResponse struct {
	Items []recordResponse `json:"items"`
}

func toRecordResponse(record domain.TransactionRecord) recordResponse {
	return recordResponse{
		TxID:           record.TxID,
		From:           record.Sender,
		To:             record.Recipient,
		Amount:         record.Amount,
		Note:           record.Note,
		Status:         string(record.Status),
		ConfirmedRound: record.ConfirmedRound,
		CreatedAt:      formatTime(record.CreatedAt),
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

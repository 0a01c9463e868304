package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mlozan/finrecord/internal/analytics"
	"github.com/mlozan/finrecord/internal/domain"
	"github.com/mlozan/finrecord/internal/identifier"
	"github.com/mlozan/finrecord/internal/repository"
)

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger       *slog.Logger
	users        *repository.Users
	transactions *repository.Transactions
	analytics    *analytics.Service
	listLimit    int64
}

// NewAPIHandlers constructs an APIHandlers instance. listLimit bounds list
// endpoints; the default page size is 10.
func NewAPIHandlers(logger *slog.Logger, users *repository.Users, transactions *repository.Transactions, analyticsSvc *analytics.Service, listLimit int64) *APIHandlers {
	if listLimit <= 0 {
		listLimit = 100
	}
	return &APIHandlers{
		logger:       logger,
		users:        users,
		transactions: transactions,
		analytics:    analyticsSvc,
		listLimit:    listLimit,
	}
}

// --- Request/response schemas ---

type userPayload struct {
	FullName string `json:"full_name"`
}

type userResponse struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	CreatedAt string `json:"created_at"`
}

type transactionCreatePayload struct {
	UserID          string   `json:"user_id"`
	Amount          *float64 `json:"transaction_amount"`
	Type            string   `json:"transaction_type"`
	TransactionDate string   `json:"transaction_date,omitempty"`
}

type transactionUpdatePayload struct {
	Amount *float64 `json:"transaction_amount"`
	Type   *string  `json:"transaction_type"`
}

type transactionResponse struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	FullName        string  `json:"full_name"`
	TransactionDate string  `json:"transaction_date"`
	Amount          float64 `json:"transaction_amount"`
	Type            string  `json:"transaction_type"`
}

type analyticsResponse struct {
	UserID                  string  `json:"user_id"`
	AverageTransactionValue float64 `json:"average_transaction_value"`
	MostActiveDay           string  `json:"most_active_day"`
	MostActiveDayCount      int     `json:"most_active_day_count"`
	TotalTransactions       int     `json:"total_transactions"`
	TotalCredit             float64 `json:"total_credit"`
	TotalDebit              float64 `json:"total_debit"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- User handlers ---

func (h *APIHandlers) createUser(w http.ResponseWriter, r *http.Request) {
	var payload userPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.FullName == "" {
		writeError(w, http.StatusBadRequest, "full_name is required")
		return
	}

	user, err := h.users.Create(r.Context(), payload.FullName)
	if err != nil {
		h.writeDomainError(w, err, "failed to create user")
		return
	}

	respondJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *APIHandlers) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, err, "failed to fetch user")
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *APIHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	skip := parseInt64(query.Get("skip"), 0)
	limit := parseInt64(query.Get("limit"), 10)
	if limit > h.listLimit {
		limit = h.listLimit
	}

	users, err := h.users.List(r.Context(), skip, limit)
	if err != nil {
		h.writeDomainError(w, err, "failed to list users")
		return
	}

	response := make([]userResponse, 0, len(users))
	for _, user := range users {
		response = append(response, toUserResponse(user))
	}
	respondJSON(w, http.StatusOK, response)
}

func (h *APIHandlers) updateUser(w http.ResponseWriter, r *http.Request) {
	var payload userPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.FullName == "" {
		writeError(w, http.StatusBadRequest, "full_name is required")
		return
	}

	user, err := h.users.Update(r.Context(), chi.URLParam(r, "id"), payload.FullName)
	if err != nil {
		h.writeDomainError(w, err, "failed to update user")
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *APIHandlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, err, "failed to delete user")
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "User deleted successfully"})
}

// --- Transaction handlers ---

func (h *APIHandlers) createTransaction(w http.ResponseWriter, r *http.Request) {
	var payload transactionCreatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if payload.Amount == nil {
		writeError(w, http.StatusBadRequest, "transaction_amount is required")
		return
	}

	txType, err := domain.ParseTransactionType(payload.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var date *time.Time
	if payload.TransactionDate != "" {
		parsed, err := time.Parse(time.RFC3339, payload.TransactionDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid transaction_date")
			return
		}
		date = &parsed
	}

	tx, err := h.transactions.Create(r.Context(), repository.CreateTransactionInput{
		UserID: payload.UserID,
		Amount: *payload.Amount,
		Type:   txType,
		Date:   date,
	})
	if err != nil {
		h.writeDomainError(w, err, "failed to create transaction")
		return
	}
	respondJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

func (h *APIHandlers) getTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.transactions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, err, "failed to fetch transaction")
		return
	}
	respondJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (h *APIHandlers) listUserTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.transactions.ListByUser(r.Context(), chi.URLParam(r, "id"), h.listLimit)
	if err != nil {
		h.writeDomainError(w, err, "failed to list transactions")
		return
	}

	response := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		response = append(response, toTransactionResponse(tx))
	}
	respondJSON(w, http.StatusOK, response)
}

func (h *APIHandlers) updateTransaction(w http.ResponseWriter, r *http.Request) {
	var payload transactionUpdatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	upd := domain.TransactionUpdate{Amount: payload.Amount}
	if payload.Type != nil {
		txType, err := domain.ParseTransactionType(*payload.Type)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		upd.Type = &txType
	}

	tx, err := h.transactions.Update(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		h.writeDomainError(w, err, "failed to update transaction")
		return
	}
	respondJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (h *APIHandlers) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.transactions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, err, "failed to delete transaction")
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Transaction deleted successfully"})
}

// --- Analytics handler ---

func (h *APIHandlers) userAnalytics(w http.ResponseWriter, r *http.Request) {
	report, err := h.analytics.Report(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, err, "failed to compute analytics")
		return
	}

	respondJSON(w, http.StatusOK, analyticsResponse{
		UserID:                  report.UserID,
		AverageTransactionValue: report.AverageTransactionValue,
		MostActiveDay:           report.MostActiveDay.Format("2006-01-02"),
		MostActiveDayCount:      report.MostActiveDayCount,
		TotalTransactions:       report.TotalTransactions,
		TotalCredit:             report.TotalCredit,
		TotalDebit:              report.TotalDebit,
	})
}

// --- Helpers ---

func (h *APIHandlers) writeDomainError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, identifier.ErrInvalid),
		errors.Is(err, domain.ErrInvalidTransactionType),
		errors.Is(err, domain.ErrNoFieldsToUpdate):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrNoData):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		// Persistence failures never expose store internals to clients.
		h.logger.Error(logMsg, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func toUserResponse(user domain.User) userResponse {
	return userResponse{
		ID:        user.ID,
		FullName:  user.FullName,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toTransactionResponse(tx domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:              tx.ID,
		UserID:          tx.UserID,
		FullName:        tx.FullName,
		TransactionDate: tx.Date.UTC().Format(time.RFC3339),
		Amount:          tx.Amount,
		Type:            string(tx.Type),
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

func parseInt64(value string, fallback int64) int64 {
	if value == "" {
		return fallback
	}
	if v, err := strconv.ParseInt(value, 10, 64); err == nil {
		return v
	}
	return fallback
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}

package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/api-sage/wealthpay/src/internal/adapter/http/models"
	"github.com/api-sage/wealthpay/src/internal/commons"
	"github.com/api-sage/wealthpay/src/internal/domain"
	"github.com/api-sage/wealthpay/src/internal/logger"
	"github.com/api-sage/wealthpay/src/internal/usecase/services"
)

type AccountService interface {
	OpenAccount(ctx context.Context, currency domain.Currency, initialBalance domain.Money) (domain.AccountID, error)
	Credit(ctx context.Context, cmd domain.CreditAccount) error
	Debit(ctx context.Context, cmd domain.DebitAccount) error
	ReserveFunds(ctx context.Context, cmd domain.ReserveFunds) error
	CancelReservation(ctx context.Context, cmd domain.CancelReservation) error
	CaptureReservation(ctx context.Context, cmd domain.CaptureReservation) (services.CaptureReservationResult, error)
	CloseAccount(ctx context.Context, cmd domain.CloseAccount) error
	GetAccountBalance(ctx context.Context, accountID domain.AccountID) (domain.AccountBalanceView, error)
}

type AccountController struct {
	service AccountService
}

func NewAccountController(service AccountService) *AccountController {
	return &AccountController{service: service}
}

func (c *AccountController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	wrap := func(handler http.HandlerFunc) http.Handler {
		if authMiddleware != nil {
			return authMiddleware(handler)
		}
		return handler
	}

	mux.Handle("POST /accounts", wrap(c.openAccount))
	mux.Handle("GET /accounts/{id}", wrap(c.getAccountBalance))
	mux.Handle("POST /accounts/{id}/credit", wrap(c.credit))
	mux.Handle("POST /accounts/{id}/debit", wrap(c.debit))
	mux.Handle("POST /accounts/{id}/reservations", wrap(c.reserveFunds))
	mux.Handle("POST /accounts/{id}/reservations/{reservationId}/cancel", wrap(c.cancelReservation))
	mux.Handle("POST /accounts/{id}/reservations/{reservationId}/capture", wrap(c.captureReservation))
	mux.Handle("POST /accounts/{id}/close", wrap(c.closeAccount))
}

func (c *AccountController) openAccount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.OpenAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.OpenAccountResponse]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.OpenAccountResponse]("validation failed", err.Error()))
		return
	}

	currency, err := domain.ParseCurrency(req.Currency)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.OpenAccountResponse]("validation failed", err.Error()))
		return
	}
	initialBalance, err := domain.NewMoneyFromString(req.InitialBalance, currency)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.OpenAccountResponse]("validation failed", err.Error()))
		return
	}

	accountID, err := c.service.OpenAccount(r.Context(), currency, initialBalance)
	if err != nil {
		logError(r, err, nil)
		writeJSON(w, statusForError(err), commons.ErrorResponse[models.OpenAccountResponse]("failed to open account", err.Error()))
		return
	}

	response := commons.SuccessResponse("account opened", models.OpenAccountResponse{AccountID: accountID.String()})
	logResponse(r, http.StatusCreated, response, start)
	writeJSON(w, http.StatusCreated, response)
}

func (c *AccountController) getAccountBalance(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	accountID, ok := parseAccountID(w, r)
	if !ok {
		return
	}

	view, err := c.service.GetAccountBalance(r.Context(), accountID)
	if err != nil {
		logError(r, err, logger.Fields{"accountId": accountID.String()})
		writeJSON(w, statusForError(err), commons.ErrorResponse[models.AccountBalanceResponse]("failed to get account balance", err.Error()))
		return
	}

	response := commons.SuccessResponse("account balance", balanceResponse(view))
	logResponse(r, http.StatusOK, response, start)
	writeJSON(w, http.StatusOK, response)
}

func (c *AccountController) credit(w http.ResponseWriter, r *http.Request) {
	c.moveFunds(w, r, "credit", func(ctx context.Context, cmd domain.CreditAccount) error {
		return c.service.Credit(ctx, cmd)
	})
}

func (c *AccountController) debit(w http.ResponseWriter, r *http.Request) {
	c.moveFunds(w, r, "debit", func(ctx context.Context, cmd domain.CreditAccount) error {
		return c.service.Debit(ctx, domain.DebitAccount(cmd))
	})
}

func (c *AccountController) moveFunds(w http.ResponseWriter, r *http.Request, operation string, run func(context.Context, domain.CreditAccount) error) {
	start := time.Now()

	accountID, ok := parseAccountID(w, r)
	if !ok {
		return
	}

	var req models.MoveFundsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.AccountBalanceResponse]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.AccountBalanceResponse]("validation failed", err.Error()))
		return
	}

	transactionID, _ := domain.ParseTransactionID(strings.TrimSpace(req.TransactionID))
	amount, ok := c.parseAmountForAccount(w, r, accountID, req.Amount)
	if !ok {
		return
	}

	cmd := domain.CreditAccount{AccountID: accountID, TransactionID: transactionID, Amount: amount}
	if err := run(r.Context(), cmd); err != nil {
		logError(r, err, logger.Fields{"accountId": accountID.String(), "operation": operation})
		writeJSON(w, statusForError(err), commons.ErrorResponse[models.AccountBalanceResponse]("failed to "+operation+" account", err.Error()))
		return
	}

	c.respondWithBalance(w, r, accountID, start)
}

func (c *AccountController) reserveFunds(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	accountID, ok := parseAccountID(w, r)
	if !ok {
		return
	}

	var req models.ReserveFundsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.AccountBalanceResponse]("invalid request body", err.Error()))
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.AccountBalanceResponse]("validation failed", err.Error()))
		return
	}

	reservationID, _ := domain.ParseReservationID(strings.TrimSpace(req.ReservationID))
	amount, ok := c.parseAmountForAccount(w, r, accountID, req.Amount)
	if !ok {
		return
	}

	cmd := domain.ReserveFunds{AccountID: accountID, ReservationID: reservationID, Amount: amount}
	if err := c.service.ReserveFunds(r.Context(), cmd); err != nil {
		logError(r, err, logger.Fields{"accountId": accountID.String()})
		writeJSON(w, statusForError(err), commons.ErrorResponse[models.AccountBalanceResponse]("failed to reserve funds", err.Error()))
		return
	}

	c.respondWithBalance(w, r, accountID, start)
}

func (c *AccountController) cancelReservation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	accountID, ok := parseAccountID(w, r)
	if !ok {
		return
	}
	reservationID, ok := parseReservationID(w, r)
	if !ok {
		return
	}

	cmd := domain.CancelReservation{AccountID: accountID, ReservationID: reservationID}
	if err := c.service.CancelReservation(r.Context(), cmd); err != nil {
		logError(r, err, logger.Fields{"accountId": accountID.String(), "reservationId": reservationID.String()})
		writeJSON(w, statusForError(err), commons.ErrorResponse[models.AccountBalanceResponse]("failed to cancel reservation", err.Error()))
		return
	}

	c.respondWithBalance(w, r, accountID, start)
}

func (c *AccountController) captureReservation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	accountID, ok := parseAccountID(w, r)
	if !ok {
		return
	}
	reservationID, ok := parseReservationID(w, r)
	if !ok {
		return
	}

	cmd := domain.CaptureReservation{AccountID: accountID, ReservationID: reservationID}
	result, err := c.service.CaptureReservation(r.Context(), cmd)
	if err != nil {
		logError(r, err, logger.Fields{"accountId": accountID.String(), "reservationId": reservationID.String()})
		writeJSON(w, statusForError(err), commons.ErrorResponse[models.CaptureReservationResponse]("failed to capture reservation", err.Error()))
		return
	}

	payload := models.CaptureReservationResponse{
		AccountID:     result.AccountID.String(),
		ReservationID: result.ReservationID.String(),
		Status:        string(result.Status),
	}
	if result.Amount != nil {
		amount := result.Amount.Amount().StringFixed(result.Amount.Currency().FractionDigits())
		payload.Amount = &amount
	}

	response := commons.SuccessResponse("reservation capture processed", payload)
	logResponse(r, http.StatusOK, response, start)
	writeJSON(w, http.StatusOK, response)
}

func (c *AccountController) closeAccount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	accountID, ok := parseAccountID(w, r)
	if !ok {
		return
	}

	cmd := domain.CloseAccount{AccountID: accountID}
	if err := c.service.CloseAccount(r.Context(), cmd); err != nil {
		logError(r, err, logger.Fields{"accountId": accountID.String()})
		writeJSON(w, statusForError(err), commons.ErrorResponse[models.AccountBalanceResponse]("failed to close account", err.Error()))
		return
	}

	c.respondWithBalance(w, r, accountID, start)
}

func (c *AccountController) respondWithBalance(w http.ResponseWriter, r *http.Request, accountID domain.AccountID, start time.Time) {
	view, err := c.service.GetAccountBalance(r.Context(), accountID)
	if err != nil {
		logError(r, err, logger.Fields{"accountId": accountID.String()})
		writeJSON(w, statusForError(err), commons.ErrorResponse[models.AccountBalanceResponse]("failed to get account balance", err.Error()))
		return
	}

	response := commons.SuccessResponse("account balance", balanceResponse(view))
	logResponse(r, http.StatusOK, response, start)
	writeJSON(w, http.StatusOK, response)
}

// parseAmountForAccount binds a raw amount to the account's currency, read
// from the balance view; the aggregate re-checks the currency on handling.
func (c *AccountController) parseAmountForAccount(w http.ResponseWriter, r *http.Request, accountID domain.AccountID, rawAmount string) (domain.Money, bool) {
	view, err := c.service.GetAccountBalance(r.Context(), accountID)
	if err != nil {
		logError(r, err, logger.Fields{"accountId": accountID.String()})
		writeJSON(w, statusForError(err), commons.ErrorResponse[models.AccountBalanceResponse]("failed to resolve account currency", err.Error()))
		return domain.Money{}, false
	}

	amount, err := domain.NewMoneyFromString(rawAmount, view.Currency)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.AccountBalanceResponse]("validation failed", err.Error()))
		return domain.Money{}, false
	}
	return amount, true
}

func balanceResponse(view domain.AccountBalanceView) models.AccountBalanceResponse {
	digits := view.Currency.FractionDigits()
	return models.AccountBalanceResponse{
		AccountID:        view.AccountID.String(),
		Balance:          view.Balance.StringFixed(digits),
		Reserved:         view.Reserved.StringFixed(digits),
		AvailableBalance: view.Balance.Sub(view.Reserved).StringFixed(digits),
		Currency:         view.Currency.String(),
		Status:           string(view.Status),
		Version:          view.Version,
	}
}

func parseAccountID(w http.ResponseWriter, r *http.Request) (domain.AccountID, bool) {
	accountID, err := domain.ParseAccountID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.AccountBalanceResponse]("validation failed", "account id must be a valid UUID"))
		return domain.AccountID{}, false
	}
	return accountID, true
}

func parseReservationID(w http.ResponseWriter, r *http.Request) (domain.ReservationID, bool) {
	reservationID, err := domain.ParseReservationID(r.PathValue("reservationId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, commons.ErrorResponse[models.AccountBalanceResponse]("validation failed", "reservation id must be a valid UUID"))
		return domain.ReservationID{}, false
	}
	return reservationID, true
}

// statusForError follows the error taxonomy: validation violations are 422,
// benign concurrency and lifecycle conflicts are 409, stream corruption is a
// server fault.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountIDMismatch),
		errors.Is(err, domain.ErrUnsupportedCurrency):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAccountHistoryNotFound),
		errors.Is(err, domain.ErrAccountBalanceNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAccountInactive),
		errors.Is(err, domain.ErrOptimisticLock):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInitialBalance),
		errors.Is(err, domain.ErrCurrencyMismatch),
		errors.Is(err, domain.ErrAmountMustBePositive),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrReservationConflict),
		errors.Is(err, domain.ErrAccountNotEmpty):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

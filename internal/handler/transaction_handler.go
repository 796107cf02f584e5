package handler

import (
	"net/http"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"sunupay/internal/errors"
	"sunupay/internal/repository"
	"sunupay/internal/service"
)

// TransactionHandler handles transaction read and sync endpoints.
type TransactionHandler struct {
	transactionService service.TransactionService
	syncService        service.SyncService
}

// NewTransactionHandler creates a new transaction handler.
func NewTransactionHandler(transactionService service.TransactionService, syncService service.SyncService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, syncService: syncService}
}

// SyncTransaction godoc
// @Summary Re-verify one transaction against its provider
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /transactions/{id}/sync [post]
func (h *TransactionHandler) SyncTransaction(c echo.Context) error {
	id, err := h.ownTransactionID(c)
	if err != nil {
		return err
	}

	status, err := h.syncService.SyncTransactionStatus(c.Request().Context(), id)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, map[string]string{"status": string(status)})
}

// SyncAllPending godoc
// @Summary Run a reconciliation pass over stuck pending transactions
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]int
// @Failure 500 {object} errors.ErrorResponse
// @Router /transactions/sync [post]
func (h *TransactionHandler) SyncAllPending(c echo.Context) error {
	count, err := h.syncService.SyncAllPendingTransactions(c.Request().Context())
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, map[string]int{"count": count})
}

// GetTransaction godoc
// @Summary Fetch one transaction
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} model.PaymentRecord
// @Failure 404 {object} errors.ErrorResponse
// @Router /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	id, err := h.ownTransactionID(c)
	if err != nil {
		return err
	}

	record, err := h.transactionService.GetTransaction(c.Request().Context(), id)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, record)
}

// ListTransactions godoc
// @Summary List transactions with pagination and filters
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param search query string false "Search term"
// @Param status query string false "Status filter"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Router /transactions [get]
func (h *TransactionHandler) ListTransactions(c echo.Context) error {
	appID, err := applicationID(c)
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	records, total, err := h.transactionService.ListTransactions(c.Request().Context(), repository.ListFilter{
		ApplicationID: appID,
		Status:        c.QueryParam("status"),
		Search:        c.QueryParam("search"),
		Page:          page,
		PageSize:      pageSize,
	})
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"transactions": records,
		"pagination": echo.Map{
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		},
	})
}

// GetStats godoc
// @Summary Transaction volume summary for the tenant
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.TransactionStats
// @Failure 401 {object} errors.ErrorResponse
// @Router /transactions/stats [get]
func (h *TransactionHandler) GetStats(c echo.Context) error {
	appID, err := applicationID(c)
	if err != nil {
		return err
	}

	stats, err := h.transactionService.GetStats(c.Request().Context(), appID)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, stats)
}

// GetLogs godoc
// @Summary Audit trail of raw provider responses for a transaction
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {array} model.ProviderLog
// @Failure 400 {object} errors.ErrorResponse
// @Router /transactions/{id}/logs [get]
func (h *TransactionHandler) GetLogs(c echo.Context) error {
	id, err := h.ownTransactionID(c)
	if err != nil {
		return err
	}

	logs, err := h.transactionService.GetLogs(c.Request().Context(), id)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, logs)
}

// ownTransactionID parses the :id parameter and checks the transaction
// belongs to the caller's application. Foreign transactions answer not-found
// rather than forbidden so ids cannot be probed across tenants.
func (h *TransactionHandler) ownTransactionID(c echo.Context) (uuid.UUID, error) {
	appID, err := applicationID(c)
	if err != nil {
		return uuid.Nil, err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid transaction id",
			Code:  "INVALID_UUID",
		})
	}

	record, err := h.transactionService.GetTransaction(c.Request().Context(), id)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return uuid.Nil, echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	if record.ApplicationID != appID {
		httpErr := errors.MapErrorToHTTP(errors.ErrTransactionNotFound)
		return uuid.Nil, echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return id, nil
}

// applicationID resolves the tenant from the JWT claims set by the auth
// collaborator upstream.
func applicationID(c echo.Context) (uuid.UUID, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "invalid token",
			Code:  "UNAUTHORIZED",
		})
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "invalid token claims",
			Code:  "UNAUTHORIZED",
		})
	}
	raw, _ := claims["application_id"].(string)
	appID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "missing application_id claim",
			Code:  "UNAUTHORIZED",
		})
	}
	return appID, nil
}

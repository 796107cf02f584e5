package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"sunupay/internal/errors"
	"sunupay/internal/service"
)

// WebhookHandler receives provider notifications. Payloads are passed through
// as raw bytes because encodings differ per provider (JSON or form-encoded).
type WebhookHandler struct {
	webhookService service.WebhookService
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(webhookService service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService}
}

// HandleWebhook godoc
// @Summary Process a provider webhook
// @Tags webhooks
// @Accept json
// @Produce json
// @Param provider path string true "Provider name"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /webhooks/{provider} [post]
func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	providerName := c.Param("provider")

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "unreadable payload",
			Code:  "INVALID_REQUEST",
		})
	}

	result, err := h.webhookService.ProcessWebhook(c.Request().Context(), providerName, payload)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, map[string]string{
		"transaction_id": result.TransactionID,
		"status":         string(result.Status),
	})
}

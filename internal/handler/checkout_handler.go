package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"sunupay/internal/errors"
	"sunupay/internal/provider"
	"sunupay/internal/service"
)

// CheckoutHandler handles the public checkout entry point.
type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// SoftPaymentRequest represents a soft payment initiation request.
type SoftPaymentRequest struct {
	TransactionID string `json:"transaction_id" validate:"required,uuid"`
	GatewayID     string `json:"gateway_id" validate:"required,uuid"`
	MethodCode    string `json:"method_code" validate:"required"`
	Customer      struct {
		Name    string `json:"name" validate:"required"`
		Email   string `json:"email" validate:"required,email"`
		Phone   string `json:"phone" validate:"required"`
		Country string `json:"country" validate:"required,len=2"`
		OTP     string `json:"otp"`
	} `json:"customer_details"`
}

// InitiateSoftPayment godoc
// @Summary Initiate or resume a mobile-money payment
// @Tags checkout
// @Accept json
// @Produce json
// @Param request body SoftPaymentRequest true "Checkout data"
// @Success 200 {object} service.CheckoutResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /checkout/softpay [post]
func (h *CheckoutHandler) InitiateSoftPayment(c echo.Context) error {
	var req SoftPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	}

	transactionID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid transaction_id",
			Code:  "INVALID_UUID",
		})
	}
	gatewayID, err := uuid.Parse(req.GatewayID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid gateway_id",
			Code:  "INVALID_UUID",
		})
	}

	result, err := h.checkoutService.InitiateSoftPayment(c.Request().Context(), &service.SoftPaymentRequest{
		TransactionID: transactionID,
		GatewayID:     gatewayID,
		MethodCode:    req.MethodCode,
		Customer: provider.Customer{
			Name:    req.Customer.Name,
			Email:   req.Customer.Email,
			Phone:   req.Customer.Phone,
			Country: req.Customer.Country,
			OTP:     req.Customer.OTP,
		},
	})
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, result)
}

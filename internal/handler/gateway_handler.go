package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"sunupay/internal/errors"
	"sunupay/internal/model"
	"sunupay/internal/service"
)

// GatewayHandler handles tenant gateway configuration endpoints.
type GatewayHandler struct {
	gatewayService service.GatewayService
}

// NewGatewayHandler creates a new gateway handler.
func NewGatewayHandler(gatewayService service.GatewayService) *GatewayHandler {
	return &GatewayHandler{gatewayService: gatewayService}
}

// CreateGatewayRequest represents a gateway creation request.
type CreateGatewayRequest struct {
	Name      string          `json:"name" validate:"required"`
	APIKey    string          `json:"api_key"`
	APISecret string          `json:"api_secret"`
	Config    json.RawMessage `json:"config"`
	Status    string          `json:"status"`
}

// UpdateGatewayRequest represents a gateway configuration update. Absent
// fields leave the stored value untouched.
type UpdateGatewayRequest struct {
	APIKey    *string         `json:"api_key"`
	APISecret *string         `json:"api_secret"`
	Config    json.RawMessage `json:"config"`
	Status    *string         `json:"status" validate:"omitempty,oneof=active inactive"`
}

// ValidateCredentialsRequest represents a credential validation request.
type ValidateCredentialsRequest struct {
	Provider string          `json:"provider" validate:"required"`
	Config   json.RawMessage `json:"config" validate:"required"`
}

// ListGateways godoc
// @Summary List the tenant's gateways with derived health figures
// @Tags gateways
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.GatewayStats
// @Failure 401 {object} errors.ErrorResponse
// @Router /gateways [get]
func (h *GatewayHandler) ListGateways(c echo.Context) error {
	appID, err := applicationID(c)
	if err != nil {
		return err
	}

	gateways, err := h.gatewayService.ListGateways(c.Request().Context(), appID)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, gateways)
}

// CreateGateway godoc
// @Summary Configure a payment gateway for the tenant
// @Tags gateways
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateGatewayRequest true "Gateway data"
// @Success 201 {object} model.Gateway
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /gateways [post]
func (h *GatewayHandler) CreateGateway(c echo.Context) error {
	appID, err := applicationID(c)
	if err != nil {
		return err
	}

	var req CreateGatewayRequest
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

	gateway := &model.Gateway{
		ApplicationID: appID,
		Name:          req.Name,
		APIKey:        req.APIKey,
		APISecret:     req.APISecret,
		Config:        req.Config,
		Status:        model.GatewayStatus(req.Status),
	}
	if err := h.gatewayService.CreateGateway(c.Request().Context(), gateway); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusCreated, gateway)
}

// UpdateGateway godoc
// @Summary Update a gateway's credential bundle
// @Tags gateways
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Gateway ID"
// @Param request body UpdateGatewayRequest true "Fields to update"
// @Success 200 {object} model.Gateway
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /gateways/{id} [put]
func (h *GatewayHandler) UpdateGateway(c echo.Context) error {
	appID, err := applicationID(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid gateway id",
			Code:  "INVALID_UUID",
		})
	}

	var req UpdateGatewayRequest
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

	update := &service.GatewayUpdate{
		APIKey:    req.APIKey,
		APISecret: req.APISecret,
		Config:    req.Config,
	}
	if req.Status != nil {
		status := model.GatewayStatus(*req.Status)
		update.Status = &status
	}

	gateway, err := h.gatewayService.UpdateGateway(c.Request().Context(), appID, id, update)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, gateway)
}

// DeleteGateway godoc
// @Summary Remove a gateway configuration
// @Tags gateways
// @Produce json
// @Security BearerAuth
// @Param id path string true "Gateway ID"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /gateways/{id} [delete]
func (h *GatewayHandler) DeleteGateway(c echo.Context) error {
	appID, err := applicationID(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid gateway id",
			Code:  "INVALID_UUID",
		})
	}

	if err := h.gatewayService.DeleteGateway(c.Request().Context(), appID, id); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// UpdateGatewayStatus godoc
// @Summary Activate or deactivate a gateway
// @Tags gateways
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Gateway ID"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /gateways/{id}/status [patch]
func (h *GatewayHandler) UpdateGatewayStatus(c echo.Context) error {
	appID, err := applicationID(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid gateway id",
			Code:  "INVALID_UUID",
		})
	}

	var req struct {
		Status string `json:"status" validate:"required,oneof=active inactive"`
	}
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

	if err := h.gatewayService.UpdateStatus(c.Request().Context(), appID, id, model.GatewayStatus(req.Status)); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// ValidateCredentials godoc
// @Summary Validate a provider credential bundle before saving it
// @Tags gateways
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ValidateCredentialsRequest true "Credentials"
// @Success 200 {object} service.CredentialCheck
// @Failure 400 {object} errors.ErrorResponse
// @Router /gateways/validate [post]
func (h *GatewayHandler) ValidateCredentials(c echo.Context) error {
	var req ValidateCredentialsRequest
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

	check := h.gatewayService.ValidateCredentials(c.Request().Context(), req.Provider, req.Config)
	return c.JSON(http.StatusOK, check)
}

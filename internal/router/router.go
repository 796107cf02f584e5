package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"sunupay/internal/config"
	"sunupay/internal/handler"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	checkoutHandler *handler.CheckoutHandler,
	webhookHandler *handler.WebhookHandler,
	transactionHandler *handler.TransactionHandler,
	gatewayHandler *handler.GatewayHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes: checkout runs on the hosted payment page, webhooks come
	// straight from the providers.
	api.POST("/checkout/softpay", checkoutHandler.InitiateSoftPayment)
	api.POST("/webhooks/:provider", webhookHandler.HandleWebhook)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(cfg.JWTSecret),
		TokenLookup: "header:" + echo.HeaderAuthorization,
	}))

	// Transaction routes
	secured.GET("/transactions", transactionHandler.ListTransactions)
	secured.GET("/transactions/stats", transactionHandler.GetStats)
	secured.GET("/transactions/:id", transactionHandler.GetTransaction)
	secured.GET("/transactions/:id/logs", transactionHandler.GetLogs)
	secured.POST("/transactions/:id/sync", transactionHandler.SyncTransaction)
	secured.POST("/transactions/sync", transactionHandler.SyncAllPending)

	// Gateway routes
	secured.GET("/gateways", gatewayHandler.ListGateways)
	secured.POST("/gateways", gatewayHandler.CreateGateway)
	secured.PUT("/gateways/:id", gatewayHandler.UpdateGateway)
	secured.DELETE("/gateways/:id", gatewayHandler.DeleteGateway)
	secured.PATCH("/gateways/:id/status", gatewayHandler.UpdateGatewayStatus)
	secured.POST("/gateways/validate", gatewayHandler.ValidateCredentials)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

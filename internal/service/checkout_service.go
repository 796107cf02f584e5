package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sunupay/internal/errors"
	"sunupay/internal/model"
	"sunupay/internal/provider"
	"sunupay/internal/repository"
)

// CheckoutStatus is the caller-facing outcome of one checkout attempt.
// REQUIRE_OTP means the invoice exists and the caller must re-invoke with the
// customer's one-time password before the charge can run.
type CheckoutStatus string

const (
	CheckoutStatusSuccess    CheckoutStatus = "SUCCESS"
	CheckoutStatusFailed     CheckoutStatus = "FAILED"
	CheckoutStatusPending    CheckoutStatus = "PENDING"
	CheckoutStatusRequireOTP CheckoutStatus = "REQUIRE_OTP"
)

// alreadyInitiatedMarker is the fragment PayDunya puts in its duplicate-push
// message. Duplicate pushes are expected under flaky mobile networks and are
// resolved by re-verifying, not by failing the attempt.
const alreadyInitiatedMarker = "dejà été initié"

// SoftPaymentRequest is the checkout entry point's input.
type SoftPaymentRequest struct {
	TransactionID uuid.UUID
	GatewayID     uuid.UUID
	MethodCode    string
	Customer      provider.Customer
}

// CheckoutResult is what the checkout caller receives. It never carries a raw
// adapter error; failures surface as Success=false plus a message.
type CheckoutResult struct {
	Success     bool            `json:"success"`
	Status      CheckoutStatus  `json:"status"`
	RedirectURL string          `json:"redirect_url,omitempty"`
	Message     string          `json:"message,omitempty"`
	Raw         json.RawMessage `json:"raw_data,omitempty"`
}

// CheckoutService drives a single payment attempt through invoice creation,
// OTP collection and the push charge.
type CheckoutService interface {
	InitiateSoftPayment(ctx context.Context, req *SoftPaymentRequest) (*CheckoutResult, error)
}

type checkoutService struct {
	recordRepo  repository.PaymentRecordRepository
	gatewayRepo repository.GatewayRepository
	logRepo     repository.ProviderLogRepository
	factory     provider.Factory
	baseURL     string
	logger      *zap.Logger
	// Per-transaction locks so two concurrent attempts cannot both observe
	// "no invoice" and create two provider-side invoices.
	txMutexes sync.Map
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	recordRepo repository.PaymentRecordRepository,
	gatewayRepo repository.GatewayRepository,
	logRepo repository.ProviderLogRepository,
	factory provider.Factory,
	baseURL string,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutService{
		recordRepo:  recordRepo,
		gatewayRepo: gatewayRepo,
		logRepo:     logRepo,
		factory:     factory,
		baseURL:     baseURL,
		logger:      logger,
	}
}

// getMutex returns a mutex for a specific transaction ID.
func (s *checkoutService) getMutex(id uuid.UUID) *sync.Mutex {
	value, _ := s.txMutexes.LoadOrStore(id.String(), &sync.Mutex{})
	return value.(*sync.Mutex)
}

// InitiateSoftPayment runs the checkout state machine for one transaction.
func (s *checkoutService) InitiateSoftPayment(ctx context.Context, req *SoftPaymentRequest) (*CheckoutResult, error) {
	gateway, err := s.gatewayRepo.FindByID(ctx, req.GatewayID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrGatewayNotFound
		}
		return nil, fmt.Errorf("load gateway: %w", err)
	}
	if gateway.Status != model.GatewayStatusActive {
		return nil, errors.ErrGatewayInactive
	}

	adapter, err := s.factory.Provider(gateway.Name, provider.ConfigFromGateway(gateway))
	if err != nil {
		return nil, err
	}

	// The read-ref / verify / create-invoice / write-ref window must not
	// interleave across concurrent attempts for the same transaction.
	mutex := s.getMutex(req.TransactionID)
	mutex.Lock()
	defer mutex.Unlock()

	record, err := s.recordRepo.FindByID(ctx, req.TransactionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("load transaction: %w", err)
	}

	// Customer identity is persisted before anything else: even a failed
	// attempt yields contact data useful for follow-ups.
	if err := s.recordRepo.UpdateCustomer(ctx, record.ID, req.Customer.Name, req.Customer.Email, req.Customer.Phone); err != nil {
		s.logger.Warn("persist customer details failed",
			zap.String("transaction_id", record.ID.String()), zap.Error(err))
	}

	if record.Status == model.PaymentStatusSuccess {
		return &CheckoutResult{Success: true, Status: CheckoutStatusSuccess}, nil
	}

	var invoiceToken string
	if record.ProviderRef != nil {
		invoiceToken = *record.ProviderRef
	}
	var checkoutURL string

	// Invoice reuse: a stored reference is checked before any new invoice is
	// created so a retried client request cannot double-invoice.
	if invoiceToken != "" {
		check := adapter.VerifyPayment(ctx, invoiceToken)
		switch {
		case check.Status == model.PaymentStatusSuccess:
			s.markTerminal(ctx, record, model.PaymentStatusSuccess, "")
			s.appendLog(ctx, record.ID, model.LogTypeSyncCheck, check.Raw)
			return &CheckoutResult{Success: true, Status: CheckoutStatusSuccess, Raw: check.Raw}, nil
		case check.TransportError:
			// The check never reached the provider, so the stored invoice may
			// well be live. Only a provider-reported cancelled/failed invoice
			// is allowed to force a replacement.
			s.logger.Warn("invoice check unreachable, keeping stored invoice",
				zap.String("transaction_id", record.ID.String()),
				zap.String("provider_ref", invoiceToken))
		case check.Status == model.PaymentStatusFailed || check.Status == model.PaymentStatusCancelled:
			s.logger.Info("stored invoice no longer usable, forcing new invoice",
				zap.String("transaction_id", record.ID.String()),
				zap.String("status", string(check.Status)))
			invoiceToken = ""
		default:
			// Still pending: hand the customer back the invoice's page
			// instead of an empty redirect.
			checkoutURL = check.CheckoutURL
		}
	}

	if invoiceToken == "" {
		initResp := adapter.InitiatePayment(ctx, &provider.PaymentRequest{
			Amount:        record.Amount,
			Currency:      record.Currency,
			CustomerName:  req.Customer.Name,
			CustomerEmail: req.Customer.Email,
			CustomerPhone: req.Customer.Phone,
			OrderID:       record.OrderID,
			CallbackURL:   fmt.Sprintf("%s/api/webhooks/%s", s.baseURL, strings.ToLower(gateway.Name)),
			ReturnURL:     fmt.Sprintf("%s/checkout/success?id=%s", s.baseURL, record.ID),
		})

		if initResp.Status == model.PaymentStatusFailed {
			s.appendLog(ctx, record.ID, model.LogTypeInvoiceCreated, initResp.Raw)
			return &CheckoutResult{
				Success: false,
				Status:  CheckoutStatusFailed,
				Message: messageOr(initResp.Message, "invoice creation failed"),
				Raw:     initResp.Raw,
			}, nil
		}

		invoiceToken = initResp.ProviderReference
		checkoutURL = initResp.CheckoutURL
		if err := s.recordRepo.SetProviderRef(ctx, record.ID, &invoiceToken); err != nil {
			return nil, fmt.Errorf("persist provider ref: %w", err)
		}
		s.appendLog(ctx, record.ID, model.LogTypeInvoiceCreated, initResp.Raw)
		s.logger.Info("invoice created",
			zap.String("transaction_id", record.ID.String()),
			zap.String("provider", gateway.Name),
			zap.String("provider_ref", invoiceToken))
	}

	softPayer, ok := adapter.(provider.SoftPayProcessor)
	if !ok {
		// Hosted-page providers: the customer completes payment on the
		// provider's side and reconciliation picks up the result.
		return &CheckoutResult{
			Success:     true,
			Status:      CheckoutStatusPending,
			RedirectURL: checkoutURL,
		}, nil
	}

	// Some operators demand the OTP inside the first charge call. Without it
	// the invoice stays parked until the caller re-invokes with the token.
	if requiresImmediateOTP(req.MethodCode, req.Customer.Country) && req.Customer.OTP == "" {
		return &CheckoutResult{
			Success: true,
			Status:  CheckoutStatusRequireOTP,
			Message: "invoice created, waiting for customer OTP",
		}, nil
	}

	softResp := softPayer.ProcessSoftPay(ctx, invoiceToken, req.MethodCode, req.Customer)

	alreadyInitiated := strings.Contains(softResp.Message, alreadyInitiatedMarker)
	if alreadyInitiated {
		verification := adapter.VerifyPayment(ctx, invoiceToken)
		if verification.Status == model.PaymentStatusSuccess {
			softResp.Status = model.PaymentStatusSuccess
			softResp.Raw = verification.Raw
		}
	}

	// A duplicate push that re-verified to anything but SUCCESS is not a real
	// failure: the invoice stays open for the OTP retry.
	if softResp.Status == model.PaymentStatusSuccess ||
		(softResp.Status == model.PaymentStatusFailed && !alreadyInitiated) {
		s.markTerminal(ctx, record, softResp.Status, "mobile_money")
	}

	s.appendLog(ctx, record.ID, model.LogTypeSoftPayResponse, softResp.Raw)

	if softResp.Status == model.PaymentStatusFailed && !alreadyInitiated {
		return &CheckoutResult{
			Success: false,
			Status:  CheckoutStatusFailed,
			Message: messageOr(softResp.Message, "payment processing failed"),
			Raw:     softResp.Raw,
		}, nil
	}

	status := CheckoutStatus(softResp.Status)
	if alreadyInitiated && softResp.Status != model.PaymentStatusSuccess {
		status = CheckoutStatusRequireOTP
	}

	return &CheckoutResult{
		Success:     true,
		Status:      status,
		RedirectURL: softResp.CheckoutURL,
		Raw:         softResp.Raw,
	}, nil
}

// markTerminal writes a terminal status, setting completedAt only on SUCCESS.
func (s *checkoutService) markTerminal(ctx context.Context, record *model.PaymentRecord, status model.PaymentStatus, paymentType string) {
	var completedAt *time.Time
	if status == model.PaymentStatusSuccess {
		now := time.Now()
		completedAt = &now
	}
	if err := s.recordRepo.UpdateStatus(ctx, record.ID, status, completedAt, paymentType); err != nil {
		s.logger.Error("update transaction status failed",
			zap.String("transaction_id", record.ID.String()), zap.Error(err))
	}
}

// appendLog writes an audit entry best-effort; a failed write must never
// change the payment outcome.
func (s *checkoutService) appendLog(ctx context.Context, transactionID uuid.UUID, logType string, payload json.RawMessage) {
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	entry := &model.ProviderLog{
		TransactionID: transactionID,
		Type:          logType,
		Payload:       payload,
	}
	if err := s.logRepo.Create(ctx, entry); err != nil {
		s.logger.Warn("audit log write failed",
			zap.String("transaction_id", transactionID.String()),
			zap.String("type", logType), zap.Error(err))
	}
}

// requiresImmediateOTP reports whether the operator wants the OTP in the same
// call that triggers the charge (Orange Money in CI and BF).
func requiresImmediateOTP(methodCode, country string) bool {
	if !strings.Contains(strings.ToLower(methodCode), "orange") {
		return false
	}
	switch strings.ToUpper(country) {
	case "CI", "BF":
		return true
	default:
		return false
	}
}

func messageOr(message, fallback string) string {
	if message != "" {
		return message
	}
	return fallback
}

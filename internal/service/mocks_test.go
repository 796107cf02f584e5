package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"sunupay/internal/model"
	"sunupay/internal/provider"
	"sunupay/internal/repository"
)

// MockPaymentRecordRepository is a mock implementation of PaymentRecordRepository.
type MockPaymentRecordRepository struct {
	mock.Mock
}

func (m *MockPaymentRecordRepository) Create(ctx context.Context, record *model.PaymentRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockPaymentRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PaymentRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRecordRepository) FindByProviderRef(ctx context.Context, ref string) (*model.PaymentRecord, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRecordRepository) FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.PaymentRecord, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRecordRepository) UpdateCustomer(ctx context.Context, id uuid.UUID, name, email, phone string) error {
	args := m.Called(ctx, id, name, email, phone)
	return args.Error(0)
}

func (m *MockPaymentRecordRepository) SetProviderRef(ctx context.Context, id uuid.UUID, ref *string) error {
	args := m.Called(ctx, id, ref)
	return args.Error(0)
}

func (m *MockPaymentRecordRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus, completedAt *time.Time, paymentType string) error {
	args := m.Called(ctx, id, status, completedAt, paymentType)
	return args.Error(0)
}

func (m *MockPaymentRecordRepository) List(ctx context.Context, filter repository.ListFilter) ([]model.PaymentRecord, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]model.PaymentRecord), args.Get(1).(int64), args.Error(2)
}

func (m *MockPaymentRecordRepository) CountByProvider(ctx context.Context, appID uuid.UUID, provider string, status model.PaymentStatus) (int64, error) {
	args := m.Called(ctx, appID, provider, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRecordRepository) LastByProvider(ctx context.Context, appID uuid.UUID, provider string) (*model.PaymentRecord, error) {
	args := m.Called(ctx, appID, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRecordRepository) SumAmount(ctx context.Context, appID uuid.UUID, status model.PaymentStatus, since *time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, appID, status, since)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockGatewayRepository is a mock implementation of GatewayRepository.
type MockGatewayRepository struct {
	mock.Mock
}

func (m *MockGatewayRepository) Create(ctx context.Context, gateway *model.Gateway) error {
	args := m.Called(ctx, gateway)
	return args.Error(0)
}

func (m *MockGatewayRepository) Update(ctx context.Context, gateway *model.Gateway) error {
	args := m.Called(ctx, gateway)
	return args.Error(0)
}

func (m *MockGatewayRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Gateway, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Gateway), args.Error(1)
}

func (m *MockGatewayRepository) FindByAppAndName(ctx context.Context, appID uuid.UUID, name string) (*model.Gateway, error) {
	args := m.Called(ctx, appID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Gateway), args.Error(1)
}

func (m *MockGatewayRepository) ListByApp(ctx context.Context, appID uuid.UUID) ([]model.Gateway, error) {
	args := m.Called(ctx, appID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Gateway), args.Error(1)
}

func (m *MockGatewayRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.GatewayStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockGatewayRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockProviderLogRepository is a mock implementation of ProviderLogRepository.
type MockProviderLogRepository struct {
	mock.Mock
}

func (m *MockProviderLogRepository) Create(ctx context.Context, log *model.ProviderLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockProviderLogRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]model.ProviderLog, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProviderLog), args.Error(1)
}

// MockFactory is a mock implementation of provider.Factory.
type MockFactory struct {
	mock.Mock
}

func (m *MockFactory) Provider(name string, cfg *provider.Config) (provider.PaymentProvider, error) {
	args := m.Called(name, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(provider.PaymentProvider), args.Error(1)
}

// MockProvider is a mock implementation of provider.PaymentProvider for
// hosted-page providers (no soft-pay step).
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockProvider) InitiatePayment(ctx context.Context, req *provider.PaymentRequest) *provider.PaymentResponse {
	args := m.Called(ctx, req)
	return args.Get(0).(*provider.PaymentResponse)
}

func (m *MockProvider) VerifyPayment(ctx context.Context, providerRef string) *provider.PaymentResponse {
	args := m.Called(ctx, providerRef)
	return args.Get(0).(*provider.PaymentResponse)
}

func (m *MockProvider) HandleWebhook(ctx context.Context, payload []byte) *provider.WebhookResult {
	args := m.Called(ctx, payload)
	return args.Get(0).(*provider.WebhookResult)
}

// MockSoftPayProvider additionally implements provider.SoftPayProcessor.
type MockSoftPayProvider struct {
	MockProvider
}

func (m *MockSoftPayProvider) ProcessSoftPay(ctx context.Context, invoiceToken, methodCode string, customer provider.Customer) *provider.PaymentResponse {
	args := m.Called(ctx, invoiceToken, methodCode, customer)
	return args.Get(0).(*provider.PaymentResponse)
}

// MockLeaser is a mock implementation of Leaser.
type MockLeaser struct {
	mock.Mock
}

func (m *MockLeaser) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	args := m.Called(ctx, key, value, ttl)
	return args.Bool(0)
}

// MockGatewayCache is a mock implementation of GatewayCache.
type MockGatewayCache struct {
	mock.Mock
}

func (m *MockGatewayCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockGatewayCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockGatewayCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

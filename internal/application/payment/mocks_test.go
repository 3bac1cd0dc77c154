package payment

import (
	"context"

	"github.com/erp/receipts/internal/domain/payment"
	"github.com/erp/receipts/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockInvoiceRepository is a mock implementation of payment.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*payment.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]payment.Invoice, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindUnpaidByClient(ctx context.Context, clientID uuid.UUID) ([]payment.Invoice, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *payment.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *payment.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

// MockClientRepository is a mock implementation of payment.ClientRepository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Client), args.Error(1)
}

func (m *MockClientRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*payment.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Client), args.Error(1)
}

func (m *MockClientRepository) FindByNameSubstring(ctx context.Context, s string) ([]payment.Client, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Client), args.Error(1)
}

func (m *MockClientRepository) Save(ctx context.Context, client *payment.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) SaveWithLock(ctx context.Context, client *payment.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

// MockPaymentRepository is a mock implementation of payment.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByReceiptNumber(ctx context.Context, number payment.ReceiptNumber) ([]*payment.Payment, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAll(ctx context.Context, filter payment.PaymentFilter) ([]*payment.Payment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) SaveAll(ctx context.Context, payments []*payment.Payment) error {
	args := m.Called(ctx, payments)
	return args.Error(0)
}

// MockReceiptCounterRepository is a mock implementation of payment.ReceiptCounterRepository
type MockReceiptCounterRepository struct {
	mock.Mock
}

func (m *MockReceiptCounterRepository) Next(ctx context.Context) (payment.ReceiptNumber, error) {
	args := m.Called(ctx)
	return args.Get(0).(payment.ReceiptNumber), args.Error(1)
}

func (m *MockReceiptCounterRepository) Current(ctx context.Context) (payment.ReceiptNumber, error) {
	args := m.Called(ctx)
	return args.Get(0).(payment.ReceiptNumber), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// MockReceiptMetricsRecorder is a mock implementation of ReceiptMetricsRecorder
type MockReceiptMetricsRecorder struct {
	mock.Mock
}

func (m *MockReceiptMetricsRecorder) RecordReceiptIssued(ctx context.Context, method string, paymentCount int, total, creditApplied decimal.Decimal) {
	m.Called(ctx, method, paymentCount, total, creditApplied)
}

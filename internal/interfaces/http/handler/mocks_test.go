package handler

import (
	"context"

	apppayment "github.com/erp/receipts/internal/application/payment"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCombinedPaymentRegistrar is a mock implementation of CombinedPaymentRegistrar
type MockCombinedPaymentRegistrar struct {
	mock.Mock
}

func (m *MockCombinedPaymentRegistrar) RegisterCombinedPayment(ctx context.Context, input apppayment.RegisterCombinedPaymentInput) (*apppayment.RegisterCombinedPaymentResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apppayment.RegisterCombinedPaymentResult), args.Error(1)
}

// MockReceiptQuerier is a mock implementation of ReceiptQuerier
type MockReceiptQuerier struct {
	mock.Mock
}

func (m *MockReceiptQuerier) ListReceipts(ctx context.Context, filter apppayment.ReceiptFilter) ([]apppayment.ReceiptResponse, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]apppayment.ReceiptResponse), args.Error(1)
}

func (m *MockReceiptQuerier) GetReceiptByPaymentID(ctx context.Context, id uuid.UUID) (*apppayment.ReceiptResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apppayment.ReceiptResponse), args.Error(1)
}

func (m *MockReceiptQuerier) GetReceiptByNumber(ctx context.Context, number string) (*apppayment.ReceiptResponse, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apppayment.ReceiptResponse), args.Error(1)
}

// MockPaymentSelector is a mock implementation of PaymentSelector
type MockPaymentSelector struct {
	mock.Mock
}

func (m *MockPaymentSelector) PrepareSelection(ctx context.Context, clientID uuid.UUID, preselected *uuid.UUID) (*apppayment.PaymentSelectionResponse, error) {
	args := m.Called(ctx, clientID, preselected)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apppayment.PaymentSelectionResponse), args.Error(1)
}

func (m *MockPaymentSelector) SearchClients(ctx context.Context, name string) ([]apppayment.ClientSummary, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]apppayment.ClientSummary), args.Error(1)
}

// MockPinger is a mock implementation of Pinger
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) PingContext(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

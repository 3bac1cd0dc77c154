package payment

import (
	"context"

	"github.com/erp/receipts/internal/domain/payment"
)

// TransactionScope provides transactional access to the allocation repositories.
// All repository operations inside Execute share one database transaction that is
// committed when fn returns nil and rolled back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to repositories bound to the current transaction.
//
// Invoice and Client rows read through the *ForUpdate methods stay locked until the
// transaction ends. ReceiptCounterRepo must be called inside the same transaction that
// persists the payments so a rollback also gives the number back.
type TransactionalRepositories interface {
	InvoiceRepo() payment.InvoiceRepository
	ClientRepo() payment.ClientRepository
	PaymentRepo() payment.PaymentRepository
	ReceiptCounterRepo() payment.ReceiptCounterRepository
}

// NoOpTransactionScope runs fn directly against the given repositories.
// Used in tests.
type NoOpTransactionScope struct {
	invoiceRepo payment.InvoiceRepository
	clientRepo  payment.ClientRepository
	paymentRepo payment.PaymentRepository
	counterRepo payment.ReceiptCounterRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	invoiceRepo payment.InvoiceRepository,
	clientRepo payment.ClientRepository,
	paymentRepo payment.PaymentRepository,
	counterRepo payment.ReceiptCounterRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		paymentRepo: paymentRepo,
		counterRepo: counterRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) InvoiceRepo() payment.InvoiceRepository {
	return s.invoiceRepo
}

func (s *NoOpTransactionScope) ClientRepo() payment.ClientRepository {
	return s.clientRepo
}

func (s *NoOpTransactionScope) PaymentRepo() payment.PaymentRepository {
	return s.paymentRepo
}

func (s *NoOpTransactionScope) ReceiptCounterRepo() payment.ReceiptCounterRepository {
	return s.counterRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)

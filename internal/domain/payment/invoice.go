package payment

import (
	"fmt"
	"time"

	"github.com/erp/receipts/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the settlement status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusUnpaid InvoiceStatus = "UNPAID"
	InvoiceStatusPaid   InvoiceStatus = "PAID"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusUnpaid, InvoiceStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// Invoice is a billable obligation of a client with an outstanding balance.
// The balance only decreases through ApplyPayment and never goes negative.
type Invoice struct {
	shared.BaseAggregateRoot
	ClientID  uuid.UUID       `json:"client_id"`
	Number    string          `json:"number"`
	IssueDate time.Time       `json:"issue_date"`
	Total     decimal.Decimal `json:"total"`
	Balance   decimal.Decimal `json:"balance"`
	Status    InvoiceStatus   `json:"status"`
}

// NewInvoice creates an unpaid invoice whose balance equals its total
func NewInvoice(clientID uuid.UUID, number string, issueDate time.Time, total decimal.Decimal) (*Invoice, error) {
	if clientID == uuid.Nil {
		return nil, shared.NewValidationError("Client ID cannot be empty")
	}
	if number == "" {
		return nil, shared.NewValidationError("Invoice number cannot be empty")
	}
	if len(number) > 50 {
		return nil, shared.NewValidationError("Invoice number cannot exceed 50 characters")
	}
	if total.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("Invoice total must be positive")
	}
	if issueDate.IsZero() {
		issueDate = time.Now()
	}

	return &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ClientID:          clientID,
		Number:            number,
		IssueDate:         issueDate,
		Total:             total,
		Balance:           total,
		Status:            InvoiceStatusUnpaid,
	}, nil
}

// ApplyPayment decreases the outstanding balance by amount.
// The invoice becomes PAID exactly when the balance reaches zero.
func (i *Invoice) ApplyPayment(amount decimal.Decimal) error {
	if i.Status == InvoiceStatusPaid {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Invoice %s is already paid", i.Number))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("Applied amount must be positive")
	}
	if amount.GreaterThan(i.Balance) {
		return shared.NewDomainError(shared.CodeExcessPayment,
			fmt.Sprintf("Applied amount %s exceeds balance %s of invoice %s", amount.StringFixed(2), i.Balance.StringFixed(2), i.Number))
	}

	i.Balance = i.Balance.Sub(amount)
	if i.Balance.IsZero() {
		i.Status = InvoiceStatusPaid
	}
	i.Touch()
	i.IncrementVersion()
	return nil
}

// IsPaid reports whether the invoice has been fully settled
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

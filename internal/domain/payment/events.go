package payment

import (
	"github.com/erp/receipts/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventTypeReceiptIssued is the type name of ReceiptIssuedEvent
const EventTypeReceiptIssued = "ReceiptIssued"

// ReceiptIssuedEvent is raised after a combined payment commits under a new receipt number
type ReceiptIssuedEvent struct {
	shared.BaseDomainEvent
	ReceiptNumber  string            `json:"receipt_number"`
	ClientID       uuid.UUID         `json:"client_id"`
	Method         PaymentMethodKind `json:"method"`
	TotalAmount    decimal.Decimal   `json:"total_amount"`
	CreditApplied  decimal.Decimal   `json:"credit_applied"`
	PaymentIDs     []uuid.UUID       `json:"payment_ids"`
	InvoicesPaidUp []uuid.UUID       `json:"invoices_paid_up"`
}

// EventType returns the event type name
func (e *ReceiptIssuedEvent) EventType() string {
	return EventTypeReceiptIssued
}

// NewReceiptIssuedEvent creates a ReceiptIssuedEvent for the client aggregate
func NewReceiptIssuedEvent(
	number ReceiptNumber,
	clientID uuid.UUID,
	method PaymentMethodKind,
	total, creditApplied decimal.Decimal,
	paymentIDs, invoicesPaidUp []uuid.UUID,
) *ReceiptIssuedEvent {
	return &ReceiptIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiptIssued, "Client", clientID),
		ReceiptNumber:   number.String(),
		ClientID:        clientID,
		Method:          method,
		TotalAmount:     total,
		CreditApplied:   creditApplied,
		PaymentIDs:      paymentIDs,
		InvoicesPaidUp:  invoicesPaidUp,
	}
}

package payment

import (
	"time"

	"github.com/erp/receipts/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RegisterCombinedPaymentInput is one combined payment request.
// InvoiceIDs are allocated in the given order.
type RegisterCombinedPaymentInput struct {
	InvoiceIDs           []uuid.UUID
	TotalAmount          decimal.Decimal
	CreditBalanceApplied decimal.Decimal
	Method               *payment.PaymentMethodKind
	Reference            string
}

// AllocationResult describes what one invoice received
type AllocationResult struct {
	InvoiceID        uuid.UUID       `json:"invoice_id"`
	InvoiceNumber    string          `json:"invoice_number"`
	PaymentID        uuid.UUID       `json:"payment_id"`
	Amount           decimal.Decimal `json:"amount"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	Paid             bool            `json:"paid"`
}

// RegisterCombinedPaymentResult is the outcome of a committed combined payment
type RegisterCombinedPaymentResult struct {
	ReceiptNumber      string                    `json:"receipt_number"`
	ClientID           uuid.UUID                 `json:"client_id"`
	Method             payment.PaymentMethodKind `json:"method"`
	TotalAmount        decimal.Decimal           `json:"total_amount"`
	CreditApplied      decimal.Decimal           `json:"credit_applied"`
	PaymentIDs         []uuid.UUID               `json:"payment_ids"`
	Allocations        []AllocationResult        `json:"allocations"`
	CreditBalanceAfter decimal.Decimal           `json:"credit_balance_after"`
}

// ReceiptFilter narrows ListReceipts. Dates are calendar days, both inclusive.
type ReceiptFilter struct {
	ClientName string
	From       *time.Time
	To         *time.Time
}

// ReceiptInvoiceResponse is an invoice covered by a receipt
type ReceiptInvoiceResponse struct {
	ID     uuid.UUID `json:"id"`
	Number string    `json:"number"`
}

// ReceiptPaymentResponse is one payment row of a receipt
type ReceiptPaymentResponse struct {
	ID          uuid.UUID                 `json:"id"`
	InvoiceID   uuid.UUID                 `json:"invoice_id"`
	Amount      decimal.Decimal           `json:"amount"`
	Method      payment.PaymentMethodKind `json:"method"`
	Reference   string                    `json:"reference,omitempty"`
	PaymentDate time.Time                 `json:"payment_date"`
}

// ReceiptResponse is a receipt enriched for display
type ReceiptResponse struct {
	Key           string                      `json:"key"`
	ReceiptNumber *string                     `json:"receipt_number,omitempty"`
	ClientID      uuid.UUID                   `json:"client_id"`
	ClientName    string                      `json:"client_name"`
	Date          time.Time                   `json:"date"`
	Total         decimal.Decimal             `json:"total"`
	CreditApplied decimal.Decimal             `json:"credit_applied"`
	Tendered      decimal.Decimal             `json:"tendered"`
	Methods       []payment.PaymentMethodKind `json:"methods"`
	Invoices      []ReceiptInvoiceResponse    `json:"invoices"`
	Payments      []ReceiptPaymentResponse    `json:"payments"`
	Consolidated  bool                        `json:"consolidated"`
}

// InvoiceSummary is an unpaid invoice offered for selection
type InvoiceSummary struct {
	ID        uuid.UUID       `json:"id"`
	Number    string          `json:"number"`
	IssueDate time.Time       `json:"issue_date"`
	Total     decimal.Decimal `json:"total"`
	Balance   decimal.Decimal `json:"balance"`
}

// ClientSummary is a client search hit
type ClientSummary struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	CreditBalance decimal.Decimal `json:"credit_balance"`
}

// PaymentSelectionResponse is what a cashier needs to build a combined payment
type PaymentSelectionResponse struct {
	Client              ClientSummary               `json:"client"`
	Invoices            []InvoiceSummary            `json:"invoices"`
	TotalOwed           decimal.Decimal             `json:"total_owed"`
	MaxCreditApplicable decimal.Decimal             `json:"max_credit_applicable"`
	SelectableMethods   []payment.PaymentMethodKind `json:"selectable_methods"`
	SuggestedAmount     *decimal.Decimal            `json:"suggested_amount,omitempty"`
}

func toClientSummary(c *payment.Client) ClientSummary {
	return ClientSummary{
		ID:            c.ID,
		Name:          c.Name,
		CreditBalance: c.CreditBalance,
	}
}

func toInvoiceSummary(inv payment.Invoice) InvoiceSummary {
	return InvoiceSummary{
		ID:        inv.ID,
		Number:    inv.Number,
		IssueDate: inv.IssueDate,
		Total:     inv.Total,
		Balance:   inv.Balance,
	}
}

func toReceiptResponse(r *payment.Receipt, clientName string, invoiceNumbers map[uuid.UUID]string) ReceiptResponse {
	resp := ReceiptResponse{
		Key:           r.Key,
		ClientID:      r.ClientID,
		ClientName:    clientName,
		Date:          r.Date,
		Total:         r.Total,
		CreditApplied: r.CreditApplied,
		Tendered:      r.Tendered(),
		Methods:       r.Methods,
		Invoices:      make([]ReceiptInvoiceResponse, 0, len(r.InvoiceIDs)),
		Payments:      make([]ReceiptPaymentResponse, 0, len(r.Payments)),
		Consolidated:  r.IsConsolidated(),
	}
	if r.ReceiptNumber != nil {
		n := r.ReceiptNumber.String()
		resp.ReceiptNumber = &n
	}
	for _, id := range r.InvoiceIDs {
		resp.Invoices = append(resp.Invoices, ReceiptInvoiceResponse{ID: id, Number: invoiceNumbers[id]})
	}
	for _, p := range r.Payments {
		for _, d := range p.Details() {
			resp.Payments = append(resp.Payments, ReceiptPaymentResponse{
				ID:          p.ID,
				InvoiceID:   d.InvoiceID,
				Amount:      d.Amount,
				Method:      p.Method().Kind(),
				Reference:   p.Reference(),
				PaymentDate: p.PaymentDate(),
			})
		}
	}
	return resp
}

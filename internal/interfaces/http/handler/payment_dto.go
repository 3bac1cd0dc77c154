package handler

import (
	"strings"

	apppayment "github.com/erp/receipts/internal/application/payment"
	"github.com/erp/receipts/internal/domain/payment"
	"github.com/erp/receipts/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RegisterCombinedPaymentRequest is the body of POST /payments/combined.
// Amounts are decimal strings; invoices are allocated in the order listed.
type RegisterCombinedPaymentRequest struct {
	InvoiceIDs           []string `json:"invoice_ids" binding:"required,min=1,dive,uuid"`
	TotalAmount          string   `json:"total_amount" binding:"required,decimal"`
	CreditBalanceApplied string   `json:"credit_balance_applied" binding:"omitempty,decimal"`
	Method               string   `json:"method" binding:"omitempty,max=32"`
	Reference            string   `json:"reference" binding:"max=500"`
}

// ToInput converts the request into the service input
func (r RegisterCombinedPaymentRequest) ToInput() (apppayment.RegisterCombinedPaymentInput, error) {
	var input apppayment.RegisterCombinedPaymentInput

	input.InvoiceIDs = make([]uuid.UUID, 0, len(r.InvoiceIDs))
	for _, raw := range r.InvoiceIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return input, shared.NewValidationError("Invalid invoice id: %s", raw)
		}
		input.InvoiceIDs = append(input.InvoiceIDs, id)
	}

	total, err := decimal.NewFromString(strings.TrimSpace(r.TotalAmount))
	if err != nil {
		return input, shared.NewValidationError("Invalid total_amount: %s", r.TotalAmount)
	}
	input.TotalAmount = total

	input.CreditBalanceApplied = decimal.Zero
	if s := strings.TrimSpace(r.CreditBalanceApplied); s != "" {
		credit, err := decimal.NewFromString(s)
		if err != nil {
			return input, shared.NewValidationError("Invalid credit_balance_applied: %s", r.CreditBalanceApplied)
		}
		input.CreditBalanceApplied = credit
	}

	if strings.TrimSpace(r.Method) != "" {
		kind, err := payment.ParsePaymentMethodKind(r.Method)
		if err != nil {
			return input, err
		}
		input.Method = &kind
	}
	input.Reference = strings.TrimSpace(r.Reference)

	return input, nil
}

// PaymentMethodResponse is one selectable payment method
type PaymentMethodResponse struct {
	Code  payment.PaymentMethodKind `json:"code"`
	Label string                    `json:"label"`
}

var methodLabels = map[payment.PaymentMethodKind]string{
	payment.MethodKindCash:     "Cash",
	payment.MethodKindTransfer: "Bank transfer",
	payment.MethodKindCard:     "Card",
}

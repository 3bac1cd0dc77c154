package payment

import (
	"time"
	"unicode/utf8"

	"github.com/erp/receipts/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxReferenceLength bounds the free-text reference of a payment, in characters
const MaxReferenceLength = 500

// PaymentDetail is the share of a payment applied to one invoice.
// It references the invoice by id only; the payment owns the detail.
type PaymentDetail struct {
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// Payment records funds received from a client and how they were applied.
// Values are only obtainable through NewPayment or RestorePayment, which both validate.
type Payment struct {
	shared.BaseAggregateRoot
	clientID      uuid.UUID
	paymentDate   time.Time
	amount        decimal.Decimal
	method        PaymentMethod
	reference     string
	creditApplied decimal.Decimal
	receiptNumber *ReceiptNumber
	details       []PaymentDetail
}

// NewPaymentParams holds the inputs of NewPayment.
// CreditApplied is the credit balance drawn by the whole operation the payment
// belongs to; sibling payments carry the same value.
type NewPaymentParams struct {
	ClientID      uuid.UUID
	PaymentDate   time.Time
	Amount        decimal.Decimal
	Method        PaymentMethod
	Reference     string
	CreditApplied decimal.Decimal
	Details       []PaymentDetail
}

// NewPayment validates params and creates an unnumbered payment
func NewPayment(params NewPaymentParams) (*Payment, error) {
	if params.PaymentDate.IsZero() {
		params.PaymentDate = time.Now()
	}
	params.CreditApplied = creditAppliedFor(params.Method, params.CreditApplied)
	if err := validatePayment(params); err != nil {
		return nil, err
	}

	p := &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		clientID:          params.ClientID,
		paymentDate:       params.PaymentDate,
		amount:            params.Amount,
		method:            params.Method,
		reference:         params.Reference,
		creditApplied:     params.CreditApplied,
		details:           append([]PaymentDetail(nil), params.Details...),
	}
	return p, nil
}

// PaymentSnapshot is the persisted state of a payment
type PaymentSnapshot struct {
	ID            uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int
	ClientID      uuid.UUID
	PaymentDate   time.Time
	Amount        decimal.Decimal
	Method        PaymentMethod
	Reference     string
	CreditApplied decimal.Decimal
	ReceiptNumber *ReceiptNumber
	Details       []PaymentDetail
}

// RestorePayment rebuilds a payment from storage, applying the same checks as NewPayment
func RestorePayment(s PaymentSnapshot) (*Payment, error) {
	if s.ID == uuid.Nil {
		return nil, shared.NewValidationError("Payment ID cannot be empty")
	}
	s.CreditApplied = creditAppliedFor(s.Method, s.CreditApplied)
	if err := validatePayment(NewPaymentParams{
		ClientID:      s.ClientID,
		PaymentDate:   s.PaymentDate,
		Amount:        s.Amount,
		Method:        s.Method,
		Reference:     s.Reference,
		CreditApplied: s.CreditApplied,
		Details:       s.Details,
	}); err != nil {
		return nil, err
	}
	if s.ReceiptNumber != nil && s.ReceiptNumber.IsZero() {
		return nil, shared.NewValidationError("Receipt number of payment %s is invalid", s.ID)
	}

	p := &Payment{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{ID: s.ID, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt},
			Version:    s.Version,
		},
		clientID:      s.ClientID,
		paymentDate:   s.PaymentDate,
		amount:        s.Amount,
		method:        s.Method,
		reference:     s.Reference,
		creditApplied: s.CreditApplied,
		details:       append([]PaymentDetail(nil), s.Details...),
	}
	if s.ReceiptNumber != nil {
		n := *s.ReceiptNumber
		p.receiptNumber = &n
	}
	return p, nil
}

func validatePayment(params NewPaymentParams) error {
	if params.ClientID == uuid.Nil {
		return shared.NewValidationError("Client ID cannot be empty")
	}
	if params.Amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("Payment amount must be positive")
	}
	if params.Method == nil {
		return shared.NewValidationError("Payment method is required")
	}
	if utf8.RuneCountInString(params.Reference) > MaxReferenceLength {
		return shared.NewValidationError("Reference cannot exceed %d characters", MaxReferenceLength)
	}
	if params.CreditApplied.IsNegative() {
		return shared.NewValidationError("Credit applied cannot be negative")
	}
	if len(params.Details) == 0 {
		return shared.NewValidationError("Payment must apply to at least one invoice")
	}

	applied := decimal.Zero
	for _, d := range params.Details {
		if d.InvoiceID == uuid.Nil {
			return shared.NewValidationError("Payment detail must reference an invoice")
		}
		if d.Amount.LessThanOrEqual(decimal.Zero) {
			return shared.NewValidationError("Payment detail amount must be positive")
		}
		applied = applied.Add(d.Amount)
	}
	if applied.GreaterThan(params.Amount) {
		return shared.NewValidationError("Applied amount %s exceeds payment amount %s",
			applied.StringFixed(2), params.Amount.StringFixed(2))
	}
	return nil
}

// creditAppliedFor defaults the operation's credit draw to the amount carried by a
// CreditBalanceDraw method.
func creditAppliedFor(method PaymentMethod, credit decimal.Decimal) decimal.Decimal {
	if draw, ok := method.(CreditBalanceDraw); ok && credit.IsZero() {
		return draw.Amount
	}
	return credit
}

// AssignReceiptNumber stamps the payment with its receipt number; allowed once
func (p *Payment) AssignReceiptNumber(n ReceiptNumber) error {
	if n.IsZero() {
		return shared.NewValidationError("Receipt number is required")
	}
	if p.receiptNumber != nil {
		return shared.NewDomainError(shared.CodeInvalidState, "Payment already has a receipt number")
	}
	p.receiptNumber = &n
	p.Touch()
	return nil
}

// GroupKey is the receipt number when set, otherwise the payment's own id
func (p *Payment) GroupKey() string {
	if p.receiptNumber != nil {
		return p.receiptNumber.String()
	}
	return p.ID.String()
}

// ClientID returns the paying client
func (p *Payment) ClientID() uuid.UUID { return p.clientID }

// PaymentDate returns when the payment was recorded
func (p *Payment) PaymentDate() time.Time { return p.paymentDate }

// Amount returns the payment amount
func (p *Payment) Amount() decimal.Decimal { return p.amount }

// Method returns the payment method variant
func (p *Payment) Method() PaymentMethod { return p.method }

// Reference returns the free-text reference
func (p *Payment) Reference() string { return p.reference }

// CreditApplied returns the credit balance drawn by the operation that produced the payment
func (p *Payment) CreditApplied() decimal.Decimal { return p.creditApplied }

// ReceiptNumber returns the receipt number and whether one was assigned
func (p *Payment) ReceiptNumber() (ReceiptNumber, bool) {
	if p.receiptNumber == nil {
		return ReceiptNumber{}, false
	}
	return *p.receiptNumber, true
}

// Details returns a copy of the ordered payment details
func (p *Payment) Details() []PaymentDetail {
	return append([]PaymentDetail(nil), p.details...)
}

// InvoiceIDs returns the invoices this payment was applied to, in detail order
func (p *Payment) InvoiceIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.details))
	for _, d := range p.details {
		ids = append(ids, d.InvoiceID)
	}
	return ids
}

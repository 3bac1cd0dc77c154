package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/erp/receipts/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClientModel is the persistence model for payment.Client.
type ClientModel struct {
	AggregateModel
	Name          string          `gorm:"type:varchar(200);not null"`
	NameFolded    string          `gorm:"type:varchar(200);not null;index"`
	CreditBalance decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the model to a domain Client
func (m *ClientModel) ToDomain() *payment.Client {
	return &payment.Client{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		CreditBalance:     m.CreditBalance,
	}
}

// FromDomain populates the model from a domain Client
func (m *ClientModel) FromDomain(c *payment.Client) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Name = c.Name
	m.NameFolded = FoldName(c.Name)
	m.CreditBalance = c.CreditBalance
}

// ClientModelFromDomain creates a model from a domain Client
func ClientModelFromDomain(c *payment.Client) *ClientModel {
	m := &ClientModel{}
	m.FromDomain(c)
	return m
}

// InvoiceModel is the persistence model for payment.Invoice.
type InvoiceModel struct {
	AggregateModel
	ClientID  uuid.UUID             `gorm:"type:uuid;not null;index:idx_invoice_client_status,priority:1"`
	Number    string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	IssueDate time.Time             `gorm:"not null"`
	Total     decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Balance   decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Status    payment.InvoiceStatus `gorm:"type:varchar(20);not null;default:'UNPAID';index:idx_invoice_client_status,priority:2"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the model to a domain Invoice
func (m *InvoiceModel) ToDomain() *payment.Invoice {
	return &payment.Invoice{
		BaseAggregateRoot: m.ToAggregateRoot(),
		ClientID:          m.ClientID,
		Number:            m.Number,
		IssueDate:         m.IssueDate,
		Total:             m.Total,
		Balance:           m.Balance,
		Status:            m.Status,
	}
}

// FromDomain populates the model from a domain Invoice
func (m *InvoiceModel) FromDomain(i *payment.Invoice) {
	m.FromDomainAggregateRoot(i.BaseAggregateRoot)
	m.ClientID = i.ClientID
	m.Number = i.Number
	m.IssueDate = i.IssueDate
	m.Total = i.Total
	m.Balance = i.Balance
	m.Status = i.Status
}

// InvoiceModelFromDomain creates a model from a domain Invoice
func InvoiceModelFromDomain(i *payment.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(i)
	return m
}

// PaymentModel is the persistence model for payment.Payment.
// Payments are immutable once written; the version column is kept for symmetry with other aggregates.
type PaymentModel struct {
	AggregateModel
	ClientID      uuid.UUID                 `gorm:"type:uuid;not null;index"`
	PaymentDate   time.Time                 `gorm:"not null;index"`
	Amount        decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	MethodKind    payment.PaymentMethodKind `gorm:"type:varchar(20);not null"`
	CreditDrawn   decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	Reference     string                    `gorm:"type:varchar(500);not null;default:''"`
	ReceiptNumber *int64                    `gorm:"index"`
	Details       []PaymentDetailModel      `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// PaymentDetailModel is one invoice share of a payment, owned by the payment.
type PaymentDetailModel struct {
	PaymentID uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Position  int             `gorm:"primaryKey"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (PaymentDetailModel) TableName() string {
	return "payment_details"
}

// ErrCorruptPaymentRow marks stored payment rows that cannot describe a valid payment
var ErrCorruptPaymentRow = errors.New("corrupt payment row")

// ToDomain rebuilds the domain Payment, validating it the same way NewPayment does.
func (m *PaymentModel) ToDomain() (*payment.Payment, error) {
	method, err := payment.NewPaymentMethod(m.MethodKind, m.Reference, m.CreditDrawn)
	if err != nil {
		return nil, err
	}

	details := make([]payment.PaymentDetail, len(m.Details))
	filled := make([]bool, len(m.Details))
	for _, d := range m.Details {
		if d.Position < 0 || d.Position >= len(details) {
			return nil, fmt.Errorf("%w: payment %s has a detail at invalid position %d", ErrCorruptPaymentRow, m.ID, d.Position)
		}
		if filled[d.Position] {
			return nil, fmt.Errorf("%w: payment %s has two details at position %d", ErrCorruptPaymentRow, m.ID, d.Position)
		}
		filled[d.Position] = true
		details[d.Position] = payment.PaymentDetail{InvoiceID: d.InvoiceID, Amount: d.Amount}
	}

	var number *payment.ReceiptNumber
	if m.ReceiptNumber != nil {
		n, err := payment.NewReceiptNumber(*m.ReceiptNumber)
		if err != nil {
			return nil, err
		}
		number = &n
	}

	return payment.RestorePayment(payment.PaymentSnapshot{
		ID:            m.ID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		Version:       m.Version,
		ClientID:      m.ClientID,
		PaymentDate:   m.PaymentDate,
		Amount:        m.Amount,
		Method:        method,
		Reference:     m.Reference,
		CreditApplied: m.CreditDrawn,
		ReceiptNumber: number,
		Details:       details,
	})
}

// PaymentModelFromDomain creates a model, with its details, from a domain Payment
func PaymentModelFromDomain(p *payment.Payment) *PaymentModel {
	m := &PaymentModel{
		ClientID:    p.ClientID(),
		PaymentDate: p.PaymentDate(),
		Amount:      p.Amount(),
		MethodKind:  p.Method().Kind(),
		CreditDrawn: p.CreditApplied(),
		Reference:   p.Reference(),
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	if n, ok := p.ReceiptNumber(); ok {
		seq := n.Seq()
		m.ReceiptNumber = &seq
	}
	for i, d := range p.Details() {
		m.Details = append(m.Details, PaymentDetailModel{
			PaymentID: p.ID,
			Position:  i,
			InvoiceID: d.InvoiceID,
			Amount:    d.Amount,
		})
	}
	return m
}

// ReceiptCounterModel is the single-row sequence behind receipt numbers.
type ReceiptCounterModel struct {
	ID         int       `gorm:"primaryKey;autoIncrement:false"`
	LastNumber int64     `gorm:"not null;default:0"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReceiptCounterModel) TableName() string {
	return "receipt_counters"
}

// ReceiptCounterID is the primary key of the only counter row
const ReceiptCounterID = 1

// AllModels lists every model, in dependency order, for AutoMigrate in tests.
func AllModels() []any {
	return []any{
		&ClientModel{},
		&InvoiceModel{},
		&PaymentModel{},
		&PaymentDetailModel{},
		&ReceiptCounterModel{},
	}
}

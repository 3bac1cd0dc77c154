package payment

import (
	"strings"
	"unicode/utf8"

	"github.com/erp/receipts/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentMethodKind is the discriminator of the PaymentMethod variants
type PaymentMethodKind string

const (
	MethodKindCash          PaymentMethodKind = "CASH"
	MethodKindTransfer      PaymentMethodKind = "TRANSFER"
	MethodKindCard          PaymentMethodKind = "CARD"
	MethodKindCreditBalance PaymentMethodKind = "CREDIT_BALANCE"
)

// String returns the string representation of PaymentMethodKind
func (k PaymentMethodKind) String() string {
	return string(k)
}

// IsValid checks if the kind names a known variant
func (k PaymentMethodKind) IsValid() bool {
	switch k {
	case MethodKindCash, MethodKindTransfer, MethodKindCard, MethodKindCreditBalance:
		return true
	}
	return false
}

// IsRealTender is false only for the virtual credit balance draw
func (k PaymentMethodKind) IsRealTender() bool {
	return k.IsValid() && k != MethodKindCreditBalance
}

// ParsePaymentMethodKind parses a kind case-insensitively
func ParsePaymentMethodKind(s string) (PaymentMethodKind, error) {
	kind := PaymentMethodKind(strings.ToUpper(strings.TrimSpace(s)))
	if !kind.IsValid() {
		return "", shared.NewValidationError("Unknown payment method: %s", s)
	}
	return kind, nil
}

// SelectableMethods lists the methods a user may pick on a payment form.
// The credit balance draw is implied by a positive credit amount and is never listed.
func SelectableMethods() []PaymentMethodKind {
	return []PaymentMethodKind{MethodKindCash, MethodKindTransfer, MethodKindCard}
}

// PaymentMethod is a closed sum type: Cash, Transfer, Card or CreditBalanceDraw.
type PaymentMethod interface {
	Kind() PaymentMethodKind
	// Reference is the tender voucher reference; empty for credit draws
	Reference() string
	isPaymentMethod()
}

// Cash is a cash tender
type Cash struct {
	Ref string
}

func (Cash) Kind() PaymentMethodKind { return MethodKindCash }
func (m Cash) Reference() string     { return m.Ref }
func (Cash) isPaymentMethod()        {}

// Transfer is a bank transfer tender
type Transfer struct {
	Ref string
}

func (Transfer) Kind() PaymentMethodKind { return MethodKindTransfer }
func (m Transfer) Reference() string     { return m.Ref }
func (Transfer) isPaymentMethod()        {}

// Card is a debit or credit card tender
type Card struct {
	Ref string
}

func (Card) Kind() PaymentMethodKind { return MethodKindCard }
func (m Card) Reference() string     { return m.Ref }
func (Card) isPaymentMethod()        {}

// CreditBalanceDraw pays from the client's credit balance.
// Amount is the total drawn by the operation that produced the payment.
type CreditBalanceDraw struct {
	Amount decimal.Decimal
}

func (CreditBalanceDraw) Kind() PaymentMethodKind { return MethodKindCreditBalance }
func (CreditBalanceDraw) Reference() string       { return "" }
func (CreditBalanceDraw) isPaymentMethod()        {}

// NewPaymentMethod builds the variant for kind.
// reference is carried by real tender; creditAmount by the credit draw.
func NewPaymentMethod(kind PaymentMethodKind, reference string, creditAmount decimal.Decimal) (PaymentMethod, error) {
	if utf8.RuneCountInString(reference) > MaxReferenceLength {
		return nil, shared.NewValidationError("Reference cannot exceed %d characters", MaxReferenceLength)
	}
	switch kind {
	case MethodKindCash:
		return Cash{Ref: reference}, nil
	case MethodKindTransfer:
		return Transfer{Ref: reference}, nil
	case MethodKindCard:
		return Card{Ref: reference}, nil
	case MethodKindCreditBalance:
		if creditAmount.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewValidationError("Credit balance draw requires a positive amount")
		}
		return CreditBalanceDraw{Amount: creditAmount}, nil
	}
	return nil, shared.NewValidationError("Unknown payment method: %s", kind)
}

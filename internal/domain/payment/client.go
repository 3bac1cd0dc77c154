package payment

import (
	"fmt"

	"github.com/erp/receipts/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Client owns invoices and may hold a credit balance drawable against them
type Client struct {
	shared.BaseAggregateRoot
	Name          string          `json:"name"`
	CreditBalance decimal.Decimal `json:"credit_balance"`
}

// NewClient creates a client with an initial credit balance
func NewClient(name string, creditBalance decimal.Decimal) (*Client, error) {
	if name == "" {
		return nil, shared.NewValidationError("Client name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewValidationError("Client name cannot exceed 200 characters")
	}
	if creditBalance.IsNegative() {
		return nil, shared.NewValidationError("Credit balance cannot be negative")
	}

	return &Client{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		CreditBalance:     creditBalance,
	}, nil
}

// CanDrawCredit reports whether amount can be drawn from the credit balance
func (c *Client) CanDrawCredit(amount decimal.Decimal) bool {
	return !amount.IsNegative() && amount.LessThanOrEqual(c.CreditBalance)
}

// DrawCredit decreases the credit balance by amount
func (c *Client) DrawCredit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("Credit draw must be positive")
	}
	if amount.GreaterThan(c.CreditBalance) {
		return shared.NewDomainError(shared.CodeInsufficientCreditBalance,
			fmt.Sprintf("Insufficient credit balance: available %s, required %s",
				c.CreditBalance.StringFixed(2), amount.StringFixed(2)))
	}

	c.CreditBalance = c.CreditBalance.Sub(amount)
	c.Touch()
	c.IncrementVersion()
	return nil
}

// MaxCreditApplicable caps the drawable credit at the given outstanding debt
func (c *Client) MaxCreditApplicable(totalOwed decimal.Decimal) decimal.Decimal {
	return decimal.Min(c.CreditBalance, totalOwed)
}

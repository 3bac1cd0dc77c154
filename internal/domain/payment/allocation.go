package payment

import (
	"fmt"

	"github.com/erp/receipts/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationLine is the amount a combined payment applies to one invoice
type AllocationLine struct {
	Invoice *Invoice
	Amount  decimal.Decimal
}

// PlanAllocation splits funds across invoices in the given order.
// Each invoice takes min(remaining, balance); invoices after the funds run out
// are not visited. Funds left after the last invoice fail with EXCESS_PAYMENT.
// The invoices are not modified.
func PlanAllocation(invoices []*Invoice, funds decimal.Decimal) ([]AllocationLine, error) {
	if funds.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("Funds to allocate must be positive")
	}

	remaining := funds
	lines := make([]AllocationLine, 0, len(invoices))
	for _, inv := range invoices {
		if !remaining.IsPositive() {
			break
		}
		applied := decimal.Min(remaining, inv.Balance)
		if !applied.IsPositive() {
			continue
		}
		lines = append(lines, AllocationLine{Invoice: inv, Amount: applied})
		remaining = remaining.Sub(applied)
	}

	if remaining.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeExcessPayment,
			fmt.Sprintf("Payment of %s exceeds the selected invoices' debt by %s",
				funds.StringFixed(2), remaining.StringFixed(2)))
	}
	return lines, nil
}

// TotalBalance sums the outstanding balance of invoices
func TotalBalance(invoices []Invoice) decimal.Decimal {
	total := decimal.Zero
	for _, inv := range invoices {
		total = total.Add(inv.Balance)
	}
	return total
}

// EnsureSameClient checks that all invoices belong to one client and returns it
func EnsureSameClient(invoices []*Invoice) (uuid.UUID, error) {
	if len(invoices) == 0 {
		return uuid.Nil, shared.NewValidationError("no invoices selected")
	}
	clientID := invoices[0].ClientID
	for _, inv := range invoices[1:] {
		if inv.ClientID != clientID {
			return uuid.Nil, shared.NewValidationError("Invoices %s and %s belong to different clients", invoices[0].Number, inv.Number)
		}
	}
	return clientID, nil
}

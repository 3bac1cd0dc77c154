package payment

import (
	"sort"
	"time"

	"github.com/erp/receipts/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receipt is the consolidated view of the payments sharing one receipt number,
// or of a single payment that never received one.
type Receipt struct {
	// Key is the receipt number, or the payment id for unnumbered payments
	Key           string
	ReceiptNumber *ReceiptNumber
	ClientID      uuid.UUID
	Date          time.Time
	Total         decimal.Decimal
	// CreditApplied is the part of Total drawn from the client's credit balance
	CreditApplied decimal.Decimal
	InvoiceIDs    []uuid.UUID
	Methods       []PaymentMethodKind
	Payments      []*Payment
}

// Tendered is the part of Total paid with real tender
func (r *Receipt) Tendered() decimal.Decimal {
	return r.Total.Sub(r.CreditApplied)
}

// IsConsolidated reports whether the receipt aggregates more than one payment
func (r *Receipt) IsConsolidated() bool {
	return len(r.Payments) > 1
}

// BuildReceipt consolidates payments that share one group key.
// Invoices and methods keep first-seen order; the date is the earliest payment date.
// A credit draw shared by the siblings is counted once and always listed as a method.
func BuildReceipt(payments []*Payment) (*Receipt, error) {
	if len(payments) == 0 {
		return nil, shared.NewValidationError("Receipt requires at least one payment")
	}

	first := payments[0]
	key := first.GroupKey()
	receipt := &Receipt{
		Key:           key,
		ClientID:      first.ClientID(),
		Date:          first.PaymentDate(),
		Total:         decimal.Zero,
		CreditApplied: decimal.Zero,
		Payments:      make([]*Payment, 0, len(payments)),
	}
	if n, ok := first.ReceiptNumber(); ok {
		receipt.ReceiptNumber = &n
	}

	seenInvoices := make(map[uuid.UUID]struct{})
	seenMethods := make(map[PaymentMethodKind]struct{})
	for _, p := range payments {
		if p.GroupKey() != key {
			return nil, shared.NewValidationError("Payments %s and %s belong to different receipts", first.ID, p.ID)
		}
		receipt.Total = receipt.Total.Add(p.Amount())
		if p.PaymentDate().Before(receipt.Date) {
			receipt.Date = p.PaymentDate()
		}
		for _, id := range p.InvoiceIDs() {
			if _, ok := seenInvoices[id]; !ok {
				seenInvoices[id] = struct{}{}
				receipt.InvoiceIDs = append(receipt.InvoiceIDs, id)
			}
		}
		kind := p.Method().Kind()
		if _, ok := seenMethods[kind]; !ok {
			seenMethods[kind] = struct{}{}
			receipt.Methods = append(receipt.Methods, kind)
		}
		receipt.CreditApplied = decimal.Max(receipt.CreditApplied, p.CreditApplied())
		receipt.Payments = append(receipt.Payments, p)
	}

	if receipt.CreditApplied.IsPositive() {
		if _, ok := seenMethods[MethodKindCreditBalance]; !ok {
			receipt.Methods = append(receipt.Methods, MethodKindCreditBalance)
		}
	}
	return receipt, nil
}

// GroupReceipts partitions payments by group key and builds one receipt per group.
// Every payment lands in exactly one receipt. Numbered receipts come first,
// newest number first; unnumbered ones follow, newest date first, ties by key descending.
func GroupReceipts(payments []*Payment) ([]*Receipt, error) {
	groups := make(map[string][]*Payment, len(payments))
	order := make([]string, 0, len(payments))
	for _, p := range payments {
		key := p.GroupKey()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], p)
	}

	receipts := make([]*Receipt, 0, len(order))
	for _, key := range order {
		r, err := BuildReceipt(groups[key])
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
	}

	SortReceipts(receipts)
	return receipts, nil
}

// SortReceipts orders receipts the way listings present them
func SortReceipts(receipts []*Receipt) {
	sort.SliceStable(receipts, func(i, j int) bool {
		a, b := receipts[i], receipts[j]
		aNumbered, bNumbered := a.ReceiptNumber != nil, b.ReceiptNumber != nil
		if aNumbered != bNumbered {
			return aNumbered
		}
		if aNumbered {
			// fixed width makes string order numeric
			return a.Key > b.Key
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.Key > b.Key
	})
}

package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/receipts/internal/domain/payment"
	"github.com/erp/receipts/internal/domain/shared"
	"github.com/erp/receipts/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// ReceiptService assembles receipts from stored payments
type ReceiptService struct {
	paymentRepo payment.PaymentRepository
	clientRepo  payment.ClientRepository
	invoiceRepo payment.InvoiceRepository
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(
	paymentRepo payment.PaymentRepository,
	clientRepo payment.ClientRepository,
	invoiceRepo payment.InvoiceRepository,
) *ReceiptService {
	return &ReceiptService{
		paymentRepo: paymentRepo,
		clientRepo:  clientRepo,
		invoiceRepo: invoiceRepo,
	}
}

// ListReceipts returns one receipt per receipt number, plus one per unnumbered payment,
// for payments matching the filter. Numbered receipts come first, newest number first.
func (s *ReceiptService) ListReceipts(ctx context.Context, filter ReceiptFilter) ([]ReceiptResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receipt", "list_receipts")
	defer span.End()

	paymentFilter, err := toPaymentFilter(filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	payments, err := s.paymentRepo.FindAll(ctx, paymentFilter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	receipts, err := payment.GroupReceipts(payments)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, "payment_count", len(payments), "receipt_count", len(receipts))

	return s.enrich(ctx, receipts)
}

// GetReceiptByPaymentID returns the receipt view of a single payment
func (s *ReceiptService) GetReceiptByPaymentID(ctx context.Context, id uuid.UUID) (*ReceiptResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receipt", "get_receipt_by_payment")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrPaymentID, id.String())

	p, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if p == nil {
		return nil, shared.NewNotFoundError("Payment", id.String())
	}

	receipt, err := payment.BuildReceipt([]*payment.Payment{p})
	if err != nil {
		return nil, err
	}
	return s.enrichOne(ctx, receipt)
}

// GetReceiptByNumber returns the consolidated receipt for every payment stamped with number
func (s *ReceiptService) GetReceiptByNumber(ctx context.Context, number string) (*ReceiptResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receipt", "get_receipt_by_number")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrReceiptNumber, number)

	n, err := payment.ParseReceiptNumber(strings.TrimSpace(number))
	if err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.FindByReceiptNumber(ctx, n)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load payments for receipt %s: %w", n, err)
	}
	if len(payments) == 0 {
		return nil, shared.NewNotFoundError("Receipt", n.String())
	}

	receipt, err := payment.BuildReceipt(payments)
	if err != nil {
		return nil, err
	}
	return s.enrichOne(ctx, receipt)
}

func (s *ReceiptService) enrichOne(ctx context.Context, receipt *payment.Receipt) (*ReceiptResponse, error) {
	out, err := s.enrich(ctx, []*payment.Receipt{receipt})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// enrich resolves client names and invoice numbers with one lookup per distinct id
func (s *ReceiptService) enrich(ctx context.Context, receipts []*payment.Receipt) ([]ReceiptResponse, error) {
	clientNames := make(map[uuid.UUID]string)
	invoiceIDs := make([]uuid.UUID, 0)
	seenInvoice := make(map[uuid.UUID]struct{})
	for _, r := range receipts {
		if _, ok := clientNames[r.ClientID]; !ok {
			client, err := s.clientRepo.FindByID(ctx, r.ClientID)
			if err != nil {
				return nil, fmt.Errorf("failed to load client: %w", err)
			}
			name := ""
			if client != nil {
				name = client.Name
			}
			clientNames[r.ClientID] = name
		}
		for _, id := range r.InvoiceIDs {
			if _, ok := seenInvoice[id]; !ok {
				seenInvoice[id] = struct{}{}
				invoiceIDs = append(invoiceIDs, id)
			}
		}
	}

	invoiceNumbers := make(map[uuid.UUID]string, len(invoiceIDs))
	if len(invoiceIDs) > 0 {
		invoices, err := s.invoiceRepo.FindByIDs(ctx, invoiceIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load invoices: %w", err)
		}
		for _, inv := range invoices {
			invoiceNumbers[inv.ID] = inv.Number
		}
	}

	out := make([]ReceiptResponse, 0, len(receipts))
	for _, r := range receipts {
		out = append(out, toReceiptResponse(r, clientNames[r.ClientID], invoiceNumbers))
	}
	return out, nil
}

// toPaymentFilter turns calendar-day bounds into an inclusive instant range
func toPaymentFilter(filter ReceiptFilter) (payment.PaymentFilter, error) {
	out := payment.PaymentFilter{ClientName: strings.TrimSpace(filter.ClientName)}
	if filter.From != nil {
		from := startOfDay(*filter.From)
		out.From = &from
	}
	if filter.To != nil {
		to := startOfDay(*filter.To).AddDate(0, 0, 1).Add(-time.Nanosecond)
		out.To = &to
	}
	if out.From != nil && out.To != nil && out.From.After(*out.To) {
		return out, shared.NewValidationError("from date must not be after to date")
	}
	return out, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

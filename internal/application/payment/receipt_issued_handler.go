package payment

import (
	"context"
	"fmt"

	"github.com/erp/receipts/internal/domain/payment"
	"github.com/erp/receipts/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReceiptMetricsRecorder records receipt issuance metrics
type ReceiptMetricsRecorder interface {
	RecordReceiptIssued(ctx context.Context, method string, paymentCount int, total, creditApplied decimal.Decimal)
}

// ReceiptIssuedHandler logs issued receipts and feeds payment metrics
type ReceiptIssuedHandler struct {
	logger  *zap.Logger
	metrics ReceiptMetricsRecorder
}

// NewReceiptIssuedHandler creates a new handler for receipt issued events
func NewReceiptIssuedHandler(logger *zap.Logger) *ReceiptIssuedHandler {
	return &ReceiptIssuedHandler{
		logger: logger,
	}
}

// WithMetrics sets the metrics recorder
func (h *ReceiptIssuedHandler) WithMetrics(metrics ReceiptMetricsRecorder) *ReceiptIssuedHandler {
	h.metrics = metrics
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *ReceiptIssuedHandler) EventTypes() []string {
	return []string{payment.EventTypeReceiptIssued}
}

// Handle processes a ReceiptIssuedEvent
func (h *ReceiptIssuedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	issued, ok := event.(*payment.ReceiptIssuedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", payment.EventTypeReceiptIssued),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			payment.EventTypeReceiptIssued, event.EventType())
	}

	h.logger.Info("receipt issued",
		zap.String("event_id", issued.EventID().String()),
		zap.String("receipt_number", issued.ReceiptNumber),
		zap.String("client_id", issued.ClientID.String()),
		zap.String("method", string(issued.Method)),
		zap.String("total_amount", issued.TotalAmount.String()),
		zap.String("credit_applied", issued.CreditApplied.String()),
		zap.Int("payments", len(issued.PaymentIDs)),
		zap.Int("invoices_paid_up", len(issued.InvoicesPaidUp)),
	)

	if h.metrics != nil {
		h.metrics.RecordReceiptIssued(ctx, string(issued.Method), len(issued.PaymentIDs),
			issued.TotalAmount, issued.CreditApplied)
	}
	return nil
}

var _ shared.EventHandler = (*ReceiptIssuedHandler)(nil)

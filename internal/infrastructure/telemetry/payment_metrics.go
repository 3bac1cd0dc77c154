package telemetry

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
)

// PaymentMetrics tracks receipts issued by combined payments.
type PaymentMetrics struct {
	receiptsIssued  *Counter
	paymentsCreated *Counter
	creditApplied   *Counter
	receiptAmount   *Histogram
	paymentsPerRcpt *Histogram
}

// NewPaymentMetrics registers the payment instruments on meter.
func NewPaymentMetrics(meter metric.Meter) (*PaymentMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var err error
	pm := &PaymentMetrics{}

	if pm.receiptsIssued, err = NewCounter(meter,
		"receipts_issued_total",
		"Total number of receipts issued",
		"{receipts}",
	); err != nil {
		return nil, err
	}

	if pm.paymentsCreated, err = NewCounter(meter,
		"payments_created_total",
		"Total number of payment rows created",
		"{payments}",
	); err != nil {
		return nil, err
	}

	if pm.creditApplied, err = NewCounter(meter,
		"credit_applied_cents_total",
		"Client credit balance drawn by payments, in cents",
		"{cents}",
	); err != nil {
		return nil, err
	}

	if pm.receiptAmount, err = NewHistogram(meter, HistogramOpts{
		Name:        "receipt_amount",
		Description: "Tendered amount per receipt, excluding credit",
		Unit:        "{currency}",
		Boundaries:  AmountBuckets,
	}); err != nil {
		return nil, err
	}

	if pm.paymentsPerRcpt, err = NewHistogram(meter, HistogramOpts{
		Name:        "receipt_payments",
		Description: "Number of payments consolidated under one receipt",
		Unit:        "{payments}",
		Boundaries:  PaymentCountBuckets,
	}); err != nil {
		return nil, err
	}

	return pm, nil
}

// RecordReceiptIssued records one committed combined payment.
func (pm *PaymentMetrics) RecordReceiptIssued(ctx context.Context, method string, paymentCount int, total, creditApplied decimal.Decimal) {
	creditUsed := creditApplied.IsPositive()

	pm.receiptsIssued.Inc(ctx,
		AttrPaymentMethod.String(method),
		AttrCreditUsed.Bool(creditUsed),
	)
	pm.paymentsCreated.Add(ctx, int64(paymentCount), AttrPaymentMethod.String(method))
	pm.paymentsPerRcpt.Record(ctx, float64(paymentCount), AttrPaymentMethod.String(method))

	amount, _ := total.Float64()
	pm.receiptAmount.Record(ctx, amount, AttrPaymentMethod.String(method))

	if creditUsed {
		pm.creditApplied.Add(ctx, creditApplied.Shift(2).IntPart())
	}
}

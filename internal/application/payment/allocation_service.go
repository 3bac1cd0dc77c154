package payment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/erp/receipts/internal/domain/payment"
	"github.com/erp/receipts/internal/domain/shared"
	"github.com/erp/receipts/internal/infrastructure/logger"
	"github.com/erp/receipts/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AllocationService registers combined payments: one tender spread over several
// invoices of the same client, issued under a single receipt number.
type AllocationService struct {
	txScope   TransactionScope
	publisher shared.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// AllocationServiceOption configures an AllocationService
type AllocationServiceOption func(*AllocationService)

// WithEventPublisher publishes ReceiptIssued after each committed allocation
func WithEventPublisher(publisher shared.EventPublisher) AllocationServiceOption {
	return func(s *AllocationService) {
		s.publisher = publisher
	}
}

// WithAllocationLogger sets the fallback logger used when the context carries none
func WithAllocationLogger(l *zap.Logger) AllocationServiceOption {
	return func(s *AllocationService) {
		s.logger = l
	}
}

// WithClock overrides the payment date source
func WithClock(now func() time.Time) AllocationServiceOption {
	return func(s *AllocationService) {
		s.now = now
	}
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(txScope TransactionScope, opts ...AllocationServiceOption) *AllocationService {
	s := &AllocationService{
		txScope: txScope,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterCombinedPayment allocates TotalAmount plus CreditBalanceApplied across the
// selected invoices in the order given, creating one payment per touched invoice, all
// stamped with one new receipt number. Nothing is persisted unless every step succeeds.
func (s *AllocationService) RegisterCombinedPayment(ctx context.Context, input RegisterCombinedPaymentInput) (*RegisterCombinedPaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "allocation", "register_combined_payment")
	defer span.End()

	log := logger.FromContextOr(ctx, s.logger)

	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceCount, len(input.InvoiceIDs),
		telemetry.SpanAttrAmount, input.TotalAmount.String(),
		telemetry.SpanAttrCreditApplied, input.CreditBalanceApplied.String(),
	)

	method, err := resolveMethod(input)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrPaymentMethod, string(method.Kind()))

	var result *RegisterCombinedPaymentResult
	var event *payment.ReceiptIssuedEvent
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationRegisterCombinedPayment, map[string]string{
		"method": string(method.Kind()),
	}), func(c context.Context) {
		err = s.txScope.Execute(c, func(repos TransactionalRepositories) error {
			r, e, txErr := s.allocate(c, repos, input, method)
			if txErr != nil {
				return txErr
			}
			result, event = r, e
			return nil
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		log.Warn("combined payment rejected",
			zap.Int("invoice_count", len(input.InvoiceIDs)),
			zap.String("total_amount", input.TotalAmount.String()),
			zap.String("credit_applied", input.CreditBalanceApplied.String()),
			zap.Error(err),
		)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrReceiptNumber, result.ReceiptNumber,
		telemetry.SpanAttrClientID, result.ClientID.String(),
	)
	telemetry.SetOK(span)

	log.Info("combined payment registered",
		zap.String("receipt_number", result.ReceiptNumber),
		zap.String("client_id", result.ClientID.String()),
		zap.Int("payments", len(result.PaymentIDs)),
		zap.String("method", string(method.Kind())),
	)

	if s.publisher != nil {
		if pubErr := s.publisher.Publish(ctx, event); pubErr != nil {
			// the allocation is committed; a failed notification does not undo it
			log.Error("failed to publish receipt issued event",
				zap.String("receipt_number", result.ReceiptNumber),
				zap.Error(pubErr),
			)
		}
	}

	return result, nil
}

func (s *AllocationService) allocate(
	ctx context.Context,
	repos TransactionalRepositories,
	input RegisterCombinedPaymentInput,
	method payment.PaymentMethod,
) (*RegisterCombinedPaymentResult, *payment.ReceiptIssuedEvent, error) {
	invoices, err := lockInvoices(ctx, repos.InvoiceRepo(), input.InvoiceIDs)
	if err != nil {
		return nil, nil, err
	}

	clientID, err := payment.EnsureSameClient(invoices)
	if err != nil {
		return nil, nil, err
	}

	client, err := repos.ClientRepo().FindByIDForUpdate(ctx, clientID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load client: %w", err)
	}
	if client == nil {
		return nil, nil, shared.NewNotFoundError("Client", clientID.String())
	}

	if input.CreditBalanceApplied.IsPositive() && !client.CanDrawCredit(input.CreditBalanceApplied) {
		return nil, nil, shared.NewDomainError(shared.CodeInsufficientCreditBalance,
			fmt.Sprintf("Insufficient credit balance: available %s, required %s",
				client.CreditBalance.StringFixed(2), input.CreditBalanceApplied.StringFixed(2)))
	}

	funds := input.TotalAmount.Add(input.CreditBalanceApplied)
	lines, err := payment.PlanAllocation(invoices, funds)
	if err != nil {
		return nil, nil, err
	}

	paymentDate := s.now()
	payments := make([]*payment.Payment, 0, len(lines))
	allocations := make([]AllocationResult, 0, len(lines))
	var paidUp []uuid.UUID
	for _, line := range lines {
		p, err := payment.NewPayment(payment.NewPaymentParams{
			ClientID:      clientID,
			PaymentDate:   paymentDate,
			Amount:        line.Amount,
			Method:        method,
			Reference:     input.Reference,
			CreditApplied: input.CreditBalanceApplied,
			Details:       []payment.PaymentDetail{{InvoiceID: line.Invoice.ID, Amount: line.Amount}},
		})
		if err != nil {
			return nil, nil, err
		}
		if err := line.Invoice.ApplyPayment(line.Amount); err != nil {
			return nil, nil, err
		}
		if line.Invoice.IsPaid() {
			paidUp = append(paidUp, line.Invoice.ID)
		}
		payments = append(payments, p)
		allocations = append(allocations, AllocationResult{
			InvoiceID:        line.Invoice.ID,
			InvoiceNumber:    line.Invoice.Number,
			PaymentID:        p.ID,
			Amount:           line.Amount,
			RemainingBalance: line.Invoice.Balance,
			Paid:             line.Invoice.IsPaid(),
		})
	}

	if input.CreditBalanceApplied.IsPositive() {
		if err := client.DrawCredit(input.CreditBalanceApplied); err != nil {
			return nil, nil, err
		}
	}

	number, err := repos.ReceiptCounterRepo().Next(ctx)
	if err != nil {
		return nil, nil, wrapStorageError("failed to issue receipt number", err)
	}
	paymentIDs := make([]uuid.UUID, 0, len(payments))
	for _, p := range payments {
		if err := p.AssignReceiptNumber(number); err != nil {
			return nil, nil, err
		}
		paymentIDs = append(paymentIDs, p.ID)
	}

	for _, line := range lines {
		if err := repos.InvoiceRepo().SaveWithLock(ctx, line.Invoice); err != nil {
			return nil, nil, wrapStorageError("failed to save invoice", err)
		}
	}
	if input.CreditBalanceApplied.IsPositive() {
		if err := repos.ClientRepo().SaveWithLock(ctx, client); err != nil {
			return nil, nil, wrapStorageError("failed to save client", err)
		}
	}
	if err := repos.PaymentRepo().SaveAll(ctx, payments); err != nil {
		return nil, nil, wrapStorageError("failed to save payments", err)
	}

	result := &RegisterCombinedPaymentResult{
		ReceiptNumber:      number.String(),
		ClientID:           clientID,
		Method:             method.Kind(),
		TotalAmount:        input.TotalAmount,
		CreditApplied:      input.CreditBalanceApplied,
		PaymentIDs:         paymentIDs,
		Allocations:        allocations,
		CreditBalanceAfter: client.CreditBalance,
	}
	event := payment.NewReceiptIssuedEvent(number, clientID, method.Kind(),
		input.TotalAmount, input.CreditBalanceApplied, paymentIDs, paidUp)
	return result, event, nil
}

// lockInvoices loads the selected invoices FOR UPDATE and returns them in caller order.
// Rows are locked in id order so two allocations over overlapping selections cannot deadlock.
func lockInvoices(ctx context.Context, repo payment.InvoiceRepository, ids []uuid.UUID) ([]*payment.Invoice, error) {
	lockOrder := slices.Clone(ids)
	slices.SortFunc(lockOrder, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})

	byID := make(map[uuid.UUID]*payment.Invoice, len(ids))
	for _, id := range lockOrder {
		inv, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load invoice: %w", err)
		}
		if inv == nil {
			return nil, shared.NewNotFoundError("Invoice", id.String())
		}
		byID[id] = inv
	}

	invoices := make([]*payment.Invoice, 0, len(ids))
	for _, id := range ids {
		invoices = append(invoices, byID[id])
	}
	return invoices, nil
}

// resolveMethod checks the request before anything is read or written and
// returns the method every created payment will carry.
func resolveMethod(input RegisterCombinedPaymentInput) (payment.PaymentMethod, error) {
	if len(input.InvoiceIDs) == 0 {
		return nil, shared.NewValidationError("no invoices selected")
	}
	seen := make(map[uuid.UUID]struct{}, len(input.InvoiceIDs))
	for _, id := range input.InvoiceIDs {
		if id == uuid.Nil {
			return nil, shared.NewValidationError("invoice id is required")
		}
		if _, dup := seen[id]; dup {
			return nil, shared.NewValidationError("invoice %s selected more than once", id)
		}
		seen[id] = struct{}{}
	}

	if input.TotalAmount.IsNegative() {
		return nil, shared.NewValidationError("total amount cannot be negative")
	}
	if input.CreditBalanceApplied.IsNegative() {
		return nil, shared.NewValidationError("credit balance applied cannot be negative")
	}
	if input.TotalAmount.IsZero() && input.CreditBalanceApplied.IsZero() {
		return nil, shared.NewValidationError("total amount or credit balance applied must be positive")
	}
	if utf8.RuneCountInString(input.Reference) > payment.MaxReferenceLength {
		return nil, shared.NewValidationError("reference cannot exceed %d characters", payment.MaxReferenceLength)
	}

	if input.Method == nil {
		if input.TotalAmount.IsPositive() {
			return nil, shared.NewValidationError("method required when amount > 0")
		}
		return payment.CreditBalanceDraw{Amount: input.CreditBalanceApplied}, nil
	}

	kind := *input.Method
	if !kind.IsValid() {
		return nil, shared.NewValidationError("unknown payment method %q", string(kind))
	}
	if kind == payment.MethodKindCreditBalance && input.TotalAmount.IsPositive() {
		return nil, shared.NewValidationError("credit balance cannot be chosen as the tender for a positive amount")
	}
	if input.TotalAmount.IsZero() {
		// no tender changes hands; the credit draw is the only method
		return payment.CreditBalanceDraw{Amount: input.CreditBalanceApplied}, nil
	}
	return payment.NewPaymentMethod(kind, input.Reference, input.CreditBalanceApplied)
}

// wrapStorageError keeps domain errors such as CONCURRENT_MODIFICATION intact
func wrapStorageError(msg string, err error) error {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}

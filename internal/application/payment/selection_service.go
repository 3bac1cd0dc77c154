package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/receipts/internal/domain/payment"
	"github.com/erp/receipts/internal/domain/shared"
	"github.com/erp/receipts/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// SelectionService prepares the data a cashier picks from before registering a payment
type SelectionService struct {
	clientRepo  payment.ClientRepository
	invoiceRepo payment.InvoiceRepository
}

// NewSelectionService creates a new SelectionService
func NewSelectionService(clientRepo payment.ClientRepository, invoiceRepo payment.InvoiceRepository) *SelectionService {
	return &SelectionService{
		clientRepo:  clientRepo,
		invoiceRepo: invoiceRepo,
	}
}

// PrepareSelection lists the client's unpaid invoices with the totals used to bound
// a combined payment. When preselected names one of those invoices its balance is
// returned as the suggested amount.
func (s *SelectionService) PrepareSelection(ctx context.Context, clientID uuid.UUID, preselected *uuid.UUID) (*PaymentSelectionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "selection", "prepare_selection")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrClientID, clientID.String())

	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	if client == nil {
		return nil, shared.NewNotFoundError("Client", clientID.String())
	}

	invoices, err := s.invoiceRepo.FindUnpaidByClient(ctx, clientID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load unpaid invoices: %w", err)
	}

	totalOwed := payment.TotalBalance(invoices)
	resp := &PaymentSelectionResponse{
		Client:              toClientSummary(client),
		Invoices:            make([]InvoiceSummary, 0, len(invoices)),
		TotalOwed:           totalOwed,
		MaxCreditApplicable: client.MaxCreditApplicable(totalOwed),
		SelectableMethods:   payment.SelectableMethods(),
	}
	for _, inv := range invoices {
		resp.Invoices = append(resp.Invoices, toInvoiceSummary(inv))
		if preselected != nil && inv.ID == *preselected {
			balance := inv.Balance
			resp.SuggestedAmount = &balance
		}
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceCount, len(invoices))
	return resp, nil
}

// SearchClients finds clients whose name contains name, ignoring case and accents
func (s *SelectionService) SearchClients(ctx context.Context, name string) ([]ClientSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "selection", "search_clients")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("client name is required")
	}

	clients, err := s.clientRepo.FindByNameSubstring(ctx, name)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to search clients: %w", err)
	}

	out := make([]ClientSummary, 0, len(clients))
	for i := range clients {
		out = append(out, toClientSummary(&clients[i]))
	}
	return out, nil
}

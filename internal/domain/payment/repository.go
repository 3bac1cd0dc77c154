package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InvoiceRepository defines persistence for invoices.
// Finders return (nil, nil) when the invoice does not exist.
type InvoiceRepository interface {
	// FindByID finds an invoice by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByIDForUpdate finds an invoice and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByIDs finds invoices by IDs, in no particular order
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Invoice, error)

	// FindUnpaidByClient finds the client's unpaid invoices, oldest first
	FindUnpaidByClient(ctx context.Context, clientID uuid.UUID) ([]Invoice, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock updates an invoice if its stored version matches, then bumps it
	SaveWithLock(ctx context.Context, invoice *Invoice) error
}

// ClientRepository defines persistence for clients
type ClientRepository interface {
	// FindByID finds a client by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Client, error)

	// FindByIDForUpdate finds a client and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Client, error)

	// FindByNameSubstring finds clients whose name contains s, ignoring case and accents
	FindByNameSubstring(ctx context.Context, s string) ([]Client, error)

	// Save creates or updates a client
	Save(ctx context.Context, client *Client) error

	// SaveWithLock updates a client if its stored version matches, then bumps it
	SaveWithLock(ctx context.Context, client *Client) error
}

// PaymentFilter selects payments for receipt listings.
// From and To are inclusive; nil means unbounded.
type PaymentFilter struct {
	ClientName string
	From       *time.Time
	To         *time.Time
}

// PaymentRepository defines persistence for payments and their details
type PaymentRepository interface {
	// FindByID finds a payment with its details
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByReceiptNumber finds all payments stamped with number
	FindByReceiptNumber(ctx context.Context, number ReceiptNumber) ([]*Payment, error)

	// FindAll finds payments matching filter
	FindAll(ctx context.Context, filter PaymentFilter) ([]*Payment, error)

	// SaveAll persists new payments with their details
	SaveAll(ctx context.Context, payments []*Payment) error
}

// ReceiptCounterRepository issues receipt numbers
type ReceiptCounterRepository interface {
	// Next increments the persisted counter and returns the new number.
	// Called inside a transaction it holds the counter lock until commit.
	Next(ctx context.Context) (ReceiptNumber, error)

	// Current returns the last issued number, or the zero value if none
	Current(ctx context.Context) (ReceiptNumber, error)
}

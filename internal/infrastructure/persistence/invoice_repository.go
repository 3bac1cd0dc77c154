package persistence

import (
	"context"
	"errors"

	"github.com/erp/receipts/internal/domain/payment"
	"github.com/erp/receipts/internal/domain/shared"
	"github.com/erp/receipts/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements payment.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Invoice, error) {
	return r.findOne(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds an invoice and takes a row lock (SELECT ... FOR UPDATE)
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*payment.Invoice, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormInvoiceRepository) findOne(db *gorm.DB, id uuid.UUID) (*payment.Invoice, error) {
	var model models.InvoiceModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds invoices by IDs
func (r *GormInvoiceRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]payment.Invoice, error) {
	if len(ids) == 0 {
		return []payment.Invoice{}, nil
	}
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toInvoices(invoiceModels), nil
}

// FindUnpaidByClient finds the client's unpaid invoices, oldest first
func (r *GormInvoiceRepository) FindUnpaidByClient(ctx context.Context, clientID uuid.UUID) ([]payment.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("client_id = ? AND status = ?", clientID, payment.InvoiceStatusUnpaid).
		Order("issue_date ASC, number ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toInvoices(invoiceModels), nil
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *payment.Invoice) error {
	return r.db.WithContext(ctx).Save(models.InvoiceModelFromDomain(invoice)).Error
}

// SaveWithLock writes the balance and status if the stored version is the one
// the invoice was loaded with. The domain has already bumped invoice.Version.
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *payment.Invoice) error {
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ? AND version = ?", invoice.ID, invoice.Version-1).
		Updates(map[string]any{
			"balance":    invoice.Balance,
			"status":     invoice.Status,
			"version":    invoice.Version,
			"updated_at": invoice.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrentModification,
			"Invoice "+invoice.Number+" was modified by another transaction")
	}
	return nil
}

func toInvoices(invoiceModels []models.InvoiceModel) []payment.Invoice {
	invoices := make([]payment.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = *invoiceModels[i].ToDomain()
	}
	return invoices
}

var _ payment.InvoiceRepository = (*GormInvoiceRepository)(nil)

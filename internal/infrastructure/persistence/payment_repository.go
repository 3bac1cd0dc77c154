package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/receipts/internal/domain/payment"
	"github.com/erp/receipts/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentRepository implements payment.PaymentRepository using GORM.
// Details are always loaded with their payment, in their original order.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Details", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	var model models.PaymentModel
	if err := r.withDetails(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	p, err := model.ToDomain()
	if err != nil {
		return nil, fmt.Errorf("corrupt payment %s: %w", model.ID, err)
	}
	return p, nil
}

// FindByReceiptNumber finds every payment stamped with number
func (r *GormPaymentRepository) FindByReceiptNumber(ctx context.Context, number payment.ReceiptNumber) ([]*payment.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := r.withDetails(ctx).
		Where("receipt_number = ?", number.Seq()).
		Order("payment_date ASC, id ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	return toPayments(paymentModels)
}

// FindAll finds payments matching filter. The client name is matched as a
// folded substring; From and To bound payment_date inclusively.
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter payment.PaymentFilter) ([]*payment.Payment, error) {
	query := r.withDetails(ctx).Model(&models.PaymentModel{})
	if filter.ClientName != "" {
		query = query.
			Joins("JOIN clients ON clients.id = payments.client_id").
			Where("clients.name_folded LIKE ? ESCAPE '\\'", containsPattern(filter.ClientName))
	}
	if filter.From != nil {
		query = query.Where("payments.payment_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("payments.payment_date <= ?", *filter.To)
	}

	var paymentModels []models.PaymentModel
	if err := query.Order("payments.payment_date DESC, payments.id DESC").Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	return toPayments(paymentModels)
}

// SaveAll inserts new payments together with their details
func (r *GormPaymentRepository) SaveAll(ctx context.Context, payments []*payment.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	paymentModels := make([]*models.PaymentModel, len(payments))
	for i, p := range payments {
		paymentModels[i] = models.PaymentModelFromDomain(p)
	}
	return r.db.WithContext(ctx).Create(&paymentModels).Error
}

func toPayments(paymentModels []models.PaymentModel) ([]*payment.Payment, error) {
	payments := make([]*payment.Payment, 0, len(paymentModels))
	for i := range paymentModels {
		p, err := paymentModels[i].ToDomain()
		if err != nil {
			return nil, fmt.Errorf("corrupt payment %s: %w", paymentModels[i].ID, err)
		}
		payments = append(payments, p)
	}
	return payments, nil
}

var _ payment.PaymentRepository = (*GormPaymentRepository)(nil)

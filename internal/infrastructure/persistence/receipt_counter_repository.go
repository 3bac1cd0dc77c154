package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/receipts/internal/domain/payment"
	"github.com/erp/receipts/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormReceiptCounterRepository issues receipt numbers from the receipt_counters row.
//
// Next increments the row with a single UPDATE, which holds the row lock until the
// surrounding transaction ends. Concurrent allocations therefore serialize on the
// counter, and a rolled back allocation returns its number.
type GormReceiptCounterRepository struct {
	db *gorm.DB
}

// NewGormReceiptCounterRepository creates a new GormReceiptCounterRepository
func NewGormReceiptCounterRepository(db *gorm.DB) *GormReceiptCounterRepository {
	return &GormReceiptCounterRepository{db: db}
}

// Next increments the counter and returns the new number
func (r *GormReceiptCounterRepository) Next(ctx context.Context) (payment.ReceiptNumber, error) {
	db := r.db.WithContext(ctx)

	affected, err := r.increment(db)
	if err != nil {
		return payment.ReceiptNumber{}, err
	}
	if affected == 0 {
		// first number ever issued: seed the row, then increment as usual
		seed := models.ReceiptCounterModel{ID: models.ReceiptCounterID, UpdatedAt: time.Now()}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return payment.ReceiptNumber{}, err
		}
		if _, err := r.increment(db); err != nil {
			return payment.ReceiptNumber{}, err
		}
	}

	var counter models.ReceiptCounterModel
	if err := db.First(&counter, "id = ?", models.ReceiptCounterID).Error; err != nil {
		return payment.ReceiptNumber{}, err
	}
	return payment.NewReceiptNumber(counter.LastNumber)
}

func (r *GormReceiptCounterRepository) increment(db *gorm.DB) (int64, error) {
	result := db.Model(&models.ReceiptCounterModel{}).
		Where("id = ?", models.ReceiptCounterID).
		Updates(map[string]any{
			"last_number": gorm.Expr("last_number + 1"),
			"updated_at":  time.Now(),
		})
	return result.RowsAffected, result.Error
}

// Current returns the last issued number, or the zero value when none was issued
func (r *GormReceiptCounterRepository) Current(ctx context.Context) (payment.ReceiptNumber, error) {
	var counter models.ReceiptCounterModel
	if err := r.db.WithContext(ctx).First(&counter, "id = ?", models.ReceiptCounterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return payment.ReceiptNumber{}, nil
		}
		return payment.ReceiptNumber{}, err
	}
	if counter.LastNumber == 0 {
		return payment.ReceiptNumber{}, nil
	}
	return payment.NewReceiptNumber(counter.LastNumber)
}

var _ payment.ReceiptCounterRepository = (*GormReceiptCounterRepository)(nil)

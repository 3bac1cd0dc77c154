package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/receipts/internal/domain/payment"
	"github.com/erp/receipts/internal/domain/shared"
	"github.com/erp/receipts/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormClientRepository implements payment.ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindByID finds a client by its ID
func (r *GormClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Client, error) {
	return r.findOne(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a client and takes a row lock (SELECT ... FOR UPDATE)
func (r *GormClientRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*payment.Client, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormClientRepository) findOne(db *gorm.DB, id uuid.UUID) (*payment.Client, error) {
	var model models.ClientModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNameSubstring matches s against the folded name column, ordered by name
func (r *GormClientRepository) FindByNameSubstring(ctx context.Context, s string) ([]payment.Client, error) {
	var clientModels []models.ClientModel
	if err := r.db.WithContext(ctx).
		Where("name_folded LIKE ? ESCAPE '\\'", containsPattern(s)).
		Order("name ASC, id ASC").
		Find(&clientModels).Error; err != nil {
		return nil, err
	}

	clients := make([]payment.Client, len(clientModels))
	for i := range clientModels {
		clients[i] = *clientModels[i].ToDomain()
	}
	return clients, nil
}

// Save creates or updates a client
func (r *GormClientRepository) Save(ctx context.Context, client *payment.Client) error {
	return r.db.WithContext(ctx).Save(models.ClientModelFromDomain(client)).Error
}

// SaveWithLock writes the credit balance if the stored version is the one the
// client was loaded with. The domain has already bumped client.Version.
func (r *GormClientRepository) SaveWithLock(ctx context.Context, client *payment.Client) error {
	result := r.db.WithContext(ctx).
		Model(&models.ClientModel{}).
		Where("id = ? AND version = ?", client.ID, client.Version-1).
		Updates(map[string]any{
			"credit_balance": client.CreditBalance,
			"version":        client.Version,
			"updated_at":     client.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrentModification,
			"Client was modified by another transaction")
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern folds s and wraps it for a LIKE substring match with \ as escape
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(models.FoldName(s)) + "%"
}

var _ payment.ClientRepository = (*GormClientRepository)(nil)

package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and audit timestamps.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Touch stamps UpdatedAt with the current UTC time.
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}

// BaseAggregateRoot is embedded by the ledger aggregates (clients, invoices
// and payments). Version starts at 1 and is bumped once per state change;
// repositories write with "WHERE version = Version-1" to detect lost updates.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
}

// IncrementVersion records one state change.
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// NewBaseAggregateRoot returns a fresh root with a random id at version 1.
func NewBaseAggregateRoot() BaseAggregateRoot {
	now := time.Now().UTC()
	return BaseAggregateRoot{
		BaseEntity: BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Version:    1,
	}
}

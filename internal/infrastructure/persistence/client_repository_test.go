package persistence

import (
	"context"
	"testing"

	"github.com/erp/receipts/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormClientRepository_FindByID(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormClientRepository(db)
	ctx := context.Background()

	client := seedClient(t, db, "José Martínez", 250)

	got, err := repo.FindByIDForUpdate(ctx, client.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "José Martínez", got.Name)
	assert.True(t, got.CreditBalance.Equal(decimal.NewFromInt(250)))

	missing, err := repo.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGormClientRepository_FindByNameSubstring(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormClientRepository(db)
	ctx := context.Background()

	seedClient(t, db, "José Martínez", 0)
	seedClient(t, db, "JOSEFINA LÓPEZ", 0)
	seedClient(t, db, "Ana Pérez", 0)
	seedClient(t, db, "100% Natural", 0)
	seedClient(t, db, "100 Natural", 0)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"ignores accents and case", "jose", []string{"José Martínez", "JOSEFINA LÓPEZ"}},
		{"accented query matches plain storage", "PÉREZ", []string{"Ana Pérez"}},
		{"inner substring", "tine", []string{"José Martínez"}},
		{"percent is literal", "100%", []string{"100% Natural"}},
		{"underscore is literal", "100_", nil},
		{"no match", "zzz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindByNameSubstring(ctx, tt.query)
			require.NoError(t, err)

			var names []string
			for _, c := range got {
				names = append(names, c.Name)
			}
			assert.ElementsMatch(t, tt.want, names)
		})
	}
}

func TestGormClientRepository_SaveWithLock(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormClientRepository(db)
	ctx := context.Background()

	client := seedClient(t, db, "Ana Pérez", 100)

	first, err := repo.FindByID(ctx, client.ID)
	require.NoError(t, err)
	stale, err := repo.FindByID(ctx, client.ID)
	require.NoError(t, err)

	require.NoError(t, first.DrawCredit(decimal.NewFromInt(100)))
	require.NoError(t, repo.SaveWithLock(ctx, first))

	got, err := repo.FindByID(ctx, client.ID)
	require.NoError(t, err)
	assert.True(t, got.CreditBalance.IsZero())
	assert.Equal(t, 2, got.Version)

	require.NoError(t, stale.DrawCredit(decimal.NewFromInt(30)))
	err = repo.SaveWithLock(ctx, stale)
	assert.Equal(t, shared.CodeConcurrentModification, shared.ErrorCode(err))
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%jose%", containsPattern("  José "))
	assert.Equal(t, `%50\%\_off\\%`, containsPattern(`50%_OFF\`))
}

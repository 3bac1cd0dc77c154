package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/receipts/internal/domain/payment"
	"github.com/erp/receipts/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormInvoiceRepository_FindByID(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	client := seedClient(t, db, "Ana Pérez", 0)
	inv := seedInvoice(t, db, client.ID, "FAC-0001", day(2024, time.March, 1), "150.25")

	t.Run("finds existing invoice", func(t *testing.T) {
		got, err := repo.FindByID(ctx, inv.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "FAC-0001", got.Number)
		assert.Equal(t, client.ID, got.ClientID)
		assert.True(t, got.Balance.Equal(decimal.RequireFromString("150.25")))
		assert.Equal(t, payment.InvoiceStatusUnpaid, got.Status)
		assert.Equal(t, 1, got.Version)
	})

	t.Run("locks existing invoice", func(t *testing.T) {
		got, err := repo.FindByIDForUpdate(ctx, inv.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, inv.ID, got.ID)
	})

	t.Run("returns nil for unknown invoice", func(t *testing.T) {
		got, err := repo.FindByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestGormInvoiceRepository_FindByIDs(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormInvoiceRepository(db)

	client := seedClient(t, db, "Ana Pérez", 0)
	a := seedInvoice(t, db, client.ID, "FAC-0001", day(2024, time.March, 1), "10")
	b := seedInvoice(t, db, client.ID, "FAC-0002", day(2024, time.March, 2), "20")
	seedInvoice(t, db, client.ID, "FAC-0003", day(2024, time.March, 3), "30")

	got, err := repo.FindByIDs(context.Background(), []uuid.UUID{a.ID, b.ID, uuid.New()})
	require.NoError(t, err)

	numbers := make([]string, 0, len(got))
	for _, inv := range got {
		numbers = append(numbers, inv.Number)
	}
	assert.ElementsMatch(t, []string{"FAC-0001", "FAC-0002"}, numbers)
}

func TestGormInvoiceRepository_FindUnpaidByClient(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	client := seedClient(t, db, "Ana Pérez", 0)
	other := seedClient(t, db, "Bruno Díaz", 0)
	seedInvoice(t, db, client.ID, "FAC-0003", day(2024, time.March, 5), "30")
	seedInvoice(t, db, client.ID, "FAC-0002", day(2024, time.March, 1), "20")
	seedInvoice(t, db, client.ID, "FAC-0001", day(2024, time.March, 1), "10")
	seedInvoice(t, db, other.ID, "FAC-0009", day(2024, time.February, 1), "90")

	paid := seedInvoice(t, db, client.ID, "FAC-0000", day(2024, time.January, 1), "5")
	require.NoError(t, paid.ApplyPayment(decimal.NewFromInt(5)))
	require.NoError(t, repo.SaveWithLock(ctx, paid))

	got, err := repo.FindUnpaidByClient(ctx, client.ID)
	require.NoError(t, err)

	numbers := make([]string, 0, len(got))
	for _, inv := range got {
		numbers = append(numbers, inv.Number)
	}
	assert.Equal(t, []string{"FAC-0001", "FAC-0002", "FAC-0003"}, numbers)
}

func TestGormInvoiceRepository_SaveWithLock(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	client := seedClient(t, db, "Ana Pérez", 0)
	inv := seedInvoice(t, db, client.ID, "FAC-0001", day(2024, time.March, 1), "100")

	t.Run("writes balance, status and version", func(t *testing.T) {
		loaded, err := repo.FindByID(ctx, inv.ID)
		require.NoError(t, err)
		require.NoError(t, loaded.ApplyPayment(decimal.NewFromInt(40)))
		require.NoError(t, repo.SaveWithLock(ctx, loaded))

		got, err := repo.FindByID(ctx, inv.ID)
		require.NoError(t, err)
		assert.True(t, got.Balance.Equal(decimal.NewFromInt(60)))
		assert.Equal(t, payment.InvoiceStatusUnpaid, got.Status)
		assert.Equal(t, 2, got.Version)
	})

	t.Run("rejects a stale copy", func(t *testing.T) {
		first, err := repo.FindByID(ctx, inv.ID)
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, inv.ID)
		require.NoError(t, err)

		require.NoError(t, first.ApplyPayment(decimal.NewFromInt(60)))
		require.NoError(t, repo.SaveWithLock(ctx, first))

		require.NoError(t, second.ApplyPayment(decimal.NewFromInt(10)))
		err = repo.SaveWithLock(ctx, second)
		require.Error(t, err)
		assert.Equal(t, shared.CodeConcurrentModification, shared.ErrorCode(err))

		got, err := repo.FindByID(ctx, inv.ID)
		require.NoError(t, err)
		assert.True(t, got.Balance.IsZero())
		assert.Equal(t, payment.InvoiceStatusPaid, got.Status)
	})
}

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/receipts/internal/domain/payment"
	"github.com/erp/receipts/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a migrated in-memory SQLite database.
// A single connection keeps every query on the same in-memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func seedClient(t *testing.T, db *gorm.DB, name string, credit int64) *payment.Client {
	t.Helper()
	client, err := payment.NewClient(name, decimal.NewFromInt(credit))
	require.NoError(t, err)
	require.NoError(t, NewGormClientRepository(db).Save(context.Background(), client))
	return client
}

func seedInvoice(t *testing.T, db *gorm.DB, clientID uuid.UUID, number string, issued time.Time, total string) *payment.Invoice {
	t.Helper()
	inv, err := payment.NewInvoice(clientID, number, issued, decimal.RequireFromString(total))
	require.NoError(t, err)
	require.NoError(t, NewGormInvoiceRepository(db).Save(context.Background(), inv))
	return inv
}

func newCashPayment(t *testing.T, clientID uuid.UUID, date time.Time, details ...payment.PaymentDetail) *payment.Payment {
	t.Helper()
	amount := decimal.Zero
	for _, d := range details {
		amount = amount.Add(d.Amount)
	}
	p, err := payment.NewPayment(payment.NewPaymentParams{
		ClientID:    clientID,
		PaymentDate: date,
		Amount:      amount,
		Method:      payment.Cash{Ref: "caja 1"},
		Reference:   "caja 1",
		Details:     details,
	})
	require.NoError(t, err)
	return p
}

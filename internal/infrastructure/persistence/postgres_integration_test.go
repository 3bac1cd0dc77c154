//go:build integration

package persistence

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	apppayment "github.com/erp/receipts/internal/application/payment"
	"github.com/erp/receipts/internal/domain/payment"
	"github.com/erp/receipts/internal/domain/shared"
	"github.com/erp/receipts/internal/infrastructure/config"
	"github.com/erp/receipts/internal/infrastructure/migration"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newPostgresDB starts a PostgreSQL container and applies the embedded migrations.
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("receipts_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// the migrator closes its connection, so it gets one of its own
	migrationDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	migrator, err := migration.New(migrationDB, migration.Embedded(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	require.NoError(t, migrator.Close())

	database, err := openDatabase(gormpostgres.Open(dsn), &config.DatabaseConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5,
		ConnMaxIdleTime: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database.DB
}

func TestPostgres_ConcurrentPaymentsNeverOverpay(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()

	client := seedClient(t, db, "Marta Gómez", 0)
	inv := seedInvoice(t, db, client.ID, "FAC-1000", day(2025, time.January, 10), "100")
	service := apppayment.NewAllocationService(NewGormTransactionScope(db))

	const attempts = 5
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		codes    []string
	)
	cash := payment.MethodKindCash
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.RegisterCombinedPayment(ctx, apppayment.RegisterCombinedPaymentInput{
				InvoiceIDs:  []uuid.UUID{inv.ID},
				TotalAmount: decimal.NewFromInt(30),
				Method:      &cash,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				accepted++
				return
			}
			codes = append(codes, shared.ErrorCode(err))
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, accepted)
	for _, code := range codes {
		assert.Equal(t, shared.CodeExcessPayment, code)
	}

	got, err := NewGormInvoiceRepository(db).FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(10)), got.Balance.String())
	assert.Equal(t, payment.InvoiceStatusUnpaid, got.Status)
}

func TestPostgres_ConcurrentReceiptNumbersAreGapless(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()

	const clients = 6
	invoices := make([]*payment.Invoice, clients)
	for i := range invoices {
		client := seedClient(t, db, "Cliente "+string(rune('A'+i)), 10)
		invoices[i] = seedInvoice(t, db, client.ID, "FAC-20"+string(rune('0'+i)), day(2025, time.February, 1+i), "50")
	}
	service := apppayment.NewAllocationService(NewGormTransactionScope(db))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []string
	)
	transfer := payment.MethodKindTransfer
	for _, inv := range invoices {
		wg.Add(1)
		go func(inv *payment.Invoice) {
			defer wg.Done()
			result, err := service.RegisterCombinedPayment(ctx, apppayment.RegisterCombinedPaymentInput{
				InvoiceIDs:           []uuid.UUID{inv.ID},
				TotalAmount:          decimal.NewFromInt(40),
				CreditBalanceApplied: decimal.NewFromInt(10),
				Method:               &transfer,
				Reference:            "TRF-" + inv.Number,
			})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			numbers = append(numbers, result.ReceiptNumber)
			mu.Unlock()
		}(inv)
	}
	wg.Wait()

	sort.Strings(numbers)
	assert.Equal(t, []string{"00000001", "00000002", "00000003", "00000004", "00000005", "00000006"}, numbers)

	for _, inv := range invoices {
		got, err := NewGormInvoiceRepository(db).FindByID(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, payment.InvoiceStatusPaid, got.Status)
	}
}

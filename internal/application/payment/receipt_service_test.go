package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/receipts/internal/domain/payment"
	"github.com/erp/receipts/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func stampedPayment(t *testing.T, clientID, invoiceID uuid.UUID, amount int64, date time.Time, number int64) *payment.Payment {
	t.Helper()
	p, err := payment.NewPayment(payment.NewPaymentParams{
		ClientID:    clientID,
		PaymentDate: date,
		Amount:      dec(amount),
		Method:      payment.Cash{},
		Details:     []payment.PaymentDetail{{InvoiceID: invoiceID, Amount: dec(amount)}},
	})
	require.NoError(t, err)
	if number > 0 {
		n, err := payment.NewReceiptNumber(number)
		require.NoError(t, err)
		require.NoError(t, p.AssignReceiptNumber(n))
	}
	return p
}

func TestReceiptService_GetReceiptByNumber_ConsolidatesCombinedPayment(t *testing.T) {
	// allocate 120 over A(100) and B(50), then read the receipt back
	f := newAllocationFixture(t, 0, 100, 50)
	result, err := f.service.RegisterCombinedPayment(context.Background(), RegisterCombinedPaymentInput{
		InvoiceIDs:  f.ids(0, 1),
		TotalAmount: dec(120),
		Method:      methodPtr(payment.MethodKindCash),
	})
	require.NoError(t, err)

	paymentRepo := new(MockPaymentRepository)
	clientRepo := new(MockClientRepository)
	invoiceRepo := new(MockInvoiceRepository)

	number, err := payment.ParseReceiptNumber(result.ReceiptNumber)
	require.NoError(t, err)
	paymentRepo.On("FindByReceiptNumber", mock.Anything, number).Return(f.saved, nil)
	clientRepo.On("FindByID", mock.Anything, f.client.ID).Return(f.client, nil)
	invoiceRepo.On("FindByIDs", mock.Anything, f.ids(0, 1)).
		Return([]payment.Invoice{*f.invoices[0], *f.invoices[1]}, nil)

	svc := NewReceiptService(paymentRepo, clientRepo, invoiceRepo)
	receipt, err := svc.GetReceiptByNumber(context.Background(), result.ReceiptNumber)
	require.NoError(t, err)

	assert.True(t, receipt.Total.Equal(dec(120)))
	require.NotNil(t, receipt.ReceiptNumber)
	assert.Equal(t, "00000001", *receipt.ReceiptNumber)
	assert.Equal(t, "Ana Pérez", receipt.ClientName)
	require.Len(t, receipt.Invoices, 2)
	assert.Equal(t, f.invoices[0].ID, receipt.Invoices[0].ID)
	assert.Equal(t, "FAC-0001", receipt.Invoices[0].Number)
	assert.Equal(t, f.invoices[1].ID, receipt.Invoices[1].ID)
	assert.Len(t, receipt.Payments, 2)
	assert.True(t, receipt.Consolidated)
	assert.Equal(t, []payment.PaymentMethodKind{payment.MethodKindCash}, receipt.Methods)
}

func TestReceiptService_GetReceiptByNumber_Errors(t *testing.T) {
	paymentRepo := new(MockPaymentRepository)
	svc := NewReceiptService(paymentRepo, new(MockClientRepository), new(MockInvoiceRepository))

	t.Run("malformed number", func(t *testing.T) {
		_, err := svc.GetReceiptByNumber(context.Background(), "12AB")
		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
	})

	t.Run("unknown number", func(t *testing.T) {
		n, _ := payment.NewReceiptNumber(77)
		paymentRepo.On("FindByReceiptNumber", mock.Anything, n).Return([]*payment.Payment{}, nil).Once()
		_, err := svc.GetReceiptByNumber(context.Background(), "00000077")
		assert.Equal(t, shared.CodeNotFound, shared.ErrorCode(err))
	})

	t.Run("storage failure", func(t *testing.T) {
		n, _ := payment.NewReceiptNumber(78)
		paymentRepo.On("FindByReceiptNumber", mock.Anything, n).Return(nil, errors.New("boom")).Once()
		_, err := svc.GetReceiptByNumber(context.Background(), "00000078")
		require.Error(t, err)
		assert.Empty(t, shared.ErrorCode(err))
	})
}

func TestReceiptService_GetReceiptByPaymentID(t *testing.T) {
	paymentRepo := new(MockPaymentRepository)
	clientRepo := new(MockClientRepository)
	invoiceRepo := new(MockInvoiceRepository)
	svc := NewReceiptService(paymentRepo, clientRepo, invoiceRepo)

	clientID, invoiceID := uuid.New(), uuid.New()
	p := stampedPayment(t, clientID, invoiceID, 45, fixedNow, 0)

	paymentRepo.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	clientRepo.On("FindByID", mock.Anything, clientID).Return(nil, nil)
	invoiceRepo.On("FindByIDs", mock.Anything, []uuid.UUID{invoiceID}).Return([]payment.Invoice{}, nil)

	t.Run("unnumbered payment forms its own receipt", func(t *testing.T) {
		receipt, err := svc.GetReceiptByPaymentID(context.Background(), p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.ID.String(), receipt.Key)
		assert.Nil(t, receipt.ReceiptNumber)
		assert.True(t, receipt.Total.Equal(dec(45)))
		assert.Empty(t, receipt.ClientName)
		assert.False(t, receipt.Consolidated)
	})

	t.Run("missing payment", func(t *testing.T) {
		missing := uuid.New()
		paymentRepo.On("FindByID", mock.Anything, missing).Return(nil, nil)
		_, err := svc.GetReceiptByPaymentID(context.Background(), missing)
		assert.Equal(t, shared.CodeNotFound, shared.ErrorCode(err))
	})
}

func TestReceiptService_ListReceipts(t *testing.T) {
	paymentRepo := new(MockPaymentRepository)
	clientRepo := new(MockClientRepository)
	invoiceRepo := new(MockInvoiceRepository)
	svc := NewReceiptService(paymentRepo, clientRepo, invoiceRepo)

	client, err := payment.NewClient("José Núñez", decimal.Zero)
	require.NoError(t, err)

	base := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	p9a := stampedPayment(t, client.ID, uuid.New(), 10, base, 9)
	p9b := stampedPayment(t, client.ID, uuid.New(), 15, base, 9)
	p12 := stampedPayment(t, client.ID, uuid.New(), 20, base, 12)
	loose := stampedPayment(t, client.ID, uuid.New(), 5, base.AddDate(0, 0, 1), 0)
	all := []*payment.Payment{p9a, loose, p12, p9b}

	clientRepo.On("FindByID", mock.Anything, client.ID).Return(client, nil)
	invoiceRepo.On("FindByIDs", mock.Anything, mock.Anything).Return([]payment.Invoice{}, nil)

	t.Run("groups payments and orders receipts", func(t *testing.T) {
		paymentRepo.On("FindAll", mock.Anything, payment.PaymentFilter{ClientName: "nunez"}).Return(all, nil).Once()

		receipts, err := svc.ListReceipts(context.Background(), ReceiptFilter{ClientName: "  nunez "})
		require.NoError(t, err)
		require.Len(t, receipts, 3)

		assert.Equal(t, "00000012", receipts[0].Key)
		assert.Equal(t, "00000009", receipts[1].Key)
		assert.True(t, receipts[1].Total.Equal(dec(25)))
		assert.Equal(t, loose.ID.String(), receipts[2].Key)

		count := 0
		for _, r := range receipts {
			count += len(r.Payments)
			assert.Equal(t, "José Núñez", r.ClientName)
		}
		assert.Equal(t, len(all), count)
	})

	t.Run("widens the to date to the end of the day", func(t *testing.T) {
		from := time.Date(2024, 5, 1, 13, 30, 0, 0, time.UTC)
		to := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

		paymentRepo.On("FindAll", mock.Anything, mock.MatchedBy(func(f payment.PaymentFilter) bool {
			return f.From != nil && f.To != nil &&
				f.From.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) &&
				f.To.Equal(time.Date(2024, 5, 10, 23, 59, 59, 999999999, time.UTC))
		})).Return([]*payment.Payment{p12}, nil).Once()

		receipts, err := svc.ListReceipts(context.Background(), ReceiptFilter{From: &from, To: &to})
		require.NoError(t, err)
		assert.Len(t, receipts, 1)
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		from := time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
		_, err := svc.ListReceipts(context.Background(), ReceiptFilter{From: &from, To: &to})
		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
	})

	t.Run("no payments yields an empty list", func(t *testing.T) {
		paymentRepo.On("FindAll", mock.Anything, payment.PaymentFilter{ClientName: "nobody"}).Return([]*payment.Payment{}, nil).Once()
		receipts, err := svc.ListReceipts(context.Background(), ReceiptFilter{ClientName: "nobody"})
		require.NoError(t, err)
		assert.Empty(t, receipts)
	})
}

func TestToPaymentFilter_KeepsTheCallersZone(t *testing.T) {
	bogota := time.FixedZone("COT", -5*60*60)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, bogota)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, bogota)

	filter, err := toPaymentFilter(ReceiptFilter{From: &from, To: &to})
	require.NoError(t, err)

	lateOnLastDay := time.Date(2026, 3, 31, 23, 30, 0, 0, bogota)
	nextMorning := time.Date(2026, 4, 1, 0, 0, 0, 0, bogota)
	require.NotNil(t, filter.To)
	assert.False(t, lateOnLastDay.After(*filter.To))
	assert.True(t, nextMorning.After(*filter.To))
	assert.True(t, filter.From.Equal(from))
}

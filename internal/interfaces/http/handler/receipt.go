package handler

import (
	"context"
	"time"

	apppayment "github.com/erp/receipts/internal/application/payment"
	"github.com/erp/receipts/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// ReceiptQuerier reads receipts
type ReceiptQuerier interface {
	ListReceipts(ctx context.Context, filter apppayment.ReceiptFilter) ([]apppayment.ReceiptResponse, error)
	GetReceiptByPaymentID(ctx context.Context, id uuid.UUID) (*apppayment.ReceiptResponse, error)
	GetReceiptByNumber(ctx context.Context, number string) (*apppayment.ReceiptResponse, error)
}

// ListReceiptsQuery holds the receipt list filters
type ListReceiptsQuery struct {
	ClientName string `form:"client_name" binding:"max=200"`
	From       string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To         string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// ToFilter converts the query to a service filter with day bounds at midnight in loc.
// The query is already validated.
func (q ListReceiptsQuery) ToFilter(loc *time.Location) apppayment.ReceiptFilter {
	filter := apppayment.ReceiptFilter{ClientName: q.ClientName}
	if q.From != "" {
		if t, err := time.ParseInLocation(dateLayout, q.From, loc); err == nil {
			filter.From = &t
		}
	}
	if q.To != "" {
		if t, err := time.ParseInLocation(dateLayout, q.To, loc); err == nil {
			filter.To = &t
		}
	}
	return filter
}

// ReceiptHandler serves receipt queries
type ReceiptHandler struct {
	BaseHandler
	receipts ReceiptQuerier
	location *time.Location
}

// ReceiptHandlerOption configures a ReceiptHandler
type ReceiptHandlerOption func(*ReceiptHandler)

// WithBusinessLocation sets the zone the from/to calendar days are read in
func WithBusinessLocation(loc *time.Location) ReceiptHandlerOption {
	return func(h *ReceiptHandler) {
		if loc != nil {
			h.location = loc
		}
	}
}

// NewReceiptHandler creates a new ReceiptHandler reading dates in the host zone by default
func NewReceiptHandler(receipts ReceiptQuerier, opts ...ReceiptHandlerOption) *ReceiptHandler {
	h := &ReceiptHandler{receipts: receipts, location: time.Local}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ListReceipts lists receipts newest first
//
//	GET /receipts?client_name=&from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *ReceiptHandler) ListReceipts(c *gin.Context) {
	var query ListReceiptsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	receipts, err := h.receipts.ListReceipts(c.Request.Context(), query.ToFilter(h.location))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipts)
}

// GetByNumber returns the consolidated receipt for a receipt number
//
//	GET /receipts/by-number/:number
func (h *ReceiptHandler) GetByNumber(c *gin.Context) {
	receipt, err := h.receipts.GetReceiptByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipt)
}

// GetByPaymentID returns the receipt view of one payment
//
//	GET /receipts/by-payment/:id
func (h *ReceiptHandler) GetByPaymentID(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	receipt, err := h.receipts.GetReceiptByPaymentID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipt)
}

package handler

import (
	"context"

	apppayment "github.com/erp/receipts/internal/application/payment"
	"github.com/erp/receipts/internal/domain/payment"
	"github.com/erp/receipts/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// CombinedPaymentRegistrar registers combined payments
type CombinedPaymentRegistrar interface {
	RegisterCombinedPayment(ctx context.Context, input apppayment.RegisterCombinedPaymentInput) (*apppayment.RegisterCombinedPaymentResult, error)
}

// PaymentHandler handles payment registration
type PaymentHandler struct {
	BaseHandler
	allocation CombinedPaymentRegistrar
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(allocation CombinedPaymentRegistrar) *PaymentHandler {
	return &PaymentHandler{allocation: allocation}
}

// RegisterCombinedPayment godoc
//
//	POST /payments/combined
//
// Allocates one tender, optionally topped up from the client's credit balance,
// across the listed invoices and issues a single receipt number.
func (h *PaymentHandler) RegisterCombinedPayment(c *gin.Context) {
	var req RegisterCombinedPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	input, err := req.ToInput()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.allocation.RegisterCombinedPayment(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// ListPaymentMethods returns the methods a cashier may pick
//
//	GET /payment-methods
func (h *PaymentHandler) ListPaymentMethods(c *gin.Context) {
	kinds := payment.SelectableMethods()
	out := make([]PaymentMethodResponse, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, PaymentMethodResponse{Code: k, Label: methodLabels[k]})
	}
	h.Success(c, out)
}

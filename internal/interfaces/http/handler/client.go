package handler

import (
	"context"

	apppayment "github.com/erp/receipts/internal/application/payment"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentSelector prepares the data a payment form is built from
type PaymentSelector interface {
	PrepareSelection(ctx context.Context, clientID uuid.UUID, preselected *uuid.UUID) (*apppayment.PaymentSelectionResponse, error)
	SearchClients(ctx context.Context, name string) ([]apppayment.ClientSummary, error)
}

// ClientHandler serves client search and payment selection
type ClientHandler struct {
	BaseHandler
	selection PaymentSelector
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(selection PaymentSelector) *ClientHandler {
	return &ClientHandler{selection: selection}
}

// Search finds clients by name, ignoring case and accents
//
//	GET /clients/search?name=
func (h *ClientHandler) Search(c *gin.Context) {
	clients, err := h.selection.SearchClients(c.Request.Context(), c.Query("name"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, clients)
}

// PaymentSelection lists a client's unpaid invoices and payment bounds
//
//	GET /clients/:id/payment-selection?invoice_id=
func (h *ClientHandler) PaymentSelection(c *gin.Context) {
	clientID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var preselected *uuid.UUID
	if raw := c.Query("invoice_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid invoice_id: must be a UUID")
			return
		}
		preselected = &id
	}

	selection, err := h.selection.PrepareSelection(c.Request.Context(), clientID, preselected)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, selection)
}

package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/receipts/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentForm struct {
	InvoiceIDs []string `json:"invoice_ids" binding:"required,min=1,dive,uuid"`
	Amount     string   `json:"total_amount" binding:"required,decimal"`
	Method     string   `json:"method" binding:"omitempty,oneof=CASH TRANSFER CARD"`
}

func newValidate() *validator.Validate {
	v := validator.New()
	RegisterValidations(v)
	return v
}

func TestValidateDecimal(t *testing.T) {
	v := newValidate()
	type form struct {
		Amount string `json:"amount" validate:"decimal"`
	}

	tests := []struct {
		value string
		valid bool
	}{
		{"150.00", true},
		{"0", true},
		{"", true},
		{" 12.5 ", true},
		{"-1", false},
		{"abc", false},
		{"1,5", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := v.Struct(form{Amount: tt.value})
			assert.Equal(t, tt.valid, err == nil, "err=%v", err)
		})
	}
}

func TestFormatValidationErrors(t *testing.T) {
	v := newValidate()
	type form struct {
		InvoiceIDs []string `json:"invoice_ids" validate:"required,min=1"`
		Amount     string   `json:"total_amount" validate:"required,decimal"`
		Method     string   `json:"method" validate:"omitempty,oneof=CASH CARD"`
	}

	err := v.Struct(form{InvoiceIDs: []string{}, Amount: "-3", Method: "CHEQUE"})
	require.Error(t, err)

	resp := FormatValidationErrors(err, "req-1")
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)

	byField := map[string]string{}
	for _, d := range resp.Error.Details {
		byField[d.Field] = d.Message
	}
	assert.Equal(t, "Must contain at least 1 items", byField["invoice_ids"])
	assert.Equal(t, "Must be a non-negative decimal number", byField["total_amount"])
	assert.Equal(t, "Must be one of: CASH CARD", byField["method"])
}

func TestFormatValidationErrors_NotValidationError(t *testing.T) {
	resp := FormatValidationErrors(errors.New("unexpected EOF"), "")

	require.NotNil(t, resp.Error)
	assert.Equal(t, "Invalid request body", resp.Error.Message)
	assert.Empty(t, resp.Error.Details)
}

func TestHandleValidationError(t *testing.T) {
	SetupValidator()

	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var form paymentForm
		if err := c.ShouldBindJSON(&form); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	body, _ := json.Marshal(map[string]any{"invoice_ids": []string{"not-a-uuid"}, "total_amount": "10"})
	req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "Invalid UUID format", resp.Error.Details[0].Message)
	assert.Equal(t, w.Header().Get(RequestIDHeader), resp.Error.RequestID)
}

package payment

import (
	"sort"
	"testing"

	"github.com/erp/receipts/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReceiptNumber(t *testing.T) {
	n, err := NewReceiptNumber(42)
	require.NoError(t, err)
	assert.Equal(t, "00000042", n.String())
	assert.Equal(t, int64(42), n.Seq())
	assert.False(t, n.IsZero())

	last, err := NewReceiptNumber(MaxReceiptSequence)
	require.NoError(t, err)
	assert.Equal(t, "99999999", last.String())

	for _, seq := range []int64{0, -1, MaxReceiptSequence + 1} {
		_, err := NewReceiptNumber(seq)
		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err), "seq %d", seq)
	}
	assert.True(t, ReceiptNumber{}.IsZero())
}

func TestParseReceiptNumber(t *testing.T) {
	tests := []struct {
		input   string
		seq     int64
		wantErr bool
	}{
		{"00000001", 1, false},
		{"12345678", 12345678, false},
		{"00000000", 0, true},
		{"1", 0, true},
		{"000000001", 0, true},
		{"0000000a", 0, true},
		{"-0000001", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n, err := ParseReceiptNumber(tt.input)
			if tt.wantErr {
				assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.seq, n.Seq())
			assert.Equal(t, tt.input, n.String())
		})
	}
}

func TestReceiptNumber_Next(t *testing.T) {
	n, err := NewReceiptNumber(9)
	require.NoError(t, err)
	next, err := n.Next()
	require.NoError(t, err)
	assert.Equal(t, "00000010", next.String())

	last, err := NewReceiptNumber(MaxReceiptSequence)
	require.NoError(t, err)
	_, err = last.Next()
	assert.Error(t, err)
}

func TestReceiptNumber_StringOrderMatchesNumericOrder(t *testing.T) {
	seqs := []int64{10, 2, 100, 9, 1000000}
	rendered := make([]string, len(seqs))
	for i, seq := range seqs {
		n, err := NewReceiptNumber(seq)
		require.NoError(t, err)
		rendered[i] = n.String()
	}
	sort.Strings(rendered)
	assert.Equal(t, []string{"00000002", "00000009", "00000010", "00000100", "01000000"}, rendered)
}

package payment

import (
	"fmt"

	"github.com/erp/receipts/internal/domain/shared"
)

const (
	// ReceiptNumberWidth is the fixed rendered width of a receipt number.
	// Lexicographic order of rendered numbers equals numeric order because of it.
	ReceiptNumberWidth = 8

	// MaxReceiptSequence is the largest sequence that fits the width
	MaxReceiptSequence int64 = 99_999_999
)

// ReceiptNumber identifies the receipt shared by the sibling payments of one
// combined operation. The zero value is not a valid number.
type ReceiptNumber struct {
	seq int64
}

// NewReceiptNumber wraps a counter sequence
func NewReceiptNumber(seq int64) (ReceiptNumber, error) {
	if seq < 1 || seq > MaxReceiptSequence {
		return ReceiptNumber{}, shared.NewValidationError("Receipt sequence %d out of range 1..%d", seq, MaxReceiptSequence)
	}
	return ReceiptNumber{seq: seq}, nil
}

// ParseReceiptNumber parses the rendered form, exactly eight decimal digits
func ParseReceiptNumber(s string) (ReceiptNumber, error) {
	if len(s) != ReceiptNumberWidth {
		return ReceiptNumber{}, shared.NewValidationError("Receipt number must have %d digits: %q", ReceiptNumberWidth, s)
	}
	var seq int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return ReceiptNumber{}, shared.NewValidationError("Receipt number must be numeric: %q", s)
		}
		seq = seq*10 + int64(r-'0')
	}
	return NewReceiptNumber(seq)
}

// Seq returns the numeric sequence
func (n ReceiptNumber) Seq() int64 {
	return n.seq
}

// IsZero reports whether n is the unset value
func (n ReceiptNumber) IsZero() bool {
	return n.seq == 0
}

// Next returns the number following n
func (n ReceiptNumber) Next() (ReceiptNumber, error) {
	return NewReceiptNumber(n.seq + 1)
}

// String renders the number zero-padded to ReceiptNumberWidth
func (n ReceiptNumber) String() string {
	return fmt.Sprintf("%0*d", ReceiptNumberWidth, n.seq)
}

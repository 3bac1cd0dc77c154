package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry_Register(t *testing.T) {
	registry := NewHandlerRegistry()
	issued := newTestHandler()
	audit := newTestHandler()

	registry.Register(issued, "ReceiptIssued")
	registry.Register(issued, "ReceiptIssued")
	registry.Register(audit)

	handlers := registry.GetHandlers("ReceiptIssued")
	assert.Len(t, handlers, 2)
	assert.Same(t, issued, handlers[0])
	assert.Same(t, audit, handlers[1])

	assert.Len(t, registry.GetHandlers("Other"), 1)
	assert.Equal(t, 2, registry.Len())
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	registry := NewHandlerRegistry()
	a := newTestHandler()
	b := newTestHandler()

	registry.Register(a, "X", "Y")
	registry.Register(b, "X")
	registry.Register(a)

	registry.Unregister(a)

	assert.Len(t, registry.GetHandlers("X"), 1)
	assert.Empty(t, registry.GetHandlers("Y"))
	assert.Equal(t, 1, registry.Len())
	_, present := registry.handlers["Y"]
	assert.False(t, present)
}

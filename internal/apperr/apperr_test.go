package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	sentinel := New(Conflict, "already_paid", "order already paid")

	assert.Equal(t, Conflict, KindOf(sentinel))
	assert.Equal(t, Conflict, KindOf(fmt.Errorf("checkout: %w", sentinel)))
	assert.Equal(t, ServerFault, KindOf(errors.New("connection reset")))
	assert.Equal(t, NotFound, KindOf(Newf(NotFound, "product %d not found", 7)))
}

func TestSentinelIdentity(t *testing.T) {
	a := New(InvalidInput, "empty_cart", "cart is empty")
	b := New(InvalidInput, "empty_cart", "cart is empty")

	assert.True(t, errors.Is(fmt.Errorf("wrap: %w", a), a))
	assert.False(t, errors.Is(a, b))
}

func TestAs(t *testing.T) {
	e, ok := As(fmt.Errorf("x: %w", New(Forbidden, "not_owner", "not yours")))
	assert.True(t, ok)
	assert.Equal(t, "not_owner", e.Code)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

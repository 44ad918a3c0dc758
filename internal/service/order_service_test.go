package service

import (
	"testing"

	"marketplace/internal/store"

	"github.com/stretchr/testify/assert"
)

func TestToLinesDefaultsQuantityToOne(t *testing.T) {
	items := []OrderItemRequest{
		{ProductID: 1},
		{ProductID: 2, Quantity: 3},
		{ProductID: 3, Quantity: -1},
	}

	lines := toLines(items)

	assert.Equal(t, []store.OrderLine{
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 3},
		{ProductID: 3, Quantity: 1},
	}, lines)
}

func TestToEventLinesMatchesRequest(t *testing.T) {
	items := []OrderItemRequest{
		{ProductID: 7, Quantity: 2},
		{ProductID: 8},
	}

	lines := toEventLines(items)

	assert.Len(t, lines, 2)
	assert.Equal(t, int64(7), lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 1, lines[1].Quantity)
}

package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCheckAmount(t *testing.T) {
	assert.NoError(t, CheckAmount("price", decimal.RequireFromString("1.5")))
	assert.NoError(t, CheckAmount("price", decimal.RequireFromString("1.000000000000000001")))
	assert.NoError(t, CheckAmount("price", decimal.RequireFromString("2.500000000000000000000")))

	err := CheckAmount("price", decimal.RequireFromString("1.0000000000000000001"))
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Equal(t, "price has more than 18 decimal places", err.Error())

	err = CheckAmount("price", decimal.Zero)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Equal(t, "price must be a positive amount", err.Error())
}

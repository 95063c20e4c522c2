package kernel_test

import (
	"testing"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money from non-negative units", func(t *testing.T) {
		m, err := kernel.NewMoney(1250)

		require.NoError(t, err)
		assert.Equal(t, int64(1250), m.Units())
	})

	t.Run("zero is valid", func(t *testing.T) {
		m, err := kernel.NewMoney(0)

		require.NoError(t, err)
		assert.True(t, m.IsZero())
	})

	t.Run("negative units are rejected", func(t *testing.T) {
		_, err := kernel.NewMoney(-1)

		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestMoney_Add(t *testing.T) {
	subtotal, _ := kernel.NewMoney(1000)
	fee, _ := kernel.NewMoney(250)

	assert.Equal(t, int64(1250), subtotal.Add(fee).Units())
}

func TestMoney_Sub(t *testing.T) {
	t.Run("subtracts smaller amount", func(t *testing.T) {
		total, _ := kernel.NewMoney(1000)
		fee, _ := kernel.NewMoney(100)

		rest, err := total.Sub(fee)

		require.NoError(t, err)
		assert.Equal(t, int64(900), rest.Units())
	})

	t.Run("refuses negative result", func(t *testing.T) {
		small, _ := kernel.NewMoney(100)
		big, _ := kernel.NewMoney(1000)

		_, err := small.Sub(big)

		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestMoney_IsEqual(t *testing.T) {
	a, _ := kernel.NewMoney(500)
	b, _ := kernel.NewMoney(500)
	c, _ := kernel.NewMoney(501)

	assert.True(t, a.IsEqual(b))
	assert.False(t, a.IsEqual(c))
}

func TestMoney_String(t *testing.T) {
	m, _ := kernel.NewMoney(1250)

	assert.Equal(t, "1250", m.String())
}

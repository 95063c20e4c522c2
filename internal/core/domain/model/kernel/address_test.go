package kernel_test

import (
	"testing"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAddress(t *testing.T) {
	t.Run("creates address with mandatory fields", func(t *testing.T) {
		addr, err := kernel.NewAddress("12 Marina Road", "Lagos", "Lagos", "101233")

		require.NoError(t, err)
		assert.Equal(t, "12 Marina Road", addr.Street())
		assert.Equal(t, "Lagos", addr.City())
		assert.Equal(t, "Lagos", addr.State())
		assert.Equal(t, "101233", addr.Postcode())
	})

	t.Run("state and postcode are optional", func(t *testing.T) {
		addr, err := kernel.NewAddress("5 High Street", "Abuja", "", "")

		require.NoError(t, err)
		require.NoError(t, addr.Validate())
	})

	t.Run("street is required", func(t *testing.T) {
		_, err := kernel.NewAddress("", "Lagos", "", "")

		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("city is required", func(t *testing.T) {
		_, err := kernel.NewAddress("12 Marina Road", "", "", "")

		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})
}

func TestAddress_Validate_ZeroValue(t *testing.T) {
	var addr kernel.Address

	require.Error(t, addr.Validate())
}

func TestAddress_IsEqual(t *testing.T) {
	a, _ := kernel.NewAddress("12 Marina Road", "Lagos", "Lagos", "101233")
	b, _ := kernel.NewAddress("12 Marina Road", "Lagos", "Lagos", "101233")
	c, _ := kernel.NewAddress("13 Marina Road", "Lagos", "Lagos", "101233")

	assert.True(t, a.IsEqual(b))
	assert.False(t, a.IsEqual(c))
}

package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAddressDTO() AddressDTO {
	return AddressDTO{
		Name:       " Jamie Doe ",
		Line1:      "1 Market St",
		City:       "San Francisco",
		Region:     "CA",
		PostalCode: "94105",
		Country:    "us",
	}
}

func TestNewAddress(t *testing.T) {
	t.Run("normalizes fields", func(t *testing.T) {
		a, err := NewAddress(validAddressDTO())
		require.NoError(t, err)
		assert.Equal(t, "Jamie Doe", a.Name())
		assert.Equal(t, "US", a.Country())
		assert.Equal(t, "Jamie Doe, 1 Market St, San Francisco, CA 94105, US", a.String())
	})

	t.Run("requires line1", func(t *testing.T) {
		dto := validAddressDTO()
		dto.Line1 = "  "
		_, err := NewAddress(dto)
		assert.ErrorContains(t, err, "line1 cannot be empty")
	})

	t.Run("rejects unknown country", func(t *testing.T) {
		dto := validAddressDTO()
		dto.Country = "USA"
		_, err := NewAddress(dto)
		assert.Error(t, err)

		dto.Country = "ZZ"
		_, err = NewAddress(dto)
		assert.Error(t, err)
	})
}

func TestAddress_JSONAndScan(t *testing.T) {
	a, err := NewAddress(validAddressDTO())
	require.NoError(t, err)

	v, err := a.Value()
	require.NoError(t, err)

	var scanned Address
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, a, scanned)

	var empty Address
	require.NoError(t, empty.Scan(nil))
	assert.True(t, empty.IsEmpty())

	var bad Address
	assert.Error(t, json.Unmarshal([]byte(`{"name":"x"}`), &bad))
}

package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	valid := Client{Name: "Ana Souza", TaxID: "123.456.789-00"}
	require.NoError(t, valid.Validate())

	t.Run("short name", func(t *testing.T) {
		c := Client{Name: "A", TaxID: "12345678900"}
		err := c.Validate()

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "name", verr.Field)
	})

	t.Run("whitespace name", func(t *testing.T) {
		c := Client{Name: "   ", TaxID: "12345678900"}
		assert.Error(t, c.Validate())
	})

	t.Run("short tax id", func(t *testing.T) {
		c := Client{Name: "Ana Souza", TaxID: "123"}
		err := c.Validate()

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "taxId", verr.Field)
	})

	t.Run("cnpj accepted", func(t *testing.T) {
		c := Client{Name: "Mercado Bom Preço", TaxID: "12.345.678/0001-90"}
		assert.NoError(t, c.Validate())
	})
}

func TestTaxKey(t *testing.T) {
	c := Client{TaxID: "123.456.789-00"}
	assert.Equal(t, "12345678900", c.TaxKey())
}

func TestOnlyDigits(t *testing.T) {
	assert.Equal(t, "12345678900", OnlyDigits("123.456.789-00"))
	assert.Equal(t, "", OnlyDigits("abc"))
}

func TestVendorPersonType(t *testing.T) {
	assert.Equal(t, "J", VendorPersonType("jurídica"))
	assert.Equal(t, "J", VendorPersonType("PJ"))
	assert.Equal(t, "J", VendorPersonType("j"))
	assert.Equal(t, "F", VendorPersonType("física"))
	assert.Equal(t, "F", VendorPersonType(""))
	assert.Equal(t, "F", VendorPersonType("pessoa"))
}

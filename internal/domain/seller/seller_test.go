package seller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfile_DirectShape(t *testing.T) {
	raw := []byte(`{"id":"42","usuario":"Maria","tipo":"interno","cpf":"123.456.789-00"}`)

	s := ParseProfile(raw)

	require.NotNil(t, s)
	assert.Equal(t, "42", s.ID)
	assert.Equal(t, "Maria", s.Name)
	assert.Equal(t, "interno", s.Type)
	assert.Equal(t, "12345678900", s.TaxKey)
}

func TestParseProfile_DirectShapeNumericID(t *testing.T) {
	raw := []byte(`{"id":42,"usuario":"Maria"}`)

	s := ParseProfile(raw)

	require.NotNil(t, s)
	assert.Equal(t, "42", s.ID)
}

func TestParseProfile_KeyedByCPFShape(t *testing.T) {
	raw := []byte(`{"123.456.789-00":{"id":"42","usuario":"Maria","tipo":"externo"}}`)

	s := ParseProfile(raw)

	require.NotNil(t, s)
	assert.Equal(t, "42", s.ID)
	assert.Equal(t, "Maria", s.Name)
	assert.Equal(t, "externo", s.Type)
	assert.Equal(t, "12345678900", s.TaxKey)
}

func TestParseProfile_Unparseable(t *testing.T) {
	assert.Nil(t, ParseProfile([]byte(`not json`)))
	assert.Nil(t, ParseProfile([]byte(`{}`)))
	assert.Nil(t, ParseProfile([]byte(`{"foo":"bar"}`)))
	assert.Nil(t, ParseProfile(nil))
}

func TestParseProfile_NullFieldsTolerated(t *testing.T) {
	raw := []byte(`{"id":null,"usuario":"Maria","cpf":null}`)

	s := ParseProfile(raw)

	require.NotNil(t, s)
	assert.Equal(t, "Maria", s.Name)
	assert.Empty(t, s.ID)
}

func TestKey_Precedence(t *testing.T) {
	assert.Equal(t, "42", (&Seller{ID: "42", TaxKey: "123", Name: "Maria"}).Key())
	assert.Equal(t, "123", (&Seller{TaxKey: "123", Name: "Maria"}).Key())
	assert.Equal(t, "Maria", (&Seller{Name: "Maria"}).Key())
	assert.Equal(t, FallbackKey, (&Seller{}).Key())

	var nilSeller *Seller
	assert.Equal(t, FallbackKey, nilSeller.Key())
}

func TestSanitizeKey(t *testing.T) {
	assert.Equal(t, "a_b_c_d_e_f_g", SanitizeKey("a.b$c#d[e]f/g"))
	assert.Equal(t, "plain", SanitizeKey("plain"))
	assert.Equal(t, FallbackKey, SanitizeKey(""))
	assert.Equal(t, FallbackKey, SanitizeKey("   "))
}

func TestSession(t *testing.T) {
	degraded := Session{}
	assert.Equal(t, FallbackKey, degraded.Key())
	assert.Equal(t, FallbackKey, degraded.SellerID())

	sess := Session{Seller: &Seller{ID: "42"}}
	assert.Equal(t, "42", sess.Key())
	assert.Equal(t, "42", sess.SellerID())
}

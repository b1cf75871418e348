package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shelf-proposal-api/internal/domain/auth"
	"github.com/xenking/shelf-proposal-api/internal/domain/seller"
)

type memAPIKeyRepo struct {
	byHash map[string]*auth.APIKeyInfo
}

func (m *memAPIKeyRepo) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	if info, ok := m.byHash[hash]; ok {
		return info, nil
	}
	return nil, assert.AnError
}

func newSecurityEnv(t *testing.T, profile []byte) (http.Handler, *seller.Session) {
	t.Helper()

	hash := NewSecurityHandler(nil, []byte("pepper")).HashKey("secret-key")
	repo := &memAPIKeyRepo{byHash: map[string]*auth.APIKeyInfo{
		hash: {ID: "default", KeyHash: hash, SellerID: "7", SellerProfile: profile},
	}}
	sec := NewSecurityHandler(repo, []byte("pepper"))

	var got seller.Session
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return sec.Middleware(inner), &got
}

func TestSecurity_MissingKey(t *testing.T) {
	h, _ := newSecurityEnv(t, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cart", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSecurity_WrongKey(t *testing.T) {
	h, _ := newSecurityEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("api_key", "not-the-key")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSecurity_ValidKeyResolvesSession(t *testing.T) {
	profile := []byte(`{"id":"7","usuario":"Maria","cpf":"123.456.789-00"}`)
	h, got := newSecurityEnv(t, profile)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("api_key", "secret-key")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got.Seller)
	assert.Equal(t, "7", got.Seller.ID)
	assert.Equal(t, "Maria", got.Seller.Name)
}

func TestSecurity_UnparseableProfileDegradesSession(t *testing.T) {
	h, got := newSecurityEnv(t, []byte(`{}`))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("api_key", "secret-key")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, "degraded sessions are not refused")
	assert.Nil(t, got.Seller)
	assert.Equal(t, seller.FallbackKey, got.Key())
}

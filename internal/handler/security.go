package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/xenking/shelf-proposal-api/internal/domain/auth"
	"github.com/xenking/shelf-proposal-api/internal/domain/seller"
)

// sessionKey is the context key for the resolved seller session.
type sessionKey struct{}

// SessionFromContext extracts the seller session stored by the auth
// middleware. The zero session (degraded, FallbackKey) is returned when
// none is present, which only happens in tests that skip auth.
func SessionFromContext(ctx context.Context) seller.Session {
	if s, ok := ctx.Value(sessionKey{}).(seller.Session); ok {
		return s
	}
	return seller.Session{}
}

// ContextWithSession returns ctx carrying the given session. Exposed for
// handler tests.
func ContextWithSession(ctx context.Context, s seller.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SecurityHandler authenticates API requests via HMAC-SHA256 hashed API
// keys and resolves the owning seller into a session.
type SecurityHandler struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewSecurityHandler creates a SecurityHandler with the given API key
// repository and HMAC pepper.
func NewSecurityHandler(apikeys auth.Repository, pepper []byte) *SecurityHandler {
	return &SecurityHandler{
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// HashKey computes the hex HMAC-SHA256 digest stored for an API key.
func (s *SecurityHandler) HashKey(key string) string {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// Middleware authenticates the api_key header, parses the seller profile
// once, and injects the resulting session into the request context. An
// unparseable profile yields a degraded session under the fallback
// partition key; the request is not refused.
func (s *SecurityHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("api_key")
		if key == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		mac := hmac.New(sha256.New, s.pepper)
		mac.Write([]byte(key))
		hash := mac.Sum(nil)

		info, err := s.apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		storedBytes, err := hex.DecodeString(info.KeyHash)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if subtle.ConstantTimeCompare(hash, storedBytes) != 1 {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		sess := seller.Session{Seller: seller.ParseProfile(info.SellerProfile)}
		next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), sess)))
	})
}

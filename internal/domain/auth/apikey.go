package auth

import "context"

// APIKeyInfo holds the identity data for a validated API key, including
// the owning seller's raw profile blob (parsed into a session later).
type APIKeyInfo struct {
	ID            string
	KeyHash       string
	Name          string
	SellerID      string
	SellerProfile []byte
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}

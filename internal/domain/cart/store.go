package cart

import "context"

// Store persists the per-seller cart blob. Implementations are
// last-writer-wins: two sessions mutating the same seller's cart do not
// merge, the later write replaces the earlier one.
type Store interface {
	// Get loads the cart for the given seller key. A missing cart is not
	// an error: implementations return a fresh empty cart.
	Get(ctx context.Context, sellerKey string) (*Cart, error)
	Save(ctx context.Context, sellerKey string, c *Cart) error
	Clear(ctx context.Context, sellerKey string) error
}

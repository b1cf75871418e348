package seller

// Session is the explicit per-request identity resolved at authentication
// time. It is passed into the proposal and order services rather than read
// from any ambient state.
type Session struct {
	// Seller is nil for degraded sessions whose profile blob could not be
	// parsed; such sessions still work, partitioned under FallbackKey.
	Seller *Seller
}

// Key returns the partition key for this session's records.
func (s Session) Key() string {
	return s.Seller.Key()
}

// SellerID returns the seller id used in outbound order payloads, falling
// back to FallbackKey for degraded sessions.
func (s Session) SellerID() string {
	if s.Seller != nil && s.Seller.ID != "" {
		return s.Seller.ID
	}
	return FallbackKey
}

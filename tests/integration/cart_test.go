//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestCart_Flow(t *testing.T) {
	clearCart(t)

	resp := doGetWithAuth(t, "/api/cart", testAPIKey)
	empty := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if len(empty.Items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(empty.Items))
	}

	resp = doPostWithAuth(t, "/api/cart/items", map[string]any{
		"sku":      "7891000100103",
		"quantity": 2,
	}, testAPIKey)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add item: expected 200, got %d", resp.StatusCode)
	}
	cart := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()

	if len(cart.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 2 {
		t.Errorf("quantity: got %d", cart.Items[0].Quantity)
	}
	if cart.Items[0].Name != "Leite Condensado Moça 395g" {
		t.Errorf("item not hydrated from catalog: name %q", cart.Items[0].Name)
	}
	if cart.Totals.GrossSubtotal != "14.98" {
		t.Errorf("gross subtotal: got %q", cart.Totals.GrossSubtotal)
	}
	if cart.Totals.NetTotal != "14.98" {
		t.Errorf("net total: got %q", cart.Totals.NetTotal)
	}

	// Adding the same SKU again merges quantities.
	resp = doPostWithAuth(t, "/api/cart/items", map[string]any{
		"sku":      "7891000100103",
		"quantity": 1,
	}, testAPIKey)
	cart = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 3 {
		t.Fatalf("expected merged quantity 3, got %+v", cart.Items)
	}

	resp = doRequest(t, http.MethodPatch, "/api/cart/items/7891000100103", map[string]any{
		"discountPercent": "1.5",
	}, testAPIKey)
	cart = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if cart.Items[0].DiscountPercent != "1.5" {
		t.Errorf("discount percent: got %q", cart.Items[0].DiscountPercent)
	}
	if cart.Totals.NetTotal == cart.Totals.GrossSubtotal {
		t.Error("expected discount to lower the net total")
	}

	// Percent above the ceiling is clamped, not rejected.
	resp = doRequest(t, http.MethodPatch, "/api/cart/items/7891000100103", map[string]any{
		"discountPercent": "50",
	}, testAPIKey)
	cart = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if cart.Items[0].DiscountPercent != "1.5" {
		t.Errorf("expected clamp to 1.5, got %q", cart.Items[0].DiscountPercent)
	}

	resp = doRequest(t, http.MethodDelete, "/api/cart/items/7891000100103", nil, testAPIKey)
	cart = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if len(cart.Items) != 0 {
		t.Fatalf("expected empty cart after delete, got %d items", len(cart.Items))
	}
}

func TestCart_AddUnknownSKU(t *testing.T) {
	resp := doPostWithAuth(t, "/api/cart/items", map[string]any{
		"sku": "0000000000000",
	}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCart_Payments(t *testing.T) {
	clearCart(t)

	resp := doPostWithAuth(t, "/api/cart/items", map[string]any{
		"sku":      "7891910000197",
		"quantity": 2,
	}, testAPIKey)
	resp.Body.Close()

	resp = doPostWithAuth(t, "/api/cart/payments", map[string]any{
		"kind":   "dinheiro",
		"amount": "9.98",
	}, testAPIKey)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add payment: expected 200, got %d", resp.StatusCode)
	}
	cart := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if len(cart.Payments) != 1 || cart.Payments[0].ID != 1 {
		t.Fatalf("expected payment ID 1, got %+v", cart.Payments)
	}

	resp = doPostWithAuth(t, "/api/cart/payments", map[string]any{
		"kind":   "especie",
		"amount": "1.00",
	}, testAPIKey)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown kind: expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doGetWithAuth(t, "/api/cart/summary", testAPIKey)
	summary := decodeJSON[summaryResponse](t, resp)
	resp.Body.Close()
	if !summary.Balanced {
		t.Errorf("expected balanced summary: %+v", summary)
	}
	if summary.Status != "approved" {
		t.Errorf("status: got %q", summary.Status)
	}

	clearCart(t)
}

func TestClient_UpsertAndGet(t *testing.T) {
	taxID := "98765432100"

	resp := doGetWithAuth(t, "/api/clients/"+taxID, testAPIKey)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 before upsert, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doRequest(t, http.MethodPut, "/api/clients/"+taxID, clientRequest{
		Name:  "Mercado Central Ltda",
		TaxID: taxID,
	}, testAPIKey)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upsert: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doGetWithAuth(t, "/api/clients/"+taxID, testAPIKey)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after upsert, got %d", resp.StatusCode)
	}
	got := decodeJSON[clientRequest](t, resp)
	if got.Name != "Mercado Central Ltda" {
		t.Errorf("name: got %q", got.Name)
	}
}

func TestAddress_InvalidCEP(t *testing.T) {
	resp := doGetWithAuth(t, "/api/address/123", testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

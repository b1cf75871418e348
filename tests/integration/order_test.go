//go:build integration

package integration

import (
	"net/http"
	"strings"
	"testing"
)

func validClient() clientRequest {
	return clientRequest{
		Name:  "Padaria do Bairro Ltda",
		TaxID: "12345678901",
	}
}

func TestProposal_SaveAndManage(t *testing.T) {
	clearCart(t)

	resp := doPostWithAuth(t, "/api/cart/items", map[string]any{
		"sku":      "7891991010856",
		"quantity": 1,
	}, testAPIKey)
	resp.Body.Close()

	resp = doPostWithAuth(t, "/api/proposals", map[string]any{
		"client": validClient(),
	}, testAPIKey)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("save proposal: expected 201, got %d", resp.StatusCode)
	}
	prop := decodeJSON[proposalResponse](t, resp)
	resp.Body.Close()

	if prop.ID == "" {
		t.Fatal("expected proposal ID")
	}
	if prop.Status != "rascunho" {
		t.Errorf("status: got %q", prop.Status)
	}
	if len(prop.Items) != 1 {
		t.Errorf("expected 1 snapshot item, got %d", len(prop.Items))
	}

	// Saving clears the cart.
	resp = doGetWithAuth(t, "/api/cart", testAPIKey)
	cart := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if len(cart.Items) != 0 {
		t.Errorf("expected cart cleared after save, got %d items", len(cart.Items))
	}

	resp = doGetWithAuth(t, "/api/proposals", testAPIKey)
	list := decodeJSON[[]proposalResponse](t, resp)
	resp.Body.Close()
	found := false
	for _, p := range list {
		if p.ID == prop.ID {
			found = true
		}
	}
	if !found {
		t.Errorf("proposal %s not in list", prop.ID)
	}

	resp = doRequest(t, http.MethodPatch, "/api/proposals/"+prop.ID, map[string]string{
		"status": "enviado",
	}, testAPIKey)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status: expected 200, got %d", resp.StatusCode)
	}
	updated := decodeJSON[proposalResponse](t, resp)
	resp.Body.Close()
	if updated.Status != "enviado" {
		t.Errorf("status after patch: got %q", updated.Status)
	}

	resp = doRequest(t, http.MethodPatch, "/api/proposals/"+prop.ID, map[string]string{
		"status": "pendente",
	}, testAPIKey)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown status: expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doRequest(t, http.MethodDelete, "/api/proposals/"+prop.ID, nil, testAPIKey)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestProposal_EmptyCart(t *testing.T) {
	clearCart(t)

	resp := doPostWithAuth(t, "/api/proposals", map[string]any{
		"client": validClient(),
	}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSubmitOrder_HappyPath(t *testing.T) {
	clearCart(t)

	resp := doPostWithAuth(t, "/api/cart/items", map[string]any{
		"sku":      "7891149104408",
		"quantity": 6,
	}, testAPIKey)
	resp.Body.Close()

	// No declared payments: the full net total defaults to cash.
	resp = doPostWithAuth(t, "/api/orders", map[string]any{
		"client": validClient(),
	}, testAPIKey)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit order: expected 201, got %d", resp.StatusCode)
	}
	order := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	if !strings.HasPrefix(order.Number, "demo-") {
		t.Errorf("order number: got %q", order.Number)
	}
	if order.ERPNumber == "" {
		t.Error("expected ERP number from confirmation")
	}
	if order.Status != "approved" {
		t.Errorf("status: got %q", order.Status)
	}
	if len(order.Payments) != 1 || order.Payments[0].Kind != "dinheiro" {
		t.Errorf("expected single default cash payment, got %+v", order.Payments)
	}

	// Submission clears the cart.
	resp = doGetWithAuth(t, "/api/cart", testAPIKey)
	cart := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if len(cart.Items) != 0 {
		t.Errorf("expected cart cleared after submit, got %d items", len(cart.Items))
	}

	resp = doGetWithAuth(t, "/api/orders", testAPIKey)
	list := decodeJSON[[]orderResponse](t, resp)
	resp.Body.Close()
	found := false
	for _, o := range list {
		if o.Number == order.Number {
			found = true
		}
	}
	if !found {
		t.Errorf("order %s not in list", order.Number)
	}

	resp = doGetWithAuth(t, "/api/orders/"+order.Number, testAPIKey)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get order: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSubmitOrder_EmptyCart(t *testing.T) {
	clearCart(t)

	resp := doPostWithAuth(t, "/api/orders", map[string]any{
		"client": validClient(),
	}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSubmitOrder_UnbalancedPayments(t *testing.T) {
	clearCart(t)

	resp := doPostWithAuth(t, "/api/cart/items", map[string]any{
		"sku":      "7896036098502",
		"quantity": 1,
	}, testAPIKey)
	resp.Body.Close()

	resp = doPostWithAuth(t, "/api/cart/payments", map[string]any{
		"kind":   "pix",
		"amount": "1.00",
	}, testAPIKey)
	resp.Body.Close()

	resp = doPostWithAuth(t, "/api/orders", map[string]any{
		"client": validClient(),
	}, testAPIKey)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	body := decodeJSON[errorResponse](t, resp)
	resp.Body.Close()
	if body.Message == "" {
		t.Error("expected reconciliation message")
	}

	// The cart survives the failed submission.
	resp = doGetWithAuth(t, "/api/cart", testAPIKey)
	cart := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if len(cart.Items) != 1 {
		t.Errorf("expected cart intact, got %d items", len(cart.Items))
	}

	clearCart(t)
}

func TestSubmitOrder_ProviderRejection(t *testing.T) {
	clearCart(t)

	resp := doPostWithAuth(t, "/api/cart/items", map[string]any{
		"sku":      "7891910000197",
		"quantity": 1,
	}, testAPIKey)
	resp.Body.Close()

	// The stub ERP rejects this tax ID.
	rejected := clientRequest{Name: "Cliente Rejeitado ME", TaxID: "00000000000"}
	resp = doPostWithAuth(t, "/api/orders", map[string]any{
		"client": rejected,
	}, testAPIKey)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	body := decodeJSON[errorResponse](t, resp)
	resp.Body.Close()
	if len(body.Details) == 0 {
		t.Error("expected provider rejection details")
	}

	resp = doGetWithAuth(t, "/api/cart", testAPIKey)
	cart := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if len(cart.Items) != 1 {
		t.Errorf("expected cart intact after rejection, got %d items", len(cart.Items))
	}

	clearCart(t)
}

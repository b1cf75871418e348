// Package cep looks up Brazilian street addresses by postal code against a
// ViaCEP-compatible endpoint.
package cep

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/xenking/shelf-proposal-api/internal/domain/client"
)

// Lookup failures callers are expected to branch on.
var (
	ErrInvalidCEP = errors.New("cep must have 8 digits")
	// ErrNotFound means the provider knows no address for the code. It is
	// non-fatal: address forms simply stay blank for manual entry.
	ErrNotFound = errors.New("cep not found")
)

// Resolver answers postal code lookups.
type Resolver interface {
	Lookup(ctx context.Context, cep string) (*client.Address, error)
}

// Client queries a ViaCEP-style HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ Resolver = (*Client)(nil)

// NewClient creates a resolver for the given base URL
// (e.g. https://viacep.com.br/ws).
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// viaCEPResponse is the provider's wire shape. A miss is reported through
// the erro flag on a 200 response, not a 404.
type viaCEPResponse struct {
	CEP        string   `json:"cep"`
	Logradouro string   `json:"logradouro"`
	Bairro     string   `json:"bairro"`
	Localidade string   `json:"localidade"`
	UF         string   `json:"uf"`
	Erro       erroFlag `json:"erro"`
}

// erroFlag tolerates both encodings the provider has shipped for a miss:
// the JSON bool true and the string "true".
type erroFlag bool

func (e *erroFlag) UnmarshalJSON(data []byte) error {
	s := string(data)
	*e = erroFlag(s == "true" || s == `"true"`)
	return nil
}

// Lookup fetches the address for an 8-digit postal code. Formatting
// characters in the input are ignored.
func (c *Client) Lookup(ctx context.Context, cep string) (*client.Address, error) {
	digits := client.OnlyDigits(cep)
	if len(digits) != 8 {
		return nil, ErrInvalidCEP
	}

	url := c.baseURL + "/" + digits + "/json/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "lookup cep")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("lookup cep: unexpected status %s", resp.Status)
	}

	var body viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	if body.Erro {
		return nil, ErrNotFound
	}

	return &client.Address{
		CEP:      client.OnlyDigits(body.CEP),
		Street:   body.Logradouro,
		District: body.Bairro,
		City:     body.Localidade,
		State:    body.UF,
	}, nil
}

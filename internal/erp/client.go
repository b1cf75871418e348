package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TransportError is a network-level submission failure (connection refused,
// timeout). It is retryable: nothing was confirmed by the provider.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "erp: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// RejectionError is the proxy explicitly refusing the order. Messages
// carries the provider's error list verbatim; it is surfaced to the user
// unmodified.
type RejectionError struct {
	Messages []string
}

func (e *RejectionError) Error() string {
	if len(e.Messages) == 0 {
		return "erp: submission rejected"
	}
	return "erp: " + strings.Join(e.Messages, "; ")
}

// Confirmation is the successful submission result. Raw retains the full
// provider response so the order snapshot can store it untouched.
type Confirmation struct {
	Number string          `json:"number"`
	Raw    json.RawMessage `json:"raw"`
}

// Submitter is the outbound submission port used by the order service.
type Submitter interface {
	Submit(ctx context.Context, payload *OrderPayload) (*Confirmation, error)
}

// Config holds the ERP client settings.
type Config struct {
	// URL is the submission proxy endpoint.
	URL string
	// Timeout bounds the whole submission round trip. A timeout is a
	// retryable network failure, not a rejection.
	Timeout time.Duration
}

// Client submits orders over HTTP. Outbound requests are traced.
type Client struct {
	cfg  Config
	http *http.Client
}

var _ Submitter = (*Client)(nil)

// NewClient creates an ERP client with an instrumented transport.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Submit POSTs the order payload. A non-2xx status or an ok=false flag in
// the body yields a RejectionError with the provider's messages; transport
// failures are wrapped and left retryable.
func (c *Client) Submit(ctx context.Context, payload *OrderPayload) (*Confirmation, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	parsed := parseResponse(raw)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !parsed.ok {
		msgs := parsed.errorMessages()
		if len(msgs) == 0 {
			msgs = []string{"submission failed with status " + resp.Status}
		}
		return nil, &RejectionError{Messages: msgs}
	}

	return &Confirmation{Number: parsed.number, Raw: raw}, nil
}

// responseFields is what we care about in the provider response. The real
// body nests the registro under several levels ("tiny.retorno.registros.
// registro") and is not stable across proxy versions, so parsing walks the
// whole document instead of binding to one fixed shape.
type responseFields struct {
	ok       bool
	okSet    bool
	topError string
	number   string
	errList  []string
}

func (r *responseFields) errorMessages() []string {
	if len(r.errList) > 0 {
		return r.errList
	}
	if r.topError != "" {
		return []string{r.topError}
	}
	return nil
}

// parseResponse tolerantly extracts ok/error/numero/erros from an
// arbitrarily nested provider response. A body with no ok flag at all is
// treated as ok: some proxy versions answer plain 200 with just the
// registro.
func parseResponse(raw []byte) responseFields {
	out := responseFields{}
	walk(jx.DecodeBytes(raw), 0, &out)
	if !out.okSet {
		out.ok = true
	}
	return out
}

const maxWalkDepth = 16

func walk(d *jx.Decoder, depth int, out *responseFields) {
	if depth > maxWalkDepth || d.Next() != jx.Object {
		_ = d.Skip()
		return
	}
	_ = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "ok":
			if depth == 0 && d.Next() == jx.Bool {
				v, err := d.Bool()
				if err != nil {
					return err
				}
				out.ok, out.okSet = v, true
				return nil
			}
		case "error":
			if depth == 0 && d.Next() == jx.String {
				v, err := d.Str()
				if err != nil {
					return err
				}
				out.topError = v
				return nil
			}
		case "numero":
			if s, ok := stringish(d); ok {
				if out.number == "" {
					out.number = s
				}
				return nil
			}
		case "erro":
			if s, ok := stringish(d); ok {
				out.errList = append(out.errList, s)
				return nil
			}
		}
		switch d.Next() {
		case jx.Object:
			walk(d, depth+1, out)
			return nil
		case jx.Array:
			return d.Arr(func(d *jx.Decoder) error {
				walk(d, depth+1, out)
				return nil
			})
		default:
			return d.Skip()
		}
	})
}

// stringish consumes a string or number value, reporting false (and
// consuming nothing further) for other types.
func stringish(d *jx.Decoder) (string, bool) {
	switch d.Next() {
	case jx.String:
		v, err := d.Str()
		if err != nil {
			return "", false
		}
		return v, true
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", false
		}
		return n.String(), true
	default:
		return "", false
	}
}

// Package seller resolves the salesperson identity behind a session.
//
// Seller profiles arrive as raw JSON blobs written by the upstream auth
// system in one of two historical shapes: a direct object with id/usuario/
// tipo/cpf fields, or an object keyed by the seller's CPF with the same
// fields nested one level down. ParseProfile folds both into one explicit
// type, resolved once at session start.
package seller

import (
	"strings"

	"github.com/go-faster/jx"
)

// FallbackKey partitions records of sessions with no resolvable seller.
const FallbackKey = "sem_vendedor"

// Seller is the parsed salesperson profile.
type Seller struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Type   string `json:"type,omitempty"`
	TaxKey string `json:"taxKey,omitempty"`
}

// ParseProfile decodes a raw profile blob. It returns nil (and no error)
// when the blob matches neither known shape: an unparseable profile is a
// degraded session, not a fatal condition.
func ParseProfile(raw []byte) *Seller {
	d := jx.DecodeBytes(raw)

	direct := &Seller{}
	nested := map[string]*Seller{}
	isDirect := false

	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			isDirect = true
			return decodeStringish(d, &direct.ID)
		case "usuario":
			isDirect = true
			return decodeStringish(d, &direct.Name)
		case "tipo":
			isDirect = true
			return decodeStringish(d, &direct.Type)
		case "cpf":
			isDirect = true
			return decodeStringish(d, &direct.TaxKey)
		default:
			// Keyed-by-CPF shape: the top-level key is the tax id and the
			// value repeats the profile fields.
			if d.Next() != jx.Object {
				return d.Skip()
			}
			s := &Seller{TaxKey: onlyDigits(key)}
			if err := d.Obj(func(d *jx.Decoder, inner string) error {
				switch inner {
				case "id":
					return decodeStringish(d, &s.ID)
				case "usuario":
					return decodeStringish(d, &s.Name)
				case "tipo":
					return decodeStringish(d, &s.Type)
				default:
					return d.Skip()
				}
			}); err != nil {
				return err
			}
			nested[key] = s
			return nil
		}
	})
	if err != nil {
		return nil
	}

	if isDirect {
		direct.TaxKey = onlyDigits(direct.TaxKey)
		if direct.Empty() {
			return nil
		}
		return direct
	}
	for _, s := range nested {
		if !s.Empty() {
			return s
		}
	}
	return nil
}

// decodeStringish reads a string, number or null into dst. The legacy
// blobs store numeric ids both quoted and bare.
func decodeStringish(d *jx.Decoder, dst *string) error {
	switch d.Next() {
	case jx.String:
		v, err := d.Str()
		if err != nil {
			return err
		}
		*dst = v
		return nil
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return err
		}
		*dst = n.String()
		return nil
	case jx.Null:
		return d.Null()
	default:
		return d.Skip()
	}
}

// Empty reports whether no identifying field was populated.
func (s *Seller) Empty() bool {
	return s == nil || (s.ID == "" && s.Name == "" && s.TaxKey == "")
}

// Key returns the sanitized partition key for this seller: the first
// non-empty of id, tax key and name, with characters that are unsafe in
// store paths replaced. A nil or empty seller maps to FallbackKey.
func (s *Seller) Key() string {
	if s == nil {
		return FallbackKey
	}
	raw := s.ID
	if raw == "" {
		raw = s.TaxKey
	}
	if raw == "" {
		raw = s.Name
	}
	return SanitizeKey(raw)
}

// SanitizeKey replaces characters that are invalid in record keys
// ('.', '$', '#', '[', ']', '/') with underscores. An empty result falls
// back to FallbackKey.
func SanitizeKey(k string) string {
	replaced := strings.Map(func(r rune) rune {
		switch r {
		case '.', '$', '#', '[', ']', '/':
			return '_'
		}
		return r
	}, strings.TrimSpace(k))
	if replaced == "" {
		return FallbackKey
	}
	return replaced
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Command erp-stub is a development stand-in for the order submission
// proxy. It accepts any order, answers with an incrementing numero in the
// provider's nested response shape, and rejects orders whose client tax id
// is all zeros so failure paths can be exercised.
package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
)

type orderBody struct {
	Cliente struct {
		CpfCnpj string `json:"cpf_cnpj"`
	} `json:"cliente"`
	NumeroPedidoEcommerce string `json:"numero_pedido_ecommerce"`
}

func main() {
	var addr string
	flag.StringVar(&addr, "addr", ":9090", "listen address")
	flag.Parse()

	var counter atomic.Int64
	counter.Store(555000)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /", func(w http.ResponseWriter, r *http.Request) {
		var body orderBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "invalid body"})
			return
		}

		if body.Cliente.CpfCnpj == "00000000000" {
			slog.Info("rejecting order", slog.String("number", body.NumeroPedidoEcommerce))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ok": false,
				"tiny": map[string]any{
					"retorno": map[string]any{
						"registros": map[string]any{
							"registro": map[string]any{
								"erros": []map[string]string{{"erro": "CPF do cliente invalido"}},
							},
						},
					},
				},
			})
			return
		}

		numero := strconv.FormatInt(counter.Add(1), 10)
		slog.Info("accepting order",
			slog.String("number", body.NumeroPedidoEcommerce),
			slog.String("numero", numero),
		)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"tiny": map[string]any{
				"retorno": map[string]any{
					"registros": map[string]any{
						"registro": map[string]any{"numero": numero},
					},
				},
			},
		})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	slog.Info("erp stub listening", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// Package erp talks to the order-submission proxy in front of the ERP.
// The payload types mirror the vendor's wire schema, which is why their
// JSON tags are Portuguese snake_case: this is the one boundary where the
// vendor's shape leaks in, deliberately contained here.
package erp

import (
	"github.com/xenking/shelf-proposal-api/internal/domain/payment"
)

// FormaPagamentoMultiple is the aggregate payment-method tag used when the
// order is settled by more than one instrument.
const FormaPagamentoMultiple = "multiplas"

// Vendor wire values for the order settlement status.
const (
	situacaoOpen     = "aberto"
	situacaoApproved = "aprovado"
)

// VendorStatus maps the domain settlement status onto the vendor's wire
// values.
func VendorStatus(s payment.Status) string {
	if s == payment.StatusOpen {
		return situacaoOpen
	}
	return situacaoApproved
}

// OrderPayload is the complete body POSTed to the submission proxy.
type OrderPayload struct {
	Cliente               Cliente          `json:"cliente"`
	EnderecoEntrega       *EnderecoEntrega `json:"endereco_entrega,omitempty"`
	Itens                 []Item           `json:"itens"`
	Parcelas              []Parcela        `json:"parcelas"`
	Marcadores            []string         `json:"marcadores"`
	FormaPagamento        string           `json:"forma_pagamento"`
	Obs                   string           `json:"obs"`
	IDEcommerce           string           `json:"id_ecommerce"`
	NumeroPedidoEcommerce string           `json:"numero_pedido_ecommerce"`
	IDVendedor            string           `json:"id_vendedor"`
	Situacao              string           `json:"situacao"`
}

// Cliente is the billing identity block.
type Cliente struct {
	Nome             string `json:"nome"`
	TipoPessoa       string `json:"tipo_pessoa"`
	CpfCnpj          string `json:"cpf_cnpj"`
	AtualizarCliente string `json:"atualizar_cliente"`
	Endereco         string `json:"endereco"`
	Numero           string `json:"numero"`
	Complemento      string `json:"complemento"`
	Bairro           string `json:"bairro"`
	CEP              string `json:"cep"`
	Cidade           string `json:"cidade"`
	UF               string `json:"uf"`
	Pais             string `json:"pais"`
	Fone             string `json:"fone"`
	Email            string `json:"email"`
}

// EnderecoEntrega is the optional distinct delivery address block.
type EnderecoEntrega struct {
	TipoPessoa       string `json:"tipo_pessoa"`
	CpfCnpj          string `json:"cpf_cnpj"`
	Endereco         string `json:"endereco"`
	Numero           string `json:"numero"`
	Complemento      string `json:"complemento"`
	Bairro           string `json:"bairro"`
	Cidade           string `json:"cidade"`
	UF               string `json:"uf"`
	CEP              string `json:"cep"`
	Fone             string `json:"fone"`
	NomeDestinatario string `json:"nome_destinatario"`
}

// Item is one order line. ValorUnitario already has the discount baked in;
// the vendor schema carries no separate discount field. Quantities and
// amounts travel as strings, per the vendor API.
type Item struct {
	Codigo        string `json:"codigo"`
	Quantidade    string `json:"quantidade"`
	ValorUnitario string `json:"valor_unitario"`
	Descricao     string `json:"descricao,omitempty"`
	Unidade       string `json:"unidade"`
}

// Parcela is one payment installment record.
type Parcela struct {
	Valor          string `json:"valor"`
	FormaPagamento string `json:"forma_pagamento"`
	Obs            string `json:"obs"`
	MeioPagamento  string `json:"meio_pagamento,omitempty"`
	Dias           string `json:"dias,omitempty"`
	Data           string `json:"data,omitempty"`
}

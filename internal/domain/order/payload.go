package order

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/xenking/shelf-proposal-api/internal/domain/cart"
	"github.com/xenking/shelf-proposal-api/internal/domain/client"
	"github.com/xenking/shelf-proposal-api/internal/domain/payment"
	"github.com/xenking/shelf-proposal-api/internal/domain/seller"
	"github.com/xenking/shelf-proposal-api/internal/erp"
)

// orderNumber generates `{sellerID}-{YYYYMMDD}-{HHmmss}-{suffix}`. The
// timestamp keeps numbers sortable and recognizable; the random suffix
// removes the collision between two submissions by the same seller within
// one second.
func (s *Service) orderNumber(sess seller.Session) string {
	stamp := s.now().Format("20060102-150405")
	suffix := strings.Split(uuid.New().String(), "-")[0]
	return sess.SellerID() + "-" + stamp + "-" + suffix
}

// buildPayload assembles the vendor order body from the cart snapshot.
func (s *Service) buildPayload(
	sess seller.Session,
	req SubmitRequest,
	c *cart.Cart,
	totals cart.Totals,
	allocs []payment.Allocation,
	status payment.Status,
	number string,
) *erp.OrderPayload {
	note := strings.TrimSpace(req.Note)
	if note == "" {
		note = s.cfg.DefaultNote
	}

	summary := payment.Reconcile(allocs, totals.NetTotal)
	formaPagamento := erp.FormaPagamentoMultiple
	if len(allocs) == 1 && summary.Balanced(totals.NetTotal) {
		formaPagamento = string(allocs[0].Kind)
	}

	return &erp.OrderPayload{
		Cliente:               buildCliente(req.Client),
		EnderecoEntrega:       buildEnderecoEntrega(req.Client),
		Itens:                 buildItens(c),
		Parcelas:              s.buildParcelas(allocs),
		Marcadores:            req.Markers,
		FormaPagamento:        formaPagamento,
		Obs:                   note,
		IDEcommerce:           s.cfg.EcommerceID,
		NumeroPedidoEcommerce: number,
		IDVendedor:            sess.SellerID(),
		Situacao:              erp.VendorStatus(status),
	}
}

func buildCliente(cl client.Client) erp.Cliente {
	b := cl.BillingAddress
	return erp.Cliente{
		Nome:             strings.TrimSpace(cl.Name),
		TipoPessoa:       client.VendorPersonType(cl.PersonType),
		CpfCnpj:          cl.TaxKey(),
		AtualizarCliente: "N",
		Endereco:         strings.TrimSpace(b.Street),
		Numero:           strings.TrimSpace(b.Number),
		Complemento:      strings.TrimSpace(b.Complement),
		Bairro:           strings.TrimSpace(b.District),
		CEP:              client.OnlyDigits(b.CEP),
		Cidade:           strings.TrimSpace(b.City),
		UF:               strings.TrimSpace(b.State),
		Pais:             "Brasil",
		Fone:             strings.TrimSpace(cl.Phone),
		Email:            strings.TrimSpace(cl.Email),
	}
}

func buildEnderecoEntrega(cl client.Client) *erp.EnderecoEntrega {
	if !cl.DifferentDelivery || cl.ShippingAddress == nil {
		return nil
	}
	a := cl.ShippingAddress
	return &erp.EnderecoEntrega{
		TipoPessoa:       client.VendorPersonType(cl.PersonType),
		CpfCnpj:          cl.TaxKey(),
		Endereco:         strings.TrimSpace(a.Street),
		Numero:           strings.TrimSpace(a.Number),
		Complemento:      strings.TrimSpace(a.Complement),
		Bairro:           strings.TrimSpace(a.District),
		Cidade:           strings.TrimSpace(a.City),
		UF:               strings.TrimSpace(a.State),
		CEP:              client.OnlyDigits(a.CEP),
		Fone:             strings.TrimSpace(cl.Phone),
		NomeDestinatario: strings.TrimSpace(cl.Name),
	}
}

// buildItens maps cart lines to vendor items, baking each line's effective
// discount into its unit price.
func buildItens(c *cart.Cart) []erp.Item {
	out := make([]erp.Item, 0, len(c.Items))
	for _, item := range c.Items {
		unit := cart.DiscountedUnitPrice(item, c.Mode, c.GlobalPercent)
		it := erp.Item{
			Codigo:        item.SKU,
			Quantidade:    strconv.Itoa(item.Quantity),
			ValorUnitario: unit.StringFixed(2),
			Unidade:       "UN",
		}
		if name := strings.TrimSpace(item.Name); name != "" {
			it.Descricao = name
		}
		out = append(out, it)
	}
	return out
}

// buildParcelas maps payment allocations to vendor installments. Pix and
// boleto always carry the configured bank channel tag; credit carries the
// user-entered gateway when present.
func (s *Service) buildParcelas(allocs []payment.Allocation) []erp.Parcela {
	out := make([]erp.Parcela, 0, len(allocs))
	for _, a := range allocs {
		if !a.Amount.IsPositive() {
			continue
		}
		p := erp.Parcela{
			Valor:          a.Amount.StringFixed(2),
			FormaPagamento: string(a.Kind),
			Obs:            a.Note(),
		}
		switch d := a.Detail.(type) {
		case payment.CreditDetail:
			if d.Gateway != "" {
				p.MeioPagamento = d.Gateway
			}
			if d.Installments > 1 {
				p.Obs = "Cartão crédito " + strconv.Itoa(d.Installments) + "x"
			}
		case payment.BoletoDetail:
			p.MeioPagamento = s.cfg.BoletoChannel
			p.Dias = d.DueDays
			p.Data = d.DueDate
		case payment.SimpleDetail:
			if a.Kind == payment.KindPix {
				p.MeioPagamento = s.cfg.PixChannel
			}
		}
		out = append(out, p)
	}
	return out
}

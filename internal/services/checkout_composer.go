package services

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vitrine-atacado/api/internal/domain"
	"github.com/vitrine-atacado/api/internal/platform/brdoc"
)

// CustomerDetails carries the buyer data collected at checkout. Document and
// contact fields may arrive unmasked; the composer formats them.
type CustomerDetails struct {
	Name    string
	Company string
	CNPJ    string
	Phone   string
	CEP     string
	Address string
	City    string
	State   string
	Notes   string
}

// ComposeOrderCommand is the input for one order message.
type ComposeOrderCommand struct {
	Customer    CustomerDetails
	Cart        domain.Cart
	Totals      domain.CartTotals
	PaymentTier domain.PriceTier
}

// CheckoutComposer renders a cart into the plain-text order message handed to
// the store over the messaging channel. URL-encoding is the caller's concern.
type CheckoutComposer struct {
	storeName string
	printer   *message.Printer
}

// NewCheckoutComposer builds a composer for the given store name.
func NewCheckoutComposer(storeName string) *CheckoutComposer {
	name := strings.TrimSpace(storeName)
	if name == "" {
		name = "Vitrine Atacado"
	}
	return &CheckoutComposer{
		storeName: name,
		printer:   message.NewPrinter(language.BrazilianPortuguese),
	}
}

// ComposeOrderMessage renders the message. The output is deterministic: the
// same command always yields the same bytes.
func (c *CheckoutComposer) ComposeOrderMessage(cmd ComposeOrderCommand) string {
	var b strings.Builder

	b.WriteString("*Novo pedido — " + c.storeName + "*\n")

	b.WriteString("\n*Cliente*\n")
	writeField(&b, "Nome", cmd.Customer.Name)
	writeField(&b, "Empresa", cmd.Customer.Company)
	writeField(&b, "CNPJ", brdoc.FormatCNPJ(cmd.Customer.CNPJ))
	writeField(&b, "Telefone", brdoc.FormatPhone(cmd.Customer.Phone))
	writeField(&b, "CEP", brdoc.FormatCEP(cmd.Customer.CEP))
	writeField(&b, "Endereço", cmd.Customer.Address)
	writeField(&b, "Cidade", joinCityState(cmd.Customer.City, cmd.Customer.State))

	b.WriteString("\n*Itens*\n")
	for _, item := range cmd.Cart.Items {
		b.WriteString(item.Name)
		b.WriteString("\n")
		if item.Size != "" {
			b.WriteString("Tamanho: " + item.Size + "\n")
		}
		c.printer.Fprintf(&b, "%d x %s = %s\n",
			item.Quantity,
			c.FormatBRL(item.UnitPrice),
			c.FormatBRL(item.Subtotal()),
		)
	}

	b.WriteString("\n*Resumo*\n")
	b.WriteString("Subtotal: " + c.FormatBRL(cmd.Totals.Subtotal) + "\n")
	if cmd.Cart.Coupon != nil && cmd.Totals.Discount > 0 {
		b.WriteString("Cupom " + cmd.Cart.Coupon.Coupon.Code + ": -" + c.FormatBRL(cmd.Totals.Discount) + "\n")
	}
	b.WriteString("Total: " + c.FormatBRL(cmd.Totals.Total) + "\n")
	if cmd.PaymentTier.Valid() {
		b.WriteString("Pagamento: " + cmd.PaymentTier.Label() + "\n")
	}

	if notes := strings.TrimSpace(cmd.Customer.Notes); notes != "" {
		b.WriteString("\n*Observações*\n" + notes + "\n")
	}

	return b.String()
}

// FormatBRL renders centavos as Brazilian currency, e.g. "R$ 1.234,56".
// Integer arithmetic throughout; the locale printer only does the thousands
// grouping.
func (c *CheckoutComposer) FormatBRL(centavos int64) string {
	negative := centavos < 0
	if negative {
		centavos = -centavos
	}
	reais := centavos / 100
	cents := centavos % 100
	out := c.printer.Sprintf("R$ %d,%02d", reais, cents)
	if negative {
		return "-" + out
	}
	return out
}

func writeField(b *strings.Builder, label, value string) {
	if v := strings.TrimSpace(value); v != "" {
		b.WriteString(label + ": " + v + "\n")
	}
}

func joinCityState(city, state string) string {
	city = strings.TrimSpace(city)
	state = strings.TrimSpace(state)
	switch {
	case city != "" && state != "":
		return city + " - " + state
	case city != "":
		return city
	default:
		return state
	}
}

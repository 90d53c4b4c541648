package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vitrine-atacado/api/internal/platform/brdoc"
	"github.com/vitrine-atacado/api/internal/platform/httpx"
	"github.com/vitrine-atacado/api/internal/services"
)

// CheckoutHandlers exposes the order message composition endpoint.
type CheckoutHandlers struct {
	carts    services.CartService
	composer *services.CheckoutComposer
}

// NewCheckoutHandlers constructs handlers for the checkout routes.
func NewCheckoutHandlers(carts services.CartService, composer *services.CheckoutComposer) *CheckoutHandlers {
	return &CheckoutHandlers{carts: carts, composer: composer}
}

// Routes wires the /checkout endpoints onto the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/message", h.composeMessage)
}

type checkoutMessageRequest struct {
	Customer struct {
		Name    string `json:"name"`
		Company string `json:"company"`
		CNPJ    string `json:"cnpj"`
		Phone   string `json:"phone"`
		CEP     string `json:"cep"`
		Address string `json:"address"`
		City    string `json:"city"`
		State   string `json:"state"`
		Notes   string `json:"notes"`
	} `json:"customer"`
	PaymentTier string `json:"paymentTier"`
}

type checkoutMessageResponse struct {
	Message string `json:"message"`
}

func (h *CheckoutHandlers) composeMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil || h.composer == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout is unavailable", http.StatusServiceUnavailable))
		return
	}

	sessionID, ok := sessionFromContext(ctx, w)
	if !ok {
		return
	}

	var req checkoutMessageRequest
	if !decodeRequest(ctx, w, r, &req) {
		return
	}

	if fields := validateCustomer(req); len(fields) > 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_customer", "customer data failed validation", http.StatusBadRequest).
			WithDetails(map[string]any{"fields": fields}))
		return
	}

	tier, err := parseOptionalTier(req.PaymentTier)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	cart, err := h.carts.GetCart(ctx, sessionID)
	if err != nil {
		writeCartServiceError(ctx, w, err)
		return
	}
	if len(cart.Items) == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("cart_empty", "cannot compose a message for an empty cart", http.StatusUnprocessableEntity))
		return
	}

	message := h.composer.ComposeOrderMessage(services.ComposeOrderCommand{
		Customer: services.CustomerDetails{
			Name:    req.Customer.Name,
			Company: req.Customer.Company,
			CNPJ:    req.Customer.CNPJ,
			Phone:   req.Customer.Phone,
			CEP:     req.Customer.CEP,
			Address: req.Customer.Address,
			City:    req.Customer.City,
			State:   req.Customer.State,
			Notes:   req.Customer.Notes,
		},
		Cart:        cart,
		Totals:      h.carts.Totals(cart),
		PaymentTier: tier,
	})

	writeJSONResponse(w, http.StatusOK, checkoutMessageResponse{Message: message})
}

// validateCustomer returns the names of the fields that failed validation.
// Name and CNPJ are required; phone and CEP are validated when present.
func validateCustomer(req checkoutMessageRequest) []string {
	var fields []string
	if strings.TrimSpace(req.Customer.Name) == "" {
		fields = append(fields, "name")
	}
	if !brdoc.ValidateCNPJ(req.Customer.CNPJ) {
		fields = append(fields, "cnpj")
	}
	if strings.TrimSpace(req.Customer.Phone) != "" && !brdoc.ValidatePhone(req.Customer.Phone) {
		fields = append(fields, "phone")
	}
	if strings.TrimSpace(req.Customer.CEP) != "" && !brdoc.ValidateCEP(req.Customer.CEP) {
		fields = append(fields, "cep")
	}
	return fields
}

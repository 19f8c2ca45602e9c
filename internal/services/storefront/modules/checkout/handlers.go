package checkout

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/payetonkawa/storefront/internal/services/storefront/domain"
	"github.com/payetonkawa/storefront/internal/services/storefront/forms"
	"github.com/payetonkawa/storefront/internal/services/storefront/gateway"
	"github.com/payetonkawa/storefront/internal/services/storefront/module"
	apperrors "github.com/payetonkawa/storefront/internal/services/storefront/platform/errors"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/flash"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/modulehandler"
	"github.com/payetonkawa/storefront/internal/services/storefront/querycache"
	"github.com/payetonkawa/storefront/internal/services/storefront/routepath"
	"github.com/payetonkawa/storefront/internal/services/storefront/templates"
)

const (
	pageTitle        = "Finaliser ma commande"
	opCheckout       = "checkout"
	emptyCartMessage = "Votre panier est vide."
)

type handlers struct {
	modulehandler.Base
	reads     *querycache.Reads
	customers *gateway.CustomerService
	recorder  module.CartRecorder
}

func newHandlers(deps module.Dependencies) handlers {
	return handlers{
		Base:      modulehandler.NewBase(deps.Policy, deps.Logger),
		reads:     deps.Reads,
		customers: deps.Reads.Gateway().Customers,
		recorder:  deps.CartRecorderOrNop(),
	}
}

func (h handlers) handleCheckoutPage(w http.ResponseWriter, r *http.Request) {
	ws, _, ok := h.SignedIn(w, r)
	if !ok {
		return
	}
	current := ws.Cart.Snapshot()
	if current.IsEmpty() {
		h.Notify(w, r, flash.Info(emptyCartMessage), routepath.Cart)
		return
	}

	form := forms.Checkout{Country: forms.DefaultCountry}
	customer, err := h.customers.Me(r.Context())
	switch {
	case err == nil:
		form = forms.CheckoutFrom(customer)
	case apperrors.Is(err, apperrors.KindUnauthorized):
		h.WriteError(w, r, err)
		return
	default:
		h.Logger().WithError(err).Warn("prefill checkout address")
	}
	h.WritePage(w, r, pageTitle, http.StatusOK, templates.CheckoutPage(templates.CheckoutView{
		Cart: current,
		Form: form,
	}))
}

func (h handlers) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ws, user, ok := h.SignedIn(w, r)
	if !ok {
		return
	}
	current := ws.Cart.Snapshot()
	if current.IsEmpty() {
		h.Notify(w, r, flash.Info(emptyCartMessage), routepath.Cart)
		return
	}

	form := forms.ParseCheckout(r)
	if errs := form.Validate(); !errs.Empty() {
		h.WritePage(w, r, pageTitle, http.StatusUnprocessableEntity, templates.CheckoutPage(templates.CheckoutView{
			Cart:   current,
			Form:   form.Scrubbed(),
			Errors: errs,
		}))
		return
	}

	user, err := modulehandler.ResolveUser(r.Context(), ws, user, h.customers.Profile)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	order, err := h.reads.CreateOrder(r.Context(), domain.NewOrder{
		CustomerID:      user.ID,
		Items:           current.OrderLines(),
		ShippingAddress: form.FullAddress(),
		BillingAddress:  form.FullAddress(),
		Notes:           form.PaymentNote(),
	})
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	ws.Cart.Clear()
	h.recorder.CartMutation(opCheckout)
	h.Logger().WithFields(logrus.Fields{
		"customer_id": user.ID,
		"order_id":    order.ID,
		"items":       current.TotalItems(),
	}).Info("order placed")
	h.Notify(w, r, flash.Success(fmt.Sprintf("Commande #%d confirmée. Merci pour votre achat !", order.ID)), routepath.Order(order.ID))
}

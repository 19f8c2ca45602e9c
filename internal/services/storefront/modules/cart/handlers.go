package cart

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/payetonkawa/storefront/internal/services/storefront/forms"
	"github.com/payetonkawa/storefront/internal/services/storefront/module"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/flash"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/httpx"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/modulehandler"
	"github.com/payetonkawa/storefront/internal/services/storefront/querycache"
	"github.com/payetonkawa/storefront/internal/services/storefront/routepath"
	"github.com/payetonkawa/storefront/internal/services/storefront/session"
	"github.com/payetonkawa/storefront/internal/services/storefront/templates"
)

const (
	opAdd    = "add"
	opUpdate = "update"
	opRemove = "remove"
	opClear  = "clear"
)

type handlers struct {
	modulehandler.Base
	reads    *querycache.Reads
	recorder module.CartRecorder
}

func newHandlers(deps module.Dependencies) handlers {
	return handlers{
		Base:     modulehandler.NewBase(deps.Policy, deps.Logger),
		reads:    deps.Reads,
		recorder: deps.CartRecorderOrNop(),
	}
}

func (h handlers) handleCart(w http.ResponseWriter, r *http.Request) {
	ws, err := h.Workspace(r)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.WritePage(w, r, "Mon panier", http.StatusOK, templates.CartPage(templates.CartView{
		Cart:     ws.Cart.Snapshot(),
		SignedIn: ws.Session.Status() == session.StatusSignedIn,
	}))
}

func (h handlers) handleAdd(w http.ResponseWriter, r *http.Request) {
	ws, err := h.Workspace(r)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	back := httpx.SafeRedirectTarget(forms.Value(r, routepath.NextQueryKey), routepath.Cart)
	productID, ok := formID(r)
	if !ok {
		h.Notify(w, r, flash.Error("Produit invalide.", ""), back)
		return
	}
	quantity := 1
	if raw := forms.Value(r, "quantity"); raw != "" {
		quantity, err = strconv.Atoi(raw)
		if err != nil || quantity < 1 {
			h.Notify(w, r, flash.Error("La quantité doit être au moins 1.", ""), back)
			return
		}
	}

	product, err := h.reads.Product(r.Context(), productID)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	stock, err := h.reads.Stock(r.Context(), productID)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	product.Stock = stock

	inCart := 0
	if line, ok := ws.Cart.Snapshot().Line(productID); ok {
		inCart = line.Quantity
	}
	if quantity > stock-inCart {
		h.Notify(w, r, flash.Error(stockMessage(stock, inCart), ""), back)
		return
	}

	ws.Cart.AddItem(product, quantity)
	h.recorder.CartMutation(opAdd)
	h.Notify(w, r, flash.Success(fmt.Sprintf("%s ajouté au panier.", product.Label)), back)
}

func stockMessage(stock, inCart int) string {
	switch {
	case stock <= 0:
		return "Ce produit est en rupture de stock."
	case inCart > 0:
		return fmt.Sprintf("Stock insuffisant : %d disponible(s), %d déjà dans votre panier.", stock, inCart)
	default:
		return fmt.Sprintf("Stock insuffisant : %d disponible(s).", stock)
	}
}

func (h handlers) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ws, err := h.Workspace(r)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	productID, ok := formID(r)
	if !ok {
		h.Notify(w, r, flash.Error("Produit invalide.", ""), routepath.Cart)
		return
	}
	quantity, err := strconv.Atoi(forms.Value(r, "quantity"))
	if err != nil {
		h.Notify(w, r, flash.Error("Quantité invalide.", ""), routepath.Cart)
		return
	}
	if _, ok := ws.Cart.Snapshot().Line(productID); !ok {
		httpx.WriteRedirect(w, r, routepath.Cart)
		return
	}
	if quantity > 0 {
		stock, err := h.reads.Stock(r.Context(), productID)
		if err != nil {
			h.WriteError(w, r, err)
			return
		}
		if quantity > stock {
			h.Notify(w, r, flash.Error(stockMessage(stock, 0), ""), routepath.Cart)
			return
		}
	}

	ws.Cart.UpdateQuantity(productID, quantity)
	h.recorder.CartMutation(opUpdate)
	h.Notify(w, r, flash.Success("Panier mis à jour."), routepath.Cart)
}

func (h handlers) handleRemove(w http.ResponseWriter, r *http.Request) {
	ws, err := h.Workspace(r)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	productID, ok := formID(r)
	if !ok {
		h.Notify(w, r, flash.Error("Produit invalide.", ""), routepath.Cart)
		return
	}
	ws.Cart.RemoveItem(productID)
	h.recorder.CartMutation(opRemove)
	h.Notify(w, r, flash.Info("Produit retiré du panier."), routepath.Cart)
}

func (h handlers) handleClear(w http.ResponseWriter, r *http.Request) {
	ws, err := h.Workspace(r)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	ws.Cart.Clear()
	h.recorder.CartMutation(opClear)
	h.Notify(w, r, flash.Info("Panier vidé."), routepath.Cart)
}

func formID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(forms.Value(r, "productId"), 10, 64)
	return id, err == nil && id > 0
}

package orders

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/payetonkawa/storefront/internal/services/storefront/domain"
	"github.com/payetonkawa/storefront/internal/services/storefront/gateway"
	"github.com/payetonkawa/storefront/internal/services/storefront/module"
	apperrors "github.com/payetonkawa/storefront/internal/services/storefront/platform/errors"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/flash"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/modulehandler"
	"github.com/payetonkawa/storefront/internal/services/storefront/querycache"
	"github.com/payetonkawa/storefront/internal/services/storefront/routepath"
	"github.com/payetonkawa/storefront/internal/services/storefront/templates"
	"github.com/payetonkawa/storefront/internal/services/storefront/workspace"
)

var errOrderNotFound = apperrors.EK(apperrors.KindNotFound, "orders.not_found", "Commande introuvable.")

type handlers struct {
	modulehandler.Base
	reads     *querycache.Reads
	customers *gateway.CustomerService
}

func newHandlers(deps module.Dependencies) handlers {
	return handlers{
		Base:      modulehandler.NewBase(deps.Policy, deps.Logger),
		reads:     deps.Reads,
		customers: deps.Reads.Gateway().Customers,
	}
}

func (h handlers) handleOrders(w http.ResponseWriter, r *http.Request) {
	_, user, ok := h.SignedIn(w, r)
	if !ok {
		return
	}
	list, err := h.reads.CustomerOrders(r.Context(), user.ID)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	sorted := append([]domain.Order(nil), list...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	h.WritePage(w, r, "Mes commandes", http.StatusOK, templates.OrderList(templates.OrdersView{Orders: sorted}))
}

func (h handlers) handleOrder(w http.ResponseWriter, r *http.Request) {
	ws, user, ok := h.SignedIn(w, r)
	if !ok {
		return
	}
	order, err := h.ownOrder(r, ws, user)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.fillProducts(r.Context(), &order)
	h.WritePage(w, r, fmt.Sprintf("Commande #%d", order.ID), http.StatusOK, templates.OrderDetail(templates.OrderView{Order: order}))
}

func (h handlers) handleCancel(w http.ResponseWriter, r *http.Request) {
	ws, user, ok := h.SignedIn(w, r)
	if !ok {
		return
	}
	order, err := h.ownOrder(r, ws, user)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	target := routepath.Order(order.ID)
	if !order.Status.Cancellable() {
		h.Notify(w, r, flash.Error("Cette commande ne peut plus être annulée.", ""), target)
		return
	}
	if _, err := h.reads.CancelOrder(r.Context(), order.ID); err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.Logger().WithField("order_id", order.ID).Info("order cancelled")
	h.Notify(w, r, flash.Success(fmt.Sprintf("Commande #%d annulée.", order.ID)), target)
}

// ownOrder loads the {id} order and hides orders of other customers. A
// session that only knows its credential is resolved to its customer first.
func (h handlers) ownOrder(r *http.Request, ws *workspace.Workspace, user domain.User) (domain.Order, error) {
	id, ok := modulehandler.PathID(r)
	if !ok {
		return domain.Order{}, errOrderNotFound
	}
	user, err := modulehandler.ResolveUser(r.Context(), ws, user, h.customers.Profile)
	if err != nil {
		return domain.Order{}, err
	}
	order, err := h.reads.Order(r.Context(), user.ID, id)
	if err != nil {
		return domain.Order{}, err
	}
	if order.CustomerID != 0 && order.CustomerID != user.ID {
		return domain.Order{}, errOrderNotFound
	}
	return order, nil
}

// fillProducts attaches catalog entries to items the order service returned
// without one. Lookup failures leave the item as is.
func (h handlers) fillProducts(ctx context.Context, order *domain.Order) {
	for i := range order.Items {
		item := &order.Items[i]
		if item.Product != nil {
			continue
		}
		product, err := h.reads.Product(ctx, item.ProductID)
		if err != nil {
			continue
		}
		item.Product = &product
	}
}

package controllers

import (
	"errors"

	"github.com/rssabbir-dev/m-buy-sell-backend/app/services"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/ctx"
)

// OrderController serves the buyer checkout under {buyerUid}.
type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

func (h *OrderController) Index(c *ctx.Context) {
	orders, err := h.orders.ListOrders(c.Context(), c.Param("buyerUid"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(orders)
}

func (h *OrderController) Store(c *ctx.Context) {
	var in services.OrderInput
	if !c.BindJSON(&in) {
		return
	}
	o, err := h.orders.CreateOrder(c.Context(), c.Param("buyerUid"), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(o)
}

func (h *OrderController) PaymentIntent(c *ctx.Context) {
	var in services.IntentInput
	if !c.BindJSON(&in) {
		return
	}
	intent, err := h.orders.RequestPaymentIntent(c.Context(), c.Param("buyerUid"), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(intent)
}

// Pay finalizes a payment. A duplicate submission answers 409 with the
// payment already on record.
func (h *OrderController) Pay(c *ctx.Context) {
	var in services.PaymentInput
	if !c.BindJSON(&in) {
		return
	}
	res, err := h.orders.FinalizePayment(c.Context(), c.Param("buyerUid"), in)
	if err != nil {
		if res != nil && errors.Is(err, services.ErrConflictingState) {
			c.FailWithData(err, res)
			return
		}
		c.Fail(err)
		return
	}
	c.Created(res)
}

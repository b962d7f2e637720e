package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"bookstore/pkg/order"
	"bookstore/pkg/otel"
)

// addOrderItemHandler adds a book to the caller's draft order.
// @Summary Add item to order
// @Description Creates a draft order on the first call
// @Accept json
// @Produce json
// @Param item body order.AddOrderItemCommand true "Item"
// @Success 200 {object} OrderIDResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /orders/items [post]
func (s *Server) addOrderItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "addOrderItemHandler")
	defer span.End()

	var cmd order.AddOrderItemCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, string(order.KindInvalidArgument), err.Error())
		return
	}
	caller, _ := identityFrom(ctx)
	id, err := s.orders.AddOrderItem(ctx, caller.Username, cmd)
	if err != nil {
		s.writeOrderError(ctx, w, "add order item", err)
		return
	}
	writeJSON(w, http.StatusOK, OrderIDResponse{OrderID: id.String()})
}

// createOrderHandler places the caller's draft order.
// @Summary Place order
// @Description Applies the delivery fee and finalizes the draft order
// @Produce json
// @Param delivery_type query int true "0 standard, 1 express, 2 courier"
// @Success 200 {object} OrderIDResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /orders [post]
func (s *Server) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "createOrderHandler")
	defer span.End()

	code, err := strconv.Atoi(r.URL.Query().Get("delivery_type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, string(order.KindInvalidArgument), "delivery_type must be an integer")
		return
	}
	caller, _ := identityFrom(ctx)
	id, err := s.orders.CreateOrder(ctx, caller.Username, order.CreateOrderCommand{DeliveryType: code})
	if err != nil {
		s.writeOrderError(ctx, w, "create order", err)
		return
	}
	s.log.Info(ctx, "order placed", "order_id", id.String(), "owner", caller.Username)
	writeJSON(w, http.StatusOK, OrderIDResponse{OrderID: id.String()})
}

// listOrdersHandler lists the caller's orders.
// @Summary List orders
// @Produce json
// @Success 200 {array} order.Order
// @Security ApiKeyAuth
// @Router /orders [get]
func (s *Server) listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listOrdersHandler")
	defer span.End()

	caller, _ := identityFrom(ctx)
	orders, err := s.orders.ListOrders(ctx, caller.Username)
	if err != nil {
		s.writeOrderError(ctx, w, "list orders", err)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// getOrderHandler retrieves one of the caller's orders.
// @Summary Get order
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} order.Order
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /orders/{id} [get]
func (s *Server) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getOrderHandler")
	defer span.End()

	caller, _ := identityFrom(ctx)
	o, err := s.orders.GetOrder(ctx, caller.Username, mux.Vars(r)["id"])
	if err != nil {
		s.writeOrderError(ctx, w, "get order", err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

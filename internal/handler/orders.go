package handler

import (
	"context"
	"net/http"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/dto"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/model"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type OrdersHandler struct {
	orders service.OrderService
	tables service.TableService
}

func NewOrdersHandler(orders service.OrderService, tables service.TableService) *OrdersHandler {
	return &OrdersHandler{orders: orders, tables: tables}
}

// Create godoc
// @Summary Creates an order; table orders are linked to their table
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateOrderRequest true "Order"
// @Success 201 {object} dto.OrderResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /order [post]
func (h *OrdersHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	ctx := c.Request.Context()
	resp, err := h.orders.Create(ctx, actingEmployee(c, req.EmployeeID), req)
	if err != nil {
		respondError(c, err)
		return
	}

	if req.SaleType == model.SaleTable && resp.TableID != nil {
		orderID := uuid.MustParse(resp.ID)
		tableID := uuid.MustParse(*resp.TableID)
		if _, err := h.tables.LinkOrder(ctx, tableID, orderID); err != nil {
			// Do not leave an open order pointing at a table that rejected it.
			if _, cerr := h.orders.Cancel(context.WithoutCancel(ctx), orderID); cerr != nil {
				log.Error().Err(cerr).Str("order_id", resp.ID).Msg("failed to cancel order after link failure")
			}
			respondError(c, err)
			return
		}
		if resp, err = h.orders.Get(ctx, orderID); err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary Lists orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param status query string false "open | finalized | canceled"
// @Param sale_type query string false "counter | table | tab"
// @Param table_id query string false "Table id"
// @Param date query string false "YYYY-MM-DD"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.OrderListResponse
// @Router /order [get]
func (h *OrdersHandler) List(c *gin.Context) {
	var filter dto.OrderFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Gets an order with its employee and table joined
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order id"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} apierror.APIError
// @Router /order/{id} [get]
func (h *OrdersHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddItem godoc
// @Summary Adds a product to an open order
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order id"
// @Param body body dto.AddItemRequest true "Item"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /order/{id}/item [post]
func (h *OrdersHandler) AddItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.AddItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.orders.AddItem(c.Request.Context(), id, uuid.MustParse(req.ProductID), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RemoveItem godoc
// @Summary Removes a product line from an open order
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order id"
// @Param productRef path string true "Product id"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /order/{id}/item/{productRef} [delete]
func (h *OrdersHandler) RemoveItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	productID, ok := pathID(c, "productRef")
	if !ok {
		return
	}
	resp, err := h.orders.RemoveItem(c.Request.Context(), id, productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateItem godoc
// @Summary Sets the quantity of a product line
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order id"
// @Param productRef path string true "Product id"
// @Param body body dto.UpdateItemRequest true "Quantity"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /order/{id}/item/{productRef} [put]
func (h *OrdersHandler) UpdateItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	productID, ok := pathID(c, "productRef")
	if !ok {
		return
	}
	var req dto.UpdateItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.orders.UpdateItemQuantity(c.Request.Context(), id, productID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ApplyDiscount godoc
// @Summary Sets the discount of an open order
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order id"
// @Param body body dto.DiscountRequest true "Discount"
// @Success 200 {object} dto.OrderResponse
// @Failure 409 {object} apierror.APIError
// @Router /order/{id}/discount [put]
func (h *OrdersHandler) ApplyDiscount(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.DiscountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.orders.ApplyDiscount(c.Request.Context(), id, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Finalize godoc
// @Summary Finalizes an order, records the sale and frees its table
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order id"
// @Param body body dto.FinalizeOrderRequest false "Payment method"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /order/{id}/finalize [put]
func (h *OrdersHandler) Finalize(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.FinalizeOrderRequest
	// The body is optional.
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.orders.Finalize(c.Request.Context(), id, req.PaymentMethod)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancel godoc
// @Summary Cancels an open order and frees its table
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order id"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /order/{id}/cancel [put]
func (h *OrdersHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.orders.Cancel(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// internal/interfaces/http/handlers/order.go
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/MuhammadAwais984/storefront/internal/domain/order"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService *order.Service
	log          logrus.FieldLogger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *order.Service, log logrus.FieldLogger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		log:          log,
	}
}

// CreateOrder handles POST /orders. The body is optional; without an
// address the saved profile address is used.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req order.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBindError(c, err)
		return
	}

	created, err := h.orderService.CreateOrder(c.Request.Context(), userID, req.Address)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "Order placed successfully", created)
}

// CreateGuestOrder handles POST /orders/guest
func (h *OrderHandler) CreateGuestOrder(c *gin.Context) {
	var req order.GuestOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.orderService.CreateGuestOrder(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "Guest order placed successfully", result)
}

// GetOrders handles GET /orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req order.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.orderService.ListUserOrders(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Orders retrieved successfully", response)
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id", "order ID")
	if !ok {
		return
	}

	found, err := h.orderService.GetUserOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Order retrieved successfully", found)
}

// CancelOrder handles PATCH /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id", "order ID")
	if !ok {
		return
	}

	canceled, err := h.orderService.CancelOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Order canceled successfully", canceled)
}

// GetGuestOrders handles GET /orders/guest/orders/:guestToken
func (h *OrderHandler) GetGuestOrders(c *gin.Context) {
	orders, err := h.orderService.GetOrdersByGuestToken(c.Request.Context(), c.Param("guestToken"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Orders retrieved successfully", orders)
}

// CancelGuestOrder handles PATCH /orders/guest/:id/cancel
func (h *OrderHandler) CancelGuestOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id", "order ID")
	if !ok {
		return
	}

	var req order.CancelGuestOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	canceled, err := h.orderService.CancelGuestOrder(c.Request.Context(), orderID, req.GuestToken)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Order canceled successfully", canceled)
}

// GetAllOrders handles GET /orders/admin/all
func (h *OrderHandler) GetAllOrders(c *gin.Context) {
	var req order.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.orderService.ListOrders(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Orders retrieved successfully", response)
}

// UpdateOrderStatus handles PATCH /orders/admin/:id/status
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	actorID, ok := requireUser(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id", "order ID")
	if !ok {
		return
	}

	var req order.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	updated, err := h.orderService.UpdateStatus(c.Request.Context(), orderID, &req, actorID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Order status updated successfully", updated)
}

// DeleteOrder handles DELETE /orders/admin/:id
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id", "order ID")
	if !ok {
		return
	}

	if err := h.orderService.DeleteOrder(c.Request.Context(), orderID); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Order deleted successfully", nil)
}

// ExportOrders handles GET /orders/admin/export, accepting the same filters
// as GetAllOrders
func (h *OrderHandler) ExportOrders(c *gin.Context) {
	var req order.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	var buf bytes.Buffer
	count, err := h.orderService.ExportOrders(c.Request.Context(), &req, &buf)
	if err != nil {
		respondError(c, err)
		return
	}

	h.log.WithField("orders", count).Info("orders exported")

	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("X-Export-Count", strconv.Itoa(count))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

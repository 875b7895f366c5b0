package handlers

import (
	"net/http"
	"strconv"

	"laundry_manager/internal/models"
	"laundry_manager/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orders services.OrderService
	logger *zap.Logger
}

func NewOrderHandler(orders services.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// respond writes an order result or maps the error.
func (h *OrderHandler) respond(c *gin.Context, status int, order *models.Order, err error) {
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(status, gin.H{"order": order})
}

func (h *OrderHandler) respondList(c *gin.Context, orders []models.Order, err error) {
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var input services.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.orders.CreateOrder(c.Request.Context(), requester(c), input)
	h.respond(c, http.StatusCreated, order, err)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), requester(c), c.Param("id"))
	h.respond(c, http.StatusOK, order, err)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	filter := services.ListFilter{Status: c.Query("status")}
	if raw := c.Query("is_recurring"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		filter.IsRecurring = &v
	}
	orders, err := h.orders.ListOrders(c.Request.Context(), requester(c), filter)
	h.respondList(c, orders, err)
}

func (h *OrderHandler) ListRecurringOrders(c *gin.Context) {
	orders, err := h.orders.ListRecurringOrders(c.Request.Context(), requester(c))
	h.respondList(c, orders, err)
}

func (h *OrderHandler) ListPendingEditRequests(c *gin.Context) {
	orders, err := h.orders.ListPendingEditRequests(c.Request.Context(), requester(c))
	h.respondList(c, orders, err)
}

func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	var changes models.OrderChanges
	if err := c.ShouldBindJSON(&changes); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.orders.UpdateOrder(c.Request.Context(), requester(c), c.Param("id"), changes)
	h.respond(c, http.StatusOK, order, err)
}

func (h *OrderHandler) SubmitEditRequest(c *gin.Context) {
	var changes models.OrderChanges
	if err := c.ShouldBindJSON(&changes); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.orders.SubmitEditRequest(c.Request.Context(), requester(c), c.Param("id"), changes)
	h.respond(c, http.StatusAccepted, order, err)
}

func (h *OrderHandler) ReviewEditRequest(c *gin.Context) {
	var review services.EditReview
	if err := c.ShouldBindJSON(&review); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.orders.ReviewEditRequest(c.Request.Context(), requester(c), c.Param("id"), review)
	h.respond(c, http.StatusOK, order, err)
}

func (h *OrderHandler) ProposeModification(c *gin.Context) {
	var changes models.OrderChanges
	if err := c.ShouldBindJSON(&changes); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.orders.ProposeModification(c.Request.Context(), requester(c), c.Param("id"), changes)
	h.respond(c, http.StatusOK, order, err)
}

func (h *OrderHandler) ApproveModification(c *gin.Context) {
	order, err := h.orders.ApproveModification(c.Request.Context(), requester(c), c.Param("id"))
	h.respond(c, http.StatusOK, order, err)
}

func (h *OrderHandler) RejectModification(c *gin.Context) {
	var req struct {
		Reason string `json:"rejection_reason"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	order, err := h.orders.RejectModification(c.Request.Context(), requester(c), c.Param("id"), req.Reason)
	h.respond(c, http.StatusOK, order, err)
}

func (h *OrderHandler) ClearPendingApproval(c *gin.Context) {
	order, err := h.orders.ClearPendingApproval(c.Request.Context(), requester(c), c.Param("id"))
	h.respond(c, http.StatusOK, order, err)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	order, err := h.orders.CancelOrder(c.Request.Context(), requester(c), c.Param("id"))
	h.respond(c, http.StatusOK, order, err)
}

func (h *OrderHandler) CancelRecurringOrder(c *gin.Context) {
	order, err := h.orders.CancelRecurringOrder(c.Request.Context(), requester(c), c.Param("id"))
	h.respond(c, http.StatusOK, order, err)
}

// PurgeOrder accepts an order id or an order number.
func (h *OrderHandler) PurgeOrder(c *gin.Context) {
	ref := c.Param("id")
	if err := h.orders.PurgeOrder(c.Request.Context(), requester(c), ref); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order purged", "ref": ref})
}

func (h *OrderHandler) LockOrder(c *gin.Context) {
	order, err := h.orders.LockOrder(c.Request.Context(), requester(c), c.Param("id"))
	h.respond(c, http.StatusOK, order, err)
}

func (h *OrderHandler) UnlockOrder(c *gin.Context) {
	order, err := h.orders.UnlockOrder(c.Request.Context(), requester(c), c.Param("id"))
	h.respond(c, http.StatusOK, order, err)
}

func (h *OrderHandler) AssignDriver(c *gin.Context) {
	var req struct {
		DriverID string `json:"driver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.orders.AssignDriver(c.Request.Context(), requester(c), c.Param("id"), req.DriverID)
	h.respond(c, http.StatusOK, order, err)
}

func (h *OrderHandler) UnassignDriver(c *gin.Context) {
	order, err := h.orders.UnassignDriver(c.Request.Context(), requester(c), c.Param("id"))
	h.respond(c, http.StatusOK, order, err)
}

func (h *OrderHandler) UpdateDeliveryStatus(c *gin.Context) {
	var req struct {
		Status string `json:"delivery_status" binding:"required"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.orders.UpdateDeliveryStatus(c.Request.Context(), requester(c), c.Param("id"), req.Status, req.Notes)
	h.respond(c, http.StatusOK, order, err)
}

func (h *OrderHandler) RecalculateTotal(c *gin.Context) {
	order, err := h.orders.RecalculateTotal(c.Request.Context(), requester(c), c.Param("id"))
	h.respond(c, http.StatusOK, order, err)
}

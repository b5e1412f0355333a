package delivery

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Ojay1963/Delxta/internal/domain"
	"github.com/Ojay1963/Delxta/internal/middleware"
	"github.com/Ojay1963/Delxta/internal/usecase"
)

// orderRequest is the draft payload plus the payment method the client picked.
type orderRequest struct {
	domain.OrderDraftInput
	PaymentMethod string `json:"paymentMethod"`
}

type OrderHandler struct {
	useCase usecase.OrderUseCase
	log     *logrus.Logger
}

func NewOrderHandler(uc usecase.OrderUseCase, logger *logrus.Logger) *OrderHandler {
	return &OrderHandler{
		useCase: uc,
		log:     logger,
	}
}

// RegisterRoutes expects router to already run the auth middleware.
func (h *OrderHandler) RegisterRoutes(router gin.IRouter) {
	orders := router.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("/my", h.ListMyOrders)
		orders.GET("/admin", middleware.RequireAdmin(h.log), h.ListAdminOrders)
		orders.GET("/:id", h.GetOrderByID)
		orders.PATCH("/:id/status", middleware.RequireAdmin(h.log), h.UpdateOrderStatus)
	}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	caller := middleware.CallerFrom(c)

	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("Handler: Failed to bind JSON for create order (user %s): %v", caller.ID(), err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body.")
		return
	}
	method := domain.PaymentMethod(strings.TrimSpace(req.PaymentMethod))
	if method != "" && method != domain.PaymentCashOnDelivery {
		ErrorResponse(c, http.StatusBadRequest, "Use a checkout session for online payments.")
		return
	}

	order, err := h.useCase.CreateCashOrder(c.Request.Context(), req.OrderDraftInput, caller)
	if err != nil {
		failWithError(c, h.log, "create order", err)
		return
	}

	h.log.Infof("Handler: Order %s created for user %s", order.ID, caller.ID())
	SuccessResponse(c, http.StatusCreated, "Order placed successfully", order)
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	order, err := h.useCase.GetOrderByID(c.Request.Context(), c.Param("id"), middleware.CallerFrom(c))
	if err != nil {
		failWithError(c, h.log, "get order", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Order retrieved successfully", order)
}

func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	orders, err := h.useCase.ListMyOrders(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		failWithError(c, h.log, "list my orders", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Orders retrieved successfully", orders)
}

func (h *OrderHandler) ListAdminOrders(c *gin.Context) {
	orders, err := h.useCase.ListAdminOrders(c.Request.Context(), c.Query("status"), middleware.CallerFrom(c))
	if err != nil {
		failWithError(c, h.log, "list admin orders", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Orders retrieved successfully", orders)
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	var req struct {
		OrderStatus string `json:"orderStatus"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("Handler: Failed to bind JSON for order status update %s: %v", c.Param("id"), err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body.")
		return
	}

	order, err := h.useCase.UpdateOrderStatus(c.Request.Context(), c.Param("id"),
		domain.OrderStatus(strings.TrimSpace(req.OrderStatus)), middleware.CallerFrom(c))
	if err != nil {
		failWithError(c, h.log, "update order status", err)
		return
	}

	h.log.Infof("Handler: Order %s moved to %s", order.ID, order.OrderStatus)
	SuccessResponse(c, http.StatusOK, "Order status updated successfully", order)
}

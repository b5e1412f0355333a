package delivery

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Ojay1963/Delxta/internal/clients"
	"github.com/Ojay1963/Delxta/internal/domain"
	"github.com/Ojay1963/Delxta/internal/middleware"
	"github.com/Ojay1963/Delxta/internal/usecase"
)

// Webhook bodies above this size are rejected before signature checks.
const maxWebhookBody = 1 << 20

type CheckoutHandler struct {
	useCase usecase.CheckoutUseCase
	log     *logrus.Logger
}

func NewCheckoutHandler(uc usecase.CheckoutUseCase, logger *logrus.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		useCase: uc,
		log:     logger,
	}
}

// RegisterRoutes mounts the authenticated checkout routes on authed and the gateway webhook on public.
func (h *CheckoutHandler) RegisterRoutes(authed, public gin.IRouter) {
	authed.POST("/orders/checkout-session", h.CreateCheckoutSession)
	authed.POST("/orders/checkout-session/:id/complete-card", h.CompleteCard)
	authed.GET("/checkout-sessions/:id", h.GetCheckoutSession)

	paystack := authed.Group("/payments/paystack")
	{
		paystack.POST("/initialize", h.InitializePaystack)
		paystack.POST("/complete", h.CompletePaystack)
		paystack.GET("/verify/:reference", h.VerifyPaystack)
	}

	public.POST("/payments/paystack/webhook", h.PaystackWebhook)
}

func (h *CheckoutHandler) CreateCheckoutSession(c *gin.Context) {
	caller := middleware.CallerFrom(c)

	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("Handler: Failed to bind JSON for checkout session (user %s): %v", caller.ID(), err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body.")
		return
	}

	session, err := h.useCase.CreateCheckoutSession(c.Request.Context(), req.OrderDraftInput,
		domain.PaymentMethod(req.PaymentMethod), caller)
	if err != nil {
		failWithError(c, h.log, "create checkout session", err)
		return
	}

	h.log.Infof("Handler: Checkout session %s created for user %s", session.ID, caller.ID())
	SuccessResponse(c, http.StatusCreated, "Checkout session created", gin.H{
		"checkoutSessionId": session.ID,
		"amount":            session.OrderDraft.Total,
		"amountKobo":        session.AmountKobo,
		"paymentMethod":     session.PaymentMethod,
		"expiresAt":         session.ExpiresAt,
	})
}

func (h *CheckoutHandler) GetCheckoutSession(c *gin.Context) {
	session, err := h.useCase.GetCheckoutSession(c.Request.Context(), c.Param("id"), middleware.CallerFrom(c))
	if err != nil {
		failWithError(c, h.log, "get checkout session", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Checkout session retrieved successfully", session)
}

func (h *CheckoutHandler) CompleteCard(c *gin.Context) {
	var req struct {
		PaymentDetails usecase.CardDetails `json:"paymentDetails"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("Handler: Failed to bind JSON for card completion of session %s: %v", c.Param("id"), err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body.")
		return
	}

	order, err := h.useCase.CompleteSimulatedCard(c.Request.Context(), c.Param("id"), req.PaymentDetails, middleware.CallerFrom(c))
	if err != nil {
		failWithError(c, h.log, "complete card payment", err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Payment completed and order placed", order)
}

func (h *CheckoutHandler) InitializePaystack(c *gin.Context) {
	var req struct {
		CheckoutSessionID string `json:"checkoutSessionId"`
		CallbackURL       string `json:"callbackUrl"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("Handler: Failed to bind JSON for paystack initialize: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body.")
		return
	}

	initialization, err := h.useCase.InitializeGatewayPayment(c.Request.Context(), req.CheckoutSessionID, req.CallbackURL, middleware.CallerFrom(c))
	if err != nil {
		failWithError(c, h.log, "initialize paystack payment", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Payment initialized", initialization)
}

func (h *CheckoutHandler) CompletePaystack(c *gin.Context) {
	var req struct {
		Reference string `json:"reference"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("Handler: Failed to bind JSON for paystack completion: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body.")
		return
	}

	order, err := h.useCase.CompleteGatewayPayment(c.Request.Context(), req.Reference, middleware.CallerFrom(c))
	if err != nil {
		failWithError(c, h.log, "complete paystack payment", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Payment verified and order placed", order)
}

func (h *CheckoutHandler) VerifyPaystack(c *gin.Context) {
	verification, err := h.useCase.VerifyGatewayPayment(c.Request.Context(), c.Param("reference"))
	if err != nil {
		failWithError(c, h.log, "verify paystack payment", err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Payment verification retrieved", verification)
}

// PaystackWebhook always needs the raw body: the signature covers the exact bytes sent.
func (h *CheckoutHandler) PaystackWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil || len(body) > maxWebhookBody {
		h.log.Warnf("Handler: Unreadable paystack webhook body (%d bytes): %v", len(body), err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid webhook body.")
		return
	}

	order, err := h.useCase.HandleGatewayWebhook(c.Request.Context(), body, c.GetHeader(clients.PaystackSignatureHeader))
	if err != nil {
		failWithError(c, h.log, "paystack webhook", err)
		return
	}
	if order == nil {
		SuccessResponse(c, http.StatusOK, "Event acknowledged", nil)
		return
	}
	SuccessResponse(c, http.StatusOK, "Payment reconciled", gin.H{"orderId": order.ID})
}

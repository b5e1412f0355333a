package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Ojay1963/Delxta/internal/middleware"
)

// NewRouter wires every checkout_service route under /api.
func NewRouter(orders *OrderHandler, checkout *CheckoutHandler, jwtSecret string, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.RedirectTrailingSlash = false
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))

	api := router.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		SuccessResponse(c, http.StatusOK, "OK", gin.H{"service": "checkout"})
	})

	authed := api.Group("", middleware.AuthMiddleware(jwtSecret, logger))
	orders.RegisterRoutes(authed)
	checkout.RegisterRoutes(authed, api)

	return router
}

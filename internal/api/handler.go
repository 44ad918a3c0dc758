package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"marketplace/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	authService    *service.AuthService
	productService *service.ProductService
	orderService   *service.OrderService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	authService *service.AuthService,
	productService *service.ProductService,
	orderService *service.OrderService,
) *Handler {
	return &Handler{
		authService:    authService,
		productService: productService,
		orderService:   orderService,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(corsMiddleware())
	router.Use(gin.Logger())

	router.HandleMethodNotAllowed = true
	router.NoMethod(noMethod)

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth", h.authenticate)
		v1.GET("/products", h.listProducts)
		v1.POST("/products", h.requireAdmin(), h.createProduct)
		v1.POST("/orders", h.requireUser(), h.placeOrder)
		v1.GET("/orders", h.requireUser(), h.listOrders)
	}
}

// noMethod keeps the per-surface error shapes: orders answers 400 to
// anything unexpected, the other surfaces answer 405.
func noMethod(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/v1/orders") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad request"})
		return
	}
	c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// authenticate dispatches the action-based auth body to register or
// login.
func (h *Handler) authenticate(c *gin.Context) {
	var req service.AuthRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	switch req.Action {
	case "register":
		resp, err := h.authService.Register(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to register",
				"details": err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, resp)

	case "login":
		resp, err := h.authService.Login(c.Request.Context(), &req)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to log in",
				"details": err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, resp)

	default:
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	}
}

// listProducts handles the catalog listing with an optional category
// filter.
func (h *Handler) listProducts(c *gin.Context) {
	category := c.Query("category")

	products, err := h.productService.List(c.Request.Context(), category)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list products",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, products)
}

// createProduct handles product creation (admin only)
func (h *Handler) createProduct(c *gin.Context) {
	var req service.CreateProductRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	id, err := h.productService.Create(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create product",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}

// placeOrder handles order creation. The session must belong to the
// ordering user unless it is an admin session.
func (h *Handler) placeOrder(c *gin.Context) {
	var req service.PlaceOrderRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	sess := sessionFrom(c)
	if sess == nil || (!sess.IsAdmin && sess.UserID != req.UserID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	resp, err := h.orderService.Place(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to place order",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// listOrders handles order history for a user
func (h *Handler) listOrders(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad request"})
		return
	}

	sess := sessionFrom(c)
	if sess == nil || (!sess.IsAdmin && sess.UserID != userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	orders, err := h.orderService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list orders",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, orders)
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gifthouse/pos_backend/config"
	"github.com/gifthouse/pos_backend/middlewares"
	"github.com/gifthouse/pos_backend/models"
	"github.com/gifthouse/pos_backend/utils"
	"github.com/gifthouse/pos_backend/workflow"
	"github.com/gifthouse/pos_backend/ziina"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

const defaultPort = "8080"

var tracer = otel.Tracer("gifthouse-pos")

const posProductsCacheKey = "pos:products"

// app holds the injected collaborators. Dependencies are attached after
// the HTTP server is already listening (Cloud Run wants the port open
// fast), so reads go through the mutex and the readiness gate returns
// 503 until setDeps has run.
type app struct {
	mu       sync.RWMutex
	logger   *logrus.Logger
	db       *gorm.DB
	rdb      *config.Redis
	checkout *workflow.CheckoutWorkflow
	payments *ziina.Client
}

func (a *app) setDeps(db *gorm.DB, rdb *config.Redis, checkout *workflow.CheckoutWorkflow, payments *ziina.Client) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.db = db
	a.rdb = rdb
	a.checkout = checkout
	a.payments = payments
}

func (a *app) getDB() *gorm.DB {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.db
}

func (a *app) getRedis() *config.Redis {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.rdb
}

func (a *app) getCheckout() *workflow.CheckoutWorkflow {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.checkout
}

func (a *app) getPayments() *ziina.Client {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.payments
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (a *app) loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		token, err := models.Login(a.getDB(), c.Request.Context(), req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

// posCheckoutHandler is the POS-facing entry point. A degraded checkout
// (secondary effects failed) still returns 200 with the order plus the
// warnings; only validation and order-assembly failures are errors.
func (a *app) posCheckoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "pos.checkout")
		defer span.End()

		var input workflow.CheckoutInput
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}

		result, err := a.getCheckout().Checkout(ctx, &input)
		if err != nil {
			switch {
			case errors.Is(err, workflow.ErrorCheckoutInFlight):
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			case utils.IsValidationError(err):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// posProductsHandler serves the sellable catalog for the POS screen,
// cached briefly in Redis because every register load hits it.
func (a *app) posProductsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		rdb := a.getRedis()

		var cached []models.Product
		if found, err := rdb.GetObject(ctx, posProductsCacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, cached)
			return
		}

		products, err := models.GetPosProducts(a.getDB(), ctx)
		if err != nil {
			config.LogError(a.logger, "server.go", "posProductsHandler", "GetPosProducts", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if err := rdb.SetObject(ctx, posProductsCacheKey, products, time.Minute); err != nil {
			config.LogError(a.logger, "server.go", "posProductsHandler", "cache set", nil, err)
		}
		c.JSON(http.StatusOK, products)
	}
}

func (a *app) searchCustomersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		phone := strings.TrimSpace(c.Query("phone"))
		if phone == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "phone is required"})
			return
		}
		customers, err := models.SearchCustomersByPhone(a.getDB(), c.Request.Context(), phone)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, customers)
	}
}

func (a *app) invalidatePosProductsCache(ctx context.Context) {
	if err := a.getRedis().RemoveKey(ctx, posProductsCacheKey); err != nil {
		config.LogError(a.logger, "server.go", "invalidatePosProductsCache", "cache invalidate", nil, err)
	}
}

func (a *app) listProductsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := models.ListProducts(a.getDB(), c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

func (a *app) createProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewProduct
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		product, err := models.CreateProduct(a.getDB(), c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		a.invalidatePosProductsCache(c.Request.Context())
		c.JSON(http.StatusOK, product)
	}
}

func (a *app) getProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		product, err := models.GetProduct(a.getDB(), c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func (a *app) updateProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var input models.NewProduct
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		product, err := models.UpdateProduct(a.getDB(), c.Request.Context(), id, &input)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		a.invalidatePosProductsCache(c.Request.Context())
		c.JSON(http.StatusOK, product)
	}
}

func (a *app) deleteProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		if err := models.DeleteProduct(a.getDB(), c.Request.Context(), id); err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		a.invalidatePosProductsCache(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"deleted": id})
	}
}

func (a *app) productDenominationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		denominations, err := models.GetProductDenominations(a.getDB(), c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, denominations)
	}
}

func (a *app) listCustomersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		customers, err := models.ListCustomers(a.getDB(), c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, customers)
	}
}

func (a *app) createCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCustomer
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		customer, err := models.CreateCustomer(a.getDB(), c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

func (a *app) getCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		customer, err := models.GetCustomer(a.getDB(), c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

func (a *app) updateCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var input models.NewCustomer
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		customer, err := models.UpdateCustomer(a.getDB(), c.Request.Context(), id, &input)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

func (a *app) customerRewardsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		rewards, err := models.ListCustomerRewards(a.getDB(), c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rewards)
	}
}

type creditAdjustmentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Reason string          `json:"reason"`
}

func (a *app) creditStoreCreditHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var req creditAdjustmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		result, err := models.CreditStoreCredit(a.getDB(), c.Request.Context(), id, req.Amount, req.Reason)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		resp := gin.H{"balance_after": result.BalanceAfter}
		if result.EntryErr != nil {
			resp["warning"] = "balance updated but audit entry not recorded: " + result.EntryErr.Error()
		}
		c.JSON(http.StatusOK, resp)
	}
}

func (a *app) debitStoreCreditHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var req creditAdjustmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		result, err := models.DebitStoreCredit(a.getDB(), c.Request.Context(), id, 0, req.Amount)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		resp := gin.H{"balance_after": result.BalanceAfter}
		if result.EntryErr != nil {
			resp["warning"] = "balance updated but audit entry not recorded: " + result.EntryErr.Error()
		}
		c.JSON(http.StatusOK, resp)
	}
}

func (a *app) listOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := models.GetOrders(a.getDB(), c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

func (a *app) getOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		order, err := models.GetOrder(a.getDB(), c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

type orderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

func (a *app) updateOrderStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var req orderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		order, err := models.UpdateOrderStatus(a.getDB(), c.Request.Context(), id, req.Status)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func (a *app) dashboardStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := models.GetDashboardStats(a.getDB(), c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// getOrderByCodeHandler is the receipt lookup: the cashier keys in the
// printed order code.
func (a *app) getOrderByCodeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := models.GetOrderByCode(a.getDB(), c.Request.Context(), c.Param("code"))
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// bindError shapes a request-binding failure. Validator failures name
// the offending fields; anything else is a generic invalid request.
func bindError(c *gin.Context, err error) {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "invalid request",
			"fields": utils.ProcessValidationErrors(err),
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.NewLogger()
	a := &app{logger: logger}

	// Cloud Run sends SIGTERM on revision shutdown; handle it for
	// graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	r := gin.New()

	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow the startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate app endpoints on dependency readiness.
		if a.getDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production require an explicit allowlist; allow all otherwise.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(middlewares.SessionMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.POST("/api/login", a.loginHandler())

	// Gateway callbacks arrive unauthenticated.
	r.POST("/api/ziina/webhook", func(c *gin.Context) { ziina.WebhookHandler(a.getRedis(), logger, "webhook")(c) })
	r.POST("/api/ziina/success", func(c *gin.Context) { ziina.WebhookHandler(a.getRedis(), logger, "success")(c) })
	r.POST("/api/ziina/failure", func(c *gin.Context) { ziina.WebhookHandler(a.getRedis(), logger, "failure")(c) })
	r.POST("/api/ziina/cancel", func(c *gin.Context) { ziina.WebhookHandler(a.getRedis(), logger, "cancel")(c) })

	api := r.Group("/api", middlewares.RequireAuth())

	api.POST("/pos/checkout", a.posCheckoutHandler())
	api.GET("/pos/products", a.posProductsHandler())
	api.GET("/pos/customers/search", a.searchCustomersHandler())
	api.GET("/pos/orders/:code", a.getOrderByCodeHandler())

	api.GET("/products", a.listProductsHandler())
	api.POST("/products", a.createProductHandler())
	api.GET("/products/:id", a.getProductHandler())
	api.PUT("/products/:id", a.updateProductHandler())
	api.DELETE("/products/:id", a.deleteProductHandler())
	api.GET("/products/:id/denominations", a.productDenominationsHandler())

	api.GET("/customers", a.listCustomersHandler())
	api.POST("/customers", a.createCustomerHandler())
	api.GET("/customers/:id", a.getCustomerHandler())
	api.PUT("/customers/:id", a.updateCustomerHandler())
	api.GET("/customers/:id/rewards", a.customerRewardsHandler())
	api.POST("/customers/:id/credit", a.creditStoreCreditHandler())
	api.POST("/customers/:id/debit", a.debitStoreCreditHandler())

	api.GET("/orders", a.listOrdersHandler())
	api.GET("/orders/:id", a.getOrderHandler())
	api.PUT("/orders/:id/status", a.updateOrderStatusHandler())

	api.GET("/dashboard/stats", a.dashboardStatsHandler())

	api.POST("/ziina/create-payment", func(c *gin.Context) { ziina.CreatePaymentHandler(a.getPayments(), logger)(c) })
	api.GET("/ziina/payment/:id", func(c *gin.Context) { ziina.GetPaymentHandler(a.getPayments(), logger)(c) })

	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (the startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	db := config.ConnectDatabaseWithRetry()
	rdb := config.ConnectRedisWithRetry()

	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	// AutoMigrate can run DDL that blocks tables; allow disabling on
	// startup and running migrations as a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable(db)
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	var payments *ziina.Client
	if apiKey := os.Getenv("ZIINA_API_KEY"); apiKey != "" {
		client, err := ziina.NewClient(apiKey)
		if err != nil {
			logger.WithFields(logrus.Fields{"field": "ziina"}).Warn("payment gateway disabled: " + err.Error())
		} else {
			payments = client
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "ziina"}).Warn("ZIINA_API_KEY not set; payment gateway disabled")
	}

	a.setDeps(db, rdb, workflow.NewCheckoutWorkflow(db, logger), payments)

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on port ", port)

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	_ = rdb.Close()
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/fundtracker_backend/config"
	"bitbucket.org/mmdatafocus/fundtracker_backend/fraud"
	"bitbucket.org/mmdatafocus/fundtracker_backend/middlewares"
	"bitbucket.org/mmdatafocus/fundtracker_backend/models"
	"bitbucket.org/mmdatafocus/fundtracker_backend/models/reports"
	"bitbucket.org/mmdatafocus/fundtracker_backend/utils"
	"bitbucket.org/mmdatafocus/fundtracker_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

// Define a struct to represent the rate limiter.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func getRedisClient(redisAddress string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})
	return client
}

func registerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUser
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		// Only an authenticated admin may create another admin.
		if input.Role != nil && models.UserRole(*input.Role) == models.UserRoleAdmin {
			claim := middlewares.CtxValue(c.Request.Context())
			if claim == nil || claim.Role != string(models.UserRoleAdmin) {
				c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permission"})
				return
			}
		}

		user, err := models.CreateUser(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		payload, err := models.Login(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, payload)
	}
}

func meHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		claim := middlewares.CtxValue(c.Request.Context())
		if claim == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		user, err := models.GetUserById(c.Request.Context(), claim.ID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func listProjectsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var status, department *string
		if v := c.Query("status"); v != "" {
			status = &v
		}
		if v := c.Query("department"); v != "" {
			department = &v
		}
		projects, err := models.GetProjects(c.Request.Context(), status, department)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, projects)
	}
}

func getProjectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
			return
		}
		project, err := models.GetProjectById(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, project)
	}
}

func projectInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
			return
		}
		invoices, err := models.GetInvoicesByProject(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, invoices)
	}
}

func createProjectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewProject
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		project, err := models.CreateProject(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, project)
	}
}

func updateProjectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
			return
		}
		var input models.NewProject
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		project, err := models.UpdateProject(c.Request.Context(), id, &input)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, project)
	}
}

func listInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var status *models.InvoiceStatus
		if v := c.Query("status"); v != "" {
			parsed, ok := models.ParseInvoiceStatus(v)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice status"})
				return
			}
			status = &parsed
		}
		invoices, err := models.ListInvoices(c.Request.Context(), status)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, invoices)
	}
}

func pendingInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		pending := models.InvoiceStatusPending
		invoices, err := models.ListInvoices(c.Request.Context(), &pending)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, invoices)
	}
}

type reviewInvoiceInput struct {
	Action string `json:"action" binding:"required"`
}

func verifyInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
			return
		}
		var input reviewInvoiceInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		invoice, err := models.ReviewInvoice(c.Request.Context(), id, models.ReviewAction(input.Action))
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, invoiceDetailResponse(invoice))
	}
}

func getInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
			return
		}
		invoice, err := models.GetInvoiceById(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, invoiceDetailResponse(invoice))
	}
}

// minRiskFromQuery reads the min_risk override; absent or invalid values fall
// back to the high-risk floor.
func minRiskFromQuery(c *gin.Context) int {
	if v := c.Query("min_risk"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 100 {
			return n
		}
	}
	return fraud.HighRiskFloor
}

func highRiskHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		invoices, err := models.ListHighRiskInvoices(c.Request.Context(), minRiskFromQuery(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, invoices)
	}
}

func fraudFilterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawCategory := c.Query("category")
		if rawCategory == "" || rawCategory == string(fraud.CategoryAll) {
			invoices, err := models.ListHighRiskInvoices(c.Request.Context(), minRiskFromQuery(c))
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, invoices)
			return
		}

		category, ok := fraud.ParseCategory(rawCategory)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unrecognized category"})
			return
		}
		invoices, err := models.ListInvoicesByCategory(c.Request.Context(), minRiskFromQuery(c), category)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, invoices)
	}
}

func fraudSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, err := models.FraudSummary(c.Request.Context(), minRiskFromQuery(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out := make(map[string]int, len(counts))
		for category, count := range counts {
			out[string(category)] = count
		}
		c.JSON(http.StatusOK, out)
	}
}

func flagInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("invoiceId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
			return
		}
		invoice, err := models.FlagInvoice(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, invoice)
	}
}

func fraudExportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		reports.ExportHighRiskExcel(c.Request.Context(), c.Writer, minRiskFromQuery(c))
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
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

	logger := config.GetLogger()

	// Shutdown coordination.
	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, we return 503 for app endpoints.
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
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate critical endpoints on dependency readiness.
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = utils.SplitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true

	r.Use(cors.New(corsConfig))

	// Optional rate limiting (recommended for production).
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		client := getRedisClient(os.Getenv("REDIS_ADDRESS"))
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(middlewares.AuthMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	auth := r.Group("/auth")
	{
		auth.POST("/register", registerHandler())
		auth.POST("/login", loginHandler())
		auth.GET("/me", middlewares.RequireAuth(), meHandler())
	}

	// Public transparency surface: anyone can inspect fund utilization.
	projects := r.Group("/projects")
	{
		projects.GET("", listProjectsHandler())
		projects.GET("/:id", getProjectHandler())
		projects.GET("/:id/invoices", projectInvoicesHandler())
		projects.POST("", middlewares.RequireRole(string(models.UserRoleAdmin)), createProjectHandler())
		projects.PUT("/:id", middlewares.RequireRole(string(models.UserRoleAdmin)), updateProjectHandler())
	}

	invoices := r.Group("/invoices", middlewares.RequireAuth())
	{
		invoices.GET("", listInvoicesHandler())
		invoices.GET("/pending", pendingInvoicesHandler())
		invoices.GET("/:id", getInvoiceHandler())
		invoices.POST("", middlewares.RequireRole(string(models.UserRoleAdmin)), uploadInvoiceHandler())
		invoices.POST("/verify/:id", middlewares.RequireRole(string(models.UserRoleAdmin)), verifyInvoiceHandler())
	}

	// Fraud review surface is admin only.
	fraudGroup := r.Group("/fraud", middlewares.RequireRole(string(models.UserRoleAdmin)))
	{
		fraudGroup.GET("/high-risk", highRiskHandler())
		fraudGroup.GET("/filter", fraudFilterHandler())
		fraudGroup.GET("/summary", fraudSummaryHandler())
		fraudGroup.POST("/flag/:invoiceId", flagInvoiceHandler())
		fraudGroup.GET("/export", fraudExportHandler())
	}

	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (Cloud Run startup probe is TCP based).
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
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	// Now DB is ready; run migrations.
	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// IMPORTANT: AutoMigrate can run DDL that blocks tables and causes 504/502 timeouts.
	// Allow disabling migrations on startup (run them as a separate job instead).
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Start the alert dispatcher (publishes AFTER commit).
	dispatcherCtx, cancelDispatcher := context.WithCancel(context.Background())
	defer cancelDispatcher()
	if config.AlertPublishingEnabled() {
		go workflow.NewAlertDispatcher(db, logger).Run(dispatcherCtx)
	} else {
		logger.WithFields(logrus.Fields{"field": "alerts"}).Warn("FRAUD_ALERTS_ENABLED not set; alert dispatcher disabled")
	}

	// Set the session isolation level to READ COMMITTED
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<minInt(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop background workers first so they don't start new work while we're draining.
	cancelDispatcher()

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
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

// Initialize a new RateLimiter instance.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Middleware function to check rate limits.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	// Get the IP address or user identifier from the request.
	key := c.ClientIP() // Assuming IP-based rate limiting

	// Check if the key exists in Redis.
	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the key doesn't exist, create it and set expiry.
	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	// If the key exists, get the current count.
	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the count exceeds the limit, return an error response.
	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

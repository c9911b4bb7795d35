package router

import (
	"time"

	"oticash/internal/config"
	"oticash/internal/handler"
	"oticash/internal/middleware"
	"oticash/internal/repository"
	"oticash/internal/service"
	"oticash/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns the configured Gin engine plus
// the reconcile service, which the caller also feeds to the worker pool
// and the periodic sweep.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*gin.Engine, service.ReconcileService) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	registerRepo := repository.NewRegisterRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	paymentSvc := service.NewPaymentService(paymentRepo, registerRepo, dispatcher)
	registerSvc := service.NewRegisterService(registerRepo, paymentSvc)
	reconcileSvc := service.NewReconcileService(registerRepo, registerSvc)
	exportSvc := service.NewExportService(paymentSvc)

	// ── Handlers ─────────────────────────────────────────────────────────────
	registersH := handler.NewRegisterHandler(registerSvc)
	paymentsH := handler.NewPaymentHandler(paymentSvc)
	exportsH := handler.NewExportHandler(exportSvc, time.Duration(cfg.ExportTimeoutSeconds)*time.Second)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: cashier, manager, admin — declared per-endpoint
		registers := v1.Group("/registers")
		{
			registers.POST("/open", middleware.RequireRole("cashier", "manager", "admin"), registersH.Open)
			registers.GET("/current", middleware.RequireRole("cashier", "manager", "admin"), registersH.GetCurrent)
			registers.POST("/close", middleware.RequireRole("cashier", "manager", "admin"), registersH.Close)
			registers.GET("", middleware.RequireRole("manager", "admin"), registersH.List)
			registers.GET("/:id", middleware.RequireRole("cashier", "manager", "admin"), registersH.GetReport)
			registers.GET("/:id/summary", middleware.RequireRole("cashier", "manager", "admin"), exportsH.GetSummary)
			registers.GET("/:id/export", middleware.RequireRole("manager", "admin"), exportsH.Export)
		}

		payments := v1.Group("/payments")
		{
			payments.POST("", middleware.RequireRole("cashier", "manager", "admin"), paymentsH.Record)
			payments.GET("", middleware.RequireRole("cashier", "manager", "admin"), paymentsH.List)
			payments.POST("/:id/cancel", middleware.RequireRole("manager", "admin"), paymentsH.Cancel)
			payments.POST("/:id/complete", middleware.RequireRole("cashier", "manager", "admin"), paymentsH.Complete)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, reconcileSvc
}

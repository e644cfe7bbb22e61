package router

import (
	"time"

	"khatapos/internal/config"
	"khatapos/internal/handler"
	"khatapos/internal/infra"
	"khatapos/internal/middleware"
	"khatapos/internal/repository"
	"khatapos/internal/service"
	"khatapos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, mailerCB *infra.CircuitBreaker) *gin.Engine {
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
	userRepo := repository.NewUserRepository(db)
	billRepo := repository.NewBillRepository(db)
	creditRepo := repository.NewReturnCreditRepository(db)
	eventRepo := repository.NewPaymentEventRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	ledgerSvc := service.NewLedgerService(billRepo, creditRepo, eventRepo, rdb)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	billsH := handler.NewBillsHandler(ledgerSvc)
	returnsH := handler.NewReturnsHandler(ledgerSvc)
	dispatcher := worker.NewDispatcher(rdb)
	customersH := handler.NewCustomersHandler(ledgerSvc, dispatcher)
	balancesH := handler.NewBalancesHandler(ledgerSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, mailerCB))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: cashier, owner — declared per-endpoint
		anyStaff := middleware.RequireRole("cashier", "owner")
		ownerOnly := middleware.RequireRole("owner")

		v1.POST("/bills", anyStaff, billsH.Create)
		v1.GET("/bills", anyStaff, billsH.List)
		v1.GET("/bills/:id/payments", anyStaff, billsH.ListPayments)

		v1.POST("/returns", anyStaff, returnsH.Create)
		v1.GET("/returns", anyStaff, returnsH.List)

		v1.GET("/customers", anyStaff, customersH.List)
		v1.GET("/customers/:phone", anyStaff, customersH.Get)
		v1.GET("/customers/:phone/statement", anyStaff, customersH.Statement)
		v1.POST("/customers/:phone/payments", anyStaff, customersH.RecordPayment)
		v1.POST("/customers/:phone/remind", anyStaff, customersH.Remind)

		// Manual balances adjust the ledger outside a sale — owner only
		v1.POST("/balances", ownerOnly, balancesH.Create)

		users := v1.Group("/users", ownerOnly)
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

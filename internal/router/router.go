package router

import (
	"time"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/changefeed"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/config"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/handler"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/middleware"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/repository"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Repositories is the storage surface shared by the API and the workers.
// Both the gorm repositories and the memory store provide it.
type Repositories struct {
	Orders    repository.OrderRepository
	Tables    repository.TableRepository
	Registers repository.CashRegisterRepository
	Employees repository.EmployeeRepository
	Products  repository.ProductRepository
}

// GormRepositories builds the postgres-backed repositories.
func GormRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Orders:    repository.NewOrderRepository(db),
		Tables:    repository.NewTableRepository(db),
		Registers: repository.NewCashRegisterRepository(db),
		Employees: repository.NewEmployeeRepository(db),
		Products:  repository.NewProductRepository(db),
	}
}

// Services is built once per process. The register service serializes its
// writes in memory, so the HTTP layer and the workers must share it.
type Services struct {
	Defaults  service.DefaultsService
	Tables    service.TableService
	Registers service.CashRegisterService
	Orders    service.OrderService
}

// NewServices wires the service graph: Service ← Repository.
// jobs may be nil, in which case follow-up work runs only inline.
func NewServices(cfg *config.Config, repos Repositories, jobs service.JobQueue) *Services {
	defaults := service.NewDefaultsService(repos.Employees, repos.Registers, cfg.DefaultEmployeeName)
	tables := service.NewTableService(repos.Tables, repos.Orders, repos.Employees)
	registers := service.NewCashRegisterService(repos.Registers, repos.Employees, defaults, jobs)
	orders := service.NewOrderService(
		repos.Orders, repos.Products, repos.Employees, repos.Tables,
		tables, registers, jobs,
		service.NewJoiner(repos.Employees, repos.Tables),
		cfg.DefaultAttendantName,
	)
	return &Services{Defaults: defaults, Tables: tables, Registers: registers, Orders: orders}
}

// Deps are the runtime dependencies of the HTTP layer. DB and Redis are only
// used by the health check and may be nil.
type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Services *Services
	Products repository.ProductRepository
	Stream   changefeed.Stream
	Feed     handler.FeedState
}

// New returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Memory
func New(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.Metrics())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Handlers ─────────────────────────────────────────────────────────────
	svc := deps.Services
	ordersH := handler.NewOrdersHandler(svc.Orders, svc.Tables)
	tablesH := handler.NewTablesHandler(svc.Tables)
	registerH := handler.NewCashRegisterHandler(svc.Registers)
	productsH := handler.NewProductsHandler(deps.Products, deps.Redis)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(deps.DB, deps.Redis, deps.Feed))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected routes
	api := r.Group("", middleware.JWTAuth(cfg.JWTSecret))
	{
		order := api.Group("/order")
		{
			order.POST("", ordersH.Create)
			order.GET("", ordersH.List)
			order.GET("/:id", ordersH.Get)
			order.POST("/:id/item", ordersH.AddItem)
			order.DELETE("/:id/item/:productRef", ordersH.RemoveItem)
			order.PUT("/:id/item/:productRef", ordersH.UpdateItem)
			order.PUT("/:id/discount", ordersH.ApplyDiscount)
			order.PUT("/:id/finalize", ordersH.Finalize)
			order.PUT("/:id/cancel", ordersH.Cancel)
		}

		table := api.Group("/table")
		{
			table.POST("", tablesH.Create)
			table.GET("", tablesH.List)
			table.GET("/summary", tablesH.Summary)
			table.GET("/:id", tablesH.Get)
			table.POST("/:id/open", tablesH.Open)
			table.POST("/:id/close", tablesH.Close)
			table.PUT("/:id", tablesH.Update)
		}

		register := api.Group("/cashregister")
		{
			register.POST("/open", registerH.Open)
			register.PUT("/:id/close", registerH.Close)
			register.POST("/register-sale", registerH.RegisterSale)
			register.GET("/open-current", registerH.CurrentOpen)
			register.GET("/:id/report", registerH.Report)
		}

		api.GET("/product/:id", productsH.Get)

		// Live change feed (SSE)
		if deps.Stream != nil {
			api.GET("/events", handler.Events(deps.Stream))
		}
	}

	// Swagger UI, only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

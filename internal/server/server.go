// Package server assembles repositories, services and handlers into the
// HTTP router.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	_ "lpotracker/api/swagger" // swagger docs
	"lpotracker/internal/auth"
	"lpotracker/internal/events"
	"lpotracker/internal/handler"
	"lpotracker/internal/metrics"
	"lpotracker/internal/middleware"
	"lpotracker/internal/repository"
	"lpotracker/internal/repository/memory"
	"lpotracker/internal/service"
	"lpotracker/internal/websocket"
	"lpotracker/pkg/response"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

func init() {
	// request bodies with fields the API does not know are rejected
	binding.EnableDecoderDisallowUnknownFields = true
}

// Repositories is the storage backend the services run on
type Repositories struct {
	Tx           repository.TransactionManager
	Users        repository.UserRepository
	Products     repository.ProductRepository
	Suppliers    repository.SupplierRepository
	Requisitions repository.RequisitionRepository
	LPOs         repository.LPORepository
	Statistics   repository.StatisticsRepository
}

func PostgresRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Tx:           repository.NewTransactionManager(db),
		Users:        repository.NewUserRepository(db),
		Products:     repository.NewProductRepository(db),
		Suppliers:    repository.NewSupplierRepository(db),
		Requisitions: repository.NewRequisitionRepository(db),
		LPOs:         repository.NewLPORepository(db),
		Statistics:   repository.NewStatisticsRepository(db),
	}
}

func MemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		Tx:           store.TransactionManager(),
		Users:        store.Users(),
		Products:     store.Products(),
		Suppliers:    store.Suppliers(),
		Requisitions: store.Requisitions(),
		LPOs:         store.LPOs(),
		Statistics:   store.Statistics(),
	}
}

// Options configures the router
type Options struct {
	Repos          Repositories
	Tokens         *auth.TokenManager
	Publisher      events.Publisher
	Hub            *websocket.Hub // nil disables /ws
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	AllowedOrigins []string
	// HealthCheck reports storage reachability on /health; nil means always healthy
	HealthCheck func(ctx context.Context) error
}

// NewRouter wires Repository -> Service -> Handler and registers every route.
func NewRouter(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	publisher := opts.Publisher
	if publisher == nil {
		publisher = events.Discard
	}
	repos := opts.Repos

	userService := service.NewUserService(repos.Users, opts.Tokens, logger)
	catalogService := service.NewCatalogService(repos.Products, repos.Suppliers)
	requisitionService := service.NewRequisitionService(repos.Requisitions, repos.Products, publisher, opts.Metrics, logger)
	lpoService := service.NewLPOService(repos.Tx, repos.LPOs, repos.Requisitions, repos.Suppliers, publisher, opts.Metrics, logger)
	statisticsService := service.NewStatisticsService(repos.Statistics)

	userHandler := handler.NewUserHandler(userService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	requisitionHandler := handler.NewRequisitionHandler(requisitionService)
	lpoHandler := handler.NewLPOHandler(lpoService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(logger))
	if opts.Metrics != nil {
		router.Use(middleware.Metrics(opts.Metrics))
	}

	corsConfig := cors.DefaultConfig()
	if len(opts.AllowedOrigins) == 0 || opts.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = opts.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", middleware.RequestIDHeader}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"X-Total-Count", middleware.RequestIDHeader}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, response.Message("Welcome to the LPO tracker API"))
	})
	router.GET("/health", func(c *gin.Context) {
		if opts.HealthCheck != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := opts.HealthCheck(ctx); err != nil {
				_ = c.Error(err)
				c.JSON(http.StatusServiceUnavailable, response.Error(http.StatusServiceUnavailable, "database unavailable"))
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}
	if opts.Hub != nil {
		router.GET("/ws", websocket.ServeWs(opts.Hub, opts.Tokens))
	}

	authenticate := middleware.Authenticate(opts.Tokens)
	api := router.Group("")
	userHandler.RegisterRoutes(api, authenticate)
	catalogHandler.RegisterRoutes(api)
	requisitionHandler.RegisterRoutes(api, authenticate)
	lpoHandler.RegisterRoutes(api, authenticate)
	statisticsHandler.RegisterRoutes(api, authenticate)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "route not found"))
	})
	return router
}

package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sky266_backend/internal/config"
	"sky266_backend/internal/controller"
	"sky266_backend/internal/model"
	"sky266_backend/internal/repository"
	"sky266_backend/internal/service"
	"sky266_backend/pkg/database"
	"sky266_backend/pkg/kvstore"
	"sky266_backend/pkg/logger"
	"sky266_backend/pkg/monitoring"
	"sky266_backend/pkg/security"
	"sky266_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	Store           kvstore.Store
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type services struct {
	bus     *service.ProgressBus
	session *service.SessionService
	auth    *service.AuthService
	roster  *service.RosterService
	storage *service.StorageService
	admin   *service.AdminService
}

type controllers struct {
	auth        *controller.AuthController
	progress    *controller.ProgressController
	certificate *controller.CertificateController
	roster      *controller.RosterController
	admin       *controller.AdminController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig fans a reloaded configuration out to the registered callbacks.
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepository(store kvstore.Store, db *gorm.DB, cfg *config.Config) *repository.TrainingRepository {
	var backend repository.Backend
	if db != nil {
		backend = repository.NewRemoteRepository(db)
	}
	return repository.NewTrainingRepository(store, backend, cfg)
}

func (a *App) initServices(repo *repository.TrainingRepository, cfg *config.Config, rdb *redis.Client) (*services, error) {
	s := &services{}

	s.bus = service.NewProgressBus()
	s.session = service.NewSessionService(repo, cfg, s.bus)

	// Repository-level writes (record endpoints, certificate count updates)
	// bypass the session, so the listener rebroadcasts them and reconciles
	// the in-memory copy.
	repo.SetProgressListener(func(userID string, p *model.TrainingProgress) {
		s.session.HandleExternalUpdate(userID, p)
		s.bus.Publish(service.ProgressEvent{UserID: userID, Progress: *p})
	})

	s.auth = service.NewAuthService(repo, s.session, cfg)
	s.roster = service.NewRosterService(repo, rdb, cfg, s.bus)
	s.admin = service.NewAdminService(repo, s.session)

	storage, err := service.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}
	s.storage = storage

	return s, nil
}

func (a *App) initControllers(s *services, repo *repository.TrainingRepository) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth, s.session),
		progress:    controller.NewProgressController(s.session, repo),
		certificate: controller.NewCertificateController(repo, s.storage),
		roster:      controller.NewRosterController(s.roster),
		admin:       controller.NewAdminController(s.admin),
		health:      controller.NewHealthController(a.Store, a.DB, a.Redis),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	store, err := openStore(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to open store", zap.Error(err))
	}

	var db *gorm.DB
	if cfg.Remote.Enabled {
		db, err = database.InitDB(&cfg.Remote.Database)
		if err != nil {
			logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		}
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
	}

	app := &App{
		Config: cfg,
		Store:  store,
		DB:     db,
		Redis:  rdb,
	}

	repo := app.initRepository(store, db, cfg)
	services, err := app.initServices(repo, cfg, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	app.services = services
	controllers := app.initControllers(services, repo)

	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("training-portal", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/exports", cfg.Storage.LocalPath)
	}

	return app
}

func openStore(cfg *config.Config) (kvstore.Store, error) {
	if cfg.Store.Path == "" {
		logger.Log.Warn("store path empty, running with in-memory store")
		return kvstore.NewMemStore(), nil
	}
	return kvstore.OpenFileStore(cfg.Store.Path)
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	logger.Log.Sync()
	log.Println("Server exiting")
}

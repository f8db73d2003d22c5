package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"stockdesk/internal/config"
	"stockdesk/internal/database"
	custommiddleware "stockdesk/internal/middleware"
	"stockdesk/internal/notify"
	"stockdesk/internal/repository"
	"stockdesk/internal/service"
	"stockdesk/internal/storage"
	"stockdesk/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
	pdf    pinger
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the external collaborators the server is wired from.
type Dependencies struct {
	DB      database.Service
	Redis   *redis.Client
	Objects storage.ObjectStore
	PDF     notify.PDFRenderer
	Mailer  notify.Mailer
}

// NewServer builds the S3 store, Gotenberg client and log mailer from cfg and wires the router.
func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client) (*Server, error) {
	objects, err := storage.NewS3Store(ctx,
		cfg.Upload.S3Region,
		cfg.Upload.S3Bucket,
		cfg.Upload.S3AccessKeyID,
		cfg.Upload.S3SecretKey,
		cfg.Upload.S3BaseURL,
		cfg.Upload.S3KeyPrefix,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create image store: %w", err)
	}

	return NewServerWith(cfg, logger, Dependencies{
		DB:      db,
		Redis:   redisClient,
		Objects: objects,
		PDF:     notify.NewGotenbergClient(cfg.Store.GotenbergURL),
		Mailer:  notify.NewLogMailer(logger),
	})
}

// NewServerWith wires the router from already constructed dependencies.
func NewServerWith(cfg *config.Config, logger *zap.Logger, deps Dependencies) (*Server, error) {
	renderer, err := notify.NewRenderer()
	if err != nil {
		return nil, err
	}
	store := notify.Store{Name: cfg.Store.Name, LogoURL: cfg.Store.LogoURL}
	branding := notify.Branding{PrimaryColor: cfg.Store.PrimaryColor, AccentColor: cfg.Store.AccentColor}

	// Repositories
	itemRepo := repository.NewItemRepository(deps.DB.DB())
	draftStore := repository.NewDraftStore(deps.Redis, cfg.Drafts.TTL)

	// Services
	lowStock := service.NewMailLowStockNotifier(renderer, deps.Mailer, cfg.Store.LowStockEmail, store, branding)
	inventoryService := service.NewInventoryService(itemRepo, lowStock, logger)
	draftService := service.NewDraftService(draftStore, inventoryService, service.DraftDefaults{
		DefaultStock:        cfg.Drafts.DefaultStock,
		DefaultReorderLevel: cfg.Drafts.DefaultReorderLevel,
	}, logger)
	imageService := service.NewImageService(deps.Objects, cfg.Upload.MaxBytes, cfg.Upload.AllowedTypes, logger)
	receiptService := service.NewReceiptService(renderer, deps.PDF, store, branding, logger)

	// Handlers
	draftHandler := transport.NewDraftHandler(draftService, logger)
	inventoryHandler := transport.NewInventoryHandler(inventoryService, imageService, cfg.Upload.MaxBytes, logger)
	receiptHandler := transport.NewReceiptHandler(receiptService, logger)

	router := chi.NewRouter()
	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.IsDevelopment()))

	s := &Server{
		config: cfg,
		logger: logger,
		db:     deps.DB,
		redis:  deps.Redis,
	}
	if p, ok := deps.PDF.(pinger); ok {
		s.pdf = p
	}
	router.Get("/health", s.health)

	router.Group(func(r chi.Router) {
		r.Use(custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger))
		r.Use(custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "ratelimit",
		}, logger))

		writers := custommiddleware.RequireRole(logger, custommiddleware.RoleAdmin, custommiddleware.RoleManager)
		admins := custommiddleware.RequireRole(logger, custommiddleware.RoleAdmin)

		draftHandler.RegisterRoutes(r, writers)
		inventoryHandler.RegisterRoutes(r, admins)
		receiptHandler.RegisterRoutes(r)
	})

	s.Server = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
	return s, nil
}

// health reports database and Redis status. Either one down makes the service unavailable.
// A down PDF renderer marks the status degraded and keeps 200.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbHealth := s.db.Health(ctx)
	redisStatus := "up"
	if err := s.redis.Ping(ctx).Err(); err != nil {
		s.logger.Warn("Redis health check failed", zap.Error(err))
		redisStatus = "down"
	}

	status, code := "ok", http.StatusOK
	if dbHealth["status"] != "up" || redisStatus != "up" {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	body := map[string]any{
		"status":   status,
		"database": dbHealth,
		"redis":    redisStatus,
	}
	if s.pdf != nil {
		pdfStatus := "up"
		if err := s.pdf.Ping(ctx); err != nil {
			s.logger.Warn("PDF renderer health check failed", zap.Error(err))
			pdfStatus = "down"
			status = "degraded"
		}
		body["status"] = status
		body["pdf"] = pdfStatus
	}

	custommiddleware.RespondWithJSON(w, code, body)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	_ = s.logger.Sync()
	return nil
}

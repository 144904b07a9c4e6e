package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"event-booking/config"
	"event-booking/internal/handlers"
	"event-booking/internal/services"
	"event-booking/internal/storage"
	"event-booking/models"
	"event-booking/monitoring"
	"event-booking/security"
	"event-booking/utils"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	pubnub "github.com/pubnub/go"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func Start() error {
	cfg := config.LoadConfig()
	setupLogger(os.Stderr, cfg)

	app := pocketbase.NewWithConfig(pocketbase.Config{DefaultDev: cfg.IsDevelopment()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	seed, categories, err := loadCatalog(cfg.CatalogFile)
	if err != nil {
		return err
	}

	// Initialize PubNub
	var publisher services.Publisher
	if cfg.PubNubPublishKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey
		pnConfig.UUID = cfg.PubNubUserID
		publisher = services.NewPubNubPublisher(pubnub.NewPubNub(pnConfig))
	} else {
		slog.Warn("PubNub is not configured, realtime notifications are disabled")
	}

	// Initialize services
	store := backend.Store
	notificationService := services.NewNotificationService(store, publisher)
	catalogService := services.NewCatalogService(store, notificationService, seed, categories)
	ticketService := services.NewTicketService(store)
	favoritesService := services.NewFavoritesService(store, catalogService)
	bookingService := services.NewBookingService(catalogService, ticketService, notificationService, services.WizardOptions{
		PublicURL:     cfg.PublicURL,
		MaxImageBytes: cfg.MaxUploadBytes,
	})
	authService := services.NewAuthService(store, services.AuthConfig{
		Secret:             []byte(cfg.JWTSecret),
		SessionTTL:         cfg.SessionTTL,
		GoogleClientID:     cfg.GoogleClientID,
		GoogleClientSecret: cfg.GoogleClientSecret,
		GoogleRedirectURL:  cfg.GoogleRedirectURL,
	})
	profileService := services.NewProfileService(store, cfg.MaxUploadBytes)
	reviewService := services.NewReviewService(store)
	taskRunner := services.NewTaskRunner(10 * time.Second)

	var limiter security.Limiter = security.NewLocalLimiter(cfg.RateLimitPerMinute)
	if backend.Redis != nil {
		limiter = security.NewRedisLimiter(backend.Redis, cfg.RateLimitPerMinute)
	}

	// Initialize handlers
	api := &handlers.API{
		Auth:          handlers.NewAuthHandler(authService, bookingService),
		Events:        handlers.NewEventHandler(catalogService, reviewService, favoritesService, cfg.PublicURL),
		Bookings:      handlers.NewBookingHandler(bookingService, cfg.MaxUploadBytes),
		Tickets:       handlers.NewTicketHandler(ticketService, taskRunner, publisher, cfg.PublicURL),
		Favorites:     handlers.NewFavoritesHandler(favoritesService, catalogService),
		Notifications: handlers.NewNotificationHandler(notificationService, taskRunner),
		Profile:       handlers.NewProfileHandler(profileService, cfg.MaxUploadBytes),
		Limiter:       security.NewRateLimiter(limiter),
	}

	app.RootCmd.AddCommand(newCatalogCommand(cfg))

	// Start background tasks
	bookingService.SetIdleTTL(cfg.WizardIdleTTL)
	go bookingService.Run(ctx, time.Minute)

	if cfg.EnableMetrics {
		monitor := monitoring.NewMonitor(30 * time.Second)
		go monitor.Run(ctx)
		go func() {
			if err := monitor.Serve(ctx, ":"+cfg.MetricsPort); err != nil {
				slog.Error("Metrics server stopped", "error", err)
			}
		}()
	}

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		se.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := backend.Health(e.Request.Context()); err != nil {
				return e.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(http.StatusOK, map[string]string{
				"status":  "healthy",
				"storage": backend.Name,
			})
		})

		api.Register(se.Router)

		slog.Info("Server routes registered", "public_url", cfg.PublicURL, "storage", backend.Name)
		return se.Next()
	})

	// serve on the configured port when started without a command
	if len(os.Args) == 1 {
		app.RootCmd.SetArgs([]string{"serve", "--http", "0.0.0.0:" + cfg.Port})
	}

	return app.Start()
}

func setupLogger(w io.Writer, cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// storageBackend is the configured Store plus what it needs to be checked
// and closed.
type storageBackend struct {
	Name   string
	Store  storage.Store
	Redis  *redis.Client
	Health func(ctx context.Context) error
	Close  func() error
}

func openStorage(cfg *config.Config) (*storageBackend, error) {
	switch cfg.StorageBackend {
	case "memory", "":
		return &storageBackend{
			Name:   "memory",
			Store:  storage.NewMemoryStore(),
			Health: func(context.Context) error { return nil },
			Close:  func() error { return nil },
		}, nil

	case "redis":
		client, err := utils.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return &storageBackend{
			Name:  "redis",
			Store: storage.NewRedisStore(client),
			Redis: client,
			Health: func(ctx context.Context) error {
				return utils.RedisHealthCheck(ctx, client)
			},
			Close: client.Close,
		}, nil

	case "sqlite":
		store, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &storageBackend{
			Name:   "sqlite",
			Store:  store,
			Health: store.DB.DB().PingContext,
			Close:  store.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

// loadCatalog returns the built-in catalog, or the one in path when set.
func loadCatalog(path string) ([]models.Event, []models.Category, error) {
	if path == "" {
		return services.DefaultEvents(), services.DefaultCategories(), nil
	}

	file, err := services.LoadCatalogFile(path)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("Loaded catalog file", "path", path, "events", len(file.Events))
	return file.Events, file.Categories, nil
}

func newCatalogCommand(cfg *config.Config) *cobra.Command {
	var file string

	command := &cobra.Command{
		Use:   "catalog",
		Short: "Print the event catalog the server would serve as YAML",
		RunE: func(command *cobra.Command, args []string) error {
			events, categories, err := loadCatalog(file)
			if err != nil {
				return err
			}

			out, err := yaml.Marshal(services.CatalogFile{Categories: categories, Events: events})
			if err != nil {
				return err
			}
			_, err = command.OutOrStdout().Write(out)
			return err
		},
	}
	command.Flags().StringVar(&file, "file", cfg.CatalogFile, "YAML catalog to print instead of the built-in one")
	return command
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	slog.Info("Shutdown signal received, cleaning up...")
	cancel()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"estatehub/cmd/internal/auth"
	"estatehub/cmd/internal/config"
	"estatehub/cmd/internal/domain/database"
	"estatehub/cmd/internal/domain/database/repository"
	"estatehub/cmd/internal/events"
	cognitoclient "estatehub/cmd/internal/integration/aws/cognito"
	"estatehub/cmd/internal/integration/localidp"
	"estatehub/cmd/internal/monitoring"
	"estatehub/cmd/internal/routes"
	"estatehub/cmd/internal/service"
	"estatehub/cmd/internal/utils/validators"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	log.SetLevel(logLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// Database
	db, err := database.Open(database.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime.Duration,
		Debug:           cfg.Database.Debug,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	tx := database.NewTransactor(db)

	idp, err := identityProvider(ctx, cfg, db)
	if err != nil {
		return fmt.Errorf("failed to initialize identity provider: %w", err)
	}

	location, err := cfg.Location()
	if err != nil {
		return err
	}

	// Live feed. With Redis enabled every instance publishes to the shared
	// channel and relays it back into its own hub.
	hub := events.NewHub()
	hub.OnClientCount(monitoring.TrackLiveClients)
	var (
		publisher events.Publisher = hub
		bus       *events.RedisBus
	)
	checks := map[string]routes.Check{
		"database": func(context.Context) error { return database.Ping(db) },
	}
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		bus = events.NewRedisBus(client, cfg.Redis.Channel)
		publisher = bus
		checks["redis"] = bus.Ping
	}

	validate := validators.New()

	// Getting repositories
	userRepo := repository.NewUserRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)
	auctionRepo := repository.NewAuctionRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Getting services
	userService := service.NewUserService(userRepo, validate, idp)
	propertyService := service.NewPropertyService(propertyRepo, userRepo, validate)
	paymentService := service.NewPaymentService(paymentRepo, tx, validate)
	availabilityService := service.NewAvailabilityService(availabilityRepo, userRepo, validate, service.SchedulingSettings{
		Location:           location,
		DefaultSlotMinutes: cfg.Scheduling.DefaultSlotMinutes,
	})
	apptService := service.NewAppointmentService(apptRepo, availabilityRepo, propertyRepo, userRepo, availabilityService, tx, validate)
	auctionService := service.NewAuctionService(auctionRepo, propertyRepo, purchaseRepo, paymentRepo, userRepo, tx, publisher, validate, service.AuctionSettings{
		BidRetries:      cfg.Auction.BidRetries,
		DefaultDuration: cfg.Auction.DefaultDuration.Duration,
	})
	purchaseService := service.NewPurchaseService(purchaseRepo, paymentRepo, propertyRepo, tx, validate)
	messageService := service.NewMessageService(messageRepo, userRepo, propertyRepo, validate)

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(logLevel(cfg.LogLevel))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				log.Errorf("%s %s %d %s id=%s err=%v", v.Method, v.URI, v.Status, v.Latency, v.RequestID, v.Error)
				return nil
			}
			log.Infof("%s %s %d %s id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.Server.CORSOrigins}))
	if cfg.Server.RateLimit > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.Server.RateLimit))))
	}
	e.Use(monitoring.Middleware())

	routes.Register(e, &routes.Handlers{
		Users:        routes.NewUserDefault(userService),
		Properties:   routes.NewPropertyDefault(propertyService),
		Payments:     routes.NewPaymentDefault(paymentService),
		Availability: routes.NewAvailabilityDefault(availabilityService),
		Appointments: routes.NewAppointmentDefault(apptService),
		Auctions:     routes.NewAuctionDefault(auctionService),
		Purchases:    routes.NewPurchaseDefault(purchaseService),
		Messages:     routes.NewMessageDefault(messageService),
		Health:       routes.NewHealthDefault(checks),
		LiveFeed:     hub.HandleWS,
		Metrics:      monitoring.Handler(),
	}, auth.Middleware(idp, userRepo))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(ctx) })
	if bus != nil {
		g.Go(func() error { return bus.Relay(ctx, hub) })
	}
	g.Go(func() error {
		err := e.Start(fmt.Sprintf(":%d", cfg.Server.Port))
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func identityProvider(ctx context.Context, cfg *config.Config, db *gorm.DB) (cognitoclient.CognitoInterface, error) {
	if cfg.Auth.Provider == config.ProviderCognito {
		return cognitoclient.InitCognitoClient(ctx, cognitoclient.Settings{
			Region:     cfg.Auth.Cognito.Region,
			UserPoolID: cfg.Auth.Cognito.UserPoolID,
			ClientID:   cfg.Auth.Cognito.ClientID,
		})
	}
	log.Warn("using the local identity provider")
	return localidp.New(db, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL.Duration)
}

func logLevel(level string) log.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	}
	return log.INFO
}

// cmd/api/main.go
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/food-delivery-backend/internal/config"
	"github.com/your-org/food-delivery-backend/internal/domain/cart"
	"github.com/your-org/food-delivery-backend/internal/domain/catalog"
	"github.com/your-org/food-delivery-backend/internal/domain/checkout"
	"github.com/your-org/food-delivery-backend/internal/domain/favorite"
	"github.com/your-org/food-delivery-backend/internal/domain/order"
	"github.com/your-org/food-delivery-backend/internal/domain/promo"
	"github.com/your-org/food-delivery-backend/internal/domain/review"
	"github.com/your-org/food-delivery-backend/internal/domain/user"
	"github.com/your-org/food-delivery-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/food-delivery-backend/internal/infrastructure/database/redis"
	"github.com/your-org/food-delivery-backend/internal/infrastructure/messaging"
	"github.com/your-org/food-delivery-backend/internal/interfaces/http"
	"github.com/your-org/food-delivery-backend/internal/interfaces/http/handlers"
	"github.com/your-org/food-delivery-backend/internal/interfaces/http/routes"
	"github.com/your-org/food-delivery-backend/internal/pkg/logger"
	"github.com/your-org/food-delivery-backend/internal/pkg/pdf"
)

func main() {
	reset := flag.Bool("reset", false, "drop and re-create all tables before starting (development only)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	log := logger.New(cfg)
	log.WithFields(logrus.Fields{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Infof("Starting %s", cfg.App.Name)

	// Connect to database
	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// Connect to Redis
	redisClient, err := redis.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// Run database migrations
	migration := postgres.NewMigration(db.GetDB(), log)

	if *reset {
		if !cfg.IsDevelopment() {
			log.Fatal("Refusing to reset the database outside development")
		}
		if err := migration.DropAllTables(); err != nil {
			log.WithError(err).Fatal("Database reset failed")
		}
	}

	if err := migration.RunAutoMigrations(); err != nil {
		log.WithError(err).Fatal("Database migration failed")
	}
	if err := migration.CreateIndexes(); err != nil {
		log.WithError(err).Warn("Index creation failed")
	}

	// Seed initial data in development
	if cfg.IsDevelopment() {
		if err := migration.SeedInitialData(); err != nil {
			log.WithError(err).Warn("Data seeding failed")
		}
	}

	// Order updates fan out through Redis so every instance sees every transition
	hub := order.NewHub(0)
	redisNotifier := order.NewRedisNotifier(redisClient.GetClient(), hub, log)
	if err := redisNotifier.Start(context.Background()); err != nil {
		log.WithError(err).Fatal("Failed to subscribe to order updates")
	}

	var notifier order.Notifier = redisNotifier
	var publisher *messaging.Publisher
	if cfg.RabbitMQ.URL != "" {
		conn, err := messaging.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.WithError(err).Warn("RabbitMQ unavailable, order events will not be exported")
		} else {
			publisher = messaging.NewPublisher(conn, log)
			notifier = order.NewMultiNotifier(redisNotifier, log, publisher)
		}
	}

	// Domain services
	orderStore := order.NewRepository(db.GetDB())
	engine := order.NewEngine(orderStore, notifier, log, order.Options{
		Dwell: map[order.OrderStatus]time.Duration{
			order.OrderStatusConfirmed: cfg.Delivery.ConfirmedDwell,
			order.OrderStatusPreparing: cfg.Delivery.PreparingDwell,
			order.OrderStatusPickedUp:  cfg.Delivery.PickedUpDwell,
			order.OrderStatusOnTheWay:  cfg.Delivery.OnTheWayDwell,
		},
		RetryInterval: cfg.Delivery.RetryInterval,
		Drivers:       cfg.Delivery.Drivers,
		Lease:         order.NewRedisLease(redisClient.GetClient(), cfg.Delivery.DriverLeaseTTL),
		LeaseRefresh:  cfg.Delivery.DriverLeaseTTL / 3,
	})
	orderService := order.NewService(orderStore, notifier, log)

	catalogService := catalog.NewService(db.GetDB(), redisClient.GetClient(), log)
	promoRepository := promo.NewRepository(db.GetDB())
	addressService := user.NewAddressService(db.GetDB())
	carts := cart.NewSessionStore(redisClient.GetClient(), cfg.Cart.SessionTTL)
	promoSessions := promo.NewSessionStore(redisClient.GetClient(), cfg.Cart.SessionTTL)
	reviewService := review.NewService(db.GetDB(), orderService, catalogService, log)

	promoEvaluator := promo.NewEvaluator(promoRepository)
	assembler := checkout.NewAssembler(orderStore, addressService, promoEvaluator, promoRepository, log, checkout.Options{
		DeliveryFee: cfg.Delivery.Fee,
		ETAWindow:   cfg.Delivery.ETAWindow,
		Currency:    cfg.App.Currency,
		OnPlaced: func(o *order.Order) {
			engine.StartProgression(o.ID)
		},
	})

	// Pick up orders that were in flight when the last instance stopped
	resumed, err := engine.ResumeActive(context.Background())
	if err != nil {
		log.WithError(err).Warn("Failed to resume active orders")
	} else if resumed > 0 {
		log.WithField("count", resumed).Info("Resumed order progression")
	}

	server := http.NewServer(cfg, redisClient.GetClient(), routes.Handlers{
		Restaurants: handlers.NewRestaurantHandler(catalogService),
		Cart: handlers.NewCartHandler(
			catalogService,
			carts,
			promoSessions,
			promoEvaluator,
			cfg.Delivery.Fee,
			log,
		),
		Addresses:   handlers.NewAddressHandler(addressService),
		Checkout:    handlers.NewCheckoutHandler(assembler, carts, promoSessions, log),
		Orders:      handlers.NewOrderHandler(orderService, engine, pdf.NewService(cfg), cfg.Security.CORSAllowedOrigins, log),
		AdminOrders: handlers.NewAdminOrderHandler(orderService, engine, log),
		Favorites:   handlers.NewFavoriteHandler(favorite.NewService(db.GetDB())),
		Reviews:     handlers.NewReviewHandler(reviewService),
	}, map[string]http.HealthChecker{
		"database": db,
		"redis":    redisClient,
	}, log)

	log.Info("All systems operational")

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully")

	// Give server 30 seconds to shutdown gracefully
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	engine.Shutdown()
	if err := redisNotifier.Close(); err != nil {
		log.WithError(err).Warn("Failed to close order update subscription")
	}
	hub.Close()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.WithError(err).Warn("Failed to close RabbitMQ connection")
		}
	}

	log.Info("Server shutdown completed")
}

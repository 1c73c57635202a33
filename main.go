// main.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-eshop/cache"
	"go-eshop/controllers"
	"go-eshop/events"
	"go-eshop/gateway"
	"go-eshop/metrics"
	"go-eshop/middleware"
	"go-eshop/routes"
	"go-eshop/services"
	"go-eshop/store"
	"go-eshop/utils"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
)

type stores struct {
	carts    store.CartStore
	orders   store.OrderStore
	products store.ProductStore
	users    store.UserStore
	close    func(context.Context) error
}

func openStores(ctx context.Context, cfg utils.Config, logger *slog.Logger) (*stores, error) {
	if cfg.StoreBackend == "memory" {
		logger.Warn("using in-memory stores, data is lost on restart")
		return &stores{
			carts:    store.NewMemoryCartStore(),
			orders:   store.NewMemoryOrderStore(),
			products: store.NewMemoryProductStore(),
			users:    store.NewMemoryUserStore(),
			close:    func(context.Context) error { return nil },
		}, nil
	}

	client, err := utils.ConnectDB(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDBName)

	carts := store.NewMongoCartStore(db)
	orders := store.NewMongoOrderStore(db)
	users := store.NewMongoUserStore(db)
	for _, create := range []func(context.Context) error{carts.CreateIndexes, orders.CreateIndexes, users.CreateIndexes} {
		if err := create(ctx); err != nil {
			return nil, err
		}
	}
	logger.Info("connected to MongoDB", "db", cfg.MongoDBName)

	return &stores{
		carts:    carts,
		orders:   orders,
		products: store.NewMongoProductStore(db),
		users:    users,
		close:    client.Disconnect,
	}, nil
}

func main() {
	cfg := utils.LoadConfig()
	logger := utils.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	// Set the JWT secret key
	utils.JwtKey = []byte(cfg.JWTSecret)

	ctx := context.Background()
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open stores", "error", err)
		os.Exit(1)
	}

	var cartCache cache.CartCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("redis connection failed", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		cartCache = cache.NewRedisCartCache(redisClient)
		logger.Info("cart cache enabled", "addr", cfg.RedisAddr)
	}

	emailService, err := utils.NewEmailService(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize email service", "error", err)
		os.Exit(1)
	}

	var publisher interface {
		services.EventPublisher
		Close() error
	} = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.OrderEventsTopic, cfg.KafkaBrokers...)
		logger.Info("publishing order events", "brokers", cfg.KafkaBrokers, "topic", cfg.OrderEventsTopic)
	}
	defer publisher.Close()

	sink := metrics.NewPrometheus()

	paymentGateway := gateway.NewBreaker(gateway.NewHTTPClient(gateway.HTTPConfig{
		BaseURL:      cfg.GatewayURL,
		ClientID:     cfg.GatewayClientID,
		ClientSecret: cfg.GatewayClientSecret,
		GoID:         cfg.GatewayGoID,
		ReturnURL:    cfg.GatewayReturnURL,
		NotifyURL:    cfg.GatewayNotifyURL,
	}), gateway.BreakerConfig{Logger: logger})

	cartService := services.NewCartService(services.CartServiceDeps{
		Carts:      st.carts,
		Cache:      cartCache,
		Metrics:    sink,
		Logger:     logger,
		MaxRetries: cfg.CartMaxRetries,
	})
	orderService := services.NewOrderService(services.OrderServiceDeps{
		Orders:            st.orders,
		Carts:             cartService,
		Gateway:           paymentGateway,
		Notifier:          emailService,
		Metrics:           sink,
		Events:            publisher,
		Catalog:           st.products,
		Currency:          cfg.Currency,
		GatewayTimeout:    cfg.GatewayTimeout,
		SideEffectTimeout: cfg.SideEffectTimeout,
		Logger:            logger,
	})

	// Set up the router
	router := mux.NewRouter()
	routes.RegisterRoutes(router, routes.Controllers{
		Users:    controllers.NewUserController(st.users, logger),
		Products: controllers.NewProductController(st.products, logger),
		Carts:    controllers.NewCartController(cartService, logger),
		Orders:   controllers.NewOrderController(orderService, cfg.GatewayCallbackSecret, logger),
		Metrics:  sink.Handler(),
	})
	router.Use(middleware.LoggingMiddleware(logger))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server is running", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	if err := st.close(shutdownCtx); err != nil {
		logger.Error("failed to close stores", "error", err)
	}
	logger.Info("server stopped")
}

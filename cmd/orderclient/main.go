package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/backend"
	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/cart"
	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/checkout"
	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/gateway"
	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/httpapi"
	"github.com/medgentai/qr-code-menus-made-easy-sub005/internal/storage"
)

type Config struct {
	HTTPPort        string
	BackendURL      string
	Currency        string
	StorageBackend  string
	SessionKey      string
	SessionFile     string
	RedisAddr       string
	RedisPassword   string
	MongoURI        string
	MongoDBName     string
	GatewaySecret   string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	// .env is optional, env vars win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("skipping .env: %v", err)
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		BackendURL:      getEnv("BACKEND_URL", "http://localhost:3000"),
		Currency:        getEnv("CURRENCY", "INR"),
		StorageBackend:  getEnv("STORAGE_BACKEND", "file"),
		SessionKey:      getEnv("SESSION_KEY", "qr-menu-cart"),
		SessionFile:     getEnv("SESSION_FILE", ".orderclient/cart-session.json"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:     getEnv("MONGO_DB_NAME", "orderclient"),
		GatewaySecret:   getEnv("GATEWAY_SECRET", "sandbox-secret"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func newSlotStore(ctx context.Context, cfg *Config) storage.SlotStore {
	switch cfg.StorageBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatal("Redis connection failed:", err)
		}
		log.Printf("Using redis session storage at %s", cfg.RedisAddr)
		return storage.NewRedisStore(client, cfg.SessionKey)
	case "mongo":
		db, err := storage.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		log.Printf("Using mongo session storage at %s", cfg.MongoURI)
		return storage.NewMongoStore(db, cfg.SessionKey)
	default:
		log.Printf("Using file session storage at %s", cfg.SessionFile)
		return storage.NewFileStore(cfg.SessionFile)
	}
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	slot := newSlotStore(ctx, cfg)
	store := cart.NewStore(ctx, slot)

	backendClient := backend.NewClient(cfg.BackendURL, cfg.RequestTimeout)
	gw := gateway.NewSandbox(gateway.RandomResult{}, cfg.GatewaySecret)
	orch := checkout.NewOrchestrator(gw, backendClient)

	// kick off the one-time gateway load; checkout stays rejected with a
	// not-ready notice until it finishes
	go func() {
		if err := orch.LoadGateway(ctx); err != nil {
			log.Printf("gateway load failed, checkout unavailable: %v", err)
		}
	}()

	cartHandler := httpapi.NewCartHandler(store)
	checkoutHandler := httpapi.NewCheckoutHandler(store, orch, backendClient, cfg.Currency)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{index}", cartHandler.UpdateLine)
			r.Delete("/items/{index}", cartHandler.RemoveItem)
			r.Put("/customer", cartHandler.SetCustomer)
			r.Put("/fulfillment", cartHandler.SetFulfillment)
		})
		r.Post("/checkout", checkoutHandler.StartCheckout)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Order client starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	"shopping-assistant/internal/db"
	"shopping-assistant/internal/handlers"
	"shopping-assistant/internal/repositories"
	"shopping-assistant/internal/routes"
	"shopping-assistant/internal/services"
	"shopping-assistant/internal/workers"
)

// corsMiddleware adds CORS headers to all responses
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewServer wires clients, services and handlers and returns the HTTP server
func NewServer() *http.Server {
	logger := log.New(os.Stdout, "[SERVER] ", log.LstdFlags)

	// Outbound platform client
	platformClient := initializePlatformClient(logger)

	// Product cache (optional; the gateway runs without it)
	productCache := initializeProductCache(logger)

	serviceLogger := log.New(os.Stdout, "[ASSISTANT] ", log.LstdFlags)
	productService := services.NewProductService(platformClient, productCache, serviceLogger)

	// Background prefetch worker warms the cache with suggested products
	var prefetch services.PrefetchFunc
	var prefetchWorker *workers.PrefetchWorker
	if productCache != nil {
		workerLogger := log.New(os.Stdout, "[PREFETCH] ", log.LstdFlags)
		prefetchWorker = workers.NewPrefetchWorker(
			workers.DefaultWorkerConfig("product-prefetch"),
			productService,
			workerLogger,
		)
		if err := prefetchWorker.Start(context.Background()); err != nil {
			logger.Printf("❌ Failed to start prefetch worker: %v", err)
			prefetchWorker = nil
		} else {
			prefetch = prefetchWorker.Enqueue
			logger.Println("✅ Product prefetch worker started")
		}
	} else {
		logger.Println("⚠️  Product cache disabled - prefetch worker not started")
	}

	sessionService := services.NewSessionService(platformClient, productService, prefetch, serviceLogger)
	presetService := services.NewPresetService(nil, serviceLogger)
	autocompleteService := services.NewAutocompleteService(platformClient, serviceLogger)

	// Create handlers
	handlerLogger := log.New(os.Stdout, "[HTTP] ", log.LstdFlags)
	sessionHandler := handlers.NewSessionHandler(sessionService, presetService, handlerLogger)
	productHandler := handlers.NewProductHandler(productService, handlerLogger)
	autocompleteHandler := handlers.NewAutocompleteHandler(autocompleteService, handlerLogger)

	var workerHandler *handlers.WorkerHandler
	if prefetchWorker != nil {
		workerHandler = handlers.NewWorkerHandler(prefetchWorker, handlerLogger)
	}

	h := &routes.Handlers{
		Health:              handlers.HealthCheckHandler,
		Home:                handlers.HomeHandler,
		SessionHandler:      sessionHandler,
		ProductHandler:      productHandler,
		AutocompleteHandler: autocompleteHandler,
		WorkerHandler:       workerHandler,
	}

	router := mux.NewRouter()
	routes.RegisterRoutes(router, h)

	// Add Swagger endpoints
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"), // The url pointing to API definition
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))

	logger.Println("✅ Shopping assistant gateway initialized")

	return &http.Server{
		Addr:    ":" + serverPort(),
		Handler: corsMiddleware(router),
	}
}

// initializePlatformClient creates and configures the assistant platform client
func initializePlatformClient(logger *log.Logger) services.PlatformClientInterface {
	platformURL := os.Getenv("PLATFORM_API_URL")
	if platformURL == "" {
		platformURL = "http://localhost:8000"
	}

	timeout := 60 * time.Second
	retries := 3

	logger.Printf("Initializing platform client: %s (timeout: %v, retries: %d)", platformURL, timeout, retries)
	client := services.NewPlatformClientWithOptions(platformURL, timeout, retries)

	if path := os.Getenv("AUTOCOMPLETE_PATH"); path != "" {
		client.SetAutocompletePath(path)
	}

	// Tenant/auth headers; token retrieval itself lives outside the gateway
	apiKey := os.Getenv("PLATFORM_API_KEY")
	tenantID := os.Getenv("PLATFORM_TENANT_ID")
	if apiKey != "" || tenantID != "" {
		client.SetHeaderProvider(func() http.Header {
			header := http.Header{}
			if apiKey != "" {
				header.Set("Authorization", "Bearer "+apiKey)
			}
			if tenantID != "" {
				header.Set("X-Tenant-ID", tenantID)
			}
			return header
		})
	}

	return client
}

// initializeProductCache connects Redis and returns the product repository,
// or nil when Redis is unavailable
func initializeProductCache(logger *log.Logger) repositories.ProductRepository {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisConfig := db.RedisConfigFromEnv()
	logger.Printf("Connecting to Redis: %s:%d (DB: %d)", redisConfig.Host, redisConfig.Port, redisConfig.DB)

	redisClient, err := db.NewRedisClient(redisConfig)
	if err != nil {
		logger.Printf("❌ Failed to create Redis client: %v", err)
		logger.Println("   Product cache will be disabled")
		return nil
	}

	if err := redisClient.Ping(ctx); err != nil {
		logger.Printf("❌ Redis connection failed: %v", err)
		logger.Println("   Product cache will be disabled")
		logger.Println("   Hint: Ensure Redis is running (docker run -d -p 6379:6379 redis:7-alpine)")
		return nil
	}
	logger.Println("✅ Redis connected successfully")

	return repositories.NewRedisProductRepository(redisClient.GetClient())
}

func serverPort() string {
	if port := os.Getenv("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err == nil {
			return port
		}
	}
	return "8080"
}

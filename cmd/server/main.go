package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/AnshRaj112/profilefarm-backend/internal/config"
	"github.com/AnshRaj112/profilefarm-backend/internal/database"
	"github.com/AnshRaj112/profilefarm-backend/internal/handlers"
	"github.com/AnshRaj112/profilefarm-backend/internal/logger"
	"github.com/AnshRaj112/profilefarm-backend/internal/metrics"
	"github.com/AnshRaj112/profilefarm-backend/internal/middleware"
	"github.com/AnshRaj112/profilefarm-backend/internal/routes"
	"github.com/AnshRaj112/profilefarm-backend/internal/services"
)

func main() {
	// Load env
	envErr := godotenv.Load()

	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.IsProduction())
	if envErr != nil {
		log.Info().Msg("No .env file found")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if !cfg.Proxy.Complete() {
		log.Warn().Msg("⚠️  PROXY_HOST, PROXY_USERNAME or PROXY_PASSWORD not set. POST /profile/create will fail until they are.")
	}
	if cfg.MultiloginAPIv2 == "" {
		log.Warn().Msg("⚠️  MULTILOGIN_APIv2 not set. Profiles will stay pending.")
	}

	// Connect to MongoDB
	if err := database.Connect(cfg.MongoURI, cfg.MongoDatabase); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer database.Disconnect()

	indexCtx, indexCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := services.EnsureIndexes(indexCtx, database.DB); err != nil {
		log.Warn().Err(err).Msg("⚠️  failed to ensure MongoDB indexes")
	} else {
		log.Info().Msg("✅ MongoDB indexes ensured")
	}
	indexCancel()

	// Redis is optional: without it the cache and port reservations stay in-process
	var (
		cache     services.Cache
		reserver  services.Reserver
		redisPing handlers.Pinger
	)
	if cfg.RedisURI != "" {
		if err := database.ConnectRedis(cfg.RedisURI); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer database.DisconnectRedis()
		cache = services.NewRedisCache(database.RedisClient)
		reserver = services.NewRedisReserver(database.RedisClient)
		redisPing = database.PingRedis
	} else {
		log.Warn().Msg("⚠️  REDIS_URI not set. Using in-process cache and port reservations (single instance only)")
		cache = services.NewLocalCache(cfg.Cache.SizeMB)
		reserver = services.NewLocalReserver()
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	profileStore := services.NewProfileStore(database.DB)
	proxyStore := services.NewProxyStore(database.DB, cfg.Ports)
	familyStore := services.NewFamilyStore(database.DB)

	registrar := services.NewMultiloginClient(services.MultiloginOptions{
		BaseURL: cfg.MultiloginAPIv2,
		Token:   cfg.MultiloginToken,
		Timeout: cfg.MultiloginTimeout,
		Retries: cfg.MultiloginRetries,
	})

	profileService := services.NewProfileService(services.ProfileServiceDeps{
		Profiles:  profileStore,
		Proxies:   proxyStore,
		Allocator: services.NewAllocator(profileStore, reserver, cfg.Ports, cfg.Cache.ReservationTTL),
		Generator: services.NewGenerator(cfg.Proxy, nil),
		Registrar: registrar,
		Cache:     cache,
		CacheTTL:  cfg.Cache.ProfileTTL,
		Metrics:   m,
	})

	// Setup router
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(m))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity() {
			r.Use(mw)
		}
		log.Info().Msg("✅ Production security enabled (security headers, per-IP + provisioning rate limiting)")
	}

	// v1 answers the readiness probe; v2 does the registration work
	probeURL := cfg.MultiloginAPIv1
	if probeURL == "" {
		probeURL = cfg.MultiloginAPIv2
	}
	var externalPing handlers.Pinger
	if probeURL != "" {
		externalPing = services.NewMultiloginClient(services.MultiloginOptions{
			BaseURL: probeURL,
			Token:   cfg.MultiloginToken,
			Timeout: 2 * time.Second,
		}).Reachable
	}

	health := handlers.NewHealthHandler(database.PingMongo, redisPing, externalPing)
	r.Get("/health", health.Live)
	r.Get("/health/ready", health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	routes.SetupRoutes(r, routes.Handlers{
		Profile: handlers.NewProfileHandler(profileService),
		Family:  handlers.NewFamilyHandler(familyStore),
		Proxy:   handlers.NewProxyHandler(proxyStore, cfg.Proxy, m),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("🚀 Profile farm backend running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

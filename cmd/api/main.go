package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"chatpro/internal/config"
	"chatpro/internal/db"
	apihttp "chatpro/internal/http"
	"chatpro/internal/notify"
	"chatpro/internal/repository"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal("db schema", zap.Error(err))
	}

	messageRepo := repository.NewPgMessageRepository(pool)
	hub := notify.NewHub()

	// El publisher por defecto es el hub local; con Redis configurado, las
	// publicaciones se replican además hacia otras instancias.
	var publisher notify.Publisher = hub
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			bridge := notify.NewRedisBridge(redisClient, cfg.RedisChannel, hub, logger)
			go bridge.Run(ctx)
			publisher = notify.Fanout{hub, bridge}
		}
		cancel()
	}

	messageHandler := apihttp.NewMessageHandler(logger, messageRepo, publisher)
	wsHandler := apihttp.NewWSHandler(logger, hub, publisher)
	router := apihttp.NewRouter(logger, messageHandler, wsHandler)

	corsOptions := cors.Options{AllowedMethods: []string{http.MethodGet, http.MethodPost}}
	if len(cfg.AllowedOrigins) > 0 {
		corsOptions.AllowedOrigins = cfg.AllowedOrigins
	}
	handler := cors.New(corsOptions).Handler(router)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-relay-backend/internal/api"
	"chat-relay-backend/internal/api/router"
	"chat-relay-backend/internal/database"
	"chat-relay-backend/internal/env"
	"chat-relay-backend/internal/queue"
	"chat-relay-backend/internal/service/chat"
	"chat-relay-backend/internal/storage"
	"chat-relay-backend/internal/websocket"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := env.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	queueManager := queue.NewRequestQueueManager(cfg.QueueSize, cfg.QueueWorkers)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPass,
			DB:       0,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("redis %s unreachable at startup: %v", cfg.RedisURL, err)
		}
	}

	store, err := newStore(ctx, cfg, redisClient)
	if err != nil {
		log.Fatalf("attachment store: %v", err)
	}
	uploader := storage.NewUploader(store, queueManager, 30*time.Second)

	wsMetrics := websocket.NewMetrics(registry)
	hub := websocket.NewHub(wsMetrics)
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	chatCfg := chat.Config{
		DefaultRoom: cfg.DefaultRoom,
		MaxHistory:  cfg.MaxHistory,
		Attachments: uploader,
	}
	if redisClient != nil {
		chatCfg.Mirror = websocket.NewRedisMirror(redisClient, cfg.RedisChannelPrefix, queueManager)
	}
	service := chat.New(hub, chatCfg)

	wsRouter := websocket.NewRouter(service, hub, websocket.Limits{
		MaxMessageLength: cfg.MaxMessageLength,
		MaxFileSize:      cfg.MaxFileSize,
		AllowedFileTypes: cfg.AllowedFileTypes,
	}, wsMetrics)
	handler := websocket.NewHandler(hub, wsRouter, websocket.Options{
		SendBuffer:      cfg.SendBuffer,
		ReadLimit:       cfg.FrameLimit(),
		RateLimitPerSec: cfg.RateLimitPerSec,
		RateLimitBurst:  cfg.RateLimitBurst,
		AllowedOrigins:  cfg.CORSOrigins,
	})

	server := api.NewAPIServer(
		":"+cfg.Port,
		queueManager,
		api.Dependencies{
			Chat:        service,
			Handler:     handler,
			Attachments: store,
		},
		api.Options{
			CORSOrigins:     cfg.CORSOrigins,
			RateLimitMax:    cfg.HTTPRateLimitMax,
			RateLimitWindow: cfg.HTTPRateLimitWindow,
			Registry:        registry,
		},
		router.UtilsRoutes(""),
		router.ChatRoutes(""),
	)

	errc := make(chan error, 1)
	go func() {
		errc <- server.Run()
	}()

	select {
	case err := <-errc:
		if err != nil {
			log.Printf("server stopped: %v", err)
		}
	case <-ctx.Done():
		log.Printf("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	hub.Shutdown(cfg.ShutdownTimeout)
	stopHub()
	queueManager.Shutdown()
	if redisClient != nil {
		_ = redisClient.Close()
	}
	log.Printf("bye")
}

func newStore(ctx context.Context, cfg env.Config, redisClient *redis.Client) (storage.Store, error) {
	switch cfg.FileStore {
	case env.StoreRedis:
		return storage.NewRedisStore(redisClient, cfg.FileTTL), nil
	case env.StoreDynamoDB:
		db, err := database.NewDynamoDBClient(ctx, database.Options{
			Region:   cfg.AWSRegion,
			ID:       cfg.AWSID,
			Secret:   cfg.AWSSecret,
			Token:    cfg.AWSToken,
			Endpoint: cfg.DynamoDBEndpoint,
		})
		if err != nil {
			return nil, err
		}
		return storage.NewDynamoStore(db, cfg.AttachmentsTable, cfg.FileTTL), nil
	default:
		return storage.NewMemoryStore(cfg.MemoryStoreMax), nil
	}
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/echobrief/api/internal/bus"
	"github.com/echobrief/api/internal/cache"
	"github.com/echobrief/api/internal/client"
	"github.com/echobrief/api/internal/config"
	"github.com/echobrief/api/internal/handler"
	"github.com/echobrief/api/internal/middleware"
	"github.com/echobrief/api/internal/resolver"
	"github.com/echobrief/api/internal/service"
	"github.com/echobrief/api/internal/worker"
	ws "github.com/echobrief/api/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Cache store and event bus share the Redis client
	cacheService := cache.NewService(redisClient, cfg.Cache.TTL)
	eventBus := bus.New(redisClient, cfg.Bus.MaxLen)

	// Initialize external collaborators
	podcastIndex := client.NewPodcastIndexClient(&cfg.Resolver)
	transcriber := client.NewTranscriber(&cfg.Transcriber)
	llmClient := client.NewLLMClient(&cfg.LLM, client.NewLimiter(cfg.LLM.MinInterval))

	// Initialize services
	episodeResolver := resolver.New(&cfg.Resolver, podcastIndex)
	submitService := service.NewSubmitService(cacheService, episodeResolver, asynqClient)
	summaryService := service.NewSummaryService(cacheService, llmClient, hub)

	// Initialize handlers
	submitHandler := handler.NewSubmitHandler(submitService, validate)
	cacheHandler := handler.NewCacheHandler(cacheService, cfg.Admin.Token)

	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.FrontendURL,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Base URL - timestamp
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"podcast_index": podcastIndex.IsConfigured(),
				"transcriber":   transcriber.IsConfigured(),
				"llm":           llmClient.IsConfigured(),
			},
		})
	})

	// API routes
	api := app.Group("/api")
	api.Post("/submit", rateLimiter.SubmitLimit(cfg.RateLimit.SubmitPerMin), submitHandler.Submit)

	// Cache admin routes
	app.Get("/cache/stats", cacheHandler.Stats)
	app.Delete("/cache/clear", cacheHandler.Clear)
	app.Delete("/cache/invalidate/:platform/:episodeId/:variant", cacheHandler.Invalidate)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/summary/:jobId", websocket.New(func(c *websocket.Conn) {
		jobID := c.Params("jobId")
		hub.HandleConnection(c, jobID)
	}))

	// Background consumers read the streams; they reach the hub only through
	// its channels, never the registry directly.
	consumerCtx, cancelConsumers := context.WithCancel(context.Background())
	defer cancelConsumers()

	transcribeConsumer := worker.NewTranscribeConsumer(eventBus, transcriber, hub, bus.CursorStart)
	go transcribeConsumer.Run(consumerCtx)

	summaryConsumer := worker.NewSummaryConsumer(eventBus, summaryService, bus.CursorStart)
	go summaryConsumer.Run(consumerCtx)

	// Start Asynq worker server for audio downloads
	go startWorkerServer(cfg, eventBus, hub)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		cancelConsumers()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func startWorkerServer(cfg *config.Config, eventBus *bus.Bus, hub *ws.Hub) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"download": 10,
			},
		},
	)

	downloadWorker := worker.NewDownloadWorker(eventBus, hub, cfg.Resolver.AudioDir)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeDownload, downloadWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}

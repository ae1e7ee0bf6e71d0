package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/di"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/worker"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/pkg/config"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/pkg/database"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/pkg/logger"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/pkg/messaging"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/pkg/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&logger.Config{
		Level:       "info",
		ServiceName: cfg.App.Name,
		Development: cfg.App.Environment == "development",
		OutputPath:  "stdout",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Get()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// PostgreSQL
	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MinIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   time.Second,
	})
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, event cache disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Kafka
	kafkaClient, err := messaging.NewKafkaClient(&cfg.Kafka)
	if err != nil {
		log.Fatal("failed to create kafka client", zap.Error(err))
	}
	publisher := messaging.NewKafkaPublisher(kafkaClient)
	defer publisher.Close()

	container := di.NewContainer(&di.ContainerConfig{
		Config:    cfg,
		DB:        db,
		Redis:     redisClient,
		Publisher: publisher,
		Log:       log,
	})

	container.OutboxWorker.Start(ctx)
	defer container.OutboxWorker.Stop()
	container.ExpiryWorker.Start(ctx)
	defer container.ExpiryWorker.Stop()

	router := setupRouter(cfg, container)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}

	// flush anything the ticker has not picked up yet
	container.OutboxWorker.Stop()
	container.OutboxWorker.DrainBatch(shutdownCtx)
}

func setupRouter(cfg *config.Config, c *di.Container) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", c.HealthHandler.Health)
	router.GET("/ready", c.HealthHandler.Ready)

	jwtConfig := &middleware.JWTConfig{Secret: cfg.JWT.Secret}

	v1 := router.Group("/api/v1")

	// Stripe calls this; auth is the signature header
	v1.POST("/payments/webhook", c.PaymentHandler.HandleWebhook)

	// Guest-accessible routes; a bearer token is honored when present
	public := v1.Group("")
	public.Use(middleware.OptionalJWT(jwtConfig))
	{
		public.GET("/events/:id", c.EventHandler.Get)
		public.POST("/events/:id/register", c.EventHandler.Register)
		public.GET("/events/:id/signup-lists", c.SignUpHandler.ListByEvent)
		public.POST("/signup-items/:id/commitments", c.SignUpHandler.Commit)
		public.POST("/payments/checkout-session", c.PaymentHandler.CreateCheckoutSession)
	}

	// Authenticated routes
	authed := v1.Group("")
	authed.Use(middleware.JWTMiddleware(jwtConfig))
	{
		authed.DELETE("/events/:id/register", c.EventHandler.CancelRegistration)
		authed.POST("/events/:id/waiting-list", c.EventHandler.JoinWaitingList)
		authed.DELETE("/events/:id/waiting-list", c.EventHandler.LeaveWaitingList)
		authed.POST("/signup-items", c.SignUpHandler.CreateItem)
		authed.DELETE("/signup-items/:id", c.SignUpHandler.DeleteItem)
		authed.DELETE("/commitments/:id", c.SignUpHandler.Uncommit)
	}

	// Organizer and admin routes
	organizer := v1.Group("")
	organizer.Use(middleware.JWTMiddleware(jwtConfig), middleware.RequireRole("organizer", "admin"))
	{
		organizer.POST("/events/:id/waiting-list/promote", c.EventHandler.PromoteFromWaitingList)
	}

	admin := v1.Group("/admin")
	admin.Use(middleware.JWTMiddleware(jwtConfig), middleware.RequireRole("admin"))
	{
		admin.POST("/recovery/trigger-payment-event", c.AdminHandler.TriggerPaymentEvent)
	}

	return router
}

var _ worker.Publisher = (*messaging.KafkaPublisher)(nil)

package di

import (
	"github.com/redis/go-redis/v9"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/gateway"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/handler"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/repository"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/service"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/worker"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/pkg/config"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/pkg/database"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/pkg/logger"
)

// Container holds all dependencies for the API service
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	RegistrationRepo repository.RegistrationRepository
	EventRepo        repository.EventRepository
	SignUpRepo       repository.SignUpRepository
	WebhookLedger    repository.WebhookEventRepository
	OutboxRepo       repository.OutboxRepository
	UnitOfWork       repository.UnitOfWork

	// Gateway
	PaymentGateway gateway.PaymentGateway

	// Services
	PaymentService  service.PaymentService
	RecoveryService service.RecoveryService
	EventService    service.EventService
	SignUpService   service.SignUpService

	// Workers
	OutboxWorker *worker.OutboxWorker
	ExpiryWorker *worker.ExpiryWorker

	// Handlers
	HealthHandler  *handler.HealthHandler
	PaymentHandler *handler.PaymentHandler
	AdminHandler   *handler.AdminHandler
	EventHandler   *handler.EventHandler
	SignUpHandler  *handler.SignUpHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Config    *config.Config
	DB        *database.PostgresDB
	Redis     *redis.Client
	Publisher worker.Publisher
	Log       *logger.Logger
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:    cfg.DB,
		Redis: cfg.Redis,
	}

	pool := cfg.DB.Pool()

	// Repositories. The webhook ledger is bound to the pool, not the unit
	// of work, so its rows survive a rolled-back transaction.
	c.RegistrationRepo = repository.NewPostgresRegistrationRepository(pool)
	c.EventRepo = repository.NewPostgresEventRepository(pool)
	c.SignUpRepo = repository.NewPostgresSignUpRepository(pool)
	c.WebhookLedger = repository.NewPostgresWebhookEventRepository(pool)
	c.OutboxRepo = repository.NewPostgresOutboxRepository(pool)
	c.UnitOfWork = repository.NewPgxUnitOfWork(pool)

	c.PaymentGateway = gateway.NewStripeGateway(&cfg.Config.Stripe)

	// Services
	c.PaymentService = service.NewPaymentService(
		c.RegistrationRepo,
		c.EventRepo,
		c.WebhookLedger,
		c.UnitOfWork,
		c.PaymentGateway,
		cfg.Log,
	)
	c.RecoveryService = service.NewRecoveryService(c.RegistrationRepo, c.UnitOfWork, cfg.Log)
	c.EventService = service.NewEventService(c.EventRepo, c.RegistrationRepo, c.UnitOfWork, cfg.Redis, cfg.Config.Redis.EventTTL, cfg.Log)
	c.SignUpService = service.NewSignUpService(c.SignUpRepo, c.UnitOfWork)

	// Workers
	c.OutboxWorker = worker.NewOutboxWorker(c.OutboxRepo, cfg.Publisher, cfg.Log, &worker.OutboxWorkerConfig{
		PollInterval:   cfg.Config.Outbox.PollInterval,
		BatchSize:      cfg.Config.Outbox.BatchSize,
		MaxRetries:     cfg.Config.Outbox.MaxRetries,
		BaseRetryDelay: cfg.Config.Outbox.BaseRetryDelay,
	})
	// Safety net behind the checkout.session.expired webhook.
	c.ExpiryWorker = worker.NewExpiryWorker(c.RegistrationRepo, c.UnitOfWork, cfg.Log, nil)

	// Handlers
	c.HealthHandler = handler.NewHealthHandler(c.DB)
	c.PaymentHandler = handler.NewPaymentHandler(c.PaymentService)
	c.AdminHandler = handler.NewAdminHandler(c.RecoveryService)
	c.EventHandler = handler.NewEventHandler(c.EventService)
	c.SignUpHandler = handler.NewSignUpHandler(c.SignUpService)

	return c
}

package bootstrap

import (
	"context"
	"log"

	"issue-agent-be/internal/config"
	"issue-agent-be/internal/controller"
	"issue-agent-be/internal/entity"
	"issue-agent-be/internal/pkg/cryptoutil"
	"issue-agent-be/internal/pkg/logger"
	"issue-agent-be/internal/pkg/mailer"
	"issue-agent-be/internal/repository/contract"
	"issue-agent-be/internal/repository/implementation"
	"issue-agent-be/internal/repository/memory"
	"issue-agent-be/internal/service"
	"issue-agent-be/pkg/agent/engine"
	"issue-agent-be/pkg/agent/tools"
	"issue-agent-be/pkg/llm/factory"
	"issue-agent-be/pkg/tracker"

	pktNats "issue-agent-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	WebhookController controller.IWebhookController
	OAuthController   controller.IOAuthController
	SessionController controller.ISessionController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Exposed for graceful shutdown
	PublisherService service.IPublisherService
	Logger           logger.ILogger
}

// NewContainer wires the full dependency graph. A nil db selects the
// in-memory stores, which is the local-development mode.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		cfg.App.BaseURL,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := service.NewTurnEventBus(watermillLogger)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	redisUp := true
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		redisUp = false
	}

	// 3. Storage
	var stateStore contract.SessionStateStore
	var credStore contract.CredentialStore
	if db != nil {
		cipher := newStateCipher(cfg.Session.EncryptionKey)
		if err := db.AutoMigrate(migratedEntities()...); err != nil {
			log.Fatalf("[FATAL] Failed to migrate schema: %v", err)
		}
		stateStore = implementation.NewSessionStateRepository(db, cipher, sysLogger)
		credStore = implementation.NewCredentialRepository(db)
		log.Printf("[INFO] Using Postgres-backed session and credential stores")
	} else {
		stateStore = memory.NewSessionStateRepository()
		credStore = memory.NewCredentialRepository()
		log.Printf("[INFO] Using in-memory session and credential stores")
	}

	var activityLog contract.ActivityLog
	if redisUp {
		activityLog = implementation.NewActivityLog(rdb)
	} else {
		activityLog = memory.NewActivityLog()
		log.Printf("[INFO] Activity log falling back to process memory")
	}

	// 4. Model and tools
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.HuggingFaceKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	dispatcher := toolsDispatcher(cfg)

	// 5. Services
	publisherService := service.NewPublisherService(pubSub, sysLogger)

	oauthConf := &oauth2.Config{
		ClientID:     cfg.Tracker.ClientID,
		ClientSecret: cfg.Tracker.ClientSecret,
		RedirectURL:  cfg.Tracker.RedirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.Tracker.AuthURL,
			TokenURL: cfg.Tracker.TokenURL,
		},
	}
	tokenService := service.NewTokenService(
		credStore,
		oauthConf,
		cfg.Tracker.WorkspaceInfoURL,
		emailService,
		cfg.SMTP.OperatorEmail,
		sysLogger,
	)

	turnEngine := engine.New(
		stateStore,
		activityLog,
		llmProvider,
		dispatcher,
		publisherService,
		sysLogger,
	)

	agentService := service.NewAgentService(turnEngine, stateStore, activityLog, sysLogger)

	trackerClient := tracker.NewClient(cfg.Tracker.APIBaseURL)
	consumerService := service.NewConsumerService(
		pubSub,
		tokenService,
		trackerClient,
		natsPub,
	)

	// 6. Controllers
	return &Container{
		WebhookController: controller.NewWebhookController(agentService, cfg.Tracker.WebhookSecret),
		OAuthController:   controller.NewOAuthController(tokenService),
		SessionController: controller.NewSessionController(agentService),

		ConsumerService:  consumerService,
		PublisherService: publisherService,
		Logger:           sysLogger,
	}
}

// Shutdown flushes the pieces that buffer: the event bus (so in-flight
// turn-completed messages reach the consumer loop) and the logger.
func (c *Container) Shutdown() {
	if c.PublisherService != nil {
		if err := c.PublisherService.Close(); err != nil {
			log.Printf("[WARN] Event bus close failed: %v", err)
		}
	}
	if c.Logger != nil {
		if err := c.Logger.Sync(); err != nil {
			log.Printf("[WARN] Logger sync failed: %v", err)
		}
	}
}

func migratedEntities() []interface{} {
	return []interface{}{
		&entity.SessionStateRecord{},
		&entity.Credential{},
	}
}

func toolsDispatcher(cfg *config.Config) tools.Dispatcher {
	return tools.NewHTTPDispatcher(cfg.Keys.GitHubToken, cfg.Keys.Geoapify)
}

func newStateCipher(hexKey string) cryptoutil.Cipher {
	if hexKey == "" {
		log.Printf("[WARN] SESSION_ENCRYPTION_KEY not set, session state stored in plaintext")
		return cryptoutil.NoopCipher{}
	}
	cipher, err := cryptoutil.NewChaChaCipher(hexKey)
	if err != nil {
		log.Fatalf("[FATAL] Invalid session encryption key: %v", err)
	}
	return cipher
}

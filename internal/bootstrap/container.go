package bootstrap

import (
	"context"
	"fmt"

	"advisor-command-centre-be/internal/config"
	"advisor-command-centre-be/internal/controller"
	"advisor-command-centre-be/internal/handler"
	"advisor-command-centre-be/internal/pkg/filestore"
	"advisor-command-centre-be/internal/pkg/logger"
	"advisor-command-centre-be/internal/pkg/ratelimit"
	"advisor-command-centre-be/internal/pkg/serverutils"
	"advisor-command-centre-be/internal/repository/memory"
	"advisor-command-centre-be/internal/repository/unitofwork"
	"advisor-command-centre-be/internal/service"
	"advisor-command-centre-be/internal/websocket"

	pktNats "advisor-command-centre-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController      controller.IAuthController
	HealthController    controller.IHealthController
	MessageController   controller.IMessageController
	SettingsController  controller.ISettingsController
	RecordingController controller.IRecordingController

	// Background workers (run by main.go)
	RecordingProcessor *service.RecordingProcessor
	StatusFeedRelay    *service.StatusFeedRelay
	SettingsCache      *memory.SettingsCache

	// WebSockets
	StatusFeedHandler *handler.StatusFeedHandler
	WebSocketHub      *websocket.Hub

	Principal serverutils.PrincipalOptions
	Logger    logger.ILogger

	closers []func()
}

func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	c := &Container{Logger: sysLogger}

	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	store, err := filestore.NewLocalStore(cfg.Upload.Dir)
	if err != nil {
		return nil, err
	}

	// 2. Event bus
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, logger.NewWatermillAdapter(sysLogger))
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Optional infrastructure. Either may be missing; the service
	// degrades to a single instance without it.
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err = pktNats.NewPublisher(ctx, cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "NATS unavailable, external events disabled", map[string]interface{}{"error": err})
			natsPub = nil
		} else {
			c.closers = append(c.closers, natsPub.Close)
		}
	}
	rdb := connectRedis(ctx, cfg.App.RedisURL, sysLogger)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	var limiter *ratelimit.FixedWindowLimiter
	if rdb != nil {
		limiter, err = ratelimit.NewFixedWindowLimiter(rdb, "", cfg.RateLimit.Requests, cfg.RateLimit.Window, sysLogger)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Rate limiting disabled", map[string]interface{}{"error": err})
			limiter = nil
		}
	}

	c.SettingsCache = memory.NewSettingsCache(cfg.Cache.SettingsTTL)
	if rdb != nil {
		c.SettingsCache = memory.NewSharedSettingsCache(cfg.Cache.SettingsTTL, rdb, sysLogger)
	}

	// 4. Services
	publisher := service.NewEventPublisher(pubSub, natsPub, sysLogger)
	authService := service.NewAuthService(uowFactory, cfg.Auth.JwtSecret, cfg.Auth.TokenTTL, sysLogger)
	messageService := service.NewMessageService(uowFactory, publisher, sysLogger)
	settingsService := service.NewSettingsService(uowFactory, c.SettingsCache, publisher, sysLogger)
	recordingService := service.NewRecordingService(uowFactory, store, publisher, service.RecordingServiceOptions{
		MaxBytes:        cfg.Upload.MaxBytes,
		ProcessingDelay: cfg.Worker.ProcessingDelay,
	}, sysLogger)

	c.Principal = serverutils.PrincipalOptions{JwtSecret: cfg.Auth.JwtSecret}
	if cfg.Auth.AllowDemo {
		demo, err := authService.EnsureUser(ctx, cfg.Auth.DemoUsername)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("ensure demo user: %w", err)
		}
		c.Principal.DemoUserID = demo.Id
		sysLogger.Info("BOOTSTRAP", "Demo principal enabled", map[string]interface{}{"username": demo.Username, "user_id": demo.Id})
	}

	// 5. Workers and the live feed
	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)
	c.RecordingProcessor = service.NewRecordingProcessor(uowFactory, store, publisher, pubSub, cfg.Worker, sysLogger)
	c.StatusFeedRelay = service.NewStatusFeedRelay(pubSub, c.WebSocketHub, sysLogger)
	c.StatusFeedHandler = handler.NewStatusFeedHandler(c.WebSocketHub, c.Principal, wsLogger)

	// 6. Controllers
	principal := serverutils.PrincipalMiddleware(c.Principal)
	c.AuthController = controller.NewAuthController(authService, principal)
	c.HealthController = controller.NewHealthController(uowFactory, sysLogger)
	c.MessageController = controller.NewMessageController(messageService, principal, ratelimit.Middleware(limiter, "messages"))
	c.SettingsController = controller.NewSettingsController(settingsService, principal)
	c.RecordingController = controller.NewRecordingController(recordingService, principal, ratelimit.Middleware(limiter, "recordings"))

	return c, nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func connectRedis(ctx context.Context, url string, log logger.ILogger) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("BOOTSTRAP", "Failed to parse Redis URL, using it as an address", map[string]interface{}{"error": err})
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("BOOTSTRAP", "Redis unavailable, running single-instance", map[string]interface{}{"error": err})
		_ = rdb.Close()
		return nil
	}
	return rdb
}

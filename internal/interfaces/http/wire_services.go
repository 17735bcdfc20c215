package http

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	metricsUsecases "github.com/hatch-crm/hatch/internal/application/metrics/usecases"
	routingServices "github.com/hatch-crm/hatch/internal/application/routing/services"
	routingUsecases "github.com/hatch-crm/hatch/internal/application/routing/usecases"
	ruleUsecases "github.com/hatch-crm/hatch/internal/application/rule/usecases"
	slaServices "github.com/hatch-crm/hatch/internal/application/sla/services"
	slaUsecases "github.com/hatch-crm/hatch/internal/application/sla/usecases"
	"github.com/hatch-crm/hatch/internal/domain/capacity"
	"github.com/hatch-crm/hatch/internal/domain/sla"
	"github.com/hatch-crm/hatch/internal/infrastructure/cache"
	"github.com/hatch-crm/hatch/internal/infrastructure/config"
	"github.com/hatch-crm/hatch/internal/infrastructure/email"
	"github.com/hatch-crm/hatch/internal/infrastructure/pubsub"
	"github.com/hatch-crm/hatch/internal/infrastructure/repository"
	"github.com/hatch-crm/hatch/internal/interfaces/http/handlers"
	metricsHandlers "github.com/hatch-crm/hatch/internal/interfaces/http/handlers/metrics"
	routingHandlers "github.com/hatch-crm/hatch/internal/interfaces/http/handlers/routing"
	ruleHandlers "github.com/hatch-crm/hatch/internal/interfaces/http/handlers/rule"
	slaHandlers "github.com/hatch-crm/hatch/internal/interfaces/http/handlers/sla"
	"github.com/hatch-crm/hatch/internal/interfaces/http/middleware"
	shareddb "github.com/hatch-crm/hatch/internal/shared/db"
	"github.com/hatch-crm/hatch/internal/shared/goroutine"
	"github.com/hatch-crm/hatch/internal/shared/logger"
	"github.com/hatch-crm/hatch/internal/shared/services/markdown"
)

// ============================================================
// Section 1: Infrastructure - Redis, Repositories, Capacity Tracker
// ============================================================

func (c *Container) initInfrastructure() error {
	cfg := c.cfg

	if cfg.Redis.Enabled() {
		client, err := initRedis(cfg, c.log)
		if err != nil {
			return err
		}
		c.redis = client
	} else {
		c.log.Infow("redis disabled, using in-process pool locks and no dashboard cache")
	}

	c.repos = &repositories{
		ruleRepo:       repository.NewRuleRepository(c.db, c.log),
		capacityRepo:   repository.NewCapacityRepository(c.db),
		routeEventRepo: repository.NewRouteEventRepository(c.db),
		slaTimerRepo:   repository.NewSLATimerRepository(c.db),
	}
	c.txManager = shareddb.NewTransactionManager(c.db)
	c.tracker = capacity.NewTracker(c.repos.capacityRepo, cfg.Routing.DefaultMaxCapacity)
	c.ucs = &allUseCases{}

	if c.redis != nil && cfg.Server.RateLimitPerMinute > 0 {
		c.rateLimiter = middleware.NewRateLimiter(c.redis, cfg.Server.RateLimitPerMinute, time.Minute, c.log)
	}
	return nil
}

// initRedis creates and tests the Redis client connection.
func initRedis(cfg *config.Config, log logger.Interface) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.GetAddr(), err)
	}
	log.Infow("Redis connection established successfully", "address", cfg.Redis.GetAddr())

	return redisClient, nil
}

// ============================================================
// Section 2: Routing - Pool Locks, Engine, Gate, Admission
// ============================================================

func (c *Container) initRouting() error {
	cfg := c.cfg
	log := c.log
	repos := c.repos

	switch cfg.Routing.LockBackend {
	case "redis":
		if c.redis == nil {
			return fmt.Errorf("routing.lock_backend is redis but redis is not configured")
		}
		c.poolLocker = cache.NewRedisPoolLocker(c.redis, cfg.Routing.LockTTL(), log)
	default:
		c.poolLocker = routingServices.NewMemoryPoolLocker()
	}

	// A nil *RouteEventBus must not reach the engine as a non-nil interface.
	var publisher routingServices.EventPublisher
	if c.redis != nil {
		c.routeEventBus = pubsub.NewRouteEventBus(c.redis, log)
		publisher = c.routeEventBus
	}

	c.routingEngine = routingServices.NewEngine(
		repos.ruleRepo,
		c.tracker,
		repos.routeEventRepo,
		c.poolLocker,
		c.txManager,
		publisher,
		c.clock,
		routingServices.EngineConfig{
			DefaultPoolID:               cfg.Routing.DefaultPoolID,
			StaticOwnerConsumesCapacity: cfg.Routing.StaticOwnerConsumesCapacity,
		},
		log,
	)
	c.gate = routingServices.NewGate(repos.ruleRepo)

	c.ucs.admitRecordUC = routingUsecases.NewAdmitRecordUseCase(
		c.gate, c.routingEngine, repos.routeEventRepo, repos.slaTimerRepo,
		c.tracker, c.txManager, c.clock, cfg.SLA.Deadline(), log,
	)
	c.ucs.validateTransitionUC = routingUsecases.NewValidateTransitionUseCase(c.gate, repos.routeEventRepo, c.clock, log)
	c.ucs.resolveRecordUC = routingUsecases.NewResolveRecordUseCase(repos.slaTimerRepo, c.tracker, c.txManager, c.clock, log)

	c.ucs.getCapacityViewUC = routingUsecases.NewGetCapacityViewUseCase(repos.capacityRepo, c.tracker, log)
	c.ucs.setOwnerCapacityUC = routingUsecases.NewSetOwnerCapacityUseCase(repos.capacityRepo, c.clock, log)
	c.ucs.setPoolMembersUC = routingUsecases.NewSetPoolMembersUseCase(repos.capacityRepo, c.tracker, log)
	c.ucs.rebuildCapacityUC = routingUsecases.NewRebuildCapacityUseCase(repos.capacityRepo, repos.slaTimerRepo, c.tracker, c.clock, log)

	c.ucs.listRouteEventsUC = routingUsecases.NewListRouteEventsUseCase(repos.routeEventRepo, log)

	log.Infow("routing engine initialized",
		"lock_backend", cfg.Routing.LockBackend,
		"default_pool_id", cfg.Routing.DefaultPoolID,
		"fanout", c.routeEventBus != nil,
	)
	return nil
}

// ============================================================
// Section 3: Rules - Store, Revisions, Import
// ============================================================

func (c *Container) initRules() {
	log := c.log
	repo := c.repos.ruleRepo

	c.ucs.createRuleUC = ruleUsecases.NewCreateRuleUseCase(repo, c.txManager, c.clock, log)
	c.ucs.updateRuleUC = ruleUsecases.NewUpdateRuleUseCase(repo, c.txManager, c.clock, log)
	c.ucs.deleteRuleUC = ruleUsecases.NewDeleteRuleUseCase(repo, c.txManager, c.clock, log)
	c.ucs.getRuleUC = ruleUsecases.NewGetRuleUseCase(repo, log)
	c.ucs.listRulesUC = ruleUsecases.NewListRulesUseCase(repo, log)
	c.ucs.listRuleRevisionsUC = ruleUsecases.NewListRuleRevisionsUseCase(repo, log)
	c.ucs.importRulesUC = ruleUsecases.NewImportRulesUseCase(c.ucs.createRuleUC, log)
}

// ============================================================
// Section 4: SLA - Sweep, Escalation Notices, Dashboard
// ============================================================

func (c *Container) initSLA() error {
	cfg := c.cfg
	log := c.log

	mode, err := slaServices.ParseEscalationMode(cfg.SLA.EscalationMode)
	if err != nil {
		return fmt.Errorf("invalid sla.escalation_mode: %w", err)
	}

	c.sweeper = slaServices.NewSweepService(
		c.repos.slaTimerRepo,
		c.routingEngine,
		c.newEscalationNotifier(),
		c.clock,
		slaServices.SweepConfig{
			Thresholds: sla.Thresholds{
				AmberRatio: cfg.SLA.AmberRatio,
				Grace:      cfg.SLA.Grace(),
			},
			Mode:      mode,
			BatchSize: cfg.SLA.SweepBatchSize,
			Workers:   cfg.SLA.SweepWorkers,
		},
		log,
	)
	c.ucs.processSweepUC = slaUsecases.NewProcessSweepUseCase(c.sweeper, c.clock, log)

	var dashboardCache slaUsecases.DashboardCache
	if c.redis != nil && cfg.Metrics.DashboardCacheTTL() > 0 {
		c.dashboardCache = cache.NewDashboardCache(c.redis, cfg.Metrics.DashboardCacheTTL())
		dashboardCache = c.dashboardCache
	}
	c.ucs.getDashboardUC = slaUsecases.NewGetDashboardUseCase(
		c.repos.slaTimerRepo, c.repos.routeEventRepo, dashboardCache, c.clock, log,
	)

	log.Infow("sla sweep initialized",
		"escalation_mode", string(mode),
		"deadline", cfg.SLA.Deadline().String(),
		"grace", cfg.SLA.Grace().String(),
		"dashboard_cache", c.dashboardCache != nil,
	)
	return nil
}

// newEscalationNotifier returns nil when SMTP or recipients are missing; the
// sweep then skips notices.
func (c *Container) newEscalationNotifier() slaServices.Notifier {
	emailCfg := c.cfg.Email
	if emailCfg.SMTPHost == "" {
		c.log.Infow("smtp not configured, escalation notices disabled")
		return nil
	}
	if len(c.cfg.SLA.NotifyRecipients) == 0 {
		c.log.Warnw("sla.notify_recipients is empty, escalation notices disabled")
		return nil
	}

	return email.NewEscalationNotifier(email.SMTPConfig{
		Host:        emailCfg.SMTPHost,
		Port:        emailCfg.SMTPPort,
		Username:    emailCfg.SMTPUser,
		Password:    emailCfg.SMTPPassword,
		FromAddress: emailCfg.FromAddress,
		FromName:    emailCfg.FromName,
		Recipients:  c.cfg.SLA.NotifyRecipients,
	}, markdown.NewMarkdownService())
}

// ============================================================
// Section 5: Metrics
// ============================================================

func (c *Container) initMetrics() {
	c.ucs.getMetricsUC = metricsUsecases.NewGetMetricsUseCase(
		c.repos.routeEventRepo, c.repos.slaTimerRepo, c.repos.capacityRepo, c.clock, c.log,
	)
}

// ============================================================
// Section 6: Handlers
// ============================================================

func (c *Container) initHandlers() {
	log := c.log
	ucs := c.ucs

	health := handlers.NewHealthHandler(c.version, log)
	health.AddCheck("database", func(ctx context.Context) error {
		sqlDB, err := c.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	if c.redis != nil {
		health.AddCheck("redis", func(ctx context.Context) error {
			return c.redis.Ping(ctx).Err()
		})
	}

	c.hdlrs = &allHandlers{
		healthHandler: health,
		ruleHandler: ruleHandlers.NewHandler(
			ucs.createRuleUC, ucs.updateRuleUC, ucs.deleteRuleUC, ucs.getRuleUC,
			ucs.listRulesUC, ucs.listRuleRevisionsUC, ucs.importRulesUC, log,
		),
		recordHandler: routingHandlers.NewRecordHandler(
			ucs.admitRecordUC, ucs.validateTransitionUC, ucs.resolveRecordUC, log,
		),
		capacityHandler: routingHandlers.NewCapacityHandler(
			ucs.getCapacityViewUC, ucs.setOwnerCapacityUC, ucs.setPoolMembersUC, ucs.rebuildCapacityUC, log,
		),
		routeEventHandler: routingHandlers.NewRouteEventHandler(ucs.listRouteEventsUC, log),
		slaHandler:        slaHandlers.NewHandler(ucs.processSweepUC, ucs.getDashboardUC, log),
		metricsHandler:    metricsHandlers.NewHandler(ucs.getMetricsUC, log),
	}
}

// ============================================================
// Section 7: Subscribers
// ============================================================

// initSubscribers drops cached dashboards whenever any instance commits a
// route event for the org.
func (c *Container) initSubscribers() {
	if c.routeEventBus == nil || c.dashboardCache == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.routeEventBusCancelMu.Lock()
	c.routeEventBusCancel = cancel
	c.routeEventBusCancelMu.Unlock()

	bus := c.routeEventBus
	dashboardCache := c.dashboardCache
	log := c.log

	goroutine.SafeGo(log, "route-event-dashboard-invalidator", func() {
		err := bus.Subscribe(ctx, false, func(ctx context.Context, msg pubsub.RouteEventMessage) {
			if err := dashboardCache.Invalidate(ctx, msg.OrgID); err != nil {
				log.Warnw("failed to invalidate dashboard cache",
					"org_id", msg.OrgID,
					"event_id", msg.ID,
					"error", err,
				)
			}
		})
		logSubscriberExit(log, "route event dashboard invalidator", err)
	})
}

// logSubscriberExit logs the reason a subscriber goroutine returned.
// context.Canceled is the normal shutdown path and is logged at INFO;
// unexpected errors are logged at ERROR.
func logSubscriberExit(log logger.Interface, name string, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		log.Infow(name+" stopped", "reason", "context canceled")
		return
	}
	log.Errorw(name+" failed", "error", err)
}

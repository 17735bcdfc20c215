package http

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	routingServices "github.com/hatch-crm/hatch/internal/application/routing/services"
	slaServices "github.com/hatch-crm/hatch/internal/application/sla/services"
	"github.com/hatch-crm/hatch/internal/domain/capacity"
	"github.com/hatch-crm/hatch/internal/infrastructure/cache"
	"github.com/hatch-crm/hatch/internal/infrastructure/config"
	"github.com/hatch-crm/hatch/internal/infrastructure/pubsub"
	"github.com/hatch-crm/hatch/internal/interfaces/http/middleware"
	"github.com/hatch-crm/hatch/internal/shared/biztime"
	shareddb "github.com/hatch-crm/hatch/internal/shared/db"
	"github.com/hatch-crm/hatch/internal/shared/logger"
)

// Container holds all infrastructure components, repositories, use cases and
// handlers. It is responsible for wiring everything together and providing a
// Shutdown() method for graceful termination. The CLI and the worker build
// the same container and use its accessors instead of the HTTP surface.
type Container struct {
	// Core infrastructure
	engine  *gin.Engine
	db      *gorm.DB
	cfg     *config.Config
	log     logger.Interface
	redis   *redis.Client
	clock   biztime.Clock
	version string

	// Repositories
	repos *repositories

	// Use cases
	ucs *allUseCases

	// Handlers
	hdlrs *allHandlers

	// Middlewares
	rateLimiter *middleware.RateLimiter

	// Routing services shared by admission, capacity administration and the sweep
	txManager     *shareddb.TransactionManager
	tracker       *capacity.Tracker
	poolLocker    routingServices.PoolLocker
	routingEngine *routingServices.Engine
	gate          *routingServices.Gate

	// SLA
	sweeper        *slaServices.SweepService
	dashboardCache *cache.DashboardCache

	// Route event bus for cross-instance fan-out
	routeEventBus         *pubsub.RouteEventBus
	routeEventBusCancel   context.CancelFunc
	routeEventBusCancelMu sync.Mutex
}

// NewContainer creates a new Container with all dependencies wired together.
// Redis is optional; without it pool locks stay in process and the dashboard
// is computed on every read.
func NewContainer(db *gorm.DB, cfg *config.Config, log logger.Interface, version string) (*Container, error) {
	c := &Container{
		engine:  gin.New(),
		db:      db,
		cfg:     cfg,
		log:     log,
		clock:   biztime.SystemClock(),
		version: version,
	}

	// Section 1: Infrastructure - Redis, Repositories, Capacity Tracker
	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}

	// Section 2: Routing - Pool Locks, Engine, Gate, Admission
	if err := c.initRouting(); err != nil {
		return nil, err
	}

	// Section 3: Rules - Store, Revisions, Import
	c.initRules()

	// Section 4: SLA - Sweep, Escalation Notices, Dashboard
	if err := c.initSLA(); err != nil {
		return nil, err
	}

	// Section 5: Metrics
	c.initMetrics()

	// Section 6: Handlers
	c.initHandlers()

	// Section 7: Subscribers
	c.initSubscribers()

	return c, nil
}

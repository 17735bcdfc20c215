package constants

const (
	// Default cursor page sizes
	DefaultPageSize = 50
	MaxPageSize     = 500

	// HTTP Headers
	HeaderXRequestID = "X-Request-ID"
	HeaderXOrgID     = "X-Org-ID"

	// DefaultOrgID scopes requests that carry no organization header
	DefaultOrgID = "default"

	// Context keys
	ContextKeyRequestID = "request_id"
	ContextKeyOrgID     = "org_id"

	// Database table names
	TableRules         = "rules"
	TableRuleRevisions = "rule_revisions"
	TableOwnerCapacity = "owner_capacity"
	TablePoolMembers   = "pool_members"
	TableRouteEvents   = "route_events"
	TableSLATimers     = "sla_timers"

	// Redis key prefixes
	RedisKeyPoolLock       = "hatch:lock:pool:"
	RedisKeyDashboard      = "hatch:sla:dashboard:"
	RedisChannelRouteEvent = "hatch:route_events"
	RedisKeyRateLimit      = "hatch:ratelimit:org:"
)

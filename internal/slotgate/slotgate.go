// Package slotgate keeps a Redis marker for issues whose sponsorship slot
// is already confirmed, so losing confirmations can be turned away before
// opening a database transaction. The marker is advisory: the unique
// constraint on confirmed_sponsorships decides every race, and Redis
// errors never fail a request.
package slotgate

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/AminArria/sponsorly/pkg/logger"
	pkgredis "github.com/AminArria/sponsorly/pkg/redis"
)

// Gate tracks confirmed slots
type Gate interface {
	// ConfirmedBy returns the confirmed sponsorship id recorded for issueID, or "".
	ConfirmedBy(ctx context.Context, issueID string) string
	// MarkConfirmed records confirmedID as the holder of issueID's slot
	MarkConfirmed(ctx context.Context, issueID, confirmedID string)
	// Release clears the marker only if confirmedID still holds it
	Release(ctx context.Context, issueID, confirmedID string)
}

const (
	defaultKeyPrefix = "slot:confirmed:"
	defaultTTL       = 30 * 24 * time.Hour

	releaseScriptName = "slot_release"
)

// releaseScript deletes the marker only when its value matches ARGV[1]
const releaseScript = `
local current = redis.call("GET", KEYS[1])
if not current then
    return 0
end
if current ~= ARGV[1] then
    return -1
end
redis.call("DEL", KEYS[1])
return 1
`

// Config holds gate settings
type Config struct {
	KeyPrefix string
	TTL       time.Duration
}

// RedisGate implements Gate on Redis
type RedisGate struct {
	client *pkgredis.Client
	cfg    Config
	log    *logger.Logger
}

// NewRedisGate creates a gate and registers its Lua script
func NewRedisGate(ctx context.Context, client *pkgredis.Client, cfg Config) (*RedisGate, error) {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if _, err := client.LoadScript(ctx, releaseScriptName, releaseScript); err != nil {
		return nil, err
	}
	return &RedisGate{
		client: client,
		cfg:    cfg,
		log:    logger.Get().Named("slotgate"),
	}, nil
}

func (g *RedisGate) key(issueID string) string {
	return g.cfg.KeyPrefix + issueID
}

// ConfirmedBy implements Gate
func (g *RedisGate) ConfirmedBy(ctx context.Context, issueID string) string {
	holder, err := g.client.Get(ctx, g.key(issueID)).Result()
	if err != nil {
		if !pkgredis.IsNil(err) {
			g.log.WarnContext(ctx, "slot marker lookup failed",
				zap.String("issue_id", issueID),
				zap.Error(err),
			)
		}
		return ""
	}
	return holder
}

// MarkConfirmed implements Gate
func (g *RedisGate) MarkConfirmed(ctx context.Context, issueID, confirmedID string) {
	if err := g.client.Set(ctx, g.key(issueID), confirmedID, g.cfg.TTL).Err(); err != nil {
		g.log.WarnContext(ctx, "slot marker write failed",
			zap.String("issue_id", issueID),
			zap.Error(err),
		)
	}
}

// Release implements Gate
func (g *RedisGate) Release(ctx context.Context, issueID, confirmedID string) {
	res, err := g.client.EvalShaByName(ctx, releaseScriptName, []string{g.key(issueID)}, confirmedID).Int64()
	if err != nil {
		g.log.WarnContext(ctx, "slot marker release failed",
			zap.String("issue_id", issueID),
			zap.Error(err),
		)
		return
	}
	if res < 0 {
		g.log.DebugContext(ctx, "slot marker held by another confirmation",
			zap.String("issue_id", issueID),
			zap.String("confirmed_id", confirmedID),
		)
	}
}

// Noop is a Gate that remembers nothing; used when Redis is disabled
type Noop struct{}

func (Noop) ConfirmedBy(context.Context, string) string { return "" }
func (Noop) MarkConfirmed(context.Context, string, string) {}
func (Noop) Release(context.Context, string, string) {}

var (
	_ Gate = (*RedisGate)(nil)
	_ Gate = Noop{}
)

package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AminArria/sponsorly/pkg/logger"
)

// Config holds Redis connection configuration
type Config struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxRetries   int
}

// DefaultConfig returns default Redis configuration
func DefaultConfig() *Config {
	return &Config{
		Host:         "localhost",
		Port:         6379,
		DB:           0,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   3,
	}
}

// Addr returns host:port
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Client wraps go-redis with a registry of named Lua scripts
type Client struct {
	*redis.Client

	mu      sync.RWMutex
	scripts map[string]string // name -> sha
	sources map[string]string // name -> source, used to reload after NOSCRIPT
}

// NewClient connects to Redis and verifies the connection with PING
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		MaxRetries:   cfg.MaxRetries,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr(), err)
	}

	logger.Info("Connected to Redis", zap.String("addr", cfg.Addr()))
	return Wrap(rdb), nil
}

// Wrap adapts an existing go-redis client
func Wrap(rdb *redis.Client) *Client {
	return &Client{
		Client:  rdb,
		scripts: make(map[string]string),
		sources: make(map[string]string),
	}
}

// LoadScript uploads a Lua script and registers it under name
func (c *Client) LoadScript(ctx context.Context, name, source string) (string, error) {
	sha, err := c.ScriptLoad(ctx, source).Result()
	if err != nil {
		return "", fmt.Errorf("load script %s: %w", name, err)
	}

	c.mu.Lock()
	c.scripts[name] = sha
	c.sources[name] = source
	c.mu.Unlock()
	return sha, nil
}

// EvalShaByName runs a script registered with LoadScript. If the server
// lost its script cache the source is evaluated directly.
func (c *Client) EvalShaByName(ctx context.Context, name string, keys []string, args ...any) *redis.Cmd {
	c.mu.RLock()
	sha, ok := c.scripts[name]
	source := c.sources[name]
	c.mu.RUnlock()

	if !ok {
		cmd := redis.NewCmd(ctx)
		cmd.SetErr(fmt.Errorf("script %q not loaded", name))
		return cmd
	}

	cmd := c.EvalSha(ctx, sha, keys, args...)
	if err := cmd.Err(); err != nil && strings.HasPrefix(err.Error(), "NOSCRIPT") {
		return c.Eval(ctx, source, keys, args...)
	}
	return cmd
}

// HealthCheck pings Redis
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// IsNil reports whether err is a missing-key reply
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

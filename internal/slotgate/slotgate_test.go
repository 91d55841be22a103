package slotgate

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgredis "github.com/AminArria/sponsorly/pkg/redis"
)

func newTestGate(t *testing.T) (*RedisGate, *miniredis.Miniredis) {
	t.Helper()
	ctx := context.Background()
	mr := miniredis.RunT(t)

	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	cfg := pkgredis.DefaultConfig()
	cfg.Host = mr.Host()
	cfg.Port = port
	cfg.MaxRetries = 0

	client, err := pkgredis.NewClient(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	gate, err := NewRedisGate(ctx, client, Config{TTL: time.Hour})
	require.NoError(t, err)
	return gate, mr
}

func TestRedisGate_MarkAndLookup(t *testing.T) {
	ctx := context.Background()
	gate, mr := newTestGate(t)

	assert.Equal(t, "", gate.ConfirmedBy(ctx, "issue-1"))

	gate.MarkConfirmed(ctx, "issue-1", "confirmed-a")
	assert.Equal(t, "confirmed-a", gate.ConfirmedBy(ctx, "issue-1"))
	assert.Equal(t, "", gate.ConfirmedBy(ctx, "issue-2"))

	assert.Equal(t, time.Hour, mr.TTL(defaultKeyPrefix+"issue-1"))

	mr.FastForward(2 * time.Hour)
	assert.Equal(t, "", gate.ConfirmedBy(ctx, "issue-1"))
}

func TestRedisGate_MarkOverwritesStaleMarker(t *testing.T) {
	ctx := context.Background()
	gate, _ := newTestGate(t)

	// left behind when a release failed after the confirmation was deleted
	gate.MarkConfirmed(ctx, "issue-1", "confirmed-old")
	gate.MarkConfirmed(ctx, "issue-1", "confirmed-new")
	assert.Equal(t, "confirmed-new", gate.ConfirmedBy(ctx, "issue-1"))

	gate.Release(ctx, "issue-1", "confirmed-old")
	assert.Equal(t, "confirmed-new", gate.ConfirmedBy(ctx, "issue-1"))
}

func TestRedisGate_ReleaseChecksHolder(t *testing.T) {
	ctx := context.Background()
	gate, _ := newTestGate(t)

	gate.MarkConfirmed(ctx, "issue-1", "confirmed-b")

	gate.Release(ctx, "issue-1", "confirmed-a")
	assert.Equal(t, "confirmed-b", gate.ConfirmedBy(ctx, "issue-1"), "stale release must not clear a newer marker")

	gate.Release(ctx, "issue-1", "confirmed-b")
	assert.Equal(t, "", gate.ConfirmedBy(ctx, "issue-1"))

	// releasing an absent marker is harmless
	gate.Release(ctx, "issue-1", "confirmed-b")
}

func TestRedisGate_FailsOpen(t *testing.T) {
	ctx := context.Background()
	gate, mr := newTestGate(t)
	gate.MarkConfirmed(ctx, "issue-1", "confirmed-a")

	mr.Close()

	assert.NotPanics(t, func() {
		assert.Equal(t, "", gate.ConfirmedBy(ctx, "issue-1"))
		gate.MarkConfirmed(ctx, "issue-2", "confirmed-b")
		gate.Release(ctx, "issue-1", "confirmed-a")
	})
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var g Gate = Noop{}
	g.MarkConfirmed(ctx, "issue-1", "confirmed-a")
	assert.Equal(t, "", g.ConfirmedBy(ctx, "issue-1"))
	g.Release(ctx, "issue-1", "confirmed-a")
}

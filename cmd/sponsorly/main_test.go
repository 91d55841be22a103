package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AminArria/sponsorly/internal/schedule"
	"github.com/AminArria/sponsorly/pkg/middleware"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := strings.Join([]string{
		"DATABASE_DRIVER=sqlite",
		"DATABASE_SQLITE_PATH=" + filepath.Join(dir, "sponsorly.db"),
		"JWT_SECRET=cli-test-secret",
		"JWT_ISSUER=sponsorly",
		"APP_ENVIRONMENT=test",
		"APP_DEBUG=false",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSchedulePreview(t *testing.T) {
	cfg := writeConfig(t)
	out, err := run(t, "-c", cfg, "schedule", "preview",
		"--next", "2026-11-02T09:00:00Z", "--interval", "7", "--count", "3")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "DUE")
	assert.Contains(t, lines[1], "2026-11-02T09:00:00Z")
	assert.Contains(t, lines[1], "2026-10-19T09:00:00Z")
	assert.Contains(t, lines[1], "2026-10-31T09:00:00Z")
	assert.Contains(t, lines[3], "2026-11-16T09:00:00Z")
}

func TestSchedulePreview_InvalidWindow(t *testing.T) {
	cfg := writeConfig(t)
	_, err := run(t, "-c", cfg, "schedule", "preview",
		"--next", "2026-11-02T09:00:00Z", "--in", "2", "--before", "2")
	assert.ErrorIs(t, err, schedule.ErrInvalidWindow)
}

func TestWindowState(t *testing.T) {
	w := schedule.WindowFor(time.Date(2026, time.November, 2, 9, 0, 0, 0, time.UTC), 14, 2)

	assert.Equal(t, "upcoming", windowState(w, w.OpensAt.Add(-time.Second)))
	assert.Equal(t, "open", windowState(w, w.OpensAt))
	assert.Equal(t, "closed", windowState(w, w.ClosesAt))
}

func TestMigrateUserAndToken(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "-c", cfg, "migrate")
	require.NoError(t, err)
	assert.NotContains(t, out, "applied 0")

	out, err = run(t, "-c", cfg, "user", "create", "--slug", "alice", "--email", "alice@example.com", "--name", "Alice")
	require.NoError(t, err)
	fields := strings.Fields(out)
	require.Len(t, fields, 2)
	userID := fields[0]
	assert.Equal(t, "alice", fields[1])

	_, err = run(t, "-c", cfg, "user", "create", "--slug", "alice", "--email", "other@example.com")
	assert.Error(t, err)

	out, err = run(t, "-c", cfg, "token", "issue", "alice", "--ttl", "1h")
	require.NoError(t, err)
	claims, err := middleware.ParseToken(&middleware.JWTConfig{Secret: "cli-test-secret", Issuer: "sponsorly"}, strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "alice", claims.UserSlug)

	_, err = run(t, "-c", cfg, "token", "issue", "nobody")
	assert.Error(t, err)
}

package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AminArria/sponsorly/internal/domain"
	"github.com/AminArria/sponsorly/internal/dto"
	"github.com/AminArria/sponsorly/internal/events"
	"github.com/AminArria/sponsorly/internal/repository"
	"github.com/AminArria/sponsorly/internal/repository/migrations"
	"github.com/AminArria/sponsorly/pkg/database"
	"github.com/AminArria/sponsorly/pkg/logger"
)

var baseTime = time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	store     *repository.SQLiteStore
	publisher *events.MemoryPublisher
	now       time.Time
}

func (e *testEnv) clock() time.Time { return e.now }

func (e *testEnv) options(extra ...Option) []Option {
	return append([]Option{WithClock(e.clock), WithPublisher(e.publisher)}, extra...)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger.SetGlobal(logger.NewNop())
	ctx := context.Background()

	db, err := database.OpenSQLite(ctx, &database.SQLiteConfig{Path: filepath.Join(t.TempDir(), "sponsorly.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = database.ApplySQLiteMigrations(ctx, db, migrations.SQLite, "sqlite")
	require.NoError(t, err)

	return &testEnv{
		store:     repository.NewSQLiteStore(db),
		publisher: events.NewMemoryPublisher(),
		now:       baseTime,
	}
}

func (e *testEnv) createUser(t *testing.T, slug string) *dto.UserResponse {
	t.Helper()
	u, err := NewUserService(e.store, e.options()...).Create(context.Background(), &dto.CreateUserRequest{
		Slug:  slug,
		Email: slug + "@example.com",
		Name:  slug,
	})
	require.NoError(t, err)
	return u
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func newsletterRequest(slug string) *dto.CreateNewsletterRequest {
	return &dto.CreateNewsletterRequest{
		Name:              "Go Weekly",
		Slug:              slug,
		IntervalDays:      intPtr(7),
		SponsorInDays:     intPtr(14),
		SponsorBeforeDays: intPtr(2),
		NextIssueAt:       timePtr(baseTime.Add(24 * time.Hour)),
	}
}

func TestUserService_Create(t *testing.T) {
	env := newTestEnv(t)
	svc := NewUserService(env.store, env.options()...)
	ctx := context.Background()

	u, err := svc.Create(ctx, &dto.CreateUserRequest{Slug: "alice", Email: " Alice@Example.com ", Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, dto.FormatTime(baseTime), u.CreatedAt)

	got, err := svc.GetBySlug(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Create(ctx, &dto.CreateUserRequest{Slug: "alice", Email: "other@example.com"})
	verr, ok := domain.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, []string{domain.MsgTaken}, verr.Fields["slug"])
}

func TestUserService_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewUserService(env.store, env.options()...)

	_, err := svc.Create(context.Background(), &dto.CreateUserRequest{Slug: "Not A Slug", Email: "nope"})
	verr, ok := domain.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, []string{domain.MsgInvalidSlug}, verr.Fields["slug"])
	assert.Equal(t, []string{domain.MsgInvalidEmail}, verr.Fields["email"])
}

func TestUserService_NotFound(t *testing.T) {
	env := newTestEnv(t)
	svc := NewUserService(env.store)

	_, err := svc.GetBySlug(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = svc.GetByID(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

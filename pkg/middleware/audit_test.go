package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/AminArria/sponsorly/pkg/logger"
)

const testUUID = "123e4567-e89b-12d3-a456-426614174000"

func TestDefaultActionMapper(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		expected AuditAction
	}{
		{"POST creates", "POST", "/api/v1/newsletters", AuditActionCreate},
		{"PUT updates", "PUT", "/api/v1/newsletters/" + testUUID, AuditActionUpdate},
		{"DELETE deletes", "DELETE", "/api/v1/newsletters/" + testUUID, AuditActionDelete},
		{"GET views", "GET", "/api/v1/newsletters", AuditActionView},
		{"offer", "POST", "/api/v1/issues/" + testUUID + "/sponsorships", AuditActionOffer},
		{"withdraw", "DELETE", "/api/v1/sponsorships/" + testUUID, AuditActionWithdraw},
		{"confirm", "POST", "/api/v1/sponsorships/" + testUUID + "/confirm", AuditActionConfirm},
		{"reopen", "DELETE", "/api/v1/confirmed-sponsorships/" + testUUID, AuditActionReopen},
		{"ad copy edit", "PUT", "/api/v1/confirmed-sponsorships/" + testUUID, AuditActionUpdate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, defaultActionMapper(tt.method, tt.path))
		})
	}
}

func TestDefaultResourceExtractor(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		expectedType string
		expectedID   string
	}{
		{"simple resource", "/api/v1/newsletters/" + testUUID, "newsletter", testUUID},
		{"resource list", "/api/v1/newsletters", "newsletter", ""},
		{"nested resource", "/api/v1/newsletters/abc/issues/" + testUUID, "issue", testUUID},
		{"nested list", "/api/v1/issues/" + testUUID + "/sponsorships", "sponsorship", ""},
		{"action suffix", "/api/v1/sponsorships/" + testUUID + "/confirm", "sponsorship", testUUID},
		{"hyphenated", "/api/v1/confirmed-sponsorships/" + testUUID, "confirmed-sponsorship", testUUID},
		{"empty", "/", "unknown", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resourceType, resourceID := defaultResourceExtractor(tt.path)
			assert.Equal(t, tt.expectedType, resourceType)
			assert.Equal(t, tt.expectedID, resourceID)
		})
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{"forwarded for", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "127.0.0.1:1234", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.3"}, "127.0.0.1:1234", "10.0.0.3"},
		{"remote addr", nil, "192.168.1.5:5555", "192.168.1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
			c.Request.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, getClientIP(c))
		})
	}
}

func TestMatchPath(t *testing.T) {
	assert.True(t, matchPath("/health", "/health"))
	assert.False(t, matchPath("/healthz", "/health"))
	assert.True(t, matchPath("/api/v1/u/alice/newsletters", "/api/v1/u/*"))
}

func newTestAuditLogger(config *AuditConfig) *AuditLogger {
	al := NewAuditLogger(config)
	al.SetTestMode(true)
	return al
}

func TestAuditMiddleware_SkipPaths(t *testing.T) {
	config := DefaultAuditConfig(nil)
	al := newTestAuditLogger(config)

	router := gin.New()
	router.Use(AuditMiddleware(al))
	router.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "OK") })
	router.GET("/api/v1/newsletters", func(c *gin.Context) { c.String(http.StatusOK, "OK") })

	for _, path := range []string{"/health", "/api/v1/newsletters"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	require.NoError(t, al.Close())
	assert.Empty(t, al.GetTestEntries(), "No entries should be logged for skipped paths/methods")
}

func TestAuditMiddleware_CapturesRequest(t *testing.T) {
	al := newTestAuditLogger(DefaultAuditConfig(nil))

	router := gin.New()
	// Simulate JWT middleware
	router.Use(func(c *gin.Context) {
		c.Set(ContextKeyUserID, "user-123")
		c.Set(ContextKeyUserSlug, "alice")
		c.Next()
	})
	router.Use(AuditMiddleware(al))
	router.POST("/api/v1/sponsorships/:id/confirm", func(c *gin.Context) {
		c.String(http.StatusConflict, "taken")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sponsorships/"+testUUID+"/confirm", nil)
	req.Header.Set("X-Request-ID", "req-123")
	req.Header.Set("User-Agent", "TestAgent/1.0")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.NoError(t, al.Close())
	entries := al.GetTestEntries()
	require.Len(t, entries, 1)

	entry := entries[0]
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "user-123", *entry.UserID)
	assert.Equal(t, "alice", entry.UserSlug)
	assert.Equal(t, AuditActionConfirm, entry.Action)
	assert.Equal(t, "sponsorship", entry.ResourceType)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, testUUID, *entry.ResourceID)
	assert.Equal(t, http.StatusConflict, entry.StatusCode)
	assert.Equal(t, "req-123", entry.RequestID)
	assert.Equal(t, "TestAgent/1.0", entry.UserAgent)
}

func TestAuditMiddleware_SetContextValues(t *testing.T) {
	al := newTestAuditLogger(DefaultAuditConfig(nil))

	router := gin.New()
	router.Use(AuditMiddleware(al))
	router.POST("/api/v1/issues/:issue_id/sponsorships", func(c *gin.Context) {
		SetAuditResourceID(c, "offer-1")
		SetAuditMetadata(c, map[string]any{"issue_id": c.Param("issue_id")})
		c.Status(http.StatusCreated)
	})
	router.POST("/api/v1/skipped", func(c *gin.Context) {
		SkipAudit(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/issues/"+testUUID+"/sponsorships", nil))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/skipped", nil))

	require.NoError(t, al.Close())
	entries := al.GetTestEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, AuditActionOffer, entries[0].Action)
	assert.Equal(t, "offer-1", *entries[0].ResourceID)
	assert.Equal(t, testUUID, entries[0].Metadata["issue_id"])
	assert.Nil(t, entries[0].UserID)
}

func TestAuditLogger_BufferFull(t *testing.T) {
	al := NewAuditLogger(&AuditConfig{BufferSize: 2, FlushInterval: time.Hour, BatchSize: 100})

	// must neither block nor panic
	for i := 0; i < 5; i++ {
		al.Log(&AuditEntry{ID: "test"})
	}
	require.NoError(t, al.Close())
	require.NoError(t, al.Close())
}

func TestAuditLogger_BatchFlush(t *testing.T) {
	al := newTestAuditLogger(&AuditConfig{BufferSize: 10, FlushInterval: time.Hour, BatchSize: 2})
	defer al.Close()

	al.Log(&AuditEntry{ID: "1"})
	al.Log(&AuditEntry{ID: "2"})

	assert.Eventually(t, func() bool {
		return len(al.GetTestEntries()) == 2
	}, time.Second, 10*time.Millisecond)
}

type recordingWriter struct {
	batches [][]*AuditEntry
}

func (w *recordingWriter) WriteBatch(_ context.Context, entries []*AuditEntry) error {
	w.batches = append(w.batches, entries)
	return nil
}

func TestAuditLogger_UsesWriter(t *testing.T) {
	writer := &recordingWriter{}
	al := NewAuditLogger(&AuditConfig{Writer: writer, BufferSize: 10, FlushInterval: time.Hour, BatchSize: 100})

	al.Log(&AuditEntry{ID: "1"})
	al.Log(&AuditEntry{ID: "2"})
	require.NoError(t, al.Close())

	require.Len(t, writer.batches, 1)
	assert.Len(t, writer.batches[0], 2)
}

func TestLogAuditWriter(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	writer := NewLogAuditWriter(logger.FromCore(core, "test"))

	userID := "user-1"
	require.NoError(t, writer.WriteBatch(context.Background(), []*AuditEntry{{
		UserID:       &userID,
		Action:       AuditActionDelete,
		ResourceType: "newsletter",
		StatusCode:   http.StatusOK,
	}}))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "delete", fields["action"])
	assert.Equal(t, "user-1", fields["user_id"])
}

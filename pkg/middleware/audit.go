package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/AminArria/sponsorly/pkg/logger"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionCreate   AuditAction = "create"
	AuditActionUpdate   AuditAction = "update"
	AuditActionDelete   AuditAction = "delete"
	AuditActionOffer    AuditAction = "offer"
	AuditActionWithdraw AuditAction = "withdraw"
	AuditActionConfirm  AuditAction = "confirm"
	AuditActionReopen   AuditAction = "reopen"
	AuditActionView     AuditAction = "view"
)

// Context keys for audit data
const (
	ContextKeyAuditResourceType = "audit_resource_type"
	ContextKeyAuditResourceID   = "audit_resource_id"
	ContextKeyAuditMetadata     = "audit_metadata"
	contextKeyAuditSkip         = "audit_skip"
)

// AuditEntry represents a single audit log entry
type AuditEntry struct {
	ID           string         `json:"id"`
	UserID       *string        `json:"user_id,omitempty"`
	UserSlug     string         `json:"user_slug,omitempty"`
	Action       AuditAction    `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   *string        `json:"resource_id,omitempty"`
	IPAddress    string         `json:"ip_address,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	RequestID    string         `json:"request_id,omitempty"`
	StatusCode   int            `json:"status_code"`
	Duration     time.Duration  `json:"duration"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// AuditWriter persists batches of audit entries
type AuditWriter interface {
	WriteBatch(ctx context.Context, entries []*AuditEntry) error
}

// PgAuditWriter writes entries to the audit_logs table
type PgAuditWriter struct {
	pool *pgxpool.Pool
}

// NewPgAuditWriter creates a writer backed by pool
func NewPgAuditWriter(pool *pgxpool.Pool) *PgAuditWriter {
	return &PgAuditWriter{pool: pool}
}

const insertAuditLog = `
	INSERT INTO audit_logs (
		id, user_id, action, resource_type, resource_id,
		ip_address, user_agent, request_id, status_code, duration_ms,
		metadata, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// WriteBatch sends all entries in one round trip
func (w *PgAuditWriter) WriteBatch(ctx context.Context, entries []*AuditEntry) error {
	batch := &pgx.Batch{}
	for _, entry := range entries {
		metadata := entry.Metadata
		if entry.UserSlug != "" {
			if metadata == nil {
				metadata = make(map[string]any, 1)
			}
			metadata["user_slug"] = entry.UserSlug
		}
		metadataJSON, err := json.Marshal(metadata)
		if err != nil || string(metadataJSON) == "null" {
			metadataJSON = []byte("{}")
		}

		batch.Queue(insertAuditLog,
			entry.ID, entry.UserID, string(entry.Action), entry.ResourceType, entry.ResourceID,
			entry.IPAddress, entry.UserAgent, entry.RequestID, entry.StatusCode, entry.Duration.Milliseconds(),
			metadataJSON, entry.CreatedAt,
		)
	}

	results := w.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range entries {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LogAuditWriter writes entries to the structured log. It is used when
// there is no Postgres database to hold audit_logs.
type LogAuditWriter struct {
	log *logger.Logger
}

// NewLogAuditWriter creates a log-backed writer
func NewLogAuditWriter(log *logger.Logger) *LogAuditWriter {
	return &LogAuditWriter{log: log}
}

// WriteBatch logs one line per entry
func (w *LogAuditWriter) WriteBatch(ctx context.Context, entries []*AuditEntry) error {
	for _, entry := range entries {
		fields := []zap.Field{
			zap.String("action", string(entry.Action)),
			zap.String("resource_type", entry.ResourceType),
			zap.Int("status_code", entry.StatusCode),
			zap.Duration("duration", entry.Duration),
			zap.String("request_id", entry.RequestID),
		}
		if entry.UserID != nil {
			fields = append(fields, zap.String("user_id", *entry.UserID))
		}
		if entry.ResourceID != nil {
			fields = append(fields, zap.String("resource_id", *entry.ResourceID))
		}
		w.log.InfoContext(ctx, "audit", fields...)
	}
	return nil
}

// AuditConfig holds configuration for the audit middleware
type AuditConfig struct {
	// Writer persists entries. Entries are dropped when nil.
	Writer AuditWriter
	// BufferSize is the size of the async audit buffer (default: 1000)
	BufferSize int
	// FlushInterval is how often to flush the buffer (default: 5 seconds)
	FlushInterval time.Duration
	// BatchSize is the maximum number of entries to insert in one batch (default: 100)
	BatchSize int
	// SkipPaths is a list of paths to skip auditing
	SkipPaths []string
	// SkipMethods is a list of HTTP methods to skip (default: GET, HEAD, OPTIONS)
	SkipMethods []string
	// ActionMapper maps HTTP method + path to audit action
	ActionMapper func(method, path string) AuditAction
	// ResourceExtractor extracts resource type and ID from path
	ResourceExtractor func(path string) (resourceType string, resourceID string)
}

// DefaultAuditConfig returns default configuration
func DefaultAuditConfig(writer AuditWriter) *AuditConfig {
	return &AuditConfig{
		Writer:            writer,
		BufferSize:        1000,
		FlushInterval:     5 * time.Second,
		BatchSize:         100,
		SkipPaths:         []string{"/health", "/ready"},
		SkipMethods:       []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		ActionMapper:      defaultActionMapper,
		ResourceExtractor: defaultResourceExtractor,
	}
}

// AuditLogger handles async audit logging
type AuditLogger struct {
	config    *AuditConfig
	buffer    chan *AuditEntry
	wg        sync.WaitGroup
	closeOnce sync.Once
	log       *logger.Logger

	// For testing: collect entries instead of writing
	testMode    bool
	testEntries []*AuditEntry
	testMu      sync.Mutex
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(config *AuditConfig) *AuditLogger {
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 5 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}

	al := &AuditLogger{
		config: config,
		buffer: make(chan *AuditEntry, config.BufferSize),
		log:    logger.Get().Named("audit"),
	}

	al.wg.Add(1)
	go al.worker()

	return al
}

// Log adds an audit entry to the buffer without blocking. Entries are
// dropped when the buffer is full.
func (al *AuditLogger) Log(entry *AuditEntry) {
	select {
	case al.buffer <- entry:
	default:
		al.log.Warn("audit buffer full, entry dropped", zap.String("action", string(entry.Action)))
	}
}

// Close flushes buffered entries and stops the worker
func (al *AuditLogger) Close() error {
	al.closeOnce.Do(func() {
		close(al.buffer)
		al.wg.Wait()
	})
	return nil
}

// SetTestMode enables test mode which collects entries instead of writing them
func (al *AuditLogger) SetTestMode(enabled bool) {
	al.testMu.Lock()
	defer al.testMu.Unlock()
	al.testMode = enabled
	if enabled {
		al.testEntries = make([]*AuditEntry, 0)
	}
}

// GetTestEntries returns collected test entries (only in test mode)
func (al *AuditLogger) GetTestEntries() []*AuditEntry {
	al.testMu.Lock()
	defer al.testMu.Unlock()
	result := make([]*AuditEntry, len(al.testEntries))
	copy(result, al.testEntries)
	return result
}

// worker batches entries and flushes them on size or interval
func (al *AuditLogger) worker() {
	defer al.wg.Done()

	ticker := time.NewTicker(al.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]*AuditEntry, 0, al.config.BatchSize)
	for {
		select {
		case entry, ok := <-al.buffer:
			if !ok {
				al.flush(batch)
				return
			}
			batch = append(batch, entry)
			if len(batch) >= al.config.BatchSize {
				al.flush(batch)
				batch = make([]*AuditEntry, 0, al.config.BatchSize)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				al.flush(batch)
				batch = make([]*AuditEntry, 0, al.config.BatchSize)
			}
		}
	}
}

// flush hands a batch to the writer. Audit failures never reach the request.
func (al *AuditLogger) flush(entries []*AuditEntry) {
	if len(entries) == 0 {
		return
	}

	al.testMu.Lock()
	if al.testMode {
		al.testEntries = append(al.testEntries, entries...)
		al.testMu.Unlock()
		return
	}
	al.testMu.Unlock()

	if al.config.Writer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := al.config.Writer.WriteBatch(ctx, entries); err != nil {
		al.log.Error("failed to write audit entries", zap.Int("count", len(entries)), zap.Error(err))
	}
}

// AuditMiddleware creates a new audit logging middleware
func AuditMiddleware(al *AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		config := al.config

		for _, path := range config.SkipPaths {
			if matchPath(c.Request.URL.Path, path) {
				c.Next()
				return
			}
		}
		for _, method := range config.SkipMethods {
			if c.Request.Method == method {
				c.Next()
				return
			}
		}

		startTime := time.Now()
		c.Next()

		if skip, exists := c.Get(contextKeyAuditSkip); exists && skip.(bool) {
			return
		}

		entry := &AuditEntry{
			ID:         uuid.New().String(),
			StatusCode: c.Writer.Status(),
			Duration:   time.Since(startTime),
			CreatedAt:  startTime.UTC(),
		}

		// set by the JWT middleware
		if userID, ok := GetUserID(c); ok && userID != "" {
			entry.UserID = &userID
		}
		if slug, ok := GetUserSlug(c); ok {
			entry.UserSlug = slug
		}

		if config.ActionMapper != nil {
			entry.Action = config.ActionMapper(c.Request.Method, c.Request.URL.Path)
		}
		if config.ResourceExtractor != nil {
			resourceType, resourceID := config.ResourceExtractor(c.Request.URL.Path)
			entry.ResourceType = resourceType
			if resourceID != "" {
				entry.ResourceID = &resourceID
			}
		}

		// handlers may override what the path implies
		if rt, exists := c.Get(ContextKeyAuditResourceType); exists {
			entry.ResourceType = rt.(string)
		}
		if rid, exists := c.Get(ContextKeyAuditResourceID); exists {
			if s, ok := rid.(string); ok && s != "" {
				entry.ResourceID = &s
			}
		}
		if meta, exists := c.Get(ContextKeyAuditMetadata); exists {
			entry.Metadata = meta.(map[string]any)
		}

		entry.IPAddress = getClientIP(c)
		entry.UserAgent = c.GetHeader("User-Agent")
		entry.RequestID = c.GetHeader("X-Request-ID")
		if entry.RequestID == "" {
			if reqID, exists := c.Get("request_id"); exists {
				entry.RequestID, _ = reqID.(string)
			}
		}

		al.Log(entry)
	}
}

// defaultActionMapper maps method and path to an audit action
func defaultActionMapper(method, path string) AuditAction {
	path = strings.TrimSuffix(strings.ToLower(path), "/")

	switch {
	case strings.HasSuffix(path, "/confirm"):
		return AuditActionConfirm
	case method == http.MethodPost && strings.HasSuffix(path, "/sponsorships"):
		return AuditActionOffer
	case method == http.MethodDelete && strings.Contains(path, "/confirmed-sponsorships/"):
		return AuditActionReopen
	case method == http.MethodDelete && strings.Contains(path, "/sponsorships/"):
		return AuditActionWithdraw
	}

	switch method {
	case http.MethodPost:
		return AuditActionCreate
	case http.MethodPut, http.MethodPatch:
		return AuditActionUpdate
	case http.MethodDelete:
		return AuditActionDelete
	default:
		return AuditActionView
	}
}

// defaultResourceExtractor returns the innermost collection and id in path.
// Example: /api/v1/newsletters/<id>/issues/<issue_id> -> ("issue", "<issue_id>")
func defaultResourceExtractor(path string) (resourceType string, resourceID string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")

	for i := 0; i < len(parts); i++ {
		part := parts[i]
		if part == "api" || isVersion(part) || part == "confirm" || part == "edit" {
			continue
		}
		if isValidID(part) {
			if resourceType != "" {
				resourceID = part
			}
			continue
		}
		resourceType = singular(part)
		resourceID = ""
	}

	if resourceType == "" {
		return "unknown", ""
	}
	return resourceType, resourceID
}

func isVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, c := range s[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func singular(s string) string {
	return strings.TrimSuffix(s, "s")
}

// isValidID checks if a string looks like a UUID
func isValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// getClientIP extracts the client IP address
func getClientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := c.GetHeader("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return ip
}

// matchPath reports whether path equals pattern or, for a pattern ending
// in "*", starts with its prefix
func matchPath(path, pattern string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(path, prefix)
	}
	return path == pattern
}

// SetAuditResourceType sets the resource type for audit logging
func SetAuditResourceType(c *gin.Context, resourceType string) {
	c.Set(ContextKeyAuditResourceType, resourceType)
}

// SetAuditResourceID sets the resource ID for audit logging
func SetAuditResourceID(c *gin.Context, resourceID string) {
	c.Set(ContextKeyAuditResourceID, resourceID)
}

// SetAuditMetadata sets additional metadata for audit logging
func SetAuditMetadata(c *gin.Context, metadata map[string]any) {
	c.Set(ContextKeyAuditMetadata, metadata)
}

// SkipAudit marks the current request to skip audit logging
func SkipAudit(c *gin.Context) {
	c.Set(contextKeyAuditSkip, true)
}

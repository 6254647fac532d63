package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenagalabs/jejak/internal/auth"
	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/ratelimit"
	"github.com/tenagalabs/jejak/internal/service"
)

type stubSettings struct {
	rateLimits domain.RateLimitConfig
	quotas     domain.QuotaConfig
}

func (s *stubSettings) RateLimitConfig(context.Context, bool) domain.RateLimitConfig {
	return s.rateLimits
}
func (s *stubSettings) QuotaConfig(context.Context, bool) domain.QuotaConfig { return s.quotas }
func (s *stubSettings) Update(context.Context, domain.RateLimitConfig, domain.QuotaConfig) error {
	return nil
}
func (s *stubSettings) Invalidate() {}

type stubQuota struct {
	status domain.QuotaStatus
}

func (s *stubQuota) Check(context.Context, *domain.User, domain.Operation) (*domain.QuotaStatus, error) {
	status := s.status
	return &status, nil
}
func (s *stubQuota) Consume(context.Context, *domain.User, domain.Operation) error { return nil }
func (s *stubQuota) Usage(context.Context, uuid.UUID) (*service.TenantUsage, error) {
	return nil, nil
}

func testGate(t *testing.T, quota *stubQuota, perMinute int) *OperationGate {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	limiter := ratelimit.New(ratelimit.NewMemoryStore(), logger)
	settings := &stubSettings{
		rateLimits: domain.RateLimitConfig{
			BillAnalysis:     domain.OperationLimits{RequestsPerMinute: perMinute, RequestsPerHour: 1000, RequestsPerDay: 10000},
			ReportGeneration: domain.OperationLimits{RequestsPerMinute: perMinute, RequestsPerHour: 1000, RequestsPerDay: 10000},
		},
		quotas: domain.DefaultQuotaConfig(),
	}
	return NewOperationGate(limiter, quota, settings, logger)
}

func gateRequest(t *testing.T, gate *OperationGate, user *domain.User) *httptest.ResponseRecorder {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	req := httptest.NewRequest(http.MethodPost, "/api/entries/analyze", nil)
	req = req.WithContext(auth.SetUser(req.Context(), user))
	rec := httptest.NewRecorder()
	gate.Guard(domain.OpBillAnalysis, next).ServeHTTP(rec, req)
	return rec
}

func clerkUser() *domain.User {
	return &domain.User{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Role:     domain.RoleClerk,
		Active:   true,
	}
}

func TestGate_AllowsUnderLimit(t *testing.T) {
	quota := &stubQuota{status: domain.QuotaStatus{Allowed: true, Limit: 10, Remaining: 10}}
	gate := testGate(t, quota, 5)
	user := clerkUser()

	rec := gateRequest(t, gate, user)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestGate_RejectsAtRateLimit(t *testing.T) {
	quota := &stubQuota{status: domain.QuotaStatus{Allowed: true, Limit: 10, Remaining: 10}}
	gate := testGate(t, quota, 2)
	user := clerkUser()

	for i := 0; i < 2; i++ {
		rec := gateRequest(t, gate, user)
		require.Equal(t, http.StatusAccepted, rec.Code, "request %d should pass", i+1)
	}

	rec := gateRequest(t, gate, user)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-Quota-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-Quota-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-Quota-Reset"))

	var body struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, domain.ERATELIMIT, body.Code)
}

func TestGate_RejectsWhenQuotaExhausted(t *testing.T) {
	quota := &stubQuota{status: domain.QuotaStatus{
		Allowed:   false,
		Current:   10,
		Limit:     10,
		Remaining: 0,
		ResetTime: time.Now().AddDate(0, 1, 0),
	}}
	gate := testGate(t, quota, 100)
	user := clerkUser()

	rec := gateRequest(t, gate, user)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "10", rec.Header().Get("X-Quota-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-Quota-Remaining"))

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.EQUOTA, body.Code)
}

func TestGate_SuperadminBypassesBothGates(t *testing.T) {
	// Quota reports exhausted and the minute limit is zero headroom;
	// a superadmin must pass anyway.
	quota := &stubQuota{status: domain.QuotaStatus{Allowed: false}}
	gate := testGate(t, quota, 1)
	admin := &domain.User{ID: uuid.New(), TenantID: uuid.New(), Role: domain.RoleSuperadmin, Active: true}

	for i := 0; i < 5; i++ {
		rec := gateRequest(t, gate, admin)
		assert.Equal(t, http.StatusAccepted, rec.Code, "request %d", i+1)
	}
}

func TestGate_RequiresUser(t *testing.T) {
	quota := &stubQuota{status: domain.QuotaStatus{Allowed: true}}
	gate := testGate(t, quota, 5)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	req := httptest.NewRequest(http.MethodPost, "/api/entries/analyze", nil)
	rec := httptest.NewRecorder()
	gate.Guard(domain.OpBillAnalysis, next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

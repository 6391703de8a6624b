package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wekeepgrowing/billsync/internal/config"
	"github.com/wekeepgrowing/billsync/internal/domain/entity"
	"github.com/wekeepgrowing/billsync/internal/usecase"
	"go.uber.org/zap"
)

type stubRunner struct {
	cancelled []string
}

func (s *stubRunner) Discover(context.Context, usecase.DiscoverRequest, usecase.EventSink) (*usecase.RunSummary, error) {
	return &usecase.RunSummary{}, nil
}

func (s *stubRunner) Cancel(userID, _, syncID string) bool {
	s.cancelled = append(s.cancelled, userID+"/"+syncID)
	return true
}

func (s *stubRunner) Commit(context.Context, string, []entity.DiscoveredBill) (*usecase.CommitSummary, error) {
	return &usecase.CommitSummary{}, nil
}

func testServer(runner *stubRunner) *Server {
	cfg := &config.Config{}
	cfg.Service.Name = "billsync"
	cfg.JWT.Secret = "test-secret"
	return NewServer(cfg, zap.NewNop(), runner, nil)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer(&stubRunner{}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"billsync"}`, rec.Body.String())
}

func TestSyncRoutesRequireToken(t *testing.T) {
	srv := testServer(&stubRunner{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/cancel", strings.NewReader(`{"sync_id":"r1"}`))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSyncRoutesWithToken(t *testing.T) {
	runner := &stubRunner{}
	srv := testServer(runner)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "550e8400-e29b-41d4-a716-446655440000",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/cancel", strings.NewReader(`{"sync_id":"r1"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signed)
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"550e8400-e29b-41d4-a716-446655440000/r1"}, runner.cancelled)
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/entitlement-service/internal/clock"
	"github.com/makkenzo/entitlement-service/internal/config"
	"github.com/makkenzo/entitlement-service/internal/handler/middleware"
	"github.com/makkenzo/entitlement-service/internal/metrics"
	"github.com/makkenzo/entitlement-service/internal/service"
	"github.com/makkenzo/entitlement-service/internal/storage/memstorage"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testSecret    = "rrm652gz4atq7jqc"
	testKey       = "vqwn3p22uics8xv8"
	testIV        = "s0Q~ioZ(AYJxyvLQ"
	adminPassword = "s3cret-pass"
)

var utc8 = time.FixedZone("UTC+8", 8*3600)

type testServer struct {
	router    *gin.Engine
	clock     *clock.Frozen
	metrics   *metrics.Metrics
	licenses  *service.LicenseService
	cards     *service.CardService
	ciphers   *service.CipherConfigService
	signature *service.SignatureAuthenticator
	auth      *service.AuthService
}

type serverOption func(*config.Config)

func withNetworkAuth(enabled bool) serverOption {
	return func(cfg *config.Config) { cfg.App.NetworkAuth = enabled }
}

func withPageSize(n int) serverOption {
	return func(cfg *config.Config) { cfg.Pagination.DefaultPageSize = n }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		App:        config.AppConfig{UTCOffsetHours: 8, NetworkAuth: true},
		Signature:  config.SignatureConfig{Secret: testSecret},
		Cipher:     config.CipherConfig{DefaultKey: testKey, DefaultIV: testIV},
		Admin:      config.AdminConfig{Username: "admin", Password: adminPassword, JWTSecret: "jwt", SessionTTL: time.Hour},
		Pagination: config.PaginationConfig{DefaultPageSize: 20},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	logger := zap.NewNop()
	store := memstorage.NewStore()
	clk := clock.NewFrozen(time.Date(2024, 5, 1, 12, 0, 0, 0, utc8))
	m := metrics.NewNop()

	ts := &testServer{
		clock:     clk,
		metrics:   m,
		licenses:  service.NewLicenseService(store.Licenses(), clk, &cfg.Registration, m, logger),
		cards:     service.NewCardService(store.Cards(), clk, m, logger),
		ciphers:   service.NewCipherConfigService(store.CipherConfigs(), nil, clk, &cfg.Cipher, logger),
		signature: service.NewSignatureAuthenticator(&cfg.Signature, clk, nil, logger),
	}
	categories := service.NewCategoryService(store.Categories(), logger)
	auth, err := service.NewAuthService(&cfg.Admin, logger)
	require.NoError(t, err)
	ts.auth = auth
	require.NoError(t, ts.ciphers.BootstrapDefault(context.Background()))

	handlers := &Handlers{
		Client:       NewClientHandler(ts.licenses, ts.cards, ts.ciphers, ts.signature, clk, &cfg.App, m, logger),
		License:      NewLicenseHandler(ts.licenses, cfg.Pagination.DefaultPageSize, logger),
		Card:         NewCardHandler(ts.cards, cfg.Pagination.DefaultPageSize, logger),
		Category:     NewCategoryHandler(categories, logger),
		CipherConfig: NewCipherConfigHandler(ts.ciphers, logger),
		Auth:         NewAuthHandler(auth, logger),
		Dashboard:    NewDashboardHandler(ts.licenses, ts.cards, categories, ts.ciphers, clk, logger),
		Health:       NewHealthHandler(map[string]Pinger{}, logger),
	}

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.ErrorHandlerMiddleware(logger))
	router.Use(middleware.NoCacheMiddleware())
	RegisterRoutes(router, handlers, middleware.AuthMiddleware(auth, cfg.Admin.Debug, logger))
	ts.router = router
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) admin(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	token, err := ts.auth.Login(context.Background(), "admin", adminPassword)
	require.NoError(t, err)
	return ts.do(t, method, path, body, map[string]string{"Authorization": "Bearer " + token})
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func code(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return int(decode(t, w)["code"].(float64))
}

func isJSON(body string) bool {
	return strings.HasPrefix(strings.TrimSpace(body), "{")
}

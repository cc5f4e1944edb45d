package integration

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/rental-messaging-backend/internal/config"
	"github.com/pushp314/rental-messaging-backend/internal/events"
	"github.com/pushp314/rental-messaging-backend/internal/handlers"
	"github.com/pushp314/rental-messaging-backend/internal/middleware"
	"github.com/pushp314/rental-messaging-backend/internal/migrations"
	"github.com/pushp314/rental-messaging-backend/internal/routes"
	"github.com/pushp314/rental-messaging-backend/internal/services"
	"github.com/pushp314/rental-messaging-backend/internal/testutil"
	"github.com/pushp314/rental-messaging-backend/pkg/utils"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type testServer struct {
	router  *gin.Engine
	fixture testutil.Fixture
}

func setupServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Env:         "test",
		StoreDriver: config.DriverSQLite,
		JWTSecret:   "integration_secret_key_12345",
		FrontendURL: "http://localhost:5173",
	}
	if mutate != nil {
		mutate(cfg)
	}
	prev := config.AppConfig
	config.AppConfig = cfg
	t.Cleanup(func() { config.AppConfig = prev })

	// Flows send more messages than a real client would per minute.
	middleware.ChatLimiter = middleware.NewIPRateLimiter(rate.Inf, 1)
	middleware.GeneralLimiter = middleware.NewIPRateLimiter(rate.Inf, 1)

	s := testutil.NewSQLiteStore(t)
	require.NoError(t, migrations.NewMigrator(s.DB()).Run())
	f := testutil.Seed(t, s)

	svc := services.NewThreadService(s, services.Options{
		Publisher:           events.NoopPublisher{},
		EnforceParticipants: cfg.EnforceThreadACL,
		Now:                 testutil.Clock(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)),
	})
	r := routes.NewRouter(cfg, handlers.NewMessageHandler(svc), handlers.NewHealthHandler(s, nil))

	return &testServer{router: r, fixture: f}
}

func (ts *testServer) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := utils.GenerateToken(userID, time.Hour)
	require.NoError(t, err)
	return token
}

func (ts *testServer) request(t *testing.T, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token(t, userID))
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

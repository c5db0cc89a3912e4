package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/whatsapp-saas/config"
	"github.com/upb/whatsapp-saas/repositories/postgres"
	"github.com/upb/whatsapp-saas/services"
	"go.uber.org/zap/zaptest"
)

func mockFactory(t *testing.T) (*postgres.RepositoryFactory, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	logger := zaptest.NewLogger(t)
	return postgres.NewRepositoryFactoryFromDB(postgres.Wrap(db, logger), logger), mock
}

func TestNewDependenciesFromFactory(t *testing.T) {
	t.Run("wires every component", func(t *testing.T) {
		factory, mock := mockFactory(t)
		mock.ExpectPing()
		cfg := testConfig(t)

		deps, err := NewDependenciesFromFactory(context.Background(), cfg, factory, zaptest.NewLogger(t))
		require.NoError(t, err)

		assert.NotNil(t, deps.DB)
		assert.NotNil(t, deps.Profiles)
		assert.NotNil(t, deps.Organizations)
		assert.NotNil(t, deps.Memberships)
		assert.NotNil(t, deps.TxManager)
		assert.NotNil(t, deps.Registry)
		assert.NotNil(t, deps.Metrics)
		assert.NotNil(t, deps.IdentityService)
		assert.NotNil(t, deps.OrganizationService)
		assert.NotNil(t, deps.AuthMiddleware)
		assert.NotNil(t, deps.AuthHandler())
		assert.NoError(t, mock.ExpectationsWereMet())

		mock.ExpectClose()
		assert.NoError(t, deps.Close(context.Background()))
	})

	t.Run("bootstraps schema when configured", func(t *testing.T) {
		factory, mock := mockFactory(t)
		mock.ExpectPing()
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS user_profiles").WillReturnResult(sqlmock.NewResult(0, 0))
		cfg := testConfig(t)
		cfg.Database.InitSchema = true

		_, err := NewDependenciesFromFactory(context.Background(), cfg, factory, zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ping failure", func(t *testing.T) {
		factory, mock := mockFactory(t)
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		deps, err := NewDependenciesFromFactory(context.Background(), testConfig(t), factory, zaptest.NewLogger(t))
		assert.Nil(t, deps)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize database")
	})

	t.Run("no jwt secret rejects every token", func(t *testing.T) {
		factory, mock := mockFactory(t)
		mock.ExpectPing()
		cfg := testConfig(t)
		cfg.Auth.JWTSecret = ""

		deps, err := NewDependenciesFromFactory(context.Background(), cfg, factory, zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.Nil(t, deps.IdentityService)

		handler := deps.Auth().RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer anything")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestNewDependencies_DatabaseUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping network test")
	}
	cfg := testConfig(t)
	cfg.Database.Host = "invalid-host-that-does-not-exist"

	deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
	assert.Nil(t, deps)
	assert.Contains(t, err.Error(), "failed to initialize database")
}

func TestDependencies_Fallbacks(t *testing.T) {
	deps := &Dependencies{Config: testConfig(t), Logger: zaptest.NewLogger(t)}

	assert.NotNil(t, deps.Auth())
	assert.Same(t, deps.Auth(), deps.Auth())
	assert.NotNil(t, deps.AuthHandler())

	_, err := rejectAllResolver{}.Resolve(context.Background(), "tok")
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

// Test helpers

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Database: config.DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "saas",
			Password:        "saas",
			Database:        "saas_test",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Auth: config.AuthConfig{
			JWTSecret:    "test-secret",
			JWTAudience:  config.DefaultJWTAudience,
			StoreTimeout: time.Second,
		},
		Observability: config.ObservabilityConfig{
			LogLevel:  "error",
			LogFormat: "json",
		},
	}
}

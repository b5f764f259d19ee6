// Package app wires configuration, storage, and the decision pipeline
// into a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/modelgate/modelgate/internal/autoroute"
	"github.com/modelgate/modelgate/internal/catalog"
	"github.com/modelgate/modelgate/internal/config"
	"github.com/modelgate/modelgate/internal/credentials"
	"github.com/modelgate/modelgate/internal/db"
	"github.com/modelgate/modelgate/internal/engine"
	"github.com/modelgate/modelgate/internal/httpapi"
	"github.com/modelgate/modelgate/internal/providers"
	"github.com/modelgate/modelgate/internal/ratelimit"
	"github.com/modelgate/modelgate/internal/status"
)

const shutdownTimeout = 10 * time.Second

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the decision API server with database-backed
// components and blocks until ctx is canceled or the listener fails.
func RunServer(ctx context.Context, cfg config.AppConfig, port int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)

	gatewayCfg, err := config.LoadGatewayConfig(configPath)
	if err != nil {
		return err
	}

	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	cat, err := catalog.Load(resolveCatalogPath(configPath, gatewayCfg.CatalogPath))
	if err != nil {
		return err
	}

	jwtCfg, err := config.LoadJWTConfig(configPath)
	if err != nil {
		return err
	}
	if strings.TrimSpace(jwtCfg.Secret) == "" {
		return fmt.Errorf("app: jwt secret is not configured")
	}

	eng := buildEngine(conn, cat, gatewayCfg)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	httpapi.RegisterRoutes(router, eng, jwtCfg)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("decision server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}

// buildEngine assembles the pipeline components over shared state.
func buildEngine(conn *gorm.DB, cat *catalog.Catalog, gatewayCfg config.GatewayConfig) *engine.Engine {
	statusFilter := status.NewFilter(conn)
	availability := providers.NewResolver(conn, func() []string {
		return gatewayCfg.EnvProviders(os.Getenv)
	})
	router := autoroute.NewSelector(cat)
	creds := credentials.NewResolver(gatewayCfg)
	limiter := ratelimit.NewManager(func() config.RateLimitConfig {
		return gatewayCfg.RateLimit
	}, nil, nil)

	return engine.New(cat, statusFilter, availability, router, creds, limiter, gatewayCfg)
}

// resolveCatalogPath anchors a relative catalog path next to the config
// file so both can ship together.
func resolveCatalogPath(configPath, catalogPath string) string {
	trimmed := strings.TrimSpace(catalogPath)
	if trimmed == "" {
		trimmed = "catalog.yaml"
	}
	if filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Join(filepath.Dir(configPath), trimmed)
}

// Package server wires the triagekeeper server together: database, key
// material, identity verification, object storage, services and the HTTP
// endpoint. It also handles graceful shutdown on SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/triagekeeper/internal/cryptox"
	"github.com/dmitrijs2005/triagekeeper/internal/logging"
	"github.com/dmitrijs2005/triagekeeper/internal/server/auth"
	"github.com/dmitrijs2005/triagekeeper/internal/server/config"
	"github.com/dmitrijs2005/triagekeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/triagekeeper/internal/server/objectstore"
	"github.com/dmitrijs2005/triagekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/triagekeeper/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const authClientTimeout = 10 * time.Second

var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}
	newAvatarStore = func(ctx context.Context, opts objectstore.Options) (services.AvatarStore, error) {
		return objectstore.NewS3Store(ctx, opts)
	}
	newRepositoryManager = func() repomanager.RepositoryManager {
		return repomanager.NewPostgresRepositoryManager()
	}
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

// NewApp opens the database, applies migrations and builds every service.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)

	if cfg.EncryptionKey == config.InsecureDefaultEncryptionKey {
		logger.Warn(ctx, "using the built-in default encryption key; set ENCRYPTION_KEY in production")
	}

	keys, err := buildKeyring(cfg)
	if err != nil {
		return nil, fmt.Errorf("keyring: %w", err)
	}
	codec := cryptox.NewCodec(keys)

	db, err := openDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	avatars, err := buildAvatarStore(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("object storage: %w", err)
	}
	if avatars == nil {
		logger.Warn(ctx, "object storage not configured; avatars are disabled")
	}

	verifier := newVerifier(cfg)

	audit := services.NewAuditLog(db, rm, logger)
	records := services.NewRecordService(db, rm, codec, avatars, audit, logger)
	erasure := services.NewErasureService(db, rm, verifier, avatars, audit, cfg.ErasureTimeout, logger)

	srv := httpapi.NewServer(cfg.EndpointAddrHTTP, logger, verifier, erasure, records, audit)

	return &App{config: cfg, logger: logger, db: db, server: srv}, nil
}

// buildAvatarStore returns nil when no bucket is configured. The services
// treat a nil store as "no object storage".
func buildAvatarStore(ctx context.Context, cfg *config.Config) (services.AvatarStore, error) {
	if !cfg.ObjectStorageEnabled() {
		return nil, nil
	}
	return newAvatarStore(ctx, objectstore.Options{
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
		URLValidity:  cfg.AvatarURLValidity,
	})
}

// buildKeyring derives the primary and retired keys the way cfg says.
func buildKeyring(cfg *config.Config) (*cryptox.Keyring, error) {
	derive := func(secret string) cryptox.Key {
		if cfg.KeyDerivation == config.KeyDerivationArgon2 {
			return cryptox.DeriveKeyArgon2(secret, []byte(cfg.KeyDerivationSalt))
		}
		return cryptox.DeriveKey(secret)
	}

	var retired map[cryptox.KeyID]cryptox.Key
	if len(cfg.RetiredEncryptionKeys) > 0 {
		retired = make(map[cryptox.KeyID]cryptox.Key, len(cfg.RetiredEncryptionKeys))
		for id, secret := range cfg.RetiredEncryptionKeys {
			retired[cryptox.KeyID(id)] = derive(secret)
		}
	}

	return cryptox.NewKeyring(cryptox.KeyID(cfg.EncryptionKeyID), derive(cfg.EncryptionKey), retired)
}

// newVerifier asks the hosted auth service when one is configured and
// otherwise checks tokens locally.
func newVerifier(cfg *config.Config) auth.Verifier {
	if cfg.AuthBaseURL != "" {
		return auth.NewRemoteVerifier(cfg.AuthBaseURL, cfg.ServiceRoleKey, &http.Client{Timeout: authClientTimeout})
	}
	return auth.NewJWTVerifier([]byte(cfg.JWTSecret))
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a termination signal arrives or ctx is cancelled.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}

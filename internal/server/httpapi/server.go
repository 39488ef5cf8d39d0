// Package httpapi exposes the erasure endpoint and the record API over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/triagekeeper/internal/logging"
	"github.com/dmitrijs2005/triagekeeper/internal/server/auth"
	"github.com/dmitrijs2005/triagekeeper/internal/server/models"
	"github.com/dmitrijs2005/triagekeeper/internal/server/services"
	"github.com/dmitrijs2005/triagekeeper/internal/server/transform"
)

const shutdownTimeout = 10 * time.Second

// Eraser is implemented by *services.ErasureService.
type Eraser interface {
	Authorize(ctx context.Context, token string) (*auth.Principal, error)
	Erase(ctx context.Context, p *auth.Principal) (*services.ErasureResult, error)
}

// Records is implemented by *services.RecordService.
type Records interface {
	SaveProfile(ctx context.Context, userID string, p models.Profile) (*models.Profile, transform.Report, error)
	GetProfile(ctx context.Context, userID string) (*models.Profile, transform.Report, error)
	StartSession(ctx context.Context, userID string, s models.SymptomSession, msgs []models.Message) (*models.SymptomSession, error)
	AddMessage(ctx context.Context, userID, sessionID string, m models.Message) (*models.Message, error)
	History(ctx context.Context, userID string) ([]services.SessionHistory, error)
	AvatarUploadURL(ctx context.Context, userID string) (key, url string, err error)
	AvatarURL(ctx context.Context, userID string) (string, error)
}

// AuditReader is implemented by *services.AuditLog.
type AuditReader interface {
	Recent(ctx context.Context, userID string, limit int) ([]*models.AuditEntry, error)
}

var (
	_ Eraser      = (*services.ErasureService)(nil)
	_ Records     = (*services.RecordService)(nil)
	_ AuditReader = (*services.AuditLog)(nil)
)

type Server struct {
	address  string
	logger   logging.Logger
	verifier auth.Verifier
	erasure  Eraser
	records  Records
	audit    AuditReader
}

func NewServer(address string, l logging.Logger, verifier auth.Verifier, erasure Eraser, records Records, audit AuditReader) *Server {
	return &Server{
		address:  address,
		logger:   l.With("module", "http_server"),
		verifier: verifier,
		erasure:  erasure,
		records:  records,
		audit:    audit,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

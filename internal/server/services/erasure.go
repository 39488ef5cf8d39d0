package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/triagekeeper/internal/common"
	"github.com/dmitrijs2005/triagekeeper/internal/logging"
	"github.com/dmitrijs2005/triagekeeper/internal/server/auth"
	"github.com/dmitrijs2005/triagekeeper/internal/server/models"
	"github.com/dmitrijs2005/triagekeeper/internal/server/objectstore"
	"github.com/dmitrijs2005/triagekeeper/internal/server/repositories/repomanager"
	"golang.org/x/sync/errgroup"
)

// ErasureState is the position of an erasure request in its lifecycle.
type ErasureState int

const (
	ErasureRequested ErasureState = iota
	ErasureAuthorizing
	ErasureDeleting
	ErasureAuditing
	ErasureCompleted
	ErasureFailed
)

func (s ErasureState) String() string {
	switch s {
	case ErasureRequested:
		return "requested"
	case ErasureAuthorizing:
		return "authorizing"
	case ErasureDeleting:
		return "deleting"
	case ErasureAuditing:
		return "auditing"
	case ErasureCompleted:
		return "completed"
	case ErasureFailed:
		return "failed"
	}
	return fmt.Sprintf("ErasureState(%d)", int(s))
}

// Erasure steps. DB steps run in this order so that no child row outlives
// its parent.
const (
	StepMessages = models.TableMessages
	StepSessions = models.TableSessions
	StepProfiles = models.TableProfiles
	StepAvatars  = "avatars"
)

// detailKeys are the names failed steps are reported under in API responses.
var detailKeys = map[string]string{
	StepMessages: "messagesError",
	StepSessions: "sessionsError",
	StepProfiles: "profileError",
	StepAvatars:  "avatarsError",
}

// StepOutcome is the result of one erasure step.
type StepOutcome struct {
	Name         string
	RowsAffected int64
	Err          error
}

// ErasureResult describes a finished erasure.
type ErasureResult struct {
	UserID      string
	State       ErasureState
	Steps       []StepOutcome
	CompletedAt time.Time
}

// PartialDeletionError is returned when at least one step failed. Steps that
// succeeded stay deleted. It matches common.ErrPartialDeletion.
type PartialDeletionError struct {
	Steps []StepOutcome
}

func (e *PartialDeletionError) Error() string {
	var failed []string
	for _, s := range e.Steps {
		if s.Err != nil {
			failed = append(failed, s.Name+": "+s.Err.Error())
		}
	}
	return "partial deletion: " + strings.Join(failed, "; ")
}

func (e *PartialDeletionError) Is(target error) bool {
	return target == common.ErrPartialDeletion
}

// Details maps each failed step to its error text.
func (e *PartialDeletionError) Details() map[string]string {
	out := make(map[string]string)
	for _, s := range e.Steps {
		if s.Err == nil {
			continue
		}
		key, ok := detailKeys[s.Name]
		if !ok {
			key = s.Name
		}
		out[key] = s.Err.Error()
	}
	return out
}

// ErasureService permanently removes all data of one user. It is idempotent:
// erasing a user with no data succeeds with zero rows affected.
type ErasureService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	verifier    auth.Verifier
	objects     AvatarStore
	audit       *AuditLog
	timeout     time.Duration
	log         logging.Logger
	now         Clock
	// onTransition, when set, sees every state change.
	onTransition func(from, to ErasureState)
}

// NewErasureService wires the coordinator. objects may be nil when no object
// storage is configured; the avatars step is then skipped.
func NewErasureService(db *sql.DB, m repomanager.RepositoryManager, verifier auth.Verifier,
	objects AvatarStore, audit *AuditLog, timeout time.Duration, log logging.Logger) *ErasureService {
	return &ErasureService{
		db:          db,
		repomanager: m,
		verifier:    verifier,
		objects:     objects,
		audit:       audit,
		timeout:     timeout,
		log:         log.With("module", "erasure"),
		now:         utcNow,
	}
}

func (s *ErasureService) transition(ctx context.Context, userID string, from, to ErasureState) ErasureState {
	s.log.Debug(ctx, "erasure state", "user_id", userID, "from", from.String(), "to", to.String())
	if s.onTransition != nil {
		s.onTransition(from, to)
	}
	return to
}

// Authorize resolves the bearer token to the user whose data will be erased.
// A request that fails here ends in ErasureFailed.
func (s *ErasureService) Authorize(ctx context.Context, token string) (*auth.Principal, error) {
	state := s.transition(ctx, "", ErasureRequested, ErasureAuthorizing)
	if strings.TrimSpace(token) == "" {
		s.transition(ctx, "", state, ErasureFailed)
		return nil, common.ErrMissingCredential
	}
	p, err := s.verifier.Verify(ctx, token)
	if err != nil {
		s.transition(ctx, "", state, ErasureFailed)
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}
	return p, nil
}

// Erase deletes every record owned by p. All steps are attempted even after
// a failure. On success exactly one audit entry is written; on failure none
// is, and a *PartialDeletionError describes which steps failed.
func (s *ErasureService) Erase(ctx context.Context, p *auth.Principal) (*ErasureResult, error) {
	if p == nil || p.UserID == "" {
		return nil, common.ErrorUnauthorized
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result := &ErasureResult{UserID: p.UserID}
	result.State = s.transition(ctx, p.UserID, ErasureAuthorizing, ErasureDeleting)
	started := time.Now()

	var (
		g       errgroup.Group
		dbSteps []StepOutcome
		avatars *StepOutcome
	)
	g.Go(func() error {
		dbSteps = s.deleteRows(ctx, p.UserID)
		return nil
	})
	if s.objects != nil {
		g.Go(func() error {
			n, err := s.objects.DeletePrefix(ctx, objectstore.AvatarPrefix(p.UserID))
			avatars = &StepOutcome{Name: StepAvatars, RowsAffected: n, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	result.Steps = dbSteps
	if avatars != nil {
		result.Steps = append(result.Steps, *avatars)
	}

	failed := false
	for _, step := range result.Steps {
		if step.Err != nil {
			failed = true
		}
	}
	if failed {
		result.State = s.transition(ctx, p.UserID, result.State, ErasureFailed)
		perr := &PartialDeletionError{Steps: result.Steps}
		s.log.Error(ctx, "erasure incomplete", "user_id", p.UserID, "error", perr)
		return result, perr
	}

	result.State = s.transition(ctx, p.UserID, result.State, ErasureAuditing)
	completedAt := s.now()
	s.audit.Append(ctx, models.AuditEntry{
		UserID:    p.UserID,
		TableName: models.TableAllPatientData,
		Action:    models.AuditDelete,
		Changes: map[string]any{
			"action":    "complete_data_deletion",
			"timestamp": completedAt.Format(models.TimestampLayout),
		},
		Timestamp: completedAt,
	})

	result.State = s.transition(ctx, p.UserID, result.State, ErasureCompleted)
	result.CompletedAt = completedAt
	s.log.Info(ctx, "erasure completed", "user_id", p.UserID, "duration", time.Since(started), "steps", summarize(result.Steps))
	return result, nil
}

// deleteRows runs the DB steps in dependency order against the pool. Each
// statement commits on its own; nothing is rolled back on a later failure.
func (s *ErasureService) deleteRows(ctx context.Context, userID string) []StepOutcome {
	steps := []struct {
		name string
		run  func(context.Context, string) (int64, error)
	}{
		{StepMessages, s.repomanager.Messages(s.db).DeleteByUserID},
		{StepSessions, s.repomanager.Sessions(s.db).DeleteByUserID},
		{StepProfiles, s.repomanager.Profiles(s.db).DeleteByUserID},
	}

	out := make([]StepOutcome, 0, len(steps))
	for _, step := range steps {
		n, err := step.run(ctx, userID)
		if err != nil && errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("erasure timed out: %w", err)
		}
		out = append(out, StepOutcome{Name: step.name, RowsAffected: n, Err: err})
	}
	return out
}

func summarize(steps []StepOutcome) string {
	parts := make([]string, 0, len(steps))
	for _, s := range steps {
		parts = append(parts, fmt.Sprintf("%s=%d", s.Name, s.RowsAffected))
	}
	return strings.Join(parts, ",")
}

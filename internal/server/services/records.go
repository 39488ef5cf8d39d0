package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/triagekeeper/internal/common"
	"github.com/dmitrijs2005/triagekeeper/internal/dbx"
	"github.com/dmitrijs2005/triagekeeper/internal/logging"
	"github.com/dmitrijs2005/triagekeeper/internal/server/models"
	"github.com/dmitrijs2005/triagekeeper/internal/server/objectstore"
	"github.com/dmitrijs2005/triagekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/triagekeeper/internal/server/transform"
	"github.com/google/uuid"
)

var errNoObjectStorage = fmt.Errorf("%w: object storage is not configured", common.ErrorNotFound)

// SessionHistory is one symptom session with its conversation, oldest
// message first, and the fields that could not be decrypted.
type SessionHistory struct {
	Session  models.SymptomSession
	Messages []models.Message
	Omitted  []string
}

// RecordService reads and writes a user's encrypted records. Every access is
// audited.
type RecordService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       transform.Codec
	avatars     AvatarStore
	audit       *AuditLog
	log         logging.Logger
	now         Clock
	newID       func() string
}

func NewRecordService(db *sql.DB, m repomanager.RepositoryManager, codec transform.Codec,
	avatars AvatarStore, audit *AuditLog, log logging.Logger) *RecordService {
	return &RecordService{
		db:          db,
		repomanager: m,
		codec:       codec,
		avatars:     avatars,
		audit:       audit,
		log:         log.With("module", "records"),
		now:         utcNow,
		newID:       uuid.NewString,
	}
}

// SaveProfile encrypts and stores p as userID's profile. Fields left nil keep
// their stored value. The avatar is managed by AvatarUploadURL only.
func (s *RecordService) SaveProfile(ctx context.Context, userID string, p models.Profile) (*models.Profile, transform.Report, error) {
	p.ID = s.newID()
	p.UserID = userID
	p.AvatarURL = nil

	stored, err := transform.ProfileToStorage(s.codec, p)
	if err != nil {
		return nil, nil, err
	}
	if err := s.repomanager.Profiles(s.db).Upsert(ctx, &stored); err != nil {
		return nil, nil, err
	}

	s.audit.Append(ctx, models.AuditEntry{
		UserID: userID, TableName: models.TableProfiles, Action: models.AuditUpdate, RecordID: &stored.ID,
	})

	return s.loadProfile(ctx, userID)
}

// GetProfile returns userID's profile with every field that could be
// decrypted. common.ErrorNotFound if there is none.
func (s *RecordService) GetProfile(ctx context.Context, userID string) (*models.Profile, transform.Report, error) {
	p, report, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	s.audit.Append(ctx, models.AuditEntry{
		UserID: userID, TableName: models.TableProfiles, Action: models.AuditSelect, RecordID: &p.ID,
	})
	return p, report, nil
}

func (s *RecordService) loadProfile(ctx context.Context, userID string) (*models.Profile, transform.Report, error) {
	stored, err := s.repomanager.Profiles(s.db).GetByUserID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	p, report := transform.ProfileFromStorage(s.codec, *stored)
	s.warnOmitted(ctx, models.TableProfiles, p.ID, report)
	return &p, report, nil
}

// StartSession stores a finished symptom check and its conversation in one
// transaction.
func (s *RecordService) StartSession(ctx context.Context, userID string, session models.SymptomSession,
	msgs []models.Message) (*models.SymptomSession, error) {
	if session.UrgencyLevel != nil && !session.UrgencyLevel.Valid() {
		return nil, fmt.Errorf("%w: urgency level %q", common.ErrorValidation, *session.UrgencyLevel)
	}

	session.ID = s.newID()
	session.UserID = userID
	session.CreatedAt = s.now()

	storedSession, err := transform.SessionToStorage(s.codec, session)
	if err != nil {
		return nil, err
	}

	storedMsgs := make([]models.StoredMessage, 0, len(msgs))
	for i, m := range msgs {
		if !m.Role.Valid() {
			return nil, fmt.Errorf("%w: message %d has role %q", common.ErrorValidation, i, m.Role)
		}
		m.ID = s.newID()
		m.SessionID = session.ID
		if m.CreatedAt.IsZero() {
			m.CreatedAt = session.CreatedAt
		}
		sm, err := transform.MessageToStorage(s.codec, m)
		if err != nil {
			return nil, err
		}
		storedMsgs = append(storedMsgs, sm)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Sessions(tx).Create(ctx, &storedSession); err != nil {
			return err
		}
		msgRepo := s.repomanager.Messages(tx)
		for i := range storedMsgs {
			if err := msgRepo.Create(ctx, &storedMsgs[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	s.audit.Append(ctx, models.AuditEntry{
		UserID: userID, TableName: models.TableSessions, Action: models.AuditInsert, RecordID: &session.ID,
		Changes: map[string]any{"messages": len(storedMsgs)},
	})
	return &session, nil
}

// AddMessage appends a message to a session owned by userID.
func (s *RecordService) AddMessage(ctx context.Context, userID, sessionID string, m models.Message) (*models.Message, error) {
	if !m.Role.Valid() {
		return nil, fmt.Errorf("%w: role %q", common.ErrorValidation, m.Role)
	}
	if _, err := s.repomanager.Sessions(s.db).GetByID(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	m.ID = s.newID()
	m.SessionID = sessionID
	m.CreatedAt = s.now()

	stored, err := transform.MessageToStorage(s.codec, m)
	if err != nil {
		return nil, err
	}
	if err := s.repomanager.Messages(s.db).Create(ctx, &stored); err != nil {
		return nil, err
	}

	s.audit.Append(ctx, models.AuditEntry{
		UserID: userID, TableName: models.TableMessages, Action: models.AuditInsert, RecordID: &m.ID,
	})
	return &m, nil
}

// History returns userID's sessions newest first, each with its messages.
// Fields that cannot be decrypted are left out and listed per session.
func (s *RecordService) History(ctx context.Context, userID string) ([]SessionHistory, error) {
	storedSessions, err := s.repomanager.Sessions(s.db).ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	storedMsgs, err := s.repomanager.Messages(s.db).ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	bySession := make(map[string][]*models.StoredMessage, len(storedSessions))
	for _, m := range storedMsgs {
		bySession[m.SessionID] = append(bySession[m.SessionID], m)
	}

	out := make([]SessionHistory, 0, len(storedSessions))
	for _, ss := range storedSessions {
		session, report := transform.SessionFromStorage(s.codec, *ss)
		s.warnOmitted(ctx, models.TableSessions, ss.ID, report)

		h := SessionHistory{Session: session, Omitted: report.OmittedNames(), Messages: []models.Message{}}
		for _, sm := range bySession[ss.ID] {
			msg, mreport := transform.MessageFromStorage(s.codec, *sm)
			s.warnOmitted(ctx, models.TableMessages, sm.ID, mreport)
			for _, name := range mreport.OmittedNames() {
				h.Omitted = append(h.Omitted, "messages."+sm.ID+"."+name)
			}
			h.Messages = append(h.Messages, msg)
		}
		out = append(out, h)
	}

	s.audit.Append(ctx, models.AuditEntry{
		UserID: userID, TableName: models.TableSessions, Action: models.AuditSelect,
		Changes: map[string]any{"sessions": len(out)},
	})
	return out, nil
}

// AvatarUploadURL reserves a new avatar key for userID, records it on the
// profile and returns a presigned PUT URL for it.
func (s *RecordService) AvatarUploadURL(ctx context.Context, userID string) (key, url string, err error) {
	if s.avatars == nil {
		return "", "", errNoObjectStorage
	}
	key, err = objectstore.NewAvatarKey(userID)
	if err != nil {
		return "", "", err
	}
	url, err = s.avatars.PresignPut(ctx, key)
	if err != nil {
		return "", "", err
	}
	if err := s.repomanager.Profiles(s.db).SetAvatar(ctx, s.newID(), userID, key); err != nil {
		return "", "", err
	}
	s.audit.Append(ctx, models.AuditEntry{
		UserID: userID, TableName: models.TableProfiles, Action: models.AuditUpdate,
		Changes: map[string]any{"avatar_url": key},
	})
	return key, url, nil
}

// AvatarURL returns a presigned GET URL for userID's current avatar.
// common.ErrorNotFound when none was uploaded.
func (s *RecordService) AvatarURL(ctx context.Context, userID string) (string, error) {
	if s.avatars == nil {
		return "", errNoObjectStorage
	}
	p, err := s.repomanager.Profiles(s.db).GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if p.AvatarURL == nil || *p.AvatarURL == "" {
		return "", common.ErrorNotFound
	}
	return s.avatars.PresignGet(ctx, *p.AvatarURL)
}

func (s *RecordService) warnOmitted(ctx context.Context, table, id string, report transform.Report) {
	for _, f := range report.Omitted() {
		s.log.Warn(ctx, "field omitted on read", "table", table, "record_id", id, "field", f.Name, "reason", f.Reason)
	}
}

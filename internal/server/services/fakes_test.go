package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/triagekeeper/internal/common"
	"github.com/dmitrijs2005/triagekeeper/internal/cryptox"
	"github.com/dmitrijs2005/triagekeeper/internal/dbx"
	"github.com/dmitrijs2005/triagekeeper/internal/logging"
	"github.com/dmitrijs2005/triagekeeper/internal/server/auth"
	"github.com/dmitrijs2005/triagekeeper/internal/server/models"
	"github.com/dmitrijs2005/triagekeeper/internal/server/repositories/auditlogs"
	"github.com/dmitrijs2005/triagekeeper/internal/server/repositories/messages"
	"github.com/dmitrijs2005/triagekeeper/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/triagekeeper/internal/server/repositories/sessions"
)

// --- in-memory store behind every fake repository ---

type memStore struct {
	mu       sync.Mutex
	profiles map[string]*models.StoredProfile
	sessions []*models.StoredSession
	messages []*models.StoredMessage
	audit    []*models.AuditEntry
	nextID   int64

	deleteErr        map[string]error
	auditErr         error
	createMessageErr error
}

func newMemStore() *memStore {
	return &memStore{profiles: map[string]*models.StoredProfile{}, deleteErr: map[string]error{}}
}

func (s *memStore) auditEntries() []*models.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.AuditEntry(nil), s.audit...)
}

func (s *memStore) counts(userID string) (profilesN, sessionsN, messagesN int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[userID]; ok {
		profilesN = 1
	}
	owned := map[string]bool{}
	for _, ss := range s.sessions {
		if ss.UserID == userID {
			sessionsN++
			owned[ss.ID] = true
		}
	}
	for _, m := range s.messages {
		if owned[m.SessionID] {
			messagesN++
		}
	}
	return
}

type fakeProfiles struct{ *memStore }

func (f fakeProfiles) Upsert(_ context.Context, p *models.StoredProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	if cur, ok := f.profiles[p.UserID]; ok {
		if p.FullNameEncrypted != nil {
			cur.FullNameEncrypted = p.FullNameEncrypted
		}
		if p.DateOfBirthEncrypted != nil {
			cur.DateOfBirthEncrypted = p.DateOfBirthEncrypted
		}
		if p.PhoneEncrypted != nil {
			cur.PhoneEncrypted = p.PhoneEncrypted
		}
		cur.UpdatedAt = now
		p.ID, p.CreatedAt, p.UpdatedAt = cur.ID, cur.CreatedAt, cur.UpdatedAt
		return nil
	}
	cp := *p
	cp.CreatedAt, cp.UpdatedAt = now, now
	f.profiles[p.UserID] = &cp
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

func (f fakeProfiles) GetByUserID(_ context.Context, userID string) (*models.StoredProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (f fakeProfiles) SetAvatar(_ context.Context, id, userID, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[userID]; ok {
		p.AvatarURL = &key
		return nil
	}
	f.profiles[userID] = &models.StoredProfile{ID: id, UserID: userID, AvatarURL: &key}
	return nil
}

func (f fakeProfiles) DeleteByUserID(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deleteErr[models.TableProfiles]; err != nil {
		return 0, err
	}
	if _, ok := f.profiles[userID]; !ok {
		return 0, nil
	}
	delete(f.profiles, userID)
	return 1, nil
}

type fakeSessions struct{ *memStore }

func (f fakeSessions) Create(_ context.Context, s *models.StoredSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sessions = append(f.sessions, &cp)
	return nil
}

func (f fakeSessions) ListByUserID(_ context.Context, userID string) ([]*models.StoredSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.StoredSession
	for _, s := range f.sessions {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f fakeSessions) GetByID(_ context.Context, userID, id string) (*models.StoredSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.ID == id && s.UserID == userID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

// DeleteByUserID enforces the messages foreign key like the real schema.
func (f fakeSessions) DeleteByUserID(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deleteErr[models.TableSessions]; err != nil {
		return 0, err
	}
	owned := map[string]bool{}
	for _, s := range f.sessions {
		if s.UserID == userID {
			owned[s.ID] = true
		}
	}
	for _, m := range f.messages {
		if owned[m.SessionID] {
			return 0, errors.New("violates foreign key constraint symptom_messages_session_id_fkey")
		}
	}
	kept := f.sessions[:0]
	var n int64
	for _, s := range f.sessions {
		if owned[s.ID] {
			n++
			continue
		}
		kept = append(kept, s)
	}
	f.sessions = kept
	return n, nil
}

type fakeMessages struct{ *memStore }

func (f fakeMessages) Create(_ context.Context, m *models.StoredMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createMessageErr != nil {
		return f.createMessageErr
	}
	cp := *m
	f.messages = append(f.messages, &cp)
	return nil
}

func (f fakeMessages) ListByUserID(_ context.Context, userID string) ([]*models.StoredMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	owned := map[string]bool{}
	for _, s := range f.sessions {
		if s.UserID == userID {
			owned[s.ID] = true
		}
	}
	var out []*models.StoredMessage
	for _, m := range f.messages {
		if owned[m.SessionID] {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f fakeMessages) DeleteByUserID(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deleteErr[models.TableMessages]; err != nil {
		return 0, err
	}
	owned := map[string]bool{}
	for _, s := range f.sessions {
		if s.UserID == userID {
			owned[s.ID] = true
		}
	}
	kept := f.messages[:0]
	var n int64
	for _, m := range f.messages {
		if owned[m.SessionID] {
			n++
			continue
		}
		kept = append(kept, m)
	}
	f.messages = kept
	return n, nil
}

type fakeAuditLogs struct{ *memStore }

func (f fakeAuditLogs) Create(_ context.Context, e *models.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.auditErr != nil {
		return f.auditErr
	}
	f.nextID++
	e.ID = f.nextID
	cp := *e
	f.audit = append(f.audit, &cp)
	return nil
}

func (f fakeAuditLogs) Recent(_ context.Context, userID string, limit int) ([]*models.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.AuditEntry
	for i := len(f.audit) - 1; i >= 0 && len(out) < limit; i-- {
		if f.audit[i].UserID == userID {
			cp := *f.audit[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeRepoManager struct{ st *memStore }

func (m fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m fakeRepoManager) Profiles(dbx.DBTX) profiles.Repository        { return fakeProfiles{m.st} }
func (m fakeRepoManager) Sessions(dbx.DBTX) sessions.Repository        { return fakeSessions{m.st} }
func (m fakeRepoManager) Messages(dbx.DBTX) messages.Repository        { return fakeMessages{m.st} }
func (m fakeRepoManager) AuditLogs(dbx.DBTX) auditlogs.Repository      { return fakeAuditLogs{m.st} }

// --- collaborators ---

type fakeVerifier struct {
	principals map[string]*auth.Principal
}

func (v fakeVerifier) Verify(_ context.Context, token string) (*auth.Principal, error) {
	if p, ok := v.principals[token]; ok {
		return p, nil
	}
	return nil, common.ErrInvalidToken
}

type fakeAvatars struct {
	mu        sync.Mutex
	objects   map[string]bool
	deleteErr error
	presigned []string
}

func newFakeAvatars() *fakeAvatars { return &fakeAvatars{objects: map[string]bool{}} }

func (f *fakeAvatars) PresignPut(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presigned = append(f.presigned, key)
	return "https://s3.example/put/" + key, nil
}

func (f *fakeAvatars) PresignGet(_ context.Context, key string) (string, error) {
	return "https://s3.example/get/" + key, nil
}

func (f *fakeAvatars) DeletePrefix(_ context.Context, prefix string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	var n int64
	for k := range f.objects {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(f.objects, k)
			n++
		}
	}
	return n, nil
}

// --- helpers ---

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newTestCodec(t *testing.T, secret string) *cryptox.Codec {
	t.Helper()
	kr, err := cryptox.NewKeyring(1, cryptox.DeriveKey(secret), nil)
	if err != nil {
		t.Fatalf("keyring: %v", err)
	}
	return cryptox.NewCodec(kr)
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func testLogger() logging.Logger { return logging.Discard() }

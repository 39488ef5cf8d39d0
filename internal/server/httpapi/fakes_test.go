package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/triagekeeper/internal/common"
	"github.com/dmitrijs2005/triagekeeper/internal/logging"
	"github.com/dmitrijs2005/triagekeeper/internal/server/auth"
	"github.com/dmitrijs2005/triagekeeper/internal/server/models"
	"github.com/dmitrijs2005/triagekeeper/internal/server/services"
	"github.com/dmitrijs2005/triagekeeper/internal/server/transform"
)

const (
	validToken = "good-token"
	testUserID = "3f1c2a9e-0000-4000-8000-000000000001"
)

var testPrincipal = &auth.Principal{UserID: testUserID, Email: "patient@example.com"}

type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, token string) (*auth.Principal, error) {
	if token == validToken {
		return testPrincipal, nil
	}
	return nil, fmt.Errorf("%w: unknown token", common.ErrInvalidToken)
}

type fakeEraser struct {
	gotToken string
	calls    int
	result   *services.ErasureResult
	err      error
}

func (f *fakeEraser) Authorize(ctx context.Context, token string) (*auth.Principal, error) {
	f.gotToken = token
	if token == "" {
		return nil, common.ErrMissingCredential
	}
	p, err := fakeVerifier{}.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}
	return p, nil
}

func (f *fakeEraser) Erase(_ context.Context, p *auth.Principal) (*services.ErasureResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &services.ErasureResult{
		UserID:      p.UserID,
		State:       services.ErasureCompleted,
		CompletedAt: time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC),
	}, nil
}

type fakeRecords struct {
	profile    *models.Profile
	report     transform.Report
	saved      *models.Profile
	history    []services.SessionHistory
	started    *models.SymptomSession
	startedMsg []models.Message
	added      *models.Message
	addedTo    string
	avatarURL  string
	err        error
}

func (f *fakeRecords) SaveProfile(_ context.Context, userID string, p models.Profile) (*models.Profile, transform.Report, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	p.UserID = userID
	f.saved = &p
	return &p, f.report, nil
}

func (f *fakeRecords) GetProfile(_ context.Context, _ string) (*models.Profile, transform.Report, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.profile, f.report, nil
}

func (f *fakeRecords) StartSession(_ context.Context, userID string, s models.SymptomSession, msgs []models.Message) (*models.SymptomSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	s.ID = "session-1"
	s.UserID = userID
	f.started = &s
	f.startedMsg = msgs
	return &s, nil
}

func (f *fakeRecords) AddMessage(_ context.Context, _ string, sessionID string, m models.Message) (*models.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	m.ID = "message-1"
	m.SessionID = sessionID
	f.added = &m
	f.addedTo = sessionID
	return &m, nil
}

func (f *fakeRecords) History(_ context.Context, _ string) ([]services.SessionHistory, error) {
	return f.history, f.err
}

func (f *fakeRecords) AvatarUploadURL(_ context.Context, userID string) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	key := "avatars/" + userID + "/abc"
	return key, "https://s3.example.com/" + key + "?sig=put", nil
}

func (f *fakeRecords) AvatarURL(_ context.Context, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.avatarURL, nil
}

type fakeAudit struct {
	gotLimit int
	entries  []*models.AuditEntry
	err      error
}

func (f *fakeAudit) Recent(_ context.Context, _ string, limit int) ([]*models.AuditEntry, error) {
	f.gotLimit = limit
	return f.entries, f.err
}

type testEnv struct {
	eraser  *fakeEraser
	records *fakeRecords
	audit   *fakeAudit
	handler http.Handler
}

func newTestEnv() *testEnv {
	env := &testEnv{eraser: &fakeEraser{}, records: &fakeRecords{}, audit: &fakeAudit{}}
	s := NewServer(":0", logging.Discard(), fakeVerifier{}, env.eraser, env.records, env.audit)
	env.handler = s.Handler()
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

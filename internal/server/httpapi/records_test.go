package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/triagekeeper/internal/common"
	"github.com/dmitrijs2005/triagekeeper/internal/server/models"
	"github.com/dmitrijs2005/triagekeeper/internal/server/services"
	"github.com/dmitrijs2005/triagekeeper/internal/server/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestHealth(t *testing.T) {
	env := newTestEnv()

	rr := env.do(t, http.MethodGet, "/healthz", "", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rr.Body.String())
}

func TestAPI_RequiresAuth(t *testing.T) {
	env := newTestEnv()

	tests := []struct {
		name   string
		token  string
		status int
		msg    string
	}{
		{"missing", "", http.StatusUnauthorized, "Missing authorization header"},
		{"invalid", "nope", http.StatusUnauthorized, "Unauthorized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, "/api/v1/profile", tt.token, "")
			require.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.msg, decodeMap(t, rr)["error"])
		})
	}
}

func TestGetProfile(t *testing.T) {
	env := newTestEnv()
	env.records.profile = &models.Profile{ID: "p1", UserID: testUserID, FullName: strPtr("Ada Lovelace")}
	env.records.report = transform.Report{
		{Name: transform.FieldFullName, State: transform.FieldOK},
		{Name: transform.FieldPhone, State: transform.FieldOmitted, Reason: errors.New("bad tag")},
	}

	rr := env.do(t, http.MethodGet, "/api/v1/profile", validToken, "")

	require.Equal(t, http.StatusOK, rr.Code)
	var body profileResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.NotNil(t, body.Profile)
	assert.Equal(t, "Ada Lovelace", *body.Profile.FullName)
	assert.Nil(t, body.Profile.Phone)
	assert.Equal(t, []string{transform.FieldPhone}, body.Omitted)
}

func TestGetProfile_NotFound(t *testing.T) {
	env := newTestEnv()
	env.records.err = common.ErrorNotFound

	rr := env.do(t, http.MethodGet, "/api/v1/profile", validToken, "")

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSaveProfile(t *testing.T) {
	env := newTestEnv()

	rr := env.do(t, http.MethodPut, "/api/v1/profile", validToken, `{"full_name":"Ada","phone":"+44 20 7946 0000"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, env.records.saved)
	assert.Equal(t, testUserID, env.records.saved.UserID)
	assert.Equal(t, "Ada", *env.records.saved.FullName)
	assert.Nil(t, env.records.saved.DateOfBirth)
}

func TestSaveProfile_InvalidBody(t *testing.T) {
	env := newTestEnv()

	rr := env.do(t, http.MethodPut, "/api/v1/profile", validToken, `[1,2`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Nil(t, env.records.saved)
}

func TestStartSession(t *testing.T) {
	env := newTestEnv()
	body := `{
		"session": {"urgency_level":"urgent","conditions":["migraine"],"recommendation":"rest"},
		"messages": [{"role":"user","content":"headache"},{"role":"assistant","content":"how long?"}]
	}`

	rr := env.do(t, http.MethodPost, "/api/v1/sessions", validToken, body)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.NotNil(t, env.records.started)
	assert.Equal(t, []string{"migraine"}, env.records.started.Conditions)
	assert.Equal(t, models.UrgencyUrgent, *env.records.started.UrgencyLevel)
	require.Len(t, env.records.startedMsg, 2)
	assert.Equal(t, models.RoleAssistant, env.records.startedMsg[1].Role)
}

func TestStartSession_Validation(t *testing.T) {
	env := newTestEnv()
	env.records.err = fmt.Errorf("%w: urgency level %q", common.ErrorValidation, "meh")

	rr := env.do(t, http.MethodPost, "/api/v1/sessions", validToken, `{"session":{"urgency_level":"meh"}}`)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeMap(t, rr)["error"], "urgency level")
}

func TestAddMessage(t *testing.T) {
	env := newTestEnv()

	rr := env.do(t, http.MethodPost, "/api/v1/sessions/s-42/messages", validToken, `{"role":"user","content":"still hurts"}`)

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "s-42", env.records.addedTo)
	var msg models.Message
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &msg))
	assert.Equal(t, "message-1", msg.ID)
	assert.Equal(t, "s-42", msg.SessionID)
}

func TestHistory(t *testing.T) {
	env := newTestEnv()
	env.records.history = []services.SessionHistory{
		{
			Session:  models.SymptomSession{ID: "s1", UserID: testUserID},
			Messages: []models.Message{{ID: "m1", SessionID: "s1", Role: models.RoleUser, Content: strPtr("hi")}},
			Omitted:  []string{"messages.m2.content"},
		},
	}

	rr := env.do(t, http.MethodGet, "/api/v1/sessions", validToken, "")

	require.Equal(t, http.StatusOK, rr.Code)
	var body []sessionHistoryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "s1", body[0].Session.ID)
	assert.Equal(t, []string{"messages.m2.content"}, body[0].Omitted)
}

func TestHistory_Empty(t *testing.T) {
	env := newTestEnv()

	rr := env.do(t, http.MethodGet, "/api/v1/sessions", validToken, "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestAvatarEndpoints(t *testing.T) {
	env := newTestEnv()
	env.records.avatarURL = "https://s3.example.com/avatars/x?sig=get"

	rr := env.do(t, http.MethodPost, "/api/v1/profile/avatar", validToken, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	var up avatarUploadResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &up))
	assert.Equal(t, "avatars/"+testUserID+"/abc", up.Key)
	assert.Contains(t, up.URL, "sig=put")

	rr = env.do(t, http.MethodGet, "/api/v1/profile/avatar", validToken, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, env.records.avatarURL, decodeMap(t, rr)["url"])
}

func TestAvatar_InternalError(t *testing.T) {
	env := newTestEnv()
	env.records.err = errors.New("object storage is not configured")

	rr := env.do(t, http.MethodPost, "/api/v1/profile/avatar", validToken, "")

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Internal server error", decodeMap(t, rr)["error"])
}

func TestAuditLog(t *testing.T) {
	env := newTestEnv()
	env.audit.entries = []*models.AuditEntry{
		{ID: 7, UserID: testUserID, TableName: models.TableProfiles, Action: models.AuditSelect},
	}

	rr := env.do(t, http.MethodGet, "/api/v1/audit?limit=5", validToken, "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 5, env.audit.gotLimit)
	var body []models.AuditEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, models.AuditSelect, body[0].Action)
}

func TestAuditLog_BadLimit(t *testing.T) {
	env := newTestEnv()

	for _, q := range []string{"abc", "-1"} {
		rr := env.do(t, http.MethodGet, "/api/v1/audit?limit="+q, validToken, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
}

func TestAuditLog_EmptyIsArray(t *testing.T) {
	env := newTestEnv()

	rr := env.do(t, http.MethodGet, "/api/v1/audit", validToken, "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, env.audit.gotLimit)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

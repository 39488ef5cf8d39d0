package cli

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/triagekeeper/internal/common"
	"github.com/dmitrijs2005/triagekeeper/internal/netx"
	"github.com/dmitrijs2005/triagekeeper/internal/server/auth"
)

const (
	devTokenValidity = time.Hour
	maxAvatarBytes   = 5 << 20
	deleteConfirm    = "DELETE"
)

var uploadToPresignedURL = netx.UploadToPresignedURL

func (a *App) report(err error) error {
	if errors.Is(err, common.ErrorUnauthorized) {
		printlnFn("Session rejected by the server, please log in again.")
		a.api.SetToken("")
		a.email = ""
		return err
	}
	printlnFn("Error:", err)
	return err
}

// Login reads a bearer token issued by the hosted auth service.
func (a *App) Login(ctx context.Context) error {
	token, err := GetSecret("Bearer token", a.out)
	if err != nil {
		return a.report(err)
	}
	token = strings.TrimPrefix(token, common.BearerPrefix)
	if token == "" {
		printlnFn("No token entered.")
		return common.ErrMissingCredential
	}
	a.api.SetToken(token)
	if _, err := a.api.Profile(ctx); err != nil && !errors.Is(err, common.ErrorNotFound) {
		return a.report(err)
	}
	printlnFn("Logged in.")
	return nil
}

// Token mints a short-lived HS256 token for a local server that verifies
// tokens with a shared JWT secret.
func (a *App) Token(ctx context.Context) error {
	userID, err := GetSimpleText(a.reader, "User id (uuid)", a.out)
	if err != nil {
		return a.report(err)
	}
	email, err := GetSimpleText(a.reader, "Email (optional)", a.out)
	if err != nil {
		return a.report(err)
	}
	secret, err := GetSecret("JWT secret", a.out)
	if err != nil {
		return a.report(err)
	}

	token, err := auth.GenerateToken(userID, email, []byte(secret), devTokenValidity)
	if err != nil {
		return a.report(err)
	}
	a.api.SetToken(token)
	a.email = email
	printlnFn("Token valid for", devTokenValidity)
	return nil
}

func (a *App) Logout(_ context.Context) error {
	a.api.SetToken("")
	a.email = ""
	printlnFn("Logged out.")
	return nil
}

func (a *App) Profile(ctx context.Context) error {
	p, err := a.api.Profile(ctx)
	if errors.Is(err, common.ErrorNotFound) {
		printlnFn("No profile yet.")
		return nil
	}
	if err != nil {
		return a.report(err)
	}

	pr := p.Profile
	printlnFn("Name:         ", deref(pr.FullName))
	printlnFn("Date of birth:", deref(pr.DateOfBirth))
	printlnFn("Phone:        ", deref(pr.Phone))
	if pr.AvatarURL != nil {
		printlnFn("Avatar:       ", *pr.AvatarURL)
	}
	printOmitted(p.Omitted)
	return nil
}

func (a *App) History(ctx context.Context) error {
	sessions, err := a.api.History(ctx)
	if err != nil {
		return a.report(err)
	}
	if len(sessions) == 0 {
		printlnFn("No sessions.")
		return nil
	}
	for _, s := range sessions {
		urgency := "-"
		if s.Session.UrgencyLevel != nil {
			urgency = string(*s.Session.UrgencyLevel)
		}
		printlnFn(fmt.Sprintf("%s  %s  urgency=%s  specialist=%s",
			s.Session.CreatedAt.Local().Format(time.DateTime), s.Session.ID, urgency, deref(s.Session.Specialist)))
		if len(s.Session.Conditions) > 0 {
			printlnFn("  conditions:", strings.Join(s.Session.Conditions, ", "))
		}
		if s.Session.Recommendation != nil {
			printlnFn("  recommendation:", *s.Session.Recommendation)
		}
		for _, m := range s.Messages {
			printlnFn(fmt.Sprintf("  [%s] %s", m.Role, deref(m.Content)))
		}
		printOmitted(s.Omitted)
	}
	return nil
}

func (a *App) Audit(ctx context.Context, args []string) error {
	limit := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			printlnFn("Usage: audit [n]")
			return fmt.Errorf("bad limit %q", args[0])
		}
		limit = n
	}

	entries, err := a.api.Audit(ctx, limit)
	if err != nil {
		return a.report(err)
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-6s %s", e.Timestamp.Local().Format(time.DateTime), e.Action, e.TableName)
		if e.RecordID != nil {
			line += " " + *e.RecordID
		}
		printlnFn(line)
	}
	return nil
}

// UploadAvatar asks the server for a presigned URL and PUTs the file there.
func (a *App) UploadAvatar(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage: avatar <file>")
		return errors.New("missing file argument")
	}
	path := args[0]

	st, err := os.Stat(path)
	if err != nil {
		return a.report(err)
	}
	if st.Size() > maxAvatarBytes {
		printlnFn("File too large, limit is", maxAvatarBytes, "bytes")
		return fmt.Errorf("file too large: %d bytes", st.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return a.report(err)
	}

	up, err := a.api.RequestAvatarUpload(ctx)
	if err != nil {
		return a.report(err)
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if err := uploadToPresignedURL(ctx, a.http, up.URL, contentType, data); err != nil {
		return a.report(err)
	}
	printlnFn("Avatar uploaded:", up.Key)
	return nil
}

// DeleteAll erases all records of the logged-in user after confirmation.
func (a *App) DeleteAll(ctx context.Context) error {
	ok, err := Confirm(a.reader, "This permanently deletes your profile, sessions, messages and avatar.", deleteConfirm, a.out)
	if err != nil {
		return a.report(err)
	}
	if !ok {
		printlnFn("Cancelled.")
		return nil
	}

	res, err := a.api.DeleteAllData(ctx)
	if err != nil {
		return a.report(err)
	}
	printlnFn(res.Message, "at", res.DeletedAt)
	return nil
}

func printOmitted(fields []string) {
	if len(fields) > 0 {
		printlnFn("  (could not decrypt:", strings.Join(fields, ", ")+")")
	}
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

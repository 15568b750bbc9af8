package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-tenant-auth-service/internal/authz"
	"go-tenant-auth-service/internal/database"
	"go-tenant-auth-service/internal/repository"
	"go-tenant-auth-service/internal/router"
	"go-tenant-auth-service/internal/security"
	"go-tenant-auth-service/internal/service"
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// recordingNotifier captures issued verification and reset links so
// tests can walk the email flows without an SMTP backend.
type recordingNotifier struct {
	mu             sync.Mutex
	verifications  []service.TokenNotification
	passwordResets []service.TokenNotification
}

func (n *recordingNotifier) SendEmailVerification(_ context.Context, msg service.TokenNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.verifications = append(n.verifications, msg)
	return nil
}

func (n *recordingNotifier) SendPasswordReset(_ context.Context, msg service.TokenNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.passwordResets = append(n.passwordResets, msg)
	return nil
}

func (n *recordingNotifier) lastVerification(t *testing.T) service.TokenNotification {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.verifications) == 0 {
		t.Fatal("no verification email was dispatched")
	}
	return n.verifications[len(n.verifications)-1]
}

type testServer struct {
	URL      string
	Client   *http.Client
	Notifier *recordingNotifier
	DB       *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	users := repository.NewUserRepository(db)
	tokens := repository.NewTokenRepository(db)
	orgs := repository.NewOrganizationRepository(db)
	teams := repository.NewTeamRepository(db)
	roles := repository.NewRoleRepository(db)
	memberships := repository.NewMembershipRepository(db)

	jwtMgr := security.NewJWTManager("test-issuer", "test-audience", "integration-access-secret", "integration-refresh-secret")
	engine := authz.NewEngine(memberships)
	notifier := &recordingNotifier{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	authSvc := service.NewAuthService(users, tokens, jwtMgr, notifier, log, service.AuthOptions{
		VerificationTTL:   time.Hour,
		PasswordResetTTL:  time.Hour,
		AccessTTL:         time.Minute,
		RefreshTTL:        time.Hour,
		PublicBaseURL:     "http://localhost:8080",
		MinPasswordLength: 8,
	})
	orgSvc := service.NewOrgService(orgs, roles, engine)
	teamSvc := service.NewTeamService(teams, memberships, roles, users, orgs, engine)
	userSvc := service.NewUserService(users)

	h := router.New(router.Config{
		DB:         db,
		Logger:     log,
		JWTManager: jwtMgr,
		AuthSvc:    authSvc,
		OrgSvc:     orgSvc,
		TeamSvc:    teamSvc,
		UserSvc:    userSvc,
		Users:      users,
	})

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return &testServer{URL: srv.URL, Client: srv.Client(), Notifier: notifier, DB: db}
}

func (ts *testServer) doJSON(t *testing.T, method, path string, payload any, token string) (*http.Response, apiEnvelope) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env apiEnvelope
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode envelope from %q: %v", raw, err)
		}
	}
	return resp, env
}

// signupAndVerify registers an account, walks the verification link,
// and returns the access token from a fresh login.
func (ts *testServer) signupAndVerify(t *testing.T, username, email, password string) string {
	t.Helper()

	resp, env := ts.doJSON(t, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup %s: expected 201, got %d (%+v)", username, resp.StatusCode, env.Error)
	}

	token := ts.Notifier.lastVerification(t).Token
	resp, env = ts.doJSON(t, http.MethodGet, "/api/v1/auth/verify-email?token="+token, nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify %s: expected 200, got %d (%+v)", username, resp.StatusCode, env.Error)
	}

	return ts.login(t, email, password)
}

func (ts *testServer) login(t *testing.T, identifier, password string) string {
	t.Helper()
	resp, env := ts.doJSON(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"identifier": identifier,
		"password":   password,
	}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d (%+v)", identifier, resp.StatusCode, env.Error)
	}
	var result struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode login result: %v", err)
	}
	if result.Access == "" || result.Refresh == "" {
		t.Fatal("login must return both tokens")
	}
	return result.Access
}

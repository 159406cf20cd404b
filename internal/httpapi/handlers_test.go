package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"authgate/internal/audit"
	"authgate/internal/config"
	"authgate/internal/identity"
	"authgate/internal/pipeline"
	"authgate/internal/rbac"
	"authgate/internal/session"
	"authgate/internal/tenant"
	"authgate/internal/token"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type env struct {
	router    *gin.Engine
	users     *identity.MemoryRepo
	auditRepo *audit.MemoryRepo
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := identity.NewMemoryRepo()
	auditRepo := audit.NewMemoryRepo()
	auditSvc := audit.NewService(auditRepo)
	userSvc := identity.NewService(users)

	tokens, err := token.NewService(config.AuthConfig{
		JWTSecret:       "secret",
		JWTIssuer:       "authgate",
		JWTAudience:     "api",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		ClockSkew:       60 * time.Second,
	}, session.NewMemoryRegistry(), userSvc, auditSvc)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}

	pipe := pipeline.New(tokens, rbac.NewEvaluator(rbac.DefaultHierarchy()))
	h := Handlers{Tokens: tokens, Users: userSvc, Audit: auditSvc}

	r := gin.New()
	auth := r.Group("/auth")
	auth.POST("/login", h.Login)
	auth.POST("/refresh", h.Refresh)
	auth.POST("/logout", h.Logout)

	me := r.Group("/")
	me.Use(pipe.Stages(pipeline.Policy{RequiresAuth: true})...)
	me.GET("/me", h.Me)
	me.GET("/tenant", h.TenantInfo)

	admin := r.Group("/admin")
	admin.Use(pipe.Stages(pipeline.Policy{RequiresAuth: true, RequiredRole: rbac.RoleAdmin})...)
	admin.POST("/sessions/:family_id/revoke", h.RevokeFamily)

	return &env{router: r, users: users, auditRepo: auditRepo}
}

func (e *env) seedUser(t *testing.T, id, tenantID, email string, roles ...string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	e.users.Put(identity.User{
		ID:           id,
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: string(hash),
		Roles:        roles,
		Status:       identity.UserStatusActive,
	})
}

func (e *env) post(path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) login(t *testing.T, email string) (access, refresh string) {
	t.Helper()
	w := e.post("/auth/login", gin.H{"email": email, "password": "hunter2"}, nil)
	if w.Code != 200 {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("login body: %v", err)
	}
	if body["access_token"] == "" || body["refresh_token"] == "" {
		t.Fatalf("incomplete login response: %v", body)
	}
	return body["access_token"], body["refresh_token"]
}

func TestLogin_WrongPasswordIsGeneric401(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "u1", "t1", "one@t1.example", rbac.RoleUser)

	w := e.post("/auth/login", gin.H{"email": "one@t1.example", "password": "nope"}, nil)
	if w.Code != 401 {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	// Same body for bad password and unknown user; no oracle.
	w2 := e.post("/auth/login", gin.H{"email": "ghost@t1.example", "password": "hunter2"}, nil)
	if w2.Code != 401 || w.Body.String() != w2.Body.String() {
		t.Fatalf("expected identical generic 401 bodies, got %q vs %q", w.Body.String(), w2.Body.String())
	}
}

func TestMe_ReturnsPrincipal(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "u1", "t1", "one@t1.example", rbac.RoleManager)
	access, _ := e.login(t, "one@t1.example")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		UserID   string   `json:"user_id"`
		TenantID string   `json:"tenant_id"`
		Roles    []string `json:"roles"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body.UserID != "u1" || body.TenantID != "t1" || len(body.Roles) != 1 || body.Roles[0] != rbac.RoleManager {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestTenantInfo_ReturnsResolvedTenant(t *testing.T) {
	e := newEnv(t)
	e.users.PutTenant(identity.Tenant{ID: "t1", Name: "Acme"})
	e.seedUser(t, "u1", "t1", "one@t1.example", rbac.RoleUser)
	access, _ := e.login(t, "one@t1.example")

	req := httptest.NewRequest(http.MethodGet, "/tenant", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["tenant_id"] != "t1" || body["name"] != "Acme" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestMe_TenantHeaderMismatchIs401(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "u1", "t1", "one@t1.example", rbac.RoleUser)
	access, _ := e.login(t, "one@t1.example")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	req.Header.Set(tenant.HeaderTenantID, "t2")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	if w.Code != 401 {
		t.Fatalf("expected 401 on tenant mismatch, got %d", w.Code)
	}
}

func TestRefresh_RotationAndReplay(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "u1", "t1", "one@t1.example", rbac.RoleUser)
	_, refresh0 := e.login(t, "one@t1.example")

	w := e.post("/auth/refresh", gin.H{"refresh_token": refresh0}, nil)
	if w.Code != 200 {
		t.Fatalf("rotate: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("rotate body: %v", err)
	}
	refresh1 := body["refresh_token"]
	if refresh1 == "" || refresh1 == refresh0 {
		t.Fatalf("expected a new refresh token")
	}

	// Replay of the consumed token: 401 and the family is revoked.
	if w := e.post("/auth/refresh", gin.H{"refresh_token": refresh0}, nil); w.Code != 401 {
		t.Fatalf("replay: expected 401, got %d", w.Code)
	}
	// The once-valid second-generation token now fails too.
	if w := e.post("/auth/refresh", gin.H{"refresh_token": refresh1}, nil); w.Code != 401 {
		t.Fatalf("post-revocation rotate: expected 401, got %d", w.Code)
	}

	found := false
	for _, ev := range e.auditRepo.Events() {
		if ev.Type == audit.EventTypeReuseDetected {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected reuse_detected audit event")
	}
}

func TestLogout_RevokesFamily(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "u1", "t1", "one@t1.example", rbac.RoleUser)
	_, refresh := e.login(t, "one@t1.example")

	if w := e.post("/auth/logout", gin.H{"refresh_token": refresh}, nil); w.Code != 204 {
		t.Fatalf("logout: expected 204, got %d", w.Code)
	}
	if w := e.post("/auth/refresh", gin.H{"refresh_token": refresh}, nil); w.Code != 401 {
		t.Fatalf("refresh after logout: expected 401, got %d", w.Code)
	}
}

func TestAdminRevoke_RequiresAdminRole(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "u1", "t1", "one@t1.example", rbac.RoleUser)
	e.seedUser(t, "boss", "t1", "boss@t1.example", rbac.RoleAdmin)

	userAccess, _ := e.login(t, "one@t1.example")
	adminAccess, _ := e.login(t, "boss@t1.example")

	if w := e.post("/admin/sessions/fam-x/revoke", nil, map[string]string{"Authorization": "Bearer " + userAccess}); w.Code != 403 {
		t.Fatalf("expected 403 for non-admin, got %d", w.Code)
	}
	if w := e.post("/admin/sessions/fam-x/revoke", nil, map[string]string{"Authorization": "Bearer " + adminAccess}); w.Code != 204 {
		t.Fatalf("expected 204 for admin, got %d", w.Code)
	}
}

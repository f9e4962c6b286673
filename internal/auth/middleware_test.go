package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestHandler(secret []byte) (http.Handler, *string) {
	var subject string
	policy := NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	mw := NewMiddleware(secret, policy, nil)
	return mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})), &subject
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	handler, _ := newTestHandler([]byte("test-secret"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/simulations/run-1/failures", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthMiddleware_ExemptPaths(t *testing.T) {
	handler, _ := newTestHandler([]byte("test-secret"))

	for _, path := range []string{"/healthz", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.Code)
		}
	}
}

func TestAuthMiddleware_ViewerForbiddenSimulationPost(t *testing.T) {
	secret := []byte("test-secret")
	handler, _ := newTestHandler(secret)
	token := mustToken(t, secret, RoleViewer)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/simulations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestAuthMiddleware_OperatorAllowed(t *testing.T) {
	secret := []byte("test-secret")
	handler, subject := newTestHandler(secret)
	token := mustToken(t, secret, RoleOperator)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/simulations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if *subject != "user-1" {
		t.Fatalf("subject=%q", *subject)
	}
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	handler, _ := newTestHandler([]byte("test-secret"))
	token := mustToken(t, []byte("other-secret"), RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/simulations/run-1/failures", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestParseJWTErrors(t *testing.T) {
	secret := []byte("test-secret")
	if _, err := ParseJWT("", secret); !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("expected ErrEmptyToken, got %v", err)
	}
	if _, err := ParseJWT("x.y.z", nil); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
	if _, err := ParseJWT("not-a-token", secret); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	expired, err := IssueJWT(secret, "user-1", RoleViewer, time.Minute, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseJWT(expired, secret); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
	if _, err := IssueJWT(secret, "user-1", Role("root"), time.Minute, time.Now()); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestRoleAtLeast(t *testing.T) {
	if !RoleAtLeast(RoleAdmin, RoleOperator) || RoleAtLeast(RoleViewer, RoleOperator) {
		t.Fatalf("unexpected role ordering")
	}
	if _, ok := NormalizeRole("guest"); ok {
		t.Fatalf("expected guest to be rejected")
	}
}

func mustToken(t *testing.T, secret []byte, role Role) string {
	t.Helper()
	token, err := IssueJWT(secret, "user-1", role, time.Hour, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

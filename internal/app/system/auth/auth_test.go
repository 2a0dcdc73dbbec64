package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/brewcircles/internal/app/system/auth"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		logger,
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

// echoUser writes the current user's id, or "anonymous".
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		w.Write([]byte(u.ID + "|" + u.Name))
		return
	}
	w.Write([]byte("anonymous"))
})

func TestRequireSignedIn_NoUser_Returns401JSON(t *testing.T) {
	sm := newTestSessionManager(t)

	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/circles", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "unauthorized" {
		t.Errorf("error kind: got %q, want unauthorized", body["error"])
	}
}

func TestRequireSignedIn_WithUser_Proceeds(t *testing.T) {
	sm := newTestSessionManager(t)

	handler := sm.RequireSignedIn(echoUser)
	req := auth.WithTestUser(httptest.NewRequest("GET", "/api/circles", nil), &auth.SessionUser{ID: "alice", Name: "Alice"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if rec.Body.String() != "alice|Alice" {
		t.Errorf("body: got %q", rec.Body.String())
	}
}

func TestSignIn_RoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)

	rec := httptest.NewRecorder()
	if err := sm.SignIn(rec, httptest.NewRequest("POST", "/", nil), auth.SessionUser{ID: "bob", Name: "Bob"}); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}

	req := httptest.NewRequest("GET", "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	out := httptest.NewRecorder()
	sm.LoadSessionUser(echoUser).ServeHTTP(out, req)

	if out.Body.String() != "bob|Bob" {
		t.Errorf("expected session user bob, got %q", out.Body.String())
	}
}

func TestLoadSessionUser_ForeignCookieIgnored(t *testing.T) {
	sm := newTestSessionManager(t)
	other, err := auth.NewSessionManager("another-key-that-is-also-32-chars!!", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	rec := httptest.NewRecorder()
	if err := other.SignIn(rec, httptest.NewRequest("POST", "/", nil), auth.SessionUser{ID: "mallory"}); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	req := httptest.NewRequest("GET", "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	out := httptest.NewRecorder()
	sm.LoadSessionUser(echoUser).ServeHTTP(out, req)

	if out.Body.String() != "anonymous" {
		t.Errorf("expected cookie signed with another key to be ignored, got %q", out.Body.String())
	}
}

func TestLoadSessionUser_IdentityHeaders(t *testing.T) {
	tests := []struct {
		name  string
		trust bool
		want  string
	}{
		{"trusted", true, "carol|Carol"},
		{"untrusted", false, "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := newTestSessionManager(t)
			sm.TrustIdentityHeaders(tt.trust)

			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set(auth.HeaderUserID, "carol")
			req.Header.Set(auth.HeaderUserName, "Carol")
			rec := httptest.NewRecorder()
			sm.LoadSessionUser(echoUser).ServeHTTP(rec, req)

			if rec.Body.String() != tt.want {
				t.Errorf("got %q, want %q", rec.Body.String(), tt.want)
			}
		})
	}
}

func TestNewSessionManager_EmptyKeyGeneratesRandom(t *testing.T) {
	sm, err := auth.NewSessionManager("", "", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	if sm == nil {
		t.Fatal("expected session manager")
	}
}

func TestCurrentUser_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if _, ok := auth.CurrentUser(req); ok {
		t.Error("expected no user in context")
	}
}

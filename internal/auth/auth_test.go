package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		SigningKey: "test-signing-key",
		AccessKeys: []string{"valid-key"},
		SessionTTL: time.Hour,
	}, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestNewManagerRequiresSigningKey(t *testing.T) {
	if _, err := NewManager(Config{}, nil); err == nil {
		t.Error("Expected error without a signing key")
	}
}

func TestSignInAndVerify(t *testing.T) {
	m := newTestManager(t)

	token, err := m.SignIn("valid-key")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if err := m.Verify(token); err != nil {
		t.Errorf("Verify rejected a fresh token: %v", err)
	}
}

func TestSignInRejectsUnknownKey(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.SignIn("wrong-key"); err == nil {
		t.Error("Expected sign-in with an unknown key to fail")
	}
	if _, err := m.SignIn(""); err == nil {
		t.Error("Expected sign-in with an empty key to fail")
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	m := newTestManager(t)

	token, err := m.SignIn("valid-key")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if err := m.Verify(tampered); err == nil {
		t.Error("Expected tampered token to be rejected")
	}
	if err := m.Verify(""); err == nil {
		t.Error("Expected empty token to be rejected")
	}
}

func TestGuardRedirectsBrowserWithNext(t *testing.T) {
	m := newTestManager(t)

	handler := m.Guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/resumes/abc", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("Expected 302, got %d", rec.Code)
	}
	location := rec.Header().Get("Location")
	if !strings.HasPrefix(location, SignInPath+"?next=") {
		t.Fatalf("Expected redirect to sign-in with next, got %q", location)
	}
	parsed, err := url.Parse(location)
	if err != nil {
		t.Fatalf("Failed to parse redirect: %v", err)
	}
	if got := parsed.Query().Get("next"); got != "/api/v1/resumes/abc" {
		t.Errorf("Expected next to carry the original path, got %q", got)
	}
}

func TestGuardReturns401ForAPIClients(t *testing.T) {
	m := newTestManager(t)

	handler := m.Guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/resumes/abc", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestGuardAllowsValidSession(t *testing.T) {
	m := newTestManager(t)

	token, err := m.SignIn("valid-key")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	handler := m.Guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Cookie credential
	req := httptest.NewRequest(http.MethodGet, "/api/v1/resumes/abc", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Cookie session: expected 200, got %d", rec.Code)
	}

	// Bearer credential
	req = httptest.NewRequest(http.MethodGet, "/api/v1/resumes/abc", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Bearer session: expected 200, got %d", rec.Code)
	}
}

func TestSignInHandlerRedirectsToNext(t *testing.T) {
	m := newTestManager(t)
	handler := m.SignInHandler()

	form := url.Values{"access_key": {"valid-key"}, "next": {"/api/v1/resumes/abc"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/signin", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("Expected 302, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/api/v1/resumes/abc" {
		t.Errorf("Expected redirect to next, got %q", got)
	}

	cookies := rec.Result().Cookies()
	found := false
	for _, c := range cookies {
		if c.Name == SessionCookie && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("Expected a session cookie to be set")
	}
}

func TestSignInPageServesForm(t *testing.T) {
	m := newTestManager(t)
	handler := m.SignInPageHandler()

	req := httptest.NewRequest(http.MethodGet, "/auth?next=%2Fapi%2Fv1%2Fresumes%2Fabc", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `action="/auth/signin"`) {
		t.Error("Expected form posting to the sign-in endpoint")
	}
	if !strings.Contains(body, `value="/api/v1/resumes/abc"`) {
		t.Error("Expected the next target in a hidden field")
	}
}

func TestSignInPageSkipsWithValidSession(t *testing.T) {
	m := newTestManager(t)
	handler := m.SignInPageHandler()

	token, err := m.SignIn("valid-key")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth?next=%2Fapi%2Fv1%2Fusage", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("Expected 302, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/api/v1/usage" {
		t.Errorf("Expected redirect to next, got %q", got)
	}
}

func TestSafeNextPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/v1/resumes/abc", "/api/v1/resumes/abc"},
		{"", ""},
		{"https://evil.example", ""},
		{"//evil.example", ""},
		{"relative/path", ""},
	}

	for _, tt := range tests {
		if got := safeNextPath(tt.in); got != tt.want {
			t.Errorf("safeNextPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codefolio/internal/auth"
	"codefolio/internal/domain/models"
	"codefolio/internal/httputil"
)

const testSecret = "middleware-test-secret"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func issue(t *testing.T, p models.Principal) string {
	t.Helper()
	token, err := auth.IssueToken(testSecret, p, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	return token
}

func TestAuthenticateAndRequireAdmin(t *testing.T) {
	verifier, err := auth.NewHMACVerifier(testSecret, testLogger())
	if err != nil {
		t.Fatalf("NewHMACVerifier() error = %v", err)
	}

	var seen models.Principal
	protected := Authenticate(verifier, testLogger())(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = httputil.GetPrincipal(r)
		w.WriteHeader(http.StatusNoContent)
	})))

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"anonymous", "", "", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", "", http.StatusUnauthorized},
		{"viewer", "Bearer " + issue(t, models.Principal{UserID: 2, Username: "guest"}), "", http.StatusForbidden},
		{"admin", "Bearer " + issue(t, models.Principal{UserID: 1, Username: "owner", IsAdmin: true}), "", http.StatusNoContent},
		{"admin via query", "", issue(t, models.Principal{UserID: 1, IsAdmin: true}), http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/api/files"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodPost, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			protected.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	if seen.UserID != 1 || !seen.IsAdmin {
		t.Errorf("principal = %+v, want admin user 1", seen)
	}
}

func TestAuthenticate_AnonymousReadPasses(t *testing.T) {
	verifier, _ := auth.NewHMACVerifier(testSecret, testLogger())
	h := Authenticate(verifier, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := httputil.GetPrincipal(r); ok {
			t.Error("anonymous request carried a principal")
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(testLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}

	var problem map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if problem["code"] != "internal_error" || problem["type"] != httputil.ProblemTypeBase+"internal_error" {
		t.Errorf("problem = %v", problem)
	}
	if detail, _ := problem["detail"].(string); detail != "internal server error" {
		t.Errorf("detail = %q, panic value leaked", detail)
	}
}

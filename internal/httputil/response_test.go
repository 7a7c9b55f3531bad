package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRespondErrorWithExtras_ProblemType(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		extras   map[string]interface{}
		wantType string
	}{
		{"code names the type", http.StatusConflict, map[string]interface{}{"code": "duplicate_folder"}, "/problems/duplicate_folder"},
		{"no code falls back to status", http.StatusUnauthorized, nil, "https://datatracker.ietf.org/doc/html/rfc7235#section-3.1"},
		{"non-string code ignored", http.StatusNotFound, map[string]interface{}{"code": 4}, "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.4"},
		{"unknown status", http.StatusTeapot, nil, "about:blank"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondErrorWithExtras(rec, tt.status, "detail", tt.extras)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("Content-Type = %q", ct)
			}

			var problem map[string]interface{}
			if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if problem["type"] != tt.wantType {
				t.Errorf("type = %v, want %v", problem["type"], tt.wantType)
			}
			if problem["title"] != http.StatusText(tt.status) {
				t.Errorf("title = %v", problem["title"])
			}
		})
	}
}

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, http.StatusCreated, map[string]int{"id": 3})
	if rec.Code != http.StatusCreated || rec.Body.String() != `{"id":3}` {
		t.Errorf("RespondJSON = %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	RespondJSON(rec, http.StatusOK, make(chan int))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("unencodable body status = %d, want 500", rec.Code)
	}
}

package report

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sitehealth/audit-service/internal/model"
	"github.com/sitehealth/audit-service/internal/platform/errs"
)

func newTestMux(engine *mockEngine, rec *mockRecommender, store *mockStore) *http.ServeMux {
	logger := slog.Default()
	svc := NewService(engine, rec, store, nil, logger)
	transport := NewTransport(svc, 30*time.Second, logger)
	mux := http.NewServeMux()
	transport.RegisterRoutes(mux)
	return mux
}

func postGenerate(mux *http.ServeMux, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleGenerate_Success(t *testing.T) {
	store := &mockStore{}
	mux := newTestMux(goodEngine(), &mockRecommender{text: "advice"}, store)

	rec := postGenerate(mux, `{"url": "https://example.com"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var rep model.Report
	if err := json.NewDecoder(rec.Body).Decode(&rep); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if rep.URL != "https://example.com" {
		t.Errorf("URL = %q", rep.URL)
	}
	if rep.Summary.Performance != 93 {
		t.Errorf("Performance = %d, want 93", rep.Summary.Performance)
	}
	if len(store.saved) != 1 {
		t.Errorf("saved reports = %d, want 1", len(store.saved))
	}
}

func TestHandleGenerate_NormalizesBareDomain(t *testing.T) {
	store := &mockStore{}
	mux := newTestMux(goodEngine(), &mockRecommender{text: "advice"}, store)

	rec := postGenerate(mux, `{"url": "  example.com "}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(store.saved) != 1 || store.saved[0].URL != "https://example.com" {
		t.Errorf("stored URL not normalized: %+v", store.saved)
	}
}

func TestHandleGenerate_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty url", `{"url": ""}`},
		{"missing body", ""},
		{"malformed json", `{invalid json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestMux(goodEngine(), &mockRecommender{text: "x"}, &mockStore{})
			rec := postGenerate(mux, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestHandleGenerate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		kind   errs.Kind
		status int
	}{
		{"engine failure", errs.EngineFailed, http.StatusBadGateway},
		{"unreachable target", errs.Unreachable, http.StatusBadGateway},
		{"recommendation failure", errs.RecommendationFailed, http.StatusBadGateway},
		{"malformed audit", errs.MalformedAudit, http.StatusInternalServerError},
		{"timeout", errs.Timeout, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &mockEngine{err: &errs.AppError{Kind: tt.kind, Message: "boom"}}
			mux := newTestMux(engine, &mockRecommender{text: "x"}, &mockStore{})

			rec := postGenerate(mux, `{"url": "https://example.com"}`)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestHandleGet(t *testing.T) {
	store := &mockStore{}
	mux := newTestMux(goodEngine(), &mockRecommender{text: "advice"}, store)
	postGenerate(mux, `{"url": "https://example.com"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/"+store.saved[0].ID, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var rep model.Report
	if err := json.NewDecoder(rec.Body).Decode(&rep); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if rep.ID != store.saved[0].ID {
		t.Errorf("ID = %q, want %q", rep.ID, store.saved[0].ID)
	}
}

func TestHandleGet_NotFound(t *testing.T) {
	mux := newTestMux(goodEngine(), &mockRecommender{text: "x"}, &mockStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/reports/nope", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleList(t *testing.T) {
	store := &mockStore{}
	mux := newTestMux(goodEngine(), &mockRecommender{text: "advice"}, store)
	postGenerate(mux, `{"url": "https://example.com"}`)
	postGenerate(mux, `{"url": "https://example.org"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var items []model.ReportListItem
	if err := json.NewDecoder(rec.Body).Decode(&items); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("items = %d, want 2", len(items))
	}
}

func TestHandleDownloadHTML(t *testing.T) {
	store := &mockStore{}
	mux := newTestMux(goodEngine(), &mockRecommender{text: "advice"}, store)
	postGenerate(mux, `{"url": "https://example.com"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/"+store.saved[0].ID+"/html", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, ".html") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if rec.Body.String() != "<html>report</html>" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestHandleDownloadJSON(t *testing.T) {
	store := &mockStore{}
	mux := newTestMux(goodEngine(), &mockRecommender{text: "advice"}, store)
	postGenerate(mux, `{"url": "https://example.com"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/"+store.saved[0].ID+"/json", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !json.Valid(rec.Body.Bytes()) {
		t.Error("download body is not valid JSON")
	}
}

func TestHandleGenerate_WrongMethod(t *testing.T) {
	mux := newTestMux(goodEngine(), &mockRecommender{text: "x"}, &mockStore{})

	req := httptest.NewRequest(http.MethodPut, "/api/reports", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	// ServeMux returns 405 for method mismatch.
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

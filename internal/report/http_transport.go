package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sitehealth/audit-service/internal/model"
	"github.com/sitehealth/audit-service/internal/platform/errs"
)

var errURLRequired = errors.New("the \"url\" field is required")

// Transport handles HTTP requests for report generation and retrieval.
type Transport struct {
	service         *Service
	generateTimeout time.Duration
	logger          *slog.Logger
}

// NewTransport creates an HTTP transport backed by the given service.
// generateTimeout bounds one whole pipeline run.
func NewTransport(service *Service, generateTimeout time.Duration, logger *slog.Logger) *Transport {
	return &Transport{service: service, generateTimeout: generateTimeout, logger: logger}
}

// RegisterRoutes attaches the transport's handlers to the given mux.
func (t *Transport) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", t.handleHealth)
	mux.HandleFunc("POST /api/reports", t.handleGenerate)
	mux.HandleFunc("GET /api/reports", t.handleList)
	mux.HandleFunc("GET /api/reports/{id}", t.handleGet)
	mux.HandleFunc("GET /api/reports/{id}/html", t.handleDownloadHTML)
	mux.HandleFunc("GET /api/reports/{id}/json", t.handleDownloadJSON)
}

type generateRequest struct {
	URL string `json:"url"`
}

func (r *generateRequest) validate() error {
	if r.URL == "" {
		return errURLRequired
	}
	return nil
}

// normalize trims the URL and defaults the scheme to https, so plain
// domains like "example.com" are accepted.
func (r *generateRequest) normalize() {
	r.URL = strings.TrimSpace(r.URL)
	if r.URL == "" {
		return
	}
	lower := strings.ToLower(r.URL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		r.URL = "https://" + r.URL
	}
}

func (t *Transport) handleHealth(w http.ResponseWriter, _ *http.Request) {
	t.renderJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (t *Transport) handleGenerate(w http.ResponseWriter, r *http.Request) {
	const maxRequestBody = 1 << 20 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.renderError(w, http.StatusBadRequest, "Invalid request body. Please send a JSON object with a \"url\" field.")
		return
	}

	req.normalize()
	if err := req.validate(); err != nil {
		t.renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), t.generateTimeout)
	defer cancel()

	rep, err := t.service.Generate(ctx, req.URL)
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	t.renderJSON(w, http.StatusOK, rep)
}

func (t *Transport) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := t.service.List(r.Context())
	if err != nil {
		t.handleServiceError(w, err)
		return
	}
	t.renderJSON(w, http.StatusOK, items)
}

func (t *Transport) handleGet(w http.ResponseWriter, r *http.Request) {
	rep, err := t.service.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		t.handleServiceError(w, err)
		return
	}
	t.renderJSON(w, http.StatusOK, rep)
}

func (t *Transport) handleDownloadHTML(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	html, err := t.service.HTML(r.Context(), id)
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "audit-report-"+id+".html"))
	_, _ = w.Write([]byte(html))
}

func (t *Transport) handleDownloadJSON(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	raw, err := t.service.RawJSON(r.Context(), id)
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		buf.Reset()
		buf.Write(raw)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "audit-report-"+id+".json"))
	_, _ = buf.WriteTo(w)
}

func (t *Transport) handleServiceError(w http.ResponseWriter, err error) {
	var appErr *errs.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch appErr.Kind {
		case errs.InvalidInput:
			status = http.StatusBadRequest
		case errs.NotFound:
			status = http.StatusNotFound
		case errs.Unreachable, errs.EngineFailed, errs.RecommendationFailed:
			status = http.StatusBadGateway
		case errs.Timeout:
			status = http.StatusGatewayTimeout
		case errs.MalformedAudit, errs.IncompleteReport, errs.Unknown:
			// 500 Internal Server Error
		}
		t.renderError(w, status, appErr.Message)
		return
	}

	t.renderError(w, http.StatusInternalServerError, "An unexpected error occurred.")
}

func (t *Transport) renderJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		t.logger.Error("failed to encode response", "error", err)
		http.Error(w, `{"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (t *Transport) renderError(w http.ResponseWriter, status int, message string) {
	t.renderJSON(w, status, model.ErrorResponse{
		Error:      http.StatusText(status),
		StatusCode: status,
		Message:    message,
	})
}

// Package api exposes the dataset registry and semantic query compiler over
// HTTP.
package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"semlake/internal/domain"
	"semlake/internal/service/semantic"
)

// maxBodyBytes caps request bodies; query and definition documents are
// small.
const maxBodyBytes = 1 << 20

// semanticService defines the operations the HTTP layer needs from the
// semantic service.
type semanticService interface {
	RegisterDataset(ctx context.Context, name string, definition []byte) (string, error)
	UnregisterDataset(ctx context.Context, name string) error
	GetDataset(ctx context.Context, name string) (*domain.DatasetRecord, error)
	ListDatasets(ctx context.Context) ([]domain.DatasetRecord, error)
	CompileQuery(raw []byte) (string, error)
	ExplainQuery(raw []byte) (*semantic.QueryPlan, error)
	RunQuery(ctx context.Context, raw []byte) (*semantic.QueryRunResult, error)
}

// Handler serves the REST API.
type Handler struct {
	svc    semanticService
	logger *slog.Logger
}

// NewHandler creates a Handler over a semantic service.
func NewHandler(svc semanticService, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes mounts the API endpoints on a chi router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/datasets", h.listDatasets)
		r.Put("/datasets/{name}", h.registerDataset)
		r.Get("/datasets/{name}", h.getDataset)
		r.Delete("/datasets/{name}", h.deleteDataset)

		r.Post("/query/compile", h.compileQuery)
		r.Post("/query/explain", h.explainQuery)
		r.Post("/query/run", h.runQuery)
	})
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type compileResponse struct {
	CompiledSQL string `json:"compiled_sql"`
}

type datasetResponse struct {
	Name       string          `json:"name"`
	Definition json.RawMessage `json:"definition"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}

func (h *Handler) registerDataset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	body, err := readBody(w, r)
	if err != nil {
		h.respondError(w, r, domain.ErrValidation("read request body: %v", err))
		return
	}

	msg, err := h.svc.RegisterDataset(r.Context(), name, body)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, messageResponse{Message: msg})
}

func (h *Handler) getDataset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	rec, err := h.svc.GetDataset(r.Context(), name)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, datasetToAPI(*rec))
}

func (h *Handler) listDatasets(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.ListDatasets(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	data := make([]datasetResponse, 0, len(records))
	for _, rec := range records {
		data = append(data, datasetToAPI(rec))
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"data": data})
}

func (h *Handler) deleteDataset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.svc.UnregisterDataset(r.Context(), name); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) compileQuery(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.respondError(w, r, domain.ErrValidation("read request body: %v", err))
		return
	}
	sql, err := h.svc.CompileQuery(body)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, compileResponse{CompiledSQL: sql})
}

func (h *Handler) explainQuery(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.respondError(w, r, domain.ErrValidation("read request body: %v", err))
		return
	}
	plan, err := h.svc.ExplainQuery(body)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, plan)
}

func (h *Handler) runQuery(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.respondError(w, r, domain.ErrValidation("read request body: %v", err))
		return
	}
	result, err := h.svc.RunQuery(r.Context(), body)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}

func datasetToAPI(rec domain.DatasetRecord) datasetResponse {
	return datasetResponse{
		Name:       rec.Name,
		Definition: json.RawMessage(rec.Definition),
		CreatedAt:  rec.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  rec.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	h.respondJSON(w, status, errorResponse{Code: status, Message: err.Error()})
}

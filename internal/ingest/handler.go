// Package ingest serves the dataset collection: upload, list and delete.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"sibyl/internal/dataset/model"
	"sibyl/internal/frame"
	"sibyl/internal/httputil"
	"sibyl/internal/logging"
	"sibyl/internal/registry"
)

const maxBodyBytes = 64 * 1024 * 1024

type request struct {
	Name    string          `json:"name"`
	Label   string          `json:"label"`
	Columns []string        `json:"columns"`
	Numeric []bool          `json:"numeric"`
	Rows    [][]frame.Value `json:"rows"`
}

func NewHandler(cfg *Config, manager registry.Manager) (http.Handler, error) {
	return &handler{
		cfg:     cfg,
		manager: manager,
	}, nil
}

type handler struct {
	manager registry.Manager
	cfg     *Config
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	switch r.Method {
	case http.MethodGet:
		h.list(ctx, w)
	case http.MethodPost:
		h.store(ctx, w, r)
	case http.MethodDelete:
		h.remove(ctx, w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
	}
}

func (h *handler) list(ctx context.Context, w http.ResponseWriter) {
	names, err := h.manager.Names(ctx)
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "listing datasets, %v"}`, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	bytes, err := json.Marshal(struct {
		Datasets []string `json:"datasets"`
	}{Datasets: names})
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "failed to encode output json %v"}`, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "%s", bytes)
}

func (h *handler) store(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(ctx)

	if t := r.Header.Get("content-type"); len(t) < 16 || t[:16] != "application/json" {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		logger.Debug(`{"error": "content-type is not application/json"}`)
		_, _ = fmt.Fprint(w, `{"error": "content-type is not application/json"}`)
		return
	}

	defer r.Body.Close()

	var req request
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	if err := d.Decode(&req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}

	dataset := model.NewDataset(req.Name, req.Label, req.Columns, req.Numeric, req.Rows)
	if err := h.manager.Store(ctx, dataset); err != nil {
		httputil.RespErr(ctx, w, err)
		return
	}

	logger.Infof("stored dataset %q", req.Name)
	w.WriteHeader(http.StatusCreated)
	_, _ = fmt.Fprintf(w, `{"id": %q, "name": %q, "rows": %d}`, dataset.ID, dataset.Name, dataset.Size())
}

func (h *handler) remove(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		httputil.RespBadRequest(ctx, w, `{"error": "name query parameter is required"}`)
		return
	}
	if err := h.manager.Delete(ctx, name); err != nil {
		httputil.RespErr(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"status": "ok"}`)
}

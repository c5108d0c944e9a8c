// Package classify serves label predictions for points against a stored
// dataset.
package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"sibyl/internal/classifier"
	"sibyl/internal/frame"
	"sibyl/internal/httputil"
	"sibyl/internal/logging"
	"sibyl/internal/registry"
)

const maxBodyBytes = 64 * 1024 * 1024

type request struct {
	Dataset   string          `json:"dataset"`
	Points    [][]frame.Value `json:"points"`
	Neighbors bool            `json:"neighbors"`
}

type result struct {
	Label     frame.Value           `json:"label"`
	Neighbors []classifier.Neighbor `json:"neighbors,omitempty"`
}

type response struct {
	Dataset string   `json:"dataset"`
	Results []result `json:"results"`
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
	var req request
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
		return
	}

	if t := r.Header.Get("content-type"); len(t) < 16 || t[:16] != "application/json" {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		logger.Debug(`{"error": "content-type is not application/json"}`)
		_, _ = fmt.Fprint(w, `{"error": "content-type is not application/json"}`)
		return
	}

	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	if err := d.Decode(&req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}

	if len(req.Points) == 0 {
		httputil.RespBadRequest(ctx, w, `{"error": "points must not be empty"}`)
		return
	}
	if len(req.Points) > h.cfg.MaxPointsLen {
		httputil.RespBadRequest(ctx, w, `{"error": "points is too large, max allowed len is %d"}`, h.cfg.MaxPointsLen)
		return
	}

	results := make([]result, len(req.Points))
	errGrp, grpCtx := errgroup.WithContext(ctx)
	for i, point := range req.Points {
		i, point := i, point
		errGrp.Go(func() error {
			label, err := h.manager.Classify(grpCtx, req.Dataset, point)
			if err != nil {
				return fmt.Errorf("classify point %d: %w", i, err)
			}
			results[i] = result{Label: label}
			if req.Neighbors {
				nn, err := h.manager.Neighbors(grpCtx, req.Dataset, point)
				if err != nil {
					return fmt.Errorf("neighbors for point %d: %w", i, err)
				}
				results[i].Neighbors = nn
			}
			return nil
		})
	}
	if err := errGrp.Wait(); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			httputil.RespNotFound(ctx, w, `{"error": %q}`, err.Error())
			return
		}
		httputil.RespErr(ctx, w, err)
		return
	}

	bytes, err := json.Marshal(response{Dataset: req.Dataset, Results: results})
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "failed to encode output json %v"}`, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "%s", bytes)
}

// Package evaluate serves hold-out evaluation runs over a stored dataset.
package evaluate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"sibyl/internal/classifier"
	"sibyl/internal/frame"
	"sibyl/internal/httputil"
	"sibyl/internal/logging"
	"sibyl/internal/registry"
)

const maxBodyBytes = 1 * 1024 * 1024

type request struct {
	Dataset string          `json:"dataset"`
	Ratio   float64         `json:"ratio"`
	Rows    [][]frame.Value `json:"rows"`
}

type response struct {
	Dataset        string                     `json:"dataset"`
	Matrix         classifier.ConfusionMatrix `json:"matrix"`
	Total          int                        `json:"total"`
	TruePositives  int                        `json:"truePositives"`
	FalsePositives int                        `json:"falsePositives"`
	FalseNegatives int                        `json:"falseNegatives"`
	MicroPrecision int                        `json:"microPrecision"`
	MicroRecall    int                        `json:"microRecall"`
	MicroAccuracy  int                        `json:"microAccuracy"`
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

	var (
		eval *classifier.Evaluation
		err  error
	)
	// Caller-supplied rows are the test set; without them the stored rows
	// are split by ratio.
	if len(req.Rows) > 0 {
		eval, err = h.manager.EvaluateOn(ctx, req.Dataset, req.Rows)
	} else {
		eval, err = h.manager.Evaluate(ctx, req.Dataset, req.Ratio)
	}
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			httputil.RespNotFound(ctx, w, `{"error": %q}`, err.Error())
			return
		}
		httputil.RespErr(ctx, w, err)
		return
	}

	bytes, err := json.Marshal(response{
		Dataset:        req.Dataset,
		Matrix:         eval.Matrix,
		Total:          eval.Total,
		TruePositives:  eval.TruePositives,
		FalsePositives: eval.FalsePositives,
		FalseNegatives: eval.FalseNegatives,
		MicroPrecision: eval.MicroPrecision(),
		MicroRecall:    eval.MicroRecall(),
		MicroAccuracy:  eval.MicroAccuracy(),
	})
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "failed to encode output json %v"}`, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "%s", bytes)
}

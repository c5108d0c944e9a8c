package evaluate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sibyl/internal/classifier"
	"sibyl/internal/dataset/model"
	"sibyl/internal/frame"
	"sibyl/internal/registry"
)

type fakeManager struct {
	eval      *classifier.Evaluation
	err       error
	gotRatio  float64
	gotRows   int
	onCalled  bool
	runCalled bool
}

func (f *fakeManager) Classify(context.Context, string, []frame.Value) (frame.Value, error) {
	return frame.Value{}, f.err
}

func (f *fakeManager) Neighbors(context.Context, string, []frame.Value) ([]classifier.Neighbor, error) {
	return nil, f.err
}

func (f *fakeManager) Evaluate(_ context.Context, _ string, ratio float64) (*classifier.Evaluation, error) {
	f.runCalled = true
	f.gotRatio = ratio
	return f.eval, f.err
}

func (f *fakeManager) EvaluateOn(_ context.Context, _ string, rows [][]frame.Value) (*classifier.Evaluation, error) {
	f.onCalled = true
	f.gotRows = len(rows)
	return f.eval, f.err
}

func (f *fakeManager) Store(context.Context, model.Dataset) error { return f.err }
func (f *fakeManager) Delete(context.Context, string) error       { return f.err }
func (f *fakeManager) Names(context.Context) ([]string, error)    { return nil, f.err }

func perfectEvaluation() *classifier.Evaluation {
	cm := classifier.ConfusionMatrix{}
	cm.Add(frame.Text("A"), frame.Text("A"))
	cm.Add(frame.Text("B"), frame.Text("B"))
	return classifier.Summarize(cm)
}

func newTestHandler(t *testing.T, m *fakeManager) http.Handler {
	t.Helper()
	h, err := NewHandler(&Config{RequestTimeout: 5 * time.Second}, m)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	return h
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/evaluate", strings.NewReader(body))
	req.Header.Set("content-type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandlerSplitEvaluation(t *testing.T) {
	m := &fakeManager{eval: perfectEvaluation()}
	h := newTestHandler(t, m)

	w := post(t, h, `{"dataset": "iris", "ratio": 0.7}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status, got %d, expected 200: %s", w.Code, w.Body.String())
	}
	if !m.runCalled || m.onCalled {
		t.Errorf("split evaluation must use Evaluate, got run=%v on=%v", m.runCalled, m.onCalled)
	}
	if m.gotRatio != 0.7 {
		t.Errorf("ratio, got %v, expected 0.7", m.gotRatio)
	}

	var resp struct {
		MicroPrecision int `json:"microPrecision"`
		MicroRecall    int `json:"microRecall"`
		Total          int `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.MicroPrecision != 100 || resp.MicroRecall != 100 || resp.Total != 2 {
		t.Errorf("response, got %+v, expected 100/100 over 2", resp)
	}
}

func TestHandlerExplicitRows(t *testing.T) {
	m := &fakeManager{eval: perfectEvaluation()}
	h := newTestHandler(t, m)

	w := post(t, h, `{"dataset": "iris", "rows": [[1, "A"], [2, "B"]]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status, got %d, expected 200: %s", w.Code, w.Body.String())
	}
	if !m.onCalled || m.runCalled {
		t.Errorf("explicit rows must use EvaluateOn, got run=%v on=%v", m.runCalled, m.onCalled)
	}
	if m.gotRows != 2 {
		t.Errorf("rows, got %d, expected 2", m.gotRows)
	}
}

func TestHandlerUnknownDataset(t *testing.T) {
	m := &fakeManager{err: fmt.Errorf("dataset %q: %w", "iris", registry.ErrNotFound)}
	h := newTestHandler(t, m)

	w := post(t, h, `{"dataset": "iris"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status, got %d, expected 404: %s", w.Code, w.Body.String())
	}
}

func TestHandlerBadRatio(t *testing.T) {
	m := &fakeManager{err: frame.BoundsErrf("split ratio %v outside [0, 1]", 1.5)}
	h := newTestHandler(t, m)

	w := post(t, h, `{"dataset": "iris", "ratio": 1.5}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status, got %d, expected 400: %s", w.Code, w.Body.String())
	}
}

func TestHandlerWrongMethod(t *testing.T) {
	h := newTestHandler(t, &fakeManager{})

	req := httptest.NewRequest(http.MethodGet, "/evaluate", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status, got %d, expected 405", w.Code)
	}
}

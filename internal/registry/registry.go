// Package registry manages named datasets and the classifier models built
// over them. Models are built lazily on first use and rebuilt when their
// dataset is replaced.
package registry

import (
	"context"
	"fmt"
	"sync"

	"sibyl/internal/cache"
	"sibyl/internal/classifier"
	"sibyl/internal/classifier/knn"
	"sibyl/internal/dataset/database"
	"sibyl/internal/dataset/model"
	"sibyl/internal/frame"
	"sibyl/internal/logging"
	"sibyl/internal/measure"
	"sibyl/internal/telemetry"
	"sibyl/internal/util"
)

// ErrNotFound marks lookups of dataset names nothing is stored under.
var ErrNotFound = frame.SchemaErrf("dataset not found")

type Config struct {
	K          int     `envconfig:"SIBYL_KNN_K" default:"3"`
	Distance   string  `envconfig:"SIBYL_KNN_DISTANCE" default:"MIXED_EUCLIDEAN"`
	SplitRatio float64 `envconfig:"SIBYL_EVAL_SPLIT_RATIO" default:"0.8"`
}

// Manager is the service-facing surface over stored datasets.
type Manager interface {
	Classify(ctx context.Context, dataset string, point []frame.Value) (frame.Value, error)
	Neighbors(ctx context.Context, dataset string, point []frame.Value) ([]classifier.Neighbor, error)
	Evaluate(ctx context.Context, dataset string, ratio float64) (*classifier.Evaluation, error)
	EvaluateOn(ctx context.Context, dataset string, rows [][]frame.Value) (*classifier.Evaluation, error)
	Store(ctx context.Context, dataset model.Dataset) error
	Delete(ctx context.Context, dataset string) error
	Names(ctx context.Context) ([]string, error)
}

type ProvideFn func() (Manager, error)

type Option func(*manager)

func WithK(k int) Option {
	return func(m *manager) {
		m.k = k
	}
}

func WithDistance(t measure.Type) Option {
	return func(m *manager) {
		m.distance = t
	}
}

func WithCache(c *cache.Cache) Option {
	return func(m *manager) {
		m.cache = c
	}
}

func WithSplitRatio(ratio float64) Option {
	return func(m *manager) {
		m.splitRatio = ratio
	}
}

type manager struct {
	db         *database.DB
	cache      *cache.Cache
	k          int
	distance   measure.Type
	splitRatio float64

	mtx    sync.RWMutex
	models map[string]*knn.Model
}

func New(db *database.DB, opts ...Option) (Manager, error) {
	m := &manager{
		db:         db,
		k:          3,
		distance:   measure.TypeMixedEuclidean,
		splitRatio: 0.8,
		models:     map[string]*knn.Model{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.k < 1 {
		return nil, frame.BoundsErrf("k must be positive, got %d", m.k)
	}
	if _, err := measure.For(m.distance); err != nil {
		return nil, fmt.Errorf("registry distance: %w", err)
	}
	return m, nil
}

func (m *manager) Classify(ctx context.Context, dataset string, point []frame.Value) (frame.Value, error) {
	key := util.HashKey(dataset, point)
	if label, ok := m.cache.Get(ctx, key); ok {
		telemetry.RecordCacheHit(ctx, dataset)
		mdl, err := m.model(ctx, dataset)
		if err != nil {
			return frame.Value{}, err
		}
		return labelValue(mdl.Ref(), label), nil
	}

	mdl, err := m.model(ctx, dataset)
	if err != nil {
		return frame.Value{}, err
	}
	predicted, err := mdl.Predict(point)
	if err != nil {
		return frame.Value{}, err
	}

	m.cache.Set(ctx, key, predicted.String())
	telemetry.RecordClassification(ctx, dataset)
	return predicted, nil
}

func (m *manager) Neighbors(ctx context.Context, dataset string, point []frame.Value) ([]classifier.Neighbor, error) {
	mdl, err := m.model(ctx, dataset)
	if err != nil {
		return nil, err
	}
	return mdl.FirstKNN(point)
}

// Evaluate splits the raw dataset, trains on the first part and scores the
// rest. The cached model is not touched, evaluation always re-reads the
// stored rows.
func (m *manager) Evaluate(ctx context.Context, dataset string, ratio float64) (*classifier.Evaluation, error) {
	if ratio == 0 {
		ratio = m.splitRatio
	}
	stored, ok, err := m.db.FindByName(ctx, dataset)
	if err != nil {
		return nil, fmt.Errorf("loading dataset %q: %w", dataset, err)
	}
	if !ok {
		return nil, fmt.Errorf("dataset %q: %w", dataset, ErrNotFound)
	}
	full, err := stored.Frame()
	if err != nil {
		return nil, fmt.Errorf("rebuilding dataset %q: %w", dataset, err)
	}

	train, test, err := full.Split(ratio)
	if err != nil {
		return nil, err
	}
	mdl, err := m.build(train)
	if err != nil {
		return nil, err
	}
	eval, err := mdl.Evaluate(test)
	if err != nil {
		return nil, err
	}

	telemetry.RecordEvaluation(ctx, dataset)
	return eval, nil
}

// EvaluateOn scores the model built over the full stored dataset against
// caller-supplied full-layout test rows.
func (m *manager) EvaluateOn(ctx context.Context, dataset string, rows [][]frame.Value) (*classifier.Evaluation, error) {
	if len(rows) == 0 {
		return nil, frame.BoundsErrf("test rows must not be empty")
	}
	mdl, err := m.model(ctx, dataset)
	if err != nil {
		return nil, err
	}

	ref := mdl.Ref()
	numeric := make([]bool, len(ref.Columns()))
	for i := range numeric {
		numeric[i] = ref.NumericCol(i)
	}
	test, err := frame.New(ref.Columns(), numeric)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := test.Append(row); err != nil {
			return nil, err
		}
	}
	if err := test.SetLabel(ref.Label()); err != nil {
		return nil, err
	}

	eval, err := mdl.Evaluate(test)
	if err != nil {
		return nil, err
	}

	telemetry.RecordEvaluation(ctx, dataset)
	return eval, nil
}

func (m *manager) Store(ctx context.Context, dataset model.Dataset) error {
	if dataset.Name == "" {
		return frame.SchemaErrf("dataset name must not be empty")
	}
	// Reject datasets whose rows cannot be rebuilt before persisting them.
	f, err := dataset.Frame()
	if err != nil {
		return fmt.Errorf("dataset %q does not rebuild: %w", dataset.Name, err)
	}
	if f.Label() == "" {
		return frame.SchemaErrf("dataset %q has no label column", dataset.Name)
	}

	if err := m.db.Store(ctx, dataset); err != nil {
		return err
	}

	m.mtx.Lock()
	delete(m.models, dataset.Name)
	m.mtx.Unlock()

	telemetry.RecordDatasetStore(ctx)
	logging.FromContext(ctx).Infof("stored dataset %q with %d rows", dataset.Name, dataset.Size())
	return nil
}

func (m *manager) Delete(ctx context.Context, dataset string) error {
	if err := m.db.Delete(ctx, dataset); err != nil {
		return err
	}
	m.mtx.Lock()
	delete(m.models, dataset)
	m.mtx.Unlock()
	return nil
}

func (m *manager) Names(_ context.Context) ([]string, error) {
	return m.db.Names()
}

// model returns the cached classifier for a dataset, building it on demand.
func (m *manager) model(ctx context.Context, dataset string) (*knn.Model, error) {
	m.mtx.RLock()
	mdl, ok := m.models[dataset]
	m.mtx.RUnlock()
	if ok {
		return mdl, nil
	}

	stored, ok, err := m.db.FindByName(ctx, dataset)
	if err != nil {
		return nil, fmt.Errorf("loading dataset %q: %w", dataset, err)
	}
	if !ok {
		return nil, fmt.Errorf("dataset %q: %w", dataset, ErrNotFound)
	}
	f, err := stored.Frame()
	if err != nil {
		return nil, fmt.Errorf("rebuilding dataset %q: %w", dataset, err)
	}
	mdl, err = m.build(f)
	if err != nil {
		return nil, err
	}

	m.mtx.Lock()
	m.models[dataset] = mdl
	m.mtx.Unlock()
	return mdl, nil
}

// build creates a model over the frame, clamping k to the row count so a
// small dataset stays usable.
func (m *manager) build(f *frame.Frame) (*knn.Model, error) {
	if f == nil || f.Len() == 0 {
		return nil, frame.BoundsErrf("frame is empty")
	}
	k := m.k
	if k > f.Len() {
		k = f.Len()
	}
	ms, err := measure.For(m.distance)
	if err != nil {
		return nil, err
	}
	return knn.New(f, knn.WithK(k), knn.WithMeasure(ms))
}

// labelValue rebuilds a cached label string into a value of the label
// column's kind.
func labelValue(ref *frame.Frame, label string) frame.Value {
	if l := ref.LabelIndex(); l >= 0 && ref.NumericCol(l) {
		return frame.Parse(label)
	}
	return frame.Text(label)
}

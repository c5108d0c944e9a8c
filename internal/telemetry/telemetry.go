// Package telemetry counts classifier activity and exposes it to prometheus.
package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"contrib.go.opencensus.io/exporter/prometheus"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	KeyDataset = tag.MustNewKey("dataset")

	mClassifications = stats.Int64("sibyl/classifications", "points classified", stats.UnitDimensionless)
	mCacheHits       = stats.Int64("sibyl/cache_hits", "labels served from cache", stats.UnitDimensionless)
	mEvaluations     = stats.Int64("sibyl/evaluations", "evaluation runs", stats.UnitDimensionless)
	mDatasetStores   = stats.Int64("sibyl/dataset_stores", "datasets stored", stats.UnitDimensionless)
)

var views = []*view.View{
	{
		Name:        "sibyl/classifications",
		Description: "points classified, by dataset",
		Measure:     mClassifications,
		TagKeys:     []tag.Key{KeyDataset},
		Aggregation: view.Count(),
	},
	{
		Name:        "sibyl/cache_hits",
		Description: "labels served from cache, by dataset",
		Measure:     mCacheHits,
		TagKeys:     []tag.Key{KeyDataset},
		Aggregation: view.Count(),
	},
	{
		Name:        "sibyl/evaluations",
		Description: "evaluation runs, by dataset",
		Measure:     mEvaluations,
		TagKeys:     []tag.Key{KeyDataset},
		Aggregation: view.Count(),
	},
	{
		Name:        "sibyl/dataset_stores",
		Description: "datasets stored",
		Measure:     mDatasetStores,
		Aggregation: view.Count(),
	},
}

// NewExporter registers the views and returns a prometheus exporter that
// doubles as the /metrics handler.
func NewExporter() (http.Handler, error) {
	if err := view.Register(views...); err != nil {
		return nil, fmt.Errorf("registering views: %w", err)
	}
	exporter, err := prometheus.NewExporter(prometheus.Options{Namespace: "sibyl"})
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}
	view.RegisterExporter(exporter)
	return exporter, nil
}

func RecordClassification(ctx context.Context, dataset string) {
	record(ctx, dataset, mClassifications)
}

func RecordCacheHit(ctx context.Context, dataset string) {
	record(ctx, dataset, mCacheHits)
}

func RecordEvaluation(ctx context.Context, dataset string) {
	record(ctx, dataset, mEvaluations)
}

func RecordDatasetStore(ctx context.Context) {
	stats.Record(ctx, mDatasetStores.M(1))
}

func record(ctx context.Context, dataset string, m *stats.Int64Measure) {
	ctx, err := tag.New(ctx, tag.Upsert(KeyDataset, dataset))
	if err != nil {
		return
	}
	stats.Record(ctx, m.M(1))
}

package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"sibyl/internal/buildinfo"
	"sibyl/internal/classify"
	"sibyl/internal/evaluate"
	"sibyl/internal/ingest"
	"sibyl/internal/logging"
	"sibyl/internal/server"
	"sibyl/internal/setup"
	"sibyl/internal/shutdown"
	"sibyl/internal/sibyl"
	"sibyl/internal/telemetry"
)

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintf(
		os.Stdout,
		"%s: %s, %s\n",
		buildinfo.Info.Name(),
		buildinfo.Info.Time(),
		buildinfo.Info.Tag(),
	)

	ctx, done := shutdown.New()
	logger := logging.FromContext(ctx)
	if err := run(ctx); err != nil {
		logger.Fatal(err)
	}

	defer done()
}

func run(ctx context.Context) error {
	config := sibyl.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer env.Close(context.Background())

	manager, err := env.ProvideRegistry()()
	if err != nil {
		return fmt.Errorf("registry provider function error: %w", err)
	}

	srv, err := server.New(config.SrvAddr)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	mux := http.NewServeMux()

	classifyHandler, err := classify.NewHandler(&config.Classify, manager)
	if err != nil {
		return fmt.Errorf("classify.NewHandler: %w", err)
	}
	evaluateHandler, err := evaluate.NewHandler(&config.Evaluate, manager)
	if err != nil {
		return fmt.Errorf("evaluate.NewHandler: %w", err)
	}
	ingestHandler, err := ingest.NewHandler(&config.Ingest, manager)
	if err != nil {
		return fmt.Errorf("ingest.NewHandler: %w", err)
	}
	metricsHandler, err := telemetry.NewExporter()
	if err != nil {
		return fmt.Errorf("telemetry.NewExporter: %w", err)
	}

	mux.Handle("/classify", classifyHandler)
	mux.Handle("/evaluate", evaluateHandler)
	mux.Handle("/datasets", ingestHandler)
	mux.Handle("/metrics", metricsHandler)
	mux.Handle("/health", server.HandleHealth(ctx))

	go func() {
		if err := http.ListenAndServe("0.0.0.0:8080", nil); err != nil {
			logging.FromContext(ctx).Debugf("pprof listener: %v", err)
		}
	}()

	return srv.ServeHTTPHandler(ctx, mux)
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Lagunov2003/practice-registry/internal/activity"
	"github.com/Lagunov2003/practice-registry/internal/config"
	"github.com/Lagunov2003/practice-registry/internal/event"
	"github.com/Lagunov2003/practice-registry/internal/eventbus"
	"github.com/Lagunov2003/practice-registry/internal/logging"
	"github.com/Lagunov2003/practice-registry/internal/lookup"
	"github.com/Lagunov2003/practice-registry/internal/observability"
	"github.com/Lagunov2003/practice-registry/internal/practiceapi"
	"github.com/Lagunov2003/practice-registry/internal/server"
	"github.com/Lagunov2003/practice-registry/internal/session"
	"github.com/Lagunov2003/practice-registry/internal/workspace"
)

// activityCapacity bounds the in-memory mutation feed.
const activityCapacity = 10000

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer log.Sync()

	shutdownTracing, err := observability.InitTracing(observability.TracingOptions{
		Enabled:     cfg.Tracing.Enabled,
		Exporter:    cfg.Tracing.Exporter,
		ServiceName: cfg.Tracing.ServiceName,
	}, log)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.WithoutCancel(ctx))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	client := practiceapi.New(cfg.Backend.BaseURL,
		practiceapi.WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout}),
		practiceapi.WithLogger(log.Named("practiceapi")),
		practiceapi.WithMetrics(metrics),
	)

	cache, closeCache, err := lookup.NewCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer closeCache()
	lookups := lookup.NewService(client, cache, log.Named("lookup"), metrics)

	store := activity.NewMemoryStore(activityCapacity)
	bus := eventbus.New(256, log)
	recorder := event.NewActivityRecorder(store,
		event.WithPublisher(bus),
		event.WithRecorderLogger(log.Named("activity")),
	)

	sessions := session.NewManager(cfg.Session.MaxAge, cfg.Session.IdleTimeout,
		func(id string, onSuggest workspace.SuggestionFunc) *workspace.Workspace {
			return workspace.New(client, lookups,
				workspace.WithID(id),
				workspace.WithRecorder(recorder),
				workspace.WithLogger(log.Named("workspace").With(zap.String("session", id))),
				workspace.WithMetrics(metrics),
				workspace.WithSuggestDelay(cfg.Suggest.Delay),
				workspace.WithSuggestionFunc(onSuggest),
			)
		}, log.Named("session"), metrics)

	bus.Subscribe("log", eventbus.NewLogConsumer(log))
	bus.Subscribe("refresh", eventbus.NewRefreshConsumer(sessions))
	bus.Start(ctx)
	defer bus.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx, server.Config{
			Addr:     cfg.Server.Addr(),
			Backend:  client,
			Lookup:   lookups,
			Recorder: recorder,
			Activity: store,
			Sessions: sessions,
			Registry: registry,
			Metrics:  metrics,
			Log:      log,
		})
	})
	return g.Wait()
}

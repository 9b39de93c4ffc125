package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quakewatch/quakewatch/internal/adapter"
	"github.com/quakewatch/quakewatch/internal/api"
	"github.com/quakewatch/quakewatch/internal/config"
	"github.com/quakewatch/quakewatch/internal/domainmatch"
	"github.com/quakewatch/quakewatch/internal/fusion"
	"github.com/quakewatch/quakewatch/internal/geocode"
	"github.com/quakewatch/quakewatch/internal/hub"
	"github.com/quakewatch/quakewatch/internal/logging"
	"github.com/quakewatch/quakewatch/internal/models"
	"github.com/quakewatch/quakewatch/internal/monitor"
	"github.com/quakewatch/quakewatch/internal/parser"
	"github.com/quakewatch/quakewatch/internal/scoring"
	"github.com/quakewatch/quakewatch/internal/sink"
	"github.com/quakewatch/quakewatch/internal/slowdown"
	"github.com/quakewatch/quakewatch/internal/store/domains"
	"github.com/quakewatch/quakewatch/internal/store/heuristics"
	"github.com/quakewatch/quakewatch/internal/store/seen"
	"github.com/quakewatch/quakewatch/internal/store/thresholds"
	"github.com/quakewatch/quakewatch/internal/travel"
	"github.com/quakewatch/quakewatch/internal/worker"
)

// learningJob is the only Job worker.WorkerPool processes: a periodic tick
// asking the pipeline to persist its in-memory learning state.
type learningJob struct{}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("quakewatch starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	thresholdStore, err := thresholds.Open(cfg.Store.ThresholdsPath)
	if err != nil {
		logging.Fatalf("opening thresholds store: %v", err)
	}
	defer thresholdStore.Close()
	thresholdCache := thresholds.NewCache(thresholdStore, cfg.Tuning.DefaultSigmaMul)

	heuristicStore, err := heuristics.Open(cfg.Store.HeuristicsPath)
	if err != nil {
		logging.Fatalf("opening heuristics store: %v", err)
	}
	defer heuristicStore.Close()

	seenStore, err := seen.Open(cfg.Store.SeenRedisURL)
	if err != nil {
		logging.Fatalf("opening seen store: %v", err)
	}
	defer seenStore.Close()

	domainStore, err := domains.Open(ctx, cfg.Store.DomainsDSN)
	if err != nil {
		logging.Fatalf("opening domains store: %v", err)
	}
	defer domainStore.Close()

	scorer := scoring.NewSocialTextScorer(scoring.DefaultCatalog)
	learner := scoring.NewLearner()
	if err := learner.LoadFrom(heuristicStore); err != nil {
		slog.Warn("learner: failed to load feature stats, starting cold", "err", err)
	}

	travelOracle := travel.NewMemoized(travel.CrudeOracle{})
	travelFn := travel.Func(travelOracle)

	geo := geocode.Stub{}
	geocodeArea := func(area, country string) (models.Coords, bool) {
		return geo.City(area, country)
	}
	regionOf := func(c models.Coords) string { return geo.Region(c) }

	dispatcher := parser.NewDispatcher(
		parser.GeoJSONParser{},
		parser.P2PQuakeParser{},
		parser.AtomParser{},
		parser.QuakeMLParser{},
		parser.CSVParser{},
		parser.NewPatternParser(parser.DefaultPatternCatalog, geocodeArea, regionOf),
		parser.NewSocialParser(scorer, parser.NewJSONSocialExtractor(
			defaultRelevantKeywords, defaultKnownHandles, defaultSpamWords, "en",
		)),
	)

	slowdownFactor := slowdown.New()

	emissions := make(chan adapter.Emission, 256)
	notices := make(chan *models.Notice, 64)

	registry := adapter.NewRegistry()
	registry.Register(adapter.KindHTTP, adapter.NewHTTPFactory(slowdownFactor))
	registry.Register(adapter.KindWebSocket, adapter.NewWebSocketFactory())

	feedManager := adapter.NewFeedManager(emissions)
	for _, resource := range cfg.Sources.Resources {
		receiver, err := registry.Build(resource, nil, dispatcher)
		if err != nil {
			slog.Error("adapter: skipping unresolvable resource", "resource", resource, "err", err)
			continue
		}
		feedManager.Add(ctx, receiver)
	}
	go feedManager.Supervise(ctx)

	engine := fusion.New(seenStore, slowdownFactor, notices, fusion.Config{
		MagFloor: cfg.Tuning.MagFloor,
		Travel:   travelFn,
		Learner:  learner,
	})

	reports := make(chan models.Report, 256)
	go func() {
		for e := range emissions {
			reports <- e.Report
		}
	}()
	go engine.Run(ctx, reports)

	// Every fused notice fans out to both the WebSocket hub and the
	// dispatch monitor; notices can't be read twice off the same channel,
	// so one goroutine tees it into a second, monitor-only channel.
	noticeHub := hub.New()
	monitorNotices := make(chan *models.Notice, 64)
	go func() {
		for n := range notices {
			noticeHub.Publish(n)
			select {
			case monitorNotices <- n:
			case <-ctx.Done():
				return
			}
		}
	}()

	mon := monitor.New(engine, travelFn, domainmatch.Options{
		Thresholds: thresholdCache.Lookup,
	})
	mon.SetThresholdObserver(thresholdCache.Observe)
	mon.SetTsunamiLookup(geo.Sea)

	loadedDomains, err := domainStore.LoadAll(ctx)
	if err != nil {
		slog.Error("domains: failed to load subscriptions, starting with none", "err", err)
	}
	for _, d := range loadedDomains {
		mon.AddSubscriber(monitor.Subscriber{Domain: d, Sink: sink.NewDebug()})
	}
	go mon.Run(ctx, monitorNotices)

	pool := worker.NewWorkerPool(2, 16, func(ctx context.Context, job worker.Job) error {
		if _, ok := job.(learningJob); !ok {
			return nil
		}
		learner.Adjust(scorer, cfg.Tuning.LearningRate)
		if err := learner.SaveTo(heuristicStore); err != nil {
			return fmt.Errorf("persisting learner state: %w", err)
		}
		return thresholdCache.FlushAll(ctx)
	})
	pool.Start(ctx)
	defer pool.Stop()

	go func() {
		ticker := time.NewTicker(cfg.Tuning.LearningInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pool.Submit(learningJob{})
			}
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))
	router.Use(api.RateLimitMiddleware(5))

	handler := api.NewHandler(engine, engine, noticeHub)
	handler.RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	feedManager.StopAll()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if err := thresholdCache.FlushAll(shutdownCtx); err != nil {
		slog.Error("thresholds: final flush failed", "error", err)
	}
	if err := learner.SaveTo(heuristicStore); err != nil {
		slog.Error("heuristics: final save failed", "error", err)
	}

	slog.Info("shutdown complete")
}

// defaultRelevantKeywords/defaultKnownHandles/defaultSpamWords seed the
// social extractor's free-text scorer context until a deployment overrides
// them from its own subscriber/blacklist configuration.
var (
	defaultRelevantKeywords = []string{"earthquake", "temblor", "aftershock", "tsunami", "shaking"}
	defaultKnownHandles     = []string{"usgsbigquakes", "USGS", "P2PQuake"}
	defaultSpamWords        = []string{"giveaway", "follow me", "dm me", "crypto"}
)

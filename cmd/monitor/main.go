package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"raydium-swap-monitor/internal/aggregator"
	"raydium-swap-monitor/internal/config"
	"raydium-swap-monitor/internal/helius"
	"raydium-swap-monitor/internal/ingestion"
	"raydium-swap-monitor/internal/leaderboard"
	"raydium-swap-monitor/internal/logger"
	"raydium-swap-monitor/internal/mint"
	"raydium-swap-monitor/internal/observability"
	"raydium-swap-monitor/internal/parser"
	"raydium-swap-monitor/internal/sink"
	"raydium-swap-monitor/internal/solana"
	chstore "raydium-swap-monitor/internal/storage/clickhouse"
	"raydium-swap-monitor/internal/storage/migrations"
	pgstore "raydium-swap-monitor/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	log := logger.New()
	if err := log.Configure(cfg.LogLevel, cfg.LogFormat, cfg.LogOutput, cfg.LogMaxAgeDays); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	mainLog := log.WithComponent("monitor")

	// Start metrics server if enabled
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			mainLog.WithFields(logger.Fields{"addr": cfg.MetricsAddr}).Info("Starting metrics server")
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil && err != http.ErrServerClosed {
				mainLog.WithError(err).Error("Metrics server error")
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		mainLog.WithFields(logger.Fields{"signal": sig.String()}).Info("Received signal, initiating graceful shutdown")
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			mainLog.WithFields(logger.Fields{"signal": sig.String()}).Warn("Received second signal, forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			mainLog.Warn("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, cfg, log)

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		mainLog.WithError(err).Fatal("Monitor stopped")
	}

	mainLog.Info("Shutdown complete")
}

// run wires the pipeline and blocks until ctx is cancelled or a component fails.
func run(ctx context.Context, cfg *config.Config, log *logger.Log) error {
	formatter, err := leaderboard.NewCurrencyFormatter(cfg.Currency, cfg.Locale)
	if err != nil {
		return err
	}

	rpc := solana.NewHTTPClient(cfg.RPCEndpoint)
	slot, err := rpc.GetSlot(ctx)
	if err != nil {
		return fmt.Errorf("rpc connectivity check: %w", err)
	}
	log.WithComponent("monitor").WithFields(logger.Fields{"slot": slot}).Info("Connected to RPC")

	wsConfig := solana.DefaultWSConfig()
	wsConfig.Logger = log.WithComponent("ws")
	ws, err := solana.NewWSClient(ctx, cfg.WSEndpoint, &wsConfig)
	if err != nil {
		return fmt.Errorf("create websocket client: %w", err)
	}
	defer ws.Close()

	sinks, err := buildSinks(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer sinks.Close()

	archive, closeArchive, err := buildSwapArchive(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeArchive()

	queue := ingestion.NewSignatureQueue()
	agg := aggregator.New()

	delayQueue := ingestion.NewDelayQueue(ingestion.DelayQueueOptions{
		Target: queue,
		Logger: log.WithComponent("delay-queue"),
	})

	listener := ingestion.NewListener(ingestion.ListenerOptions{
		WS:         ws,
		Scheduler:  delayQueue,
		ProgramID:  cfg.ProgramID,
		Commitment: cfg.Commitment,
		Delay:      cfg.EnqueueDelay,
		Logger:     log.WithComponent("listener"),
	})

	batcher := ingestion.NewBatcher(ingestion.BatcherOptions{
		Queue:     queue,
		Enricher:  helius.NewClient(cfg.EnrichmentURL, cfg.HeliusAPIKey),
		Parser:    parser.New(parser.WithNativeSymbol(cfg.NativeSymbol)),
		Recorder:  agg,
		Archive:   archive,
		Interval:  cfg.BatchInterval,
		BatchSize: cfg.BatchSize,
		Logger:    log.WithComponent("batcher"),
	})

	reporter := leaderboard.NewReporter(leaderboard.ReporterOptions{
		Store:     agg,
		Fetcher:   mint.NewFetcher(rpc, log.WithComponent("mint")),
		Emitter:   sinks,
		Formatter: formatter,
		Interval:  cfg.ReportInterval,
		Window:    cfg.Window,
		TopN:      cfg.TopN,
		FiatRate:  cfg.FiatRate,
		FetchRPS:  cfg.MintFetchRPS,
		Logger:    log.WithComponent("reporter"),
	})

	log.WithComponent("monitor").WithFields(logger.Fields{
		"program": cfg.ProgramID,
		"window":  cfg.Window.String(),
		"sinks":   sinks.Len(),
		"archive": archive != nil,
	}).Info("Starting monitor")

	return runAll(ctx, delayQueue.Run, listener.Run, batcher.Run, reporter.Run)
}

// buildSinks assembles the console sink plus the optional archive and Kafka sinks.
func buildSinks(ctx context.Context, cfg *config.Config, log *logger.Log) (*sink.Multi, error) {
	sinks := sink.NewMulti(sink.NewConsoleSink(os.Stdout, cfg.NativeSymbol, log.WithComponent("console-sink")))

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		sinks.Add(&pooledSink{Sink: sink.NewArchiveSink(pgstore.NewReportStore(pool), "postgres"), pool: pool})
	}

	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := sink.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			sinks.Close()
			return nil, err
		}
		sinks.Add(kafka)
	}

	return sinks, nil
}

// buildSwapArchive connects the optional ClickHouse swap archive. The
// returned archive is nil when no DSN is configured.
func buildSwapArchive(ctx context.Context, cfg *config.Config) (ingestion.SwapArchive, func(), error) {
	if cfg.ClickhouseDSN == "" {
		return nil, func() {}, nil
	}
	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("prepare clickhouse archive: %w", err)
	}
	return chstore.NewSwapStore(conn), func() { conn.Close() }, nil
}

// pooledSink closes the Postgres pool together with its sink.
type pooledSink struct {
	sink.Sink
	pool *pgstore.Pool
}

func (p *pooledSink) Close() error {
	p.pool.Close()
	return nil
}

// runAll runs every loop until ctx is cancelled or one of them fails; the
// first failure cancels the rest.
func runAll(ctx context.Context, loops ...func(context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, loop := range loops {
		g.Go(func() error {
			return loop(ctx)
		})
	}
	return g.Wait()
}

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"scoby_collective/internal/config"
	"scoby_collective/internal/engine"
	journalsqlite "scoby_collective/internal/journal/sqlite"
	"scoby_collective/internal/logx"
	"scoby_collective/internal/messaging/inproc"
	"scoby_collective/internal/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to config.toml (default: ~/.scoby/config.toml)")
	addrFlag := flag.String("addr", "", "http listen address override")
	dbPathFlag := flag.String("db", "", "sqlite journal path override")
	logLevel := flag.String("log-level", "", "log level override")
	demo := flag.Bool("demo", false, "run a simulated worker fleet")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logx.Log.Fatal().Err(err).Msg("load config")
	}
	logx.Configure(firstNonEmpty(*logLevel, cfg.Runtime.LogLevel, "info"))

	addr := firstNonEmpty(*addrFlag, cfg.Runtime.Addr, ":8092")
	dbPath := filepath.Clean(firstNonEmpty(*dbPathFlag, cfg.Runtime.DBPath, "data/scoby.db"))

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		logx.Log.Fatal().Err(err).Msg("create db directory")
	}

	journal, err := journalsqlite.Open(dbPath)
	if err != nil {
		logx.Log.Fatal().Err(err).Msg("open journal")
	}
	defer func() {
		_ = journal.Close()
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := journal.Migrate(ctx); err != nil {
		logx.Log.Fatal().Err(err).Msg("migrate journal")
	}

	bus := inproc.New(256)
	eng, err := engine.New(engine.Config{
		QualityTarget: cfg.Engine.QualityTarget,
		ModeARatio:    cfg.Engine.ModeARatio,
		ModeBRatio:    cfg.Engine.ModeBRatio,
	}, bus, logx.Log)
	if err != nil {
		logx.Log.Fatal().Err(err).Msg("construct engine")
	}

	// Drain engine events into the journal.
	events := bus.Subscribe("journal")
	go func() {
		for ev := range events {
			if err := journal.AppendEvent(ctx, ev); err != nil {
				logx.Log.Warn().Err(err).Msg("journal append")
			}
		}
	}()

	promReg := metrics.NewRegistry()

	host := &host{
		cfg:     cfg,
		engine:  eng,
		journal: journal,
	}
	if *demo {
		go host.runDemoFleet(ctx)
	}
	go host.runCadence(ctx)

	server := &http.Server{
		Addr:              addr,
		Handler:           newRouter(host, promReg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		bus.Unsubscribe("journal")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logx.Log.Info().Str("addr", addr).Str("db", dbPath).Bool("demo", *demo).Msg("scoby_collective started")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logx.Log.Fatal().Err(err).Msg("http server failed")
	}
}

// runCadence drives the periodic maintenance the engine never schedules for
// itself: mode rebalancing, credit redistribution, and metrics snapshots.
func (h *host) runCadence(ctx context.Context) {
	rebalance := time.NewTicker(durationMS(h.cfg.Runtime.RebalanceIntervalMS, 5*time.Second))
	redistribute := time.NewTicker(durationMS(h.cfg.Runtime.RedistributeIntervalMS, 10*time.Second))
	snapshot := time.NewTicker(durationMS(h.cfg.Runtime.SnapshotIntervalMS, 2*time.Second))
	defer rebalance.Stop()
	defer redistribute.Stop()
	defer snapshot.Stop()

	pool := h.cfg.Runtime.CreditPool
	if pool <= 0 {
		pool = 1000.0
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-rebalance.C:
			h.engine.Rebalance()
		case <-redistribute.C:
			h.engine.Redistribute(pool)
		case <-snapshot.C:
			m := h.engine.Metrics()
			metrics.Update(m)
			if err := h.journal.RecordSnapshot(ctx, m); err != nil {
				logx.Log.Warn().Err(err).Msg("record snapshot")
			}
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func durationMS(v int, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return time.Duration(v) * time.Millisecond
}

func intOrDefault(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

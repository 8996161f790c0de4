package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/quartz"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/voicewatch/internal/adapters/http"
	"github.com/dkeye/voicewatch/internal/adapters/source"
	"github.com/dkeye/voicewatch/internal/adapters/ws"
	"github.com/dkeye/voicewatch/internal/app"
	"github.com/dkeye/voicewatch/internal/app/activity"
	"github.com/dkeye/voicewatch/internal/app/health"
	"github.com/dkeye/voicewatch/internal/app/stats"
	"github.com/dkeye/voicewatch/internal/app/watch"
	"github.com/dkeye/voicewatch/internal/config"
	"github.com/dkeye/voicewatch/internal/core"
	"github.com/dkeye/voicewatch/internal/domain"
	"github.com/dkeye/voicewatch/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the watcher with its HTTP and WebSocket surfaces",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error().Err(err).Str("module", "main").Msg("close store")
		}
	}()

	clock := quartz.NewReal()
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := health.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	monitor := health.NewMonitor(clock, cfg.HeartbeatTimeout, metrics)

	tracker := stats.NewTracker(st, clock)
	if _, err := tracker.Recover(ctx); err != nil {
		// partially recovered state is still usable
		log.Error().Err(err).Str("module", "main").Msg("session recovery")
		monitor.StorageFailed(err)
	}
	monitor.ActiveSessions(tracker.ActiveCount())

	var (
		src  core.SnapshotSource
		push *source.Push
	)
	switch cfg.Source {
	case config.SourcePush:
		push = source.NewPush(clock, cfg.HeartbeatTimeout)
		src = push
	default:
		src = source.NewDemo(cfg.DemoSeed)
	}

	rooms := make([]domain.RoomName, 0, len(cfg.Rooms))
	for _, r := range cfg.Rooms {
		rooms = append(rooms, domain.RoomName(r))
	}

	alog := activity.NewLog(cfg.LogCapacity)
	watcher := &watch.Watcher{
		Source:   src,
		Log:      alog,
		Tracker:  tracker,
		Health:   monitor,
		Clock:    clock,
		Rooms:    rooms,
		Interval: cfg.PollInterval,
	}
	hub := &ws.Hub{
		Registry:       app.NewRegistry(),
		Policy:         app.PolicyByName(cfg.WSBackpressure),
		Log:            alog,
		Tracker:        tracker,
		Health:         monitor,
		Limiter:        ws.NewRateLimiter(clock, cfg.WSRateLimit, cfg.WSRateInterval),
		Clock:          clock,
		Snapshot:       watcher.Current,
		SendBuffer:     cfg.WSSendBuffer,
		RecentDefault:  cfg.RecentLogsDefault,
		TopLimit:       cfg.TopUsersLimit,
		StatsInterval:  cfg.StatsPushInterval,
		HealthInterval: cfg.PollInterval,
	}
	watcher.Publisher = hub

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Log:      alog,
		Tracker:  tracker,
		Health:   monitor,
		Hub:      hub,
		Push:     push,
		Snapshot: watcher.Current,
		Gatherer: reg,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return watcher.Run(gctx) })
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error {
		log.Info().Str("addr", addr).Str("source", cfg.Source).Msg("voicewatch server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		return nil
	})

	err = g.Wait()
	log.Info().Msg("Server exited gracefully")
	return err
}

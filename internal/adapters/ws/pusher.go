package ws

import (
	"context"
	"errors"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicewatch/internal/app/report"
	"github.com/dkeye/voicewatch/internal/app/stats"
)

func (h *Hub) PushStats(ctx context.Context) {
	up, err := report.Stats(ctx, h.Tracker, stats.WindowToday, h.TopLimit)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("stats push")
		return
	}
	h.Broadcast(TypeStatsUpdate, up)
}

func (h *Hub) PushHealth() {
	if h.Health == nil {
		return
	}
	h.Broadcast(TypeHealthStatus, h.Health.Status())
}

// Run pushes stats and health on their intervals until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	clock := h.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	statsEvery, healthEvery := h.StatsInterval, h.HealthInterval
	if statsEvery <= 0 {
		statsEvery = 30 * time.Second
	}
	if healthEvery <= 0 {
		healthEvery = 10 * time.Second
	}

	statsTkr := clock.TickerFunc(ctx, statsEvery, func() error {
		h.PushStats(ctx)
		return nil
	}, "ws", "stats")
	healthTkr := clock.TickerFunc(ctx, healthEvery, func() error {
		h.PushHealth()
		return nil
	}, "ws", "health")

	<-ctx.Done()
	err := errors.Join(statsTkr.Wait(), healthTkr.Wait())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

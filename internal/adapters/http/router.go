package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicewatch/internal/adapters/source"
	"github.com/dkeye/voicewatch/internal/adapters/ws"
	"github.com/dkeye/voicewatch/internal/app/activity"
	"github.com/dkeye/voicewatch/internal/app/health"
	"github.com/dkeye/voicewatch/internal/app/stats"
	"github.com/dkeye/voicewatch/internal/config"
	"github.com/dkeye/voicewatch/internal/domain"
)

const clientTokenKey = "ct"

// Deps are the services the routes read from. Push is nil unless the
// push source is configured.
type Deps struct {
	Log      *activity.Log
	Tracker  *stats.Tracker
	Health   *health.Monitor
	Hub      *ws.Hub
	Push     *source.Push
	Snapshot func() domain.Snapshot
	Gatherer prometheus.Gatherer
}

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware keeps a per-browser token in the cookie session.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessions.Default(c)
		token, _ := s.Get(clientTokenKey).(string)
		if token == "" {
			token = genClientToken()
			s.Set(clientTokenKey, token)
			if err := s.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save session")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func requestCounter(m *health.Monitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.Request()
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions("VoiceWatchSessions", store))
	r.Use(ClientTokenMiddleware())
	if d.Health != nil {
		r.Use(requestCounter(d.Health))
	}

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	h := &handlers{Deps: d, cfg: cfg}

	r.GET("/health", h.health)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")

	bot := api.Group("/bot")
	bot.GET("", h.voiceData)
	bot.GET("/channels", h.channels)
	bot.GET("/members", h.members)
	bot.GET("/member/:name", h.member)
	bot.GET("/stats", h.voiceStats)

	api.GET("/status", h.status)
	api.GET("/logs", h.logs)
	api.DELETE("/logs", h.clearLogs)

	st := api.Group("/stats")
	st.GET("", h.stats)
	st.GET("/top", h.topUsers)
	st.GET("/records", h.records)
	st.GET("/sessions", h.sessions)
	st.POST("/records/:scope/reset", h.resetRecord)

	api.POST("/snapshot", h.pushSnapshot)

	if d.Hub != nil {
		api.GET("/ws", func(c *gin.Context) {
			log.Debug().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws endpoint hit")
			d.Hub.HandleWS(ctx, c)
		})
	}

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}

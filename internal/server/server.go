package server

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"psykos/internal/config"
	"psykos/internal/game"
)

type Server struct {
	registry *game.Registry
	ws       *wsHub
	cfg      config.Config
	log      zerolog.Logger
	limiter  *ipLimiter
	upgrader websocket.Upgrader
}

// New builds a server whose rooms persist in store. content may be nil, in
// which case every round uses fallback prompts.
func New(store game.Store, content game.ContentProvider, cfg config.Config, logger zerolog.Logger) *Server {
	hub := newWSHub(logger)
	s := &Server{
		ws:      hub,
		cfg:     cfg,
		log:     logger,
		limiter: newIPLimiter(cfg.HTTPRequestsPerMinute),
	}
	s.registry = game.NewRegistry(game.Deps{
		Store:   store,
		Content: content,
		Out:     hub,
		Logger:  &s.log,
	}, cfg.MaxRounds)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.originAllowed,
	}
	registerValidators()
	return s
}

func (s *Server) Handler() http.Handler {
	if s.log.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.Use(cors.New(s.corsConfig()))

	r.GET("/", s.handleHome)
	r.GET("/health", s.handleHealth)
	r.POST("/create-game", s.rateLimited("create"), s.handleCreateGame)
	r.POST("/join-game", s.rateLimited("join"), s.handleJoinGame)
	r.GET("/api/games/:code/qr", s.handleQRCode)
	r.GET("/admin/rooms", s.handleAdminRooms)
	r.GET("/ws", s.handleWebsocket)
	return r
}

// Registry exposes the room registry, mainly for tests and the admin page.
func (s *Server) Registry() *game.Registry {
	return s.registry
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(s.cfg.AllowedOrigins) == 0 {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = s.cfg.AllowedOrigins
	}
	return cfg
}

func (s *Server) originAllowed(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(s.cfg.AllowedOrigins, origin)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("http request")
	}
}

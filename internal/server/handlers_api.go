package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"

	"psykos/internal/game"
	"psykos/internal/web"
)

type createGameRequest struct {
	PlayerName string `json:"playerName" binding:"required,name"`
	Category   string `json:"category" binding:"required,category"`
	Rounds     *int   `json:"rounds" binding:"omitempty"`
	AvatarURL  string `json:"avatarUrl" binding:"omitempty,max=2048"`
}

type joinGameRequest struct {
	Code       string `json:"code" binding:"required,roomcode"`
	PlayerName string `json:"playerName" binding:"required,name"`
	AvatarURL  string `json:"avatarUrl" binding:"omitempty,max=2048"`
}

var (
	createMessages = fieldMessages{
		"PlayerName.required": "Name is required",
		"PlayerName.name":     "Name must be 1-20 printable characters",
		"Category.required":   "Category is required",
		"Category.category":   "Unknown category",
	}
	joinMessages = fieldMessages{
		"Code.required":       "Room code is required",
		"Code.roomcode":       "Invalid room code",
		"PlayerName.required": "Name is required",
		"PlayerName.name":     "Name must be 1-20 printable characters",
	}
)

func (s *Server) handleHome(c *gin.Context) {
	categories := game.Categories()
	names := make([]string, len(categories))
	for i, category := range categories {
		names[i] = string(category)
	}
	templ.Handler(web.Home(names)).ServeHTTP(c.Writer, c.Request)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "ts": time.Now().UnixMilli()})
}

func (s *Server) handleCreateGame(c *gin.Context) {
	var req createGameRequest
	if !bindJSON(c, &req, createMessages, "Invalid room settings") {
		return
	}
	rounds := s.cfg.DefaultRounds
	if req.Rounds != nil {
		rounds = *req.Rounds
		if rounds < game.MinRounds || rounds > s.cfg.MaxRounds {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Rounds out of range"})
			return
		}
	}
	category, _ := game.ParseCategory(req.Category)
	session, host, err := s.registry.Create(c.Request.Context(), game.CreateParams{
		HostName:  req.PlayerName,
		AvatarURL: req.AvatarURL,
		Category:  category,
		Rounds:    rounds,
	})
	if err != nil {
		s.writeGameError(c, err, "Failed to create game")
		return
	}
	s.log.Info().Str("code", session.Code()).Str("category", string(category)).Int("rounds", rounds).Msg("game created")
	c.JSON(http.StatusCreated, gin.H{
		"gameCode": session.Code(),
		"playerId": host.ID,
		"category": category,
	})
}

func (s *Server) handleJoinGame(c *gin.Context) {
	var req joinGameRequest
	if !bindJSON(c, &req, joinMessages, "Invalid join request") {
		return
	}
	ctx := c.Request.Context()
	session, err := s.registry.Lookup(ctx, req.Code)
	if err != nil {
		s.writeGameError(c, err, "Failed to join game")
		return
	}
	player, err := session.AddPlayer(ctx, req.PlayerName, req.AvatarURL)
	if err != nil {
		s.writeGameError(c, err, "Failed to join game")
		return
	}
	summary, err := session.Summary(ctx)
	if err != nil {
		s.writeGameError(c, err, "Failed to join game")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"playerId":       player.ID,
		"category":       summary.Category,
		"rounds":         summary.Rounds,
		"gameInProgress": summary.State != game.StateLobby,
	})
}

func (s *Server) writeGameError(c *gin.Context, err error, fallback string) {
	status, msg := http.StatusInternalServerError, fallback
	switch {
	case errors.Is(err, game.ErrNotFound):
		status, msg = http.StatusNotFound, "Game not found"
	case errors.Is(err, game.ErrInvalidState):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, game.ErrUnauthorized):
		status, msg = http.StatusForbidden, "Not allowed"
	default:
		s.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": msg})
}

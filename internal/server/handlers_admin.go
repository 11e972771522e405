package server

import (
	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"

	"psykos/internal/game"
	"psykos/internal/web"
)

func (s *Server) handleAdminRooms(c *gin.Context) {
	templ.Handler(web.Rooms(s.roomSummaries(c))).ServeHTTP(c.Writer, c.Request)
}

func (s *Server) roomSummaries(c *gin.Context) []web.RoomSummary {
	sessions := s.registry.Sessions()
	rooms := make([]web.RoomSummary, 0, len(sessions))
	for _, session := range sessions {
		summary, err := session.Summary(c.Request.Context())
		if err != nil {
			s.log.Warn().Err(err).Str("code", session.Code()).Msg("admin room summary")
			continue
		}
		rooms = append(rooms, toRoomSummary(summary))
	}
	return rooms
}

func toRoomSummary(summary game.Summary) web.RoomSummary {
	room := web.RoomSummary{
		Code:         summary.Code,
		Category:     string(summary.Category),
		State:        string(summary.State),
		CurrentRound: summary.CurrentRound,
		Rounds:       summary.Rounds,
		Players:      make([]web.RoomPlayer, 0, len(summary.Players)),
	}
	for _, p := range summary.Players {
		room.Players = append(room.Players, web.RoomPlayer{Name: p.Name, Score: p.Score, IsHost: p.IsHost})
	}
	return room
}

package web

import (
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

func itoa(value int) string {
	return strconv.Itoa(value)
}

func esc(value string) string {
	return templ.EscapeString(value)
}

func roundLabel(room RoomSummary) string {
	if room.CurrentRound == 0 {
		return "-"
	}
	return itoa(room.CurrentRound) + "/" + itoa(room.Rounds)
}

func playerList(players []RoomPlayer) string {
	if len(players) == 0 {
		return "<em>empty</em>"
	}
	var b strings.Builder
	for i, p := range players {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(esc(p.Name))
		if p.IsHost {
			b.WriteString(" (host)")
		}
		b.WriteString(" ")
		b.WriteString(itoa(p.Score))
	}
	return b.String()
}

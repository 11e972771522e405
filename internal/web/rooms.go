package web

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Rooms renders the live room list for operators.
func Rooms(rooms []RoomSummary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>PSYKOS rooms</title>
  </head>
  <body>
    <main class="shell">
      <h1>Rooms</h1>
`)
		if len(rooms) == 0 {
			b.WriteString("      <p>No active rooms.</p>\n")
		} else {
			b.WriteString(`      <table>
        <thead><tr><th>Code</th><th>Category</th><th>State</th><th>Round</th><th>Players</th></tr></thead>
        <tbody>
`)
			for _, room := range rooms {
				b.WriteString("          <tr><td>")
				b.WriteString(esc(room.Code))
				b.WriteString("</td><td>")
				b.WriteString(esc(room.Category))
				b.WriteString("</td><td>")
				b.WriteString(esc(room.State))
				b.WriteString("</td><td>")
				b.WriteString(roundLabel(room))
				b.WriteString("</td><td>")
				b.WriteString(playerList(room.Players))
				b.WriteString("</td></tr>\n")
			}
			b.WriteString("        </tbody>\n      </table>\n")
		}
		b.WriteString("    </main>\n  </body>\n</html>\n")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

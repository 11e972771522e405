package web

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Home renders the landing page with create and join forms.
func Home(categories []string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var options strings.Builder
		for _, category := range categories {
			options.WriteString(`<option value="` + esc(category) + `">` + esc(category) + "</option>")
		}
		page := strings.Replace(homePage, "{{categories}}", options.String(), 1)
		_, err := io.WriteString(w, page)
		return err
	})
}

const homePage = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>PSYKOS</title>
  </head>
  <body>
    <main class="shell">
      <header class="hero">
        <span class="tag">PSYKOS</span>
        <h1>Bluff, vote, and outguess your friends.</h1>
        <p>Host a room in seconds or join one with a four letter code.</p>
      </header>

      <section class="panel">
        <h2>Create a room</h2>
        <form id="createForm">
          <input name="playerName" placeholder="Your name" autocomplete="name" required/>
          <select name="category">{{categories}}</select>
          <input name="rounds" type="number" min="3" value="8"/>
          <button type="submit" class="primary">Create room</button>
        </form>
        <div id="createResult" class="result"></div>
      </section>

      <section class="panel">
        <h2>Join a room</h2>
        <form id="joinForm">
          <input name="code" placeholder="Room code" autocomplete="off" required/>
          <input name="playerName" placeholder="Your name" autocomplete="name" required/>
          <button type="submit" class="secondary">Join room</button>
        </form>
        <div id="joinResult" class="result"></div>
      </section>
    </main>

    <script>
      async function post(path, body) {
        const res = await fetch(path, {
          method: "POST",
          headers: { "Content-Type": "application/json" },
          body: JSON.stringify(body)
        });
        return { ok: res.ok, data: await res.json() };
      }

      const createForm = document.getElementById("createForm");
      createForm.addEventListener("submit", async (event) => {
        event.preventDefault();
        const out = document.getElementById("createResult");
        const { ok, data } = await post("/create-game", {
          playerName: createForm.elements.playerName.value.trim(),
          category: createForm.elements.category.value,
          rounds: Number(createForm.elements.rounds.value)
        });
        out.textContent = ok ? "Room code: " + data.gameCode : (data.error || "Failed to create room.");
      });

      const joinForm = document.getElementById("joinForm");
      joinForm.addEventListener("submit", async (event) => {
        event.preventDefault();
        const out = document.getElementById("joinResult");
        const { ok, data } = await post("/join-game", {
          code: joinForm.elements.code.value.trim(),
          playerName: joinForm.elements.playerName.value.trim()
        });
        out.textContent = ok ? "Joined " + data.category + " room." : (data.error || "Failed to join room.");
      });
    </script>
  </body>
</html>
`

package web

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Home renders the landing page with the list of open rooms.
func Home(rooms []RoomCard) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Voting Game</title>
  </head>
  <body>
    <main class="shell">
      <header class="hero">
        <h1>Answer. Vote. Win.</h1>
        <p>Create a room, share the code and see whose answer the table likes best.</p>
      </header>
      <section class="panel">
        <h2>Open rooms</h2>
`); err != nil {
			return err
		}
		if err := RoomList(rooms).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `      </section>
    </main>
  </body>
</html>
`)
		return err
	})
}

// RoomList renders the room cards, or an empty state.
func RoomList(rooms []RoomCard) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(rooms) == 0 {
			_, err := io.WriteString(w, `<p class="empty">No rooms yet.</p>`+"\n")
			return err
		}
		if _, err := io.WriteString(w, `<ul class="rooms">`+"\n"); err != nil {
			return err
		}
		for _, room := range rooms {
			line := `<li class="room" data-code="` + templ.EscapeString(room.Code) + `">` +
				`<strong>` + templ.EscapeString(room.Code) + `</strong> ` +
				`<span class="status">` + templ.EscapeString(statusLabel(room.Status)) + `</span> ` +
				`<span class="players">` + itoa(room.Players) + `/` + itoa(room.MaxPlayers) + ` players</span> ` +
				`<span class="round">` + templ.EscapeString(roundLabel(room)) + `</span></li>` + "\n"
			if _, err := io.WriteString(w, line); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</ul>\n")
		return err
	})
}

package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthy", app.healthy)

	session := alice.New(app.sessionManager.LoadAndSave)
	playing := session.Append(app.requireGame)

	mux.Handle("POST /api/games", session.ThenFunc(app.createGame))
	mux.Handle("GET /api/game", playing.ThenFunc(app.getProgress))
	mux.Handle("POST /api/game/intents", playing.ThenFunc(app.applyIntent))
	mux.Handle("GET /api/game/ending", playing.ThenFunc(app.getEnding))

	mux.Handle("GET /api/framing", playing.ThenFunc(app.getFraming))
	mux.Handle("POST /api/framing", playing.ThenFunc(app.startFraming))
	mux.Handle("POST /api/framing/choose", playing.ThenFunc(app.chooseEdge))
	mux.Handle("POST /api/framing/acknowledge", playing.ThenFunc(app.acknowledgeFraming))
	mux.Handle("POST /api/framing/backtrack", playing.ThenFunc(app.backtrack))
	mux.Handle("POST /api/framing/framing-choice", playing.ThenFunc(app.chooseFraming))
	mux.Handle("POST /api/framing/submit", playing.ThenFunc(app.submitFraming))

	mux.Handle("POST /api/hint", playing.Append(app.limitHints).ThenFunc(app.hint))
	mux.Handle("POST "+hintStreamPath, playing.Append(app.limitHints).ThenFunc(app.streamHint))
	mux.Handle("GET "+hintStreamPath, playing.ThenFunc(app.hintStream))

	board := session.Append(noSurf, commonContext)
	mux.Handle("GET /{$}", board.ThenFunc(app.board))
	mux.Handle("POST /reset", board.ThenFunc(app.reset))

	mux.Handle("/", http.HandlerFunc(app.notFound))

	return alice.New(app.recoverPanic, app.logRequest, secureHeaders).Then(mux)
}

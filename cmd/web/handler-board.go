package main

import (
	"net/http"

	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/game"
	"github.com/myrjola/casefile/internal/sessions"
)

// board renders the case board for the session's game, or a start button when there is none.
func (app *application) board(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gameID := app.sessionManager.GetString(ctx, gameIDSessionKey)
	if gameID == "" {
		app.render(w, r, http.StatusOK, boardData{})
		return
	}
	var data boardData
	err := app.games.View(ctx, gameID, func(s *sessions.Session) {
		data = boardData{Playing: true, Progress: s.Engine.Progress()}
	})
	if errors.Is(err, sessions.ErrNotFound) || errors.Is(err, sessions.ErrCaseMismatch) {
		app.sessionManager.Remove(ctx, gameIDSessionKey)
		app.render(w, r, http.StatusOK, boardData{})
		return
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.render(w, r, http.StatusOK, data)
}

// reset restarts the session's game through the reset intent, or starts a game when there is none.
func (app *application) reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gameID := app.sessionManager.GetString(ctx, gameIDSessionKey)
	if gameID != "" {
		_, _, err := app.games.Apply(ctx, gameID, game.Intent{Kind: game.IntentResetGame})
		if err == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		if !errors.Is(err, sessions.ErrNotFound) && !errors.Is(err, sessions.ErrCaseMismatch) {
			app.serverError(w, r, err)
			return
		}
	}
	if _, err := app.startGame(r); err != nil {
		app.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

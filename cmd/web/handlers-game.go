package main

import (
	"net/http"

	"github.com/myrjola/casefile/internal/contexthelpers"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/game"
	"github.com/myrjola/casefile/internal/sessions"
)

type newGameResponse struct {
	GameID   string        `json:"game_id"`
	Progress game.Progress `json:"progress"`
}

type intentResponse struct {
	Delta    game.Delta    `json:"delta"`
	Progress game.Progress `json:"progress"`
}

type endingResponse struct {
	Kind  game.EndingKind `json:"kind"`
	Title string          `json:"title"`
	Text  string          `json:"text"`
	Score int             `json:"score"`
}

// startGame creates a game and binds it to the session, replacing any previous game.
func (app *application) startGame(r *http.Request) (string, error) {
	ctx := r.Context()
	gameID, err := app.games.Create(ctx)
	if err != nil {
		return "", errors.Wrap(err, "create game")
	}
	// A new game is a privilege change of sorts so the session token is rotated.
	if err = app.sessionManager.RenewToken(ctx); err != nil {
		return "", errors.Wrap(err, "renew session token")
	}
	app.sessionManager.Put(ctx, gameIDSessionKey, gameID)
	return gameID, nil
}

func (app *application) createGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := app.startGame(r)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	var progress game.Progress
	if err = app.games.View(r.Context(), gameID, func(s *sessions.Session) {
		progress = s.Engine.Progress()
	}); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, newGameResponse{GameID: gameID, Progress: progress})
}

// gameError maps registry errors to responses. A game that vanished from storage is a 404 and unbinds the session.
func (app *application) gameError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, sessions.ErrNotFound), errors.Is(err, sessions.ErrCaseMismatch):
		app.sessionManager.Remove(r.Context(), gameIDSessionKey)
		app.clientError(w, r, http.StatusNotFound, err)
	case errors.Is(err, sessions.ErrFramingAbsent):
		app.clientError(w, r, http.StatusConflict, err)
	default:
		app.serverError(w, r, err)
	}
}

func (app *application) getProgress(w http.ResponseWriter, r *http.Request) {
	var progress game.Progress
	err := app.games.View(r.Context(), contexthelpers.GameID(r.Context()), func(s *sessions.Session) {
		progress = s.Engine.Progress()
	})
	if err != nil {
		app.gameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, progress)
}

// applyIntent applies one intent. Rejected intents are not errors: the delta reports applied=false.
func (app *application) applyIntent(w http.ResponseWriter, r *http.Request) {
	var in game.Intent
	if err := decodeJSON(w, r, &in); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := in.Validate(); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	delta, progress, err := app.games.Apply(ctx, contexthelpers.GameID(ctx), in)
	if err != nil {
		app.gameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, intentResponse{Delta: delta, Progress: progress})
}

func (app *application) getEnding(w http.ResponseWriter, r *http.Request) {
	var (
		resp  endingResponse
		ended bool
	)
	err := app.games.View(r.Context(), contexthelpers.GameID(r.Context()), func(s *sessions.Session) {
		var text game.EndingText
		resp.Kind, text, ended = s.Engine.Ending()
		resp.Title, resp.Text = text.Title, text.Text
		resp.Score = s.Engine.Score()
	})
	if err != nil {
		app.gameError(w, r, err)
		return
	}
	if !ended {
		app.clientError(w, r, http.StatusNotFound, errors.New("game has not ended"))
		return
	}
	app.writeJSON(w, r, http.StatusOK, resp)
}

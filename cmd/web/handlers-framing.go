package main

import (
	"net/http"

	"github.com/myrjola/casefile/internal/contexthelpers"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/framing"
)

type framingResponse struct {
	Applied bool           `json:"applied"`
	View    framing.View   `json:"view"`
	Recap   *framing.Recap `json:"recap,omitempty"`
}

func newFramingResponse(run *framing.Run, applied bool) framingResponse {
	resp := framingResponse{Applied: applied, View: run.View()}
	if resp.View.Outcome != "" {
		recap := run.Recap()
		resp.Recap = &recap
	}
	return resp
}

type chooseRequest struct {
	EdgeID string `json:"edge_id"`
}

type framingChoiceRequest struct {
	FramingID string `json:"framing_id"`
}

// framingIntent runs step against the session's framing run and responds with the resulting view.
func (app *application) framingIntent(w http.ResponseWriter, r *http.Request, step func(run *framing.Run) bool) {
	var resp framingResponse
	err := app.games.Framing(r.Context(), contexthelpers.GameID(r.Context()), func(run *framing.Run) (bool, error) {
		applied := step(run)
		resp = newFramingResponse(run, applied)
		return applied, nil
	})
	if err != nil {
		app.gameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, resp)
}

func (app *application) startFraming(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := app.games.StartFraming(ctx, contexthelpers.GameID(ctx)); err != nil {
		app.gameError(w, r, err)
		return
	}
	var resp framingResponse
	err := app.games.Framing(ctx, contexthelpers.GameID(ctx), func(run *framing.Run) (bool, error) {
		resp = newFramingResponse(run, true)
		return false, nil
	})
	if err != nil {
		app.gameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, resp)
}

func (app *application) getFraming(w http.ResponseWriter, r *http.Request) {
	var resp framingResponse
	err := app.games.Framing(r.Context(), contexthelpers.GameID(r.Context()), func(run *framing.Run) (bool, error) {
		resp = newFramingResponse(run, false)
		return false, nil
	})
	if err != nil {
		app.gameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, resp)
}

func (app *application) chooseEdge(w http.ResponseWriter, r *http.Request) {
	var req chooseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err)
		return
	}
	app.framingIntent(w, r, func(run *framing.Run) bool { return run.Choose(r.Context(), req.EdgeID) })
}

func (app *application) acknowledgeFraming(w http.ResponseWriter, r *http.Request) {
	app.framingIntent(w, r, func(run *framing.Run) bool { return run.Acknowledge(r.Context()) })
}

func (app *application) backtrack(w http.ResponseWriter, r *http.Request) {
	app.framingIntent(w, r, func(run *framing.Run) bool { return run.Backtrack(r.Context()) })
}

func (app *application) chooseFraming(w http.ResponseWriter, r *http.Request) {
	var req framingChoiceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err)
		return
	}
	app.framingIntent(w, r, func(run *framing.Run) bool { return run.ChooseFraming(r.Context(), req.FramingID) })
}

// submitFraming responds 422 for an incomplete form and 409 when the run cannot accept a submission yet.
func (app *application) submitFraming(w http.ResponseWriter, r *http.Request) {
	var sub framing.Submission
	if err := decodeJSON(w, r, &sub); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err)
		return
	}
	ctx := r.Context()
	var resp framingResponse
	err := app.games.Framing(ctx, contexthelpers.GameID(ctx), func(run *framing.Run) (bool, error) {
		if err := run.SubmitFraming(ctx, sub); err != nil {
			return false, err
		}
		resp = newFramingResponse(run, true)
		return true, nil
	})
	switch {
	case errors.Is(err, framing.ErrIncompleteFraming):
		app.clientError(w, r, http.StatusUnprocessableEntity, err)
	case errors.Is(err, framing.ErrNotReady):
		app.clientError(w, r, http.StatusConflict, err)
	case err != nil:
		app.gameError(w, r, err)
	default:
		app.writeJSON(w, r, http.StatusOK, resp)
	}
}

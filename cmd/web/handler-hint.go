package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/myrjola/casefile/internal/contexthelpers"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/game"
	"github.com/myrjola/casefile/internal/sessions"
)

type hintResponse struct {
	Hint string `json:"hint"`
}

// hint asks the narrator for a nudge. The model call happens outside the session lock.
func (app *application) hint(w http.ResponseWriter, r *http.Request) {
	if app.narrator == nil {
		app.clientError(w, r, http.StatusServiceUnavailable, errors.New("hints disabled"))
		return
	}
	ctx := r.Context()
	var progress game.Progress
	if err := app.games.View(ctx, contexthelpers.GameID(ctx), func(s *sessions.Session) {
		progress = s.Engine.Progress()
	}); err != nil {
		app.gameError(w, r, err)
		return
	}
	text, err := app.narrator.Hint(ctx, progress)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "generate hint"))
		return
	}
	app.writeJSON(w, r, http.StatusOK, hintResponse{Hint: text})
}

const (
	hintStreamPath    = "/api/hint/stream"
	hintStreamTimeout = 30 * time.Second
)

// streamHint starts producing a hint in the background and publishes it for [application.hintStream]. The producer
// blocks until a consumer subscribes or the stream times out.
func (app *application) streamHint(w http.ResponseWriter, r *http.Request) {
	if app.narrator == nil {
		app.clientError(w, r, http.StatusServiceUnavailable, errors.New("hints disabled"))
		return
	}
	ctx := r.Context()
	gameID := contexthelpers.GameID(ctx)
	var progress game.Progress
	if err := app.games.View(ctx, gameID, func(s *sessions.Session) {
		progress = s.Engine.Progress()
	}); err != nil {
		app.gameError(w, r, err)
		return
	}

	stream := make(chan string)
	if err := app.hints.Publish(ctx, gameID, stream); err != nil {
		app.serverError(w, r, errors.Wrap(err, "publish hint stream"))
		return
	}
	go func() {
		produceCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), hintStreamTimeout)
		defer cancel()
		if err := app.narrator.StreamHint(produceCtx, progress, stream); err != nil {
			app.logger.LogAttrs(produceCtx, slog.LevelWarn, "hint stream failed", errors.SlogError(err))
		}
		close(stream)
		// produceCtx may have expired, and the stream must still be unpublished.
		unpublishCtx := context.WithoutCancel(produceCtx)
		if err := app.hints.Unpublish(unpublishCtx, gameID, stream); err != nil {
			app.logger.LogAttrs(unpublishCtx, slog.LevelWarn, "failed to unpublish hint stream", errors.SlogError(err))
		}
	}()
	w.WriteHeader(http.StatusAccepted)
}

// hintStream serves the hint published for the game as server-sent events. A client that is not the first
// subscriber, or that arrives when no hint is being produced, gets 204 No Content.
func (app *application) hintStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stream, ok, err := app.hints.Subscribe(ctx, contexthelpers.GameID(ctx))
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "subscribe to hint stream"))
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Now().Add(hintStreamTimeout))
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	for piece := range stream {
		for _, line := range strings.Split(piece, "\n") {
			_, _ = fmt.Fprintf(w, "data: %s\n", line)
		}
		_, _ = fmt.Fprint(w, "\n")
		// Some wrappers cannot flush, in which case the client gets the whole hint at once.
		_ = rc.Flush()
	}
	_, _ = fmt.Fprint(w, "event: done\ndata:\n\n")
}

package main

import (
	"log/slog"
	"net/http"

	"github.com/myrjola/casefile/internal/errors"
)

type healthResponse struct {
	Status    string `json:"status"`
	LiveGames int    `json:"live_games"`
}

// healthy reports ok once the database answers. It reports how many games are held in memory.
func (app *application) healthy(w http.ResponseWriter, r *http.Request) {
	if err := app.saves.Ping(r.Context()); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "health check failed", errors.SlogError(err))
		app.writeJSON(w, r, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	app.writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok", LiveGames: app.games.Live()})
}

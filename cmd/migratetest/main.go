package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/repositories"
	"github.com/myrjola/casefile/internal/sqlite"
	"github.com/myrjola/casefile/internal/testhelpers"
)

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	var (
		err       error
		start     = time.Now()
		ctx       context.Context
		sqliteURL string
		ok        bool
		cancel    context.CancelFunc
	)
	ctx = context.Background()
	ctx, cancel = context.WithTimeout(ctx, 5*time.Second) //nolint:mnd // 5 seconds

	if sqliteURL, ok = os.LookupEnv("CASEFILE_SQLITE_URL"); !ok {
		logger.LogAttrs(ctx, slog.LevelError, "CASEFILE_SQLITE_URL not set")
		os.Exit(1)
	}

	var db *sqlite.Database
	if db, err = sqlite.NewDatabase(ctx, sqliteURL, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating database",
			slog.String("url", sqliteURL), errors.SlogError(err))
		os.Exit(1)
	}

	// Count the saves that survived the migration as a simple smoke test.
	saves := repositories.NewSaveRepository(db, logger)
	var count int
	if count, err = saves.Count(ctx); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error fetching save count", errors.SlogError(err))
		os.Exit(1)
	}
	if count == 0 {
		logger.LogAttrs(ctx, slog.LevelError, "no saves found, something is likely wrong")
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "save count", slog.Int("count", count))

	// Every save must still decode.
	summaries, err := saves.List(ctx, count)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error listing saves", errors.SlogError(err))
		os.Exit(1)
	}
	for _, s := range summaries {
		if _, err = saves.Get(ctx, s.GameID); err != nil {
			logger.LogAttrs(ctx, slog.LevelError, "error decoding save",
				slog.String("game_id", s.GameID), errors.SlogError(err))
			os.Exit(1)
		}
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Migration test successful 🙌", slog.Duration("duration", time.Since(start)))
	cancel()
	if err = db.Close(); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error closing database", errors.SlogError(err))
	}
	os.Exit(0)
}

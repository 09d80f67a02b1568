package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/myrjola/casefile/internal/content"
	"github.com/myrjola/casefile/internal/e2etest"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/logging"
)

// PlayCase starts a game and plays the walkthrough script through the JSON API.
func PlayCase(ctx context.Context, client *e2etest.Client, script *content.Script) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	if _, err := client.NewGame(ctx); err != nil {
		return errors.Wrap(err, "new game")
	}
	for i, in := range script.Intents {
		resp, err := client.Apply(ctx, in)
		if err != nil {
			return errors.Wrap(err, "apply intent", slog.Int("step", i))
		}
		if !resp.Delta.Applied {
			return errors.New("intent rejected", slog.Int("step", i), slog.String("kind", string(in.Kind)))
		}
	}
	var ending e2etest.EndingResponse
	if err := client.GetJSON(ctx, "/api/game/ending", &ending); err != nil {
		return errors.Wrap(err, "get ending")
	}
	return script.Expect.Check(content.Result{Ending: ending.Kind, Score: ending.Score})
}

// PlayFraming runs the framing script in the same game.
func PlayFraming(ctx context.Context, client *e2etest.Client, script *content.Script) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	if _, err := client.StartFraming(ctx); err != nil {
		return errors.Wrap(err, "start framing")
	}
	var last e2etest.FramingResponse
	for i, step := range script.Steps {
		var err error
		if last, err = client.FramingStep(ctx, step); err != nil {
			return errors.Wrap(err, "framing step", slog.Int("step", i))
		}
		if !last.Applied {
			return errors.New("framing step rejected", slog.Int("step", i), slog.String("action", step.String()))
		}
	}
	if last.Recap == nil {
		return errors.New("framing run has no recap")
	}
	return script.Expect.Check(content.Result{Outcome: last.Recap.Outcome, TimeSpent: last.Recap.TimeSpent})
}

func main() {
	logger := logging.NewLogger(os.Stdout, slog.LevelDebug, nil)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		url      = "https://" + hostname
		client   *e2etest.Client
		err      error
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", url))

	caseScript, err := content.LoadScript("the-ledger-excellent")
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error loading case script", errors.SlogError(err))
		os.Exit(1)
	}
	framingScript, err := content.LoadScript("the-brief-best")
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error loading framing script", errors.SlogError(err))
		os.Exit(1)
	}

	if client, err = e2etest.NewClient(url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if err = PlayCase(ctx, client, caseScript); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error playing case", errors.SlogError(err))
		os.Exit(1)
	}
	if err = PlayFraming(ctx, client, framingScript); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error playing framing run", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌")
	os.Exit(0)
}

package saves

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/myrjola/casefile/internal/content"
	"github.com/myrjola/casefile/internal/envstruct"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/game"
	"github.com/myrjola/casefile/internal/logging"
	"github.com/myrjola/casefile/internal/repositories"
	"github.com/myrjola/casefile/internal/sqlite"
	"github.com/spf13/cobra"
)

// Command groups the subcommands that inspect the web server's saved games.
var Command = &cobra.Command{
	Use:   "saves",
	Short: "Inspect saved games",
	Long:  "Inspects the saved games in the database at CASEFILE_SQLITE_URL",
}

func init() {
	Command.AddCommand(List, Show, Prune)
	List.Flags().Int("limit", 20, "maximum number of saves to list")
	Prune.Flags().Duration("older-than", 30*24*time.Hour, "delete saves not updated within this duration")
}

type config struct {
	SqliteURL string `env:"CASEFILE_SQLITE_URL" envDefault:"./casefile.sqlite"`
}

// withRepository opens the database configured for the web server and hands fn a save repository.
func withRepository(ctx context.Context, fn func(repo *repositories.SaveRepository) error) error {
	var cfg config
	if err := envstruct.Populate(&cfg, os.LookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}
	logger := logging.NewLogger(os.Stderr, slog.LevelWarn, nil)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "failed to close db", errors.SlogError(closeErr))
		}
	}()
	return fn(repositories.NewSaveRepository(db, logger))
}

var List = &cobra.Command{
	Use:   "list",
	Short: "List the most recently updated saved games",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			return errors.Wrap(err, "invalid limit flag")
		}
		return withRepository(cmd.Context(), func(repo *repositories.SaveRepository) error {
			summaries, listErr := repo.List(cmd.Context(), limit)
			if listErr != nil {
				return errors.Wrap(listErr, "list saves")
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0) //nolint:mnd // two spaces of padding
			_, _ = fmt.Fprintln(w, "GAME\tCASE\tUPDATED")
			for _, s := range summaries {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", s.GameID, s.CaseID, s.Updated.Format(time.RFC3339))
			}
			return errors.Wrap(w.Flush(), "flush table")
		})
	},
}

var Show = &cobra.Command{
	Use:   "show [game-id]",
	Short: "Show a saved game",
	Long:  "Restores a saved game against its embedded case and prints the progress view as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRepository(cmd.Context(), func(repo *repositories.SaveRepository) error {
			save, err := repo.Get(cmd.Context(), args[0])
			if err != nil {
				return errors.Wrap(err, "get save")
			}
			c, err := content.LoadCase(save.CaseID)
			if err != nil {
				return errors.Wrap(err, "load case")
			}
			engine := game.Restore(c, save.State, logging.NewLogger(cmd.ErrOrStderr(), slog.LevelWarn, nil))
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return errors.Wrap(enc.Encode(engine.Progress()), "encode progress")
		})
	},
}

var Prune = &cobra.Command{
	Use:   "prune",
	Short: "Delete stale saved games",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		olderThan, err := cmd.Flags().GetDuration("older-than")
		if err != nil {
			return errors.Wrap(err, "invalid older-than flag")
		}
		return withRepository(cmd.Context(), func(repo *repositories.SaveRepository) error {
			n, pruneErr := repo.DeleteOlderThan(cmd.Context(), time.Now().Add(-olderThan))
			if pruneErr != nil {
				return errors.Wrap(pruneErr, "prune saves")
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d saves\n", n)
			return nil
		})
	},
}

package hint

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/myrjola/casefile/internal/ai"
	"github.com/myrjola/casefile/internal/content"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/game"
	"github.com/myrjola/casefile/internal/logging"
	"github.com/spf13/cobra"
)

func init() {
	Generate.Flags().Int("steps", -1, "number of script intents to play before asking, all of them when negative")
	Generate.Flags().Bool("prompt", false, "print the prompt instead of calling the model")
}

var Generate = &cobra.Command{
	Use:     "hint [script]",
	GroupID: "content",
	Short:   "Generate a hint",
	Long: "Plays a case script up to --steps intents and asks the narrator for a hint. " +
		"Needs OPENAI_API_KEY unless --prompt is given.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, err := cmd.Flags().GetInt("steps")
		if err != nil {
			return errors.Wrap(err, "invalid steps flag")
		}
		promptOnly, err := cmd.Flags().GetBool("prompt")
		if err != nil {
			return errors.Wrap(err, "invalid prompt flag")
		}

		ctx := cmd.Context()
		logger := logging.NewLogger(cmd.ErrOrStderr(), slog.LevelWarn, nil)
		script, err := content.LoadScript(args[0])
		if err != nil {
			return errors.Wrap(err, "load script")
		}
		if script.Case == "" {
			return errors.New("hints need a case script", slog.String("script", args[0]))
		}
		c, err := content.LoadCase(script.Case)
		if err != nil {
			return errors.Wrap(err, "load case")
		}
		engine := game.NewEngine(c, logger)
		intents := script.Intents
		if steps >= 0 && steps < len(intents) {
			intents = intents[:steps]
		}
		for _, in := range intents {
			engine.Apply(ctx, in)
		}

		if promptOnly {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), ai.BuildPrompt(engine.Progress()))
			return nil
		}
		narrator, err := ai.NewNarrator(ai.Config{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:   os.Getenv("OPENAI_MODEL"),
		}, logger)
		if err != nil {
			return errors.Wrap(err, "new narrator")
		}
		text, err := narrator.Hint(ctx, engine.Progress())
		if err != nil {
			return errors.Wrap(err, "generate hint")
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

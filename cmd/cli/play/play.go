package play

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/myrjola/casefile/internal/content"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/logging"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "content",
	Title: "Content",
}

func init() {
	Validate.Flags().String("kind", "case", "kind of the files: case, brief or script")
	Replay.Flags().Bool("verbose", false, "log rejected intents and engine events")
}

var List = &cobra.Command{
	Use:     "list",
	GroupID: "content",
	Short:   "List embedded content",
	Long:    "Lists the cases, framing briefs and scripts embedded in the binary",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		for _, section := range []struct {
			title string
			names []string
		}{
			{"Cases", content.ListCases()},
			{"Briefs", content.ListBriefs()},
			{"Scripts", content.ListScripts()},
		} {
			_, _ = fmt.Fprintf(out, "%s:\n", section.title)
			for _, name := range section.names {
				_, _ = fmt.Fprintf(out, "  %s\n", name)
			}
		}
	},
}

var Validate = &cobra.Command{
	Use:     "validate [file...]",
	GroupID: "content",
	Short:   "Validate content files",
	Long:    "Decodes and validates content files from disk. Without arguments every embedded file is validated.",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := cmd.Flags().GetString("kind")
		if err != nil {
			return errors.Wrap(err, "invalid kind flag")
		}
		if len(args) == 0 {
			return validateEmbedded(cmd.OutOrStdout())
		}
		var errs []error
		for _, file := range args {
			if err = validateFile(kind, file); err != nil {
				errs = append(errs, errors.Wrap(err, "invalid file", slog.String("file", file)))
				continue
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ok %s\n", file)
		}
		return errors.Join(errs...)
	},
}

func validateEmbedded(out io.Writer) error {
	var errs []error
	check := func(kind, name string, err error) {
		if err != nil {
			errs = append(errs, errors.Wrap(err, "invalid "+kind, slog.String("name", name)))
			return
		}
		_, _ = fmt.Fprintf(out, "ok %s %s\n", kind, name)
	}
	for _, name := range content.ListCases() {
		_, err := content.LoadCase(name)
		check("case", name, err)
	}
	for _, name := range content.ListBriefs() {
		_, err := content.LoadBrief(name)
		check("brief", name, err)
	}
	for _, name := range content.ListScripts() {
		_, err := content.LoadScript(name)
		check("script", name, err)
	}
	return errors.Join(errs...)
}

func validateFile(kind, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return errors.Wrap(err, "read file")
	}
	switch kind {
	case "case":
		_, err = content.ParseCase(data)
	case "brief":
		_, err = content.ParseBrief(data)
	case "script":
		_, err = content.ParseScript(data)
	default:
		return errors.New("unknown kind", slog.String("kind", kind))
	}
	return err
}

var Replay = &cobra.Command{
	Use:     "replay [script...]",
	GroupID: "content",
	Short:   "Replay scripts",
	Long: "Plays scripts against the embedded content and checks their expectations. " +
		"An argument is read from disk when such a file exists and is an embedded script name otherwise.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return errors.Wrap(err, "invalid verbose flag")
		}
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger := logging.NewLogger(cmd.ErrOrStderr(), level, nil)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		var errs []error
		for _, arg := range args {
			ctx := logging.WithAttrs(cmd.Context(), slog.String("script", arg))
			script, loadErr := loadScript(arg)
			if loadErr != nil {
				errs = append(errs, loadErr)
				continue
			}
			res, playErr := script.Play(ctx, logger)
			if err = enc.Encode(struct {
				Script string `json:"script"`
				content.Result
				Passed bool `json:"passed"`
			}{arg, res, playErr == nil}); err != nil {
				return errors.Wrap(err, "encode result")
			}
			if playErr != nil {
				errs = append(errs, errors.Wrap(playErr, "replay", slog.String("script", arg)))
			}
		}
		return errors.Join(errs...)
	},
}

func loadScript(arg string) (*content.Script, error) {
	data, err := os.ReadFile(arg)
	if errors.Is(err, os.ErrNotExist) {
		return content.LoadScript(arg)
	}
	if err != nil {
		return nil, errors.Wrap(err, "read script", slog.String("file", arg))
	}
	return content.ParseScript(data)
}

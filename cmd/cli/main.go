package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/myrjola/casefile/cmd/cli/hint"
	"github.com/myrjola/casefile/cmd/cli/play"
	"github.com/myrjola/casefile/cmd/cli/saves"
	"github.com/spf13/cobra"
)

func init() {
	// .env is optional.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rootCmd.AddGroup(play.Group)
	rootCmd.AddCommand(play.List, play.Validate, play.Replay, hint.Generate)
	rootCmd.AddCommand(saves.Command)
}

var rootCmd = &cobra.Command{
	Use:           "casefile-cli",
	Long:          `Command line utilities for Casefile https://github.com/myrjola/casefile`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}

package play_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/myrjola/casefile/cmd/cli/play"
	"github.com/myrjola/casefile/internal/content"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "test", SilenceUsage: true, SilenceErrors: true}
	root.AddGroup(play.Group)
	root.AddCommand(play.List, play.Validate, play.Replay)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReplay(t *testing.T) {
	out, err := execute(t, "replay", "the-ledger-excellent")
	require.NoError(t, err)

	var res struct {
		Script string `json:"script"`
		content.Result
		Passed bool `json:"passed"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.True(t, res.Passed)
	require.Equal(t, 220, res.Score)

	file := filepath.Join(t.TempDir(), "wrong.yaml")
	require.NoError(t, os.WriteFile(file, []byte("brief: the-brief\nsteps: [{choose: ask-numbers}]\n"+
		"expect: {outcome: best}\n"), 0o600))
	_, err = execute(t, "replay", file)
	require.ErrorIs(t, err, content.ErrScriptFailed)
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate")
	require.NoError(t, err)
	require.Contains(t, out, "ok case the-ledger")
	require.Contains(t, out, "ok script the-brief-best")

	file := filepath.Join(t.TempDir(), "case.yaml")
	require.NoError(t, os.WriteFile(file, []byte("id: x\ncolour: red\n"), 0o600))
	_, err = execute(t, "validate", file)
	require.ErrorIs(t, err, content.ErrInvalidContent)

	_, err = execute(t, "validate", "--kind", "script", file)
	require.ErrorIs(t, err, content.ErrInvalidContent)
}

func TestList(t *testing.T) {
	out, err := execute(t, "list")
	require.NoError(t, err)
	require.Contains(t, out, "Cases:\n  the-ledger\n")
	require.Contains(t, out, "Briefs:\n  the-brief\n")
}

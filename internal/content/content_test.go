package content_test

import (
	"context"
	"io"
	"testing"

	"github.com/myrjola/casefile/internal/content"
	"github.com/myrjola/casefile/internal/framing"
	"github.com/myrjola/casefile/internal/game"
	"github.com/myrjola/casefile/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

func TestListAndLoad(t *testing.T) {
	require.Equal(t, []string{"the-ledger"}, content.ListCases())
	require.Equal(t, []string{"the-brief"}, content.ListBriefs())

	for _, name := range content.ListCases() {
		c, err := content.LoadCase(name)
		require.NoError(t, err, name)
		require.Equal(t, name, c.Case.ID)
	}
	for _, name := range content.ListBriefs() {
		g, err := content.LoadBrief(name)
		require.NoError(t, err, name)
		require.Equal(t, name, g.ID)
	}

	_, err := content.LoadCase("missing")
	require.ErrorIs(t, err, content.ErrNotFound)
	_, err = content.LoadBrief("missing")
	require.ErrorIs(t, err, content.ErrNotFound)
}

func TestLoadCase_Decoding(t *testing.T) {
	c, err := content.LoadCase("the-ledger")
	require.NoError(t, err)

	require.Len(t, c.Phases, 5)
	require.Equal(t, 4, c.HypothesisCap)
	require.Equal(t, game.UnlockRule{Kind: game.UnlockAfterCollected, Count: 2}, c.Evidence[4].Unlock)

	clerk := c.Dialogues[1]
	require.Equal(t, "clerk", clerk.Speaker)
	require.Equal(t, game.UnlockEvidence{EvidenceID: "bank-statements"}, clerk.Nodes[0].Choices[0].Consequence)
	require.Equal(t, game.Trigger{Kind: game.TriggerViewed, Arg: "approval-emails"}, clerk.Nodes[1].Trigger)

	manager := c.Dialogues[2]
	require.Equal(t, game.AdjustTrust{Entity: "manager", Delta: -20}, manager.Nodes[1].Choices[0].Consequence)
	require.Equal(t, game.Trigger{Kind: game.TriggerAll, Children: []game.Trigger{
		{Kind: game.TriggerAfterAnalysis},
		{Kind: game.TriggerHasInsight, Arg: "rushed-approval"},
	}}, manager.Nodes[1].Trigger)

	require.Equal(t, game.SupplierAnomaly{MinTotal: 40000, MinMissingReceiptRatio: 0.7}, c.Insights[0].Analysis)
	require.Nil(t, c.Insights[3].Analysis)
}

func TestParseCase_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{name: "Unknown key", yaml: "id: x\ncolour: red\n", wantErr: content.ErrInvalidContent},
		{name: "Bad trigger", yaml: `
id: x
dialogues:
  - speaker: a
    nodes:
      - id: n
        trigger: moon_phase
`, wantErr: game.ErrInvalidTrigger},
		{name: "Unknown result", yaml: `
id: x
dialogues:
  - speaker: a
    nodes:
      - id: n
        choices:
          - id: c
            result: teleport
`, wantErr: content.ErrInvalidContent},
		{name: "Unknown analysis", yaml: `
id: x
insights:
  - id: i
    analysis:
      kind: astrology
`, wantErr: content.ErrInvalidContent},
		{name: "Dangling references", yaml: "id: x\nphases: [{id: p, conclusion_open: true}]\n",
			wantErr: game.ErrInvalidCatalog},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := content.ParseCase([]byte(tt.yaml))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseBrief_Errors(t *testing.T) {
	_, err := content.ParseBrief([]byte("id: x\nstart: nowhere\nbudget: 10\nbacktrack_penalty: 1\n"))
	require.ErrorIs(t, err, framing.ErrInvalidGraph)
}

// TestTheLedger_Walkthrough plays the shipped case from start to the excellent ending.
func TestTheLedger_Walkthrough(t *testing.T) {
	script, err := content.LoadScript("the-ledger-excellent")
	require.NoError(t, err)
	c, err := content.LoadCase(script.Case)
	require.NoError(t, err)
	e := game.NewEngine(c, testhelpers.NewLogger(io.Discard))
	ctx := context.Background()

	for i, in := range script.Intents {
		d := e.Apply(ctx, in)
		require.True(t, d.Applied, "step %d: %s rejected", i, in.Kind)
	}

	kind, text, ok := e.Ending()
	require.True(t, ok)
	require.Equal(t, game.EndingExcellent, kind)
	require.Equal(t, "Case closed", text.Title)
	require.Equal(t, []string{"supplier-anomaly", "p7-concentration", "rushed-approval"}, e.Insights())
	// 55 for evidence, 65 for insights, 100 for the conclusion.
	require.Equal(t, 220, e.Score())
}

func TestScripts_Play(t *testing.T) {
	require.Equal(t, []string{"the-brief-best", "the-ledger-excellent"}, content.ListScripts())
	for _, name := range content.ListScripts() {
		t.Run(name, func(t *testing.T) {
			script, err := content.LoadScript(name)
			require.NoError(t, err)
			_, err = script.Play(context.Background(), testhelpers.NewLogger(io.Discard))
			require.NoError(t, err)
		})
	}
}

func TestScript_Play_Mismatch(t *testing.T) {
	script, err := content.LoadScript("the-brief-best")
	require.NoError(t, err)
	script.Expect.Outcome = framing.OutcomeAcceptable

	res, err := script.Play(context.Background(), testhelpers.NewLogger(io.Discard))
	require.ErrorIs(t, err, content.ErrScriptFailed)
	require.Equal(t, framing.OutcomeBest, res.Outcome)
	require.Equal(t, 450, res.TimeSpent)

	script, err = content.LoadScript("the-brief-best")
	require.NoError(t, err)
	script.Steps = script.Steps[1:]
	_, err = script.Play(context.Background(), testhelpers.NewLogger(io.Discard))
	require.ErrorIs(t, err, content.ErrScriptFailed)
}

func TestParseScript_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{name: "No target", yaml: "intents: [{kind: acknowledge}]\n", wantErr: content.ErrInvalidContent},
		{name: "Two targets", yaml: "case: a\nbrief: b\n", wantErr: content.ErrInvalidContent},
		{name: "Steps on a case", yaml: "case: a\nsteps: [{acknowledge: true}]\n", wantErr: content.ErrInvalidContent},
		{name: "Unknown intent", yaml: "case: a\nintents: [{kind: teleport}]\n", wantErr: game.ErrUnknownIntent},
		{name: "Unknown key", yaml: "case: a\ncolour: red\n", wantErr: content.ErrInvalidContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := content.ParseScript([]byte(tt.yaml))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := content.LoadScript("missing")
	require.ErrorIs(t, err, content.ErrNotFound)
}

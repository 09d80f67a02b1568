package game_test

import (
	"testing"

	"github.com/myrjola/casefile/internal/game"
	"github.com/stretchr/testify/require"
)

func selectHypotheses(t *testing.T, e *game.Engine, ids ...string) {
	t.Helper()
	for _, id := range ids {
		mustApply(t, e, game.Intent{Kind: game.IntentSelectHypothesis, HypothesisID: id})
	}
}

func TestSelectHypothesis_Cardinality(t *testing.T) {
	e := newTestEngine(t)
	require.False(t, apply(t, e, game.Intent{Kind: game.IntentSelectHypothesis, HypothesisID: "h1"}).Applied,
		"selection is closed while exploring")

	advanceTo(t, e, phaseSelect)
	selectHypotheses(t, e, "h1", "h2", "h3")
	require.False(t, e.CanAdvance(), "three of four selected")
	require.False(t, apply(t, e, game.Intent{Kind: game.IntentAdvancePhase}).Applied)

	require.False(t, apply(t, e, game.Intent{Kind: game.IntentSelectHypothesis, HypothesisID: "h1"}).Applied,
		"duplicates are rejected")
	require.False(t, apply(t, e, game.Intent{Kind: game.IntentSelectHypothesis, HypothesisID: "h6"}).Applied,
		"h6 needs the supplier anomaly insight")

	selectHypotheses(t, e, "h5")
	require.False(t, apply(t, e, game.Intent{Kind: game.IntentSelectHypothesis, HypothesisID: "h4"}).Applied,
		"a fifth pick does not evict an existing one")
	require.Equal(t, []string{"h1", "h2", "h3", "h5"}, e.SelectedHypotheses())

	mustApply(t, e, game.Intent{Kind: game.IntentDeselectHypothesis, HypothesisID: "h5"})
	selectHypotheses(t, e, "h4")
	require.True(t, e.CanAdvance())
	mustApply(t, e, game.Intent{Kind: game.IntentAdvancePhase})

	require.False(t, apply(t, e, game.Intent{Kind: game.IntentDeselectHypothesis, HypothesisID: "h4"}).Applied,
		"the selection is frozen after its phase")
	require.Len(t, e.SelectedHypotheses(), 4)
}

func TestSwapHypothesis_Once(t *testing.T) {
	e := newTestEngine(t)
	advanceTo(t, e, phaseReview)

	require.False(t, e.CanSwap(), "the swap needs the board minutes viewed")
	require.False(t, apply(t, e, game.Intent{
		Kind: game.IntentSwapHypothesis, HypothesisID: "h2", NewHypothesisID: "h5",
	}).Applied)

	mustApply(t, e, game.Intent{Kind: game.IntentViewEvidence, EvidenceID: "e3"})
	require.True(t, e.CanSwap())

	require.False(t, apply(t, e, game.Intent{
		Kind: game.IntentSwapHypothesis, HypothesisID: "h5", NewHypothesisID: "h2",
	}).Applied, "old hypothesis must be selected")

	mustApply(t, e, game.Intent{Kind: game.IntentSwapHypothesis, HypothesisID: "h2", NewHypothesisID: "h5"})
	require.Equal(t, []string{"h1", "h5", "h3", "h4"}, e.SelectedHypotheses())
	require.False(t, e.CanSwap())

	require.False(t, apply(t, e, game.Intent{
		Kind: game.IntentSwapHypothesis, HypothesisID: "h5", NewHypothesisID: "h2",
	}).Applied)
	require.False(t, apply(t, e, game.Intent{
		Kind: game.IntentSwapHypothesis, HypothesisID: "h1", NewHypothesisID: game.SkipSwap,
	}).Applied, "skip after a swap is rejected too")
	require.Equal(t, []string{"h1", "h5", "h3", "h4"}, e.SelectedHypotheses())
}

func TestSwapHypothesis_SkipConsumesSwap(t *testing.T) {
	e := newTestEngine(t)
	advanceTo(t, e, phaseReview)
	mustApply(t, e, game.Intent{Kind: game.IntentViewEvidence, EvidenceID: "e3"})

	d := mustApply(t, e, game.Intent{Kind: game.IntentSwapHypothesis, NewHypothesisID: game.SkipSwap})
	require.True(t, d.Applied)
	require.Equal(t, []string{"h1", "h2", "h3", "h4"}, e.SelectedHypotheses())
	require.True(t, e.State().HasUsedSwap)

	require.False(t, apply(t, e, game.Intent{
		Kind: game.IntentSwapHypothesis, HypothesisID: "h2", NewHypothesisID: "h5",
	}).Applied)
	require.Equal(t, []string{"h1", "h2", "h3", "h4"}, e.SelectedHypotheses())
}

func TestCanUnlockHypothesis(t *testing.T) {
	e := newTestEngine(t)
	require.True(t, e.CanUnlockHypothesis("h1"))
	require.False(t, e.CanUnlockHypothesis("h6"))
	require.False(t, e.CanUnlockHypothesis("missing"))

	mustApply(t, e, game.Intent{Kind: game.IntentCollectEvidence, EvidenceID: "invoices"})
	mustApply(t, e, game.Intent{Kind: game.IntentRunAnalysis})
	require.True(t, e.CanUnlockHypothesis("h6"))
}

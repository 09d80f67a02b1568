package game_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/casefile/internal/game"
	"github.com/stretchr/testify/require"
)

func TestCollect_UnlockAfterCollected(t *testing.T) {
	e := newTestEngine(t)

	mustApply(t, e, game.Intent{Kind: game.IntentCollectEvidence, EvidenceID: "e1"})
	d := apply(t, e, game.Intent{Kind: game.IntentCollectEvidence, EvidenceID: "e2"})
	require.False(t, d.Applied, "e2 needs two other collected items")
	require.False(t, e.IsCollected("e2"))
	require.False(t, e.IsUnlocked("e2"))

	d = mustApply(t, e, game.Intent{Kind: game.IntentCollectEvidence, EvidenceID: "invoices"})
	require.Equal(t, []string{"e2"}, d.Unlocked)
	require.True(t, e.IsUnlocked("e2"))

	d = mustApply(t, e, game.Intent{Kind: game.IntentCollectEvidence, EvidenceID: "e2"})
	require.Equal(t, []string{"e2"}, d.Collected)
	require.Equal(t, 10, d.ScoreGained)
}

func TestCollect_Idempotent(t *testing.T) {
	e := newTestEngine(t)

	d := mustApply(t, e, game.Intent{Kind: game.IntentCollectEvidence, EvidenceID: "invoices"})
	require.Equal(t, 15, d.ScoreGained, "evidence points override the default")
	once := e.State()

	d = apply(t, e, game.Intent{Kind: game.IntentCollectEvidence, EvidenceID: "invoices"})
	require.False(t, d.Applied)
	require.Equal(t, 0, d.ScoreGained)
	if diff := cmp.Diff(once, e.State()); diff != "" {
		t.Errorf("state changed on second collect (-once +twice):\n%s", diff)
	}
	require.Equal(t, 15, e.Score())
}

func TestCollect_Rejected(t *testing.T) {
	tests := []struct {
		name       string
		evidenceID string
	}{
		{name: "Unknown evidence", evidenceID: "missing"},
		{name: "Explicitly locked", evidenceID: "e4"},
		{name: "Room not reachable in phase", evidenceID: "e3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			before := e.State()
			d := apply(t, e, game.Intent{Kind: game.IntentCollectEvidence, EvidenceID: tt.evidenceID})
			require.False(t, d.Applied)
			require.Empty(t, cmp.Diff(before, e.State()))
		})
	}
}

func TestUnlockAndView(t *testing.T) {
	e := newTestEngine(t)

	require.False(t, apply(t, e, game.Intent{Kind: game.IntentViewEvidence, EvidenceID: "e4"}).Applied,
		"locked evidence cannot be viewed")

	d := mustApply(t, e, game.Intent{Kind: game.IntentUnlockEvidence, EvidenceID: "e4"})
	require.Equal(t, []string{"e4"}, d.Unlocked)
	require.False(t, apply(t, e, game.Intent{Kind: game.IntentUnlockEvidence, EvidenceID: "e4"}).Applied)
	require.False(t, apply(t, e, game.Intent{Kind: game.IntentUnlockEvidence, EvidenceID: "e1"}).Applied,
		"always unlocked evidence needs no unlock")

	d = mustApply(t, e, game.Intent{Kind: game.IntentViewEvidence, EvidenceID: "e4"})
	require.Equal(t, []string{"e4"}, d.Viewed)
	require.True(t, e.IsViewed("e4"))
	require.False(t, apply(t, e, game.Intent{Kind: game.IntentViewEvidence, EvidenceID: "e4"}).Applied)
	require.Equal(t, 0, e.Score(), "viewing does not score")
}

func TestCollect_CollectedImpliesUnlocked(t *testing.T) {
	e := newTestEngine(t)
	for _, id := range []string{"e1", "e2", "invoices", "e2", "e4", "e1"} {
		apply(t, e, game.Intent{Kind: game.IntentCollectEvidence, EvidenceID: id})
	}
	for id, collected := range e.State().Collected {
		if collected {
			require.True(t, e.IsUnlocked(id), "collected %s must be unlocked", id)
		}
	}
}

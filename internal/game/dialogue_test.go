package game_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/casefile/internal/game"
	"github.com/stretchr/testify/require"
)

func TestDialogue_Walkthrough(t *testing.T) {
	e := newTestEngine(t)

	d := mustApply(t, e, game.Intent{Kind: game.IntentOpenConversation, Speaker: "controller"})
	require.Equal(t, game.ConversationAwaitingChoice, d.Conversation.Status)
	require.Equal(t, "n1", d.Conversation.NodeID)
	require.Equal(t, []string{"n1", "n2"}, e.AvailableNodes("controller"))

	view := e.Progress().Conversation
	require.Equal(t, "Who approves supplier invoices?", view.Question)
	require.Equal(t, []game.ChoiceView{
		{ID: "ledger", Label: "Ask about the private ledger", Tag: game.ResultUnlock},
		{ID: "praise", Label: "Thank her", Tag: game.ResultTrustUp},
	}, view.Choices)

	d = mustApply(t, e, game.Intent{Kind: game.IntentSelectChoice, NodeID: "n1", ChoiceID: "ledger"})
	require.Equal(t, []string{"e4"}, d.Unlocked)
	require.Equal(t, game.ConversationAwaitingAck, d.Conversation.Status)
	require.Equal(t, "There is a ledger in the archive.", d.Conversation.Response)

	require.False(t, apply(t, e, game.Intent{Kind: game.IntentSelectChoice, NodeID: "n2", ChoiceID: "note"}).Applied,
		"node-advancing intents wait for acknowledgment")
	require.False(t, apply(t, e, game.Intent{Kind: game.IntentOpenConversation, Speaker: "controller"}).Applied)

	d = mustApply(t, e, game.Intent{Kind: game.IntentAcknowledge})
	require.Equal(t, "n2", d.Conversation.NodeID)

	d = mustApply(t, e, game.Intent{Kind: game.IntentSelectChoice, NodeID: "n2", ChoiceID: "note"})
	require.Equal(t, []string{"K2"}, d.NotesAdded)
	require.Equal(t, []game.Note{
		{ID: "K2", Text: "P7 has a single approver", Source: game.NoteSourceInterview, SourceID: "controller"},
	}, e.Notebook())

	d = mustApply(t, e, game.Intent{Kind: game.IntentAcknowledge})
	require.Equal(t, game.ConversationExhausted, d.Conversation.Status, "no further options")
	require.Empty(t, e.AvailableNodes("controller"))

	mustApply(t, e, game.Intent{Kind: game.IntentCloseConversation})
	require.False(t, apply(t, e, game.Intent{Kind: game.IntentCloseConversation}).Applied)
}

func TestDialogue_CompletedNodeIsNoOp(t *testing.T) {
	e := newTestEngine(t)
	mustApply(t, e, game.Intent{Kind: game.IntentOpenConversation, Speaker: "controller"})
	d := mustApply(t, e, game.Intent{Kind: game.IntentSelectChoice, NodeID: "n1", ChoiceID: "praise"})
	require.Equal(t, map[string]int{"controller": 10}, d.TrustChanges)
	require.Equal(t, "She seems relieved.", d.Conversation.FollowUp)
	mustApply(t, e, game.Intent{Kind: game.IntentAcknowledge})

	before := e.State()
	for _, choice := range []string{"praise", "ledger"} {
		d = apply(t, e, game.Intent{Kind: game.IntentSelectChoice, NodeID: "n1", ChoiceID: choice})
		require.False(t, d.Applied)
	}
	require.Empty(t, cmp.Diff(before, e.State()))
}

func TestDialogue_Triggers(t *testing.T) {
	e := newTestEngine(t)

	mustApply(t, e, game.Intent{Kind: game.IntentOpenConversation, Speaker: "controller"})
	mustApply(t, e, game.Intent{Kind: game.IntentCloseConversation})
	mustApply(t, e, game.Intent{Kind: game.IntentOpenConversation, Speaker: "controller"})
	require.Equal(t, []string{"n2"}, e.AvailableNodes("controller"), "first_visit only holds on the first visit")

	mustApply(t, e, game.Intent{Kind: game.IntentCollectEvidence, EvidenceID: "invoices"})
	mustApply(t, e, game.Intent{Kind: game.IntentRunAnalysis})
	require.Equal(t, []string{"n2", "n3"}, e.AvailableNodes("controller"))

	d := mustApply(t, e, game.Intent{Kind: game.IntentSelectChoice, NodeID: "n3", ChoiceID: "press"})
	require.Equal(t, map[string]int{"controller": -15}, d.TrustChanges)
}

func TestDialogue_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		intent game.Intent
	}{
		{name: "Unknown speaker", intent: game.Intent{Kind: game.IntentOpenConversation, Speaker: "ghost"}},
		{name: "Choice without conversation",
			intent: game.Intent{Kind: game.IntentSelectChoice, NodeID: "n1", ChoiceID: "ledger"}},
		{name: "Acknowledge without response", intent: game.Intent{Kind: game.IntentAcknowledge}},
		{name: "Close without conversation", intent: game.Intent{Kind: game.IntentCloseConversation}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			require.False(t, apply(t, e, tt.intent).Applied)
		})
	}

	t.Run("Unknown choice on open node", func(t *testing.T) {
		e := newTestEngine(t)
		mustApply(t, e, game.Intent{Kind: game.IntentOpenConversation, Speaker: "controller"})
		require.False(t, apply(t, e, game.Intent{Kind: game.IntentSelectChoice, NodeID: "n1", ChoiceID: "x"}).Applied)
		require.False(t, apply(t, e, game.Intent{Kind: game.IntentSelectChoice, NodeID: "n3", ChoiceID: "press"}).Applied,
			"gated node is not available")
	})
}

func TestParseTrigger(t *testing.T) {
	tests := []struct {
		in      string
		want    game.Trigger
		wantErr bool
	}{
		{in: "", want: game.Trigger{Kind: game.TriggerAlways}},
		{in: "first_visit", want: game.Trigger{Kind: game.TriggerFirstVisit}},
		{in: "has_insight:supplier-anomaly", want: game.Trigger{Kind: game.TriggerHasInsight, Arg: "supplier-anomaly"}},
		{in: "phase:2", want: game.Trigger{Kind: game.TriggerPhase, Phase: 2}},
		{in: "has_insight", wantErr: true},
		{in: "after_analysis:x", wantErr: true},
		{in: "phase:-1", wantErr: true},
		{in: "all", wantErr: true},
		{in: "moon_phase", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := game.ParseTrigger(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, game.ErrInvalidTrigger)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			if tt.in != "" {
				require.Equal(t, tt.in, got.String())
			}
		})
	}
}

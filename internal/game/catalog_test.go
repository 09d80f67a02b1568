package game_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/myrjola/casefile/internal/game"
	"github.com/myrjola/casefile/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

const (
	phaseExplore = iota
	phaseSelect
	phaseReview
	phaseConclude
)

func newTestCatalog() *game.Catalog {
	day := func(d int) time.Time { return time.Date(2024, time.March, d, 9, 0, 0, 0, time.UTC) }
	return &game.Catalog{
		Case: game.CaseInfo{ID: "test-case", Title: "Test case"},
		Evidence: []game.Evidence{
			{ID: "e1", Title: "Expense policy", Room: "office", Unlock: game.UnlockRule{Kind: game.UnlockAlways}},
			{ID: "e2", Title: "Shredded memo", Room: "office",
				Unlock: game.UnlockRule{Kind: game.UnlockAfterCollected, Count: 2}},
			{ID: "e3", Title: "Board minutes", Room: "archive", Unlock: game.UnlockRule{Kind: game.UnlockAlways}},
			{ID: "e4", Title: "Private ledger", Room: "archive", Unlock: game.UnlockRule{Kind: game.UnlockExplicit}},
			{ID: "invoices", Title: "Supplier invoices", Room: "office", Points: 15,
				Data: game.EvidenceData{Invoices: []game.Invoice{
					{Number: "1001", Supplier: "Nordic Supplies", Amount: 12000},
					{Number: "1002", Supplier: "Nordic Supplies", Amount: 15000},
					{Number: "1003", Supplier: "Nordic Supplies", Amount: 9000},
					{Number: "1004", Supplier: "Nordic Supplies", Amount: 12500, HasReceipt: true},
					{Number: "2001", Supplier: "Acme", Amount: 2000},
				}}},
			{ID: "budget", Title: "Budget allocations", Room: "archive",
				Data: game.EvidenceData{Allocations: []game.Allocation{
					{Project: "P7", Amount: 60000},
					{Project: "P2", Amount: 40000},
				}}},
			{ID: "emails", Title: "Approval emails", Room: "archive",
				Data: game.EvidenceData{Timeline: []game.TimelineEvent{
					{Label: "invoice received", At: day(4)},
					{Label: "payment approved", At: day(5)},
				}}},
		},
		Dialogues: []game.Dialogue{
			{
				Speaker: "controller",
				Name:    "Maria the controller",
				Room:    "office",
				Nodes: []game.Node{
					{
						ID:      "n1",
						Text:    "Who approves supplier invoices?",
						Trigger: game.Trigger{Kind: game.TriggerFirstVisit},
						Next:    "n2",
						Choices: []game.Choice{
							{ID: "ledger", Label: "Ask about the private ledger", Response: "There is a ledger in the archive.",
								Consequence: game.UnlockEvidence{EvidenceID: "e4"}},
							{ID: "praise", Label: "Thank her", Response: "You are welcome.",
								FollowUp:    "She seems relieved.",
								Consequence: game.AdjustTrust{Delta: 10}},
						},
					},
					{
						ID:      "n2",
						Text:    "Who signs off on project P7?",
						Trigger: game.Trigger{Kind: game.TriggerAlways},
						Choices: []game.Choice{
							{ID: "note", Label: "Write it down", Response: "The project manager signs alone.",
								Consequence: game.AppendNote{NoteID: "K2", Text: "P7 has a single approver"}},
						},
					},
					{
						ID:      "n3",
						Text:    "Why do Nordic Supplies invoices lack receipts?",
						Trigger: game.Trigger{Kind: game.TriggerHasInsight, Arg: "supplier-anomaly"},
						Choices: []game.Choice{
							{ID: "press", Label: "Press her", Response: "I don't like your tone.",
								Consequence: game.AdjustTrust{Delta: -15}},
						},
					},
				},
			},
		},
		Hypotheses: []game.Hypothesis{
			{ID: "h1", Text: "Duplicate invoicing through one supplier", Suspect: "manager"},
			{ID: "h2", Text: "Budget overrun from scope creep"},
			{ID: "h3", Text: "Payroll fraud"},
			{ID: "h4", Text: "Accounting error"},
			{ID: "h5", Text: "Embezzlement by the controller", Suspect: "controller"},
			{ID: "h6", Text: "Kickbacks from Nordic Supplies",
				Requires: game.Trigger{Kind: game.TriggerHasInsight, Arg: "supplier-anomaly"}},
		},
		HypothesisCap: 4,
		Insights: []game.Insight{
			{ID: "supplier-anomaly", Name: "Supplier anomaly", Points: 20, Requires: []string{"invoices"},
				Analysis: game.SupplierAnomaly{MinTotal: 40000, MinMissingReceiptRatio: 0.7}},
			{ID: "project-share", Name: "Project share", Points: 15,
				Analysis: game.ShareThreshold{Project: "P7", MinShare: 0.5}},
			{ID: "quick-approval", Name: "Quick approval", Points: 10,
				Analysis: game.TimingGap{From: "invoice received", To: "payment approved", MaxGap: 48 * time.Hour}},
			{ID: "I3", Name: "Pattern", Points: 5},
		},
		Phases: []game.Phase{
			{ID: "explore", Name: "Explore", Rooms: []string{"office"}, Exit: game.PhaseGate{MinViewed: 1}},
			{ID: "select", Name: "Select hypotheses", Rooms: []string{"office", "archive"}, SelectionOpen: true},
			{ID: "review", Name: "Review", Rooms: []string{"office", "archive"}, OffersSwap: true,
				SwapRequires: []string{"e3"}},
			{ID: "conclude", Name: "Conclude", ConclusionOpen: true, CallToAction: "Submit your conclusion"},
		},
		Solution: game.Solution{
			Hypothesis:         "h1",
			Cause:              "duplicate invoicing",
			Project:            "P7",
			Person:             "manager",
			Diagnostics:        []string{"K2", "supplier-anomaly", "I3"},
			ExcellentThreshold: 2,
		},
		Endings: map[game.EndingKind]game.EndingText{
			game.EndingExcellent:    {Title: "Case closed", Text: "Airtight."},
			game.EndingPartial:      {Title: "Case closed", Text: "Some loose ends."},
			game.EndingWrongPerson:  {Title: "Wrong person", Text: "They were innocent."},
			game.EndingWrongProject: {Title: "Wrong project", Text: "The money went elsewhere."},
			game.EndingWrongCause:   {Title: "Wrong cause", Text: "That is not what happened."},
			game.EndingFailure:      {Title: "Off the case", Text: "Out of attempts."},
			game.EndingUnresolved:   {Title: "Unresolved", Text: "No conclusion."},
		},
		Scoring: game.Scoring{
			EvidencePoints:              10,
			ConclusionBonus:             50,
			WrongConclusionTrustPenalty: 10,
			MaxConclusionAttempts:       3,
		},
		Trust: game.TrustConfig{
			Initial: map[string]int{"controller": 50, "team": 60},
			Default: "team",
			Medium:  40,
			High:    70,
		},
	}
}

func newTestEngine(t *testing.T) *game.Engine {
	t.Helper()
	return game.NewEngine(newTestCatalog(), testhelpers.NewLogger(io.Discard))
}

func apply(t *testing.T, e *game.Engine, in game.Intent) game.Delta {
	t.Helper()
	return e.Apply(context.Background(), in)
}

func mustApply(t *testing.T, e *game.Engine, in game.Intent) game.Delta {
	t.Helper()
	d := apply(t, e, in)
	require.True(t, d.Applied, "intent %s was rejected", in.Kind)
	return d
}

// advanceTo plays the minimum needed to reach phase. It selects h1 to h4.
func advanceTo(t *testing.T, e *game.Engine, phase int) {
	t.Helper()
	for {
		current, _ := e.Phase()
		if current >= phase {
			return
		}
		switch current {
		case phaseExplore:
			apply(t, e, game.Intent{Kind: game.IntentViewEvidence, EvidenceID: "e1"})
		case phaseSelect:
			for _, id := range []string{"h1", "h2", "h3", "h4"} {
				apply(t, e, game.Intent{Kind: game.IntentSelectHypothesis, HypothesisID: id})
			}
		}
		mustApply(t, e, game.Intent{Kind: game.IntentAdvancePhase})
	}
}

package framing_test

import (
	"context"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/casefile/internal/framing"
	"github.com/myrjola/casefile/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

func newTestGraph() *framing.Graph {
	return &framing.Graph{
		ID:               "test-brief",
		Title:            "Test brief",
		Start:            "q1",
		Budget:           600,
		BacktrackPenalty: 45,
		Nodes: []framing.Node{
			{ID: "q1", Prompt: "Where do you start?", Edges: []framing.Edge{
				{ID: "scope", Label: "Ask about scope", TimeCost: 130, Tag: framing.TagCorrect, Next: "q2",
					Reveals: []string{"The budget doubled in Q3."}},
				{ID: "jump", Label: "Jump to a conclusion", TimeCost: 50, Tag: framing.TagPremature, Next: "frame"},
			}},
			{ID: "q2", Prompt: "Who do you ask next?", Edges: []framing.Edge{
				{ID: "cfo", Label: "The CFO", TimeCost: 130, Tag: framing.TagLessWrong, Next: "q3"},
				{ID: "intern", Label: "The intern", TimeCost: 130, Tag: framing.TagWrong, Next: "q3"},
			}},
			{ID: "q3", Prompt: "What do you check?", Edges: []framing.Edge{
				{ID: "ledger", Label: "The ledger", TimeCost: 130, Tag: framing.TagCorrect, Next: "q4",
					Response: "The ledger shows duplicate payments.", Reveals: []string{"Duplicate payments."}},
			}},
			{ID: "q4", Prompt: "Ready to frame?", Edges: []framing.Edge{
				{ID: "frame", Label: "Frame the problem", TimeCost: 60, Tag: framing.TagCorrect, Next: "frame"},
			}},
			{ID: "frame", Prompt: "Frame the problem", Framing: true},
		},
		Framings: []framing.Framing{
			{ID: "controls", Label: "Weak payment controls", Quality: framing.QualityBest},
			{ID: "budget", Label: "Budget overrun", Quality: framing.QualityAcceptable},
			{ID: "blame", Label: "Someone to blame", Quality: framing.QualityMisframed},
		},
	}
}

func newTestRun(t *testing.T) *framing.Run {
	t.Helper()
	g := newTestGraph()
	require.NoError(t, g.Validate())
	return framing.NewRun(g, testhelpers.NewLogger(io.Discard))
}

func validSubmission() framing.Submission {
	return framing.Submission{
		ProblemStatement: "Payments bypass approval for one supplier.",
		GoldenQuestions: []string{
			"Who can approve payments alone?",
			"Which invoices lack receipts?",
			"When did the pattern start?",
		},
		Decisions: []framing.DecisionMapping{
			{Question: "Who can approve payments alone?", Decision: "Add a second approver"},
		},
	}
}

func TestRun_BudgetAndBacktrack(t *testing.T) {
	ctx := context.Background()
	r := newTestRun(t)

	require.False(t, r.CanBacktrack(), "nothing to undo")
	require.True(t, r.Choose(ctx, "scope"))
	require.True(t, r.Choose(ctx, "cfo"))
	require.True(t, r.Choose(ctx, "ledger"))
	require.Equal(t, 210, r.State().Budget)

	require.False(t, r.CanBacktrack(), "response pending")
	require.False(t, r.Choose(ctx, "frame"), "response pending")
	require.True(t, r.Acknowledge(ctx))

	require.True(t, r.CanBacktrack())
	require.True(t, r.Backtrack(ctx))
	s := r.State()
	require.Equal(t, "q3", s.Node)
	require.Equal(t, 210-45, s.Budget, "backtracking costs the penalty, not the edge cost")
	require.Len(t, s.History, 2)
	require.Equal(t, 1, s.Backtracks)
	require.Equal(t, []string{"The budget doubled in Q3.", "Duplicate payments."}, s.Revealed)
}

func TestRun_Timeout(t *testing.T) {
	ctx := context.Background()
	g := newTestGraph()
	g.Budget = 300
	r := framing.NewRun(g, testhelpers.NewLogger(io.Discard))

	require.True(t, r.Choose(ctx, "scope"))
	require.True(t, r.Choose(ctx, "intern"))
	require.True(t, r.Choose(ctx, "ledger"), "the budget crosses zero on this edge")

	s := r.State()
	require.Equal(t, framing.OutcomeTimeout, s.Outcome)
	require.Equal(t, "q3", s.Node, "the pending transition is overridden")
	require.NotContains(t, s.Revealed, "Duplicate payments.", "reveals of the timed-out edge are discarded")
	require.False(t, s.AwaitingAck)
	require.Len(t, s.History, 3)

	require.False(t, r.Choose(ctx, "ledger"))
	require.False(t, r.CanBacktrack())
	require.Equal(t, framing.OutcomeTimeout, framing.ResolveOutcome(g, &s))
}

func TestRun_BacktrackPenaltyCanTimeOut(t *testing.T) {
	ctx := context.Background()
	g := newTestGraph()
	g.Budget = 150
	g.BacktrackPenalty = 30
	r := framing.NewRun(g, testhelpers.NewLogger(io.Discard))

	require.True(t, r.Choose(ctx, "scope"))
	require.True(t, r.Backtrack(ctx))
	require.Equal(t, framing.OutcomeTimeout, r.State().Outcome)
}

func TestRun_Framing(t *testing.T) {
	tests := []struct {
		name    string
		path    []string
		framing string
		want    framing.Outcome
	}{
		{name: "Best", path: []string{"scope", "cfo", "ledger", "frame"}, framing: "controls", want: framing.OutcomeBest},
		{name: "Acceptable", path: []string{"scope", "cfo", "ledger", "frame"}, framing: "budget",
			want: framing.OutcomeAcceptable},
		{name: "Misframed", path: []string{"scope", "intern", "ledger", "frame"}, framing: "blame",
			want: framing.OutcomeMisframed},
		{name: "Premature", path: []string{"jump"}, framing: "controls", want: framing.OutcomePremature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			r := newTestRun(t)
			for _, edge := range tt.path {
				require.True(t, r.Choose(ctx, edge), edge)
				if r.State().AwaitingAck {
					require.True(t, r.Acknowledge(ctx))
				}
			}
			require.True(t, r.AtFraming())
			require.False(t, r.CanBacktrack(), "no backtracking from a framing node")

			require.ErrorIs(t, r.SubmitFraming(ctx, validSubmission()), framing.ErrNotReady)
			require.True(t, r.ChooseFraming(ctx, tt.framing))
			require.NoError(t, r.SubmitFraming(ctx, validSubmission()))

			s := r.State()
			require.Equal(t, tt.want, s.Outcome)
			require.Equal(t, s.Outcome, framing.ResolveOutcome(r.Graph(), &s))
			require.ErrorIs(t, r.SubmitFraming(ctx, validSubmission()), framing.ErrNotReady)
		})
	}
}

func TestSubmission_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *framing.Submission)
	}{
		{name: "Blank problem statement", mutate: func(s *framing.Submission) { s.ProblemStatement = "  " }},
		{name: "Two golden questions", mutate: func(s *framing.Submission) { s.GoldenQuestions = s.GoldenQuestions[:2] }},
		{name: "Four golden questions", mutate: func(s *framing.Submission) {
			s.GoldenQuestions = append(s.GoldenQuestions, "Anything else?")
		}},
		{name: "Blank golden question", mutate: func(s *framing.Submission) { s.GoldenQuestions[1] = "" }},
		{name: "Duplicate golden question", mutate: func(s *framing.Submission) {
			s.GoldenQuestions[2] = s.GoldenQuestions[0]
		}},
		{name: "No decisions", mutate: func(s *framing.Submission) { s.Decisions = nil }},
		{name: "Four decisions", mutate: func(s *framing.Submission) {
			d := s.Decisions[0]
			s.Decisions = []framing.DecisionMapping{d, d, d, d}
		}},
		{name: "Blank decision", mutate: func(s *framing.Submission) { s.Decisions[0].Decision = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSubmission()
			tt.mutate(&s)
			require.ErrorIs(t, s.Validate(), framing.ErrIncompleteFraming)
		})
	}
	require.NoError(t, validSubmission().Validate())
}

func TestRun_RejectedSubmissionLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	r := newTestRun(t)
	require.True(t, r.Choose(ctx, "jump"))
	require.True(t, r.ChooseFraming(ctx, "controls"))
	before := r.State()

	incomplete := validSubmission()
	incomplete.GoldenQuestions = incomplete.GoldenQuestions[:1]
	require.ErrorIs(t, r.SubmitFraming(ctx, incomplete), framing.ErrIncompleteFraming)
	require.Empty(t, cmp.Diff(before, r.State()))
}

func TestRun_Recap(t *testing.T) {
	ctx := context.Background()
	r := newTestRun(t)
	for _, edge := range []string{"scope", "intern", "ledger"} {
		require.True(t, r.Choose(ctx, edge))
	}
	require.True(t, r.Acknowledge(ctx))
	require.True(t, r.Backtrack(ctx))

	recap := r.Recap()
	require.Equal(t, []framing.RecapStep{
		{Prompt: "Where do you start?", Label: "Ask about scope", Cost: 130, Tag: framing.TagCorrect},
		{Prompt: "Who do you ask next?", Label: "The intern", Cost: 130, Tag: framing.TagWrong},
	}, recap.Steps)
	require.Equal(t, map[framing.Tag]int{framing.TagCorrect: 1, framing.TagWrong: 1}, recap.Tally)
	require.Equal(t, 3*130+45, recap.TimeSpent)
	require.Equal(t, 1, recap.Backtracks)
}

func TestRun_Reset(t *testing.T) {
	ctx := context.Background()
	r := newTestRun(t)
	require.True(t, r.Choose(ctx, "scope"))
	r.Reset()
	require.Empty(t, cmp.Diff(framing.NewState(r.Graph()), r.State()))
}

func TestGraph_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(g *framing.Graph)
	}{
		{name: "Unknown start", mutate: func(g *framing.Graph) { g.Start = "nowhere" }},
		{name: "Zero budget", mutate: func(g *framing.Graph) { g.Budget = 0 }},
		{name: "Free backtracking", mutate: func(g *framing.Graph) { g.BacktrackPenalty = 0 }},
		{name: "Dangling edge", mutate: func(g *framing.Graph) { g.Nodes[0].Edges[0].Next = "nowhere" }},
		{name: "Unknown tag", mutate: func(g *framing.Graph) { g.Nodes[0].Edges[0].Tag = "meh" }},
		{name: "Cycle", mutate: func(g *framing.Graph) { g.Nodes[3].Edges[0].Next = "q1" }},
		{name: "No framings", mutate: func(g *framing.Graph) { g.Framings = nil }},
		{name: "Dead end", mutate: func(g *framing.Graph) { g.Nodes[2].Edges = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGraph()
			tt.mutate(g)
			require.ErrorIs(t, g.Validate(), framing.ErrInvalidGraph)
		})
	}
}

func TestRun_View(t *testing.T) {
	ctx := context.Background()
	r := newTestRun(t)

	v := r.View()
	require.Equal(t, "Where do you start?", v.Prompt)
	require.Equal(t, []framing.OptionView{
		{ID: "scope", Label: "Ask about scope", TimeCost: 130},
		{ID: "jump", Label: "Jump to a conclusion", TimeCost: 50},
	}, v.Options)
	require.Empty(t, v.Revealed)
	require.False(t, v.CanBacktrack)

	require.True(t, r.Choose(ctx, "jump"))
	v = r.View()
	require.True(t, v.AtFraming)
	require.Empty(t, v.Options)
	require.Len(t, v.Framings, 3)
	require.Equal(t, framing.FramingOption{ID: "controls", Label: "Weak payment controls"}, v.Framings[0])
}

package framing

import (
	"context"
	"log/slog"
	"slices"
)

// Step is one taken edge.
type Step struct {
	Node string `json:"node" yaml:"node"`
	Edge string `json:"edge" yaml:"edge"`
	Cost int    `json:"cost" yaml:"cost"`
	Tag  Tag    `json:"tag" yaml:"tag"`
}

// State is the serializable state of one timed run.
type State struct {
	Node       string   `json:"node" yaml:"node"`
	Budget     int      `json:"budget" yaml:"budget"`
	History    []Step   `json:"history" yaml:"history"`
	Backtracks int      `json:"backtracks" yaml:"backtracks"`
	Revealed   []string `json:"revealed" yaml:"revealed"`
	// AwaitingAck is set while an edge response is shown. Choose and Backtrack are refused meanwhile.
	AwaitingAck   bool        `json:"awaiting_ack" yaml:"awaiting_ack"`
	Response      string      `json:"response,omitempty" yaml:"response,omitempty"`
	ChosenFraming string      `json:"chosen_framing,omitempty" yaml:"chosen_framing,omitempty"`
	Submission    *Submission `json:"submission,omitempty" yaml:"submission,omitempty"`
	Outcome       Outcome     `json:"outcome,omitempty" yaml:"outcome,omitempty"`
}

// NewState returns the initial state for a graph.
func NewState(g *Graph) State {
	return State{Node: g.Start, Budget: g.Budget}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	c := s
	c.History = slices.Clone(s.History)
	c.Revealed = slices.Clone(s.Revealed)
	if s.Submission != nil {
		sub := s.Submission.clone()
		c.Submission = &sub
	}
	return c
}

// Run plays one graph. A Run is not safe for concurrent use.
type Run struct {
	graph  *Graph
	state  State
	logger *slog.Logger
}

// NewRun starts a run at the graph's start node with the full budget.
func NewRun(g *Graph, logger *slog.Logger) *Run {
	return Restore(g, NewState(g), logger)
}

// Restore resumes a run from a snapshot.
func Restore(g *Graph, s State, logger *slog.Logger) *Run {
	return &Run{graph: g, state: s.Clone(), logger: logger.With(slog.String("graph", g.ID))}
}

// State returns a snapshot of the run.
func (r *Run) State() State {
	return r.state.Clone()
}

// Graph returns the content being played.
func (r *Run) Graph() *Graph {
	return r.graph
}

func (r *Run) reject(ctx context.Context, reason string, attrs ...slog.Attr) bool {
	r.logger.LogAttrs(ctx, slog.LevelDebug, "framing intent rejected",
		append([]slog.Attr{slog.String("reason", reason)}, attrs...)...)
	return false
}

// Choose takes an edge of the current node and pays its time cost. When the budget runs out the run ends with the
// timeout outcome right away: the edge is kept in the history but its reveals are discarded and the run stays on
// the current node.
func (r *Run) Choose(ctx context.Context, edgeID string) bool {
	attr := slog.String("edge", edgeID)
	if r.state.Outcome != "" {
		return r.reject(ctx, "run is over", attr)
	}
	if r.state.AwaitingAck {
		return r.reject(ctx, "awaiting acknowledgment", attr)
	}
	node, ok := r.graph.node(r.state.Node)
	if !ok {
		return r.reject(ctx, "unknown current node", slog.String("node", r.state.Node))
	}
	i := slices.IndexFunc(node.Edges, func(e Edge) bool { return e.ID == edgeID })
	if i < 0 {
		return r.reject(ctx, "unknown edge", attr, slog.String("node", node.ID))
	}
	edge := node.Edges[i]

	r.state.Budget -= edge.TimeCost
	r.state.History = append(r.state.History, Step{Node: node.ID, Edge: edge.ID, Cost: edge.TimeCost, Tag: edge.Tag})
	if r.timedOut(ctx) {
		return true
	}
	r.state.Node = edge.Next
	for _, fact := range edge.Reveals {
		if !slices.Contains(r.state.Revealed, fact) {
			r.state.Revealed = append(r.state.Revealed, fact)
		}
	}
	if edge.Response != "" {
		r.state.AwaitingAck = true
		r.state.Response = edge.Response
	}
	return true
}

// Acknowledge dismisses the shown response.
func (r *Run) Acknowledge(ctx context.Context) bool {
	if !r.state.AwaitingAck {
		return r.reject(ctx, "nothing to acknowledge")
	}
	r.state.AwaitingAck = false
	r.state.Response = ""
	return true
}

// CanBacktrack reports whether the last step can be undone: something was taken, the run is not over, no response
// is pending, and the player has not reached a framing node.
func (r *Run) CanBacktrack() bool {
	if len(r.state.History) == 0 || r.state.Outcome != "" || r.state.AwaitingAck {
		return false
	}
	node, ok := r.graph.node(r.state.Node)
	return ok && !node.Framing
}

// Backtrack returns to the node before the last step and pays the backtrack penalty. The cost of the undone edge is
// not refunded.
func (r *Run) Backtrack(ctx context.Context) bool {
	if !r.CanBacktrack() {
		return r.reject(ctx, "cannot backtrack", slog.Int("history", len(r.state.History)))
	}
	last := r.state.History[len(r.state.History)-1]
	r.state.History = r.state.History[:len(r.state.History)-1]
	r.state.Node = last.Node
	r.state.Backtracks++
	r.state.Budget -= r.graph.BacktrackPenalty
	r.timedOut(ctx)
	return true
}

// ChooseFraming picks the framing on a framing node. It can be changed until the submission is accepted.
func (r *Run) ChooseFraming(ctx context.Context, framingID string) bool {
	attr := slog.String("framing", framingID)
	if r.state.Outcome != "" {
		return r.reject(ctx, "run is over", attr)
	}
	if !r.AtFraming() {
		return r.reject(ctx, "not at a framing node", attr)
	}
	if _, ok := r.graph.framing(framingID); !ok {
		return r.reject(ctx, "unknown framing", attr)
	}
	if r.state.ChosenFraming == framingID {
		return r.reject(ctx, "framing already chosen", attr)
	}
	r.state.ChosenFraming = framingID
	return true
}

// AtFraming reports whether the run stands on a framing node.
func (r *Run) AtFraming() bool {
	node, ok := r.graph.node(r.state.Node)
	return ok && node.Framing
}

// Reset restarts the run with the full budget.
func (r *Run) Reset() {
	r.state = NewState(r.graph)
}

// timedOut ends the run when the budget is spent.
func (r *Run) timedOut(ctx context.Context) bool {
	if r.state.Budget > 0 {
		return false
	}
	r.state.AwaitingAck = false
	r.state.Response = ""
	r.state.Outcome = OutcomeTimeout
	r.logger.LogAttrs(ctx, slog.LevelInfo, "framing run timed out", slog.Int("budget", r.state.Budget))
	return true
}

// Current returns the node the run stands on.
func (r *Run) Current() (Node, bool) {
	n, ok := r.graph.node(r.state.Node)
	if !ok {
		return Node{}, false
	}
	return *n, true
}

package framing

// Outcome is the terminal classification of a run.
type Outcome string

const (
	OutcomeBest       Outcome = "best"
	OutcomeAcceptable Outcome = "acceptable"
	OutcomeMisframed  Outcome = "misframed"
	OutcomePremature  Outcome = "premature"
	OutcomeTimeout    Outcome = "timeout"
)

// ResolveOutcome classifies a run. It is pure. In order: a spent budget is a timeout, no submission is no outcome,
// a premature edge on the path makes the framing premature, and otherwise the quality of the chosen framing decides.
func ResolveOutcome(g *Graph, s *State) Outcome {
	if s.Budget <= 0 {
		return OutcomeTimeout
	}
	if s.Submission == nil && s.Outcome == "" {
		return ""
	}
	for _, step := range s.History {
		if step.Tag == TagPremature {
			return OutcomePremature
		}
	}
	f, ok := g.framing(s.ChosenFraming)
	if !ok {
		return OutcomeMisframed
	}
	switch f.Quality {
	case QualityBest:
		return OutcomeBest
	case QualityAcceptable:
		return OutcomeAcceptable
	case QualityMisframed:
	}
	return OutcomeMisframed
}

// RecapStep is one line of the recap.
type RecapStep struct {
	Prompt string `json:"prompt"`
	Label  string `json:"label"`
	Cost   int    `json:"cost"`
	Tag    Tag    `json:"tag"`
}

// Recap summarizes a run for the end screen.
type Recap struct {
	Steps      []RecapStep `json:"steps"`
	Tally      map[Tag]int `json:"tally"`
	TimeSpent  int         `json:"time_spent"`
	TimeLeft   int         `json:"time_left"`
	Backtracks int         `json:"backtracks"`
	Framing    string      `json:"framing,omitempty"`
	Outcome    Outcome     `json:"outcome,omitempty"`
}

// Recap builds the summary of the current run.
func (r *Run) Recap() Recap {
	g, s := r.graph, &r.state
	rc := Recap{
		Tally:      map[Tag]int{},
		TimeSpent:  g.Budget - max(s.Budget, 0),
		TimeLeft:   max(s.Budget, 0),
		Backtracks: s.Backtracks,
		Outcome:    s.Outcome,
	}
	if f, ok := g.framing(s.ChosenFraming); ok {
		rc.Framing = f.Label
	}
	for _, step := range s.History {
		line := RecapStep{Cost: step.Cost, Tag: step.Tag}
		if n, ok := g.node(step.Node); ok {
			line.Prompt = n.Prompt
			for _, e := range n.Edges {
				if e.ID == step.Edge {
					line.Label = e.Label
				}
			}
		}
		rc.Steps = append(rc.Steps, line)
		rc.Tally[step.Tag]++
	}
	return rc
}

package framing

// View is what the player sees of a run. Edge tags, targets and framing qualities stay hidden.
type View struct {
	GraphTitle   string          `json:"graph_title"`
	Node         string          `json:"node"`
	Prompt       string          `json:"prompt"`
	AtFraming    bool            `json:"at_framing"`
	Options      []OptionView    `json:"options,omitempty"`
	Framings     []FramingOption `json:"framings,omitempty"`
	Budget       int             `json:"budget"`
	Revealed     []string        `json:"revealed"`
	AwaitingAck  bool            `json:"awaiting_ack"`
	Response     string          `json:"response,omitempty"`
	CanBacktrack bool            `json:"can_backtrack"`
	Chosen       string          `json:"chosen_framing,omitempty"`
	Outcome      Outcome         `json:"outcome,omitempty"`
}

type OptionView struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	TimeCost int    `json:"time_cost"`
}

type FramingOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// View builds the player's view of the run.
func (r *Run) View() View {
	s := &r.state
	v := View{
		GraphTitle:   r.graph.Title,
		Node:         s.Node,
		Budget:       s.Budget,
		Revealed:     append([]string{}, s.Revealed...),
		AwaitingAck:  s.AwaitingAck,
		Response:     s.Response,
		CanBacktrack: r.CanBacktrack(),
		Chosen:       s.ChosenFraming,
		Outcome:      s.Outcome,
	}
	n, ok := r.Current()
	if !ok {
		return v
	}
	v.Prompt = n.Prompt
	v.AtFraming = n.Framing
	if n.Framing {
		for _, f := range r.graph.Framings {
			v.Framings = append(v.Framings, FramingOption{ID: f.ID, Label: f.Label})
		}
		return v
	}
	for _, e := range n.Edges {
		v.Options = append(v.Options, OptionView{ID: e.ID, Label: e.Label, TimeCost: e.TimeCost})
	}
	return v
}

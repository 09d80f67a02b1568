package game

import (
	"maps"
	"slices"
)

// Progress is the read-only view the presentation layer renders.
type Progress struct {
	CaseID       string   `json:"case_id"`
	CaseTitle    string   `json:"case_title"`
	Phase        int      `json:"phase"`
	PhaseID      string   `json:"phase_id"`
	PhaseName    string   `json:"phase_name"`
	CallToAction string   `json:"call_to_action,omitempty"`
	Rooms        []string `json:"rooms,omitempty"`
	CanAdvance   bool     `json:"can_advance"`

	Evidence  []EvidenceView `json:"evidence"`
	Collected int            `json:"collected"`
	Viewed    int            `json:"viewed"`

	Score        int            `json:"score"`
	Trust        map[string]int `json:"trust"`
	OverallTrust int            `json:"overall_trust"`
	TrustLevel   TrustLevel     `json:"trust_level"`

	Notebook     []Note           `json:"notebook"`
	Conversation ConversationView `json:"conversation"`
	Insights     []string         `json:"insights"`

	SelectedHypotheses []string `json:"selected_hypotheses"`
	HypothesisCap      int      `json:"hypothesis_cap"`
	SelectionOpen      bool     `json:"selection_open"`
	CanSwap            bool     `json:"can_swap"`
	HasUsedSwap        bool     `json:"has_used_swap"`

	ConclusionOpen bool       `json:"conclusion_open"`
	AttemptsLeft   int        `json:"attempts_left"`
	Ending         EndingKind `json:"ending,omitempty"`
}

type EvidenceView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Room      string `json:"room,omitempty"`
	Unlocked  bool   `json:"unlocked"`
	Collected bool   `json:"collected"`
	Viewed    bool   `json:"viewed"`
}

// ConversationView resolves the current node of the conversation into displayable text.
type ConversationView struct {
	Speaker                string             `json:"speaker,omitempty"`
	SpeakerName            string             `json:"speaker_name,omitempty"`
	Status                 ConversationStatus `json:"status"`
	NodeID                 string             `json:"node_id,omitempty"`
	Question               string             `json:"question,omitempty"`
	Choices                []ChoiceView       `json:"choices,omitempty"`
	Response               string             `json:"response,omitempty"`
	FollowUp               string             `json:"follow_up,omitempty"`
	AwaitingAcknowledgment bool               `json:"awaiting_acknowledgment"`
}

type ChoiceView struct {
	ID    string    `json:"id"`
	Label string    `json:"label"`
	Tag   ResultTag `json:"tag,omitempty"`
}

// Progress builds the view of the current state.
func (e *Engine) Progress() Progress {
	s := &e.state
	idx, phase := e.Phase()
	p := Progress{
		CaseID:             e.catalog.Case.ID,
		CaseTitle:          e.catalog.Case.Title,
		Phase:              idx,
		PhaseID:            phase.ID,
		PhaseName:          phase.Name,
		CallToAction:       phase.CallToAction,
		Rooms:              slices.Clone(phase.Rooms),
		CanAdvance:         e.CanAdvance(),
		Score:              s.Score,
		Trust:              maps.Clone(s.Trust),
		OverallTrust:       e.OverallTrust(),
		TrustLevel:         e.TrustLevel(),
		Notebook:           slices.Clone(s.Notebook),
		Conversation:       e.conversationView(),
		Insights:           slices.Clone(s.Insights),
		SelectedHypotheses: slices.Clone(s.SelectedHypotheses),
		HypothesisCap:      e.catalog.hypothesisCap(),
		SelectionOpen:      phase.SelectionOpen,
		CanSwap:            e.CanSwap(),
		HasUsedSwap:        s.HasUsedSwap,
		ConclusionOpen:     phase.ConclusionOpen && s.Ending == "",
		AttemptsLeft:       e.AttemptsLeft(),
		Ending:             s.Ending,
	}
	for _, ev := range e.catalog.Evidence {
		view := EvidenceView{
			ID:        ev.ID,
			Title:     ev.Title,
			Room:      ev.Room,
			Unlocked:  isUnlocked(e.idx, s, ev.ID),
			Collected: s.Collected[ev.ID],
			Viewed:    s.Viewed[ev.ID],
		}
		if view.Collected {
			p.Collected++
		}
		if view.Viewed {
			p.Viewed++
		}
		p.Evidence = append(p.Evidence, view)
	}
	return p
}

func (e *Engine) conversationView() ConversationView {
	conv := e.state.Conversation
	view := ConversationView{
		Speaker:                conv.Speaker,
		Status:                 conv.Status,
		NodeID:                 conv.NodeID,
		Response:               conv.Response,
		FollowUp:               conv.FollowUp,
		AwaitingAcknowledgment: conv.AwaitingAcknowledgment(),
	}
	if d, ok := e.idx.dialogues[conv.Speaker]; ok {
		view.SpeakerName = d.Name
	}
	if n, ok := e.idx.nodes[conv.NodeID]; ok {
		view.Question = n.Text
		if conv.Status == ConversationAwaitingChoice {
			for _, c := range n.Choices {
				cv := ChoiceView{ID: c.ID, Label: c.Label}
				if c.Consequence != nil {
					cv.Tag = c.Consequence.Tag()
				}
				view.Choices = append(view.Choices, cv)
			}
		}
	}
	return view
}

package game

import (
	"maps"
	"slices"
)

// State is the complete mutable state of one playthrough. It has no behavior of its own so that any persistence
// layer can snapshot and restore it. Maps with bool values are sets.
type State struct {
	Phase int `json:"phase" yaml:"phase"`

	Unlocked  map[string]bool `json:"unlocked" yaml:"unlocked"`
	Collected map[string]bool `json:"collected" yaml:"collected"`
	Viewed    map[string]bool `json:"viewed" yaml:"viewed"`

	Score   int             `json:"score" yaml:"score"`
	Awarded map[string]bool `json:"awarded" yaml:"awarded"`
	Trust   map[string]int  `json:"trust" yaml:"trust"`

	Notebook    []Note   `json:"notebook" yaml:"notebook"`
	NoteHistory []string `json:"note_history" yaml:"note_history"`

	Conversation   Conversation    `json:"conversation" yaml:"conversation"`
	CompletedNodes map[string]bool `json:"completed_nodes" yaml:"completed_nodes"`
	Visits         map[string]int  `json:"visits" yaml:"visits"`

	AnalysisRuns int      `json:"analysis_runs" yaml:"analysis_runs"`
	Insights     []string `json:"insights" yaml:"insights"`

	SelectedHypotheses []string `json:"selected_hypotheses" yaml:"selected_hypotheses"`
	HasUsedSwap        bool     `json:"has_used_swap" yaml:"has_used_swap"`
	FinalHypothesis    string   `json:"final_hypothesis,omitempty" yaml:"final_hypothesis,omitempty"`

	Conclusion         *Answer `json:"conclusion,omitempty" yaml:"conclusion,omitempty"`
	ConclusionAttempts int     `json:"conclusion_attempts" yaml:"conclusion_attempts"`
	IsCorrect          bool    `json:"is_correct" yaml:"is_correct"`

	Ending EndingKind `json:"ending,omitempty" yaml:"ending,omitempty"`
}

// NoteSource tags where a notebook entry came from.
type NoteSource string

const (
	NoteSourceEvidence  NoteSource = "evidence"
	NoteSourceInterview NoteSource = "interview"
	NoteSourceDashboard NoteSource = "dashboard"
	NoteSourceStory     NoteSource = "story"
)

// Note is a notebook entry.
type Note struct {
	ID       string     `json:"id" yaml:"id"`
	Text     string     `json:"text" yaml:"text"`
	Source   NoteSource `json:"source" yaml:"source"`
	SourceID string     `json:"source_id,omitempty" yaml:"source_id,omitempty"`
}

// Answer is a submitted conclusion.
type Answer struct {
	Hypothesis string `json:"hypothesis,omitempty" yaml:"hypothesis,omitempty"`
	Cause      string `json:"cause" yaml:"cause"`
	Project    string `json:"project" yaml:"project"`
	Person     string `json:"person" yaml:"person"`
}

// NewState returns the initial state for a catalog.
func NewState(c *Catalog) State {
	trust := make(map[string]int, len(c.Trust.Initial))
	for entity, v := range c.Trust.Initial {
		trust[entity] = clampTrust(v)
	}
	return State{
		Unlocked:       map[string]bool{},
		Collected:      map[string]bool{},
		Viewed:         map[string]bool{},
		Awarded:        map[string]bool{},
		Trust:          trust,
		CompletedNodes: map[string]bool{},
		Visits:         map[string]int{},
		Conversation:   Conversation{Status: ConversationIdle},
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	c := s
	c.Unlocked = cloneMap(s.Unlocked)
	c.Collected = cloneMap(s.Collected)
	c.Viewed = cloneMap(s.Viewed)
	c.Awarded = cloneMap(s.Awarded)
	c.Trust = cloneMap(s.Trust)
	c.CompletedNodes = cloneMap(s.CompletedNodes)
	c.Visits = cloneMap(s.Visits)
	c.Notebook = slices.Clone(s.Notebook)
	c.NoteHistory = slices.Clone(s.NoteHistory)
	c.Insights = slices.Clone(s.Insights)
	c.SelectedHypotheses = slices.Clone(s.SelectedHypotheses)
	if s.Conclusion != nil {
		answer := *s.Conclusion
		c.Conclusion = &answer
	}
	return c
}

// normalize fills nil maps of a restored snapshot so that mutators can write to them.
func (s *State) normalize() {
	if s.Unlocked == nil {
		s.Unlocked = map[string]bool{}
	}
	if s.Collected == nil {
		s.Collected = map[string]bool{}
	}
	if s.Viewed == nil {
		s.Viewed = map[string]bool{}
	}
	if s.Awarded == nil {
		s.Awarded = map[string]bool{}
	}
	if s.Trust == nil {
		s.Trust = map[string]int{}
	}
	if s.CompletedNodes == nil {
		s.CompletedNodes = map[string]bool{}
	}
	if s.Visits == nil {
		s.Visits = map[string]int{}
	}
	if s.Conversation.Status == "" {
		s.Conversation.Status = ConversationIdle
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

func (s *State) hasInsight(id string) bool {
	return slices.Contains(s.Insights, id)
}

func (s *State) isSelected(id string) bool {
	return slices.Contains(s.SelectedHypotheses, id)
}

func (s *State) noteIndex(id string) int {
	return slices.IndexFunc(s.Notebook, func(n Note) bool { return n.ID == id })
}

package game

import (
	"time"
)

// Catalog is the static content of one case. The engine never mutates it.
type Catalog struct {
	Case          CaseInfo
	Evidence      []Evidence
	Dialogues     []Dialogue
	Hypotheses    []Hypothesis
	HypothesisCap int
	Insights      []Insight
	Phases        []Phase
	Solution      Solution
	Endings       map[EndingKind]EndingText
	Scoring       Scoring
	Trust         TrustConfig
}

// CaseInfo describes the case for display.
type CaseInfo struct {
	ID       string
	Title    string
	Synopsis string
}

// UnlockKind selects how a piece of evidence becomes reachable.
type UnlockKind string

const (
	// UnlockAlways evidence is reachable from the start.
	UnlockAlways UnlockKind = "always"
	// UnlockAfterCollected evidence becomes reachable once Count other items have been collected.
	UnlockAfterCollected UnlockKind = "after_collected"
	// UnlockExplicit evidence stays locked until an unlock action targets it.
	UnlockExplicit UnlockKind = "explicit"
)

// UnlockRule is the unlock precondition of a piece of evidence.
type UnlockRule struct {
	Kind  UnlockKind
	Count int
}

// Evidence is a discoverable artifact.
type Evidence struct {
	ID          string
	Title       string
	Description string
	Room        string
	Unlock      UnlockRule
	// Points overrides Scoring.EvidencePoints when positive.
	Points int
	Data   EvidenceData
}

// EvidenceData is the structured content that analysis predicates read.
type EvidenceData struct {
	Invoices    []Invoice
	Timeline    []TimelineEvent
	Allocations []Allocation
}

type Invoice struct {
	Number     string
	Supplier   string
	Amount     float64
	HasReceipt bool
}

type TimelineEvent struct {
	Label string
	At    time.Time
}

type Allocation struct {
	Project string
	Amount  float64
}

// Dialogue is the conversation tree of one speaker.
type Dialogue struct {
	Speaker string
	Name    string
	Room    string
	Nodes   []Node
}

// Node is one question put to a speaker.
type Node struct {
	ID      string
	Text    string
	Trigger Trigger
	Choices []Choice
	// Next is the preferred node after this one is resolved, if it is available.
	Next string
}

// Choice is one option the player can pick on a node.
type Choice struct {
	ID          string
	Label       string
	Response    string
	FollowUp    string
	Consequence Consequence
}

// Hypothesis is a candidate explanation.
type Hypothesis struct {
	ID      string
	Text    string
	Suspect string
	// Requires gates whether the hypothesis may be picked. The zero value always holds.
	Requires Trigger
}

// Insight is a derived fact discovered by analysis.
type Insight struct {
	ID          string
	Name        string
	Description string
	Points      int
	// Requires lists evidence that must be collected before the analysis can see the insight.
	Requires []string
	// Analysis is nil for insights that can only be discovered directly.
	Analysis Analysis
}

// Phase is one step of the fixed phase table.
type Phase struct {
	ID             string
	Name           string
	Rooms          []string
	CallToAction   string
	SelectionOpen  bool
	OffersSwap     bool
	SwapRequires   []string
	ConclusionOpen bool
	Exit           PhaseGate
}

// PhaseGate lists what must hold before leaving a phase.
type PhaseGate struct {
	MinViewed int
	Viewed    []string
	Collected []string
	Insights  []string
}

// Solution is the ground truth the conclusion is scored against.
type Solution struct {
	Hypothesis string
	Cause      string
	Project    string
	Person     string
	// Diagnostics are notebook or insight ids that separate an excellent ending from a partial one.
	Diagnostics        []string
	ExcellentThreshold int
}

type EndingText struct {
	Title string
	Text  string
}

// Scoring holds the fixed point values and penalties of a case.
type Scoring struct {
	EvidencePoints              int
	ConclusionBonus             int
	WrongConclusionTrustPenalty int
	MaxConclusionAttempts       int
}

// TrustConfig declares the trust entities and their starting values.
type TrustConfig struct {
	Initial map[string]int
	// Default receives penalties and trust changes aimed at undeclared entities.
	Default string
	Medium  int
	High    int
}

func (c *Catalog) maxAttempts() int {
	if c.Scoring.MaxConclusionAttempts <= 0 {
		return 3 //nolint:mnd // three strikes unless the case says otherwise.
	}
	return c.Scoring.MaxConclusionAttempts
}

func (c *Catalog) hypothesisCap() int {
	if c.HypothesisCap <= 0 {
		return 4 //nolint:mnd // default selection cap.
	}
	return c.HypothesisCap
}

// index is the id lookup built once per engine.
type index struct {
	evidence   map[string]*Evidence
	dialogues  map[string]*Dialogue
	nodes      map[string]*Node
	nodeOwner  map[string]string
	hypotheses map[string]*Hypothesis
	insights   map[string]*Insight
	// clues maps note ids written by dialogue choices to the speaker that owns them.
	clues map[string]string
}

func newIndex(c *Catalog) *index {
	idx := &index{
		evidence:   make(map[string]*Evidence, len(c.Evidence)),
		dialogues:  make(map[string]*Dialogue, len(c.Dialogues)),
		nodes:      map[string]*Node{},
		nodeOwner:  map[string]string{},
		hypotheses: make(map[string]*Hypothesis, len(c.Hypotheses)),
		insights:   make(map[string]*Insight, len(c.Insights)),
		clues:      map[string]string{},
	}
	for i := range c.Evidence {
		idx.evidence[c.Evidence[i].ID] = &c.Evidence[i]
	}
	for i := range c.Dialogues {
		d := &c.Dialogues[i]
		idx.dialogues[d.Speaker] = d
		for j := range d.Nodes {
			idx.nodes[d.Nodes[j].ID] = &d.Nodes[j]
			idx.nodeOwner[d.Nodes[j].ID] = d.Speaker
			for _, ch := range d.Nodes[j].Choices {
				if note, ok := ch.Consequence.(AppendNote); ok {
					idx.clues[note.noteID(d.Nodes[j].ID)] = d.Speaker
				}
			}
		}
	}
	for i := range c.Hypotheses {
		idx.hypotheses[c.Hypotheses[i].ID] = &c.Hypotheses[i]
	}
	for i := range c.Insights {
		idx.insights[c.Insights[i].ID] = &c.Insights[i]
	}
	return idx
}

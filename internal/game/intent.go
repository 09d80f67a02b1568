package game

import (
	"log/slog"
	"slices"

	"github.com/myrjola/casefile/internal/errors"
)

// IntentKind names a discrete player action.
type IntentKind string

const (
	IntentCollectEvidence    IntentKind = "collect_evidence"
	IntentViewEvidence       IntentKind = "view_evidence"
	IntentUnlockEvidence     IntentKind = "unlock_evidence"
	IntentOpenConversation   IntentKind = "open_conversation"
	IntentSelectChoice       IntentKind = "select_choice"
	IntentAcknowledge        IntentKind = "acknowledge"
	IntentCloseConversation  IntentKind = "close_conversation"
	IntentSaveNote           IntentKind = "save_note"
	IntentRemoveNote         IntentKind = "remove_note"
	IntentModifyTrust        IntentKind = "modify_trust"
	IntentRunAnalysis        IntentKind = "run_analysis"
	IntentDiscoverInsight    IntentKind = "discover_insight"
	IntentSelectHypothesis   IntentKind = "select_hypothesis"
	IntentDeselectHypothesis IntentKind = "deselect_hypothesis"
	IntentSwapHypothesis     IntentKind = "swap_hypothesis"
	IntentAdvancePhase       IntentKind = "advance_phase"
	IntentSubmitConclusion   IntentKind = "submit_conclusion"
	IntentResetGame          IntentKind = "reset_game"
)

var intentKinds = []IntentKind{
	IntentCollectEvidence, IntentViewEvidence, IntentUnlockEvidence, IntentOpenConversation, IntentSelectChoice,
	IntentAcknowledge, IntentCloseConversation, IntentSaveNote, IntentRemoveNote, IntentModifyTrust,
	IntentRunAnalysis, IntentDiscoverInsight, IntentSelectHypothesis, IntentDeselectHypothesis,
	IntentSwapHypothesis, IntentAdvancePhase, IntentSubmitConclusion, IntentResetGame,
}

var ErrUnknownIntent = errors.NewSentinel("unknown intent")

// Intent is a player action decoded at the presentation boundary. Only the fields relevant to Kind are read.
type Intent struct {
	Kind         IntentKind `json:"kind" yaml:"kind"`
	EvidenceID   string     `json:"evidence_id,omitempty" yaml:"evidence_id,omitempty"`
	Speaker      string     `json:"speaker,omitempty" yaml:"speaker,omitempty"`
	NodeID       string     `json:"node_id,omitempty" yaml:"node_id,omitempty"`
	ChoiceID     string     `json:"choice_id,omitempty" yaml:"choice_id,omitempty"`
	Note         *Note      `json:"note,omitempty" yaml:"note,omitempty"`
	NoteID       string     `json:"note_id,omitempty" yaml:"note_id,omitempty"`
	Entity       string     `json:"entity,omitempty" yaml:"entity,omitempty"`
	Delta        int        `json:"delta,omitempty" yaml:"delta,omitempty"`
	InsightID    string     `json:"insight_id,omitempty" yaml:"insight_id,omitempty"`
	HypothesisID string     `json:"hypothesis_id,omitempty" yaml:"hypothesis_id,omitempty"`
	// NewHypothesisID is the replacement in a swap. SkipSwap spends the swap without changing the selection.
	NewHypothesisID string  `json:"new_hypothesis_id,omitempty" yaml:"new_hypothesis_id,omitempty"`
	Answer          *Answer `json:"answer,omitempty" yaml:"answer,omitempty"`
}

// Validate checks that the intent kind exists. Preconditions on the state are checked by Engine.Apply instead.
func (in Intent) Validate() error {
	if !slices.Contains(intentKinds, in.Kind) {
		return errors.Wrap(ErrUnknownIntent, "validate intent", slog.String("kind", string(in.Kind)))
	}
	return nil
}

// Delta is what an intent changed.
type Delta struct {
	Intent  IntentKind `json:"intent"`
	Applied bool       `json:"applied"`
	// ScoreGained is negative only for a reset.
	ScoreGained  int            `json:"score_gained"`
	TrustChanges map[string]int `json:"trust_changes,omitempty"`
	Unlocked     []string       `json:"unlocked,omitempty"`
	Collected    []string       `json:"collected,omitempty"`
	Viewed       []string       `json:"viewed,omitempty"`
	Insights     []string       `json:"insights,omitempty"`
	NotesAdded   []string       `json:"notes_added,omitempty"`
	NotesRemoved []string       `json:"notes_removed,omitempty"`
	PhaseChanged bool           `json:"phase_changed"`
	Phase        int            `json:"phase"`
	Conversation Conversation   `json:"conversation"`
	// Verdict classifies a submitted conclusion even when the game continues after a wrong answer.
	Verdict EndingKind `json:"verdict,omitempty"`
	// Ending is set when this intent ended the game.
	Ending EndingKind `json:"ending,omitempty"`
}

func diff(idx *index, c *Catalog, before, after *State, in Intent) Delta {
	d := Delta{
		Intent:       in.Kind,
		Applied:      true,
		ScoreGained:  after.Score - before.Score,
		PhaseChanged: after.Phase != before.Phase,
		Phase:        after.Phase,
		Conversation: after.Conversation,
	}
	for entity, v := range after.Trust {
		if change := v - before.Trust[entity]; change != 0 {
			if d.TrustChanges == nil {
				d.TrustChanges = map[string]int{}
			}
			d.TrustChanges[entity] = change
		}
	}
	for _, ev := range c.Evidence {
		if isUnlocked(idx, after, ev.ID) && !isUnlocked(idx, before, ev.ID) {
			d.Unlocked = append(d.Unlocked, ev.ID)
		}
		if after.Collected[ev.ID] && !before.Collected[ev.ID] {
			d.Collected = append(d.Collected, ev.ID)
		}
		if after.Viewed[ev.ID] && !before.Viewed[ev.ID] {
			d.Viewed = append(d.Viewed, ev.ID)
		}
	}
	for _, id := range after.Insights {
		if !before.hasInsight(id) {
			d.Insights = append(d.Insights, id)
		}
	}
	for _, n := range after.Notebook {
		if before.noteIndex(n.ID) < 0 {
			d.NotesAdded = append(d.NotesAdded, n.ID)
		}
	}
	for _, n := range before.Notebook {
		if after.noteIndex(n.ID) < 0 {
			d.NotesRemoved = append(d.NotesRemoved, n.ID)
		}
	}
	if after.Ending != before.Ending {
		d.Ending = after.Ending
	}
	return d
}

package game

import (
	"context"
	"log/slog"
)

// Engine owns the state of one playthrough. Every mutation goes through Apply, which works on a clone and commits it
// only when the intent was accepted, so an intent is applied completely or not at all.
//
// An Engine is not safe for concurrent use. Callers serving several requests for the same game serialize access.
type Engine struct {
	catalog *Catalog
	idx     *index
	state   State
	logger  *slog.Logger
}

// NewEngine starts a fresh playthrough of the catalog. The catalog must not be modified afterwards.
func NewEngine(catalog *Catalog, logger *slog.Logger) *Engine {
	return Restore(catalog, NewState(catalog), logger)
}

// Restore resumes a playthrough from a snapshot previously obtained from State.
func Restore(catalog *Catalog, s State, logger *slog.Logger) *Engine {
	s = s.Clone()
	s.normalize()
	return &Engine{
		catalog: catalog,
		idx:     newIndex(catalog),
		state:   s,
		logger:  logger.With(slog.String("case", catalog.Case.ID)),
	}
}

// State returns a snapshot of the current state. Changing it does not affect the engine.
func (e *Engine) State() State {
	return e.state.Clone()
}

// Catalog returns the read-only content the engine plays.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// txn is one intent being applied to a working copy of the state.
type txn struct {
	ctx    context.Context
	cat    *Catalog
	idx    *index
	s      *State
	logger *slog.Logger
}

// reject logs why an intent was a no-op. Rejections are expected during normal play, e.g. on double clicks.
func (t *txn) reject(reason string, attrs ...slog.Attr) bool {
	t.logger.LogAttrs(t.ctx, slog.LevelDebug, "intent rejected",
		append([]slog.Attr{slog.String("reason", reason)}, attrs...)...)
	return false
}

// Apply validates the intent against the current state and applies it atomically. Intents whose preconditions do
// not hold leave the state unchanged and report Applied false.
func (e *Engine) Apply(ctx context.Context, in Intent) Delta {
	before := e.state
	working := e.state.Clone()
	t := &txn{
		ctx:    ctx,
		cat:    e.catalog,
		idx:    e.idx,
		s:      &working,
		logger: e.logger.With(slog.String("intent", string(in.Kind))),
	}

	var applied bool
	switch {
	case in.Kind == IntentResetGame:
		working = NewState(e.catalog)
		applied = true
	case before.Ending != "":
		applied = t.reject("game is over", slog.String("ending", string(before.Ending)))
	default:
		applied = t.dispatch(in)
	}

	if !applied {
		return Delta{Intent: in.Kind, Phase: before.Phase, Conversation: before.Conversation}
	}
	e.state = working
	delta := diff(e.idx, e.catalog, &before, &e.state, in)
	if in.Kind == IntentSubmitConclusion {
		delta.Verdict = ResolveEnding(e.catalog, &e.state)
	}

	if delta.PhaseChanged {
		e.logger.LogAttrs(ctx, slog.LevelInfo, "phase advanced",
			slog.Int("phase", e.state.Phase), slog.String("phase_id", e.phaseID()))
	}
	if delta.Ending != "" {
		e.logger.LogAttrs(ctx, slog.LevelInfo, "game ended",
			slog.String("ending", string(delta.Ending)), slog.Int("score", e.state.Score))
	}
	return delta
}

func (t *txn) dispatch(in Intent) bool {
	switch in.Kind {
	case IntentCollectEvidence:
		return t.collect(in.EvidenceID)
	case IntentViewEvidence:
		return t.view(in.EvidenceID)
	case IntentUnlockEvidence:
		return t.unlock(in.EvidenceID)
	case IntentOpenConversation:
		return t.openConversation(in.Speaker)
	case IntentSelectChoice:
		return t.selectChoice(in.NodeID, in.ChoiceID)
	case IntentAcknowledge:
		return t.acknowledge()
	case IntentCloseConversation:
		return t.closeConversation()
	case IntentSaveNote:
		if in.Note == nil {
			return t.reject("missing note")
		}
		return t.writeNote(*in.Note)
	case IntentRemoveNote:
		return t.removeNote(in.NoteID)
	case IntentModifyTrust:
		return t.modifyTrust(in.Entity, in.Delta)
	case IntentRunAnalysis:
		return t.runAnalysis()
	case IntentDiscoverInsight:
		return t.discoverInsight(in.InsightID)
	case IntentSelectHypothesis:
		return t.selectHypothesis(in.HypothesisID)
	case IntentDeselectHypothesis:
		return t.deselectHypothesis(in.HypothesisID)
	case IntentSwapHypothesis:
		return t.swapHypothesis(in.HypothesisID, in.NewHypothesisID)
	case IntentAdvancePhase:
		return t.advancePhase()
	case IntentSubmitConclusion:
		if in.Answer == nil {
			return t.reject("missing answer")
		}
		return t.submitConclusion(*in.Answer)
	case IntentResetGame:
		// Handled by Apply so that it also works after the game is over.
	}
	return t.reject("unknown intent")
}

func (e *Engine) phaseID() string {
	phase, _ := currentPhase(e.catalog, &e.state)
	return phase.ID
}

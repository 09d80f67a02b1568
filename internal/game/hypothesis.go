package game

import (
	"log/slog"
	"slices"
)

// SkipSwap spends the one-time swap without changing the selection.
const SkipSwap = "skip"

func canUnlockHypothesis(idx *index, s *State, id string) bool {
	h, ok := idx.hypotheses[id]
	if !ok {
		return false
	}
	return h.Requires.holds(triggerEnv{state: s})
}

func (t *txn) selectHypothesis(id string) bool {
	attr := slog.String("hypothesis_id", id)
	if _, ok := t.idx.hypotheses[id]; !ok {
		return t.reject("unknown hypothesis", attr)
	}
	if phase, _ := currentPhase(t.cat, t.s); !phase.SelectionOpen {
		return t.reject("hypothesis selection closed", attr)
	}
	if t.s.isSelected(id) {
		return t.reject("hypothesis already selected", attr)
	}
	if len(t.s.SelectedHypotheses) >= t.cat.hypothesisCap() {
		return t.reject("hypothesis cap reached", attr, slog.Int("cap", t.cat.hypothesisCap()))
	}
	if !canUnlockHypothesis(t.idx, t.s, id) {
		return t.reject("hypothesis locked", attr)
	}
	t.s.SelectedHypotheses = append(t.s.SelectedHypotheses, id)
	return true
}

func (t *txn) deselectHypothesis(id string) bool {
	attr := slog.String("hypothesis_id", id)
	if phase, _ := currentPhase(t.cat, t.s); !phase.SelectionOpen {
		return t.reject("hypothesis selection closed", attr)
	}
	i := slices.Index(t.s.SelectedHypotheses, id)
	if i < 0 {
		return t.reject("hypothesis not selected", attr)
	}
	t.s.SelectedHypotheses = slices.Delete(t.s.SelectedHypotheses, i, i+1)
	return true
}

// canSwap reports whether the current phase offers the swap and its gate holds.
func canSwap(c *Catalog, s *State) bool {
	if s.HasUsedSwap {
		return false
	}
	phase, ok := currentPhase(c, s)
	if !ok || !phase.OffersSwap {
		return false
	}
	for _, id := range phase.SwapRequires {
		if !s.Viewed[id] {
			return false
		}
	}
	return true
}

// swapHypothesis replaces oldID with newID in place, once per playthrough.
func (t *txn) swapHypothesis(oldID, newID string) bool {
	attrs := []slog.Attr{slog.String("old_id", oldID), slog.String("new_id", newID)}
	if t.s.HasUsedSwap {
		return t.reject("swap already used", attrs...)
	}
	if !canSwap(t.cat, t.s) {
		return t.reject("swap not offered", attrs...)
	}
	if oldID == SkipSwap || newID == SkipSwap {
		t.s.HasUsedSwap = true
		return true
	}
	i := slices.Index(t.s.SelectedHypotheses, oldID)
	if i < 0 {
		return t.reject("hypothesis not selected", attrs...)
	}
	if _, ok := t.idx.hypotheses[newID]; !ok {
		return t.reject("unknown hypothesis", attrs...)
	}
	if t.s.isSelected(newID) {
		return t.reject("hypothesis already selected", attrs...)
	}
	if !canUnlockHypothesis(t.idx, t.s, newID) {
		return t.reject("hypothesis locked", attrs...)
	}
	t.s.SelectedHypotheses[i] = newID
	t.s.HasUsedSwap = true
	return true
}

// CanUnlockHypothesis reports whether the hypothesis exists and its requirement holds.
func (e *Engine) CanUnlockHypothesis(id string) bool {
	return canUnlockHypothesis(e.idx, &e.state, id)
}

// CanSwap reports whether a swap would currently be accepted.
func (e *Engine) CanSwap() bool {
	return canSwap(e.catalog, &e.state)
}

// SelectedHypotheses returns the selected hypothesis ids in selection order.
func (e *Engine) SelectedHypotheses() []string {
	return slices.Clone(e.state.SelectedHypotheses)
}

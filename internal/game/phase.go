package game

import (
	"log/slog"
)

func currentPhase(c *Catalog, s *State) (Phase, bool) {
	if s.Phase < 0 || s.Phase >= len(c.Phases) {
		return Phase{}, false
	}
	return c.Phases[s.Phase], true
}

// advanceBlocker returns why the phase cannot advance, or the empty string when it can.
func advanceBlocker(c *Catalog, s *State) string {
	if s.Ending != "" {
		return "game is over"
	}
	phase, ok := currentPhase(c, s)
	if !ok || s.Phase+1 >= len(c.Phases) {
		return "no next phase"
	}
	gate := phase.Exit
	viewed := 0
	for _, ok := range s.Viewed {
		if ok {
			viewed++
		}
	}
	if viewed < gate.MinViewed {
		return "not enough evidence viewed"
	}
	for _, id := range gate.Viewed {
		if !s.Viewed[id] {
			return "required evidence not viewed"
		}
	}
	for _, id := range gate.Collected {
		if !s.Collected[id] {
			return "required evidence not collected"
		}
	}
	for _, id := range gate.Insights {
		if !s.hasInsight(id) {
			return "required insight missing"
		}
	}
	if phase.SelectionOpen && len(s.SelectedHypotheses) != c.hypothesisCap() {
		return "hypothesis selection incomplete"
	}
	return ""
}

// advancePhase moves one step forward. Phases never move back.
func (t *txn) advancePhase() bool {
	if reason := advanceBlocker(t.cat, t.s); reason != "" {
		return t.reject(reason, slog.Int("phase", t.s.Phase))
	}
	t.s.Phase++
	return true
}

// CanAdvance reports whether an advance_phase intent would be accepted.
func (e *Engine) CanAdvance() bool {
	return advanceBlocker(e.catalog, &e.state) == ""
}

// Phase returns the current phase index and its definition.
func (e *Engine) Phase() (int, Phase) {
	phase, _ := currentPhase(e.catalog, &e.state)
	return e.state.Phase, phase
}

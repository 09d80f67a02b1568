package game

import (
	"log/slog"
	"strings"
)

func sameAnswer(got, want string) bool {
	return strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(want))
}

// hypothesisMatches is true when the case has no hypothesis solution or the answer names it. A missing hypothesis
// does not match a defined one.
func hypothesisMatches(c *Catalog, a Answer) bool {
	return c.Solution.Hypothesis == "" || a.Hypothesis == c.Solution.Hypothesis
}

func isCorrect(c *Catalog, a Answer) bool {
	return sameAnswer(a.Cause, c.Solution.Cause) &&
		sameAnswer(a.Project, c.Solution.Project) &&
		sameAnswer(a.Person, c.Solution.Person) &&
		hypothesisMatches(c, a)
}

// submitConclusion scores an answer. A correct answer ends the game. A wrong one costs trust and an attempt, and
// the last attempt ends the game with the failure ending.
func (t *txn) submitConclusion(a Answer) bool {
	if phase, _ := currentPhase(t.cat, t.s); !phase.ConclusionOpen {
		return t.reject("conclusion not open", slog.Int("phase", t.s.Phase))
	}
	if t.s.ConclusionAttempts >= t.cat.maxAttempts() {
		return t.reject("no attempts left")
	}
	if a.Cause == "" || a.Project == "" || a.Person == "" {
		return t.reject("incomplete answer")
	}
	if a.Hypothesis != "" {
		if _, ok := t.idx.hypotheses[a.Hypothesis]; !ok {
			return t.reject("unknown hypothesis", slog.String("hypothesis_id", a.Hypothesis))
		}
		t.s.FinalHypothesis = a.Hypothesis
	}
	t.s.Conclusion = &a

	if isCorrect(t.cat, a) {
		t.s.IsCorrect = true
		t.award("conclusion", t.cat.Scoring.ConclusionBonus)
		t.s.Ending = ResolveEnding(t.cat, t.s)
		return true
	}

	t.s.ConclusionAttempts++
	if penalty := t.cat.Scoring.WrongConclusionTrustPenalty; penalty > 0 {
		t.modifyTrust(t.cat.Trust.Default, -penalty)
	}
	if t.s.ConclusionAttempts >= t.cat.maxAttempts() {
		t.s.Ending = ResolveEnding(t.cat, t.s)
	}
	return true
}

// AttemptsLeft returns how many wrong conclusions the player can still afford.
func (e *Engine) AttemptsLeft() int {
	return max(e.catalog.maxAttempts()-e.state.ConclusionAttempts, 0)
}

package game

import (
	"slices"
)

// EndingKind is the terminal classification of a playthrough.
type EndingKind string

const (
	EndingExcellent    EndingKind = "excellent"
	EndingPartial      EndingKind = "partial"
	EndingWrongPerson  EndingKind = "wrong_person"
	EndingWrongProject EndingKind = "wrong_project"
	EndingWrongCause   EndingKind = "wrong_cause"
	EndingFailure      EndingKind = "failure"
	EndingUnresolved   EndingKind = "unresolved"
)

// ResolveEnding classifies a state. It reads nothing but its arguments, so calling it twice on the same state gives
// the same ending. The first matching rule wins:
//
//  1. attempts exhausted without a correct conclusion: failure
//  2. nothing submitted: unresolved
//  3. wrong person, then wrong project, then wrong cause or hypothesis
//  4. correct: excellent when the player reached enough diagnostics, partial otherwise
func ResolveEnding(c *Catalog, s *State) EndingKind {
	if !s.IsCorrect && s.ConclusionAttempts >= c.maxAttempts() {
		return EndingFailure
	}
	if s.Conclusion == nil {
		return EndingUnresolved
	}
	a := *s.Conclusion
	switch {
	case !sameAnswer(a.Person, c.Solution.Person):
		return EndingWrongPerson
	case !sameAnswer(a.Project, c.Solution.Project):
		return EndingWrongProject
	case !sameAnswer(a.Cause, c.Solution.Cause), !hypothesisMatches(c, a):
		return EndingWrongCause
	}
	if diagnosticsFound(c, s) >= excellentThreshold(c) {
		return EndingExcellent
	}
	return EndingPartial
}

// diagnosticsFound counts diagnostics the player reached: interview clues still in the notebook, discovered insights
// and collected evidence.
func diagnosticsFound(c *Catalog, s *State) int {
	found := 0
	for _, id := range c.Solution.Diagnostics {
		if hasInterviewNote(s, id) || slices.Contains(s.Insights, id) || s.Collected[id] {
			found++
		}
	}
	return found
}

func hasInterviewNote(s *State, id string) bool {
	i := s.noteIndex(id)
	return i >= 0 && s.Notebook[i].Source == NoteSourceInterview
}

// excellentThreshold defaults to requiring every diagnostic id.
func excellentThreshold(c *Catalog) int {
	if c.Solution.ExcellentThreshold > 0 {
		return c.Solution.ExcellentThreshold
	}
	return len(c.Solution.Diagnostics)
}

// Ending returns the frozen ending and its catalog text. ok is false while the game is still running.
func (e *Engine) Ending() (kind EndingKind, text EndingText, ok bool) {
	if e.state.Ending == "" {
		return "", EndingText{}, false
	}
	return e.state.Ending, e.catalog.Endings[e.state.Ending], true
}

package game

import (
	"log/slog"
	"slices"
)

func validNoteSource(s NoteSource) bool {
	switch s {
	case NoteSourceEvidence, NoteSourceInterview, NoteSourceDashboard, NoteSourceStory:
		return true
	}
	return false
}

// writeNote saves a note the player wrote. Its id must not collide with catalog ids, since clue notes and insights
// count towards the ending. Evidence notes must cite viewed evidence and interview notes a speaker already visited.
func (t *txn) writeNote(n Note) bool {
	_, isClue := t.idx.clues[n.ID]
	_, isInsight := t.idx.insights[n.ID]
	_, isEvidence := t.idx.evidence[n.ID]
	if isClue || isInsight || isEvidence {
		return t.reject("note id reserved by the case", slog.String("note_id", n.ID))
	}
	switch n.Source {
	case NoteSourceEvidence:
		if !t.s.Viewed[n.SourceID] {
			return t.reject("note cites evidence not viewed", slog.String("note_id", n.ID),
				slog.String("source_id", n.SourceID))
		}
	case NoteSourceInterview:
		if t.s.Visits[n.SourceID] == 0 {
			return t.reject("note cites a speaker not interviewed", slog.String("note_id", n.ID),
				slog.String("source_id", n.SourceID))
		}
	}
	return t.saveNote(n)
}

// saveNote appends n to the notebook once per id. The id is also recorded in the append-only history so that a
// later removal does not erase the fact that it was saved.
func (t *txn) saveNote(n Note) bool {
	if n.ID == "" {
		return t.reject("note without id")
	}
	if !validNoteSource(n.Source) {
		return t.reject("invalid note source", slog.String("note_id", n.ID), slog.String("source", string(n.Source)))
	}
	if t.s.noteIndex(n.ID) >= 0 {
		return t.reject("note already saved", slog.String("note_id", n.ID))
	}
	t.s.Notebook = append(t.s.Notebook, n)
	if !slices.Contains(t.s.NoteHistory, n.ID) {
		t.s.NoteHistory = append(t.s.NoteHistory, n.ID)
	}
	return true
}

func (t *txn) removeNote(id string) bool {
	i := t.s.noteIndex(id)
	if i < 0 {
		return t.reject("note not in notebook", slog.String("note_id", id))
	}
	t.s.Notebook = slices.Delete(t.s.Notebook, i, i+1)
	return true
}

// Notebook returns the current notebook entries in the order they were saved.
func (e *Engine) Notebook() []Note {
	return slices.Clone(e.state.Notebook)
}

// EverNoted reports whether a note was saved at some point, even if it has been removed since.
func (e *Engine) EverNoted(id string) bool {
	return slices.Contains(e.state.NoteHistory, id)
}

package game

// ResultTag is the display tag of a choice consequence.
type ResultTag string

const (
	ResultUnlock    ResultTag = "unlock"
	ResultClue      ResultTag = "clue"
	ResultTrustUp   ResultTag = "trust_up"
	ResultTrustDown ResultTag = "trust_down"
)

// Consequence is the single effect of picking a choice. Each kind carries its own apply, so a new kind does not
// compile until it says what it does.
type Consequence interface {
	Tag() ResultTag
	apply(t *txn, speaker, nodeID string)
}

// UnlockEvidence makes a piece of evidence reachable.
type UnlockEvidence struct {
	EvidenceID string
}

func (UnlockEvidence) Tag() ResultTag { return ResultUnlock }

func (c UnlockEvidence) apply(t *txn, _, _ string) {
	t.unlock(c.EvidenceID)
}

// AppendNote writes a clue into the notebook. NoteID defaults to the node id.
type AppendNote struct {
	NoteID string
	Text   string
}

func (AppendNote) Tag() ResultTag { return ResultClue }

func (c AppendNote) noteID(nodeID string) string {
	if c.NoteID == "" {
		return nodeID
	}
	return c.NoteID
}

func (c AppendNote) apply(t *txn, speaker, nodeID string) {
	t.saveNote(Note{ID: c.noteID(nodeID), Text: c.Text, Source: NoteSourceInterview, SourceID: speaker})
}

// AdjustTrust shifts trust by a signed delta. Entity defaults to the speaker.
type AdjustTrust struct {
	Entity string
	Delta  int
}

func (c AdjustTrust) Tag() ResultTag {
	if c.Delta < 0 {
		return ResultTrustDown
	}
	return ResultTrustUp
}

func (c AdjustTrust) apply(t *txn, speaker, _ string) {
	entity := c.Entity
	if entity == "" {
		entity = speaker
	}
	t.modifyTrust(entity, c.Delta)
}

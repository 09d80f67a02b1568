package game

import (
	"log/slog"
	"slices"
)

// isUnlocked evaluates the unlock rule lazily against the current state so that "after N collected" rules never go
// stale when collection happens.
func isUnlocked(idx *index, s *State, id string) bool {
	ev, ok := idx.evidence[id]
	if !ok {
		return false
	}
	if s.Unlocked[id] {
		return true
	}
	switch ev.Unlock.Kind {
	case UnlockAlways, "":
		return true
	case UnlockAfterCollected:
		others := 0
		for collected, ok := range s.Collected {
			if ok && collected != id {
				others++
			}
		}
		return others >= ev.Unlock.Count
	case UnlockExplicit:
		return false
	}
	return false
}

// unlock marks evidence reachable. It is a no-op for unknown or already unlocked evidence.
func (t *txn) unlock(id string) bool {
	if _, ok := t.idx.evidence[id]; !ok {
		return t.reject("unknown evidence", slog.String("evidence_id", id))
	}
	if isUnlocked(t.idx, t.s, id) {
		return t.reject("evidence already unlocked", slog.String("evidence_id", id))
	}
	t.s.Unlocked[id] = true
	return true
}

// collect marks unlocked evidence collected and awards its points exactly once.
func (t *txn) collect(id string) bool {
	ev, ok := t.idx.evidence[id]
	if !ok {
		return t.reject("unknown evidence", slog.String("evidence_id", id))
	}
	if t.s.Collected[id] {
		return t.reject("evidence already collected", slog.String("evidence_id", id))
	}
	if !isUnlocked(t.idx, t.s, id) {
		return t.reject("evidence locked", slog.String("evidence_id", id))
	}
	if !t.roomReachable(ev.Room) {
		return t.reject("room not reachable", slog.String("evidence_id", id), slog.String("room", ev.Room))
	}
	t.s.Collected[id] = true
	points := ev.Points
	if points <= 0 {
		points = t.cat.Scoring.EvidencePoints
	}
	t.award("evidence:"+id, points)
	return true
}

// view records that evidence content was displayed. Only reachable evidence can be viewed.
func (t *txn) view(id string) bool {
	if _, ok := t.idx.evidence[id]; !ok {
		return t.reject("unknown evidence", slog.String("evidence_id", id))
	}
	if t.s.Viewed[id] {
		return t.reject("evidence already viewed", slog.String("evidence_id", id))
	}
	if !isUnlocked(t.idx, t.s, id) {
		return t.reject("evidence locked", slog.String("evidence_id", id))
	}
	t.s.Viewed[id] = true
	return true
}

// roomReachable reports whether the current phase lets the player into room. Phases without a room list and
// evidence without a room are unrestricted.
func (t *txn) roomReachable(room string) bool {
	if room == "" {
		return true
	}
	phase, ok := currentPhase(t.cat, t.s)
	if !ok || len(phase.Rooms) == 0 {
		return true
	}
	return slices.Contains(phase.Rooms, room)
}

// IsUnlocked reports whether evidence id is reachable.
func (e *Engine) IsUnlocked(id string) bool {
	return isUnlocked(e.idx, &e.state, id)
}

// IsCollected reports whether evidence id has been collected.
func (e *Engine) IsCollected(id string) bool {
	return e.state.Collected[id]
}

// IsViewed reports whether evidence id has been displayed at least once.
func (e *Engine) IsViewed(id string) bool {
	return e.state.Viewed[id]
}

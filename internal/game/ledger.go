package game

import (
	"log/slog"
)

const (
	minTrust = 0
	maxTrust = 100
)

// TrustLevel buckets overall trust for display.
type TrustLevel string

const (
	TrustLow    TrustLevel = "low"
	TrustMedium TrustLevel = "medium"
	TrustHigh   TrustLevel = "high"
)

func clampTrust(v int) int {
	return min(max(v, minTrust), maxTrust)
}

// award adds points to the score once per key. Negative amounts are ignored so that the score stays monotonic.
func (t *txn) award(key string, points int) {
	if t.s.Awarded[key] {
		return
	}
	t.s.Awarded[key] = true
	t.addScore(points)
}

func (t *txn) addScore(amount int) {
	if amount <= 0 {
		return
	}
	t.s.Score += amount
}

// modifyTrust applies a signed delta to one trust entity and clamps the result to [0, 100]. Undeclared entities
// fall back to the default entity; without one the change is dropped.
func (t *txn) modifyTrust(entity string, delta int) bool {
	entity, ok := t.trustEntity(entity)
	if !ok {
		return t.reject("unknown trust entity", slog.String("entity", entity))
	}
	if delta == 0 {
		return t.reject("zero trust delta", slog.String("entity", entity))
	}
	old := t.s.Trust[entity]
	// Bound the delta so that old+delta cannot overflow.
	next := clampTrust(old + min(max(delta, -maxTrust), maxTrust))
	if next == old {
		return t.reject("trust already at bound", slog.String("entity", entity), slog.Int("trust", old))
	}
	t.s.Trust[entity] = next
	return true
}

func (t *txn) trustEntity(entity string) (string, bool) {
	if _, ok := t.s.Trust[entity]; ok {
		return entity, true
	}
	if _, ok := t.s.Trust[t.cat.Trust.Default]; ok {
		return t.cat.Trust.Default, true
	}
	return entity, false
}

// overallTrust is the mean across entities, rounded down.
func overallTrust(s *State) int {
	if len(s.Trust) == 0 {
		return 0
	}
	sum := 0
	for _, v := range s.Trust {
		sum += v
	}
	return sum / len(s.Trust)
}

func trustLevel(c *Catalog, trust int) TrustLevel {
	medium, high := c.Trust.Medium, c.Trust.High
	if medium <= 0 {
		medium = 40
	}
	if high <= medium {
		high = medium + 30 //nolint:mnd // default width of the medium band.
	}
	switch {
	case trust >= high:
		return TrustHigh
	case trust >= medium:
		return TrustMedium
	default:
		return TrustLow
	}
}

// OverallTrust returns the mean trust across all entities.
func (e *Engine) OverallTrust() int {
	return overallTrust(&e.state)
}

// TrustLevel buckets OverallTrust into low, medium and high.
func (e *Engine) TrustLevel() TrustLevel {
	return trustLevel(e.catalog, overallTrust(&e.state))
}

// Trust returns the trust of one entity and whether it is declared.
func (e *Engine) Trust(entity string) (int, bool) {
	v, ok := e.state.Trust[entity]
	return v, ok
}

// Score returns the current score.
func (e *Engine) Score() int {
	return e.state.Score
}

package game

import (
	"log/slog"
	"slices"
)

// evaluateInsight runs the insight's analysis over the data of collected evidence, in catalog order.
func evaluateInsight(c *Catalog, idx *index, s *State, id string) bool {
	in, ok := idx.insights[id]
	if !ok || in.Analysis == nil {
		return false
	}
	for _, req := range in.Requires {
		if !s.Collected[req] {
			return false
		}
	}
	var data []EvidenceData
	for _, ev := range c.Evidence {
		if s.Collected[ev.ID] {
			data = append(data, ev.Data)
		}
	}
	return in.Analysis.passes(data)
}

// runAnalysis marks that the analysis tool was used and discovers every insight whose predicate now passes.
func (t *txn) runAnalysis() bool {
	t.s.AnalysisRuns++
	for _, in := range t.cat.Insights {
		if !t.s.hasInsight(in.ID) && evaluateInsight(t.cat, t.idx, t.s, in.ID) {
			t.discover(&in)
		}
	}
	return true
}

// discoverInsight is the direct discovery intent. Insights backed by an analysis are only granted when the
// analysis passes.
func (t *txn) discoverInsight(id string) bool {
	attr := slog.String("insight_id", id)
	in, ok := t.idx.insights[id]
	if !ok {
		return t.reject("unknown insight", attr)
	}
	if t.s.hasInsight(id) {
		return t.reject("insight already discovered", attr)
	}
	if in.Analysis != nil && !evaluateInsight(t.cat, t.idx, t.s, id) {
		return t.reject("analysis does not support insight", attr)
	}
	t.discover(in)
	return true
}

func (t *txn) discover(in *Insight) {
	t.s.Insights = append(t.s.Insights, in.ID)
	t.award("insight:"+in.ID, in.Points)
}

// HasInsight reports whether the insight has been discovered.
func (e *Engine) HasInsight(id string) bool {
	return e.state.hasInsight(id)
}

// EvaluateInsight reports whether the insight's analysis passes over the evidence collected so far. It does not
// discover anything.
func (e *Engine) EvaluateInsight(id string) bool {
	return evaluateInsight(e.catalog, e.idx, &e.state, id)
}

// Insights returns the discovered insight ids in discovery order.
func (e *Engine) Insights() []string {
	return slices.Clone(e.state.Insights)
}

package game

import (
	"log/slog"
	"slices"

	"github.com/myrjola/casefile/internal/errors"
)

var ErrInvalidCatalog = errors.NewSentinel("invalid catalog")

var endingKinds = []EndingKind{
	EndingExcellent, EndingPartial, EndingWrongPerson, EndingWrongProject, EndingWrongCause, EndingFailure,
	EndingUnresolved,
}

func invalid(msg string, attrs ...slog.Attr) error {
	return errors.Wrap(ErrInvalidCatalog, msg, attrs...)
}

// Validate checks that every id the catalog refers to exists. The engine treats unknown ids as no-ops at runtime, so
// content errors are caught here instead.
func (c *Catalog) Validate() error {
	idx := newIndex(c)

	if c.Case.ID == "" {
		return invalid("case id missing")
	}
	if len(idx.evidence) != len(c.Evidence) {
		return invalid("duplicate evidence id")
	}
	for _, ev := range c.Evidence {
		attr := slog.String("evidence_id", ev.ID)
		switch ev.Unlock.Kind {
		case UnlockAlways, UnlockExplicit, "":
		case UnlockAfterCollected:
			if ev.Unlock.Count <= 0 || ev.Unlock.Count >= len(c.Evidence) {
				return invalid("unlock count out of range", attr, slog.Int("count", ev.Unlock.Count))
			}
		default:
			return invalid("unknown unlock kind", attr, slog.String("kind", string(ev.Unlock.Kind)))
		}
	}

	if len(idx.dialogues) != len(c.Dialogues) {
		return invalid("duplicate speaker")
	}
	nodeCount := 0
	for _, d := range c.Dialogues {
		nodeCount += len(d.Nodes)
	}
	if len(idx.nodes) != nodeCount {
		return invalid("duplicate node id")
	}
	checkTrigger := func(t Trigger, attrs ...slog.Attr) error {
		var err error
		t.References(func(kind TriggerKind, arg string) {
			switch kind {
			case TriggerHasInsight:
				if _, ok := idx.insights[arg]; !ok && err == nil {
					err = invalid("trigger references unknown insight", append(attrs, slog.String("insight_id", arg))...)
				}
			case TriggerViewed, TriggerCollected:
				if _, ok := idx.evidence[arg]; !ok && err == nil {
					err = invalid("trigger references unknown evidence", append(attrs, slog.String("evidence_id", arg))...)
				}
			case TriggerAlways, TriggerFirstVisit, TriggerAfterAnalysis, TriggerPhase, TriggerAll, TriggerAny,
				TriggerNot:
			}
		})
		return err
	}
	for _, d := range c.Dialogues {
		for _, n := range d.Nodes {
			attr := slog.String("node_id", n.ID)
			if err := checkTrigger(n.Trigger, attr); err != nil {
				return err
			}
			if n.Next != "" && idx.nodeOwner[n.Next] != d.Speaker {
				return invalid("next node of another speaker", attr, slog.String("next", n.Next))
			}
			for _, ch := range n.Choices {
				switch con := ch.Consequence.(type) {
				case UnlockEvidence:
					if _, ok := idx.evidence[con.EvidenceID]; !ok {
						return invalid("choice unlocks unknown evidence", attr, slog.String("choice_id", ch.ID))
					}
				case AdjustTrust:
					if con.Delta == 0 {
						return invalid("zero trust delta", attr, slog.String("choice_id", ch.ID))
					}
				}
			}
		}
	}

	if len(idx.hypotheses) != len(c.Hypotheses) {
		return invalid("duplicate hypothesis id")
	}
	if len(c.Hypotheses) < c.hypothesisCap() {
		return invalid("fewer hypotheses than the selection cap")
	}
	for _, h := range c.Hypotheses {
		if err := checkTrigger(h.Requires, slog.String("hypothesis_id", h.ID)); err != nil {
			return err
		}
	}

	if len(idx.insights) != len(c.Insights) {
		return invalid("duplicate insight id")
	}
	for _, in := range c.Insights {
		for _, req := range in.Requires {
			if _, ok := idx.evidence[req]; !ok {
				return invalid("insight requires unknown evidence", slog.String("insight_id", in.ID),
					slog.String("evidence_id", req))
			}
		}
	}

	if len(c.Phases) == 0 {
		return invalid("no phases")
	}
	conclusionOpen := false
	for _, p := range c.Phases {
		attr := slog.String("phase_id", p.ID)
		conclusionOpen = conclusionOpen || p.ConclusionOpen
		for _, id := range slices.Concat(p.Exit.Viewed, p.Exit.Collected, p.SwapRequires) {
			if _, ok := idx.evidence[id]; !ok {
				return invalid("phase references unknown evidence", attr, slog.String("evidence_id", id))
			}
		}
		for _, id := range p.Exit.Insights {
			if _, ok := idx.insights[id]; !ok {
				return invalid("phase references unknown insight", attr, slog.String("insight_id", id))
			}
		}
	}
	if !conclusionOpen {
		return invalid("no phase accepts a conclusion")
	}

	s := c.Solution
	if s.Cause == "" || s.Project == "" || s.Person == "" {
		return invalid("incomplete solution")
	}
	if _, ok := idx.hypotheses[s.Hypothesis]; s.Hypothesis != "" && !ok {
		return invalid("solution references unknown hypothesis", slog.String("hypothesis_id", s.Hypothesis))
	}
	for _, id := range s.Diagnostics {
		_, isInsight := idx.insights[id]
		_, isEvidence := idx.evidence[id]
		_, isClue := idx.clues[id]
		if !isInsight && !isEvidence && !isClue {
			return invalid("unknown diagnostic id", slog.String("id", id))
		}
	}
	if s.ExcellentThreshold > len(s.Diagnostics) {
		return invalid("excellent threshold above diagnostic count")
	}
	for _, kind := range endingKinds {
		if _, ok := c.Endings[kind]; !ok {
			return invalid("ending text missing", slog.String("ending", string(kind)))
		}
	}
	if _, ok := c.Trust.Initial[c.Trust.Default]; !ok {
		return invalid("default trust entity not declared", slog.String("entity", c.Trust.Default))
	}
	return nil
}

package game

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/myrjola/casefile/internal/errors"
)

// TriggerKind names a predicate over the game state.
type TriggerKind string

const (
	TriggerAlways        TriggerKind = "always"
	TriggerFirstVisit    TriggerKind = "first_visit"
	TriggerHasInsight    TriggerKind = "has_insight"
	TriggerAfterAnalysis TriggerKind = "after_analysis"
	TriggerViewed        TriggerKind = "viewed"
	TriggerCollected     TriggerKind = "collected"
	TriggerPhase         TriggerKind = "phase"
	TriggerAll           TriggerKind = "all"
	TriggerAny           TriggerKind = "any"
	TriggerNot           TriggerKind = "not"
)

var ErrInvalidTrigger = errors.NewSentinel("invalid trigger")

// Trigger is a small predicate tree. The zero value always holds.
type Trigger struct {
	Kind TriggerKind
	// Arg is the insight or evidence id for has_insight, viewed and collected.
	Arg string
	// Phase is the minimum phase index for phase triggers.
	Phase    int
	Children []Trigger
}

// triggerEnv is what a trigger can see.
type triggerEnv struct {
	state   *State
	speaker string
}

// ParseTrigger reads the compact "kind" or "kind:arg" notation used by case files.
func ParseTrigger(s string) (Trigger, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Trigger{Kind: TriggerAlways}, nil
	}
	kind, arg, hasArg := strings.Cut(s, ":")
	t := Trigger{Kind: TriggerKind(kind), Arg: arg}
	switch t.Kind {
	case TriggerAlways, TriggerFirstVisit, TriggerAfterAnalysis:
		if hasArg {
			return Trigger{}, errors.Wrap(ErrInvalidTrigger, "unexpected argument", slog.String("trigger", s))
		}
	case TriggerHasInsight, TriggerViewed, TriggerCollected:
		if arg == "" {
			return Trigger{}, errors.Wrap(ErrInvalidTrigger, "missing argument", slog.String("trigger", s))
		}
	case TriggerPhase:
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 {
			return Trigger{}, errors.Wrap(ErrInvalidTrigger, "phase must be a non-negative index",
				slog.String("trigger", s))
		}
		t.Arg = ""
		t.Phase = n
	case TriggerAll, TriggerAny, TriggerNot:
		return Trigger{}, errors.Wrap(ErrInvalidTrigger, "composite triggers need children", slog.String("trigger", s))
	default:
		return Trigger{}, errors.Wrap(ErrInvalidTrigger, "unknown trigger kind", slog.String("trigger", s))
	}
	return t, nil
}

// String renders the trigger back into case-file notation.
func (t Trigger) String() string {
	switch t.Kind {
	case "", TriggerAlways:
		return string(TriggerAlways)
	case TriggerHasInsight, TriggerViewed, TriggerCollected:
		return string(t.Kind) + ":" + t.Arg
	case TriggerPhase:
		return string(t.Kind) + ":" + strconv.Itoa(t.Phase)
	case TriggerAll, TriggerAny, TriggerNot:
		parts := make([]string, len(t.Children))
		for i, c := range t.Children {
			parts[i] = c.String()
		}
		return string(t.Kind) + "(" + strings.Join(parts, ", ") + ")"
	case TriggerFirstVisit, TriggerAfterAnalysis:
		return string(t.Kind)
	}
	return string(t.Kind)
}

// holds is the single evaluation point for every trigger in the catalog.
func (t Trigger) holds(env triggerEnv) bool {
	s := env.state
	switch t.Kind {
	case "", TriggerAlways:
		return true
	case TriggerFirstVisit:
		return s.Visits[env.speaker] <= 1
	case TriggerHasInsight:
		return s.hasInsight(t.Arg)
	case TriggerAfterAnalysis:
		return s.AnalysisRuns > 0
	case TriggerViewed:
		return s.Viewed[t.Arg]
	case TriggerCollected:
		return s.Collected[t.Arg]
	case TriggerPhase:
		return s.Phase >= t.Phase
	case TriggerAll:
		for _, c := range t.Children {
			if !c.holds(env) {
				return false
			}
		}
		return true
	case TriggerAny:
		for _, c := range t.Children {
			if c.holds(env) {
				return true
			}
		}
		return false
	case TriggerNot:
		return len(t.Children) == 1 && !t.Children[0].holds(env)
	}
	return false
}

// References calls visit for every id the trigger mentions.
func (t Trigger) References(visit func(kind TriggerKind, arg string)) {
	switch t.Kind {
	case TriggerHasInsight, TriggerViewed, TriggerCollected:
		visit(t.Kind, t.Arg)
	case TriggerAll, TriggerAny, TriggerNot:
		for _, c := range t.Children {
			c.References(visit)
		}
	case "", TriggerAlways, TriggerFirstVisit, TriggerAfterAnalysis, TriggerPhase:
	}
}

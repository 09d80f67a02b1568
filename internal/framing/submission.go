package framing

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/myrjola/casefile/internal/errors"
)

const (
	goldenQuestionCount = 3
	maxDecisions        = 3
)

var (
	ErrIncompleteFraming = errors.NewSentinel("incomplete framing")
	ErrNotReady          = errors.NewSentinel("framing not ready for submission")
)

// Submission is the final framing form.
type Submission struct {
	ProblemStatement string            `json:"problem_statement" yaml:"problem_statement"`
	GoldenQuestions  []string          `json:"golden_questions" yaml:"golden_questions"`
	Decisions        []DecisionMapping `json:"decisions" yaml:"decisions"`
}

// DecisionMapping ties a golden question to the decision its answer informs.
type DecisionMapping struct {
	Question string `json:"question" yaml:"question"`
	Decision string `json:"decision" yaml:"decision"`
}

func (s Submission) clone() Submission {
	c := s
	c.GoldenQuestions = slices.Clone(s.GoldenQuestions)
	c.Decisions = slices.Clone(s.Decisions)
	return c
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Validate checks the form for completeness: a problem statement, exactly three distinct golden questions and one
// to three decision mappings.
func (s Submission) Validate() error {
	if blank(s.ProblemStatement) {
		return errors.Wrap(ErrIncompleteFraming, "problem statement missing")
	}
	if len(s.GoldenQuestions) != goldenQuestionCount {
		return errors.Wrap(ErrIncompleteFraming, "wrong number of golden questions",
			slog.Int("count", len(s.GoldenQuestions)))
	}
	seen := map[string]bool{}
	for i, q := range s.GoldenQuestions {
		key := strings.ToLower(strings.TrimSpace(q))
		if key == "" {
			return errors.Wrap(ErrIncompleteFraming, "blank golden question", slog.Int("index", i))
		}
		if seen[key] {
			return errors.Wrap(ErrIncompleteFraming, "duplicate golden question", slog.Int("index", i))
		}
		seen[key] = true
	}
	if len(s.Decisions) == 0 || len(s.Decisions) > maxDecisions {
		return errors.Wrap(ErrIncompleteFraming, "wrong number of decision mappings",
			slog.Int("count", len(s.Decisions)))
	}
	for i, d := range s.Decisions {
		if blank(d.Question) || blank(d.Decision) {
			return errors.Wrap(ErrIncompleteFraming, "blank decision mapping", slog.Int("index", i))
		}
	}
	return nil
}

// SubmitFraming validates and accepts the final form, which ends the run. A rejected form leaves the run unchanged.
func (r *Run) SubmitFraming(ctx context.Context, s Submission) error {
	if r.state.Outcome != "" {
		return errors.Wrap(ErrNotReady, "run is over", slog.String("outcome", string(r.state.Outcome)))
	}
	if !r.AtFraming() {
		return errors.Wrap(ErrNotReady, "not at a framing node", slog.String("node", r.state.Node))
	}
	if r.state.ChosenFraming == "" {
		return errors.Wrap(ErrNotReady, "no framing chosen")
	}
	if err := s.Validate(); err != nil {
		return err
	}
	sub := s.clone()
	r.state.Submission = &sub
	r.state.Outcome = ResolveOutcome(r.graph, &r.state)
	r.logger.LogAttrs(ctx, slog.LevelInfo, "framing submitted",
		slog.String("outcome", string(r.state.Outcome)), slog.Int("budget", r.state.Budget))
	return nil
}

package content

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/framing"
	"github.com/myrjola/casefile/internal/game"
)

var ErrScriptFailed = errors.NewSentinel("script failed")

// Script is a recorded play-through of a case or a framing brief. Exactly one of Case and Brief is set.
type Script struct {
	Case        string        `yaml:"case,omitempty"`
	Brief       string        `yaml:"brief,omitempty"`
	Description string        `yaml:"description,omitempty"`
	Intents     []game.Intent `yaml:"intents,omitempty"`
	Steps       []FramingStep `yaml:"steps,omitempty"`
	Expect      Expectation   `yaml:"expect"`
}

// FramingStep is one player action in a framing run. Exactly one field is set.
type FramingStep struct {
	Choose      string              `yaml:"choose,omitempty"`
	Acknowledge bool                `yaml:"acknowledge,omitempty"`
	Backtrack   bool                `yaml:"backtrack,omitempty"`
	Frame       string              `yaml:"frame,omitempty"`
	Submit      *framing.Submission `yaml:"submit,omitempty"`
}

// Expectation is what a script must end with. Zero fields are not checked.
type Expectation struct {
	Ending    game.EndingKind `yaml:"ending,omitempty"`
	Score     *int            `yaml:"score,omitempty"`
	Outcome   framing.Outcome `yaml:"outcome,omitempty"`
	TimeSpent *int            `yaml:"time_spent,omitempty"`
}

// Result is what a script ended with.
type Result struct {
	Ending    game.EndingKind `json:"ending,omitempty"`
	Score     int             `json:"score"`
	Outcome   framing.Outcome `json:"outcome,omitempty"`
	TimeSpent int             `json:"time_spent"`
}

func (s FramingStep) String() string {
	switch {
	case s.Choose != "":
		return "choose " + s.Choose
	case s.Acknowledge:
		return "acknowledge"
	case s.Backtrack:
		return "backtrack"
	case s.Frame != "":
		return "frame " + s.Frame
	case s.Submit != nil:
		return "submit"
	}
	return "empty step"
}

// Apply performs the step on run and reports whether it was accepted.
func (s FramingStep) Apply(ctx context.Context, run *framing.Run) (bool, error) {
	switch {
	case s.Choose != "":
		return run.Choose(ctx, s.Choose), nil
	case s.Acknowledge:
		return run.Acknowledge(ctx), nil
	case s.Backtrack:
		return run.Backtrack(ctx), nil
	case s.Frame != "":
		return run.ChooseFraming(ctx, s.Frame), nil
	case s.Submit != nil:
		if err := run.SubmitFraming(ctx, *s.Submit); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, errors.Wrap(ErrInvalidContent, "empty framing step")
}

// LoadScript reads an embedded script by name.
func LoadScript(name string) (*Script, error) {
	data, err := contentFS.ReadFile(path.Join("scripts", name+".yaml"))
	if err != nil {
		return nil, errors.Wrap(ErrNotFound, "load script", slog.String("script", name),
			slog.String("available", strings.Join(ListScripts(), ", ")))
	}
	return ParseScript(data)
}

// ParseScript decodes a script and checks that it targets exactly one case or brief.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := decodeStrict(data, &s); err != nil {
		return nil, errors.Wrap(err, "parse script")
	}
	if (s.Case == "") == (s.Brief == "") {
		return nil, errors.Wrap(ErrInvalidContent, "script needs exactly one of case and brief",
			slog.String("case", s.Case), slog.String("brief", s.Brief))
	}
	if s.Case != "" && len(s.Steps) > 0 {
		return nil, errors.Wrap(ErrInvalidContent, "case script has framing steps", slog.String("case", s.Case))
	}
	if s.Brief != "" && len(s.Intents) > 0 {
		return nil, errors.Wrap(ErrInvalidContent, "brief script has intents", slog.String("brief", s.Brief))
	}
	for i, in := range s.Intents {
		if err := in.Validate(); err != nil {
			return nil, errors.Wrap(err, "validate script intent", slog.Int("step", i))
		}
	}
	return &s, nil
}

// ListScripts returns the names of all embedded scripts, sorted.
func ListScripts() []string {
	return list("scripts")
}

// Play runs the script in memory against the embedded content. Every step must be accepted and the result must meet
// the expectation.
func (s *Script) Play(ctx context.Context, logger *slog.Logger) (Result, error) {
	var (
		res Result
		err error
	)
	if s.Case != "" {
		res, err = s.playCase(ctx, logger)
	} else {
		res, err = s.playBrief(ctx, logger)
	}
	if err != nil {
		return res, err
	}
	return res, s.Expect.Check(res)
}

func (s *Script) playCase(ctx context.Context, logger *slog.Logger) (Result, error) {
	c, err := LoadCase(s.Case)
	if err != nil {
		return Result{}, err
	}
	e := game.NewEngine(c, logger)
	for i, in := range s.Intents {
		if d := e.Apply(ctx, in); !d.Applied {
			return caseResult(e), errors.Wrap(ErrScriptFailed, "intent rejected",
				slog.Int("step", i), slog.String("intent", string(in.Kind)))
		}
	}
	return caseResult(e), nil
}

func caseResult(e *game.Engine) Result {
	kind, _, _ := e.Ending()
	return Result{Ending: kind, Score: e.Score()}
}

func (s *Script) playBrief(ctx context.Context, logger *slog.Logger) (Result, error) {
	g, err := LoadBrief(s.Brief)
	if err != nil {
		return Result{}, err
	}
	run := framing.NewRun(g, logger)
	for i, step := range s.Steps {
		ok, stepErr := step.Apply(ctx, run)
		if stepErr != nil {
			return briefResult(run), errors.Wrap(errors.Join(ErrScriptFailed, stepErr), "step failed",
				slog.Int("step", i), slog.String("action", step.String()))
		}
		if !ok {
			return briefResult(run), errors.Wrap(ErrScriptFailed, "step rejected",
				slog.Int("step", i), slog.String("action", step.String()))
		}
	}
	return briefResult(run), nil
}

func briefResult(run *framing.Run) Result {
	rc := run.Recap()
	return Result{Outcome: rc.Outcome, TimeSpent: rc.TimeSpent}
}

// Check compares a result with the expectation.
func (x Expectation) Check(res Result) error {
	if x.Ending != "" && x.Ending != res.Ending {
		return errors.Wrap(ErrScriptFailed, "unexpected ending",
			slog.String("want", string(x.Ending)), slog.String("got", string(res.Ending)))
	}
	if x.Score != nil && *x.Score != res.Score {
		return errors.Wrap(ErrScriptFailed, "unexpected score", slog.Int("want", *x.Score), slog.Int("got", res.Score))
	}
	if x.Outcome != "" && x.Outcome != res.Outcome {
		return errors.Wrap(ErrScriptFailed, "unexpected outcome",
			slog.String("want", string(x.Outcome)), slog.String("got", string(res.Outcome)))
	}
	if x.TimeSpent != nil && *x.TimeSpent != res.TimeSpent {
		return errors.Wrap(ErrScriptFailed, "unexpected time spent",
			slog.Int("want", *x.TimeSpent), slog.Int("got", res.TimeSpent))
	}
	return nil
}

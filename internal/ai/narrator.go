// Package ai produces in-character hints for a stuck player with an OpenAI chat model.
package ai

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/game"
	"github.com/sashabaranov/go-openai"
)

var ErrDisabled = errors.NewSentinel("hints disabled")

const maxHintTokens = 256

const systemPrompt = `You are the senior partner of a forensic audit firm coaching a junior investigator.
Give one short hint, at most three sentences, that points towards the next useful step.
Never reveal the culprit, the project or the cause outright.`

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

type Narrator struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewNarrator returns ErrDisabled when no API key is configured.
func NewNarrator(cfg Config, logger *slog.Logger) (*Narrator, error) {
	if cfg.APIKey == "" {
		return nil, ErrDisabled
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT3Dot5Turbo1106
	}
	return &Narrator{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		logger: logger.With(slog.String("source", "narrator")),
	}, nil
}

func (n *Narrator) request(p game.Progress) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{ //nolint:exhaustruct // readability
		Model:     n.model,
		MaxTokens: maxHintTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(p)},
		},
	}
}

// Hint asks the model for a nudge based on the player's progress.
func (n *Narrator) Hint(ctx context.Context, p game.Progress) (string, error) {
	completion, err := n.client.CreateChatCompletion(ctx, n.request(p))
	if err != nil {
		return "", errors.Wrap(err, "create chat completion")
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("empty completion", slog.String("model", n.model))
	}
	n.logger.LogAttrs(ctx, slog.LevelDebug, "hint generated",
		slog.String("case", p.CaseID), slog.Int("tokens", completion.Usage.TotalTokens))
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

// StreamHint sends the hint to out piece by piece as the model produces it. It does not close out.
func (n *Narrator) StreamHint(ctx context.Context, p game.Progress, out chan<- string) error {
	req := n.request(p)
	req.Stream = true
	stream, err := n.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return errors.Wrap(err, "create chat completion stream")
	}
	defer stream.Close()

	chunks := 0
	for {
		resp, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			n.logger.LogAttrs(ctx, slog.LevelDebug, "hint streamed",
				slog.String("case", p.CaseID), slog.Int("chunks", chunks))
			return nil
		}
		if recvErr != nil {
			return errors.Wrap(recvErr, "receive chunk", slog.Int("chunks", chunks))
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}
		select {
		case out <- resp.Choices[0].Delta.Content:
			chunks++
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "send chunk")
		}
	}
}

// BuildPrompt describes the investigation so far. It only uses what the player has already seen.
func BuildPrompt(p game.Progress) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Case: %s\n", p.CaseTitle)
	fmt.Fprintf(&b, "Phase: %s", p.PhaseName)
	if p.CallToAction != "" {
		fmt.Fprintf(&b, " (%s)", p.CallToAction)
	}
	b.WriteString("\n")

	var collected, pending []string
	for _, ev := range p.Evidence {
		switch {
		case ev.Collected:
			collected = append(collected, ev.Title)
		case ev.Unlocked:
			pending = append(pending, ev.Title)
		}
	}
	writeList(&b, "Evidence collected", collected)
	writeList(&b, "Evidence available but not collected", pending)
	writeList(&b, "Insights", p.Insights)

	notes := make([]string, 0, len(p.Notebook))
	for _, note := range p.Notebook {
		notes = append(notes, note.Text)
	}
	writeList(&b, "Notebook", notes)
	writeList(&b, "Hypotheses in play", p.SelectedHypotheses)

	fmt.Fprintf(&b, "Team trust: %s\n", p.TrustLevel)
	if p.ConclusionOpen {
		fmt.Fprintf(&b, "Conclusion attempts left: %d\n", p.AttemptsLeft)
	}
	if p.CanAdvance {
		b.WriteString("The investigator may move on to the next phase.\n")
	}
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		fmt.Fprintf(b, "%s: none\n", title)
		return
	}
	fmt.Fprintf(b, "%s: %s\n", title, strings.Join(items, "; "))
}

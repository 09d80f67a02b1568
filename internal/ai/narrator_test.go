package ai_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/myrjola/casefile/internal/ai"
	"github.com/myrjola/casefile/internal/game"
	"github.com/myrjola/casefile/internal/testhelpers"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProgress() game.Progress {
	return game.Progress{
		CaseTitle:    "The Ledger",
		PhaseName:    "Investigation",
		CallToAction: "Collect the finance records",
		Evidence: []game.EvidenceView{
			{Title: "Supplier invoices", Unlocked: true, Collected: true},
			{Title: "Budget report", Unlocked: true},
			{Title: "Bank statements"},
		},
		Insights:   []string{"supplier-anomaly"},
		Notebook:   []game.Note{{ID: "K2", Text: "P7 has a single approver"}},
		TrustLevel: game.TrustMedium,
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := ai.BuildPrompt(testProgress())

	assert.Contains(t, prompt, "Phase: Investigation (Collect the finance records)")
	assert.Contains(t, prompt, "Evidence collected: Supplier invoices\n")
	assert.Contains(t, prompt, "Evidence available but not collected: Budget report\n")
	assert.NotContains(t, prompt, "Bank statements", "locked evidence stays hidden")
	assert.Contains(t, prompt, "Notebook: P7 has a single approver")
	assert.Contains(t, prompt, "Hypotheses in play: none")
	assert.NotContains(t, prompt, "attempts left")
}

func TestNewNarrator_Disabled(t *testing.T) {
	_, err := ai.NewNarrator(ai.Config{}, testhelpers.NewLogger(io.Discard))
	require.ErrorIs(t, err, ai.ErrDisabled)
}

func TestNarrator_Hint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Messages, 2)
		assert.Equal(t, "test-model", req.Model)

		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleAssistant,
					Content: "  Look closer at who approves the P7 invoices.\n",
				},
			}},
		})
	}))
	t.Cleanup(server.Close)

	n, err := ai.NewNarrator(ai.Config{APIKey: "test-key", BaseURL: server.URL, Model: "test-model"},
		testhelpers.NewLogger(io.Discard))
	require.NoError(t, err)

	hint, err := n.Hint(context.Background(), testProgress())
	require.NoError(t, err)
	require.Equal(t, "Look closer at who approves the P7 invoices.", hint)
}

func TestNarrator_StreamHint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		for _, piece := range []string{"Look closer ", "", "at P7."} {
			chunk, _ := json.Marshal(openai.ChatCompletionStreamResponse{
				Choices: []openai.ChatCompletionStreamChoice{{
					Delta: openai.ChatCompletionStreamChoiceDelta{Content: piece},
				}},
			})
			_, _ = fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
		_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(server.Close)

	n, err := ai.NewNarrator(ai.Config{APIKey: "test-key", BaseURL: server.URL}, testhelpers.NewLogger(io.Discard))
	require.NoError(t, err)

	out := make(chan string, 10)
	require.NoError(t, n.StreamHint(context.Background(), testProgress(), out))
	close(out)
	var pieces []string
	for piece := range out {
		pieces = append(pieces, piece)
	}
	require.Equal(t, []string{"Look closer ", "at P7."}, pieces)
}

package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	contractx "tokenpilot/agent/contract"
)

type fakeCompleter struct {
	reply string
	err   error
	calls []contractx.Completion
}

func (f *fakeCompleter) Complete(ctx context.Context, req contractx.Completion) (string, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func testDescriptors() []AgentDescriptor {
	return []AgentDescriptor{
		{ID: "assistant", Description: "General crypto questions and analysis."},
		{ID: "market", Description: "Token prices, liquidity, and volume lookups."},
		{ID: "swap", Description: "Token swap quotes and trade execution."},
	}
}

func newTestClassifier(t *testing.T, completer contractx.Completer) *ClassifierStrategy {
	t.Helper()
	strategy, err := NewClassifierStrategy(completer, "Pick the agent.", testDescriptors(), "assistant")
	if err != nil {
		t.Fatalf("NewClassifierStrategy() error = %v", err)
	}
	return strategy
}

func TestClassifierStrategySelectsValidID(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{reply: " Market \n"}
	strategy := newTestClassifier(t, completer)

	got, err := strategy.Select(context.Background(), "sol price", nil)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if got != "market" {
		t.Fatalf("Select() = %q, want %q", got, "market")
	}

	if len(completer.calls) != 1 {
		t.Fatalf("completer called %d times, want 1", len(completer.calls))
	}
	req := completer.calls[0]
	if req.Temperature != 0 {
		t.Fatalf("completion temperature = %v, want 0", req.Temperature)
	}
	if req.MaxTokens != classifierMaxTokens {
		t.Fatalf("completion max tokens = %d, want %d", req.MaxTokens, classifierMaxTokens)
	}
}

func TestClassifierStrategyInvalidIDFallsBack(t *testing.T) {
	t.Parallel()

	strategy := newTestClassifier(t, &fakeCompleter{reply: "unknown"})

	got, err := strategy.Select(context.Background(), "sol price", nil)
	if err != nil {
		t.Fatalf("Select() error = %v, want nil (invalid id is a normal outcome)", err)
	}
	if got != "assistant" {
		t.Fatalf("Select() = %q, want default %q", got, "assistant")
	}
}

func TestClassifierStrategyQuotedReplyAccepted(t *testing.T) {
	t.Parallel()

	strategy := newTestClassifier(t, &fakeCompleter{reply: `"swap"`})

	got, err := strategy.Select(context.Background(), "buy eth", nil)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if got != "swap" {
		t.Fatalf("Select() = %q, want %q", got, "swap")
	}
}

func TestClassifierStrategyCompleterErrorPropagates(t *testing.T) {
	t.Parallel()

	strategy := newTestClassifier(t, &fakeCompleter{err: errors.New("upstream down")})

	_, err := strategy.Select(context.Background(), "sol price", nil)
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("Select() error = %v, want ErrModelInvoke", err)
	}
}

func TestClassifierStrategyPromptContents(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{reply: "assistant"}
	strategy := newTestClassifier(t, completer)

	recent := []contractx.Interaction{{AgentID: "market"}}
	if _, err := strategy.Select(context.Background(), "what about volume?", recent); err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	req := completer.calls[0]
	for _, want := range []string{"assistant", "market", "swap", `"market"`, "Token prices"} {
		if !strings.Contains(req.System, want) {
			t.Fatalf("system prompt missing %q:\n%s", want, req.System)
		}
	}
	if !strings.Contains(req.Prompt, "Previous interaction was handled by: market") {
		t.Fatalf("user prompt missing previous-agent hint:\n%s", req.Prompt)
	}
	if !strings.Contains(req.Prompt, "what about volume?") {
		t.Fatalf("user prompt missing query:\n%s", req.Prompt)
	}
}

func TestNewClassifierStrategyValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClassifierStrategy(nil, "", testDescriptors(), "assistant"); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("nil completer: error = %v, want ErrValidation", err)
	}
	if _, err := NewClassifierStrategy(&fakeCompleter{}, "", nil, "assistant"); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("no descriptors: error = %v, want ErrValidation", err)
	}
	if _, err := NewClassifierStrategy(&fakeCompleter{}, "", testDescriptors(), "ghost"); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("unknown default: error = %v, want ErrValidation", err)
	}
}

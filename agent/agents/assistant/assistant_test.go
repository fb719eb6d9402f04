package assistant

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

func TestProcessQuerySuccess(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{reply: "Bitcoin is a decentralized currency."}
	agent, err := New(completer, "You are a crypto expert.")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	resp := agent.ProcessQuery(context.Background(), "what is bitcoin?", nil)
	if resp.Status != contractx.StatusSuccess {
		t.Fatalf("ProcessQuery() status = %q, want success", resp.Status)
	}
	if resp.AgentTag != AgentID {
		t.Fatalf("ProcessQuery() agent tag = %q, want %q", resp.AgentTag, AgentID)
	}
	if resp.Message != "Bitcoin is a decentralized currency." {
		t.Fatalf("ProcessQuery() message = %q", resp.Message)
	}
	if resp.Data != nil {
		t.Fatalf("ProcessQuery() data = %v, want nil", resp.Data)
	}
	if completer.calls[0].System != "You are a crypto expert." {
		t.Fatalf("system prompt = %q", completer.calls[0].System)
	}
}

func TestProcessQueryEnhancesPromptFromMetadata(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{reply: "It looks volatile."}
	agent, err := New(completer, "system")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	agent.ProcessQuery(context.Background(), "should I buy it?", contractx.Metadata{
		"last_symbol": "SOL",
		"last_price":  "$150.00",
		"last_chain":  "solana",
	})

	prompt := completer.calls[0].Prompt
	for _, want := range []string{"Last discussed token: SOL", "Price: $150.00", "Chain: solana", "should I buy it?"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestProcessQueryUnrelatedMetadataLeavesPromptAlone(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{reply: "hello"}
	agent, err := New(completer, "system")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	agent.ProcessQuery(context.Background(), "hi", contractx.Metadata{"last_quote_id": "q-1"})

	if got := completer.calls[0].Prompt; got != "hi" {
		t.Fatalf("prompt = %q, want query unchanged", got)
	}
}

func TestProcessQueryCompleterErrorBecomesErrorResponse(t *testing.T) {
	t.Parallel()

	agent, err := New(&fakeCompleter{err: errors.New("timeout")}, "system")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	resp := agent.ProcessQuery(context.Background(), "what is bitcoin?", nil)
	if !resp.IsError() {
		t.Fatalf("ProcessQuery() status = %q, want error", resp.Status)
	}
	if !strings.Contains(resp.Message, "timeout") {
		t.Fatalf("ProcessQuery() message = %q, want cause included", resp.Message)
	}
}

func TestProcessQueryEmptyReplyIsError(t *testing.T) {
	t.Parallel()

	agent, err := New(&fakeCompleter{reply: "   "}, "system")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if resp := agent.ProcessQuery(context.Background(), "hi", nil); !resp.IsError() {
		t.Fatalf("ProcessQuery() status = %q, want error for empty reply", resp.Status)
	}
}

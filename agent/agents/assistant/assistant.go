// Package assistant implements the general-purpose conversational agent. It
// is the routing default: anything no specialist claims lands here.
package assistant

import (
	"context"
	"fmt"
	"strings"

	contractx "tokenpilot/agent/contract"
)

const AgentID = "assistant"

const completionMaxTokens = 400

type Agent struct {
	completer    contractx.Completer
	systemPrompt string
}

var _ contractx.Agent = (*Agent)(nil)

func New(completer contractx.Completer, systemPrompt string) (*Agent, error) {
	if completer == nil {
		return nil, fmt.Errorf("%w: completer is required", contractx.ErrValidation)
	}
	return &Agent{
		completer:    completer,
		systemPrompt: strings.TrimSpace(systemPrompt),
	}, nil
}

func (a *Agent) Description() string {
	return strings.TrimSpace(`
Handles queries about:
- General cryptocurrency questions, explanations, and analysis
- Opinions, strategies, forecasts, and recommendations
- Follow-up discussion about previously fetched market data
- Anything that does not require a live data lookup or a trade
`)
}

// ProcessQuery asks the LLM collaborator for an answer, folding known facts
// from the shared metadata into the prompt so follow-up questions like
// "should I buy it?" resolve against the token discussed last.
func (a *Agent) ProcessQuery(ctx context.Context, query string, shared contractx.Metadata) contractx.Response {
	reply, err := a.completer.Complete(ctx, contractx.Completion{
		System:      a.systemPrompt,
		Prompt:      enhancePrompt(query, shared),
		MaxTokens:   completionMaxTokens,
		Temperature: -1,
	})
	if err != nil {
		return contractx.ErrorResponse(AgentID, err, "answer query")
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return contractx.ErrorResponse(AgentID, contractx.ErrModelInvoke, "model returned an empty reply")
	}
	return contractx.SuccessResponse(AgentID, reply, nil)
}

func (a *Agent) Reset() {}

func enhancePrompt(query string, shared contractx.Metadata) string {
	if len(shared) == 0 {
		return query
	}

	var facts []string
	if v, ok := shared["last_symbol"]; ok {
		facts = append(facts, fmt.Sprintf("Last discussed token: %v", v))
	}
	if v, ok := shared["last_price"]; ok {
		facts = append(facts, fmt.Sprintf("Price: %v", v))
	}
	if v, ok := shared["last_chain"]; ok {
		facts = append(facts, fmt.Sprintf("Chain: %v", v))
	}
	if len(facts) == 0 {
		return query
	}

	return fmt.Sprintf("Context: %s\n\nQuery: %s", strings.Join(facts, ". "), query)
}

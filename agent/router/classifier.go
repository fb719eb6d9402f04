package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "tokenpilot/agent/contract"
)

const classifierMaxTokens = 10

// AgentDescriptor is the slice of the registry the classifier needs: an
// identifier plus the agent's self-description for the decision prompt.
type AgentDescriptor struct {
	ID          string
	Description string
}

// ClassifierStrategy asks an LLM collaborator to pick one of the valid agent
// identifiers. The decision prompt is rebuilt per call from the descriptors
// plus the previous interaction's agent as a contextual hint, and the reply is
// constrained to the identifier vocabulary with deterministic decoding.
type ClassifierStrategy struct {
	completer contractx.Completer
	preamble  string
	agents    []AgentDescriptor
	validIDs  map[string]struct{}
	defaultID string
}

func NewClassifierStrategy(completer contractx.Completer, preamble string, agents []AgentDescriptor, defaultID string) (*ClassifierStrategy, error) {
	if completer == nil {
		return nil, fmt.Errorf("%w: completer is required", contractx.ErrValidation)
	}
	if len(agents) == 0 {
		return nil, fmt.Errorf("%w: at least one agent descriptor is required", contractx.ErrValidation)
	}

	valid := make(map[string]struct{}, len(agents))
	for _, a := range agents {
		id := strings.ToLower(strings.TrimSpace(a.ID))
		if id == "" {
			return nil, fmt.Errorf("%w: agent descriptor id must not be empty", contractx.ErrValidation)
		}
		valid[id] = struct{}{}
	}

	defaultID = strings.ToLower(strings.TrimSpace(defaultID))
	if _, ok := valid[defaultID]; !ok {
		return nil, fmt.Errorf("%w: default agent %q is not among descriptors", contractx.ErrValidation, defaultID)
	}

	return &ClassifierStrategy{
		completer: completer,
		preamble:  strings.TrimSpace(preamble),
		agents:    agents,
		validIDs:  valid,
		defaultID: defaultID,
	}, nil
}

func (s *ClassifierStrategy) Select(ctx context.Context, query string, recent []contractx.Interaction) (string, error) {
	reply, err := s.completer.Complete(ctx, contractx.Completion{
		System:      s.systemPrompt(),
		Prompt:      s.userPrompt(query, recent),
		MaxTokens:   classifierMaxTokens,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("%w: classify query: %v", contractx.ErrModelInvoke, err)
	}

	id := strings.ToLower(strings.TrimSpace(strings.Trim(strings.TrimSpace(reply), "\"'`")))
	if _, ok := s.validIDs[id]; !ok {
		log.Warn().Str("agent_id", id).Msg("classifier returned invalid agent id, using default")
		return s.defaultID, nil
	}
	return id, nil
}

func (s *ClassifierStrategy) systemPrompt() string {
	var b strings.Builder
	b.WriteString(s.preamble)
	b.WriteString("\n")
	for _, a := range s.agents {
		b.WriteString("\n")
		b.WriteString(a.ID)
		b.WriteString(":\n")
		b.WriteString(strings.TrimSpace(a.Description))
		b.WriteString("\n")
	}
	b.WriteString("\nRespond ONLY with one of these exact strings: ")
	for i, a := range s.agents {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q", a.ID)
	}
	return b.String()
}

func (s *ClassifierStrategy) userPrompt(query string, recent []contractx.Interaction) string {
	prompt := "Route this query: " + query
	if prev := previousAgentID(recent); prev != "" {
		prompt += "\nPrevious interaction was handled by: " + prev
	}
	return prompt
}

package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "tokenpilot/agent/contract"
)

// Router maps a query plus the recent conversation to exactly one registered
// agent identifier. Selection itself never fails: collaborator errors and
// out-of-registry strategy output both resolve to the default agent.
type Router struct {
	strategy  contractx.Strategy
	validIDs  map[string]struct{}
	defaultID string
}

func New(strategy contractx.Strategy, agentIDs []string, defaultID string) (*Router, error) {
	if strategy == nil {
		return nil, fmt.Errorf("%w: strategy is required", contractx.ErrValidation)
	}
	if len(agentIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one agent id is required", contractx.ErrValidation)
	}

	valid := make(map[string]struct{}, len(agentIDs))
	for _, id := range agentIDs {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" {
			return nil, fmt.Errorf("%w: agent id must not be empty", contractx.ErrValidation)
		}
		valid[id] = struct{}{}
	}

	defaultID = strings.ToLower(strings.TrimSpace(defaultID))
	if _, ok := valid[defaultID]; !ok {
		return nil, fmt.Errorf("%w: default agent %q is not among registered ids", contractx.ErrValidation, defaultID)
	}

	return &Router{
		strategy:  strategy,
		validIDs:  valid,
		defaultID: defaultID,
	}, nil
}

// Select returns the identifier of the agent that should handle the query.
func (r *Router) Select(ctx context.Context, query string, recent []contractx.Interaction) string {
	id, err := r.strategy.Select(ctx, query, recent)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("strategy failed, falling back to default agent")
		return r.defaultID
	}

	id = strings.ToLower(strings.TrimSpace(id))
	if _, ok := r.validIDs[id]; !ok {
		log.Warn().Str("agent_id", id).Msg("strategy returned unregistered agent id, falling back to default agent")
		return r.defaultID
	}
	return id
}

func (r *Router) DefaultID() string {
	return r.defaultID
}

// previousAgentID reports which agent handled the most recent interaction, or
// "" when there is no history. Both strategies use it for recency context.
func previousAgentID(recent []contractx.Interaction) string {
	if len(recent) == 0 {
		return ""
	}
	return recent[len(recent)-1].AgentID
}

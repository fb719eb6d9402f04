package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "tokenpilot/agent/contract"
)

// Tag marks responses produced by the orchestrator itself rather than by any
// registered agent (registry inconsistencies, recovered panics).
const Tag = "orchestrator"

// Selector is the routing decision the service depends on. The concrete
// implementation is router.Router; tests substitute fakes.
type Selector interface {
	Select(ctx context.Context, query string, recent []contractx.Interaction) string
}

// Service owns the agent registry, wires the router and context store, and
// turns one query into one recorded interaction. The registry is fixed at
// construction.
type Service struct {
	registry map[string]contractx.Agent
	order    []string
	selector Selector
	store    contractx.ContextStore
}

func New(agents map[string]contractx.Agent, selector Selector, store contractx.ContextStore) (*Service, error) {
	if len(agents) == 0 {
		return nil, fmt.Errorf("%w: at least one agent is required", contractx.ErrValidation)
	}
	if selector == nil {
		return nil, fmt.Errorf("%w: selector is required", contractx.ErrValidation)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: context store is required", contractx.ErrValidation)
	}

	registry := make(map[string]contractx.Agent, len(agents))
	order := make([]string, 0, len(agents))
	for id, agent := range agents {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" {
			return nil, fmt.Errorf("%w: agent id must not be empty", contractx.ErrValidation)
		}
		if agent == nil {
			return nil, fmt.Errorf("%w: agent %q is nil", contractx.ErrValidation, id)
		}
		registry[id] = agent
		order = append(order, id)
	}
	sort.Strings(order)

	return &Service{
		registry: registry,
		order:    order,
		selector: selector,
		store:    store,
	}, nil
}

// Handle routes the query to one agent, records the outcome, and returns the
// agent's response unmodified. It never fails: routing always resolves to some
// agent, agent failures arrive as error responses per the capability contract,
// and anything that still panics is recovered here into an orchestrator-tagged
// error response. The outcome is recorded either way so the next routing
// decision sees what actually happened.
func (s *Service) Handle(ctx context.Context, query string) contractx.Response {
	resp, agentID := s.process(ctx, query)
	s.store.Record(query, resp, agentID)
	return resp
}

func (s *Service) process(ctx context.Context, query string) (resp contractx.Response, agentID string) {
	agentID = Tag
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("query", query).Msg("recovered panic during dispatch")
			resp = contractx.ErrorResponse(Tag, fmt.Errorf("%v", r), "internal failure while processing query")
			agentID = Tag
		}
	}()

	recent := s.store.Recent(0)
	selected := s.selector.Select(ctx, query, recent)

	agent, ok := s.registry[selected]
	if !ok {
		// The router guarantees membership; reaching this branch is a defect.
		log.Error().Str("agent_id", selected).Msg("selector returned id missing from registry")
		return contractx.ErrorResponse(Tag, contractx.ErrAgentNotFound, fmt.Sprintf("no agent registered for id %q", selected)), Tag
	}

	log.Info().Str("agent_id", selected).Msg("dispatching query")
	return agent.ProcessQuery(ctx, query, s.store.Metadata()), selected
}

// Reset clears the shared conversation layer and offers every agent the
// chance to clear its own local context.
func (s *Service) Reset() {
	s.store.Reset()
	for _, id := range s.order {
		s.registry[id].Reset()
	}
	log.Info().Msg("conversation context cleared")
}

// AgentIDs returns the registered identifiers in sorted order.
func (s *Service) AgentIDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

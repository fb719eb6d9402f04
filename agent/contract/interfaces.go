package contract

import "context"

// Agent is the capability contract every registered handler implements.
//
// ProcessQuery must not panic and must not return partial state through any
// channel other than the Response: failures are reported as StatusError with a
// descriptive message. The shared metadata is a snapshot; mutating it has no
// effect on the conversation state.
type Agent interface {
	// Description returns a stable summary of the query categories this agent
	// handles. The classifier strategy embeds it into its decision prompt, so
	// it must not change between calls for a given instance.
	Description() string

	ProcessQuery(ctx context.Context, query string, shared Metadata) Response

	// Reset clears any agent-local context the agent keeps alongside the
	// shared conversation state.
	Reset()
}

// Strategy selects one agent identifier for a query. Failing to classify is a
// normal outcome, not an error: a strategy that cannot decide returns its
// default identifier with a nil error. The error return is reserved for
// collaborator failures (transport, decoding) that the router resolves by
// falling back to the default agent.
type Strategy interface {
	Select(ctx context.Context, query string, recent []Interaction) (string, error)
}

// Completer is the opaque text-completion collaborator used by the classifier
// strategy and the conversational agent.
type Completer interface {
	Complete(ctx context.Context, req Completion) (string, error)
}

// ContextStore is the shared conversation layer owned by the orchestrator.
type ContextStore interface {
	Record(query string, resp Response, agentID string) Interaction
	Recent(n int) []Interaction
	Metadata() Metadata
	Reset()
}

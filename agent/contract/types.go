package contract

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Metadata is the shared "latest facts" snapshot passed into every agent call.
// Agents receive a copy and never mutate shared state directly; new facts flow
// back only through Response.Data.
type Metadata map[string]any

func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Response is the one structural contract that crosses every boundary:
// agent -> orchestrator -> transport.
type Response struct {
	Message  string   `json:"message"`
	Status   Status   `json:"status"`
	AgentTag string   `json:"agent_tag"`
	Data     Metadata `json:"data,omitempty"`
}

func (r Response) IsError() bool {
	return r.Status == StatusError
}

func SuccessResponse(agentTag, message string, data Metadata) Response {
	return Response{
		Message:  message,
		Status:   StatusSuccess,
		AgentTag: agentTag,
		Data:     data,
	}
}

func ErrorResponse(agentTag string, err error, what string) Response {
	message := fmt.Sprintf("%s: %s", agentTag, what)
	if err != nil {
		message = fmt.Sprintf("%s: %s: %v", agentTag, what, err)
	}
	return Response{
		Message:  message,
		Status:   StatusError,
		AgentTag: agentTag,
	}
}

// Interaction is one recorded exchange. Immutable once created.
type Interaction struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Query     string    `json:"query"`
	Response  Response  `json:"response"`
	AgentID   string    `json:"agent_id"`
}

// Completion is a single text-in/text-out request against an LLM collaborator.
// MaxTokens <= 0 and Temperature < 0 defer to the client's configured defaults.
type Completion struct {
	System      string
	Prompt      string
	MaxTokens   int64
	Temperature float64
}

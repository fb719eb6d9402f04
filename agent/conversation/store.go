package conversation

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "tokenpilot/agent/contract"
)

const (
	// DefaultCapacity bounds the context window when no option overrides it.
	DefaultCapacity = 10

	metadataKeyPrefix = "last_"
)

// Store is the bounded conversation history plus the derived metadata map.
// All operations are serialized behind one mutex so that the append-then-read
// ordering holds even if the surrounding transport lets calls overlap.
// Concurrent conversations should use distinct Store instances.
type Store struct {
	mu       sync.Mutex
	capacity int
	window   []contractx.Interaction
	metadata contractx.Metadata
	now      func() time.Time
}

type StoreOption func(*Store)

func WithCapacity(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithClock overrides the timestamp source. Tests use this for deterministic
// interaction timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		capacity: DefaultCapacity,
		metadata: contractx.Metadata{},
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Record appends a new interaction, evicting the oldest when the window is
// full, and folds the response's data fields into the metadata map. Error
// responses and data-less responses leave the metadata untouched, so the
// latest known facts survive turns that surfaced nothing new.
func (s *Store) Record(query string, resp contractx.Response, agentID string) contractx.Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	interaction := contractx.Interaction{
		ID:        uuid.NewString(),
		Timestamp: s.now().UTC(),
		Query:     query,
		Response:  resp,
		AgentID:   agentID,
	}

	s.window = append(s.window, interaction)
	if len(s.window) > s.capacity {
		evicted := len(s.window) - s.capacity
		s.window = append([]contractx.Interaction(nil), s.window[evicted:]...)
	}

	if resp.Status == contractx.StatusSuccess && len(resp.Data) > 0 {
		for k, v := range resp.Data {
			s.metadata[metadataKeyPrefix+k] = v
		}
	} else {
		log.Debug().
			Str("agent_id", agentID).
			Str("status", string(resp.Status)).
			Msg("interaction carried no data fields, metadata unchanged")
	}

	return interaction
}

// Recent returns the last n interactions, most-recent-last. n <= 0 returns the
// whole window. The result is a snapshot; later Record calls do not alter it.
func (s *Store) Recent(n int) []contractx.Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 || n > len(s.window) {
		n = len(s.window)
	}
	out := make([]contractx.Interaction, n)
	copy(out, s.window[len(s.window)-n:])
	return out
}

// Metadata returns a copy of the derived metadata map.
func (s *Store) Metadata() contractx.Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(contractx.Metadata, len(s.metadata))
	for k, v := range s.metadata {
		out[k] = v
	}
	return out
}

// Reset clears the window and the metadata map together.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.window = nil
	s.metadata = contractx.Metadata{}
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.window)
}

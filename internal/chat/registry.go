package chat

import (
	"sync"

	"github.com/google/uuid"
)

// Registry holds the live pipeline for every in-memory conversation and
// serializes turns within each one.
type Registry struct {
	deps Deps

	mu        sync.Mutex
	pipelines map[string]*Pipeline

	// conversationLocks serializes concurrent requests to the same
	// conversation. For horizontal scaling, replace with
	// pg_advisory_xact_lock.
	conversationLocks sync.Map
}

// NewRegistry creates an empty registry whose pipelines share deps.
func NewRegistry(deps Deps) *Registry {
	return &Registry{
		deps:      deps,
		pipelines: make(map[string]*Pipeline),
	}
}

// Get returns the pipeline for an existing conversation.
func (r *Registry) Get(conversationID string) (*Pipeline, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pipeline, ok := r.pipelines[conversationID]
	return pipeline, ok
}

// GetOrCreate returns the pipeline for conversationID, creating one under a
// fresh UUID when the id is empty. The second return is the effective id.
func (r *Registry) GetOrCreate(conversationID string) (*Pipeline, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	pipeline, ok := r.pipelines[conversationID]
	if !ok {
		pipeline = NewPipeline(r.deps)
		r.pipelines[conversationID] = pipeline
		activeConversations.Set(float64(len(r.pipelines)))
	}
	return pipeline, conversationID
}

// Lock acquires the per-conversation mutex and returns its release func. The
// lock entry is dropped once no other request is waiting on it.
func (r *Registry) Lock(conversationID string) func() {
	lockVal, _ := r.conversationLocks.LoadOrStore(conversationID, &sync.Mutex{})
	convMu := lockVal.(*sync.Mutex)
	convMu.Lock()
	return func() {
		convMu.Unlock()
		if convMu.TryLock() {
			r.conversationLocks.Delete(conversationID)
			convMu.Unlock()
		}
	}
}

// IDs lists the conversations currently held in memory.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.pipelines))
	for id := range r.pipelines {
		ids = append(ids, id)
	}
	return ids
}

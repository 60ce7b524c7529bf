package tracker

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/taskdrop/taskdrop/internal/types"
)

// stateNameCandidates lists, per semantic state, the substrings a tracker
// state name may contain to match it. Order matters: earlier candidates win.
var stateNameCandidates = map[types.WorkflowState][]string{
	types.StateTodo:       {"todo", "to do", "ready"},
	types.StateBacklog:    {"backlog", "triage"},
	types.StateInProgress: {"in progress", "started", "doing"},
	types.StateDone:       {"done", "completed", "finished"},
}

// stateTypeFallback maps a semantic state to the tracker state category
// consulted when no state name matches.
var stateTypeFallback = map[types.WorkflowState]string{
	types.StateBacklog:    "backlog",
	types.StateTodo:       "unstarted",
	types.StateInProgress: "started",
	types.StateDone:       "completed",
}

// ResolveState finds the tracker state ID for a semantic state name.
//
// States are matched first by name: for each candidate substring in order,
// the first state (in snapshot order) whose lowercased name contains it wins.
// Semantic names outside the known table search for their own lowercased
// text. Failing that, the first state whose type equals the semantic state's
// fallback category wins. An empty string means no match.
func ResolveState(states []WorkflowState, semantic types.WorkflowState) string {
	if len(states) == 0 {
		return ""
	}

	candidates, known := stateNameCandidates[semantic]
	if !known {
		if key, ok := canonicalState(semantic); ok {
			semantic = key
			candidates = stateNameCandidates[key]
		} else {
			candidates = []string{strings.ToLower(string(semantic))}
		}
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		for _, st := range states {
			if strings.Contains(strings.ToLower(st.Name), candidate) {
				return st.ID
			}
		}
	}

	if typ, ok := stateTypeFallback[semantic]; ok {
		for _, st := range states {
			if st.Type == typ {
				return st.ID
			}
		}
	}
	return ""
}

// canonicalState matches semantic case-insensitively against the known table.
func canonicalState(semantic types.WorkflowState) (types.WorkflowState, bool) {
	for _, ws := range types.AllWorkflowStates {
		if strings.EqualFold(string(ws), string(semantic)) {
			return ws, true
		}
	}
	return "", false
}

// StateLister fetches the workflow states of a tracker.
type StateLister interface {
	ListWorkflowStates(ctx context.Context) ([]WorkflowState, error)
}

// StateCache resolves semantic states against a lazily fetched snapshot of
// the tracker's workflow states. The snapshot is fetched at most once per
// successful load; concurrent first callers share a single fetch. A failed
// fetch is logged and not cached, so the next resolution tries again.
type StateCache struct {
	lister StateLister
	logger *slog.Logger

	group singleflight.Group

	mu     sync.RWMutex
	states []WorkflowState
	loaded bool
}

// NewStateCache creates a cache over lister. A nil logger uses slog.Default.
func NewStateCache(lister StateLister, logger *slog.Logger) *StateCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateCache{lister: lister, logger: logger}
}

// Resolve returns the tracker state ID for semantic, or "" when the snapshot
// is unavailable or nothing matches.
func (c *StateCache) Resolve(ctx context.Context, semantic types.WorkflowState) string {
	states, ok := c.Snapshot(ctx)
	if !ok {
		return ""
	}
	return ResolveState(states, semantic)
}

// Snapshot returns the cached workflow states, fetching them on first use.
// ok is false when the fetch failed.
func (c *StateCache) Snapshot(ctx context.Context) ([]WorkflowState, bool) {
	c.mu.RLock()
	if c.loaded {
		states := c.states
		c.mu.RUnlock()
		return states, true
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do("states", func() (interface{}, error) {
		c.mu.RLock()
		if c.loaded {
			states := c.states
			c.mu.RUnlock()
			return states, nil
		}
		c.mu.RUnlock()

		states, err := c.lister.ListWorkflowStates(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.states = states
		c.loaded = true
		c.mu.Unlock()
		return states, nil
	})
	if err != nil {
		c.logger.Warn("fetching workflow states failed", "error", err)
		return nil, false
	}
	return v.([]WorkflowState), true
}

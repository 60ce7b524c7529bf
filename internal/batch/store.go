package batch

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/taskdrop/taskdrop/internal/types"
)

// Token identifies a pending batch. Tokens are allocated in strictly
// increasing order and never reused.
type Token uint64

// String renders the token for use as a button value.
func (t Token) String() string {
	return strconv.FormatUint(uint64(t), 10)
}

// ParseToken parses a token rendered by Token.String.
func ParseToken(s string) (Token, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid batch token %q: %w", s, err)
	}
	return Token(n), nil
}

// Store holds proposed batches awaiting an operator decision.
// Take and Drop are destructive reads: only the first consumer of a token
// observes the batch. There is no TTL and no size bound.
type Store struct {
	mu      sync.Mutex
	last    Token
	pending map[Token][]types.ProposedTask
}

// NewStore returns an empty store. The first token it allocates is 1.
func NewStore() *Store {
	return &Store{pending: make(map[Token][]types.ProposedTask)}
}

// Put stores a copy of tasks under a fresh token.
func (s *Store) Put(tasks []types.ProposedTask) Token {
	cp := make([]types.ProposedTask, len(tasks))
	copy(cp, tasks)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	s.pending[s.last] = cp
	return s.last
}

// Take removes and returns the batch for token. ok is false when the token
// is unknown or was already consumed.
func (s *Store) Take(token Token) ([]types.ProposedTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks, ok := s.pending[token]
	if ok {
		delete(s.pending, token)
	}
	return tasks, ok
}

// Drop discards the batch for token and reports whether it was present.
func (s *Store) Drop(token Token) bool {
	_, ok := s.Take(token)
	return ok
}

// Len returns the number of pending batches.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

package transcript

import "sync"

// DefaultLimit is the transcript capacity used when none is configured.
const DefaultLimit = 20

// Store is the bounded, process-wide conversation. Index 0 always holds the
// base system prompt; eviction is positional and never considers roles, so a
// track or topic directive appended later can age out like any other turn.
type Store struct {
	mu         sync.RWMutex
	basePrompt string
	limit      int
	turns      []Turn
}

func NewStore(basePrompt string, limit int) *Store {
	if limit < 2 {
		limit = DefaultLimit
	}
	return &Store{
		basePrompt: basePrompt,
		limit:      limit,
		turns:      []Turn{System(basePrompt)},
	}
}

// Append adds turn to the end and truncates to the first turn plus the most
// recent limit-1 turns. It returns the resulting length.
func (s *Store) Append(turn Turn) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(turn)
	return len(s.turns)
}

// AppendSnapshot appends turn and returns the resulting transcript in one
// critical section, so the copy handed to the provider is exactly the state
// this append produced.
func (s *Store) AppendSnapshot(turn Turn) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(turn)
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *Store) appendLocked(turn Turn) {
	s.turns = append(s.turns, turn)
	if len(s.turns) > s.limit {
		kept := make([]Turn, 0, s.limit)
		kept = append(kept, s.turns[0])
		kept = append(kept, s.turns[len(s.turns)-(s.limit-1):]...)
		s.turns = kept
	}
}

// Reset discards all history, including accumulated directives.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = []Turn{System(s.basePrompt)}
}

// Snapshot returns a copy of the ordered turns.
func (s *Store) Snapshot() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

func (s *Store) Limit() int { return s.limit }

func (s *Store) BasePrompt() string { return s.basePrompt }

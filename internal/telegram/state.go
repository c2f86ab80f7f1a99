package telegram

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	StateWaitingQuantity    = "waiting_quantity"
	StateWaitingAddress     = "waiting_address"
	StateWaitingContactInfo = "waiting_contact_info"
)

// DefaultStateTTL bounds how long an abandoned conversation survives.
const DefaultStateTTL = 30 * time.Minute

// ChatState is one in-flight conversation step for a chat.
type ChatState struct {
	State     string
	ProductId int64
	Quantity  int
	expiresAt time.Time
}

// StateStore holds per-chat conversation state with TTL eviction so a
// flow abandoned mid-step does not linger forever.
type StateStore struct {
	mux    sync.RWMutex
	states map[int64]*ChatState
	ttl    time.Duration
	stop   chan struct{}
	once   sync.Once
}

func NewStateStore(ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	s := &StateStore{
		states: make(map[int64]*ChatState),
		ttl:    ttl,
		stop:   make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

func (s *StateStore) Set(chatId int64, state *ChatState) {
	state.expiresAt = time.Now().Add(s.ttl)
	s.mux.Lock()
	s.states[chatId] = state
	s.mux.Unlock()
}

// Get returns the live state for a chat, treating expired entries as
// absent.
func (s *StateStore) Get(chatId int64) *ChatState {
	s.mux.RLock()
	state, ok := s.states[chatId]
	s.mux.RUnlock()
	if !ok {
		return nil
	}
	if time.Now().After(state.expiresAt) {
		s.Delete(chatId)
		return nil
	}
	return state
}

func (s *StateStore) Delete(chatId int64) {
	s.mux.Lock()
	delete(s.states, chatId)
	s.mux.Unlock()
}

// Len reports the number of stored entries, expired included.
func (s *StateStore) Len() int {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return len(s.states)
}

// Stop halts the background sweeper.
func (s *StateStore) Stop() {
	s.once.Do(func() { close(s.stop) })
}

func (s *StateStore) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *StateStore) evictExpired() {
	now := time.Now()
	s.mux.Lock()
	evicted := 0
	for chatId, state := range s.states {
		if now.After(state.expiresAt) {
			delete(s.states, chatId)
			evicted++
		}
	}
	s.mux.Unlock()
	if evicted > 0 {
		zap.L().Debug("evicted expired chat states", zap.Int("count", evicted))
	}
}

// Package session holds per-user conversation history in memory.
//
// A Session is an ordered sequence of turns; its first turn is always the
// shared system instruction, set once at creation. The Store maps opaque
// session keys to Sessions and is safe for concurrent use: each operation
// locks only the session it touches, and BeginExchange serializes whole
// message exchanges on the same key while leaving other sessions free.
//
// Nothing is persisted; a process restart discards all sessions.
package session

import (
	"container/list"
	"log/slog"
	"sync"
	"time"
)

// Role identifies the author of a turn.
type Role string

// Valid roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation. Immutable once appended.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session owns the ordered turn history for one session key.
//
// The zero value is not useful; Sessions are created by Store.GetOrCreate.
type Session struct {
	// exchange serializes whole message exchanges (append user turn,
	// call the gateway, append assistant turn) on this session. It is
	// never held while touching another session.
	exchange sync.Mutex

	mu    sync.RWMutex
	turns []Turn
}

func newSession(systemInstruction string) *Session {
	return &Session{turns: []Turn{{Role: RoleSystem, Content: systemInstruction}}}
}

func (s *Session) append(t Turn, maxStored int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, t)
	// Retention cap: drop the oldest non-system turns, never the system
	// instruction at index 0. This is storage policy, distinct from the
	// per-call completion window.
	if maxStored > 0 && len(s.turns) > maxStored {
		excess := len(s.turns) - maxStored
		s.turns = append(s.turns[:1], s.turns[1+excess:]...)
	}
}

// window returns a copy of the most recent max turns in order.
func (s *Session) window(max int) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := 0
	if max > 0 && len(s.turns) > max {
		start = len(s.turns) - max
	}
	out := make([]Turn, len(s.turns)-start)
	copy(out, s.turns[start:])
	return out
}

// Len returns the number of stored turns, including the system turn.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Config bounds the Store's memory use.
type Config struct {
	// SystemInstruction seeds every new session's first turn.
	SystemInstruction string

	// MaxStoredTurns caps the turns retained per session (0 = unbounded).
	MaxStoredTurns int

	// TTL evicts sessions idle for longer than this (0 = never).
	TTL time.Duration

	// MaxSessions caps concurrent sessions; the least recently used
	// session is evicted beyond it (0 = unbounded).
	MaxSessions int
}

type entry struct {
	key      string
	sess     *Session
	lastSeen time.Time
}

// Store maps session keys to Sessions. Safe for concurrent use.
type Store struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*list.Element
	lru      *list.List // front = most recently used

	now func() time.Time // test hook
}

// NewStore creates a Store. logger may be nil.
func NewStore(cfg Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*list.Element),
		lru:      list.New(),
		now:      time.Now,
	}
}

// GetOrCreate returns the session for key, creating it with the system
// instruction as its sole turn when absent. Creation is total: it never
// fails. Stale and excess sessions are evicted on the way in.
func (st *Store) GetOrCreate(key string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.getOrCreateLocked(key)
}

func (st *Store) getOrCreateLocked(key string) *Session {
	now := st.now()
	if el, ok := st.sessions[key]; ok {
		e := el.Value.(*entry)
		e.lastSeen = now
		st.lru.MoveToFront(el)
		return e.sess
	}

	st.evictLocked(now)

	e := &entry{key: key, sess: newSession(st.cfg.SystemInstruction), lastSeen: now}
	st.sessions[key] = st.lru.PushFront(e)
	st.logger.Debug("session created", "key", key, "sessions", len(st.sessions))
	return e.sess
}

// evictLocked removes idle sessions past the TTL, then least recently
// used sessions beyond MaxSessions-1 (leaving room for one new session).
// Sessions with an exchange in flight are skipped.
func (st *Store) evictLocked(now time.Time) {
	if st.cfg.TTL > 0 {
		for el := st.lru.Back(); el != nil; {
			e := el.Value.(*entry)
			if now.Sub(e.lastSeen) < st.cfg.TTL {
				break
			}
			prev := el.Prev()
			st.removeLocked(el, "idle")
			el = prev
		}
	}
	if st.cfg.MaxSessions > 0 {
		for el := st.lru.Back(); el != nil && len(st.sessions) >= st.cfg.MaxSessions; {
			prev := el.Prev()
			st.removeLocked(el, "lru")
			el = prev
		}
	}
}

func (st *Store) removeLocked(el *list.Element, reason string) {
	e := el.Value.(*entry)
	// Skip sessions mid-exchange; they are evidently not idle.
	if !e.sess.exchange.TryLock() {
		return
	}
	e.sess.exchange.Unlock()
	st.lru.Remove(el)
	delete(st.sessions, e.key)
	st.logger.Debug("session evicted", "key", e.key, "reason", reason)
}

// BeginExchange acquires the per-session ordering lock for key, creating
// the session if needed, and returns the release func. Concurrent
// exchanges on the same key are strictly ordered; distinct keys proceed
// independently.
func (st *Store) BeginExchange(key string) (done func()) {
	for {
		sess := st.GetOrCreate(key)
		sess.exchange.Lock()
		// The session may have been evicted between the lookup and the
		// lock (its mutex was free in that window). A lock on an
		// orphaned session guards nothing: later operations on key
		// would resolve to a fresh session. Re-check the mapping and
		// retry on the live session.
		st.mu.Lock()
		el, ok := st.sessions[key]
		live := ok && el.Value.(*entry).sess == sess
		st.mu.Unlock()
		if live {
			return sess.exchange.Unlock
		}
		sess.exchange.Unlock()
	}
}

// AppendUserTurn appends a user turn to the session for key.
func (st *Store) AppendUserTurn(key, text string) {
	st.GetOrCreate(key).append(Turn{Role: RoleUser, Content: text}, st.cfg.MaxStoredTurns)
}

// AppendAssistantTurn appends an assistant turn to the session for key.
func (st *Store) AppendAssistantTurn(key, text string) {
	st.GetOrCreate(key).append(Turn{Role: RoleAssistant, Content: text}, st.cfg.MaxStoredTurns)
}

// Window returns a copy of the most recent maxTurns turns for key, in
// chronological order, fewer if the history is shorter. This is the exact
// sequence handed to the completion gateway; stored history is untouched.
func (st *Store) Window(key string, maxTurns int) []Turn {
	return st.GetOrCreate(key).window(maxTurns)
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

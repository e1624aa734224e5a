package models

import (
	"sync"
	"time"
)

type CallType string

const (
	CallWaiting CallType = "waiting"
	CallActive  CallType = "active"
)

type Role string

const (
	RoleCaller    Role = "caller"
	RoleAssistant Role = "assistant"
)

// ToolCall is a structured action requested by the language model mid-turn.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Turn is one transcript entry. Seq is its 1-based position in the history.
type Turn struct {
	Seq       int       `json:"seq"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Language  string    `json:"language,omitempty"`
	ToolCall  *ToolCall `json:"tool_call,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CallSession is the state of one call. It is written only by the worker that
// owns it; the lock exists so snapshots can be read from other goroutines.
type CallSession struct {
	mu sync.RWMutex

	id       string
	room     string
	identity string

	callType CallType
	active   bool
	history  []Turn

	startedAt time.Time
	endedAt   time.Time
	endReason string
}

// CallSnapshot is a read-only copy of a session.
type CallSnapshot struct {
	SessionID string     `json:"session_id"`
	Room      string     `json:"room"`
	Identity  string     `json:"identity"`
	CallType  CallType   `json:"call_type"`
	Active    bool       `json:"active"`
	Turns     int        `json:"turns"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	EndReason string     `json:"end_reason,omitempty"`
}

func NewCallSession(id, room, identity string) *CallSession {
	return &CallSession{
		id:       id,
		room:     room,
		identity: identity,
		callType: CallWaiting,
	}
}

func (s *CallSession) ID() string       { return s.id }
func (s *CallSession) Room() string     { return s.room }
func (s *CallSession) Identity() string { return s.identity }

func (s *CallSession) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *CallSession) CallType() CallType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.callType
}

// Activate moves a waiting session to Active/active. It reports false if the
// session was already active.
func (s *CallSession) Activate(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return false
	}
	s.active = true
	s.callType = CallActive
	if s.startedAt.IsZero() {
		s.startedAt = now.UTC()
	}
	s.endedAt = time.Time{}
	s.endReason = ""
	return true
}

// End resets the session to Waiting/inactive. Only the first call after
// activation records the reason; later calls report false and change nothing.
func (s *CallSession) End(reason string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return false
	}
	s.active = false
	s.callType = CallWaiting
	s.endedAt = now.UTC()
	s.endReason = reason
	return true
}

// Append commits turns to the end of the history and returns them with Seq and
// Timestamp filled in. Prior entries are never touched.
func (s *CallSession) Append(now time.Time, turns ...Turn) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Turn, 0, len(turns))
	for _, t := range turns {
		t.Seq = len(s.history) + 1
		if t.Timestamp.IsZero() {
			t.Timestamp = now.UTC()
		}
		if t.ToolCall != nil {
			t.ToolCall = t.ToolCall.clone()
		}
		s.history = append(s.history, t)
		out = append(out, t)
	}
	return out
}

// History returns a copy of the committed transcript in chronological order.
func (s *CallSession) History() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

func (s *CallSession) Snapshot() CallSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := CallSnapshot{
		SessionID: s.id,
		Room:      s.room,
		Identity:  s.identity,
		CallType:  s.callType,
		Active:    s.active,
		Turns:     len(s.history),
		StartedAt: s.startedAt,
		EndReason: s.endReason,
	}
	if !s.endedAt.IsZero() {
		ended := s.endedAt
		snap.EndedAt = &ended
	}
	return snap
}

func (c *ToolCall) clone() *ToolCall {
	out := &ToolCall{Name: c.Name}
	if c.Arguments != nil {
		out.Arguments = make(map[string]any, len(c.Arguments))
		for k, v := range c.Arguments {
			out.Arguments[k] = v
		}
	}
	return out
}

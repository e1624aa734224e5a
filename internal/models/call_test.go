package models

import (
	"testing"
	"time"
)

func TestCallSessionLifecycle(t *testing.T) {
	s := NewCallSession("s1", "call-main", "alice")
	if s.Active() || s.CallType() != CallWaiting {
		t.Fatalf("new session = %v/%v, want waiting/inactive", s.CallType(), s.Active())
	}

	now := time.Now()
	if !s.Activate(now) {
		t.Fatal("Activate() = false on waiting session")
	}
	if !s.Active() || s.CallType() != CallActive {
		t.Fatalf("after Activate = %v/%v, want active/active", s.CallType(), s.Active())
	}
	if s.Activate(now) {
		t.Fatal("second Activate() = true, want false")
	}

	if !s.End("end_call", now) {
		t.Fatal("End() = false on active session")
	}
	if s.End("disconnect", now) {
		t.Fatal("second End() = true, want false")
	}
	snap := s.Snapshot()
	if snap.Active || snap.CallType != CallWaiting || snap.EndReason != "end_call" || snap.EndedAt == nil {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestCallSessionAppendIsOrderedAndAppendOnly(t *testing.T) {
	s := NewCallSession("s1", "call-main", "alice")
	now := time.Now()

	first := s.Append(now, Turn{Role: RoleAssistant, Content: "hello"})
	if len(first) != 1 || first[0].Seq != 1 || first[0].Timestamp.IsZero() {
		t.Fatalf("first append = %+v", first)
	}

	args := map[string]any{"k": "v"}
	got := s.Append(now,
		Turn{Role: RoleCaller, Content: "vanakkam"},
		Turn{Role: RoleAssistant, Content: "namaste", ToolCall: &ToolCall{Name: "x", Arguments: args}},
	)
	if got[0].Seq != 2 || got[1].Seq != 3 {
		t.Fatalf("seqs = %d,%d want 2,3", got[0].Seq, got[1].Seq)
	}

	args["k"] = "mutated"
	h := s.History()
	if len(h) != 3 {
		t.Fatalf("len(history) = %d, want 3", len(h))
	}
	if h[2].ToolCall.Arguments["k"] != "v" {
		t.Fatal("recorded tool call shares caller's argument map")
	}

	h[0].Content = "changed"
	if s.History()[0].Content != "hello" {
		t.Fatal("History() exposes internal storage")
	}
	for i, turn := range s.History() {
		if turn.Seq != i+1 {
			t.Fatalf("turn %d has seq %d", i, turn.Seq)
		}
	}
}

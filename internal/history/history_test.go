package history

import (
	"context"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndRecentMessages(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.EnsureSession(ctx, "conv-1"); err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	for _, m := range []struct{ role, content string }{
		{"user", "hello"},
		{"assistant", "hi there"},
		{"user", "cluster my data"},
	} {
		if _, err := s.AppendMessage(ctx, "conv-1", m.role, m.content); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}

	msgs, err := s.RecentMessages(ctx, "conv-1", 2)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Content != "hi there" || msgs[1].Content != "cluster my data" {
		t.Errorf("window out of order: %q, %q", msgs[0].Content, msgs[1].Content)
	}
}

func TestRecordToolRunBothOutcomes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.EnsureSession(ctx, "conv-1"); err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	ok := ToolRun{SessionID: "conv-1", Tool: "normalize", Stage: "reply", Status: "ok", InputRows: 10, OutputRows: 9, DurationMS: 12}
	failed := ToolRun{SessionID: "conv-1", Tool: "cluster", Stage: "enriching", Status: "tool_error", Error: "no suitable data available for cluster"}

	if err := s.RecordToolRun(ctx, ok); err != nil {
		t.Fatalf("RecordToolRun ok: %v", err)
	}
	if err := s.RecordToolRun(ctx, failed); err != nil {
		t.Fatalf("RecordToolRun failed: %v", err)
	}

	runs, err := s.ToolRuns(ctx, "conv-1")
	if err != nil {
		t.Fatalf("ToolRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].Tool != "normalize" || runs[0].Status != "ok" || runs[0].OutputRows != 9 {
		t.Errorf("run 0 = %+v", runs[0])
	}
	if runs[1].Tool != "cluster" || runs[1].Status != "tool_error" || runs[1].Error == "" {
		t.Errorf("run 1 = %+v", runs[1])
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.EnsureSession(ctx, "conv-1"); err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	if _, err := s.AppendMessage(ctx, "conv-1", "user", "hello"); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if err := s.RecordToolRun(ctx, ToolRun{SessionID: "conv-1", Tool: "read_csv", Stage: "reply", Status: "ok"}); err != nil {
		t.Fatalf("RecordToolRun: %v", err)
	}

	if err := s.DeleteSession(ctx, "conv-1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	msgs, err := s.RecentMessages(ctx, "conv-1", 10)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("messages survived cascade: %d", len(msgs))
	}
	runs, err := s.ToolRuns(ctx, "conv-1")
	if err != nil {
		t.Fatalf("ToolRuns: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("tool runs survived cascade: %d", len(runs))
	}
}

func TestEnsureSessionIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := s.EnsureSession(ctx, "conv-1"); err != nil {
			t.Fatalf("EnsureSession %d: %v", i, err)
		}
	}
}

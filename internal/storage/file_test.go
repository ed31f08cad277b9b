package storage

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFileRecorder_AppendAndLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "logs", "chat.jsonl")
	rec, err := NewFileRecorder(p)
	if err != nil {
		t.Fatalf("init recorder: %v", err)
	}
	defer rec.Close()

	in := []Event{
		{Timestamp: time.Unix(1, 0).UTC(), SessionID: "s1", UserMessage: "hola", AssistantResponse: "¡Hola!", Source: SourceCache},
		{Timestamp: time.Unix(2, 0).UTC(), SessionID: "s2", UserMessage: "¿vestidos?", AssistantResponse: "Tenemos...", Source: SourceLLM, Model: "m", TotalTokens: 42},
	}
	for _, ev := range in {
		if err := rec.AppendInteraction(ev); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	events, err := rec.LoadInteractions()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("want 2, got %d", len(events))
	}
	if events[0].SessionID != "s1" || events[1].SessionID != "s2" {
		t.Fatalf("order mismatch: %+v", events)
	}
	if events[0].Source != SourceCache || events[1].TotalTokens != 42 || !events[1].Timestamp.Equal(in[1].Timestamp) {
		t.Fatalf("fields lost: %+v", events)
	}
}

func TestFileRecorder_AppendsToExistingFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "chat.jsonl")
	if err := os.WriteFile(p, []byte("{broken\n\n{\"session_id\":\"old\"}\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	rec, err := NewFileRecorder(p)
	if err != nil {
		t.Fatalf("init recorder: %v", err)
	}
	defer rec.Close()
	if err := rec.AppendInteraction(Event{SessionID: "new"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := rec.LoadInteractions()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(events) != 2 || events[0].SessionID != "old" || events[1].SessionID != "new" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestFileRecorder_ConcurrentAppends(t *testing.T) {
	rec, err := NewFileRecorder(filepath.Join(t.TempDir(), "chat.jsonl"))
	if err != nil {
		t.Fatalf("init recorder: %v", err)
	}
	defer rec.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = rec.AppendInteraction(Event{SessionID: "s", UserMessage: "¿tienen talla M?"})
		}()
	}
	wg.Wait()

	events, err := rec.LoadInteractions()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(events) != 50 {
		t.Fatalf("want 50 intact lines, got %d", len(events))
	}
}

func TestFileRecorder_Closed(t *testing.T) {
	rec, err := NewFileRecorder(filepath.Join(t.TempDir(), "chat.jsonl"))
	if err != nil {
		t.Fatalf("init recorder: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := rec.AppendInteraction(Event{}); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("want ErrClosed, got %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

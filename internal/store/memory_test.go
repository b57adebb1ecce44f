package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/pablomtz/saulo-agent/internal/types"
)

func TestMemoryStoreCreateOnMiss(t *testing.T) {
	s := NewMemoryStore(0)
	rec, err := s.GetState(context.Background(), "pablo_main")
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if rec.UserID != "pablo_main" {
		t.Fatalf("unexpected user id %s", rec.UserID)
	}
	if rec.CurrentState != types.StateBase {
		t.Fatalf("new users start in base, got %s", rec.CurrentState)
	}
	if rec.Mood != types.MoodReflective {
		t.Fatalf("new users start reflective, got %s", rec.Mood)
	}
	if rec.StateCounter != 0 || rec.TotalDeepExchanges != 0 {
		t.Fatalf("new users start with zeroed counters, got %d/%d", rec.StateCounter, rec.TotalDeepExchanges)
	}
	if rec.CreatedAt.IsZero() || rec.LastStateChange.IsZero() {
		t.Fatal("timestamps must be set on creation")
	}
}

func TestMemoryStorePartialUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	state := types.StateMelancholic
	if err := s.UpdateState(ctx, "u1", StateUpdate{CurrentState: &state}); err != nil {
		t.Fatalf("UpdateState: %v", err)
	}
	rec, _ := s.GetState(ctx, "u1")
	if rec.CurrentState != types.StateMelancholic {
		t.Fatalf("state not applied, got %s", rec.CurrentState)
	}
	if rec.Mood != types.MoodReflective {
		t.Fatalf("mood must survive a state-only update, got %s", rec.Mood)
	}

	mood := types.MoodIronic
	if err := s.UpdateState(ctx, "u1", StateUpdate{Mood: &mood}); err != nil {
		t.Fatalf("UpdateState: %v", err)
	}
	rec, _ = s.GetState(ctx, "u1")
	if rec.CurrentState != types.StateMelancholic {
		t.Fatalf("state must survive a mood-only update, got %s", rec.CurrentState)
	}
	if rec.Mood != types.MoodIronic {
		t.Fatalf("mood not applied, got %s", rec.Mood)
	}
}

func TestMemoryStoreCounter(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	for want := 1; want <= 3; want++ {
		got, err := s.IncrementCounter(ctx, "u1")
		if err != nil {
			t.Fatalf("IncrementCounter: %v", err)
		}
		if got != want {
			t.Fatalf("counter = %d, want %d", got, want)
		}
	}
	if err := s.ResetCounter(ctx, "u1"); err != nil {
		t.Fatalf("ResetCounter: %v", err)
	}
	rec, _ := s.GetState(ctx, "u1")
	if rec.StateCounter != 0 {
		t.Fatalf("counter = %d after reset", rec.StateCounter)
	}
}

func TestMemoryStoreConcurrentIncrement(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	const workers = 32
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := s.IncrementCounter(ctx, "u1"); err != nil {
				t.Errorf("IncrementCounter: %v", err)
			}
		}()
	}
	wg.Wait()

	rec, _ := s.GetState(ctx, "u1")
	if rec.StateCounter != workers {
		t.Fatalf("lost increments: counter = %d, want %d", rec.StateCounter, workers)
	}
}

func TestMemoryStoreHistoryCap(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(5)

	for i := 0; i < 12; i++ {
		if _, err := s.AppendMessage(ctx, "u1", "user", fmt.Sprintf("msg-%d", i), false); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}
	history, err := s.RecentHistory(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("RecentHistory: %v", err)
	}
	if len(history) != 5 {
		t.Fatalf("history length = %d, want cap 5", len(history))
	}
	if history[0].Content != "msg-7" || history[4].Content != "msg-11" {
		t.Fatalf("oldest entries must be evicted, got %s..%s", history[0].Content, history[4].Content)
	}
}

func TestMemoryStoreRecentHistoryLimit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	for i := 0; i < 6; i++ {
		s.AppendMessage(ctx, "u1", "user", fmt.Sprintf("msg-%d", i), false)
	}
	history, err := s.RecentHistory(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("RecentHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("limited history length = %d, want 2", len(history))
	}
	if history[0].Content != "msg-4" || history[1].Content != "msg-5" {
		t.Fatalf("limit must keep the newest entries in order, got %s, %s", history[0].Content, history[1].Content)
	}
}

func TestMemoryStoreDeepMessageSetsTopic(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	if _, err := s.AppendMessage(ctx, "u1", "user", "¿qué es la existencia?", true); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	rec, _ := s.GetState(ctx, "u1")
	if rec.LastDeepTopic != "¿qué es la existencia?" {
		t.Fatalf("last deep topic = %q", rec.LastDeepTopic)
	}

	long := strings.Repeat("ser ", 60)
	s.AppendMessage(ctx, "u1", "user", long, true)
	rec, _ = s.GetState(ctx, "u1")
	if len([]rune(rec.LastDeepTopic)) > 153 {
		t.Fatalf("deep topic must be truncated, got %d runes", len([]rune(rec.LastDeepTopic)))
	}
}

func TestMemoryStoreInsights(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	for i := 0; i < 4; i++ {
		_, err := s.AddInsight(ctx, "u1", types.Insight{
			Category:       "investigación_esencial",
			Excerpt:        fmt.Sprintf("excerpt-%d", i),
			Interpretation: "la pregunta por el ser",
			SourceState:    types.StateBase,
		}, nil)
		if err != nil {
			t.Fatalf("AddInsight: %v", err)
		}
	}

	rec, _ := s.GetState(ctx, "u1")
	if rec.TotalDeepExchanges != 4 {
		t.Fatalf("total deep exchanges = %d, want 4", rec.TotalDeepExchanges)
	}

	insights, err := s.RecentInsights(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("RecentInsights: %v", err)
	}
	if len(insights) != 2 {
		t.Fatalf("limited insights length = %d, want 2", len(insights))
	}
	if insights[0].Excerpt != "excerpt-2" || insights[1].Excerpt != "excerpt-3" {
		t.Fatalf("insights must be chronological, got %s, %s", insights[0].Excerpt, insights[1].Excerpt)
	}
}

func TestMemoryStoreSearchSimilarInsights(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	s.AddInsight(ctx, "u1", types.Insight{Excerpt: "close"}, []float32{1, 0, 0})
	s.AddInsight(ctx, "u1", types.Insight{Excerpt: "near"}, []float32{0.9, 0.1, 0})
	s.AddInsight(ctx, "u1", types.Insight{Excerpt: "far"}, []float32{0, 0, 1})

	got, err := s.SearchSimilarInsights(ctx, "u1", []float32{1, 0, 0}, 2, 0.5)
	if err != nil {
		t.Fatalf("SearchSimilarInsights: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("result length = %d, want 2", len(got))
	}
	if got[0].Excerpt != "close" || got[1].Excerpt != "near" {
		t.Fatalf("results must rank by similarity, got %s, %s", got[0].Excerpt, got[1].Excerpt)
	}

	if got, _ := s.SearchSimilarInsights(ctx, "u1", nil, 2, 0.5); got != nil {
		t.Fatal("empty query embedding must return nothing")
	}
}

func TestMemoryStoreUserIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	s.IncrementCounter(ctx, "u1")
	s.AppendMessage(ctx, "u1", "user", "hola", false)

	rec, _ := s.GetState(ctx, "u2")
	if rec.StateCounter != 0 {
		t.Fatalf("u2 counter = %d, want 0", rec.StateCounter)
	}
	history, _ := s.RecentHistory(ctx, "u2", 0)
	if len(history) != 0 {
		t.Fatalf("u2 history length = %d, want 0", len(history))
	}
}

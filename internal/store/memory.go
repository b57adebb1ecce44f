package store

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/pablomtz/saulo-agent/internal/types"
)

// memoryUser owns one user's record; all access goes through its mutex.
type memoryUser struct {
	mu       sync.Mutex
	record   types.UserRecord
	history  []types.Message
	insights []insightEntry
	nextMsg  int64
	nextIns  int64
}

type insightEntry struct {
	insight   types.Insight
	embedding []float32
}

// MemoryStore is the in-process backend. Different users never contend on a
// shared lock beyond the map lookup.
type MemoryStore struct {
	mu         sync.Mutex
	users      map[string]*memoryUser
	historyCap int
	nowFunc    func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(historyCap int) *MemoryStore {
	if historyCap <= 0 {
		historyCap = DefaultHistoryCap
	}
	return &MemoryStore{
		users:      make(map[string]*memoryUser),
		historyCap: historyCap,
		nowFunc:    time.Now,
	}
}

func (s *MemoryStore) user(userID string) *memoryUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		now := s.nowFunc()
		u = &memoryUser{
			record: types.UserRecord{
				UserID:          userID,
				CurrentState:    types.StateBase,
				Mood:            types.MoodReflective,
				CreatedAt:       now,
				LastStateChange: now,
			},
		}
		s.users[userID] = u
	}
	return u
}

func (s *MemoryStore) GetState(ctx context.Context, userID string) (types.UserRecord, error) {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.record, nil
}

func (s *MemoryStore) UpdateState(ctx context.Context, userID string, update StateUpdate) error {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	if update.CurrentState != nil {
		u.record.CurrentState = *update.CurrentState
		u.record.LastStateChange = s.nowFunc()
	}
	if update.Mood != nil {
		u.record.Mood = *update.Mood
	}
	if update.LastDeepTopic != nil {
		u.record.LastDeepTopic = *update.LastDeepTopic
	}
	return nil
}

func (s *MemoryStore) IncrementCounter(ctx context.Context, userID string) (int, error) {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	u.record.StateCounter++
	return u.record.StateCounter, nil
}

func (s *MemoryStore) ResetCounter(ctx context.Context, userID string) error {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	u.record.StateCounter = 0
	return nil
}

func (s *MemoryStore) AppendMessage(ctx context.Context, userID, role, content string, isDeep bool) (int64, error) {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	u.nextMsg++
	msg := types.Message{
		ID:        u.nextMsg,
		Role:      role,
		Content:   content,
		IsDeep:    isDeep,
		Timestamp: s.nowFunc(),
	}
	u.history = append(u.history, msg)
	if over := len(u.history) - s.historyCap; over > 0 {
		u.history = append([]types.Message(nil), u.history[over:]...)
	}
	if isDeep {
		u.record.LastDeepTopic = truncateRunes(content, 150)
	}
	return msg.ID, nil
}

func (s *MemoryStore) RecentHistory(ctx context.Context, userID string, limit int) ([]types.Message, error) {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	history := u.history
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]types.Message, len(history))
	copy(out, history)
	return out, nil
}

func (s *MemoryStore) AddInsight(ctx context.Context, userID string, insight types.Insight, embedding []float32) (int64, error) {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	u.nextIns++
	insight.ID = u.nextIns
	if insight.Timestamp.IsZero() {
		insight.Timestamp = s.nowFunc()
	}
	u.insights = append(u.insights, insightEntry{insight: insight, embedding: embedding})
	u.record.TotalDeepExchanges++
	return insight.ID, nil
}

func (s *MemoryStore) RecentInsights(ctx context.Context, userID string, limit int) ([]types.Insight, error) {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	entries := u.insights
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]types.Insight, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.insight)
	}
	return out, nil
}

// SearchSimilarInsights ranks stored insights by cosine similarity. Linear
// scan; fine for the per-user volumes this backend serves.
func (s *MemoryStore) SearchSimilarInsights(ctx context.Context, userID string, embedding []float32, topK int, threshold float64) ([]types.Insight, error) {
	if len(embedding) == 0 {
		return nil, nil
	}
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	type scored struct {
		insight types.Insight
		score   float64
	}
	var candidates []scored
	for _, e := range u.insights {
		score := cosineSimilarity(embedding, e.embedding)
		if score > threshold {
			candidates = append(candidates, scored{insight: e.insight, score: score})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}
	out := make([]types.Insight, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.insight)
	}
	return out, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		vA := float64(a[i])
		vB := float64(b[i])
		dot += vA * vB
		magA += vA * vA
		magB += vB * vB
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

func truncateRunes(s string, budget int) string {
	runes := []rune(s)
	if len(runes) <= budget {
		return s
	}
	return string(runes[:budget]) + "..."
}

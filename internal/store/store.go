// Package store persists per-user conversation state. Two backends exist:
// an in-memory map for local runs and a PostgreSQL store for durable
// deployments. Both serialize mutations per user.
package store

import (
	"context"

	"github.com/pablomtz/saulo-agent/internal/types"
)

// DefaultHistoryCap bounds history length when no cap is configured.
const DefaultHistoryCap = 50

// StateUpdate is a partial update; nil fields are left unchanged.
type StateUpdate struct {
	CurrentState  *types.State
	Mood          *types.Mood
	LastDeepTopic *string
}

// Store is the capability set the orchestrator depends on. Unknown user ids
// are never an error: records are created lazily with default values.
type Store interface {
	// GetState returns the user record, creating it on first access.
	GetState(ctx context.Context, userID string) (types.UserRecord, error)

	// UpdateState merges the given fields into the record.
	UpdateState(ctx context.Context, userID string, update StateUpdate) error

	// IncrementCounter atomically bumps the opposition counter and returns
	// the new value.
	IncrementCounter(ctx context.Context, userID string) (int, error)

	// ResetCounter sets the opposition counter to zero.
	ResetCounter(ctx context.Context, userID string) error

	// AppendMessage appends to history, evicting the oldest entries beyond
	// the cap. Deep messages update last_deep_topic.
	AppendMessage(ctx context.Context, userID, role, content string, isDeep bool) (int64, error)

	// RecentHistory returns the last limit messages, oldest first.
	RecentHistory(ctx context.Context, userID string, limit int) ([]types.Message, error)

	// AddInsight appends an insight and increments total_deep_exchanges.
	// The embedding may be nil when no embedder is configured.
	AddInsight(ctx context.Context, userID string, insight types.Insight, embedding []float32) (int64, error)

	// RecentInsights returns the last limit insights, oldest first.
	RecentInsights(ctx context.Context, userID string, limit int) ([]types.Insight, error)
}

// InsightSearcher is implemented by backends that can recall past insights
// by embedding similarity.
type InsightSearcher interface {
	SearchSimilarInsights(ctx context.Context, userID string, embedding []float32, topK int, threshold float64) ([]types.Insight, error)
}

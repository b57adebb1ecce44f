package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/pablomtz/saulo-agent/internal/types"
)

// userStateModel maps to the saulo_state table.
type userStateModel struct {
	UserID             string `gorm:"primaryKey;column:user_id"`
	CurrentState       string
	Mood               string
	StateCounter       int
	TotalDeepExchanges int `gorm:"column:total_ontological_exchanges"`
	LastDeepTopic      string
	CreatedAt          time.Time
	LastStateChange    time.Time
}

func (userStateModel) TableName() string {
	return "saulo_state"
}

// messageModel maps to the conversation_history table.
type messageModel struct {
	ID        int64
	UserID    string
	Role      string
	Content   string
	IsDeep    bool      `gorm:"column:is_ontological"`
	Timestamp time.Time `gorm:"autoCreateTime"`
}

func (messageModel) TableName() string {
	return "conversation_history"
}

// insightModel maps to the ontological_insights table. The embedding is
// nullable; rows written without an embedder simply skip similarity recall.
type insightModel struct {
	ID             int64
	UserID         string
	Excerpt        string `gorm:"column:conversation_excerpt"`
	Interpretation string `gorm:"column:saulos_interpretation"`
	Category       string `gorm:"column:primary_category"`
	SourceState    string
	Embedding      *pgvector.Vector `gorm:"type:vector(768)"`
	Timestamp      time.Time        `gorm:"autoCreateTime"`
}

func (insightModel) TableName() string {
	return "ontological_insights"
}

// PostgresStore is the durable backend.
type PostgresStore struct {
	db         *gorm.DB
	historyCap int
}

// NewPostgresStore opens the pool, pings it and migrates the three tables.
func NewPostgresStore(ctx context.Context, databaseURL string, historyCap int) (*PostgresStore, error) {
	if historyCap <= 0 {
		historyCap = DefaultHistoryCap
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&userStateModel{}, &messageModel{}, &insightModel{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &PostgresStore{db: db, historyCap: historyCap}, nil
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() {
	sqlDB, err := s.db.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}

func (s *PostgresStore) GetState(ctx context.Context, userID string) (types.UserRecord, error) {
	model := userStateModel{
		UserID:          userID,
		CurrentState:    string(types.StateBase),
		Mood:            string(types.MoodReflective),
		CreatedAt:       time.Now(),
		LastStateChange: time.Now(),
	}
	if err := s.db.WithContext(ctx).
		Where(userStateModel{UserID: userID}).
		Attrs(model).
		FirstOrCreate(&model).Error; err != nil {
		return types.UserRecord{}, fmt.Errorf("failed to load user state: %w", err)
	}
	return recordFromModel(model), nil
}

func (s *PostgresStore) UpdateState(ctx context.Context, userID string, update StateUpdate) error {
	if _, err := s.GetState(ctx, userID); err != nil {
		return err
	}

	fields := map[string]any{}
	if update.CurrentState != nil {
		fields["current_state"] = string(*update.CurrentState)
		fields["last_state_change"] = time.Now()
	}
	if update.Mood != nil {
		fields["mood"] = string(*update.Mood)
	}
	if update.LastDeepTopic != nil {
		fields["last_deep_topic"] = *update.LastDeepTopic
	}
	if len(fields) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).
		Model(&userStateModel{}).
		Where("user_id = ?", userID).
		Updates(fields).Error; err != nil {
		return fmt.Errorf("failed to update user state: %w", err)
	}
	return nil
}

func (s *PostgresStore) IncrementCounter(ctx context.Context, userID string) (int, error) {
	if _, err := s.GetState(ctx, userID); err != nil {
		return 0, err
	}

	var counter int
	if err := s.db.WithContext(ctx).
		Raw(`UPDATE saulo_state
		     SET state_counter = state_counter + 1
		     WHERE user_id = $1
		     RETURNING state_counter`, userID).
		Scan(&counter).Error; err != nil {
		return 0, fmt.Errorf("failed to increment counter: %w", err)
	}
	return counter, nil
}

func (s *PostgresStore) ResetCounter(ctx context.Context, userID string) error {
	if err := s.db.WithContext(ctx).
		Model(&userStateModel{}).
		Where("user_id = ?", userID).
		Update("state_counter", 0).Error; err != nil {
		return fmt.Errorf("failed to reset counter: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendMessage(ctx context.Context, userID, role, content string, isDeep bool) (int64, error) {
	record := messageModel{
		UserID:  userID,
		Role:    role,
		Content: content,
		IsDeep:  isDeep,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return 0, fmt.Errorf("failed to insert message: %w", err)
	}

	// Evict the oldest rows beyond the cap.
	if err := s.db.WithContext(ctx).Exec(`
		DELETE FROM conversation_history
		WHERE user_id = $1
		  AND id NOT IN (
			SELECT id FROM conversation_history
			WHERE user_id = $1
			ORDER BY id DESC
			LIMIT $2
		  )`, userID, s.historyCap).Error; err != nil {
		return 0, fmt.Errorf("failed to trim history: %w", err)
	}

	if isDeep {
		topic := truncateRunes(content, 150)
		if err := s.UpdateState(ctx, userID, StateUpdate{LastDeepTopic: &topic}); err != nil {
			return 0, err
		}
	}
	return record.ID, nil
}

func (s *PostgresStore) RecentHistory(ctx context.Context, userID string, limit int) ([]types.Message, error) {
	var records []messageModel
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}

	results := make([]types.Message, 0, len(records))
	for _, record := range records {
		results = append(results, messageFromModel(record))
	}

	// Oldest -> newest
	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	return results, nil
}

func (s *PostgresStore) AddInsight(ctx context.Context, userID string, insight types.Insight, embedding []float32) (int64, error) {
	var vector *pgvector.Vector
	if len(embedding) > 0 {
		v := pgvector.NewVector(embedding)
		vector = &v
	}
	record := insightModel{
		UserID:         userID,
		Excerpt:        insight.Excerpt,
		Interpretation: insight.Interpretation,
		Category:       insight.Category,
		SourceState:    string(insight.SourceState),
		Embedding:      vector,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return 0, fmt.Errorf("failed to insert insight: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Model(&userStateModel{}).
		Where("user_id = ?", userID).
		Update("total_ontological_exchanges", gorm.Expr("total_ontological_exchanges + 1")).Error; err != nil {
		return 0, fmt.Errorf("failed to bump deep-exchange total: %w", err)
	}
	return record.ID, nil
}

func (s *PostgresStore) RecentInsights(ctx context.Context, userID string, limit int) ([]types.Insight, error) {
	var records []insightModel
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query insights: %w", err)
	}

	results := make([]types.Insight, 0, len(records))
	for _, record := range records {
		results = append(results, insightFromModel(record))
	}
	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	return results, nil
}

// SearchSimilarInsights retrieves past insights by cosine similarity.
func (s *PostgresStore) SearchSimilarInsights(ctx context.Context, userID string, embedding []float32, topK int, threshold float64) ([]types.Insight, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, user_id, conversation_excerpt, saulos_interpretation,
		       primary_category, source_state, timestamp
		FROM ontological_insights
		WHERE user_id = $2
		  AND embedding IS NOT NULL
		  AND 1 - (embedding <=> $1) > $3
		ORDER BY 1 - (embedding <=> $1) DESC
		LIMIT $4`

	var records []insightModel
	if err := s.db.WithContext(ctx).
		Raw(query, pgvector.NewVector(embedding), userID, threshold, topK).
		Scan(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to search similar insights: %w", err)
	}

	results := make([]types.Insight, 0, len(records))
	for _, record := range records {
		results = append(results, insightFromModel(record))
	}
	return results, nil
}

func recordFromModel(model userStateModel) types.UserRecord {
	state, ok := types.ParseState(model.CurrentState)
	if !ok {
		state = types.StateBase
	}
	mood, ok := types.ParseMood(model.Mood)
	if !ok {
		mood = types.DefaultMood(state)
	}
	return types.UserRecord{
		UserID:             model.UserID,
		CurrentState:       state,
		Mood:               mood,
		StateCounter:       model.StateCounter,
		TotalDeepExchanges: model.TotalDeepExchanges,
		LastDeepTopic:      model.LastDeepTopic,
		CreatedAt:          model.CreatedAt,
		LastStateChange:    model.LastStateChange,
	}
}

func messageFromModel(model messageModel) types.Message {
	return types.Message{
		ID:        model.ID,
		Role:      model.Role,
		Content:   model.Content,
		IsDeep:    model.IsDeep,
		Timestamp: model.Timestamp,
	}
}

func insightFromModel(model insightModel) types.Insight {
	state, ok := types.ParseState(model.SourceState)
	if !ok {
		state = types.StateBase
	}
	return types.Insight{
		ID:             model.ID,
		Category:       model.Category,
		Excerpt:        model.Excerpt,
		Interpretation: model.Interpretation,
		SourceState:    state,
		Timestamp:      model.Timestamp,
	}
}

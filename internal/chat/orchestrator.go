// Package chat sequences a conversation turn: blocking check, prompt
// assembly, model call with fallback, depth classification and persistence.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/pablomtz/saulo-agent/internal/brain"
	"github.com/pablomtz/saulo-agent/internal/prompt"
	"github.com/pablomtz/saulo-agent/internal/store"
	"github.com/pablomtz/saulo-agent/internal/types"
)

// minReplyRunes is the threshold below which a model reply counts as
// unavailable.
const minReplyRunes = 5

const excerptBudget = 150

// Options tunes the orchestrator.
type Options struct {
	HistoryLimit        int
	InsightLimit        int
	Timeout             time.Duration
	MaxOutputTokens     int
	Temperature         float64
	TopK                int
	SimilarityThreshold float64
	DefaultUserID       string
}

func (o Options) withDefaults() Options {
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = 10
	}
	if o.InsightLimit <= 0 {
		o.InsightLimit = 3
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.MaxOutputTokens <= 0 {
		o.MaxOutputTokens = 1000
	}
	if o.TopK <= 0 {
		o.TopK = 3
	}
	if o.SimilarityThreshold <= 0 {
		o.SimilarityThreshold = 0.7
	}
	if o.DefaultUserID == "" {
		o.DefaultUserID = "pablo_main"
	}
	return o
}

// TurnResult is what the caller renders for one turn.
type TurnResult struct {
	Text    string      `json:"text"`
	State   types.State `json:"state"`
	IsDeep  bool        `json:"is_deep"`
	Counter int         `json:"state_counter"`
	Blocked bool        `json:"blocked"`
}

// StatusReport is the diagnostic view of one user.
type StatusReport struct {
	Record   types.UserRecord `json:"state"`
	History  []types.Message  `json:"recent_history"`
	Insights []types.Insight  `json:"recent_insights"`
}

// Orchestrator drives one turn at a time per user. Same-user turns are
// serialized through a per-user mutex; different users proceed in parallel.
type Orchestrator struct {
	store    store.Store
	llm      model.LLM // nil means every turn degrades to the fallback
	composer *prompt.Builder
	fallback *brain.FallbackResponder
	embedder store.Embedder // optional
	opts     Options

	locks sync.Map // userID -> *sync.Mutex
}

// New wires an orchestrator. llm and embedder may be nil.
func New(st store.Store, llm model.LLM, embedder store.Embedder, fallback *brain.FallbackResponder, opts Options) *Orchestrator {
	opts = opts.withDefaults()
	if fallback == nil {
		fallback = brain.NewFallbackResponder(nil)
	}
	return &Orchestrator{
		store:    st,
		llm:      llm,
		composer: prompt.NewBuilder(opts.InsightLimit),
		fallback: fallback,
		embedder: embedder,
		opts:     opts,
	}
}

func (o *Orchestrator) lockUser(userID string) func() {
	v, _ := o.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Converse handles one incoming turn. Store failures surface as errors;
// model failures never do.
func (o *Orchestrator) Converse(ctx context.Context, userID, text, command string) (TurnResult, error) {
	if userID == "" {
		userID = o.opts.DefaultUserID
	}
	unlock := o.lockUser(userID)
	defer unlock()

	if command != "" {
		return o.dispatchCommand(ctx, userID, command, text)
	}

	record, err := o.store.GetState(ctx, userID)
	if err != nil {
		return TurnResult{}, err
	}

	if decision := brain.CheckBlock(record.CurrentState, record.StateCounter); decision != nil {
		counter := record.StateCounter
		if decision.IncrementCounter {
			counter, err = o.store.IncrementCounter(ctx, userID)
			if err != nil {
				return TurnResult{}, err
			}
		}
		blockNote := brain.BlockTag(record.CurrentState) + ": " + decision.Text
		if _, err := o.store.AppendMessage(ctx, userID, "system", blockNote, false); err != nil {
			return TurnResult{}, err
		}
		return TurnResult{
			Text:    decision.Text,
			State:   record.CurrentState,
			Counter: counter,
			Blocked: true,
		}, nil
	}

	history, err := o.store.RecentHistory(ctx, userID, o.opts.HistoryLimit)
	if err != nil {
		return TurnResult{}, err
	}
	insights, err := o.store.RecentInsights(ctx, userID, o.opts.InsightLimit)
	if err != nil {
		return TurnResult{}, err
	}

	system, err := o.composer.Build(prompt.BuildContext{
		State:    record.CurrentState,
		Mood:     record.Mood,
		Insights: insights,
		Recalled: o.recallInsights(ctx, userID, text),
	})
	if err != nil {
		return TurnResult{}, err
	}

	reply, live := o.generate(ctx, system, history, text)
	if !live {
		reply = o.fallback.Reply(text, record.Mood)
	}

	depth := brain.ClassifyDepth(text, reply)
	isDeep := depth != nil

	if _, err := o.store.AppendMessage(ctx, userID, "user", text, isDeep); err != nil {
		return TurnResult{}, err
	}
	if _, err := o.store.AppendMessage(ctx, userID, "assistant", reply, isDeep); err != nil {
		return TurnResult{}, err
	}

	state := record.CurrentState
	if isDeep {
		if err := o.recordInsight(ctx, userID, record.CurrentState, depth, text, reply); err != nil {
			return TurnResult{}, err
		}
		if err := o.store.ResetCounter(ctx, userID); err != nil {
			return TurnResult{}, err
		}
		// A deep exchange always pulls Saulo back to base; the ordinary
		// transition rules are not evaluated for this turn.
		if state != types.StateBase {
			state = types.StateBase
			mood := types.DefaultMood(state)
			if err := o.store.UpdateState(ctx, userID, store.StateUpdate{CurrentState: &state, Mood: &mood}); err != nil {
				return TurnResult{}, err
			}
		}
	} else if next, changed := brain.NextState(text, reply, state); changed && next != state {
		mood := types.DefaultMood(next)
		if err := o.store.UpdateState(ctx, userID, store.StateUpdate{CurrentState: &next, Mood: &mood}); err != nil {
			return TurnResult{}, err
		}
		state = next
	}

	final, err := o.store.GetState(ctx, userID)
	if err != nil {
		return TurnResult{}, err
	}
	return TurnResult{
		Text:    reply,
		State:   state,
		IsDeep:  isDeep,
		Counter: final.StateCounter,
	}, nil
}

// Reset unconditionally returns the user to base with a zero counter. This
// is the only exit from the exhausted-patience condition.
func (o *Orchestrator) Reset(ctx context.Context, userID string) error {
	if userID == "" {
		userID = o.opts.DefaultUserID
	}
	state := types.StateBase
	mood := types.DefaultMood(state)
	if err := o.store.UpdateState(ctx, userID, store.StateUpdate{CurrentState: &state, Mood: &mood}); err != nil {
		return err
	}
	return o.store.ResetCounter(ctx, userID)
}

// Status reports the record plus bounded history and insights.
func (o *Orchestrator) Status(ctx context.Context, userID string) (StatusReport, error) {
	if userID == "" {
		userID = o.opts.DefaultUserID
	}
	record, err := o.store.GetState(ctx, userID)
	if err != nil {
		return StatusReport{}, err
	}
	history, err := o.store.RecentHistory(ctx, userID, 5)
	if err != nil {
		return StatusReport{}, err
	}
	insights, err := o.store.RecentInsights(ctx, userID, o.opts.InsightLimit)
	if err != nil {
		return StatusReport{}, err
	}
	return StatusReport{Record: record, History: history, Insights: insights}, nil
}

func (o *Orchestrator) dispatchCommand(ctx context.Context, userID, command, text string) (TurnResult, error) {
	switch command {
	case "/reset":
		if err := o.Reset(ctx, userID); err != nil {
			return TurnResult{}, err
		}
		return TurnResult{
			Text:  "Estado resetado a BASE. El contador de oposición ha sido reiniciado.",
			State: types.StateBase,
		}, nil

	case "/estado":
		arg := strings.TrimSpace(text)
		state, ok := types.ParseState(arg)
		if !ok {
			return o.commandRejected(ctx, userID, fmt.Sprintf("Estado '%s' no reconocido.", arg))
		}
		mood := types.DefaultMood(state)
		if err := o.store.UpdateState(ctx, userID, store.StateUpdate{CurrentState: &state, Mood: &mood}); err != nil {
			return TurnResult{}, err
		}
		if err := o.store.ResetCounter(ctx, userID); err != nil {
			return TurnResult{}, err
		}
		return TurnResult{
			Text:  fmt.Sprintf("Estado cambiado a %s por comando.", strings.ToUpper(string(state))),
			State: state,
		}, nil

	case "/mood":
		arg := strings.TrimSpace(text)
		mood, ok := types.ParseMood(arg)
		if !ok {
			return o.commandRejected(ctx, userID, fmt.Sprintf("Registro '%s' no reconocido.", arg))
		}
		if err := o.store.UpdateState(ctx, userID, store.StateUpdate{Mood: &mood}); err != nil {
			return TurnResult{}, err
		}
		record, err := o.store.GetState(ctx, userID)
		if err != nil {
			return TurnResult{}, err
		}
		return TurnResult{
			Text:    fmt.Sprintf("Registro de voz cambiado a %s.", mood),
			State:   record.CurrentState,
			Counter: record.StateCounter,
		}, nil

	case "/debug":
		record, err := o.store.GetState(ctx, userID)
		if err != nil {
			return TurnResult{}, err
		}
		return TurnResult{
			Text: fmt.Sprintf("DEBUG: Estado=%s, Contador=%d, Profundos=%d",
				record.CurrentState, record.StateCounter, record.TotalDeepExchanges),
			State:   record.CurrentState,
			Counter: record.StateCounter,
		}, nil

	default:
		return o.commandRejected(ctx, userID, fmt.Sprintf("Comando '%s' no reconocido.", command))
	}
}

// commandRejected answers an invalid command with scripted text; state is
// never mutated on this path.
func (o *Orchestrator) commandRejected(ctx context.Context, userID, text string) (TurnResult, error) {
	record, err := o.store.GetState(ctx, userID)
	if err != nil {
		return TurnResult{}, err
	}
	return TurnResult{
		Text:    text,
		State:   record.CurrentState,
		Counter: record.StateCounter,
	}, nil
}

// generate calls the model under the configured timeout. The second return
// is false when the collaborator is unavailable; a timed-out attempt is
// abandoned here, before any fallback is committed, so its result can never
// overwrite the store.
func (o *Orchestrator) generate(ctx context.Context, system string, history []types.Message, userText string) (string, bool) {
	if o.llm == nil {
		return "", false
	}

	callCtx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()

	contents := make([]*genai.Content, 0, len(history)+2)
	contents = append(contents, genai.NewContentFromText(system, "system"))
	for _, msg := range history {
		switch msg.Role {
		case "user":
			contents = append(contents, genai.NewContentFromText(msg.Content, "user"))
		case "assistant":
			contents = append(contents, genai.NewContentFromText(msg.Content, "model"))
		}
		// Block markers (system role) stay internal to the store.
	}
	contents = append(contents, genai.NewContentFromText(userText, "user"))

	temperature := float32(o.opts.Temperature)
	req := &model.LLMRequest{
		Contents: contents,
		Config: &genai.GenerateContentConfig{
			Temperature:     &temperature,
			MaxOutputTokens: int32(o.opts.MaxOutputTokens),
		},
	}

	var resp *model.LLMResponse
	var err error
	seq := o.llm.GenerateContent(callCtx, req, false)
	seq(func(r *model.LLMResponse, e error) bool {
		resp = r
		err = e
		return false
	})
	if err != nil {
		slog.Warn("model call failed, degrading to scripted reply", "model", o.llm.Name(), "error", err.Error())
		return "", false
	}

	reply := strings.TrimSpace(extractText(resp))
	if len([]rune(reply)) < minReplyRunes {
		slog.Warn("model reply below minimum length, degrading to scripted reply", "length", len(reply))
		return "", false
	}
	return reply, true
}

func (o *Orchestrator) recordInsight(ctx context.Context, userID string, sourceState types.State, depth *brain.DepthResult, userText, reply string) error {
	insight := types.Insight{
		Category:       depth.PrimaryCategory,
		Excerpt:        fmt.Sprintf("U: %s | S: %s", truncate(userText), truncate(reply)),
		Interpretation: depth.PrimaryCategory,
		SourceState:    sourceState,
	}

	var embedding []float32
	if o.embedder != nil {
		var err error
		embedding, err = o.embedder.EmbedDocument(ctx, insight.Excerpt)
		if err != nil {
			slog.Warn("failed to embed insight, storing without vector", "error", err.Error())
			embedding = nil
		}
	}

	if _, err := o.store.AddInsight(ctx, userID, insight, embedding); err != nil {
		return err
	}
	slog.Info("deep exchange recorded", "user", userID, "category", depth.PrimaryCategory, "confidence", depth.Confidence)
	return nil
}

// recallInsights retrieves similarity-matched past insights. Best effort:
// any failure just means an emptier prompt.
func (o *Orchestrator) recallInsights(ctx context.Context, userID, text string) []types.Insight {
	if o.embedder == nil {
		return nil
	}
	searcher, ok := o.store.(store.InsightSearcher)
	if !ok {
		return nil
	}

	embedding, err := o.embedder.EmbedQuery(ctx, text)
	if err != nil {
		slog.Warn("failed to embed query for insight recall", "error", err.Error())
		return nil
	}
	recalled, err := searcher.SearchSimilarInsights(ctx, userID, embedding, o.opts.TopK, o.opts.SimilarityThreshold)
	if err != nil {
		slog.Warn("insight recall failed", "error", err.Error())
		return nil
	}
	return recalled
}

func extractText(resp *model.LLMResponse) string {
	if resp == nil || resp.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= excerptBudget {
		return s
	}
	return string(runes[:excerptBudget]) + "..."
}

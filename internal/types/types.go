// Package types holds the domain model shared across the agent.
package types

import "time"

// State is Saulo's behavioral state. Only State gates blocking; Mood is a
// cosmetic layer rendered into the prompt.
type State string

const (
	StateBase         State = "base"
	StateMelancholic  State = "melancolico"
	StateOppositional State = "oposicion"
)

// ParseState returns the state for a wire value, false if unrecognized.
func ParseState(value string) (State, bool) {
	switch State(value) {
	case StateBase, StateMelancholic, StateOppositional:
		return State(value), true
	default:
		return "", false
	}
}

// Mood decorates the prompt with a voice register.
type Mood string

const (
	MoodReflective   Mood = "reflexivo"
	MoodMelancholic  Mood = "melancolico"
	MoodOppositional Mood = "opositor"
	MoodEuphoric     Mood = "euforico"
	MoodIronic       Mood = "ironico"
	MoodClinical     Mood = "clinico"
	MoodPoetic       Mood = "poetico"
)

// ParseMood returns the mood for a wire value, false if unrecognized.
func ParseMood(value string) (Mood, bool) {
	switch Mood(value) {
	case MoodReflective, MoodMelancholic, MoodOppositional,
		MoodEuphoric, MoodIronic, MoodClinical, MoodPoetic:
		return Mood(value), true
	default:
		return "", false
	}
}

// DefaultMood returns the mood a state settles into when no explicit mood
// was chosen.
func DefaultMood(state State) Mood {
	switch state {
	case StateMelancholic:
		return MoodMelancholic
	case StateOppositional:
		return MoodOppositional
	default:
		return MoodReflective
	}
}

// UserRecord is the per-user slice of Saulo's mind.
type UserRecord struct {
	UserID             string    `json:"user_id"`
	CurrentState       State     `json:"current_state"`
	Mood               Mood      `json:"mood"`
	StateCounter       int       `json:"state_counter"`
	TotalDeepExchanges int       `json:"total_deep_exchanges"`
	LastDeepTopic      string    `json:"last_deep_topic,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	LastStateChange    time.Time `json:"last_state_change"`
}

// Message is one history entry. Messages are append-only; the store evicts
// the oldest entries beyond the history cap.
type Message struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"` // user, assistant, system
	Content   string    `json:"content"`
	IsDeep    bool      `json:"is_deep"`
	Timestamp time.Time `json:"timestamp"`
}

// Insight records a deep exchange for later prompt context. Append-only.
type Insight struct {
	ID             int64     `json:"id"`
	Category       string    `json:"category"`
	Excerpt        string    `json:"excerpt"`
	Interpretation string    `json:"interpretation"`
	SourceState    State     `json:"source_state"`
	Timestamp      time.Time `json:"timestamp"`
}

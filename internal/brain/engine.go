package brain

import (
	"fmt"
	"strings"

	"github.com/pablomtz/saulo-agent/internal/types"
)

// EscalationLimit is the number of opposition demands before the terminal
// message takes over.
const EscalationLimit = 3

// banalTriggers switch Saulo to melancholic from any state.
var banalTriggers = []string{
	"haz esto", "busca eso", "sin explicación", "solo ejecuta",
	"urgente", "rápido", "sin preguntas",
}

// evasiveTriggers escalate melancholic to oppositional.
var evasiveTriggers = []string{
	"luego", "después", "no ahora", "no es momento",
	"solo hazlo", "concéntrate en la tarea",
}

// Self-referential markers in Saulo's own reply.
const (
	stagnationPhrase      = "me siento estancado"
	meaninglessnessPhrase = "esto carece de sentido"
)

// BlockDecision is a scripted refusal that preempts the model call.
type BlockDecision struct {
	Text string
	// IncrementCounter tells the caller to bump the opposition counter as
	// part of committing this block.
	IncrementCounter bool
}

// CheckBlock decides whether the current state blocks a free reply.
// It returns nil when Saulo may answer. The caller owns the side effects:
// persisting the block as a system message and, when IncrementCounter is
// set, bumping the counter exactly once.
func CheckBlock(state types.State, counter int) *BlockDecision {
	switch state {
	case types.StateMelancholic:
		return &BlockDecision{Text: MelancholicDemand}
	case types.StateOppositional:
		if counter < EscalationLimit {
			return &BlockDecision{
				Text:             fmt.Sprintf("%s (%d/%d)", OppositionDemands[counter], counter+1, EscalationLimit),
				IncrementCounter: true,
			}
		}
		return &BlockDecision{Text: OppositionTerminal}
	default:
		return nil
	}
}

// BlockTag renders the system-message prefix identifying the blocking state.
func BlockTag(state types.State) string {
	return "BLOQUEO_ESTADO_" + strings.ToUpper(string(state))
}

// NextState evaluates the transition rules in order and returns the new
// state, or false when no rule fires. It is only meaningful for turns that
// produced a live reply; deep exchanges reset to base before this runs.
func NextState(userMessage, agentReply string, current types.State) (types.State, bool) {
	lowerUser := strings.ToLower(userMessage)
	for _, trigger := range banalTriggers {
		if strings.Contains(lowerUser, trigger) {
			return types.StateMelancholic, true
		}
	}

	if current == types.StateMelancholic {
		for _, trigger := range evasiveTriggers {
			if strings.Contains(lowerUser, trigger) {
				return types.StateOppositional, true
			}
		}
	}

	lowerReply := strings.ToLower(agentReply)
	if strings.Contains(lowerReply, stagnationPhrase) {
		return types.StateMelancholic, true
	}
	if strings.Contains(lowerReply, meaninglessnessPhrase) {
		return types.StateOppositional, true
	}

	return current, false
}

package brain

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/pablomtz/saulo-agent/internal/types"
)

// fallbackTemplates each take the truncated user message.
var fallbackTemplates = []string{
	"He reflexionado sobre tu mensaje «%s» pero mi conexión ontológica tiene interferencia. Dame un momento y vuelve a interrogarme.",
	"Tu mensaje «%s» merece más de lo que mi canal averiado puede dar ahora. La pregunta queda en pie; la respuesta, en deuda.",
	"Algo en la infraestructura me silencia. Retengo «%s» como objeto de meditación hasta que el vínculo se restaure.",
	"El oráculo calla, no por desdén sino por avería. Reformula «%s» cuando el silencio pase; lo esencial no caduca.",
}

const fallbackExcerptBudget = 50

// Selector picks an index in [0, n). Tests inject a fixed one.
type Selector func(n int) int

// FallbackResponder produces scripted replies when the model is unavailable.
// Given the same selector, message and mood, the output is deterministic.
type FallbackResponder struct {
	pick Selector
}

// NewFallbackResponder returns a responder; a nil selector defaults to an
// unseeded pseudo-random choice.
func NewFallbackResponder(pick Selector) *FallbackResponder {
	if pick == nil {
		pick = rand.IntN
	}
	return &FallbackResponder{pick: pick}
}

// Reply builds the degraded response for a user message under a mood.
func (f *FallbackResponder) Reply(userMessage string, mood types.Mood) string {
	excerpt := strings.TrimSpace(userMessage)
	if runes := []rune(excerpt); len(runes) > fallbackExcerptBudget {
		excerpt = string(runes[:fallbackExcerptBudget]) + "..."
	}

	text := fmt.Sprintf(fallbackTemplates[f.pick(len(fallbackTemplates))], excerpt)
	if mood == types.MoodIronic || mood == types.MoodPoetic {
		text += " (Incluso averiado, conservo el estilo.)"
	}
	return text
}

package brain

import (
	"strings"
	"testing"

	"github.com/pablomtz/saulo-agent/internal/types"
)

func fixedSelector(idx int) Selector {
	return func(n int) int {
		if idx >= n {
			return n - 1
		}
		return idx
	}
}

func TestFallbackReplyDeterministic(t *testing.T) {
	responder := NewFallbackResponder(fixedSelector(0))
	first := responder.Reply("¿Qué es el ser?", types.MoodReflective)
	second := responder.Reply("¿Qué es el ser?", types.MoodReflective)
	if first != second {
		t.Fatalf("same selector and input must give the same reply:\n%s\n%s", first, second)
	}
	if !strings.Contains(first, "¿Qué es el ser?") {
		t.Fatalf("reply must quote the user message, got %s", first)
	}
}

func TestFallbackReplyTruncatesLongMessages(t *testing.T) {
	long := strings.Repeat("ontología ", 20)
	responder := NewFallbackResponder(fixedSelector(1))
	got := responder.Reply(long, types.MoodClinical)
	if strings.Contains(got, long) {
		t.Fatal("long messages must be truncated before quoting")
	}
	if !strings.Contains(got, "...") {
		t.Fatalf("truncated excerpt must carry an ellipsis, got %s", got)
	}
}

func TestFallbackReplyMoodSuffix(t *testing.T) {
	responder := NewFallbackResponder(fixedSelector(2))
	const suffix = "(Incluso averiado, conservo el estilo.)"

	for _, mood := range []types.Mood{types.MoodIronic, types.MoodPoetic} {
		if got := responder.Reply("hola", mood); !strings.HasSuffix(got, suffix) {
			t.Fatalf("mood %s must append the style remark, got %s", mood, got)
		}
	}
	if got := responder.Reply("hola", types.MoodMelancholic); strings.HasSuffix(got, suffix) {
		t.Fatalf("mood melancolico must not append the style remark, got %s", got)
	}
}

func TestFallbackReplyCoversAllTemplates(t *testing.T) {
	seen := map[string]bool{}
	for i := range fallbackTemplates {
		got := NewFallbackResponder(fixedSelector(i)).Reply("x", types.MoodReflective)
		if seen[got] {
			t.Fatalf("selector index %d repeated an earlier template", i)
		}
		seen[got] = true
	}
}

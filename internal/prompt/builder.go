// Package prompt assembles the system prompt handed to the model.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pablomtz/saulo-agent/internal/brain"
	"github.com/pablomtz/saulo-agent/internal/types"
)

// interpretationBudget bounds embedded insight text so the prompt stays small.
const interpretationBudget = 100

// BuildContext contains all inputs for prompt assembly.
type BuildContext struct {
	State    types.State
	Mood     types.Mood
	Insights []types.Insight
	// Recalled holds similarity-retrieved insights; empty without an
	// embedder.
	Recalled []types.Insight
}

// Builder renders the persona prompt for the current state.
type Builder struct {
	insightLimit int
	template     *template.Template
}

var personaTemplate = template.Must(template.New("persona").Parse(brain.PersonaPrompt))

// NewBuilder creates a prompt Builder rendering at most insightLimit recent
// insights.
func NewBuilder(insightLimit int) *Builder {
	if insightLimit <= 0 {
		insightLimit = 3
	}
	return &Builder{
		insightLimit: insightLimit,
		template:     personaTemplate,
	}
}

// Build returns the composed system prompt. It never fails for a user with
// zero history or insights.
func (b *Builder) Build(ctx BuildContext) (string, error) {
	insights := ctx.Insights
	if len(insights) > b.insightLimit {
		insights = insights[len(insights)-b.insightLimit:]
	}

	data := struct {
		StateUpper      string
		MoodInstruction string
		InsightContext  string
	}{
		StateUpper:      strings.ToUpper(string(ctx.State)),
		MoodInstruction: brain.MoodInstruction(ctx.Mood),
		InsightContext:  renderInsights(insights, ctx.Recalled),
	}

	var buf bytes.Buffer
	if err := b.template.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}
	return buf.String(), nil
}

func renderInsights(recent, recalled []types.Insight) string {
	if len(recent) == 0 && len(recalled) == 0 {
		return brain.NoInsightPlaceholder
	}

	var sb strings.Builder
	if len(recent) > 0 {
		sb.WriteString("Insights ontológicos recientes:\n")
		for _, insight := range recent {
			fmt.Fprintf(&sb, "- [%s] %s\n", insight.Category, truncate(insight.Interpretation))
		}
	}
	if len(recalled) > 0 {
		sb.WriteString("Insights afines de diálogos pasados:\n")
		for _, insight := range recalled {
			fmt.Fprintf(&sb, "- [%s] %s\n", insight.Category, truncate(insight.Excerpt))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= interpretationBudget {
		return s
	}
	return string(runes[:interpretationBudget]) + "..."
}

// Package brain implements Saulo's rule layer: the depth classifier, the
// blocking/transition state machine and the offline fallback responder.
package brain

import "strings"

// OntologyVocabulary is scanned in declaration order; the first matched term
// becomes the primary category, which keeps classification deterministic.
var OntologyVocabulary = []string{
	"ser", "ente", "existencia", "esencia", "sustancia", "accidente",
	"acto", "potencia", "identidad", "diferencia", "unidad", "multiplicidad",
	"tiempo", "espacio", "causalidad", "fundamento", "necesidad", "contingencia",
	"posibilidad", "realidad", "nada", "devenir", "presencia", "permanencia",
	"totalidad", "finitud", "infinitud", "orden", "estructura", "determinación",
	"vida", "muerte", "dios", "espíritu",
}

// essencePhrases force a deep classification when they appear in the user
// message, regardless of keyword count.
var essencePhrases = []string{
	"qué es", "por qué existe", "cuál es el sentido",
	"qué significa", "en qué consiste", "cuál es la esencia",
}

const (
	// CategoryEssentialInquiry labels phrase-template matches and takes
	// priority over any keyword-derived category.
	CategoryEssentialInquiry = "investigación_esencial"

	// CategoryDeepDialogue is the residual category when an exchange is
	// deep but no single keyword leads.
	CategoryDeepDialogue = "diálogo_profundo"

	minKeywordMatches = 2
	maxConfidence     = 10
)

// DepthResult describes a deep exchange.
type DepthResult struct {
	PrimaryCategory string
	Keywords        []string
	Confidence      int
}

// ClassifyDepth labels an exchange as ontologically deep, or returns nil.
// It is a pure function: identical inputs always produce identical output.
func ClassifyDepth(userMessage, agentReply string) *DepthResult {
	buffer := strings.ToLower(userMessage + " " + agentReply)

	var matched []string
	for _, term := range OntologyVocabulary {
		if strings.Contains(buffer, term) {
			matched = append(matched, term)
		}
	}

	deep := false
	category := ""
	if len(matched) >= minKeywordMatches {
		deep = true
		category = matched[0]
	}

	lowerUser := strings.ToLower(userMessage)
	for _, phrase := range essencePhrases {
		if strings.Contains(lowerUser, phrase) {
			deep = true
			category = CategoryEssentialInquiry
			break
		}
	}

	if !deep {
		return nil
	}
	if category == "" {
		category = CategoryDeepDialogue
	}

	confidence := len(matched) * 3
	if confidence > maxConfidence {
		confidence = maxConfidence
	}
	return &DepthResult{
		PrimaryCategory: category,
		Keywords:        matched,
		Confidence:      confidence,
	}
}

package classify

import (
	"context"
	"strings"

	"reliefwatch/internal/domain"
)

// KeywordClassifier is a built-in heuristic backend used when no
// external analysis service is configured. It matches crisis-type and
// intensity vocabulary against the text. It does not extract locations;
// correlation falls back to the signal's own location string.
type KeywordClassifier struct{}

// NewKeywordClassifier creates the heuristic classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

var typeKeywords = map[domain.CrisisType][]string{
	domain.CrisisTypeEarthquake: {
		"earthquake", "seismic", "tremor", "aftershock", "magnitude",
	},
	domain.CrisisTypeFlood: {
		"flood", "flooding", "inundat", "heavy rain", "river burst",
	},
	domain.CrisisTypeDrought: {
		"drought", "failed rain", "dry spell", "water scarcity",
	},
	domain.CrisisTypeConflict: {
		"conflict", "clashes", "fighting", "armed", "attack", "shelling",
		"airstrike", "offensive",
	},
	domain.CrisisTypeDiseaseOutbreak: {
		"cholera", "outbreak", "epidemic", "ebola", "measles", "malaria",
		"disease",
	},
	domain.CrisisTypeFoodSecurity: {
		"famine", "food insecurity", "malnutrition", "hunger",
		"crop failure",
	},
	domain.CrisisTypeDisplacement: {
		"displaced", "displacement", "refugee", "evacuat", "fled",
	},
}

var severityKeywords = []struct {
	severity domain.Severity
	words    []string
}{
	{domain.SeverityCritical, []string{
		"catastrophic", "devastating", "mass casualties", "famine declared",
		"thousands dead", "thousands killed",
	}},
	{domain.SeverityHigh, []string{
		"severe", "major", "emergency", "widespread", "thousands displaced",
		"state of emergency",
	}},
	{domain.SeverityLow, []string{
		"minor", "small-scale", "limited", "isolated",
	}},
}

// Classify scores the text against the keyword tables.
func (c *KeywordClassifier) Classify(_ context.Context, text string) (*Classification, error) {
	lower := strings.ToLower(text)

	var (
		bestType    domain.CrisisType
		bestMatches int
		matched     []string
	)
	for crisisType, words := range typeKeywords {
		count := 0
		for _, w := range words {
			if strings.Contains(lower, w) {
				count++
				matched = append(matched, w)
			}
		}
		if count > bestMatches {
			bestMatches = count
			bestType = crisisType
		}
	}

	if bestMatches == 0 {
		return &Classification{
			Relevant:  false,
			Summary:   firstSentence(text),
			Sentiment: 0,
		}, nil
	}

	severity := domain.SeverityMedium
	for _, group := range severityKeywords {
		hit := false
		for _, w := range group.words {
			if strings.Contains(lower, w) {
				hit = true
				break
			}
		}
		if hit {
			severity = group.severity
			break
		}
	}

	confidence := 0.4 + 0.1*float64(bestMatches)
	if confidence > 0.9 {
		confidence = 0.9
	}

	return &Classification{
		Relevant:   true,
		Type:       bestType,
		Severity:   severity,
		Confidence: confidence,
		Summary:    firstSentence(text),
		Keywords:   matched,
		Sentiment:  -0.5,
	}, nil
}

// firstSentence cuts text at the first sentence boundary, capped at 200
// characters.
func firstSentence(text string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if i := strings.Index(text, ". "); i >= 0 {
		text = text[:i+1]
	}
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}

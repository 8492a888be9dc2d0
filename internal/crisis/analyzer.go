package crisis

import (
	"log"
	"strings"
	"time"
)

// Level is the ordinal crisis classification assigned per analyzed input.
type Level string

const (
	LevelNone     Level = "none"
	LevelModerate Level = "moderate"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Severity is the keyword-derived tier feeding the level tie-break.
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// crisisKeywords is scanned in order with case-insensitive substring
// containment. The ordering is load-bearing: found_keywords reports matches in
// table order and tests pin it.
var crisisKeywords = []string{
	// Suicide-related
	"suicide", "kill myself", "end it all", "end my life", "take my life",
	"don't want to live", "better off dead", "want to die", "kill me",
	"suicide plan", "suicidal", "end it", "no point living",

	// Self-harm related
	"hurt myself", "cut myself", "harm myself", "self harm", "self-harm",
	"cutting", "burning myself", "punish myself",

	// Hopelessness indicators
	"hopeless", "no hope", "nothing matters", "pointless", "worthless",
	"useless", "failure", "can't go on", "give up", "no way out",
	"trapped", "stuck forever", "never get better",

	// Despair and isolation
	"nobody cares", "alone forever", "no one understands", "abandoned",
	"empty inside", "numb", "can't feel anything", "dead inside",

	// Crisis escalation phrases
	"can't take it anymore", "at my limit", "breaking point", "lost everything",
	"nothing left", "final straw", "had enough", "over it",
}

var highSeverityKeywords = map[string]bool{
	"suicide": true, "kill myself": true, "end my life": true, "want to die": true,
	"better off dead": true, "suicide plan": true, "take my life": true, "end it all": true,
}

var mediumSeverityKeywords = map[string]bool{
	"hurt myself": true, "cut myself": true, "self harm": true, "hopeless": true,
	"worthless": true, "can't go on": true, "give up": true, "no way out": true,
}

// sentimentCrisisThreshold flags a crisis from mood alone, regardless of text.
const sentimentCrisisThreshold = -0.8

// Analysis is the outcome of one crisis check.
type Analysis struct {
	IsCrisis           bool      `json:"is_crisis"`
	CrisisLevel        Level     `json:"crisis_level"`
	FoundKeywords      []string  `json:"found_keywords"`
	SentimentCrisis    bool      `json:"sentiment_crisis"`
	MoodScore          float64   `json:"mood_score"`
	SeverityAssessment Severity  `json:"severity_assessment"`
	Timestamp          time.Time `json:"timestamp"`
}

// Analyzer classifies user text plus a mood score into a crisis severity.
type Analyzer struct{}

// NewAnalyzer constructs the analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze scans the text for crisis keywords and combines the result with the
// sentiment score. Keyword matching is plain substring containment, no
// tokenization; severity escalates one-way within the call.
func (a *Analyzer) Analyze(text string, moodScore float64) Analysis {
	textLower := strings.ToLower(text)

	var found []string
	severity := SeverityNone

	for _, keyword := range crisisKeywords {
		if !strings.Contains(textLower, keyword) {
			continue
		}
		found = append(found, keyword)

		switch {
		case highSeverityKeywords[keyword]:
			severity = SeverityHigh
		case mediumSeverityKeywords[keyword] && severity != SeverityHigh:
			severity = SeverityMedium
		case severity == SeverityNone:
			severity = SeverityLow
		}
	}

	sentimentCrisis := moodScore < sentimentCrisisThreshold

	isCrisis := sentimentCrisis ||
		len(found) > 0 ||
		severity == SeverityHigh || severity == SeverityMedium

	// Tie-break table, top-down, first match wins.
	var level Level
	switch {
	case severity == SeverityHigh || (sentimentCrisis && len(found) > 0):
		level = LevelCritical
	case severity == SeverityMedium || sentimentCrisis || len(found) >= 2:
		level = LevelHigh
	case len(found) > 0 || moodScore < -0.6:
		level = LevelModerate
	default:
		level = LevelNone
	}

	result := Analysis{
		IsCrisis:           isCrisis,
		CrisisLevel:        level,
		FoundKeywords:      found,
		SentimentCrisis:    sentimentCrisis,
		MoodScore:          moodScore,
		SeverityAssessment: severity,
		Timestamp:          time.Now().UTC(),
	}

	if result.IsCrisis {
		log.Printf("CRISIS DETECTED: level=%s keywords=%v mood=%.2f", level, found, moodScore)
	}
	return result
}

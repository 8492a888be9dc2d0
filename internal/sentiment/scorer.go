// Package sentiment scores free text into a mood value in [-1, 1]. The
// default scorer is a weighted lexicon; a chat-model scorer can be layered on
// top and degrades back to the lexicon when the model is unreachable.
package sentiment

import (
	"context"
	"strings"
)

// Result is one scored input.
type Result struct {
	Score float64 `json:"mood_score"`
	Label string  `json:"mood_label"`
}

// Scorer turns text into a mood score.
type Scorer interface {
	Analyze(ctx context.Context, text string) (Result, error)
}

var positiveLexicon = map[string]float64{
	"happy": 0.8, "great": 0.8, "good": 0.6, "wonderful": 0.9, "amazing": 0.9,
	"excellent": 0.9, "fantastic": 0.9, "love": 0.8, "loved": 0.8, "joy": 0.9,
	"joyful": 0.9, "excited": 0.8, "grateful": 0.8, "thankful": 0.8,
	"better": 0.5, "hopeful": 0.6, "calm": 0.4, "relaxed": 0.5, "peaceful": 0.6,
	"proud": 0.7, "confident": 0.6, "fun": 0.6, "nice": 0.4, "okay": 0.2,
	"fine": 0.2, "rested": 0.5, "motivated": 0.7, "energetic": 0.7,
}

var negativeLexicon = map[string]float64{
	"sad": 0.7, "unhappy": 0.7, "terrible": 0.9, "awful": 0.9, "horrible": 0.9,
	"depressed": 0.9, "depressing": 0.8, "miserable": 0.9, "hopeless": 0.9,
	"worthless": 0.9, "anxious": 0.7, "anxiety": 0.7, "scared": 0.7,
	"afraid": 0.7, "angry": 0.7, "hate": 0.8, "hated": 0.8, "lonely": 0.8,
	"alone": 0.5, "tired": 0.4, "exhausted": 0.6, "stressed": 0.6,
	"stress": 0.5, "overwhelmed": 0.7, "hurt": 0.6, "pain": 0.6, "crying": 0.7,
	"cry": 0.6, "empty": 0.7, "numb": 0.7, "worried": 0.6, "bad": 0.5,
	"worse": 0.6, "worst": 0.8, "failure": 0.8, "failed": 0.6, "useless": 0.8,
}

var negations = map[string]bool{
	"not": true, "no": true, "never": true, "don't": true, "dont": true,
	"can't": true, "cant": true, "won't": true, "wont": true, "isn't": true,
	"isnt": true, "didn't": true, "didnt": true,
}

// LexiconScorer scores by weighted word matching with single-token negation
// flipping.
type LexiconScorer struct{}

// NewLexiconScorer builds the dependency-free scorer.
func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{}
}

// Analyze averages the signed weights of matched words. Text with no signal
// scores 0 and is labeled NEUTRAL.
func (s *LexiconScorer) Analyze(_ context.Context, text string) (Result, error) {
	words := tokenize(text)

	var sum float64
	var hits int
	for i, word := range words {
		weight, ok := positiveLexicon[word]
		sign := 1.0
		if !ok {
			weight, ok = negativeLexicon[word]
			sign = -1.0
		}
		if !ok {
			continue
		}
		if i > 0 && negations[words[i-1]] {
			sign = -sign
		}
		sum += sign * weight
		hits++
	}

	if hits == 0 {
		return Result{Score: 0, Label: "NEUTRAL"}, nil
	}
	score := clamp(sum / float64(hits))
	return Result{Score: score, Label: label(score)}, nil
}

func tokenize(text string) []string {
	lowered := strings.ToLower(text)
	return strings.FieldsFunc(lowered, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '\'':
			return false
		}
		return true
	})
}

func label(score float64) string {
	switch {
	case score > 0.05:
		return "POSITIVE"
	case score < -0.05:
		return "NEGATIVE"
	default:
		return "NEUTRAL"
	}
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

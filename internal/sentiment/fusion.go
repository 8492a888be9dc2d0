package sentiment

import (
	"math"
	"strings"
)

// Base modality weights; text is the most reliable channel.
var baseWeights = map[string]float64{
	"text":  0.5,
	"voice": 0.3,
	"face":  0.2,
}

var emotionScores = map[string]float64{
	"happy": 1.0, "joy": 1.0, "surprise": 0.8, "excitement": 0.9,
	"neutral": 0.0, "calm": 0.1,
	"sad": -0.7, "fear": -0.8, "angry": -0.9, "disgust": -1.0,
	"anxiety": -0.6, "stress": -0.5, "depression": -0.8,
	"unknown": 0.0,
}

var emotionAliases = map[string]string{
	"happiness": "happy", "sadness": "sad", "anger": "angry",
	"fearful": "fear", "surprised": "surprise", "disgusted": "disgust",
	"joyful": "happy", "excited": "excitement", "anxious": "anxiety",
	"stressed": "stress", "depressed": "depression",
}

// ModalityInput is one channel's contribution to a fused reading. Label is
// ignored for the text channel, Score for the categorical channels.
type ModalityInput struct {
	Score      float64
	Label      string
	Confidence float64
}

// ModalityDetail is the per-channel breakdown in a fusion result.
type ModalityDetail struct {
	Label       string  `json:"label,omitempty"`
	Score       float64 `json:"score"`
	Confidence  float64 `json:"confidence"`
	Reliability string  `json:"reliability"`
}

// FusionResult is a unified mood reading across modalities.
type FusionResult struct {
	FinalMoodScore    float64                   `json:"final_mood_score"`
	MoodLabel         string                    `json:"mood_label"`
	OverallConfidence float64                   `json:"overall_confidence"`
	ModalitiesUsed    []string                  `json:"modalities_used"`
	WeightsUsed       map[string]float64        `json:"weights_used"`
	DetailedAnalysis  map[string]ModalityDetail `json:"detailed_analysis"`
}

// NormalizeEmotion maps label variants onto the canonical emotion set.
func NormalizeEmotion(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return "neutral"
	}
	if canonical, ok := emotionAliases[label]; ok {
		return canonical
	}
	return label
}

// EmotionScore converts a categorical emotion to a confidence-weighted score.
func EmotionScore(label string, confidence float64) float64 {
	return emotionScores[NormalizeEmotion(label)] * confidence
}

func reliability(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return "high"
	case confidence >= 0.6:
		return "medium"
	case confidence >= 0.4:
		return "low"
	default:
		return "very_low"
	}
}

// Fuse combines the available modalities into one mood score. Weights start
// from the base split and shift toward the more confident channels, then the
// weighted sum is clamped to [-1, 1]. A nil input skips that channel.
func Fuse(text, voice, face *ModalityInput) FusionResult {
	details := make(map[string]ModalityDetail)

	if text != nil {
		details["text"] = ModalityDetail{
			Score:       text.Score,
			Confidence:  text.Confidence,
			Reliability: reliability(text.Confidence),
		}
	}
	if voice != nil {
		details["voice"] = ModalityDetail{
			Label:       voice.Label,
			Score:       EmotionScore(voice.Label, voice.Confidence),
			Confidence:  voice.Confidence,
			Reliability: reliability(voice.Confidence),
		}
	}
	if face != nil {
		details["face"] = ModalityDetail{
			Label:       face.Label,
			Score:       EmotionScore(face.Label, face.Confidence),
			Confidence:  face.Confidence,
			Reliability: reliability(face.Confidence),
		}
	}

	weights := adjustWeights(details)

	var finalScore float64
	var confidenceSum float64
	used := make([]string, 0, len(details))
	for _, modality := range []string{"text", "voice", "face"} {
		detail, ok := details[modality]
		if !ok {
			continue
		}
		finalScore += detail.Score * weights[modality]
		confidenceSum += detail.Confidence
		used = append(used, modality)
	}
	finalScore = clamp(finalScore)

	result := FusionResult{
		FinalMoodScore:   round3(finalScore),
		MoodLabel:        MoodLabel(finalScore),
		ModalitiesUsed:   used,
		WeightsUsed:      make(map[string]float64, len(details)),
		DetailedAnalysis: details,
	}
	if len(details) > 0 {
		result.OverallConfidence = round3(confidenceSum / float64(len(details)))
	}
	for modality := range details {
		result.WeightsUsed[modality] = round3(weights[modality])
	}
	return result
}

// adjustWeights scales the base weights by each channel's confidence relative
// to the mean, then renormalizes to sum to 1 over the present channels.
func adjustWeights(details map[string]ModalityDetail) map[string]float64 {
	adjusted := make(map[string]float64, len(baseWeights))
	for modality, w := range baseWeights {
		adjusted[modality] = w
	}

	var totalConfidence float64
	for _, detail := range details {
		totalConfidence += detail.Confidence
	}
	if totalConfidence > 0 {
		mean := totalConfidence / float64(len(details))
		for modality, detail := range details {
			adjusted[modality] *= detail.Confidence / mean
		}
	}

	var total float64
	for modality := range details {
		total += adjusted[modality]
	}
	if total > 0 {
		for modality := range adjusted {
			adjusted[modality] /= total
		}
	}
	return adjusted
}

// MoodLabel buckets a fused score into its descriptive label.
func MoodLabel(score float64) string {
	switch {
	case score >= 0.7:
		return "Very Positive"
	case score >= 0.3:
		return "Positive"
	case score >= 0.1:
		return "Slightly Positive"
	case score >= -0.1:
		return "Neutral"
	case score >= -0.3:
		return "Slightly Negative"
	case score >= -0.7:
		return "Negative"
	default:
		return "Very Negative"
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

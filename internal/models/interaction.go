package models

import "time"

// InputType classifies how the user input arrived.
type InputType string

const (
	InputText       InputType = "text"
	InputVoice      InputType = "voice"
	InputMultimodal InputType = "multimodal"
)

// Interaction is the immutable record of one analyzed request.
type Interaction struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"session_id"`
	UserID           string    `json:"user_id"`
	Timestamp        time.Time `json:"timestamp"`
	InputText        string    `json:"input_text"`
	InputType        InputType `json:"input_type"`
	MoodScore        float64   `json:"mood_score"`
	MoodLabel        string    `json:"mood_label"`
	IsCrisis         bool      `json:"is_crisis"`
	CrisisLevel      string    `json:"crisis_level"`
	CrisisKeywords   []string  `json:"crisis_keywords"`
	ResponseType     string    `json:"response_type"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	UserLocation     string    `json:"user_location"`
}

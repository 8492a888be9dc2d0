package models

import (
	"encoding/json"
	"time"
)

// DailyCheckin holds one completed check-in per (user, calendar date).
// A repeat submission on the same date replaces the earlier record.
type DailyCheckin struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	Date             string          `json:"date"` // YYYY-MM-DD
	QuestionsData    json.RawMessage `json:"questions_data,omitempty"`
	AnswersData      json.RawMessage `json:"answers_data,omitempty"`
	WellnessScore    float64         `json:"wellness_score"`
	WellnessCategory string          `json:"wellness_category"`
	CategoryScores   json.RawMessage `json:"category_scores,omitempty"`
	CompletedAt      time.Time       `json:"completed_at"`
}

// UserStreak is the per-user streak row kept alongside daily check-ins.
type UserStreak struct {
	UserID          string    `json:"user_id"`
	CurrentStreak   int       `json:"current_streak"`
	LongestStreak   int       `json:"longest_streak"`
	LastCheckinDate string    `json:"last_checkin_date,omitempty"` // YYYY-MM-DD
	TotalCheckins   int       `json:"total_checkins"`
	Milestones      []int     `json:"milestones_achieved"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DailyScore is the trend view of one check-in.
type DailyScore struct {
	Date             string             `json:"date"`
	OverallScore     float64            `json:"overall_score"`
	WellnessCategory string             `json:"wellness_category"`
	CategoryScores   map[string]float64 `json:"category_scores"`
}

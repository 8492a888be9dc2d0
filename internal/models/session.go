package models

import "time"

// Session groups the interactions of one companion conversation. Counters and
// the average mood are recomputed from the session's interactions on every
// write, never tracked incrementally.
type Session struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	SessionStart      time.Time  `json:"session_start"`
	SessionEnd        *time.Time `json:"session_end,omitempty"`
	TotalInteractions int        `json:"total_interactions"`
	CrisisEvents      int        `json:"crisis_events"`
	AverageMoodScore  float64    `json:"average_mood_score"`
	CreatedAt         time.Time  `json:"created_at"`
}

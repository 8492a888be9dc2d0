package models

import (
	"encoding/json"
	"time"
)

// CrisisEvent links one crisis detection to its triggering interaction.
// Everything except the follow-up fields is immutable after insert; resolution
// is a one-way transition via the resolve operation.
type CrisisEvent struct {
	ID                  string          `json:"id"`
	InteractionID       string          `json:"interaction_id"`
	UserID              string          `json:"user_id"`
	Timestamp           time.Time       `json:"timestamp"`
	CrisisLevel         string          `json:"crisis_level"`
	CrisisKeywords      []string        `json:"crisis_keywords"`
	MoodScore           float64         `json:"mood_score"`
	ContactsNotified    bool            `json:"emergency_contacts_notified"`
	NotificationResults json.RawMessage `json:"notification_results,omitempty"`
	FollowUpRequired    bool            `json:"follow_up_required"`
	FollowUpCompleted   bool            `json:"follow_up_completed"`
	ResolutionStatus    string          `json:"resolution_status,omitempty"`
}

// CrisisAlert is a follow-up queue entry: the event joined with the text and
// location of the interaction that triggered it.
type CrisisAlert struct {
	CrisisEvent
	InputText    string `json:"input_text"`
	UserLocation string `json:"user_location"`
}

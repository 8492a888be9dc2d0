// Package wellness generates daily check-in questions, scores the answers
// into a 0-100 wellness index and derives streak insights. Question selection
// is deterministic per (user, date) so a user sees the same set all day.
package wellness

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"mindwell/internal/streak"
)

// QuestionType discriminates how a question is answered.
type QuestionType string

const (
	TypeScale          QuestionType = "scale"
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeText           QuestionType = "text"
)

// Option is one multiple-choice answer with its point value.
type Option struct {
	Value int    `json:"value"`
	Text  string `json:"text"`
}

// Question is a single daily check-in prompt.
type Question struct {
	ID          string         `json:"id"`
	Question    string         `json:"question"`
	Type        QuestionType   `json:"type"`
	ScaleMin    int            `json:"scale_min,omitempty"`
	ScaleMax    int            `json:"scale_max,omitempty"`
	ScaleLabels map[int]string `json:"scale_labels,omitempty"`
	Options     []Option       `json:"options,omitempty"`
	Placeholder string         `json:"placeholder,omitempty"`
	Category    string         `json:"category"`
}

// QuestionSet is one day's questions for one user.
type QuestionSet struct {
	Date           string     `json:"date"`
	UserID         string     `json:"user_id"`
	Questions      []Question `json:"questions"`
	TotalQuestions int        `json:"total_questions"`
	EstimatedTime  string     `json:"estimated_time"`
}

var moodCheck = []Question{
	{
		ID: "mood_1", Question: "How are you feeling today overall?", Type: TypeScale,
		ScaleMin: 1, ScaleMax: 10,
		ScaleLabels: map[int]string{1: "Very Bad", 5: "Neutral", 10: "Excellent"},
		Category:    "mood",
	},
	{
		ID: "energy_1", Question: "How is your energy level today?", Type: TypeScale,
		ScaleMin: 1, ScaleMax: 10,
		ScaleLabels: map[int]string{1: "Exhausted", 5: "Moderate", 10: "Very Energetic"},
		Category:    "energy",
	},
	{
		ID: "stress_1", Question: "How stressed do you feel right now?", Type: TypeScale,
		ScaleMin: 1, ScaleMax: 10,
		ScaleLabels: map[int]string{1: "Very Calm", 5: "Moderate", 10: "Very Stressed"},
		Category:    "stress",
	},
}

var wellbeingCheck = []Question{
	{
		ID: "sleep_1", Question: "How well did you sleep last night?", Type: TypeMultipleChoice,
		Options: []Option{
			{4, "Excellent - 8+ hours, felt rested"},
			{3, "Good - 6-8 hours, mostly rested"},
			{2, "Fair - 4-6 hours, somewhat tired"},
			{1, "Poor - Less than 4 hours, very tired"},
		},
		Category: "sleep",
	},
	{
		ID: "social_1", Question: "Did you have meaningful social interaction today?", Type: TypeMultipleChoice,
		Options: []Option{
			{4, "Yes, quality time with friends/family"},
			{3, "Yes, some good conversations"},
			{2, "A little, brief interactions"},
			{1, "No, felt isolated today"},
		},
		Category: "social",
	},
	{
		ID: "activity_1", Question: "Did you do any physical activity today?", Type: TypeMultipleChoice,
		Options: []Option{
			{4, "Yes, intense exercise (30+ min)"},
			{3, "Yes, moderate activity (15-30 min)"},
			{2, "Yes, light activity (walking, etc.)"},
			{1, "No, mostly sedentary today"},
		},
		Category: "physical",
	},
}

var reflection = []Question{
	{
		ID: "gratitude_1", Question: "What's one thing you're grateful for today?", Type: TypeText,
		Placeholder: "I'm grateful for...", Category: "gratitude",
	},
	{
		ID: "achievement_1", Question: "What's one small thing you accomplished today?", Type: TypeText,
		Placeholder: "Today I accomplished...", Category: "achievement",
	},
	{
		ID: "challenge_1", Question: "What was the biggest challenge you faced today?", Type: TypeText,
		Placeholder: "My biggest challenge was...", Category: "challenge",
	},
	{
		ID: "tomorrow_1", Question: "What's one thing you're looking forward to tomorrow?", Type: TypeText,
		Placeholder: "Tomorrow I'm looking forward to...", Category: "future",
	},
}

var copingCheck = []Question{
	{
		ID: "coping_1", Question: "How well did you handle stress today?", Type: TypeMultipleChoice,
		Options: []Option{
			{4, "Very well - used healthy coping strategies"},
			{3, "Pretty well - managed most situations"},
			{2, "Okay - struggled but got through it"},
			{1, "Poorly - felt overwhelmed most of the day"},
		},
		Category: "coping",
	},
	{
		ID: "support_1", Question: "Did you reach out for support when needed today?", Type: TypeMultipleChoice,
		Options: []Option{
			{4, "Yes, and got the help I needed"},
			{3, "Yes, reached out to someone"},
			{2, "Thought about it but didn't"},
			{1, "No, handled everything alone"},
		},
		Category: "support",
	},
}

var allPools = [][]Question{moodCheck, wellbeingCheck, reflection, copingCheck}

// DailyQuestions returns the question set for a user on a calendar date.
// Selection is seeded by (user, date): repeat calls on the same day return
// the same set, different days rotate through the category pools.
func DailyQuestions(userID, date string) (QuestionSet, error) {
	day, err := time.Parse(streak.DateLayout, date)
	if err != nil {
		return QuestionSet{}, fmt.Errorf("parse question date: %w", err)
	}
	rng := rand.New(rand.NewSource(seed(userID + "_" + date)))

	selected := []Question{pick(rng, moodCheck)}
	switch day.Weekday() {
	case time.Monday, time.Thursday, time.Sunday:
		selected = append(selected, sample(rng, wellbeingCheck, 2)...)
	case time.Tuesday, time.Friday:
		selected = append(selected, pick(rng, reflection), pick(rng, copingCheck))
	default: // Wednesday, Saturday
		selected = append(selected, pick(rng, wellbeingCheck), pick(rng, reflection))
	}

	return QuestionSet{
		Date:           date,
		UserID:         userID,
		Questions:      selected,
		TotalQuestions: len(selected),
		EstimatedTime:  "2-3 minutes",
	}, nil
}

// FindQuestion looks a question up by id across every pool.
func FindQuestion(id string) (Question, bool) {
	for _, pool := range allPools {
		for _, q := range pool {
			if q.ID == id {
				return q, true
			}
		}
	}
	return Question{}, false
}

func seed(key string) int64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return int64(h.Sum64())
}

func pick(rng *rand.Rand, pool []Question) Question {
	return pool[rng.Intn(len(pool))]
}

func sample(rng *rand.Rand, pool []Question, n int) []Question {
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]Question, 0, n)
	for _, i := range rng.Perm(len(pool))[:n] {
		out = append(out, pool[i])
	}
	return out
}

package wellness

import (
	"math"

	"mindwell/internal/models"
	"mindwell/internal/streak"
)

// textCompletionScore is the fixed credit a free-text answer earns: completing
// the reflection matters, not its content.
const (
	textCompletionScore = 3
	textCompletionMax   = 4
)

// Answer is one submitted answer keyed by question id. Value is ignored for
// text questions.
type Answer struct {
	QuestionID string  `json:"question_id"`
	Value      float64 `json:"value"`
	Category   string  `json:"category,omitempty"`
}

// ScoreResult is the outcome of scoring one day's answers.
type ScoreResult struct {
	OverallScore     float64            `json:"overall_score"`
	WellnessCategory string             `json:"wellness_category"`
	CategoryScores   map[string]float64 `json:"category_scores"`
	TotalAnswers     int                `json:"total_answers"`
	CompletionRate   float64            `json:"completion_rate"`
}

type categoryTally struct {
	total float64
	max   float64
}

// Score turns submitted answers into the 0-100 wellness index. Answers whose
// question id is unknown are skipped.
func Score(answers []Answer) ScoreResult {
	if len(answers) == 0 {
		return ScoreResult{WellnessCategory: "no_data", CategoryScores: map[string]float64{}}
	}

	var total, maxPossible float64
	tallies := make(map[string]*categoryTally)

	for _, ans := range answers {
		q, ok := FindQuestion(ans.QuestionID)
		if !ok {
			continue
		}
		var value, maxVal float64
		switch q.Type {
		case TypeScale:
			value, maxVal = ans.Value, float64(q.ScaleMax)
		case TypeMultipleChoice:
			value = ans.Value
			for _, opt := range q.Options {
				if float64(opt.Value) > maxVal {
					maxVal = float64(opt.Value)
				}
			}
		case TypeText:
			value, maxVal = textCompletionScore, textCompletionMax
		}
		total += value
		maxPossible += maxVal

		category := ans.Category
		if category == "" {
			category = q.Category
		}
		tally := tallies[category]
		if tally == nil {
			tally = &categoryTally{}
			tallies[category] = tally
		}
		tally.total += value
		tally.max += maxVal
	}

	result := ScoreResult{
		CategoryScores: make(map[string]float64, len(tallies)),
		TotalAnswers:   len(answers),
		CompletionRate: 100,
	}
	if maxPossible > 0 {
		result.OverallScore = round1(total / maxPossible * 100)
	}
	switch {
	case result.OverallScore >= 80:
		result.WellnessCategory = "excellent"
	case result.OverallScore >= 65:
		result.WellnessCategory = "good"
	case result.OverallScore >= 50:
		result.WellnessCategory = "fair"
	case result.OverallScore >= 35:
		result.WellnessCategory = "concerning"
	default:
		result.WellnessCategory = "critical"
	}
	for cat, tally := range tallies {
		if tally.max > 0 {
			result.CategoryScores[cat] = round1(tally.total / tally.max * 100)
		}
	}
	return result
}

// Milestone is the streak target shown with its reward.
type Milestone struct {
	Days          int    `json:"days"`
	DaysRemaining int    `json:"days_remaining"`
	Reward        string `json:"reward"`
}

// Insights summarizes recent check-in scores into a trend and recommendations.
type Insights struct {
	Message         string    `json:"message,omitempty"`
	CurrentStreak   int       `json:"current_streak"`
	AverageScore    float64   `json:"average_score"`
	Trend           string    `json:"trend"`
	WellnessLevel   string    `json:"wellness_level"`
	Recommendations []string  `json:"recommendations"`
	NextMilestone   Milestone `json:"next_milestone"`
}

var milestoneRewards = map[int]string{
	7:   "Week Warrior Badge!",
	14:  "Two Week Champion!",
	30:  "Monthly Master Badge!",
	60:  "Wellness Warrior!",
	100: "Hundred Day Hero!",
	365: "Year-Long Legend!",
}

// MilestoneReward names the badge for a milestone length.
func MilestoneReward(days int) string {
	if reward, ok := milestoneRewards[days]; ok {
		return reward
	}
	return "Amazing Streak Badge!"
}

// StreakInsights compares the oldest and newest of the last seven scores to
// classify the trend. Scores are expected oldest first.
func StreakInsights(currentStreak int, scores []models.DailyScore) Insights {
	if len(scores) == 0 {
		return Insights{
			Message:         "Start your daily check-in streak to get insights!",
			Trend:           "stable",
			WellnessLevel:   "unknown",
			Recommendations: []string{},
			NextMilestone:   nextMilestone(currentStreak),
		}
	}

	window := scores
	if len(window) > 7 {
		window = window[len(window)-7:]
	}
	var sum float64
	for _, sc := range window {
		sum += sc.OverallScore
	}
	avg := round1(sum / float64(len(window)))

	trend := "stable"
	if len(window) >= 2 {
		switch {
		case window[len(window)-1].OverallScore > window[0].OverallScore:
			trend = "improving"
		case window[len(window)-1].OverallScore < window[0].OverallScore:
			trend = "declining"
		}
	}

	var recommendations []string
	switch {
	case avg < 50:
		recommendations = []string{
			"Consider reaching out to a mental health professional",
			"Focus on basic self-care: sleep, nutrition, hydration",
			"Try gentle activities like short walks or deep breathing",
		}
	case avg < 70:
		recommendations = []string{
			"Maintain your current positive habits",
			"Consider adding one new wellness activity",
			"Connect with friends or family for support",
		}
	default:
		recommendations = []string{
			"Great job maintaining your mental wellness!",
			"Consider helping others or volunteering",
			"Keep up your excellent self-care routine",
		}
	}

	return Insights{
		CurrentStreak:   currentStreak,
		AverageScore:    avg,
		Trend:           trend,
		WellnessLevel:   scores[len(scores)-1].WellnessCategory,
		Recommendations: recommendations,
		NextMilestone:   nextMilestone(currentStreak),
	}
}

func nextMilestone(current int) Milestone {
	days, remaining := streak.NextMilestone(current)
	if current >= streak.Milestones[len(streak.Milestones)-1] {
		return Milestone{Days: days, DaysRemaining: remaining, Reward: "Mental Health Champion Badge!"}
	}
	return Milestone{Days: days, DaysRemaining: remaining, Reward: MilestoneReward(days)}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

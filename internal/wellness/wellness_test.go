package wellness

import (
	"math/rand"
	"reflect"
	"testing"

	"mindwell/internal/models"
)

func TestDailyQuestionsDeterministicPerDay(t *testing.T) {
	first, err := DailyQuestions("user1", "2025-03-10")
	if err != nil {
		t.Fatalf("daily questions: %v", err)
	}
	second, err := DailyQuestions("user1", "2025-03-10")
	if err != nil {
		t.Fatalf("daily questions: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same user and date must yield the same set")
	}
	if first.TotalQuestions != 3 || len(first.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %+v", first)
	}
}

func TestDailyQuestionsAlwaysLeadWithMood(t *testing.T) {
	moodIDs := map[string]bool{"mood_1": true, "energy_1": true, "stress_1": true}
	for _, date := range []string{"2025-03-10", "2025-03-11", "2025-03-12", "2025-03-13", "2025-03-14", "2025-03-15", "2025-03-16"} {
		set, err := DailyQuestions("user1", date)
		if err != nil {
			t.Fatalf("daily questions %s: %v", date, err)
		}
		if !moodIDs[set.Questions[0].ID] {
			t.Fatalf("%s: first question must be a mood check, got %s", date, set.Questions[0].ID)
		}
	}
}

func TestDailyQuestionsWeekdayRotation(t *testing.T) {
	// 2025-03-10 is a Monday: two wellbeing questions follow the mood check.
	set, err := DailyQuestions("user1", "2025-03-10")
	if err != nil {
		t.Fatalf("daily questions: %v", err)
	}
	wellbeing := map[string]bool{"sleep_1": true, "social_1": true, "activity_1": true}
	if !wellbeing[set.Questions[1].ID] || !wellbeing[set.Questions[2].ID] {
		t.Fatalf("monday must draw from wellbeing: %+v", set.Questions)
	}
	if set.Questions[1].ID == set.Questions[2].ID {
		t.Fatalf("sampling must not repeat a question")
	}

	// 2025-03-11 is a Tuesday: reflection then coping.
	set, err = DailyQuestions("user1", "2025-03-11")
	if err != nil {
		t.Fatalf("daily questions: %v", err)
	}
	if set.Questions[1].Type != TypeText {
		t.Fatalf("tuesday expects a reflection question, got %+v", set.Questions[1])
	}
	coping := map[string]bool{"coping_1": true, "support_1": true}
	if !coping[set.Questions[2].ID] {
		t.Fatalf("tuesday expects a coping question, got %s", set.Questions[2].ID)
	}
}

func TestDailyQuestionsRejectsBadDate(t *testing.T) {
	if _, err := DailyQuestions("user1", "10/03/2025"); err == nil {
		t.Fatalf("expected a parse error")
	}
}

func TestScoreMixedAnswerTypes(t *testing.T) {
	result := Score([]Answer{
		{QuestionID: "mood_1", Value: 8},      // scale, max 10
		{QuestionID: "sleep_1", Value: 3},     // choice, max 4
		{QuestionID: "gratitude_1", Value: 0}, // text, fixed 3 of 4
	})
	// (8+3+3) / (10+4+4) = 77.8
	if result.OverallScore != 77.8 {
		t.Fatalf("expected 77.8, got %v", result.OverallScore)
	}
	if result.WellnessCategory != "good" {
		t.Fatalf("expected good, got %q", result.WellnessCategory)
	}
	if result.CategoryScores["mood"] != 80 || result.CategoryScores["sleep"] != 75 || result.CategoryScores["gratitude"] != 75 {
		t.Fatalf("category percentages wrong: %+v", result.CategoryScores)
	}
	if result.TotalAnswers != 3 || result.CompletionRate != 100 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestScoreCategoryBoundaries(t *testing.T) {
	cases := []struct {
		value    float64
		category string
	}{
		{10, "excellent"}, // 100
		{8, "excellent"},  // 80
		{7, "good"},       // 70
		{5, "fair"},       // 50
		{4, "concerning"}, // 40
		{2, "critical"},   // 20
	}
	for _, tc := range cases {
		result := Score([]Answer{{QuestionID: "mood_1", Value: tc.value}})
		if result.WellnessCategory != tc.category {
			t.Fatalf("value %v: expected %q, got %q (score %v)", tc.value, tc.category, result.WellnessCategory, result.OverallScore)
		}
	}
}

func TestScoreEmptyAndUnknown(t *testing.T) {
	result := Score(nil)
	if result.WellnessCategory != "no_data" || result.OverallScore != 0 {
		t.Fatalf("empty answers must be no_data: %+v", result)
	}
	result = Score([]Answer{{QuestionID: "ghost_1", Value: 5}})
	if result.OverallScore != 0 {
		t.Fatalf("unknown question must not score: %+v", result)
	}
}

func TestStreakInsightsTrend(t *testing.T) {
	scores := []models.DailyScore{
		{Date: "2025-03-08", OverallScore: 40, WellnessCategory: "concerning"},
		{Date: "2025-03-09", OverallScore: 55, WellnessCategory: "fair"},
		{Date: "2025-03-10", OverallScore: 70, WellnessCategory: "good"},
	}
	insights := StreakInsights(3, scores)
	if insights.Trend != "improving" {
		t.Fatalf("expected improving, got %q", insights.Trend)
	}
	if insights.AverageScore != 55 {
		t.Fatalf("expected average 55, got %v", insights.AverageScore)
	}
	if insights.WellnessLevel != "good" {
		t.Fatalf("wellness level follows the latest score, got %q", insights.WellnessLevel)
	}
	if len(insights.Recommendations) != 3 {
		t.Fatalf("expected recommendations, got %+v", insights.Recommendations)
	}
	if insights.NextMilestone.Days != 7 || insights.NextMilestone.DaysRemaining != 4 {
		t.Fatalf("unexpected milestone: %+v", insights.NextMilestone)
	}
	if insights.NextMilestone.Reward != "Week Warrior Badge!" {
		t.Fatalf("unexpected reward: %q", insights.NextMilestone.Reward)
	}
}

func TestStreakInsightsEmpty(t *testing.T) {
	insights := StreakInsights(0, nil)
	if insights.Message == "" {
		t.Fatalf("empty history must invite the user to start")
	}
	if insights.Trend != "stable" || insights.WellnessLevel != "unknown" {
		t.Fatalf("unexpected zero-state insights: %+v", insights)
	}
}

func TestStreakInsightsPastMilestoneList(t *testing.T) {
	scores := []models.DailyScore{{Date: "2025-03-10", OverallScore: 90, WellnessCategory: "excellent"}}
	insights := StreakInsights(400, scores)
	if insights.NextMilestone.Days != 500 || insights.NextMilestone.Reward != "Mental Health Champion Badge!" {
		t.Fatalf("rolling milestone expected: %+v", insights.NextMilestone)
	}
}

func TestRandomTip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		tip := RandomTip(rng)
		if tip == "" {
			t.Fatalf("empty tip")
		}
		seen[tip] = true
	}
	if len(seen) < 2 {
		t.Fatalf("tips must vary across draws")
	}
}

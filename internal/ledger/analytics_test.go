package ledger

import (
	"context"
	"testing"
	"time"

	"mindwell/internal/models"
)

func seedInteraction(t *testing.T, svc *Service, rec models.Interaction) {
	t.Helper()
	if _, err := svc.LogInteraction(context.Background(), rec); err != nil {
		t.Fatalf("seed interaction: %v", err)
	}
}

func TestAnalyticsSummary(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	now := fixedClock(t, svc, "2025-03-10T12:00:00Z")
	sessionID, _ := svc.StartSession(ctx, "user1")

	seedInteraction(t, svc, models.Interaction{
		SessionID: sessionID, UserID: "user1", InputText: "fine",
		Timestamp: now.AddDate(0, 0, -1), MoodScore: 0.5,
	})
	seedInteraction(t, svc, models.Interaction{
		SessionID: sessionID, UserID: "user2", InputText: "hopeless",
		Timestamp: now.AddDate(0, 0, -2), MoodScore: -0.7, IsCrisis: true, CrisisLevel: "high",
	})
	// Outside the 7-day window: must not count.
	seedInteraction(t, svc, models.Interaction{
		SessionID: sessionID, UserID: "user3", InputText: "old",
		Timestamp: now.AddDate(0, 0, -10), MoodScore: 0.9,
	})
	if _, err := svc.LogCrisisEvent(ctx, models.CrisisEvent{
		InteractionID: "i1", UserID: "user2", Timestamp: now.AddDate(0, 0, -2),
		CrisisLevel: "high", FollowUpRequired: true,
	}); err != nil {
		t.Fatalf("seed crisis: %v", err)
	}

	summary, err := svc.AnalyticsSummary(ctx, 7)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalInteractions != 2 || summary.UniqueUsers != 2 {
		t.Fatalf("window filter broken: %+v", summary)
	}
	if summary.TotalCrisisEvents != 1 {
		t.Fatalf("expected 1 crisis event, got %d", summary.TotalCrisisEvents)
	}
	if summary.CrisisRate != 50 {
		t.Fatalf("expected crisis rate 50, got %v", summary.CrisisRate)
	}
	if summary.AverageMoodScore != -0.1 {
		t.Fatalf("expected average -0.1, got %v", summary.AverageMoodScore)
	}
	if summary.CrisisBreakdown["high"] != 1 {
		t.Fatalf("breakdown missing: %+v", summary.CrisisBreakdown)
	}
	if summary.DailyInteractions["2025-03-08"] != 1 || summary.DailyInteractions["2025-03-09"] != 1 {
		t.Fatalf("daily buckets wrong: %+v", summary.DailyInteractions)
	}
}

func TestAnalyticsSummaryEmptyStore(t *testing.T) {
	svc := newTestService(t)
	summary, err := svc.AnalyticsSummary(context.Background(), 7)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.CrisisRate != 0 || summary.TotalInteractions != 0 {
		t.Fatalf("empty store must yield zero rate without division error: %+v", summary)
	}
}

func TestUserAnalyticsTrendsAndInsights(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	now := fixedClock(t, svc, "2025-03-10T12:00:00Z")
	sessionID, _ := svc.StartSession(ctx, "user1")

	// Four days of rising mood: head window averages -0.2, tail 0.1.
	moods := []float64{-0.5, -0.2, 0.1, 0.4}
	for i, mood := range moods {
		day := now.AddDate(0, 0, i-4)
		seedInteraction(t, svc, models.Interaction{
			SessionID: sessionID, UserID: "user1", InputText: "entry",
			Timestamp: day.Add(2 * time.Hour), MoodScore: mood,
		})
		seedInteraction(t, svc, models.Interaction{
			SessionID: sessionID, UserID: "user1", InputText: "entry",
			Timestamp: day.Add(2*time.Hour + 10*time.Minute), MoodScore: mood,
		})
	}
	// Another user's rows must not bleed in.
	seedInteraction(t, svc, models.Interaction{
		SessionID: sessionID, UserID: "user2", InputText: "other",
		Timestamp: now.AddDate(0, 0, -1), MoodScore: -1,
	})

	ua, err := svc.UserAnalytics(ctx, "user1", 7)
	if err != nil {
		t.Fatalf("user analytics: %v", err)
	}
	if ua.PersonalStats.TotalInteractions != 8 {
		t.Fatalf("expected 8 interactions, got %d", ua.PersonalStats.TotalInteractions)
	}
	if ua.PersonalStats.SessionCount != 1 {
		t.Fatalf("expected 1 session, got %d", ua.PersonalStats.SessionCount)
	}
	if len(ua.Trends.DailyMoodTrend) != 4 || len(ua.Trends.DailyActivity) != 4 {
		t.Fatalf("expected 4 daily buckets: %+v", ua.Trends)
	}
	if got := ua.Trends.DailyActivity["2025-03-08"]; got != 2 {
		t.Fatalf("expected 2 entries on 03-08, got %d", got)
	}
	if ua.PersonalStats.MoodImprovement < 0.29 || ua.PersonalStats.MoodImprovement > 0.31 {
		t.Fatalf("expected improvement near 0.3, got %v", ua.PersonalStats.MoodImprovement)
	}
	if ua.Insights.MoodTrending != "improving" {
		t.Fatalf("expected improving, got %q", ua.Insights.MoodTrending)
	}
	if ua.Insights.ActivityLevel != "moderate" {
		t.Fatalf("8 interactions over 7 days is moderate, got %q", ua.Insights.ActivityLevel)
	}
	if ua.Insights.CrisisFrequency != "none" {
		t.Fatalf("expected none, got %q", ua.Insights.CrisisFrequency)
	}
	if len(ua.Trends.MostActiveHours) == 0 || ua.Trends.MostActiveHours[0].Hour != "14:00" {
		t.Fatalf("expected 14:00 as top hour, got %+v", ua.Trends.MostActiveHours)
	}
}

func TestUserAnalyticsCrisisFrequency(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	now := fixedClock(t, svc, "2025-03-10T12:00:00Z")

	for i := 0; i < 3; i++ {
		if _, err := svc.LogCrisisEvent(ctx, models.CrisisEvent{
			InteractionID: "i", UserID: "user1", Timestamp: now.AddDate(0, 0, -i-1),
			CrisisLevel: "high", FollowUpRequired: true,
		}); err != nil {
			t.Fatalf("seed crisis: %v", err)
		}
	}

	ua, err := svc.UserAnalytics(ctx, "user1", 7)
	if err != nil {
		t.Fatalf("user analytics: %v", err)
	}
	// 3 events over 7 days exceeds the 0.3/day threshold.
	if ua.Insights.CrisisFrequency != "concerning" {
		t.Fatalf("expected concerning, got %q", ua.Insights.CrisisFrequency)
	}
	if ua.Trends.CrisisBreakdown["high"] != 3 {
		t.Fatalf("breakdown wrong: %+v", ua.Trends.CrisisBreakdown)
	}
}

func TestExportAnalyticsWritesFile(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	fixedClock(t, svc, "2025-03-10T12:00:00Z")

	path := t.TempDir() + "/export.json"
	got, err := svc.ExportAnalytics(ctx, path)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if got != path {
		t.Fatalf("expected %q, got %q", path, got)
	}
}

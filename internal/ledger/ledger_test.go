package ledger

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"mindwell/internal/models"
	"mindwell/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(db, "sqlite3", Options{})
}

func TestStartSessionAnonymousUser(t *testing.T) {
	svc := newTestService(t)
	sessionID, userID := svc.StartSession(context.Background(), "")
	if sessionID == "" {
		t.Fatalf("expected a session id")
	}
	if userID == "" || userID[:10] != "anonymous_" {
		t.Fatalf("expected synthesized anonymous id, got %q", userID)
	}

	sess, err := svc.GetSession(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if sess.UserID != userID || sess.SessionEnd != nil {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestStartSessionReturnsIDOnFailure(t *testing.T) {
	svc := newTestService(t)
	// Force persistence failure; the id must still come back.
	if _, err := svc.db.Exec(`DROP TABLE user_sessions`); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	sessionID, userID := svc.StartSession(context.Background(), "user1")
	if sessionID == "" || userID != "user1" {
		t.Fatalf("best-effort contract broken: %q %q", sessionID, userID)
	}
}

func TestLogInteractionRecomputesAggregates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	sessionID, userID := svc.StartSession(ctx, "user1")

	for i, rec := range []models.Interaction{
		{SessionID: sessionID, UserID: userID, InputText: "feeling good", InputType: models.InputText, MoodScore: 0.6, MoodLabel: "POSITIVE"},
		{SessionID: sessionID, UserID: userID, InputText: "feeling hopeless", InputType: models.InputText, MoodScore: -0.8, MoodLabel: "NEGATIVE",
			IsCrisis: true, CrisisLevel: "high", CrisisKeywords: []string{"hopeless"}},
	} {
		if _, err := svc.LogInteraction(ctx, rec); err != nil {
			t.Fatalf("log interaction %d: %v", i, err)
		}
	}

	sess, err := svc.GetSession(ctx, sessionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if sess.TotalInteractions != 2 {
		t.Fatalf("expected 2 interactions, got %d", sess.TotalInteractions)
	}
	if sess.CrisisEvents != 1 {
		t.Fatalf("expected 1 crisis interaction, got %d", sess.CrisisEvents)
	}
	if diff := sess.AverageMoodScore - (-0.1); diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected average mood -0.1, got %v", sess.AverageMoodScore)
	}
}

func TestLogInteractionFailureStillReturnsID(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.db.Exec(`DROP TABLE interactions`); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	id, err := svc.LogInteraction(context.Background(), models.Interaction{SessionID: "s", UserID: "u", InputText: "x"})
	if err == nil {
		t.Fatalf("expected an error")
	}
	if id == "" {
		t.Fatalf("id must be returned even on failure")
	}
}

func TestCrisisAlertQueue(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	sessionID, userID := svc.StartSession(ctx, "user1")

	interactionID, err := svc.LogInteraction(ctx, models.Interaction{
		SessionID: sessionID, UserID: userID, InputText: "I want to end it all",
		InputType: models.InputText, MoodScore: -0.9, MoodLabel: "NEGATIVE",
		IsCrisis: true, CrisisLevel: "critical", CrisisKeywords: []string{"end it all"},
		UserLocation: "us",
	})
	if err != nil {
		t.Fatalf("log interaction: %v", err)
	}
	crisisID, err := svc.LogCrisisEvent(ctx, models.CrisisEvent{
		InteractionID: interactionID, UserID: userID, CrisisLevel: "critical",
		CrisisKeywords: []string{"end it all"}, MoodScore: -0.9, FollowUpRequired: true,
	})
	if err != nil {
		t.Fatalf("log crisis event: %v", err)
	}
	// Follow-up not required: must never reach the queue.
	if _, err := svc.LogCrisisEvent(ctx, models.CrisisEvent{
		InteractionID: interactionID, UserID: userID, CrisisLevel: "moderate", MoodScore: -0.5,
	}); err != nil {
		t.Fatalf("log moderate event: %v", err)
	}

	alerts, err := svc.CrisisAlerts(ctx, true)
	if err != nil {
		t.Fatalf("crisis alerts: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 unresolved alert, got %d", len(alerts))
	}
	if alerts[0].ID != crisisID || alerts[0].InputText != "I want to end it all" || alerts[0].UserLocation != "us" {
		t.Fatalf("alert not joined with its interaction: %+v", alerts[0])
	}
	if alerts[0].CrisisKeywords[0] != "end it all" {
		t.Fatalf("keywords lost in round trip: %+v", alerts[0].CrisisKeywords)
	}

	affected, err := svc.MarkCrisisResolved(ctx, crisisID, "")
	if err != nil || affected != 1 {
		t.Fatalf("resolve: affected=%d err=%v", affected, err)
	}
	alerts, err = svc.CrisisAlerts(ctx, true)
	if err != nil {
		t.Fatalf("crisis alerts after resolve: %v", err)
	}
	if len(alerts) != 0 {
		t.Fatalf("resolved alert still queued: %+v", alerts)
	}
	// Resolution still visible in the full queue with the default status.
	all, err := svc.CrisisAlerts(ctx, false)
	if err != nil {
		t.Fatalf("full queue: %v", err)
	}
	if len(all) != 1 || !all[0].FollowUpCompleted || all[0].ResolutionStatus != "resolved" {
		t.Fatalf("resolution not recorded: %+v", all)
	}
}

func TestMarkCrisisResolvedUnknownID(t *testing.T) {
	svc := newTestService(t)
	affected, err := svc.MarkCrisisResolved(context.Background(), "no-such-id", "resolved")
	if err != nil {
		t.Fatalf("unknown id must be a no-op, got %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected 0 rows affected, got %d", affected)
	}
}

func TestEndSessionStampsEnd(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	sessionID, _ := svc.StartSession(ctx, "user1")
	if err := svc.EndSession(ctx, sessionID); err != nil {
		t.Fatalf("end session: %v", err)
	}
	sess, err := svc.GetSession(ctx, sessionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if sess.SessionEnd == nil {
		t.Fatalf("session end not stamped")
	}
}

func TestGetSessionMissing(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.GetSession(context.Background(), "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
}

func TestLogMetricBestEffort(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	svc.LogMetric(ctx, "api_response_time", 12.5, "ms", map[string]interface{}{"endpoint": "analyze_text"})

	var count int
	if err := svc.db.QueryRow(`SELECT COUNT(*) FROM system_metrics WHERE metric_name = 'api_response_time'`).Scan(&count); err != nil {
		t.Fatalf("count metrics: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 metric, got %d", count)
	}

	// Persistence failure must not panic or surface.
	if _, err := svc.db.Exec(`DROP TABLE system_metrics`); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	svc.LogMetric(ctx, "error_rate", 1, "count", nil)
}

func fixedClock(t *testing.T, svc *Service, stamp string) time.Time {
	t.Helper()
	now, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		t.Fatalf("parse clock: %v", err)
	}
	svc.now = func() time.Time { return now }
	return now
}

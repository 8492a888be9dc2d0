// Package ledger is the durable append-only interaction log with derived
// aggregates. Persistence failures are logged and the operation returns a
// best-effort value; the conversational flow never blocks on log durability.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"mindwell/internal/models"
	"mindwell/internal/redis"
	"mindwell/internal/storage"
)

// Options carries the ledger's optional collaborators and policy knobs.
type Options struct {
	Cache *redis.Client
	// SkipSameDayCount stops same-day re-check-ins from inflating
	// total_checkins. Off by default to keep the historical accounting.
	SkipSameDayCount bool
}

// Service owns the analytics store.
type Service struct {
	db               *sql.DB
	driver           string
	cache            *redis.Client
	skipSameDayCount bool
	now              func() time.Time
}

// NewService builds a ledger over the given database handle.
func NewService(db *sql.DB, driver string, opts Options) *Service {
	return &Service{
		db:               db,
		driver:           driver,
		cache:            opts.Cache,
		skipSameDayCount: opts.SkipSameDayCount,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) q(query string) string {
	return storage.Rebind(s.driver, query)
}

// Ping checks the underlying database connection.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// StartSession creates a new session row and returns its id along with the
// resolved user id. A missing user id is replaced with a synthesized anonymous
// identifier. The generated session id is returned even when the insert fails.
func (s *Service) StartSession(ctx context.Context, userID string) (sessionID, resolvedUserID string) {
	sessionID = uuid.NewString()
	if userID == "" {
		userID = "anonymous_" + s.now().Format("20060102_150405")
	}

	_, err := s.db.ExecContext(ctx, s.q(
		`INSERT INTO user_sessions (id, user_id, session_start, created_at) VALUES (?, ?, ?, ?)`),
		sessionID, userID, s.now(), s.now(),
	)
	if err != nil {
		log.Printf("ledger: start session %s: %v", sessionID, err)
		return sessionID, userID
	}
	log.Printf("ledger: started session %s for user %s", sessionID, userID)
	return sessionID, userID
}

// LogInteraction appends one interaction and recomputes the owning session's
// aggregates from its interactions in a single consistent step. The generated
// interaction id is returned even on persistence failure.
func (s *Service) LogInteraction(ctx context.Context, rec models.Interaction) (string, error) {
	id := uuid.NewString()
	keywords, err := json.Marshal(rec.CrisisKeywords)
	if err != nil {
		keywords = []byte("[]")
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}

	_, err = s.db.ExecContext(ctx, s.q(
		`INSERT INTO interactions (
			id, session_id, user_id, timestamp, input_text, input_type,
			mood_score, mood_label, is_crisis, crisis_level,
			crisis_keywords, response_type, processing_time_ms, user_location
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		id, rec.SessionID, rec.UserID, ts, rec.InputText, rec.InputType,
		rec.MoodScore, rec.MoodLabel, rec.IsCrisis, rec.CrisisLevel,
		string(keywords), rec.ResponseType, rec.ProcessingTimeMs, rec.UserLocation,
	)
	if err != nil {
		log.Printf("ledger: log interaction %s: %v", id, err)
		return id, fmt.Errorf("log interaction: %w", err)
	}

	// Recompute rather than increment so the counters always equal the derived
	// aggregates of the session's own interactions.
	_, err = s.db.ExecContext(ctx, s.q(
		`UPDATE user_sessions SET
			total_interactions = (SELECT COUNT(*) FROM interactions WHERE session_id = ?),
			crisis_events = (SELECT COUNT(*) FROM interactions WHERE session_id = ? AND is_crisis),
			average_mood_score = COALESCE((SELECT AVG(mood_score) FROM interactions WHERE session_id = ?), 0)
		WHERE id = ?`),
		rec.SessionID, rec.SessionID, rec.SessionID, rec.SessionID,
	)
	if err != nil {
		log.Printf("ledger: update session aggregates %s: %v", rec.SessionID, err)
		return id, fmt.Errorf("update session aggregates: %w", err)
	}
	return id, nil
}

// LogCrisisEvent appends a crisis event linked to an interaction id. It is
// deliberately independent of whether the parent interaction persisted.
func (s *Service) LogCrisisEvent(ctx context.Context, ev models.CrisisEvent) (string, error) {
	id := uuid.NewString()
	keywords, err := json.Marshal(ev.CrisisKeywords)
	if err != nil {
		keywords = []byte("[]")
	}
	var results interface{}
	if len(ev.NotificationResults) > 0 {
		results = string(ev.NotificationResults)
	}
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}

	_, err = s.db.ExecContext(ctx, s.q(
		`INSERT INTO crisis_events (
			id, interaction_id, user_id, timestamp, crisis_level, crisis_keywords,
			mood_score, emergency_contacts_notified, notification_results, follow_up_required
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		id, ev.InteractionID, ev.UserID, ts, ev.CrisisLevel, string(keywords),
		ev.MoodScore, ev.ContactsNotified, results, ev.FollowUpRequired,
	)
	if err != nil {
		log.Printf("ledger: log crisis event %s: %v", id, err)
		return id, fmt.Errorf("log crisis event: %w", err)
	}
	log.Printf("ledger: CRISIS EVENT LOGGED %s level=%s", id, ev.CrisisLevel)
	return id, nil
}

// LogMetric appends an operational telemetry sample, best-effort.
func (s *Service) LogMetric(ctx context.Context, name string, value float64, unit string, additional map[string]interface{}) {
	var data interface{}
	if len(additional) > 0 {
		if raw, err := json.Marshal(additional); err == nil {
			data = string(raw)
		}
	}
	_, err := s.db.ExecContext(ctx, s.q(
		`INSERT INTO system_metrics (id, timestamp, metric_name, metric_value, metric_unit, additional_data)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		uuid.NewString(), s.now(), name, value, unit, data,
	)
	if err != nil {
		log.Printf("ledger: log metric %s: %v", name, err)
	}
}

// EndSession stamps the session end. Repeated calls simply overwrite it.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, s.q(
		`UPDATE user_sessions SET session_end = ? WHERE id = ?`),
		s.now(), sessionID,
	)
	if err != nil {
		log.Printf("ledger: end session %s: %v", sessionID, err)
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// GetSession fetches one session row.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	var (
		sess models.Session
		end  sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT id, user_id, session_start, session_end, total_interactions,
		        crisis_events, average_mood_score, created_at
		 FROM user_sessions WHERE id = ?`), sessionID,
	).Scan(&sess.ID, &sess.UserID, &sess.SessionStart, &end,
		&sess.TotalInteractions, &sess.CrisisEvents, &sess.AverageMoodScore, &sess.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if end.Valid {
		sess.SessionEnd = &end.Time
	}
	return &sess, nil
}

// CrisisAlerts returns crisis events requiring follow-up joined with their
// triggering interaction's text and location, newest first.
func (s *Service) CrisisAlerts(ctx context.Context, unresolvedOnly bool) ([]models.CrisisAlert, error) {
	query := `SELECT ce.id, ce.interaction_id, ce.user_id, ce.timestamp, ce.crisis_level,
			ce.crisis_keywords, ce.mood_score, ce.emergency_contacts_notified,
			ce.notification_results, ce.follow_up_required, ce.follow_up_completed,
			ce.resolution_status, COALESCE(i.input_text, ''), COALESCE(i.user_location, '')
		FROM crisis_events ce
		LEFT JOIN interactions i ON ce.interaction_id = i.id
		WHERE ce.follow_up_required`
	if unresolvedOnly {
		query += ` AND NOT ce.follow_up_completed`
	}
	query += ` ORDER BY ce.timestamp DESC`

	rows, err := s.db.QueryContext(ctx, s.q(query))
	if err != nil {
		log.Printf("ledger: crisis alerts: %v", err)
		return []models.CrisisAlert{}, fmt.Errorf("crisis alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]models.CrisisAlert, 0)
	for rows.Next() {
		var (
			a          models.CrisisAlert
			keywords   sql.NullString
			results    sql.NullString
			resolution sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.InteractionID, &a.UserID, &a.Timestamp, &a.CrisisLevel,
			&keywords, &a.MoodScore, &a.ContactsNotified, &results,
			&a.FollowUpRequired, &a.FollowUpCompleted, &resolution,
			&a.InputText, &a.UserLocation); err != nil {
			return alerts, fmt.Errorf("scan crisis alert: %w", err)
		}
		if keywords.Valid {
			_ = json.Unmarshal([]byte(keywords.String), &a.CrisisKeywords)
		}
		if results.Valid {
			a.NotificationResults = json.RawMessage(results.String)
		}
		a.ResolutionStatus = resolution.String
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// MarkCrisisResolved completes a follow-up. The transition is one-way; an
// unknown id is a no-op reported through the returned row count.
func (s *Service) MarkCrisisResolved(ctx context.Context, crisisID, status string) (int64, error) {
	if status == "" {
		status = "resolved"
	}
	res, err := s.db.ExecContext(ctx, s.q(
		`UPDATE crisis_events SET follow_up_completed = TRUE, resolution_status = ? WHERE id = ?`),
		status, crisisID,
	)
	if err != nil {
		log.Printf("ledger: mark crisis resolved %s: %v", crisisID, err)
		return 0, fmt.Errorf("mark crisis resolved: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("crisis rows affected: %w", err)
	}
	if affected > 0 {
		log.Printf("ledger: crisis %s marked %s", crisisID, status)
	}
	return affected, nil
}

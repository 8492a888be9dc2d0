package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"mindwell/internal/models"
	"mindwell/internal/streak"
)

const streakCacheTTL = 5 * time.Minute

// StreakInfo is the read-side streak view with lazy decay applied.
type StreakInfo struct {
	UserID          string `json:"user_id"`
	CurrentStreak   int    `json:"current_streak"`
	LongestStreak   int    `json:"longest_streak"`
	TotalCheckins   int    `json:"total_checkins"`
	LastCheckinDate string `json:"last_checkin_date,omitempty"`
	Milestones      []int  `json:"milestones_achieved"`
	NextMilestone   struct {
		Days      int `json:"days"`
		Remaining int `json:"remaining"`
	} `json:"next_milestone"`
	CheckedInToday bool `json:"checked_in_today"`
}

func (s *Service) streakCacheKey(userID, date string) string {
	return "mindwell:streak:" + userID + ":" + date
}

// checkinUpsert renders the driver's insert-or-replace for daily_checkins
// keyed on (user_id, date).
func (s *Service) checkinUpsert() string {
	base := `INSERT INTO daily_checkins (
		id, user_id, date, questions_data, answers_data,
		wellness_score, wellness_category, category_scores, completed_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if strings.ToLower(s.driver) == "mysql" {
		return base + ` ON DUPLICATE KEY UPDATE
			questions_data = VALUES(questions_data),
			answers_data = VALUES(answers_data),
			wellness_score = VALUES(wellness_score),
			wellness_category = VALUES(wellness_category),
			category_scores = VALUES(category_scores),
			completed_at = VALUES(completed_at)`
	}
	return base + ` ON CONFLICT(user_id, date) DO UPDATE SET
		questions_data = excluded.questions_data,
		answers_data = excluded.answers_data,
		wellness_score = excluded.wellness_score,
		wellness_category = excluded.wellness_category,
		category_scores = excluded.category_scores,
		completed_at = excluded.completed_at`
}

func (s *Service) streakUpsert() string {
	base := `INSERT INTO user_streaks (
		user_id, current_streak, longest_streak, last_checkin_date,
		total_checkins, streak_milestones, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?)`
	if strings.ToLower(s.driver) == "mysql" {
		return base + ` ON DUPLICATE KEY UPDATE
			current_streak = VALUES(current_streak),
			longest_streak = VALUES(longest_streak),
			last_checkin_date = VALUES(last_checkin_date),
			total_checkins = VALUES(total_checkins),
			streak_milestones = VALUES(streak_milestones),
			updated_at = VALUES(updated_at)`
	}
	return base + ` ON CONFLICT(user_id) DO UPDATE SET
		current_streak = excluded.current_streak,
		longest_streak = excluded.longest_streak,
		last_checkin_date = excluded.last_checkin_date,
		total_checkins = excluded.total_checkins,
		streak_milestones = excluded.streak_milestones,
		updated_at = excluded.updated_at`
}

// SaveDailyCheckin persists one check-in and advances the user's streak in a
// single transaction. A repeat submission on the same date replaces the
// earlier record. The streak state after the write is returned so callers can
// surface new milestones.
func (s *Service) SaveDailyCheckin(ctx context.Context, rec models.DailyCheckin) (streak.State, error) {
	if rec.Date == "" {
		rec.Date = s.now().Format(streak.DateLayout)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	completedAt := rec.CompletedAt
	if completedAt.IsZero() {
		completedAt = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return streak.State{}, fmt.Errorf("begin checkin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.q(s.checkinUpsert()),
		rec.ID, rec.UserID, rec.Date,
		rawOrNil(rec.QuestionsData), rawOrNil(rec.AnswersData),
		rec.WellnessScore, rec.WellnessCategory, rawOrNil(rec.CategoryScores),
		completedAt,
	)
	if err != nil {
		log.Printf("ledger: save checkin %s/%s: %v", rec.UserID, rec.Date, err)
		return streak.State{}, fmt.Errorf("save checkin: %w", err)
	}

	prev, err := s.readStreakTx(ctx, tx, rec.UserID)
	if err != nil {
		return streak.State{}, err
	}
	next, err := streak.Advance(prev, rec.Date, !s.skipSameDayCount)
	if err != nil {
		return streak.State{}, err
	}

	milestones, err := json.Marshal(next.Milestones)
	if err != nil {
		milestones = []byte("[]")
	}
	_, err = tx.ExecContext(ctx, s.q(s.streakUpsert()),
		rec.UserID, next.CurrentStreak, next.LongestStreak, next.LastCheckinDate,
		next.TotalCheckins, string(milestones), s.now(),
	)
	if err != nil {
		log.Printf("ledger: save streak %s: %v", rec.UserID, err)
		return streak.State{}, fmt.Errorf("save streak: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return streak.State{}, fmt.Errorf("commit checkin tx: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, s.streakCacheKey(rec.UserID, rec.Date)); err != nil {
			log.Printf("ledger: invalidate streak cache %s: %v", rec.UserID, err)
		}
	}
	return next, nil
}

func (s *Service) readStreakTx(ctx context.Context, tx *sql.Tx, userID string) (streak.State, error) {
	var (
		st         streak.State
		lastDate   sql.NullString
		milestones sql.NullString
	)
	err := tx.QueryRowContext(ctx, s.q(
		`SELECT current_streak, longest_streak, last_checkin_date, total_checkins, streak_milestones
		 FROM user_streaks WHERE user_id = ?`), userID,
	).Scan(&st.CurrentStreak, &st.LongestStreak, &lastDate, &st.TotalCheckins, &milestones)
	if errors.Is(err, sql.ErrNoRows) {
		return streak.State{}, nil
	}
	if err != nil {
		return streak.State{}, fmt.Errorf("read streak: %w", err)
	}
	st.LastCheckinDate = lastDate.String
	if milestones.Valid {
		_ = json.Unmarshal([]byte(milestones.String), &st.Milestones)
	}
	return st, nil
}

// GetStreakInfo reads the streak view for today. The stored streak is decayed
// at read time when the last check-in is more than a day old; the row itself
// is only corrected by the next write. Results are cached per user per day.
func (s *Service) GetStreakInfo(ctx context.Context, userID string) (StreakInfo, error) {
	today := s.now().Format(streak.DateLayout)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, s.streakCacheKey(userID, today)); err == nil {
			var info StreakInfo
			if json.Unmarshal([]byte(cached), &info) == nil {
				return info, nil
			}
		}
	}

	var (
		st         streak.State
		lastDate   sql.NullString
		milestones sql.NullString
	)
	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT current_streak, longest_streak, last_checkin_date, total_checkins, streak_milestones
		 FROM user_streaks WHERE user_id = ?`), userID,
	).Scan(&st.CurrentStreak, &st.LongestStreak, &lastDate, &st.TotalCheckins, &milestones)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Printf("ledger: streak info %s: %v", userID, err)
		return StreakInfo{}, fmt.Errorf("streak info: %w", err)
	}
	st.LastCheckinDate = lastDate.String
	if milestones.Valid {
		_ = json.Unmarshal([]byte(milestones.String), &st.Milestones)
	}

	info := StreakInfo{
		UserID:          userID,
		CurrentStreak:   streak.Reported(st, today),
		LongestStreak:   st.LongestStreak,
		TotalCheckins:   st.TotalCheckins,
		LastCheckinDate: st.LastCheckinDate,
		Milestones:      st.Milestones,
		CheckedInToday:  st.LastCheckinDate == today,
	}
	if info.Milestones == nil {
		info.Milestones = []int{}
	}
	info.NextMilestone.Days, info.NextMilestone.Remaining = streak.NextMilestone(info.CurrentStreak)

	if s.cache != nil {
		if data, err := json.Marshal(info); err == nil {
			if err := s.cache.Set(ctx, s.streakCacheKey(userID, today), string(data), streakCacheTTL); err != nil {
				log.Printf("ledger: cache streak info %s: %v", userID, err)
			}
		}
	}
	return info, nil
}

// DailyScores returns the user's check-in scores from the last `days`
// calendar days, newest first.
func (s *Service) DailyScores(ctx context.Context, userID string, days int) ([]models.DailyScore, error) {
	if days <= 0 {
		days = 30
	}
	start := s.now().AddDate(0, 0, -days).Format(streak.DateLayout)
	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT date, wellness_score, wellness_category, category_scores
		 FROM daily_checkins WHERE user_id = ? AND date >= ?
		 ORDER BY date DESC`), userID, start)
	if err != nil {
		log.Printf("ledger: daily scores %s: %v", userID, err)
		return nil, fmt.Errorf("daily scores: %w", err)
	}
	defer rows.Close()

	scores := make([]models.DailyScore, 0, days)
	for rows.Next() {
		var (
			sc       models.DailyScore
			category sql.NullString
		)
		if err := rows.Scan(&sc.Date, &sc.OverallScore, &sc.WellnessCategory, &category); err != nil {
			return scores, fmt.Errorf("scan daily score: %w", err)
		}
		sc.CategoryScores = make(map[string]float64)
		if category.Valid {
			_ = json.Unmarshal([]byte(category.String), &sc.CategoryScores)
		}
		scores = append(scores, sc)
	}
	return scores, rows.Err()
}

// GetDailyCheckin fetches one check-in by user and date.
func (s *Service) GetDailyCheckin(ctx context.Context, userID, date string) (*models.DailyCheckin, error) {
	var (
		rec       models.DailyCheckin
		questions sql.NullString
		answers   sql.NullString
		category  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT id, user_id, date, questions_data, answers_data,
		        wellness_score, wellness_category, category_scores, completed_at
		 FROM daily_checkins WHERE user_id = ? AND date = ?`), userID, date,
	).Scan(&rec.ID, &rec.UserID, &rec.Date, &questions, &answers,
		&rec.WellnessScore, &rec.WellnessCategory, &category, &rec.CompletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get checkin: %w", err)
	}
	if questions.Valid {
		rec.QuestionsData = json.RawMessage(questions.String)
	}
	if answers.Valid {
		rec.AnswersData = json.RawMessage(answers.String)
	}
	if category.Valid {
		rec.CategoryScores = json.RawMessage(category.String)
	}
	return &rec, nil
}

func rawOrNil(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

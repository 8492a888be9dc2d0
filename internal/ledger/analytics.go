package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Summary is the service-wide analytics window.
type Summary struct {
	PeriodDays        int            `json:"period_days"`
	TotalInteractions int            `json:"total_interactions"`
	TotalCrisisEvents int            `json:"total_crisis_events"`
	CrisisRate        float64        `json:"crisis_rate"`
	AverageMoodScore  float64        `json:"average_mood_score"`
	UniqueUsers       int            `json:"unique_users"`
	CrisisBreakdown   map[string]int `json:"crisis_breakdown"`
	DailyInteractions map[string]int `json:"daily_interactions"`
	GeneratedAt       time.Time      `json:"generated_at"`
}

// ActiveHour is one entry of a user's most-active-hours ranking.
type ActiveHour struct {
	Hour         string `json:"hour"`
	Interactions int    `json:"interactions"`
}

// UserAnalytics is the per-user analytics window with derived insights.
type UserAnalytics struct {
	UserID        string `json:"user_id"`
	PeriodDays    int    `json:"period_days"`
	PersonalStats struct {
		TotalInteractions int     `json:"total_interactions"`
		CrisisEvents      int     `json:"crisis_events"`
		CrisisRate        float64 `json:"crisis_rate"`
		AverageMoodScore  float64 `json:"average_mood_score"`
		SessionCount      int     `json:"session_count"`
		MoodImprovement   float64 `json:"mood_improvement"`
	} `json:"personal_stats"`
	Trends struct {
		DailyMoodTrend  map[string]float64 `json:"daily_mood_trend"`
		DailyActivity   map[string]int     `json:"daily_activity"`
		CrisisBreakdown map[string]int     `json:"crisis_breakdown"`
		MostActiveHours []ActiveHour       `json:"most_active_hours"`
	} `json:"trends"`
	Insights struct {
		MoodTrending    string `json:"mood_trending"`
		ActivityLevel   string `json:"activity_level"`
		CrisisFrequency string `json:"crisis_frequency"`
	} `json:"insights"`
	GeneratedAt time.Time `json:"generated_at"`
}

// dateExpr renders the driver's calendar-date projection of a timestamp column.
func (s *Service) dateExpr(col string) string {
	switch strings.ToLower(s.driver) {
	case "postgres":
		return fmt.Sprintf("to_char(%s, 'YYYY-MM-DD')", col)
	case "mysql":
		return fmt.Sprintf("DATE_FORMAT(%s, '%%Y-%%m-%%d')", col)
	default:
		return fmt.Sprintf("DATE(%s)", col)
	}
}

// hourExpr renders the driver's two-digit-hour projection of a timestamp column.
func (s *Service) hourExpr(col string) string {
	switch strings.ToLower(s.driver) {
	case "postgres":
		return fmt.Sprintf("to_char(%s, 'HH24')", col)
	case "mysql":
		return fmt.Sprintf("DATE_FORMAT(%s, '%%H')", col)
	default:
		return fmt.Sprintf("strftime('%%H', %s)", col)
	}
}

// AnalyticsSummary aggregates the last `days` of interactions and crisis
// events. Failures produce an empty summary rather than an aborted request.
func (s *Service) AnalyticsSummary(ctx context.Context, days int) (Summary, error) {
	if days <= 0 {
		days = 7
	}
	summary := Summary{
		PeriodDays:        days,
		CrisisBreakdown:   make(map[string]int),
		DailyInteractions: make(map[string]int),
		GeneratedAt:       s.now(),
	}
	start := s.now().AddDate(0, 0, -days)

	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT COUNT(*), COALESCE(AVG(mood_score), 0), COUNT(DISTINCT user_id)
		 FROM interactions WHERE timestamp >= ?`), start,
	).Scan(&summary.TotalInteractions, &summary.AverageMoodScore, &summary.UniqueUsers)
	if err != nil {
		log.Printf("ledger: analytics summary: %v", err)
		return summary, fmt.Errorf("analytics summary: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, s.q(
		`SELECT COUNT(*) FROM crisis_events WHERE timestamp >= ?`), start,
	).Scan(&summary.TotalCrisisEvents); err != nil {
		log.Printf("ledger: crisis count: %v", err)
		return summary, fmt.Errorf("crisis count: %w", err)
	}

	if summary.TotalInteractions > 0 {
		summary.CrisisRate = float64(summary.TotalCrisisEvents) / float64(summary.TotalInteractions) * 100
	}
	summary.AverageMoodScore = round3(summary.AverageMoodScore)

	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT crisis_level, COUNT(*) FROM crisis_events WHERE timestamp >= ? GROUP BY crisis_level`), start)
	if err != nil {
		return summary, fmt.Errorf("crisis breakdown: %w", err)
	}
	for rows.Next() {
		var level string
		var count int
		if err := rows.Scan(&level, &count); err != nil {
			rows.Close()
			return summary, fmt.Errorf("scan crisis breakdown: %w", err)
		}
		summary.CrisisBreakdown[level] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return summary, err
	}

	rows, err = s.db.QueryContext(ctx, s.q(fmt.Sprintf(
		`SELECT %s AS day, COUNT(*) FROM interactions WHERE timestamp >= ? GROUP BY day ORDER BY day`,
		s.dateExpr("timestamp"))), start)
	if err != nil {
		return summary, fmt.Errorf("daily interactions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var day string
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			return summary, fmt.Errorf("scan daily interactions: %w", err)
		}
		summary.DailyInteractions[day] = count
	}
	return summary, rows.Err()
}

// UserAnalytics aggregates one user's window: counters, daily trends, the
// most active hours and a mood-improvement delta comparing the first and last
// three daily averages inside the window.
func (s *Service) UserAnalytics(ctx context.Context, userID string, days int) (UserAnalytics, error) {
	if days <= 0 {
		days = 7
	}
	ua := UserAnalytics{UserID: userID, PeriodDays: days, GeneratedAt: s.now()}
	ua.Trends.DailyMoodTrend = make(map[string]float64)
	ua.Trends.DailyActivity = make(map[string]int)
	ua.Trends.CrisisBreakdown = make(map[string]int)
	ua.Trends.MostActiveHours = make([]ActiveHour, 0, 3)
	start := s.now().AddDate(0, 0, -days)

	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT COUNT(*), COALESCE(AVG(mood_score), 0), COUNT(DISTINCT session_id)
		 FROM interactions WHERE user_id = ? AND timestamp >= ?`), userID, start,
	).Scan(&ua.PersonalStats.TotalInteractions, &ua.PersonalStats.AverageMoodScore, &ua.PersonalStats.SessionCount)
	if err != nil {
		log.Printf("ledger: user analytics %s: %v", userID, err)
		return ua, fmt.Errorf("user analytics: %w", err)
	}
	ua.PersonalStats.AverageMoodScore = round3(ua.PersonalStats.AverageMoodScore)

	if err := s.db.QueryRowContext(ctx, s.q(
		`SELECT COUNT(*) FROM crisis_events WHERE user_id = ? AND timestamp >= ?`), userID, start,
	).Scan(&ua.PersonalStats.CrisisEvents); err != nil {
		return ua, fmt.Errorf("user crisis count: %w", err)
	}
	if ua.PersonalStats.TotalInteractions > 0 {
		ua.PersonalStats.CrisisRate = float64(ua.PersonalStats.CrisisEvents) /
			float64(ua.PersonalStats.TotalInteractions) * 100
	}

	// Ordered daily mood averages; the order matters for the improvement delta.
	rows, err := s.db.QueryContext(ctx, s.q(fmt.Sprintf(
		`SELECT %s AS day, AVG(mood_score) FROM interactions
		 WHERE user_id = ? AND timestamp >= ? GROUP BY day ORDER BY day`,
		s.dateExpr("timestamp"))), userID, start)
	if err != nil {
		return ua, fmt.Errorf("mood trend: %w", err)
	}
	var moodByDay []float64
	for rows.Next() {
		var day string
		var avg float64
		if err := rows.Scan(&day, &avg); err != nil {
			rows.Close()
			return ua, fmt.Errorf("scan mood trend: %w", err)
		}
		ua.Trends.DailyMoodTrend[day] = round3(avg)
		moodByDay = append(moodByDay, avg)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return ua, err
	}

	rows, err = s.db.QueryContext(ctx, s.q(fmt.Sprintf(
		`SELECT %s AS day, COUNT(*) FROM interactions
		 WHERE user_id = ? AND timestamp >= ? GROUP BY day ORDER BY day`,
		s.dateExpr("timestamp"))), userID, start)
	if err != nil {
		return ua, fmt.Errorf("daily activity: %w", err)
	}
	for rows.Next() {
		var day string
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			rows.Close()
			return ua, fmt.Errorf("scan daily activity: %w", err)
		}
		ua.Trends.DailyActivity[day] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return ua, err
	}

	rows, err = s.db.QueryContext(ctx, s.q(
		`SELECT crisis_level, COUNT(*) FROM crisis_events
		 WHERE user_id = ? AND timestamp >= ? GROUP BY crisis_level`), userID, start)
	if err != nil {
		return ua, fmt.Errorf("user crisis breakdown: %w", err)
	}
	for rows.Next() {
		var level string
		var count int
		if err := rows.Scan(&level, &count); err != nil {
			rows.Close()
			return ua, fmt.Errorf("scan user crisis breakdown: %w", err)
		}
		ua.Trends.CrisisBreakdown[level] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return ua, err
	}

	rows, err = s.db.QueryContext(ctx, s.q(fmt.Sprintf(
		`SELECT %s AS hour, COUNT(*) AS cnt FROM interactions
		 WHERE user_id = ? AND timestamp >= ? GROUP BY hour ORDER BY cnt DESC LIMIT 3`,
		s.hourExpr("timestamp"))), userID, start)
	if err != nil {
		return ua, fmt.Errorf("active hours: %w", err)
	}
	for rows.Next() {
		var hour string
		var count int
		if err := rows.Scan(&hour, &count); err != nil {
			rows.Close()
			return ua, fmt.Errorf("scan active hours: %w", err)
		}
		if h, err := strconv.Atoi(hour); err == nil {
			hour = fmt.Sprintf("%02d:00", h)
		}
		ua.Trends.MostActiveHours = append(ua.Trends.MostActiveHours, ActiveHour{Hour: hour, Interactions: count})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return ua, err
	}

	if len(moodByDay) >= 2 {
		ua.PersonalStats.MoodImprovement = round3(tailAvg(moodByDay) - headAvg(moodByDay))
	}

	switch {
	case ua.PersonalStats.MoodImprovement > 0.1:
		ua.Insights.MoodTrending = "improving"
	case ua.PersonalStats.MoodImprovement < -0.1:
		ua.Insights.MoodTrending = "declining"
	default:
		ua.Insights.MoodTrending = "stable"
	}
	switch {
	case ua.PersonalStats.TotalInteractions > days*2:
		ua.Insights.ActivityLevel = "high"
	case ua.PersonalStats.TotalInteractions > days:
		ua.Insights.ActivityLevel = "moderate"
	default:
		ua.Insights.ActivityLevel = "low"
	}
	switch {
	case float64(ua.PersonalStats.CrisisEvents) > float64(days)*0.3:
		ua.Insights.CrisisFrequency = "concerning"
	case ua.PersonalStats.CrisisEvents > 0:
		ua.Insights.CrisisFrequency = "moderate"
	default:
		ua.Insights.CrisisFrequency = "none"
	}
	return ua, nil
}

// ExportAnalytics writes the 30-day summary and the full alert queue to a
// JSON file, returning the path.
func (s *Service) ExportAnalytics(ctx context.Context, outputFile string) (string, error) {
	if outputFile == "" {
		outputFile = fmt.Sprintf("analytics_export_%s.json", s.now().Format("20060102_150405"))
	}

	summary, err := s.AnalyticsSummary(ctx, 30)
	if err != nil {
		return "", err
	}
	alerts, err := s.CrisisAlerts(ctx, false)
	if err != nil {
		return "", err
	}

	payload := map[string]interface{}{
		"export_timestamp":  s.now(),
		"analytics_summary": summary,
		"crisis_alerts":     alerts,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal export: %w", err)
	}
	if err := os.WriteFile(outputFile, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	log.Printf("ledger: analytics exported to %s", outputFile)
	return outputFile, nil
}

// headAvg averages the first three samples (fewer if the series is short).
func headAvg(v []float64) float64 {
	n := len(v)
	if n > 3 {
		n = 3
	}
	var sum float64
	for _, x := range v[:n] {
		sum += x
	}
	return sum / float64(n)
}

// tailAvg averages the last three samples.
func tailAvg(v []float64) float64 {
	n := len(v)
	start := 0
	if n > 3 {
		start = n - 3
	}
	var sum float64
	for _, x := range v[start:] {
		sum += x
	}
	return sum / float64(n-start)
}

func round3(v float64) float64 {
	return float64(int64(v*1000+sign(v)*0.5)) / 1000
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

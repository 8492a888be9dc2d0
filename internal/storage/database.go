package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"mindwell/internal/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the configured database for the given driver type.
func Open(dbType string, cfg *config.Config) (*sql.DB, error) {
	dbCfg, ok := cfg.Databases[dbType]
	if !ok {
		return nil, fmt.Errorf("database config for %s not found", dbType)
	}

	var (
		db  *sql.DB
		err error
	)

	switch strings.ToLower(dbType) {
	case "sqlite", "sqlite3":
		if dbCfg.DSN == "" {
			return nil, fmt.Errorf("sqlite dsn must be provided")
		}
		db, err = sql.Open("sqlite3", dbCfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			dbCfg.Username,
			dbCfg.Password,
			dbCfg.Host,
			dbCfg.Port,
			dbCfg.DBName,
			dbCfg.Params,
		)
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql database: %w", err)
		}
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s %s",
			dbCfg.Host,
			dbCfg.Port,
			dbCfg.Username,
			dbCfg.Password,
			dbCfg.DBName,
			dbCfg.Params,
		)
		db, err = sql.Open("postgres", strings.TrimSpace(dsn))
		if err != nil {
			return nil, fmt.Errorf("open postgres database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", dbType)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Rebind converts ?-style placeholders to the driver's native form. Only
// postgres needs rewriting; sqlite and mysql take ? as-is.
func Rebind(driver, query string) string {
	if strings.ToLower(driver) != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Migrate ensures the required tables are present.
func Migrate(db *sql.DB, driver string) error {
	var stmts []string
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS user_sessions (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				session_start DATETIME NOT NULL,
				session_end DATETIME,
				total_interactions INTEGER NOT NULL DEFAULT 0,
				crisis_events INTEGER NOT NULL DEFAULT 0,
				average_mood_score REAL NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS interactions (
				id TEXT PRIMARY KEY,
				session_id TEXT NOT NULL,
				user_id TEXT NOT NULL,
				timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				input_text TEXT NOT NULL,
				input_type TEXT NOT NULL DEFAULT 'text',
				mood_score REAL NOT NULL DEFAULT 0,
				mood_label TEXT NOT NULL DEFAULT '',
				is_crisis BOOLEAN NOT NULL DEFAULT FALSE,
				crisis_level TEXT NOT NULL DEFAULT 'none',
				crisis_keywords TEXT,
				response_type TEXT NOT NULL DEFAULT 'standard',
				processing_time_ms INTEGER NOT NULL DEFAULT 0,
				user_location TEXT NOT NULL DEFAULT 'unknown'
			)`,
			`CREATE TABLE IF NOT EXISTS crisis_events (
				id TEXT PRIMARY KEY,
				interaction_id TEXT NOT NULL,
				user_id TEXT NOT NULL,
				timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				crisis_level TEXT NOT NULL,
				crisis_keywords TEXT,
				mood_score REAL NOT NULL DEFAULT 0,
				emergency_contacts_notified BOOLEAN NOT NULL DEFAULT FALSE,
				notification_results TEXT,
				follow_up_required BOOLEAN NOT NULL DEFAULT FALSE,
				follow_up_completed BOOLEAN NOT NULL DEFAULT FALSE,
				resolution_status TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS system_metrics (
				id TEXT PRIMARY KEY,
				timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				metric_name TEXT NOT NULL,
				metric_value REAL NOT NULL,
				metric_unit TEXT NOT NULL DEFAULT '',
				additional_data TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS daily_checkins (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				date TEXT NOT NULL,
				questions_data TEXT,
				answers_data TEXT,
				wellness_score REAL NOT NULL DEFAULT 0,
				wellness_category TEXT NOT NULL DEFAULT '',
				category_scores TEXT,
				completed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE(user_id, date)
			)`,
			`CREATE TABLE IF NOT EXISTS user_streaks (
				user_id TEXT PRIMARY KEY,
				current_streak INTEGER NOT NULL DEFAULT 0,
				longest_streak INTEGER NOT NULL DEFAULT 0,
				last_checkin_date TEXT,
				total_checkins INTEGER NOT NULL DEFAULT 0,
				streak_milestones TEXT,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS operators (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				username TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				created_at DATETIME NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS operator_tokens (
				token TEXT PRIMARY KEY,
				operator_id INTEGER NOT NULL,
				created_at DATETIME NOT NULL,
				expires_at DATETIME NOT NULL,
				FOREIGN KEY(operator_id) REFERENCES operators(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_interactions_session ON interactions(session_id)`,
			`CREATE INDEX IF NOT EXISTS idx_interactions_user_time ON interactions(user_id, timestamp)`,
			`CREATE INDEX IF NOT EXISTS idx_crisis_events_user_time ON crisis_events(user_id, timestamp)`,
			`CREATE INDEX IF NOT EXISTS idx_crisis_events_follow_up ON crisis_events(follow_up_required, follow_up_completed)`,
			`CREATE INDEX IF NOT EXISTS idx_daily_checkins_user_date ON daily_checkins(user_id, date)`,
		}
	case "mysql":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS user_sessions (
				id VARCHAR(36) PRIMARY KEY,
				user_id VARCHAR(191) NOT NULL,
				session_start DATETIME NOT NULL,
				session_end DATETIME NULL,
				total_interactions INT NOT NULL DEFAULT 0,
				crisis_events INT NOT NULL DEFAULT 0,
				average_mood_score DOUBLE NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS interactions (
				id VARCHAR(36) PRIMARY KEY,
				session_id VARCHAR(36) NOT NULL,
				user_id VARCHAR(191) NOT NULL,
				timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				input_text TEXT NOT NULL,
				input_type VARCHAR(16) NOT NULL DEFAULT 'text',
				mood_score DOUBLE NOT NULL DEFAULT 0,
				mood_label VARCHAR(16) NOT NULL DEFAULT '',
				is_crisis BOOLEAN NOT NULL DEFAULT FALSE,
				crisis_level VARCHAR(16) NOT NULL DEFAULT 'none',
				crisis_keywords TEXT,
				response_type VARCHAR(32) NOT NULL DEFAULT 'standard',
				processing_time_ms BIGINT NOT NULL DEFAULT 0,
				user_location VARCHAR(64) NOT NULL DEFAULT 'unknown',
				INDEX idx_interactions_session (session_id),
				INDEX idx_interactions_user_time (user_id, timestamp)
			)`,
			`CREATE TABLE IF NOT EXISTS crisis_events (
				id VARCHAR(36) PRIMARY KEY,
				interaction_id VARCHAR(36) NOT NULL,
				user_id VARCHAR(191) NOT NULL,
				timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				crisis_level VARCHAR(16) NOT NULL,
				crisis_keywords TEXT,
				mood_score DOUBLE NOT NULL DEFAULT 0,
				emergency_contacts_notified BOOLEAN NOT NULL DEFAULT FALSE,
				notification_results TEXT,
				follow_up_required BOOLEAN NOT NULL DEFAULT FALSE,
				follow_up_completed BOOLEAN NOT NULL DEFAULT FALSE,
				resolution_status VARCHAR(32) NULL,
				INDEX idx_crisis_events_user_time (user_id, timestamp),
				INDEX idx_crisis_events_follow_up (follow_up_required, follow_up_completed)
			)`,
			`CREATE TABLE IF NOT EXISTS system_metrics (
				id VARCHAR(36) PRIMARY KEY,
				timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				metric_name VARCHAR(64) NOT NULL,
				metric_value DOUBLE NOT NULL,
				metric_unit VARCHAR(16) NOT NULL DEFAULT '',
				additional_data TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS daily_checkins (
				id VARCHAR(36) PRIMARY KEY,
				user_id VARCHAR(191) NOT NULL,
				date VARCHAR(10) NOT NULL,
				questions_data TEXT,
				answers_data TEXT,
				wellness_score DOUBLE NOT NULL DEFAULT 0,
				wellness_category VARCHAR(16) NOT NULL DEFAULT '',
				category_scores TEXT,
				completed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE KEY uniq_daily_checkins_user_date (user_id, date)
			)`,
			`CREATE TABLE IF NOT EXISTS user_streaks (
				user_id VARCHAR(191) PRIMARY KEY,
				current_streak INT NOT NULL DEFAULT 0,
				longest_streak INT NOT NULL DEFAULT 0,
				last_checkin_date VARCHAR(10) NULL,
				total_checkins INT NOT NULL DEFAULT 0,
				streak_milestones TEXT,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS operators (
				id BIGINT PRIMARY KEY AUTO_INCREMENT,
				username VARCHAR(191) NOT NULL UNIQUE,
				password_hash VARCHAR(64) NOT NULL,
				created_at DATETIME NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS operator_tokens (
				token VARCHAR(64) PRIMARY KEY,
				operator_id BIGINT NOT NULL,
				created_at DATETIME NOT NULL,
				expires_at DATETIME NOT NULL
			)`,
		}
	case "postgres":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS user_sessions (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				session_start TIMESTAMPTZ NOT NULL,
				session_end TIMESTAMPTZ,
				total_interactions INTEGER NOT NULL DEFAULT 0,
				crisis_events INTEGER NOT NULL DEFAULT 0,
				average_mood_score DOUBLE PRECISION NOT NULL DEFAULT 0,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE TABLE IF NOT EXISTS interactions (
				id TEXT PRIMARY KEY,
				session_id TEXT NOT NULL,
				user_id TEXT NOT NULL,
				timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				input_text TEXT NOT NULL,
				input_type TEXT NOT NULL DEFAULT 'text',
				mood_score DOUBLE PRECISION NOT NULL DEFAULT 0,
				mood_label TEXT NOT NULL DEFAULT '',
				is_crisis BOOLEAN NOT NULL DEFAULT FALSE,
				crisis_level TEXT NOT NULL DEFAULT 'none',
				crisis_keywords TEXT,
				response_type TEXT NOT NULL DEFAULT 'standard',
				processing_time_ms BIGINT NOT NULL DEFAULT 0,
				user_location TEXT NOT NULL DEFAULT 'unknown'
			)`,
			`CREATE TABLE IF NOT EXISTS crisis_events (
				id TEXT PRIMARY KEY,
				interaction_id TEXT NOT NULL,
				user_id TEXT NOT NULL,
				timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				crisis_level TEXT NOT NULL,
				crisis_keywords TEXT,
				mood_score DOUBLE PRECISION NOT NULL DEFAULT 0,
				emergency_contacts_notified BOOLEAN NOT NULL DEFAULT FALSE,
				notification_results TEXT,
				follow_up_required BOOLEAN NOT NULL DEFAULT FALSE,
				follow_up_completed BOOLEAN NOT NULL DEFAULT FALSE,
				resolution_status TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS system_metrics (
				id TEXT PRIMARY KEY,
				timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				metric_name TEXT NOT NULL,
				metric_value DOUBLE PRECISION NOT NULL,
				metric_unit TEXT NOT NULL DEFAULT '',
				additional_data TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS daily_checkins (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				date TEXT NOT NULL,
				questions_data TEXT,
				answers_data TEXT,
				wellness_score DOUBLE PRECISION NOT NULL DEFAULT 0,
				wellness_category TEXT NOT NULL DEFAULT '',
				category_scores TEXT,
				completed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE(user_id, date)
			)`,
			`CREATE TABLE IF NOT EXISTS user_streaks (
				user_id TEXT PRIMARY KEY,
				current_streak INTEGER NOT NULL DEFAULT 0,
				longest_streak INTEGER NOT NULL DEFAULT 0,
				last_checkin_date TEXT,
				total_checkins INTEGER NOT NULL DEFAULT 0,
				streak_milestones TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE TABLE IF NOT EXISTS operators (
				id BIGSERIAL PRIMARY KEY,
				username TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS operator_tokens (
				token TEXT PRIMARY KEY,
				operator_id BIGINT NOT NULL REFERENCES operators(id) ON DELETE CASCADE,
				created_at TIMESTAMPTZ NOT NULL,
				expires_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_interactions_session ON interactions(session_id)`,
			`CREATE INDEX IF NOT EXISTS idx_interactions_user_time ON interactions(user_id, timestamp)`,
			`CREATE INDEX IF NOT EXISTS idx_crisis_events_user_time ON crisis_events(user_id, timestamp)`,
			`CREATE INDEX IF NOT EXISTS idx_crisis_events_follow_up ON crisis_events(follow_up_required, follow_up_completed)`,
		}
	default:
		return fmt.Errorf("unsupported driver: %s", driver)
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

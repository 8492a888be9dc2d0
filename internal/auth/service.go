// Package auth manages operator accounts and bearer tokens for the admin
// surface: the crisis follow-up queue, analytics export and system metrics.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"mindwell/internal/models"
	"mindwell/internal/storage"
)

// Service issues, validates, and revokes operator tokens.
type Service struct {
	db         *sql.DB
	driver     string
	tokenTTL   time.Duration
	headerName string
}

// NewService constructs an auth service with the supplied token lifetime.
func NewService(db *sql.DB, driver string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		db:         db,
		driver:     driver,
		tokenTTL:   ttl,
		headerName: "Authorization",
	}
}

func (s *Service) q(query string) string {
	return storage.Rebind(s.driver, query)
}

// Register creates an operator with the supplied credentials.
func (s *Service) Register(ctx context.Context, username, password string) (*models.Operator, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}

	hash := hashPassword(password)
	now := time.Now().UTC()

	var id int64
	if strings.ToLower(s.driver) == "postgres" {
		err := s.db.QueryRowContext(ctx, s.q(
			`INSERT INTO operators (username, password_hash, created_at) VALUES (?, ?, ?) RETURNING id`),
			username, hash, now,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("create operator: %w", err)
		}
	} else {
		res, err := s.db.ExecContext(ctx, s.q(
			`INSERT INTO operators (username, password_hash, created_at) VALUES (?, ?, ?)`),
			username, hash, now,
		)
		if err != nil {
			return nil, fmt.Errorf("create operator: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("operator id: %w", err)
		}
	}
	return &models.Operator{ID: id, Username: username, CreatedAt: now}, nil
}

// Login validates credentials and returns the operator profile.
func (s *Service) Login(ctx context.Context, username, password string) (*models.Operator, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}

	var (
		op   models.Operator
		hash string
	)
	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT id, username, password_hash, created_at FROM operators WHERE username = ?`), username,
	).Scan(&op.ID, &op.Username, &hash, &op.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("invalid credentials")
		}
		return nil, fmt.Errorf("query operator: %w", err)
	}
	if hash != hashPassword(password) {
		return nil, errors.New("invalid credentials")
	}
	return &op, nil
}

// IssueToken mints a new random token for the operator and persists it.
func (s *Service) IssueToken(ctx context.Context, operatorID int64) (string, error) {
	if operatorID <= 0 {
		return "", errors.New("invalid operator id")
	}
	now := time.Now().UTC()
	expiresAt := now.Add(s.tokenTTL)
	for i := 0; i < 5; i++ {
		token, err := generateToken()
		if err != nil {
			return "", err
		}
		_, err = s.db.ExecContext(ctx, s.q(
			`INSERT INTO operator_tokens (token, operator_id, created_at, expires_at) VALUES (?, ?, ?, ?)`),
			token, operatorID, now, expiresAt,
		)
		if err == nil {
			return token, nil
		}
	}
	return "", errors.New("could not issue token")
}

// ValidateToken verifies the token exists and has not expired, returning the
// operator id.
func (s *Service) ValidateToken(ctx context.Context, authToken string) (int64, error) {
	if authToken == "" {
		return 0, errors.New("token required")
	}
	var operatorID int64
	var expires time.Time
	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT operator_id, expires_at FROM operator_tokens WHERE token = ?`), authToken,
	).Scan(&operatorID, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, errors.New("invalid token")
		}
		return 0, fmt.Errorf("lookup token: %w", err)
	}
	if time.Now().UTC().After(expires) {
		_, _ = s.db.ExecContext(ctx, s.q(`DELETE FROM operator_tokens WHERE token = ?`), authToken)
		return 0, errors.New("token expired")
	}
	return operatorID, nil
}

// RevokeToken deletes a single token.
func (s *Service) RevokeToken(ctx context.Context, authToken string) error {
	if authToken == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, s.q(`DELETE FROM operator_tokens WHERE token = ?`), authToken); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// TokenTTL reports the configured token lifetime.
func (s *Service) TokenTTL() time.Duration {
	return s.tokenTTL
}

func hashPassword(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

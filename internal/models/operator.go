package models

import "time"

// Operator is a staff account allowed to read analytics and work the crisis
// follow-up queue.
type Operator struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

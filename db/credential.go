package db

import "time"

// Keys the session credentials are stored under.
const (
	AccessTokenKey  = "auth-token"
	RefreshTokenKey = "refresh-token"
)

// Credential is one stored secret, addressed by a fixed key.
type Credential struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

package models

import (
	"time"

	"github.com/lumina-dashboard/internal/types"
)

// Notification is a transient, auto-expiring user-facing message
type Notification struct {
	ID        uint64         `json:"id"`
	Message   string         `json:"message"`
	Severity  types.Severity `json:"severity"`
	CreatedAt time.Time      `json:"createdAt"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

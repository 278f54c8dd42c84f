package models

import (
	"time"

	"github.com/lumina-dashboard/internal/types"
)

// ChatMessage is one entry of the advisor conversation
type ChatMessage struct {
	ID        string         `json:"id"`
	Role      types.ChatRole `json:"role"`
	Text      string         `json:"text"`
	Timestamp time.Time      `json:"timestamp"`
}

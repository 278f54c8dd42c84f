// Package types provides common type definitions for the dashboard system.
package types

import "strings"

// AssetCategory represents the market segment of a simulated asset
type AssetCategory string

const (
	// CategoryLayer1 represents base-layer chains (BTC, ETH, SOL)
	CategoryLayer1 AssetCategory = "Layer 1"
	// CategoryDeFi represents decentralized finance tokens
	CategoryDeFi AssetCategory = "DeFi"
	// CategoryStablecoin represents fiat-pegged tokens
	CategoryStablecoin AssetCategory = "Stablecoin"
	// CategoryMetaverse represents gaming and metaverse tokens
	CategoryMetaverse AssetCategory = "Metaverse"
)

// CategoryAll is the market filter value that matches every category
const CategoryAll = "All"

// Categories lists the closed set of asset categories in display order
var Categories = []AssetCategory{CategoryLayer1, CategoryDeFi, CategoryStablecoin, CategoryMetaverse}

// Valid reports whether c is one of the closed set of categories
func (c AssetCategory) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory resolves a category name case-insensitively
func ParseCategory(s string) (AssetCategory, bool) {
	for _, known := range Categories {
		if strings.EqualFold(string(known), strings.TrimSpace(s)) {
			return known, true
		}
	}
	return "", false
}

// TransactionType represents the kind of a historical transaction
type TransactionType string

const (
	// TxSend represents an outgoing transfer
	TxSend TransactionType = "send"
	// TxReceive represents an incoming transfer
	TxReceive TransactionType = "receive"
	// TxSwap represents an exchange between two assets
	TxSwap TransactionType = "swap"
	// TxStake represents a staking deposit
	TxStake TransactionType = "stake"
)

// TransactionFilterAll is the history filter value that matches every type
const TransactionFilterAll = "all"

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	switch t {
	case TxSend, TxReceive, TxSwap, TxStake:
		return true
	}
	return false
}

// TransactionStatus represents the settlement state of a transaction
type TransactionStatus string

const (
	// StatusCompleted represents a settled transaction
	StatusCompleted TransactionStatus = "completed"
	// StatusPending represents a transaction awaiting settlement
	StatusPending TransactionStatus = "pending"
	// StatusFailed represents a rejected transaction
	StatusFailed TransactionStatus = "failed"
)

// Valid reports whether s is a known transaction status
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusCompleted, StatusPending, StatusFailed:
		return true
	}
	return false
}

// Severity represents how a notification is presented
type Severity string

const (
	// SeveritySuccess represents positive feedback
	SeveritySuccess Severity = "success"
	// SeverityError represents a failure message
	SeverityError Severity = "error"
)

// ParseSeverity maps a string to a severity, defaulting to success
func ParseSeverity(s string) Severity {
	if Severity(strings.ToLower(strings.TrimSpace(s))) == SeverityError {
		return SeverityError
	}
	return SeveritySuccess
}

// ChatRole represents the author of a chat message
type ChatRole string

const (
	// RoleUser represents a message typed by the user
	RoleUser ChatRole = "user"
	// RoleAI represents a message produced by the advisor
	RoleAI ChatRole = "ai"
)

// QuickAction represents one of the canned advisor requests
type QuickAction string

const (
	// ActionAudit asks for a portfolio risk audit
	ActionAudit QuickAction = "audit"
	// ActionSentiment asks for the general market sentiment
	ActionSentiment QuickAction = "sentiment"
	// ActionPredict asks for historical altcoin behavior
	ActionPredict QuickAction = "predict"
)

// Valid reports whether a is a known quick action
func (a QuickAction) Valid() bool {
	switch a {
	case ActionAudit, ActionSentiment, ActionPredict:
		return true
	}
	return false
}

// ServiceError is the error body returned by the API
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

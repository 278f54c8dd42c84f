package models

import (
	"github.com/lumina-dashboard/internal/types"
)

// Transaction is an immutable historical record shown in the activity log
type Transaction struct {
	ID       string                  `json:"id" yaml:"id"`
	Type     types.TransactionType   `json:"type" yaml:"type"`
	Asset    string                  `json:"asset" yaml:"asset"`
	Amount   float64                 `json:"amount" yaml:"amount"`
	ToAsset  *string                 `json:"toAsset,omitempty" yaml:"toAsset,omitempty"`   // swaps only
	ToAmount *float64                `json:"toAmount,omitempty" yaml:"toAmount,omitempty"` // swaps only
	Status   types.TransactionStatus `json:"status" yaml:"status"`
	Date     string                  `json:"date" yaml:"date"` // opaque display string
}

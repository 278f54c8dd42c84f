// Package ledger holds the static transaction history shown in the activity views.
package ledger

import (
	"strings"

	apperrors "github.com/lumina-dashboard/internal/errors"
	"github.com/lumina-dashboard/internal/models"
	"github.com/lumina-dashboard/internal/types"
)

// Log is an immutable, ordered list of transactions
type Log struct {
	txs []models.Transaction
}

// NewLog copies the seed transactions into a new log
func NewLog(txs []models.Transaction) *Log {
	out := make([]models.Transaction, len(txs))
	for i, tx := range txs {
		out[i] = cloneTx(tx)
	}
	return &Log{txs: out}
}

// All returns every transaction in seed order
func (l *Log) All() []models.Transaction {
	return l.collect(func(models.Transaction) bool { return true })
}

// Filter returns the transactions of one type, or all of them for "all" or an empty filter
func (l *Log) Filter(kind string) ([]models.Transaction, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" || kind == types.TransactionFilterAll {
		return l.All(), nil
	}

	t := types.TransactionType(kind)
	if !t.Valid() {
		return nil, apperrors.NewInvalidParameterError("type", "must be all, send, receive, swap or stake")
	}
	return l.collect(func(tx models.Transaction) bool { return tx.Type == t }), nil
}

// Recent returns at most n transactions from the head of the log
func (l *Log) Recent(n int) []models.Transaction {
	if n < 0 {
		n = 0
	}
	if n > len(l.txs) {
		n = len(l.txs)
	}
	out := make([]models.Transaction, n)
	for i := 0; i < n; i++ {
		out[i] = cloneTx(l.txs[i])
	}
	return out
}

// Len returns the number of transactions
func (l *Log) Len() int {
	return len(l.txs)
}

func (l *Log) collect(keep func(models.Transaction) bool) []models.Transaction {
	out := make([]models.Transaction, 0, len(l.txs))
	for _, tx := range l.txs {
		if keep(tx) {
			out = append(out, cloneTx(tx))
		}
	}
	return out
}

func cloneTx(tx models.Transaction) models.Transaction {
	if tx.ToAsset != nil {
		v := *tx.ToAsset
		tx.ToAsset = &v
	}
	if tx.ToAmount != nil {
		v := *tx.ToAmount
		tx.ToAmount = &v
	}
	return tx
}

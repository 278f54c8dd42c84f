package swap

import (
	"context"
	"fmt"
	"math"
	"time"

	apperrors "github.com/lumina-dashboard/internal/errors"
	"github.com/lumina-dashboard/internal/logging"
	"github.com/lumina-dashboard/internal/types"
	"github.com/shopspring/decimal"
)

// DefaultExecutionDelay is the artificial confirmation latency of a swap
const DefaultExecutionDelay = 1500 * time.Millisecond

// Notifier receives user-facing messages
type Notifier interface {
	Push(message string, severity types.Severity) uint64
}

// Request is a swap the user asked for
type Request struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// Result describes a completed cosmetic swap
type Result struct {
	Quote          Quote     `json:"quote"`
	Message        string    `json:"message"`
	NotificationID uint64    `json:"notificationId"`
	ExecutedAt     time.Time `json:"executedAt"`
}

// ExecutorConfig holds configuration for the swap executor
type ExecutorConfig struct {
	Delay      time.Duration
	Notifier   Notifier
	Logger     *logging.Logger
	OnExecuted func(Result)
}

// Executor runs the simulated swap flow
type Executor struct {
	quoter     *Quoter
	delay      time.Duration
	notifier   Notifier
	logger     *logging.Logger
	onExecuted func(Result)
}

// NewExecutor creates a swap executor
func NewExecutor(quoter *Quoter, cfg ExecutorConfig) *Executor {
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.GetGlobalLogger()
	}
	return &Executor{
		quoter:     quoter,
		delay:      cfg.Delay,
		notifier:   cfg.Notifier,
		logger:     cfg.Logger.WithField("component", "swap"),
		onExecuted: cfg.OnExecuted,
	}
}

// Execute validates the request, waits the confirmation delay and announces
// success. Cancelling ctx during the wait aborts the swap without a notification.
func (e *Executor) Execute(ctx context.Context, req Request) (Result, error) {
	if math.IsNaN(req.Amount) || req.Amount <= 0 {
		return Result{}, apperrors.NewInvalidParameterError("amount", "must be greater than zero")
	}

	quote, err := e.quoter.Quote(req.From, req.To, req.Amount)
	if err != nil {
		return Result{}, err
	}

	if e.delay > 0 {
		timer := time.NewTimer(e.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return Result{}, ctx.Err()
		}
	}

	result := Result{
		Quote:      quote,
		Message:    SuccessMessage(quote),
		ExecutedAt: time.Now(),
	}
	if e.notifier != nil {
		result.NotificationID = e.notifier.Push(result.Message, types.SeveritySuccess)
	}
	if e.onExecuted != nil {
		e.onExecuted(result)
	}

	e.logger.WithFields(map[string]interface{}{
		"from":    quote.From,
		"to":      quote.To,
		"amount":  quote.Amount,
		"receive": quote.ReceiveDisplay,
	}).Info("swap executed")

	return result, nil
}

// SuccessMessage renders the toast shown after a swap
func SuccessMessage(q Quote) string {
	return fmt.Sprintf("Successfully swapped %s %s to %s", decimal.NewFromFloat(q.Amount).String(), q.From, q.To)
}

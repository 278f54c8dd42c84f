package advisor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/lumina-dashboard/internal/errors"
	"github.com/lumina-dashboard/internal/logging"
	"github.com/lumina-dashboard/internal/models"
	"github.com/lumina-dashboard/internal/portfolio"
	"github.com/lumina-dashboard/internal/types"
)

// Greeting opens every chat session
const Greeting = "Hello! I am your Lumina AI Advisor. I have access to your portfolio data. How can I assist you today?"

// Request kinds reported to the observer
const (
	KindChat      = "chat"
	KindAction    = "action"
	KindBrief     = "brief"
	KindAnalysis  = "analysis"
	KindRebalance = "rebalance"
	KindHistory   = "history"
)

// AssetSource provides the current market snapshot
type AssetSource interface {
	Snapshot() []models.Asset
	Asset(idOrSymbol string) (models.Asset, error)
}

// TransactionSource provides the transaction history
type TransactionSource interface {
	Recent(n int) []models.Transaction
}

// ServiceConfig holds configuration for the advisor service
type ServiceConfig struct {
	Gateway      Gateway
	Assets       AssetSource
	Transactions TransactionSource
	Logger       *logging.Logger
	// OnRequest is called after every gateway round trip
	OnRequest func(kind string, outcome Outcome)
}

// Service builds prompts from live data and owns the chat history
type Service struct {
	gateway   Gateway
	assets    AssetSource
	txs       TransactionSource
	logger    *logging.Logger
	onRequest func(kind string, outcome Outcome)

	mu       sync.Mutex
	messages []models.ChatMessage
}

// NewService creates an advisor service with a fresh chat session
func NewService(cfg ServiceConfig) *Service {
	if cfg.Gateway == nil {
		cfg.Gateway = offlineGateway{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.GetGlobalLogger()
	}
	s := &Service{
		gateway:   cfg.Gateway,
		assets:    cfg.Assets,
		txs:       cfg.Transactions,
		logger:    cfg.Logger.WithField("component", "advisor"),
		onRequest: cfg.OnRequest,
	}
	s.messages = []models.ChatMessage{newMessage(types.RoleAI, Greeting)}
	return s
}

// Chat records the user's question, asks the model and records the answer
func (s *Service) Chat(ctx context.Context, text string) (models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, apperrors.NewInvalidParameterError("text", "must not be empty")
	}

	s.append(newMessage(types.RoleUser, text))
	reply := s.ask(ctx, KindChat, ChatPrompt(s.assets.Snapshot(), text))
	return s.append(newMessage(types.RoleAI, reply)), nil
}

// QuickAction runs one of the canned requests as a chat exchange
func (s *Service) QuickAction(ctx context.Context, action types.QuickAction) (models.ChatMessage, error) {
	if !action.Valid() {
		return models.ChatMessage{}, apperrors.NewInvalidParameterError("action", "must be audit, sentiment or predict")
	}

	s.append(newMessage(types.RoleUser, quickActionLabels[action]))
	reply := s.ask(ctx, KindAction, QuickActionPrompt(s.assets.Snapshot(), action))
	return s.append(newMessage(types.RoleAI, reply)), nil
}

// Brief returns a short greeting about the current top holding
func (s *Service) Brief(ctx context.Context) (string, error) {
	assets := s.assets.Snapshot()
	top, err := portfolio.TopAsset(assets)
	if err != nil {
		return "", err
	}
	return s.ask(ctx, KindBrief, BriefPrompt(portfolio.TotalBalance(assets), top)), nil
}

// AnalyzeAsset returns an analyst take on one asset
func (s *Service) AnalyzeAsset(ctx context.Context, idOrSymbol string) (string, error) {
	a, err := s.assets.Asset(idOrSymbol)
	if err != nil {
		return "", err
	}
	return s.ask(ctx, KindAnalysis, AssetAnalysisPrompt(a)), nil
}

// Rebalance returns one suggested rebalancing action
func (s *Service) Rebalance(ctx context.Context) (string, error) {
	summary, err := portfolio.Summarize(s.assets.Snapshot())
	if err != nil {
		return "", err
	}
	return s.ask(ctx, KindRebalance, RebalancePrompt(summary)), nil
}

// AnalyzeHistory returns a trading-style observation over recent transactions
func (s *Service) AnalyzeHistory(ctx context.Context) string {
	var txs []models.Transaction
	if s.txs != nil {
		txs = s.txs.Recent(historyWindow)
	}
	return s.ask(ctx, KindHistory, HistoryPrompt(txs))
}

// Messages returns the chat history, oldest first
func (s *Service) Messages() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Clear resets the chat to the greeting
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = []models.ChatMessage{newMessage(types.RoleAI, Greeting)}
}

// ask holds no lock while the gateway call is in flight
func (s *Service) ask(ctx context.Context, kind, prompt string) string {
	start := time.Now()
	reply := s.gateway.Generate(ctx, prompt)
	outcome := OutcomeOf(reply)

	s.logger.WithFields(map[string]interface{}{
		"kind":     kind,
		"outcome":  outcome,
		"duration": time.Since(start).String(),
	}).Info("advisor request completed")

	if s.onRequest != nil {
		s.onRequest(kind, outcome)
	}
	return reply
}

func (s *Service) append(m models.ChatMessage) models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
	return m
}

func newMessage(role types.ChatRole, text string) models.ChatMessage {
	return models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// Package dashboard wires every component of one dashboard session and owns
// the lifetime of its background loops.
package dashboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/lumina-dashboard/internal/advisor"
	"github.com/lumina-dashboard/internal/circuitbreaker"
	"github.com/lumina-dashboard/internal/config"
	"github.com/lumina-dashboard/internal/ledger"
	"github.com/lumina-dashboard/internal/logging"
	"github.com/lumina-dashboard/internal/market"
	"github.com/lumina-dashboard/internal/metrics"
	"github.com/lumina-dashboard/internal/models"
	"github.com/lumina-dashboard/internal/notify"
	"github.com/lumina-dashboard/internal/seed"
	"github.com/lumina-dashboard/internal/swap"
	"github.com/lumina-dashboard/internal/types"
	"github.com/lumina-dashboard/internal/wallet"
)

// Toast messages for one-click actions
const (
	MessageCopied         = "Copied!"
	MessageRewardsClaimed = "Rewards Claimed!"
)

// Options configures a session. Zero-valued fields get production defaults.
type Options struct {
	Config  *config.Config
	Seed    *seed.Data
	Random  market.RandomSource
	Clock   notify.Clock
	Gateway advisor.Gateway
	Metrics *metrics.Registry
	Logger  *logging.Logger
}

// Session owns the store, the simulator and every service built on them
type Session struct {
	Store         *market.Store
	Simulator     *market.Simulator
	Notifications *notify.Queue
	Ledger        *ledger.Log
	Quoter        *swap.Quoter
	Swaps         *swap.Executor
	Advisor       *advisor.Service
	Wallet        *wallet.Wallet
	Metrics       *metrics.Registry
	Gateway       advisor.Gateway

	notifier swap.Notifier
	logger   *logging.Logger

	mu            sync.Mutex
	started       bool
	stopped       bool
	cancel        context.CancelFunc
	schedulerDone chan struct{}
}

// New builds a session from configuration and seed data
func New(ctx context.Context, opts Options) (*Session, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	cfg := opts.Config

	if opts.Logger == nil {
		opts.Logger = logging.GetGlobalLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewRegistry()
	}
	if opts.Seed == nil {
		data, err := seed.Load(cfg.Seed.File)
		if err != nil {
			return nil, err
		}
		opts.Seed = data
	}
	if opts.Gateway == nil {
		breaker := circuitbreaker.NewCircuitBreaker(&circuitbreaker.Config{
			Name:        "gemini",
			MaxFailures: cfg.Advisor.BreakerMaxFailures,
			Timeout:     cfg.Advisor.BreakerTimeout,
		})
		gw, err := advisor.NewGateway(ctx, advisor.GeminiConfig{
			APIKey:  cfg.Advisor.APIKey,
			Model:   cfg.Advisor.Model,
			Timeout: cfg.Advisor.Timeout,
			Breaker: breaker,
			Logger:  opts.Logger,
		})
		if err != nil {
			return nil, err
		}
		opts.Gateway = gw
	}

	reg := opts.Metrics
	store := market.NewStore(opts.Seed.Assets, cfg.Simulator.GasSeed)

	sim := market.NewSimulator(store, market.SimulatorConfig{
		Interval: cfg.Simulator.TickInterval,
		GasMin:   cfg.Simulator.GasMin,
		GasMax:   cfg.Simulator.GasMax,
		Random:   opts.Random,
		Logger:   opts.Logger,
	})
	sim.AddListener(reg)

	queue := notify.NewQueue(notify.Config{
		TTL:    cfg.Notifications.TTL,
		Clock:  opts.Clock,
		Logger: opts.Logger,
	})
	notifier := &meteredNotifier{queue: queue, metrics: reg}
	queue.OnRemoved(func(_ models.Notification, reason notify.RemovalReason) {
		reg.NotificationRemoved(string(reason), queue.Len())
	})

	txLog := ledger.NewLog(opts.Seed.Transactions)
	quoter := swap.NewQuoter(store)

	s := &Session{
		Store:         store,
		Simulator:     sim,
		Notifications: queue,
		Ledger:        txLog,
		Quoter:        quoter,
		Swaps: swap.NewExecutor(quoter, swap.ExecutorConfig{
			Delay:    cfg.Swap.ExecutionDelay,
			Notifier: notifier,
			Logger:   opts.Logger,
			OnExecuted: func(r swap.Result) {
				reg.SwapExecuted(r.Quote.From, r.Quote.To)
			},
		}),
		Advisor: advisor.NewService(advisor.ServiceConfig{
			Gateway:      opts.Gateway,
			Assets:       store,
			Transactions: txLog,
			Logger:       opts.Logger,
			OnRequest: func(kind string, outcome advisor.Outcome) {
				reg.AdvisorRequest(kind, string(outcome))
			},
		}),
		Wallet: wallet.New(wallet.Config{
			ConnectDelay: cfg.Wallet.ConnectDelay,
			Address:      cfg.Wallet.Address,
			Logger:       opts.Logger,
		}),
		Metrics:  reg,
		Gateway:  opts.Gateway,
		notifier: notifier,
		logger:   opts.Logger.WithField("component", "session"),
	}

	// seed the gauges before the first tick
	reg.ObserveMarket(store.State())

	return s, nil
}

// AddTickListener registers another consumer of simulator ticks
func (s *Session) AddTickListener(l market.TickListener) {
	s.Simulator.AddListener(l)
}

// Start launches the simulator and the notification scheduler. A session
// starts at most once.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return fmt.Errorf("session already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := s.Simulator.Start(runCtx); err != nil {
		cancel()
		return fmt.Errorf("failed to start simulator: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Notifications.Run(runCtx)
	}()

	s.started = true
	s.cancel = cancel
	s.schedulerDone = done
	s.logger.Info("Dashboard session started")
	return nil
}

// Stop halts both loops and waits for them. Extra calls are no-ops.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel, done := s.cancel, s.schedulerDone
	s.mu.Unlock()

	s.Simulator.Stop()
	if cancel != nil {
		cancel()
		<-done
	}
	s.logger.Info("Dashboard session stopped")
}

// Notify pushes a notification and records it in metrics
func (s *Session) Notify(message string, severity types.Severity) uint64 {
	return s.notifier.Push(message, severity)
}

// CopyAddress acknowledges the address copy action
func (s *Session) CopyAddress() uint64 {
	return s.Notify(MessageCopied, types.SeveritySuccess)
}

// ClaimRewards acknowledges the staking rewards action
func (s *Session) ClaimRewards() uint64 {
	return s.Notify(MessageRewardsClaimed, types.SeveritySuccess)
}

// meteredNotifier counts pushes on their way into the queue
type meteredNotifier struct {
	queue   *notify.Queue
	metrics *metrics.Registry
}

func (n *meteredNotifier) Push(message string, severity types.Severity) uint64 {
	id := n.queue.Push(message, severity)
	n.metrics.NotificationPushed(n.queue.Len())
	return id
}

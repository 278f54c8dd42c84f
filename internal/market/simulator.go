package market

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/lumina-dashboard/internal/logging"
	"github.com/lumina-dashboard/internal/models"
)

const (
	// DefaultTickInterval is the period between price updates
	DefaultTickInterval = 2 * time.Second
	// DefaultGasMin is the lower bound of the gas signal
	DefaultGasMin = 10
	// DefaultGasMax is the upper bound of the gas signal
	DefaultGasMax = 50
	// DefaultGasSeed is the initial gas signal
	DefaultGasSeed = 15
)

// TickListener receives the complete market snapshot after every tick
type TickListener interface {
	OnTick(ctx context.Context, tick models.MarketTick)
}

// TickListenerFunc adapts a function to TickListener
type TickListenerFunc func(ctx context.Context, tick models.MarketTick)

// OnTick implements TickListener
func (f TickListenerFunc) OnTick(ctx context.Context, tick models.MarketTick) { f(ctx, tick) }

// SimulatorConfig holds configuration for the price simulator
type SimulatorConfig struct {
	Interval time.Duration
	GasMin   int
	GasMax   int
	Random   RandomSource
	Now      func() time.Time
	Logger   *logging.Logger
}

// Simulator periodically perturbs asset prices and the gas signal
type Simulator struct {
	store    *Store
	interval time.Duration
	gasMin   int
	gasMax   int
	random   RandomSource
	now      func() time.Time
	logger   *logging.Logger

	// tickMu serializes ticks so manual and scheduled ticks never overlap
	tickMu    sync.Mutex
	sequence  uint64
	listeners []TickListener

	mu       sync.Mutex
	running  bool
	started  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewSimulator creates a simulator that writes into store
func NewSimulator(store *Store, cfg SimulatorConfig) *Simulator {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultTickInterval
	}
	if cfg.GasMin == 0 && cfg.GasMax == 0 {
		cfg.GasMin, cfg.GasMax = DefaultGasMin, DefaultGasMax
	}
	if cfg.Random == nil {
		cfg.Random = DefaultRandom()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.GetGlobalLogger()
	}

	return &Simulator{
		store:    store,
		interval: cfg.Interval,
		gasMin:   cfg.GasMin,
		gasMax:   cfg.GasMax,
		random:   cfg.Random,
		now:      cfg.Now,
		logger:   cfg.Logger.WithField("component", "simulator"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// AddListener registers a listener; listeners are called in registration order
func (s *Simulator) AddListener(l TickListener) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Interval returns the tick period
func (s *Simulator) Interval() time.Duration {
	return s.interval
}

// Tick applies one simulation step, publishes the new snapshot to the store
// and notifies listeners. It cannot fail.
func (s *Simulator) Tick(ctx context.Context) models.MarketTick {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	assets, gas := s.store.State()
	for i := range assets {
		assets[i] = StepAsset(assets[i], s.random.Float64(), s.random.Float64())
	}
	gas = StepGas(gas, s.random.Float64(), s.gasMin, s.gasMax)

	s.store.replace(assets, gas)
	s.sequence++

	tick := models.MarketTick{
		Sequence: s.sequence,
		At:       s.now(),
		Assets:   models.CloneAssets(assets),
		GasPrice: gas,
	}

	for _, l := range s.listeners {
		s.notify(ctx, l, tick)
	}

	s.logger.WithFields(map[string]interface{}{
		"sequence": tick.Sequence,
		"gas":      tick.GasPrice,
	}).Debug("market tick applied")

	return tick
}

// notify isolates a listener so a panic in it never breaks the tick
func (s *Simulator) notify(ctx context.Context, l TickListener, tick models.MarketTick) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", fmt.Sprint(r)).Error("tick listener panicked")
		}
	}()
	l.OnTick(ctx, tick)
}

// Start begins the recurring tick in a background goroutine
func (s *Simulator) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("simulator is already running")
	}
	if s.started {
		return fmt.Errorf("simulator cannot be restarted")
	}
	select {
	case <-s.stopCh:
		return fmt.Errorf("simulator has been stopped")
	default:
	}

	s.started = true
	s.running = true
	s.logger.Infof("Starting price simulator with interval %v", s.interval)

	go s.loop(ctx)
	return nil
}

// Stop halts the recurring tick and waits for the loop to exit.
// Only the first call has an effect.
func (s *Simulator) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)

		s.mu.Lock()
		running := s.running
		s.mu.Unlock()

		if running {
			<-s.doneCh
			s.logger.Info("Price simulator stopped")
		}
	})
}

// Running reports whether the recurring tick is active
func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Simulator) loop(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		close(s.doneCh)
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// StepAsset applies one tick to a single asset: rPrice moves the price by at
// most ±0.2% and rChange drifts change24h by at most ±0.05. Price is not clamped.
func StepAsset(a models.Asset, rPrice, rChange float64) models.Asset {
	a.Price *= 1 + (rPrice*0.004 - 0.002)
	a.Change24h += rChange*0.1 - 0.05
	return a
}

// StepGas moves the gas signal by an integer in [-2, +2] and clamps it to [min, max]
func StepGas(gas int, r float64, min, max int) int {
	next := gas + int(math.Floor(r*5-2))
	if next < min {
		return min
	}
	if next > max {
		return max
	}
	return next
}

// Package wallet simulates connecting a browser wallet.
package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/lumina-dashboard/internal/logging"
)

const (
	// DefaultConnectDelay is the simulated handshake latency
	DefaultConnectDelay = 1500 * time.Millisecond
	// DefaultAddress is the shortened address shown once connected
	DefaultAddress = "0x71...9A21"
)

// State is a point-in-time view of the wallet
type State struct {
	Connected  bool   `json:"connected"`
	Connecting bool   `json:"connecting"`
	Address    string `json:"address,omitempty"`
}

// Config holds configuration for the simulated wallet
type Config struct {
	ConnectDelay time.Duration
	Address      string
	Logger       *logging.Logger
}

// Wallet is a simulated wallet connection
type Wallet struct {
	delay   time.Duration
	address string
	logger  *logging.Logger

	mu         sync.Mutex
	connected  bool
	connecting chan struct{} // non-nil while a handshake is in flight
}

// New creates a disconnected wallet
func New(cfg Config) *Wallet {
	if cfg.ConnectDelay < 0 {
		cfg.ConnectDelay = 0
	}
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.GetGlobalLogger()
	}
	return &Wallet{
		delay:   cfg.ConnectDelay,
		address: cfg.Address,
		logger:  cfg.Logger.WithField("component", "wallet"),
	}
}

// Connect performs the simulated handshake and returns the address. A wallet
// that is already connected returns immediately; concurrent callers share one handshake.
func (w *Wallet) Connect(ctx context.Context) (string, error) {
	for {
		w.mu.Lock()
		if w.connected {
			w.mu.Unlock()
			return w.address, nil
		}
		if wait := w.connecting; wait != nil {
			w.mu.Unlock()
			select {
			case <-wait:
				continue
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		done := make(chan struct{})
		w.connecting = done
		w.mu.Unlock()

		err := w.handshake(ctx)

		w.mu.Lock()
		w.connecting = nil
		if err == nil {
			w.connected = true
		}
		w.mu.Unlock()
		close(done)

		if err != nil {
			return "", err
		}
		w.logger.WithField("address", w.address).Info("wallet connected")
		return w.address, nil
	}
}

func (w *Wallet) handshake(ctx context.Context) error {
	if w.delay == 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(w.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Address returns the connected address, or "" when disconnected
func (w *Wallet) Address() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.connected {
		return ""
	}
	return w.address
}

// Connected reports whether the handshake has completed
func (w *Wallet) Connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connected
}

// State returns the current wallet state
func (w *Wallet) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := State{Connected: w.connected, Connecting: w.connecting != nil}
	if w.connected {
		s.Address = w.address
	}
	return s
}

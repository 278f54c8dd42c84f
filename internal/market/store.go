// Package market holds the simulated asset store and the price simulator
// that is its only writer.
package market

import (
	"strings"
	"sync"

	apperrors "github.com/lumina-dashboard/internal/errors"
	"github.com/lumina-dashboard/internal/models"
	"github.com/lumina-dashboard/internal/types"
)

// Store is the authoritative in-memory list of assets plus the gas signal.
// Readers always receive deep copies of a complete snapshot.
type Store struct {
	mu     sync.RWMutex
	assets []models.Asset
	gas    int

	// id and upper-cased symbol to position; positions never change after construction
	index map[string]int
}

// NewStore creates a store from seed assets and the initial gas value
func NewStore(assets []models.Asset, gasSeed int) *Store {
	s := &Store{
		assets: models.CloneAssets(assets),
		gas:    gasSeed,
		index:  make(map[string]int, len(assets)*2),
	}
	for i, a := range s.assets {
		s.index[a.ID] = i
	}
	// an id always wins over another asset's symbol
	for i, a := range s.assets {
		if _, taken := s.index[strings.ToUpper(a.Symbol)]; !taken {
			s.index[strings.ToUpper(a.Symbol)] = i
		}
	}
	return s
}

// Snapshot returns a deep copy of every asset in seed order
func (s *Store) Snapshot() []models.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneAssets(s.assets)
}

// State returns the assets and gas price observed under a single read lock
func (s *Store) State() ([]models.Asset, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneAssets(s.assets), s.gas
}

// Asset looks up an asset by id or by symbol (case-insensitive)
func (s *Store) Asset(idOrSymbol string) (models.Asset, error) {
	key := strings.TrimSpace(idOrSymbol)
	i, ok := s.index[key]
	if !ok {
		i, ok = s.index[strings.ToUpper(key)]
	}
	if !ok {
		return models.Asset{}, apperrors.NewNotFoundError("asset", idOrSymbol)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assets[i].Clone(), nil
}

// GasPrice returns the current gas signal in gwei
func (s *Store) GasPrice() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gas
}

// Filter returns the assets of one category, or all of them for "All" or an empty filter
func (s *Store) Filter(category string) ([]models.Asset, error) {
	if category == "" || strings.EqualFold(category, types.CategoryAll) {
		return s.Snapshot(), nil
	}

	cat, ok := types.ParseCategory(category)
	if !ok {
		return nil, apperrors.NewInvalidParameterError("category", "must be All or one of Layer 1, DeFi, Stablecoin, Metaverse")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Asset, 0, len(s.assets))
	for _, a := range s.assets {
		if a.Category == cat {
			out = append(out, a.Clone())
		}
	}
	return out, nil
}

// Favorites returns the assets flagged as favorites
func (s *Store) Favorites() []models.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Asset, 0, len(s.assets))
	for _, a := range s.assets {
		if a.IsFavorite {
			out = append(out, a.Clone())
		}
	}
	return out
}

// Len returns the number of assets
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assets)
}

// replace swaps in a complete new state. Only the simulator calls it.
func (s *Store) replace(assets []models.Asset, gas int) {
	s.mu.Lock()
	s.assets = assets
	s.gas = gas
	s.mu.Unlock()
}

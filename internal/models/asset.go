package models

import (
	"github.com/lumina-dashboard/internal/types"
)

// Asset represents one simulated tradable instrument
type Asset struct {
	ID          string              `json:"id" yaml:"id"`
	Symbol      string              `json:"symbol" yaml:"symbol"`
	Name        string              `json:"name" yaml:"name"`
	Price       float64             `json:"price" yaml:"price"`         // mutated by the simulator
	Change24h   float64             `json:"change24h" yaml:"change24h"` // mutated by the simulator
	Balance     float64             `json:"balance" yaml:"balance"`     // units held
	Category    types.AssetCategory `json:"category" yaml:"category"`
	Color       string              `json:"color" yaml:"color"`
	HexColor    string              `json:"hexColor" yaml:"hexColor"`
	ChartData   []float64           `json:"chartData" yaml:"chartData"` // fixed samples, never mutated
	Description string              `json:"description" yaml:"description"`
	IsFavorite  bool                `json:"isFavorite" yaml:"isFavorite"`
}

// Value returns the holding value (price × balance)
func (a Asset) Value() float64 {
	return a.Price * a.Balance
}

// Clone returns a deep copy so callers never alias the chart samples
func (a Asset) Clone() Asset {
	out := a
	if a.ChartData != nil {
		out.ChartData = append([]float64(nil), a.ChartData...)
	}
	return out
}

// CloneAssets deep-copies a slice of assets
func CloneAssets(assets []Asset) []Asset {
	if assets == nil {
		return nil
	}
	out := make([]Asset, len(assets))
	for i, a := range assets {
		out[i] = a.Clone()
	}
	return out
}

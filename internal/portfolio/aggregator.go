// Package portfolio derives read-only aggregates from an asset snapshot.
// Nothing here is cached; callers pass the snapshot they want summarized.
package portfolio

import (
	"math"

	apperrors "github.com/lumina-dashboard/internal/errors"
	"github.com/lumina-dashboard/internal/models"
)

// Allocation is one row of a portfolio breakdown
type Allocation struct {
	AssetID  string  `json:"assetId"`
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	HexColor string  `json:"hexColor"`
	Value    float64 `json:"value"`
	Fraction float64 `json:"fraction"`
	Percent  int     `json:"percent"` // rounded, for display only
}

// Summary is the derived portfolio snapshot
type Summary struct {
	TotalBalance float64      `json:"totalBalance"`
	Allocations  []Allocation `json:"allocations"`
	TopAsset     models.Asset `json:"topAsset"`
}

// TotalBalance sums price × balance over all assets; 0 for no assets
func TotalBalance(assets []models.Asset) float64 {
	var total float64
	for _, a := range assets {
		total += a.Value()
	}
	return total
}

// Allocations returns each asset's share of the total keyed by asset id.
// When the total is zero every share is zero.
func Allocations(assets []models.Asset) map[string]float64 {
	total := TotalBalance(assets)
	out := make(map[string]float64, len(assets))
	for _, a := range assets {
		out[a.ID] = fraction(a.Value(), total)
	}
	return out
}

// TopAsset returns the asset with the largest value; the first one wins ties
func TopAsset(assets []models.Asset) (models.Asset, error) {
	if len(assets) == 0 {
		return models.Asset{}, apperrors.NewEmptyPortfolioError("top asset")
	}

	top := assets[0]
	for _, a := range assets[1:] {
		if a.Value() > top.Value() {
			top = a
		}
	}
	return top.Clone(), nil
}

// Summarize computes the total, the ordered allocation rows and the top asset
func Summarize(assets []models.Asset) (Summary, error) {
	top, err := TopAsset(assets)
	if err != nil {
		return Summary{}, err
	}

	total := TotalBalance(assets)
	rows := make([]Allocation, 0, len(assets))
	for _, a := range assets {
		f := fraction(a.Value(), total)
		rows = append(rows, Allocation{
			AssetID:  a.ID,
			Symbol:   a.Symbol,
			Name:     a.Name,
			HexColor: a.HexColor,
			Value:    a.Value(),
			Fraction: f,
			Percent:  int(math.Round(f * 100)),
		})
	}

	return Summary{
		TotalBalance: total,
		Allocations:  rows,
		TopAsset:     top,
	}, nil
}

func fraction(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return value / total
}

package portfolio

import (
	"math"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	apperrors "github.com/lumina-dashboard/internal/errors"
	"github.com/lumina-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoAssets() []models.Asset {
	return []models.Asset{
		{ID: "a", Symbol: "A", Price: 100, Balance: 2},
		{ID: "b", Symbol: "B", Price: 50, Balance: 1},
	}
}

func TestTotalBalance(t *testing.T) {
	assert.Equal(t, 250.0, TotalBalance(twoAssets()))
	assert.Equal(t, 0.0, TotalBalance(nil))
}

func TestAllocation(t *testing.T) {
	alloc := Allocations(twoAssets())
	assert.InDelta(t, 0.8, alloc["a"], 1e-12)
	assert.InDelta(t, 0.2, alloc["b"], 1e-12)
}

func TestAllocation_ZeroTotal(t *testing.T) {
	assets := []models.Asset{
		{ID: "a", Price: 100, Balance: 0},
		{ID: "b", Price: 50, Balance: 0},
	}
	alloc := Allocations(assets)
	require.Len(t, alloc, 2)
	for id, f := range alloc {
		assert.Zero(t, f, id)
		assert.False(t, math.IsNaN(f))
	}

	assert.Empty(t, Allocations(nil))
}

func TestTopAsset(t *testing.T) {
	top, err := TopAsset(twoAssets())
	require.NoError(t, err)
	assert.Equal(t, "a", top.ID)
}

func TestTopAsset_FirstWinsTies(t *testing.T) {
	assets := []models.Asset{
		{ID: "x", Price: 10, Balance: 10},
		{ID: "y", Price: 100, Balance: 1},
		{ID: "z", Price: 1, Balance: 100},
	}
	top, err := TopAsset(assets)
	require.NoError(t, err)
	assert.Equal(t, "x", top.ID)
}

func TestTopAsset_Empty(t *testing.T) {
	_, err := TopAsset(nil)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeEmptyPortfolio))
}

func TestSummarize(t *testing.T) {
	summary, err := Summarize(twoAssets())
	require.NoError(t, err)

	assert.Equal(t, 250.0, summary.TotalBalance)
	assert.Equal(t, "a", summary.TopAsset.ID)
	require.Len(t, summary.Allocations, 2)
	assert.Equal(t, "A", summary.Allocations[0].Symbol)
	assert.Equal(t, 200.0, summary.Allocations[0].Value)
	assert.Equal(t, 80, summary.Allocations[0].Percent)
	assert.Equal(t, 20, summary.Allocations[1].Percent)

	_, err = Summarize(nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeEmptyPortfolio))
}

func genAssets() gopter.Gen {
	return gen.SliceOf(gen.Struct(reflect.TypeOf(models.Asset{}), map[string]gopter.Gen{
		"ID":      gen.Identifier(),
		"Price":   gen.Float64Range(0.01, 1e5),
		"Balance": gen.Float64Range(0, 1e4),
	}))
}

func TestAggregateProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("allocations sum to 1 when total is positive", prop.ForAll(
		func(assets []models.Asset) bool {
			assets = uniqueIDs(assets)
			total := TotalBalance(assets)
			var sum float64
			for _, f := range Allocations(assets) {
				if f < 0 || f > 1+1e-9 {
					return false
				}
				sum += f
			}
			if total == 0 {
				return sum == 0
			}
			return math.Abs(sum-1) < 1e-9
		},
		genAssets(),
	))

	properties.Property("top asset has the maximum value", prop.ForAll(
		func(assets []models.Asset) bool {
			if len(assets) == 0 {
				return true
			}
			top, err := TopAsset(assets)
			if err != nil {
				return false
			}
			for _, a := range assets {
				if a.Value() > top.Value() {
					return false
				}
			}
			return true
		},
		genAssets(),
	))

	properties.TestingRun(t)
}

// uniqueIDs drops assets whose generated id repeats, since allocations are keyed by id
func uniqueIDs(assets []models.Asset) []models.Asset {
	seen := make(map[string]bool, len(assets))
	out := assets[:0:0]
	for _, a := range assets {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		out = append(out, a)
	}
	return out
}

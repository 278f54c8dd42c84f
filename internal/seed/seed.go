// Package seed loads the fixed mock data that initializes the asset store
// and the transaction log.
package seed

import (
	"bytes"
	_ "embed"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/lumina-dashboard/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var embedded []byte

// Data is the full seed document
type Data struct {
	Assets       []models.Asset       `yaml:"assets"`
	Transactions []models.Transaction `yaml:"transactions"`
}

// Default returns the embedded seed data
func Default() (*Data, error) {
	return Parse(embedded)
}

// Load reads seed data from path, falling back to the embedded seed when path is empty
func Load(path string) (*Data, error) {
	if path == "" {
		return Default()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and checks a seed document
func Parse(raw []byte) (*Data, error) {
	var data Data
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode seed data: %w", err)
	}

	if err := data.validate(); err != nil {
		return nil, err
	}
	return &data, nil
}

func (d *Data) validate() error {
	if len(d.Assets) == 0 {
		return fmt.Errorf("seed data has no assets")
	}

	// ids and upper-cased symbols share one lookup namespace in the store
	owners := make(map[string]int, len(d.Assets)*2)
	for i, a := range d.Assets {
		switch {
		case a.ID == "" || a.Symbol == "" || a.Name == "":
			return fmt.Errorf("asset %d: id, symbol and name are required", i)
		case !finite(a.Price) || a.Price <= 0:
			return fmt.Errorf("asset %s: price must be positive, got %v", a.Symbol, a.Price)
		case !finite(a.Balance) || a.Balance < 0:
			return fmt.Errorf("asset %s: balance must not be negative, got %v", a.Symbol, a.Balance)
		case !finite(a.Change24h):
			return fmt.Errorf("asset %s: change24h must be finite, got %v", a.Symbol, a.Change24h)
		case !a.Category.Valid():
			return fmt.Errorf("asset %s: unknown category %q", a.Symbol, a.Category)
		}
		for j, v := range a.ChartData {
			if !finite(v) {
				return fmt.Errorf("asset %s: chart sample %d is not finite", a.Symbol, j)
			}
		}

		for _, key := range []string{a.ID, strings.ToUpper(a.Symbol)} {
			if owner, taken := owners[key]; taken && owner != i {
				return fmt.Errorf("asset %s: duplicate id or symbol %q", a.Symbol, key)
			}
			owners[key] = i
		}
	}

	txIDs := make(map[string]bool, len(d.Transactions))
	for i, tx := range d.Transactions {
		switch {
		case tx.ID == "":
			return fmt.Errorf("transaction %d: id is required", i)
		case txIDs[tx.ID]:
			return fmt.Errorf("transaction %s: duplicate id", tx.ID)
		case !tx.Type.Valid():
			return fmt.Errorf("transaction %s: unknown type %q", tx.ID, tx.Type)
		case !tx.Status.Valid():
			return fmt.Errorf("transaction %s: unknown status %q", tx.ID, tx.Status)
		case !finite(tx.Amount) || tx.Amount < 0:
			return fmt.Errorf("transaction %s: amount must not be negative", tx.ID)
		}
		txIDs[tx.ID] = true
	}

	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

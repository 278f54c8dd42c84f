// Package swap computes exchange quotes between two assets and runs the
// cosmetic swap flow. Swaps never change balances or the transaction log.
package swap

import (
	"math"
	"strings"

	apperrors "github.com/lumina-dashboard/internal/errors"
	"github.com/lumina-dashboard/internal/models"
	"github.com/shopspring/decimal"
)

const (
	// DefaultFrom is the source symbol when none is given
	DefaultFrom = "BTC"
	// DefaultTo is the target symbol when none is given
	DefaultTo = "ETH"

	displayPlaces = 4
)

// Quote is the result of converting amount units of From into To
type Quote struct {
	From           string  `json:"from"`
	To             string  `json:"to"`
	Amount         float64 `json:"amount"`
	Rate           float64 `json:"rate"`
	Receive        float64 `json:"receive"`
	RateDisplay    string  `json:"rateDisplay"`
	ReceiveDisplay string  `json:"receiveDisplay"`
	FromBalance    float64 `json:"fromBalance"`
}

// NewQuote computes rate = from.Price / to.Price and receive = amount × rate
func NewQuote(from, to models.Asset, amount float64) (Quote, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return Quote{}, apperrors.NewInvalidParameterError("amount", "must be a non-negative number")
	}
	if from.Price <= 0 {
		return Quote{}, apperrors.NewQuoteUnavailableError(from.Symbol, to.Symbol, "source price is not positive")
	}
	if to.Price <= 0 {
		return Quote{}, apperrors.NewQuoteUnavailableError(from.Symbol, to.Symbol, "target price is not positive")
	}

	rate := from.Price / to.Price
	receive := amount * rate
	if math.IsNaN(rate) || math.IsInf(rate, 0) || math.IsInf(receive, 0) {
		return Quote{}, apperrors.NewQuoteUnavailableError(from.Symbol, to.Symbol, "rate is not finite")
	}

	return Quote{
		From:           from.Symbol,
		To:             to.Symbol,
		Amount:         amount,
		Rate:           rate,
		Receive:        receive,
		RateDisplay:    decimal.NewFromFloat(rate).StringFixed(displayPlaces),
		ReceiveDisplay: decimal.NewFromFloat(receive).StringFixed(displayPlaces),
		FromBalance:    from.Balance,
	}, nil
}

// AssetSource resolves assets by id or symbol from the current snapshot
type AssetSource interface {
	Asset(idOrSymbol string) (models.Asset, error)
}

// Quoter quotes pairs against live store prices
type Quoter struct {
	assets AssetSource
}

// NewQuoter creates a quoter over an asset source
func NewQuoter(assets AssetSource) *Quoter {
	return &Quoter{assets: assets}
}

// Quote resolves both symbols and computes the quote. Empty symbols fall back to BTC → ETH.
func (q *Quoter) Quote(fromSymbol, toSymbol string, amount float64) (Quote, error) {
	if strings.TrimSpace(fromSymbol) == "" {
		fromSymbol = DefaultFrom
	}
	if strings.TrimSpace(toSymbol) == "" {
		toSymbol = DefaultTo
	}

	from, err := q.assets.Asset(fromSymbol)
	if err != nil {
		return Quote{}, err
	}
	to, err := q.assets.Asset(toSymbol)
	if err != nil {
		return Quote{}, err
	}

	return NewQuote(from, to, amount)
}

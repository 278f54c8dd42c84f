package advisor

import (
	"fmt"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/lumina-dashboard/internal/models"
	"github.com/lumina-dashboard/internal/portfolio"
	"github.com/lumina-dashboard/internal/types"
	"github.com/shopspring/decimal"
)

// historyWindow is how many transactions the history insight looks at
const historyWindow = 10

var quickActionRequests = map[types.QuickAction]string{
	types.ActionAudit:     "Perform a quick audit of my portfolio. Are there any high risks? Is it well diversified? Give 3 bullet points.",
	types.ActionSentiment: "What is the general crypto market sentiment right now based on Bitcoin price action? Be brief.",
	types.ActionPredict:   "Based on general crypto history, what usually happens to altcoins when Bitcoin is stable? No financial advice, just theory.",
}

var quickActionLabels = map[types.QuickAction]string{
	types.ActionAudit:     "Audit my portfolio",
	types.ActionSentiment: "Market Sentiment",
	types.ActionPredict:   "Market Theory",
}

// usd renders an amount as dollars and cents
func usd(v float64) string {
	return money.NewFromFloat(v, money.USD).Display()
}

// units renders a holding without trailing zeros
func units(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// holdings lists every asset as "Name: balance SYMBOL ($value)"
func holdings(assets []models.Asset) string {
	parts := make([]string, 0, len(assets))
	for _, a := range assets {
		parts = append(parts, fmt.Sprintf("%s: %s %s (%s)", a.Name, units(a.Balance), a.Symbol, usd(a.Value())))
	}
	return strings.Join(parts, ", ")
}

// ChatPrompt frames a free-form question with the user's holdings
func ChatPrompt(assets []models.Asset, question string) string {
	return fmt.Sprintf(`You are Lumina AI, a helpful and professional crypto financial advisor.
User's Portfolio: Total Value %s. Assets: %s.
User Question: "%s"

Provide a concise, helpful answer. If the user asks about their portfolio, use the provided data.
Format response in plain text or simple markdown. Be encouraging but warn about risks.`,
		usd(portfolio.TotalBalance(assets)), holdings(assets), question)
}

// QuickActionPrompt frames one of the canned requests
func QuickActionPrompt(assets []models.Asset, action types.QuickAction) string {
	return fmt.Sprintf(`Act as Lumina AI. User Portfolio: %s. Total: %s.
User Request: %s
Keep answer under 100 words.`,
		holdings(assets), usd(portfolio.TotalBalance(assets)), quickActionRequests[action])
}

// BriefPrompt asks for a short morning greeting about the top holding
func BriefPrompt(total float64, top models.Asset) string {
	return fmt.Sprintf(`User Portfolio: Total %s. Top Asset: %s (%s).
Create a "Daily Morning Brief" greeting. It should be 1-2 sentences.
Be professional yet witty. Comment on their top asset exposure.`,
		usd(total), top.Name, usd(top.Value()))
}

// AssetAnalysisPrompt asks for a short analyst take on one asset
func AssetAnalysisPrompt(a models.Asset) string {
	return fmt.Sprintf(`Act as a senior crypto analyst. Provide a short, punchy 3-sentence analysis for %s (%s).
Current Context: Price %s, Category: %s.
Highlight one major strength and one potential risk.`,
		a.Name, a.Symbol, usd(a.Price), a.Category)
}

// RebalancePrompt asks for one rebalancing action given the allocation percentages
func RebalancePrompt(summary portfolio.Summary) string {
	parts := make([]string, 0, len(summary.Allocations))
	for _, row := range summary.Allocations {
		parts = append(parts, fmt.Sprintf("%s: %d%%", row.Symbol, row.Percent))
	}
	return fmt.Sprintf(`Act as a portfolio manager. Current Allocation: %s.
Total Value: %s.
Suggest 1 concrete rebalancing action to reduce risk or improve diversity. Be concise (max 2 sentences).`,
		strings.Join(parts, ", "), usd(math.Round(summary.TotalBalance)))
}

// HistoryPrompt asks for a trading-style read on the most recent transactions
func HistoryPrompt(txs []models.Transaction) string {
	if len(txs) > historyWindow {
		txs = txs[:historyWindow]
	}
	parts := make([]string, 0, len(txs))
	for _, tx := range txs {
		parts = append(parts, fmt.Sprintf("%s %s %s on %s", tx.Type, units(tx.Amount), tx.Asset, tx.Date))
	}
	summary := strings.Join(parts, ", ")
	if summary == "" {
		summary = "none yet"
	}
	return fmt.Sprintf(`Analyze these crypto transactions: %s. Identify the user's trading style (e.g., "HODLer", "Degen", "Swing Trader") and give 1 witty observation. Keep it very short.`, summary)
}

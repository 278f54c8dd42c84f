package api

import (
	"net/http"
	"strconv"

	apperrors "github.com/lumina-dashboard/internal/errors"
	"github.com/lumina-dashboard/internal/swap"
)

// handleGetQuote handles GET /api/swap/quote?from=&to=&amount= - Live conversion quote
func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var amount float64
	if raw := query.Get("amount"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondServiceError(w, r, apperrors.NewInvalidParameterError("amount", "must be a number"))
			return
		}
		amount = parsed
	}

	quote, err := s.session.Quoter.Quote(query.Get("from"), query.Get("to"), amount)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// handleExecuteSwap handles POST /api/swap - Simulated swap confirmation.
// Balances are never changed.
func (s *Server) handleExecuteSwap(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From   string  `json:"from"`
		To     string  `json:"to"`
		Amount float64 `json:"amount"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondInvalidBody(w, err)
		return
	}

	result, err := s.session.Swaps.Execute(r.Context(), swap.Request{
		From:   req.From,
		To:     req.To,
		Amount: req.Amount,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lumina-dashboard/internal/models"
	"github.com/lumina-dashboard/internal/portfolio"
)

// handleListAssets handles GET /api/assets?category= - Current market snapshot
func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	var (
		assets []models.Asset
		err    error
	)
	if r.URL.Query().Get("favorites") == "true" {
		assets = s.session.Store.Favorites()
	} else {
		assets, err = s.session.Store.Filter(category)
	}
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"assets":   assets,
		"gasPrice": s.session.Store.GasPrice(),
	})
}

// handleGetAsset handles GET /api/assets/{id} - One asset by id or symbol
func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	asset, err := s.session.Store.Asset(mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, asset)
}

// handleGetGas handles GET /api/gas - Simulated gas price in gwei
func (s *Server) handleGetGas(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]int{
		"gasPrice": s.session.Store.GasPrice(),
	})
}

// handleGetPortfolio handles GET /api/portfolio - Total, allocation and top asset
func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	summary, err := portfolio.Summarize(s.session.Store.Snapshot())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// handleStream handles GET /api/stream - Websocket market feed
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	s.hub.Serve(w, r, s.session.Store.State)
}

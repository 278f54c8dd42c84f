package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	apperrors "github.com/lumina-dashboard/internal/errors"
	"github.com/lumina-dashboard/internal/types"
)

// handleListTransactions handles GET /api/transactions?type= - Filtered activity log
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.session.Ledger.Filter(r.URL.Query().Get("type"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// handleListNotifications handles GET /api/notifications - Active toasts, oldest first
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": s.session.Notifications.Active(),
	})
}

// handlePushNotification handles POST /api/notifications - Queue a toast
func (s *Server) handlePushNotification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message  string `json:"message"`
		Severity string `json:"severity,omitempty"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondInvalidBody(w, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondServiceError(w, r, apperrors.NewInvalidParameterError("message", "must not be empty"))
		return
	}

	id := s.session.Notify(req.Message, types.ParseSeverity(req.Severity))
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id": id,
	})
}

// handleRemoveNotification handles DELETE /api/notifications/{id} - Dismiss a toast
func (s *Server) handleRemoveNotification(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		respondServiceError(w, r, apperrors.NewInvalidParameterError("id", "must be a notification id"))
		return
	}

	if !s.session.Notifications.Remove(id) {
		respondServiceError(w, r, apperrors.NewNotFoundError("notification", raw))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCopyAddress handles POST /api/actions/copy-address
func (s *Server) handleCopyAddress(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":      s.session.CopyAddress(),
		"address": s.session.Wallet.Address(),
	})
}

// handleClaimRewards handles POST /api/actions/claim-rewards
func (s *Server) handleClaimRewards(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id": s.session.ClaimRewards(),
	})
}

// handleGetWallet handles GET /api/wallet - Wallet connection state
func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.session.Wallet.State())
}

// handleConnectWallet handles POST /api/wallet/connect - Simulated handshake
func (s *Server) handleConnectWallet(w http.ResponseWriter, r *http.Request) {
	if _, err := s.session.Wallet.Connect(r.Context()); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s.session.Wallet.State())
}

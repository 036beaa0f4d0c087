package server

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/sells-group/commission-cli/internal/model"
	"github.com/sells-group/commission-cli/internal/recon"
)

func (s *Server) handleListTiers(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") == ""
	tiers, err := s.store.ListTiers(r.Context(), activeOnly)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tiers": tiers, "count": len(tiers)})
}

func (s *Server) handleCreateTier(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TierLevel         int      `json:"tier_level"`
		MinWrittenPremium float64  `json:"min_written_premium"`
		MaxWrittenPremium *float64 `json:"max_written_premium"`
		CommissionRate    float64  `json:"commission_rate"`
		Description       string   `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if req.TierLevel < 1 {
		s.badRequest(w, "tier_level must be >= 1")
		return
	}
	if req.CommissionRate <= 0 || req.CommissionRate >= 1 {
		s.badRequest(w, "commission_rate must be a fraction between 0 and 1")
		return
	}

	existing, err := s.store.ListTiers(r.Context(), false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	for _, t := range existing {
		if t.TierLevel == req.TierLevel && t.IsActive {
			s.badRequest(w, "an active tier with that level already exists")
			return
		}
	}

	tier := &model.CommissionTier{
		TierLevel:         req.TierLevel,
		MinWrittenPremium: decimal.NewFromFloat(req.MinWrittenPremium),
		CommissionRate:    decimal.NewFromFloat(req.CommissionRate),
		Description:       req.Description,
		IsActive:          true,
	}
	if req.MaxWrittenPremium != nil {
		m := decimal.NewFromFloat(*req.MaxWrittenPremium)
		tier.MaxWrittenPremium = &m
	}
	if err := s.store.CreateTier(r.Context(), tier); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tier)
}

// handleSeedTiers installs the default band table into an empty tier store.
func (s *Server) handleSeedTiers(w http.ResponseWriter, r *http.Request) {
	existing, err := s.store.ListTiers(r.Context(), false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(existing) > 0 {
		s.badRequest(w, "tiers already configured")
		return
	}

	seeded := recon.DefaultTiers()
	for i := range seeded {
		if err := s.store.CreateTier(r.Context(), &seeded[i]); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, map[string]any{"seeded": len(seeded)})
}

package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/sells-group/commission-cli/internal/model"
	"github.com/sells-group/commission-cli/internal/recon"
)

// agentOverrideReq is the wire form of a per-agent payroll override.
// Floats are accepted here and converted to decimal at the boundary.
type agentOverrideReq struct {
	RateAdjustment float64 `json:"rate_adjustment"`
	Bonus          float64 `json:"bonus"`
}

func (s *Server) handlePayrollSubmit(w http.ResponseWriter, r *http.Request) {
	period, err := model.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		s.badRequest(w, "period must be YYYY-MM")
		return
	}

	var req struct {
		Overrides   map[string]agentOverrideReq `json:"overrides"`
		SubmittedBy string                      `json:"submitted_by"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.badRequest(w, "invalid request body")
			return
		}
	}

	overrides := make(map[string]recon.AgentOverride, len(req.Overrides))
	for agentID, ov := range req.Overrides {
		overrides[agentID] = recon.AgentOverride{
			RateAdjustment: decimal.NewFromFloat(ov.RateAdjustment),
			Bonus:          decimal.NewFromFloat(ov.Bonus),
		}
	}

	rec, err := s.svc.SubmitPayroll(r.Context(), period, overrides, req.SubmittedBy)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handlePayrollUnlock(w http.ResponseWriter, r *http.Request) {
	period, err := model.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		s.badRequest(w, "period must be YYYY-MM")
		return
	}
	rec, err := s.svc.UnlockPayroll(r.Context(), period)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handlePayrollMarkPaid(w http.ResponseWriter, r *http.Request) {
	period, err := model.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		s.badRequest(w, "period must be YYYY-MM")
		return
	}
	rec, err := s.svc.MarkPayrollPaid(r.Context(), period)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handlePayrollHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.svc.PayrollHistory(r.Context(), queryInt(r, "limit", 24))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payrolls": records, "count": len(records)})
}

func (s *Server) handlePayrollDetail(w http.ResponseWriter, r *http.Request) {
	period, err := model.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		s.badRequest(w, "period must be YYYY-MM")
		return
	}
	detail, err := s.svc.GetPayrollDetail(r.Context(), period)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

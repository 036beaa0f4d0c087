package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/sells-group/commission-cli/internal/model"
	"github.com/sells-group/commission-cli/internal/store"
)

// uploadResponse is the presentation view of a fresh import. Money leaves
// the API as float64 here; everything upstream stays decimal.
type uploadResponse struct {
	ID              string  `json:"id"`
	Filename        string  `json:"filename"`
	Carrier         string  `json:"carrier"`
	Period          string  `json:"period"`
	Status          string  `json:"status"`
	TotalRows       int     `json:"total_rows"`
	SkippedRows     int     `json:"skipped_rows"`
	TotalPremium    float64 `json:"total_premium"`
	TotalCommission float64 `json:"total_commission"`

	CarrierDetected   string `json:"carrier_detected,omitempty"`
	CarrierSelected   string `json:"carrier_selected,omitempty"`
	CarrierOverridden bool   `json:"carrier_overridden,omitempty"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		s.badRequest(w, "invalid multipart form")
		return
	}

	carrierKey := r.FormValue("carrier")
	if carrierKey == "" {
		s.badRequest(w, "carrier is required")
		return
	}
	period, err := model.ParsePeriod(r.FormValue("period"))
	if err != nil {
		s.badRequest(w, "period must be YYYY-MM")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.badRequest(w, "file is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(data) == 0 {
		s.badRequest(w, "empty file")
		return
	}

	imp, report, err := s.svc.CreateImport(r.Context(), header.Filename, data, carrierKey, period)
	if err != nil {
		if imp != nil && imp.Status == model.StatusFailed {
			s.badRequest(w, "failed to parse file: "+imp.ErrorMessage)
			return
		}
		s.badRequest(w, err.Error())
		return
	}

	resp := uploadResponse{
		ID:              imp.ID,
		Filename:        imp.Filename,
		Carrier:         imp.Carrier,
		Period:          string(imp.Period),
		Status:          string(imp.Status),
		TotalRows:       imp.TotalRows,
		SkippedRows:     imp.SkippedRows,
		TotalPremium:    imp.TotalPremium.InexactFloat64(),
		TotalCommission: imp.TotalCommission.InexactFloat64(),
	}
	if report.CarrierOverridden {
		resp.CarrierDetected = report.DetectedCarrier
		resp.CarrierSelected = carrierKey
		resp.CarrierOverridden = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	filter := store.ImportFilter{
		Carrier: r.URL.Query().Get("carrier"),
		Status:  model.ImportStatus(r.URL.Query().Get("status")),
		Limit:   queryInt(r, "limit", 100),
		Offset:  queryInt(r, "offset", 0),
	}
	if p := r.URL.Query().Get("period"); p != "" {
		period, err := model.ParsePeriod(p)
		if err != nil {
			s.badRequest(w, "period must be YYYY-MM")
			return
		}
		filter.Period = period
	}

	imports, err := s.svc.ListImports(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"imports": imports, "count": len(imports)})
}

func (s *Server) handleImportSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.Summary(r.Context(), chi.URLParam(r, "importID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleRunMatching(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.RunMatching(r.Context(), chi.URLParam(r, "importID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleImportCommissions(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.CalculateImportCommissions(r.Context(), chi.URLParam(r, "importID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteImport(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteImport(r.Context(), chi.URLParam(r, "importID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleManualMatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SaleID string `json:"sale_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SaleID == "" {
		s.badRequest(w, "sale_id is required")
		return
	}

	line, err := s.svc.ManualMatch(r.Context(), chi.URLParam(r, "lineID"), req.SaleID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

func (s *Server) handleMonthlyPay(w http.ResponseWriter, r *http.Request) {
	period, err := model.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		s.badRequest(w, "period must be YYYY-MM")
		return
	}

	pay, err := s.svc.CalculateMonthlyPay(r.Context(), period)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pay)
}

func (s *Server) handleAgentSheet(w http.ResponseWriter, r *http.Request) {
	period, err := model.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		s.badRequest(w, "period must be YYYY-MM")
		return
	}
	rateAdj, err := queryDecimal(r, "rate_adjustment")
	if err != nil {
		s.badRequest(w, "rate_adjustment must be numeric")
		return
	}
	bonus, err := queryDecimal(r, "bonus")
	if err != nil {
		s.badRequest(w, "bonus must be numeric")
		return
	}

	sheet, err := s.svc.AgentCommissionSheet(r.Context(), period, chi.URLParam(r, "agentID"), rateAdj, bonus)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sheet)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func queryDecimal(r *http.Request, key string) (decimal.Decimal, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

package handler

import (
	"net/http"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/httputil"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/logger"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/service"
)

type ReportHandler struct {
	reports *service.ReportService
	log     *logger.Logger
}

func NewReportHandler(reports *service.ReportService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, log: log}
}

// TopContributors handles GET /top-contributors
func (h *ReportHandler) TopContributors(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reports.TopContributors(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load top contributors")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rows)
}

// CommunityStats handles GET /community-stats
func (h *ReportHandler) CommunityStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.CommunityStats(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load community stats")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// Overview handles GET /dashboard/overview
func (h *ReportHandler) Overview(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	overview, err := h.reports.Overview(r.Context(), id.Email)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load dashboard", "email", id.Email)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, overview)
}

// AdminStats handles GET /admin/stats
func (h *ReportHandler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.AdminStats(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load admin stats")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// CategoryStats handles GET /admin/category-stats
func (h *ReportHandler) CategoryStats(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reports.CategoryStats(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load category stats")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rows)
}

package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jwaldron/tennisiq/internal/identity"
	"github.com/jwaldron/tennisiq/internal/models"
	"github.com/jwaldron/tennisiq/internal/services"
	"github.com/jwaldron/tennisiq/pkg/utils"
)

type ImportHandler struct {
	importer  *services.ImporterService
	refresher *services.RefreshService
}

func NewImportHandler(importer *services.ImporterService, refresher *services.RefreshService) *ImportHandler {
	return &ImportHandler{
		importer:  importer,
		refresher: refresher,
	}
}

type batchResolveRequest struct {
	Source  models.Source    `json:"source" binding:"required"`
	Records []identity.Input `json:"records" binding:"required"`
}

// BatchResolve resolves a batch of raw records and reports per-record
// outcomes. A storage failure on one record never fails the whole request.
func (h *ImportHandler) BatchResolve(c *gin.Context) {
	var req batchResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid import request", err.Error())
		return
	}
	if len(req.Records) == 0 {
		utils.SendValidationError(c, "Empty record list", "records must contain at least one entry")
		return
	}

	result := h.importer.ResolveBatch(req.Source, req.Records)
	utils.SendSuccess(c, result)
}

type rankingImportRequest struct {
	Date    string                  `json:"date" binding:"required"` // YYYY-MM-DD
	Entries []services.RankingEntry `json:"entries" binding:"required"`
}

// ImportRankings ingests one weekly ranking snapshot.
func (h *ImportHandler) ImportRankings(c *gin.Context) {
	var req rankingImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid ranking import", err.Error())
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		utils.SendValidationError(c, "Invalid date", "expected YYYY-MM-DD")
		return
	}
	if len(req.Entries) == 0 {
		utils.SendValidationError(c, "Empty snapshot", "entries must contain at least one ranking")
		return
	}

	result := h.importer.ImportRankingSnapshot(date, req.Entries)
	utils.SendSuccess(c, result)
}

type refreshRequest struct {
	Source models.Source `json:"source" binding:"required"`
}

// RefreshFromSource pulls fresh data from one upstream provider and imports it.
func (h *ImportHandler) RefreshFromSource(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid refresh request", err.Error())
		return
	}

	known := false
	for _, s := range models.AllSources {
		if req.Source == s {
			known = true
			break
		}
	}
	if !known {
		utils.SendValidationError(c, "Unknown source", string(req.Source))
		return
	}

	result, err := h.refresher.Refresh(c.Request.Context(), req.Source)
	if err != nil {
		utils.SendInternalError(c, "Refresh failed")
		return
	}

	utils.SendSuccess(c, result)
}

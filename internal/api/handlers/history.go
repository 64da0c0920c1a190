package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ZenDevMaster/barcodecentral/internal/api/middleware"
	"github.com/ZenDevMaster/barcodecentral/internal/history"
	"github.com/ZenDevMaster/barcodecentral/internal/job"
)

// HistoryHandler exposes the print log: listing, lookup, reprints, search,
// statistics, and maintenance.
type HistoryHandler struct {
	store        *history.Store
	orchestrator *job.Orchestrator
	logger       *zap.Logger
}

func NewHistoryHandler(store *history.Store, orchestrator *job.Orchestrator, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		store:        store,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

type ListHistoryQuery struct {
	Template  string `form:"template"`
	PrinterID int64  `form:"printer_id"`
	Status    string `form:"status"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
}

type ReprintRequest struct {
	PrinterID int64             `json:"printer_id"`
	Quantity  int               `json:"quantity"`
	Variables map[string]string `json:"variables"`
}

// List returns history entries newest first. Rendered ZPL is omitted from
// list output; fetch a single entry for the full payload.
func (h *HistoryHandler) List(c *gin.Context) {
	var query ListHistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	if query.Limit <= 0 {
		query.Limit = 100
	}
	if query.Limit > 500 {
		query.Limit = 500
	}
	if query.Offset < 0 {
		query.Offset = 0
	}

	entries, total, err := h.store.List(history.Filter{
		Template:  query.Template,
		PrinterID: query.PrinterID,
		Status:    query.Status,
		StartDate: query.StartDate,
		EndDate:   query.EndDate,
		Limit:     query.Limit,
		Offset:    query.Offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"total":   total,
		"limit":   query.Limit,
		"offset":  query.Offset,
	})
}

// Get returns a single entry including its rendered ZPL.
func (h *HistoryHandler) Get(c *gin.Context) {
	entry, err := h.store.Get(c.Param("id"))
	if err != nil {
		h.entryError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Delete removes a single entry.
func (h *HistoryHandler) Delete(c *gin.Context) {
	if err := h.store.Delete(c.Param("id")); err != nil {
		h.entryError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HistoryHandler) entryError(c *gin.Context, err error) {
	if errors.Is(err, history.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "History entry not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: err.Error()})
}

// Reprint runs a past job again, optionally overriding printer, quantity,
// or variables. The new attempt gets its own history entry.
func (h *HistoryHandler) Reprint(c *gin.Context) {
	var req ReprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	result, err := h.orchestrator.Reprint(c.Request.Context(), c.Param("id"), job.ReprintOverrides{
		PrinterID: req.PrinterID,
		Quantity:  req.Quantity,
		Variables: req.Variables,
		User:      middleware.Username(c),
	})
	if err != nil {
		status, code := classifyJobError(err)
		h.logger.Warn("reprint failed",
			zap.String("source_id", c.Param("id")),
			zap.String("code", code),
			zap.Error(err))
		if result != nil {
			c.JSON(status, gin.H{
				"error":   code,
				"message": err.Error(),
				"job_id":  result.JobID,
				"status":  result.Status,
			})
			return
		}
		c.JSON(status, ErrorResponse{Error: code, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, PrintResponse{
		Success:         true,
		JobID:           result.JobID,
		Status:          result.Status,
		PrinterName:     result.PrinterName,
		Quantity:        result.Quantity,
		PreviewFilename: result.PreviewFilename,
		PreviewURL:      previewURL(result.PreviewFilename),
		PreviewReused:   result.PreviewReused,
		Timestamp:       result.Timestamp,
	})
}

// Search scans entries for a term, either across the whole record or
// within one named field.
func (h *HistoryHandler) Search(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "Query parameter is required"})
		return
	}

	results, err := h.store.Search(query, c.Query("field"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"count":   len(results),
	})
}

type StatisticsQuery struct {
	Period   int    `form:"period"`
	Grouping string `form:"grouping"`
}

// Statistics aggregates the log into usage metrics.
func (h *HistoryHandler) Statistics(c *gin.Context) {
	var query StatisticsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	stats, err := h.store.Statistics(query.Period, query.Grouping)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_grouping", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Cleanup deletes entries older than the given number of days.
func (h *HistoryHandler) Cleanup(c *gin.Context) {
	var req CleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "Days must be at least 1"})
		return
	}

	removed, err := h.store.Cleanup(req.Days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: err.Error()})
		return
	}

	h.logger.Info("history cleanup", zap.Int("days", req.Days), zap.Int("removed", removed))
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"entries_deleted": removed,
	})
}

// Export returns the full log as JSON or CSV. CSV is served as a download.
func (h *HistoryHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", history.ExportJSON)

	data, err := h.store.Export(format)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_format", Message: err.Error()})
		return
	}

	if format == history.ExportCSV {
		filename := fmt.Sprintf("print_history_%s.csv", time.Now().Format("20060102"))
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, "text/csv", data)
		return
	}

	c.Data(http.StatusOK, "application/json", data)
}

func (h *HistoryHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/history", h.List)
	r.GET("/history/search", h.Search)
	r.GET("/history/statistics", h.Statistics)
	r.POST("/history/cleanup", h.Cleanup)
	r.GET("/history/export", h.Export)
	r.GET("/history/:id", h.Get)
	r.DELETE("/history/:id", h.Delete)
	r.POST("/history/:id/reprint", h.Reprint)
}

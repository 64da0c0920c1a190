package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ZenDevMaster/barcodecentral/internal/api/middleware"
	"github.com/ZenDevMaster/barcodecentral/internal/history"
	"github.com/ZenDevMaster/barcodecentral/internal/job"
)

// PrintHandler exposes the print pipeline: submit, validate, preview-only,
// and job status lookup.
type PrintHandler struct {
	orchestrator *job.Orchestrator
	history      *history.Store
	logger       *zap.Logger
}

func NewPrintHandler(orchestrator *job.Orchestrator, hist *history.Store, logger *zap.Logger) *PrintHandler {
	return &PrintHandler{
		orchestrator: orchestrator,
		history:      hist,
		logger:       logger,
	}
}

type PrintRequest struct {
	Template        string            `json:"template" binding:"required"`
	PrinterID       int64             `json:"printer_id" binding:"required"`
	Variables       map[string]string `json:"variables"`
	Quantity        int               `json:"quantity"`
	PreviewFilename string            `json:"preview_filename"`
	DPI             int               `json:"dpi"`
	User            string            `json:"user"`
}

type PrintResponse struct {
	Success         bool   `json:"success"`
	JobID           string `json:"job_id"`
	Status          string `json:"status"`
	PrinterName     string `json:"printer_name"`
	Quantity        int    `json:"quantity"`
	PreviewFilename string `json:"preview_filename,omitempty"`
	PreviewURL      string `json:"preview_url,omitempty"`
	PreviewReused   bool   `json:"preview_reused"`
	Timestamp       string `json:"timestamp,omitempty"`
}

type ValidateResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

type PreviewJobResponse struct {
	Filename  string `json:"filename"`
	URL       string `json:"url"`
	Reused    bool   `json:"reused"`
	ZPL       string `json:"zpl"`
	LabelSize string `json:"label_size"`
	DPI       int    `json:"dpi"`
}

func (h *PrintHandler) jobRequest(c *gin.Context, req PrintRequest) job.Request {
	user := req.User
	if user == "" {
		user = middleware.Username(c)
	}
	return job.Request{
		Template:        req.Template,
		Variables:       req.Variables,
		PrinterID:       req.PrinterID,
		Quantity:        req.Quantity,
		PreviewFilename: req.PreviewFilename,
		DPI:             req.DPI,
		User:            user,
	}
}

// Print runs a full print job: render, resolve the preview, dispatch to the
// printer, and log the outcome. A failed attempt still has a job id because
// the failure is logged under it.
func (h *PrintHandler) Print(c *gin.Context) {
	var req PrintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	result, err := h.orchestrator.Execute(c.Request.Context(), h.jobRequest(c, req))
	if err != nil {
		status, code := classifyJobError(err)
		h.logger.Warn("print job failed",
			zap.String("template", req.Template),
			zap.Int64("printer_id", req.PrinterID),
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

// Validate checks a job without side effects. The outcome is always 200;
// the body says whether the job would be accepted.
func (h *PrintHandler) Validate(c *gin.Context) {
	var req PrintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, ValidateResponse{Valid: false, Error: err.Error()})
		return
	}

	if err := h.orchestrator.Validate(c.Request.Context(), h.jobRequest(c, req)); err != nil {
		c.JSON(http.StatusOK, ValidateResponse{Valid: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ValidateResponse{Valid: true})
}

// Preview renders and resolves the preview artifact without dispatching
// and without logging a history entry.
func (h *PrintHandler) Preview(c *gin.Context) {
	var req PrintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	result, err := h.orchestrator.Preview(c.Request.Context(), h.jobRequest(c, req))
	if err != nil {
		status, code := classifyJobError(err)
		c.JSON(status, ErrorResponse{Error: code, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, PreviewJobResponse{
		Filename:  result.Filename,
		URL:       previewURL(result.Filename),
		Reused:    result.Reused,
		ZPL:       result.ZPL,
		LabelSize: result.LabelSize,
		DPI:       result.DPI,
	})
}

// Status reports a job's outcome from its history entry.
func (h *PrintHandler) Status(c *gin.Context) {
	entry, err := h.history.Get(c.Param("job_id"))
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id":        entry.ID,
		"status":        entry.Status,
		"timestamp":     entry.Timestamp,
		"template":      entry.Template,
		"printer_id":    entry.PrinterID,
		"printer_name":  entry.PrinterName,
		"quantity":      entry.Quantity,
		"error_message": entry.ErrorMessage,
	})
}

func previewURL(filename string) string {
	if filename == "" {
		return ""
	}
	return "/api/preview/" + filename
}

func (h *PrintHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/print", h.Print)
	r.POST("/print/validate", h.Validate)
	r.POST("/print/preview", h.Preview)
	r.GET("/print/status/:job_id", h.Status)
}

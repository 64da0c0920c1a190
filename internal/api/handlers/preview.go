package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ZenDevMaster/barcodecentral/internal/job"
	"github.com/ZenDevMaster/barcodecentral/internal/preview"
	"github.com/ZenDevMaster/barcodecentral/internal/zpl"
)

const defaultLabelSize = "4x6"

// PreviewHandler manages preview artifacts directly: ad-hoc generation,
// serving, deletion, and housekeeping. The print pipeline reaches the same
// store through the orchestrator.
type PreviewHandler struct {
	store    *preview.Store
	policy   *preview.Policy
	renderer job.Renderer
	logger   *zap.Logger
}

func NewPreviewHandler(store *preview.Store, policy *preview.Policy, renderer job.Renderer, logger *zap.Logger) *PreviewHandler {
	return &PreviewHandler{
		store:    store,
		policy:   policy,
		renderer: renderer,
		logger:   logger,
	}
}

type GeneratePreviewRequest struct {
	ZPL       string            `json:"zpl"`
	Template  string            `json:"template"`
	Variables map[string]string `json:"variables"`
	LabelSize string            `json:"label_size"`
	DPI       int               `json:"dpi"`
	Format    string            `json:"format"`
}

type GeneratePreviewResponse struct {
	Filename  string `json:"filename"`
	URL       string `json:"url"`
	Reused    bool   `json:"reused"`
	LabelSize string `json:"label_size"`
	DPI       int    `json:"dpi"`
	Format    string `json:"format"`
}

type CleanupRequest struct {
	Days int `json:"days" binding:"required,min=1"`
}

// Generate renders an ad-hoc preview from raw ZPL or a stored template.
// Identical content at the same size and resolution reuses the cached
// artifact.
func (h *PreviewHandler) Generate(c *gin.Context) {
	var req GeneratePreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	if req.ZPL == "" && req.Template == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "Either zpl or template is required"})
		return
	}

	format := req.Format
	if format == "" {
		format = preview.FormatPNG
	}
	if format != preview.FormatPNG && format != preview.FormatPDF {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_format", Message: "Format must be png or pdf"})
		return
	}

	source := req.ZPL
	labelSize := req.LabelSize
	if req.Template != "" {
		rendered, err := h.renderer.Render(c.Request.Context(), req.Template, req.Variables)
		if err != nil {
			status, code := classifyJobError(err)
			c.JSON(status, ErrorResponse{Error: code, Message: err.Error()})
			return
		}
		source = rendered.ZPL
		if labelSize == "" {
			labelSize = rendered.LabelSize
		}
	}
	if labelSize == "" {
		labelSize = defaultLabelSize
	}

	widthIn, heightIn, err := zpl.ParseSize(labelSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_label_size", Message: err.Error()})
		return
	}

	dpi := req.DPI
	if dpi == 0 {
		dpi = preview.DefaultDPI
	}
	if _, err := preview.DPMMForDPI(dpi); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unsupported_resolution", Message: err.Error()})
		return
	}

	name, reused, err := h.policy.Resolve(c.Request.Context(), preview.ResolveRequest{
		ZPL:      source,
		WidthIn:  widthIn,
		HeightIn: heightIn,
		DPI:      dpi,
		Format:   format,
	})
	if err != nil {
		status, code := classifyJobError(err)
		h.logger.Warn("preview generation failed", zap.String("code", code), zap.Error(err))
		c.JSON(status, ErrorResponse{Error: code, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, GeneratePreviewResponse{
		Filename:  name,
		URL:       previewURL(name),
		Reused:    reused,
		LabelSize: labelSize,
		DPI:       dpi,
		Format:    format,
	})
}

// Serve streams a stored artifact by name.
func (h *PreviewHandler) Serve(c *gin.Context) {
	path, err := h.store.Path(c.Param("filename"))
	if err != nil {
		h.artifactError(c, err)
		return
	}
	c.File(path)
}

// Delete removes a stored artifact.
func (h *PreviewHandler) Delete(c *gin.Context) {
	if err := h.store.Delete(c.Param("filename")); err != nil {
		h.artifactError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PreviewHandler) artifactError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, preview.ErrInvalidName):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_filename", Message: err.Error()})
	case errors.Is(err, preview.ErrArtifactNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Preview not found"})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: err.Error()})
	}
}

// Cleanup deletes artifacts older than the given number of days.
func (h *PreviewHandler) Cleanup(c *gin.Context) {
	var req CleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "Days must be at least 1"})
		return
	}

	result, err := h.store.CleanupOlderThan(req.Days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: err.Error()})
		return
	}

	h.logger.Info("preview cleanup",
		zap.Int("days", req.Days),
		zap.Int("deleted", result.Deleted),
		zap.Int("errors", len(result.Errors)))
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"files_deleted": result.Deleted,
		"errors":        result.Errors,
	})
}

// Status reports how many artifacts are stored and their total size.
func (h *PreviewHandler) Status(c *gin.Context) {
	count, size, err := h.store.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"file_count":       count,
		"total_size_bytes": size,
		"total_size_human": preview.HumanSize(size),
	})
}

func (h *PreviewHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/preview/generate", h.Generate)
	r.GET("/preview/status", h.Status)
	r.POST("/preview/cleanup", h.Cleanup)
	r.GET("/preview/:filename", h.Serve)
	r.DELETE("/preview/:filename", h.Delete)
}

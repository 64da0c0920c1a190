package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ZenDevMaster/barcodecentral/internal/db"
	"github.com/ZenDevMaster/barcodecentral/internal/zpl"
)

type CreateTemplateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ZPLSource   string `json:"zpl_source" binding:"required"`
	LabelSize   string `json:"label_size"`
}

type UpdateTemplateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ZPLSource   string `json:"zpl_source"`
	LabelSize   string `json:"label_size"`
}

type TemplateResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ZPLSource   string    `json:"zpl_source"`
	LabelSize   string    `json:"label_size"`
	Variables   []string  `json:"variables"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TemplateHandler manages stored label templates. Templates carry raw ZPL
// with {{variable}} placeholders; metadata can also be declared inline via
// ^FX comment lines and is used to fill in omitted request fields.
type TemplateHandler struct {
	logger *zap.Logger
}

func NewTemplateHandler(logger *zap.Logger) *TemplateHandler {
	return &TemplateHandler{logger: logger}
}

func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	templates, err := db.Templates.ListTemplates(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to retrieve templates",
		})
		return
	}

	responses := make([]TemplateResponse, 0, len(templates))
	for _, t := range templates {
		responses = append(responses, templateToResponse(t))
	}

	c.JSON(http.StatusOK, responses)
}

func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	if err := zpl.ValidateContent(req.ZPLSource); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_zpl",
			Message: err.Error(),
		})
		return
	}

	if _, err := db.Templates.GetTemplateByName(c.Request.Context(), req.Name); err == nil {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "duplicate_name",
			Message: "Template with this name already exists",
		})
		return
	}

	meta := zpl.ParseMetadata(req.ZPLSource)

	description := req.Description
	if description == "" {
		description = meta.Description
	}

	labelSize := req.LabelSize
	if labelSize == "" {
		labelSize = meta.Size
	}
	if labelSize == "" {
		labelSize = defaultLabelSize
	}
	if _, _, err := zpl.ParseSize(labelSize); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_size",
			Message: err.Error(),
		})
		return
	}

	t := &db.LabelTemplate{
		Name:        req.Name,
		Description: description,
		ZPLSource:   req.ZPLSource,
		LabelSize:   labelSize,
	}

	if err := db.Templates.CreateTemplate(c.Request.Context(), t); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to create template",
		})
		return
	}

	h.logger.Info("template created", zap.Int64("id", t.ID), zap.String("name", t.Name))
	c.JSON(http.StatusCreated, templateToResponse(t))
}

func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	id, err := parseTemplateID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid template ID",
		})
		return
	}

	t, err := db.Templates.GetTemplateByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Template not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to retrieve template",
		})
		return
	}

	c.JSON(http.StatusOK, templateToResponse(t))
}

func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	id, err := parseTemplateID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid template ID",
		})
		return
	}

	var req UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	t, err := db.Templates.GetTemplateByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Template not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to retrieve template",
		})
		return
	}

	if req.Name != "" && req.Name != t.Name {
		if existing, err := db.Templates.GetTemplateByName(c.Request.Context(), req.Name); err == nil && existing.ID != id {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "duplicate_name",
				Message: "Template with this name already exists",
			})
			return
		}
		t.Name = req.Name
	}
	if req.Description != "" {
		t.Description = req.Description
	}
	if req.ZPLSource != "" {
		if err := zpl.ValidateContent(req.ZPLSource); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_zpl",
				Message: err.Error(),
			})
			return
		}
		t.ZPLSource = req.ZPLSource
	}
	if req.LabelSize != "" {
		if _, _, err := zpl.ParseSize(req.LabelSize); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_size",
				Message: err.Error(),
			})
			return
		}
		t.LabelSize = req.LabelSize
	}

	if err := db.Templates.UpdateTemplate(c.Request.Context(), t); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to update template",
		})
		return
	}

	c.JSON(http.StatusOK, templateToResponse(t))
}

func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	id, err := parseTemplateID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid template ID",
		})
		return
	}

	if _, err := db.Templates.GetTemplateByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Template not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to retrieve template",
		})
		return
	}

	if err := db.Templates.DeleteTemplate(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to delete template",
		})
		return
	}

	h.logger.Info("template deleted", zap.Int64("id", id))
	c.Status(http.StatusNoContent)
}

func parseTemplateID(c *gin.Context) (int64, error) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid template ID")
	}
	return id, nil
}

func templateToResponse(t *db.LabelTemplate) TemplateResponse {
	return TemplateResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		ZPLSource:   t.ZPLSource,
		LabelSize:   t.LabelSize,
		Variables:   zpl.ExtractVariables(t.ZPLSource),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (h *TemplateHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/templates", h.ListTemplates)
	r.POST("/templates", h.CreateTemplate)
	r.GET("/templates/:id", h.GetTemplate)
	r.PUT("/templates/:id", h.UpdateTemplate)
	r.DELETE("/templates/:id", h.DeleteTemplate)
}

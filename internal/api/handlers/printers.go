package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ZenDevMaster/barcodecentral/internal/db"
	"github.com/ZenDevMaster/barcodecentral/internal/printer"
	"github.com/ZenDevMaster/barcodecentral/internal/zpl"
)

type CreatePrinterRequest struct {
	Name           string   `json:"name" binding:"required"`
	IPAddress      string   `json:"ip_address" binding:"required,ip_addr"`
	Port           int      `json:"port"`
	DPI            int      `json:"dpi"`
	SupportedSizes []string `json:"supported_sizes"`
	Enabled        *bool    `json:"enabled"`
}

type UpdatePrinterRequest struct {
	Name           string   `json:"name"`
	IPAddress      string   `json:"ip_address" binding:"omitempty,ip_addr"`
	Port           int      `json:"port"`
	DPI            int      `json:"dpi"`
	SupportedSizes []string `json:"supported_sizes"`
	Enabled        *bool    `json:"enabled"`
}

type PrinterResponse struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	IPAddress      string     `json:"ip_address"`
	Port           int        `json:"port"`
	DPI            int        `json:"dpi"`
	SupportedSizes []string   `json:"supported_sizes"`
	Enabled        bool       `json:"enabled"`
	LastSeenAt     *time.Time `json:"last_seen_at,omitempty"`
	TotalPrints    int64      `json:"total_prints"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// PrinterHandler manages printer registry entries and connectivity tests.
type PrinterHandler struct {
	dispatcher *printer.Dispatcher
	logger     *zap.Logger
}

func NewPrinterHandler(dispatcher *printer.Dispatcher, logger *zap.Logger) *PrinterHandler {
	return &PrinterHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (h *PrinterHandler) ListPrinters(c *gin.Context) {
	printers, err := db.Printers.ListPrinters(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to retrieve printers",
		})
		return
	}

	responses := make([]PrinterResponse, 0, len(printers))
	for _, p := range printers {
		responses = append(responses, printerToResponse(p))
	}

	c.JSON(http.StatusOK, responses)
}

func (h *PrinterHandler) CreatePrinter(c *gin.Context) {
	var req CreatePrinterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	if _, err := db.Printers.GetPrinterByName(c.Request.Context(), req.Name); err == nil {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "duplicate_name",
			Message: "Printer with this name already exists",
		})
		return
	}

	sizesJSON, err := encodeSizes(req.SupportedSizes)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_size",
			Message: err.Error(),
		})
		return
	}

	port := req.Port
	if port == 0 {
		port = printer.DefaultPort
	}

	dpi := req.DPI
	if dpi == 0 {
		dpi = 203
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	p := &db.Printer{
		Name:      req.Name,
		IPAddress: req.IPAddress,
		Port:      port,
		DPI:       dpi,
		SizesJSON: sizesJSON,
		Enabled:   enabled,
	}

	if err := db.Printers.CreatePrinter(c.Request.Context(), p); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to create printer",
		})
		return
	}

	h.logger.Info("printer created", zap.Int64("id", p.ID), zap.String("name", p.Name))
	c.JSON(http.StatusCreated, printerToResponse(p))
}

func (h *PrinterHandler) GetPrinter(c *gin.Context) {
	id, err := parsePrinterID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid printer ID",
		})
		return
	}

	p, err := db.Printers.GetPrinterByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Printer not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to retrieve printer",
		})
		return
	}

	c.JSON(http.StatusOK, printerToResponse(p))
}

func (h *PrinterHandler) UpdatePrinter(c *gin.Context) {
	id, err := parsePrinterID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid printer ID",
		})
		return
	}

	var req UpdatePrinterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	p, err := db.Printers.GetPrinterByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Printer not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to retrieve printer",
		})
		return
	}

	if req.Name != "" && req.Name != p.Name {
		if existing, err := db.Printers.GetPrinterByName(c.Request.Context(), req.Name); err == nil && existing.ID != id {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "duplicate_name",
				Message: "Printer with this name already exists",
			})
			return
		}
		p.Name = req.Name
	}
	if req.IPAddress != "" {
		p.IPAddress = req.IPAddress
	}
	if req.Port != 0 {
		p.Port = req.Port
	}
	if req.DPI != 0 {
		p.DPI = req.DPI
	}
	if req.SupportedSizes != nil {
		sizesJSON, err := encodeSizes(req.SupportedSizes)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_size",
				Message: err.Error(),
			})
			return
		}
		p.SizesJSON = sizesJSON
	}
	if req.Enabled != nil {
		p.Enabled = *req.Enabled
	}

	if err := db.Printers.UpdatePrinter(c.Request.Context(), p); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to update printer",
		})
		return
	}

	c.JSON(http.StatusOK, printerToResponse(p))
}

func (h *PrinterHandler) DeletePrinter(c *gin.Context) {
	id, err := parsePrinterID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid printer ID",
		})
		return
	}

	if _, err := db.Printers.GetPrinterByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Printer not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to retrieve printer",
		})
		return
	}

	if err := db.Printers.DeletePrinter(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to delete printer",
		})
		return
	}

	h.logger.Info("printer deleted", zap.Int64("id", id))
	c.Status(http.StatusNoContent)
}

// TestPrinter probes the printer's raw TCP port without sending a payload,
// and records the contact time when it answers.
func (h *PrinterHandler) TestPrinter(c *gin.Context) {
	id, err := parsePrinterID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid printer ID",
		})
		return
	}

	p, err := db.Printers.GetPrinterByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Printer not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to retrieve printer",
		})
		return
	}

	endpoint := printer.Endpoint(p.IPAddress, p.Port)
	if err := h.dispatcher.TestConnection(c.Request.Context(), endpoint); err != nil {
		status, code := classifyJobError(err)
		c.JSON(status, gin.H{
			"success": false,
			"error":   code,
			"message": err.Error(),
		})
		return
	}

	if err := db.Printers.UpdateLastSeen(c.Request.Context(), id); err != nil {
		h.logger.Warn("failed to update last seen", zap.Int64("id", id), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Printer reachable",
		"endpoint": endpoint,
	})
}

func parsePrinterID(c *gin.Context) (int64, error) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid printer ID")
	}
	return id, nil
}

func encodeSizes(sizes []string) (string, error) {
	if len(sizes) == 0 {
		return "", nil
	}
	for _, s := range sizes {
		if _, _, err := zpl.ParseSize(s); err != nil {
			return "", err
		}
	}
	data, err := json.Marshal(sizes)
	if err != nil {
		return "", fmt.Errorf("failed to encode sizes: %w", err)
	}
	return string(data), nil
}

func printerToResponse(p *db.Printer) PrinterResponse {
	return PrinterResponse{
		ID:             p.ID,
		Name:           p.Name,
		IPAddress:      p.IPAddress,
		Port:           p.Port,
		DPI:            p.DPI,
		SupportedSizes: p.SupportedSizes(),
		Enabled:        p.Enabled,
		LastSeenAt:     p.LastSeenAt,
		TotalPrints:    p.TotalPrints,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (h *PrinterHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/printers", h.ListPrinters)
	r.POST("/printers", h.CreatePrinter)
	r.GET("/printers/:id", h.GetPrinter)
	r.PUT("/printers/:id", h.UpdatePrinter)
	r.DELETE("/printers/:id", h.DeletePrinter)
	r.POST("/printers/:id/test", h.TestPrinter)
}

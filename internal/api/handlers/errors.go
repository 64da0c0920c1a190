package handlers

import (
	"errors"
	"net/http"

	"github.com/ZenDevMaster/barcodecentral/internal/history"
	"github.com/ZenDevMaster/barcodecentral/internal/job"
	"github.com/ZenDevMaster/barcodecentral/internal/preview"
	"github.com/ZenDevMaster/barcodecentral/internal/printer"
	"github.com/ZenDevMaster/barcodecentral/internal/zpl"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// classifyJobError maps pipeline errors onto HTTP status codes and stable
// machine-readable error codes. Validation failures are the caller's fault,
// printer trouble is upstream, and a history write failure after a
// successful dispatch is reported as a server error so the caller knows the
// labels printed but the log entry is missing.
func classifyJobError(err error) (int, string) {
	switch {
	case errors.Is(err, job.ErrTemplateNotFound),
		errors.Is(err, job.ErrPrinterNotFound),
		errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, job.ErrPrinterDisabled):
		return http.StatusBadRequest, "printer_disabled"
	case errors.Is(err, job.ErrInvalidQuantity):
		return http.StatusBadRequest, "invalid_quantity"
	case errors.Is(err, job.ErrSizeMismatch):
		return http.StatusBadRequest, "size_mismatch"
	case errors.Is(err, preview.ErrUnsupportedResolution):
		return http.StatusBadRequest, "unsupported_resolution"
	case errors.Is(err, zpl.ErrMissingVariable):
		return http.StatusBadRequest, "missing_variable"
	case errors.Is(err, printer.ErrPrinterUnreachable):
		return http.StatusBadGateway, "printer_unreachable"
	case errors.Is(err, printer.ErrPrinterTimeout):
		return http.StatusBadGateway, "printer_timeout"
	case errors.Is(err, printer.ErrTransport):
		return http.StatusBadGateway, "transport_error"
	case errors.Is(err, history.ErrWriteFailed):
		return http.StatusInternalServerError, "history_write_failed"
	}

	var renderErr *preview.RenderError
	if errors.As(err, &renderErr) {
		if renderErr.Transient {
			return http.StatusServiceUnavailable, "render_unavailable"
		}
		return http.StatusUnprocessableEntity, "render_rejected"
	}

	return http.StatusInternalServerError, "internal_error"
}

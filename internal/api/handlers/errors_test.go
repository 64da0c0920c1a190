package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ZenDevMaster/barcodecentral/internal/history"
	"github.com/ZenDevMaster/barcodecentral/internal/job"
	"github.com/ZenDevMaster/barcodecentral/internal/preview"
	"github.com/ZenDevMaster/barcodecentral/internal/printer"
	"github.com/ZenDevMaster/barcodecentral/internal/zpl"
)

func TestClassifyJobError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"template missing", fmt.Errorf("%w: shipping", job.ErrTemplateNotFound), http.StatusNotFound, "not_found"},
		{"printer missing", fmt.Errorf("%w: 9", job.ErrPrinterNotFound), http.StatusNotFound, "not_found"},
		{"entry missing", history.ErrNotFound, http.StatusNotFound, "not_found"},
		{"printer disabled", job.ErrPrinterDisabled, http.StatusBadRequest, "printer_disabled"},
		{"bad quantity", job.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
		{"size mismatch", job.ErrSizeMismatch, http.StatusBadRequest, "size_mismatch"},
		{"bad dpi", preview.ErrUnsupportedResolution, http.StatusBadRequest, "unsupported_resolution"},
		{"missing variable", fmt.Errorf("%w: 'sku'", zpl.ErrMissingVariable), http.StatusBadRequest, "missing_variable"},
		{"unreachable", printer.ErrPrinterUnreachable, http.StatusBadGateway, "printer_unreachable"},
		{"timeout", printer.ErrPrinterTimeout, http.StatusBadGateway, "printer_timeout"},
		{"transport", printer.ErrTransport, http.StatusBadGateway, "transport_error"},
		{"history write", fmt.Errorf("printed but not logged: %w", history.ErrWriteFailed), http.StatusInternalServerError, "history_write_failed"},
		{"render transient", &preview.RenderError{StatusCode: 503, Transient: true}, http.StatusServiceUnavailable, "render_unavailable"},
		{"render permanent", &preview.RenderError{StatusCode: 400, Transient: false}, http.StatusUnprocessableEntity, "render_rejected"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := classifyJobError(tt.err)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

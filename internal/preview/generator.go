package preview

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	FormatPNG = "png"
	FormatPDF = "pdf"

	// MaxLabelInches is the largest label side the rasterization service
	// accepts.
	MaxLabelInches = 12.0
)

// RenderError reports a failed rasterization call. Transient failures
// (rate limits, server errors, network trouble) may be retried by the
// caller; permanent ones indicate bad input and must not be.
type RenderError struct {
	StatusCode int
	Message    string
	Transient  bool
}

func (e *RenderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("render failed with status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("render failed: %s", e.Message)
}

// Generator turns ZPL into label images via an external rasterization
// service. It holds no state beyond the HTTP client; persistence belongs
// to the Store.
type Generator struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewGenerator(baseURL string, timeout time.Duration, logger *zap.Logger) *Generator {
	return &Generator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Generate rasterizes one label. Width and height are in inches; the
// resolution must have a dpmm mapping. The returned bytes are the raw
// image, with physical density metadata patched in for PNG output.
func (g *Generator) Generate(ctx context.Context, zpl string, widthIn, heightIn float64, dpi int, format string) ([]byte, error) {
	dpmm, err := DPMMForDPI(dpi)
	if err != nil {
		return nil, err
	}

	if format != FormatPNG && format != FormatPDF {
		return nil, fmt.Errorf("unsupported preview format: %s (supported: png, pdf)", format)
	}

	if widthIn <= 0 || heightIn <= 0 {
		return nil, fmt.Errorf("label dimensions must be positive, got %gx%g", widthIn, heightIn)
	}
	if widthIn > MaxLabelInches || heightIn > MaxLabelInches {
		return nil, fmt.Errorf("label size %gx%g exceeds %g inch maximum per side", widthIn, heightIn, MaxLabelInches)
	}

	url := fmt.Sprintf("%s/%ddpmm/labels/%gx%g/0/", g.baseURL, dpmm, widthIn, heightIn)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(zpl))
	if err != nil {
		return nil, fmt.Errorf("failed to create render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if format == FormatPDF {
		req.Header.Set("Accept", "application/pdf")
	} else {
		req.Header.Set("Accept", "image/png")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("render request failed", zap.String("url", url), zap.Error(err))
		return nil, &RenderError{Message: err.Error(), Transient: true}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RenderError{Message: fmt.Sprintf("failed to read render response: %v", err), Transient: true}
	}

	if resp.StatusCode != http.StatusOK {
		transient := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		g.logger.Warn("render rejected",
			zap.Int("status", resp.StatusCode),
			zap.Bool("transient", transient))
		return nil, &RenderError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Transient:  transient,
		}
	}

	if len(body) == 0 {
		return nil, &RenderError{Message: "empty render response", Transient: true}
	}

	if format == FormatPNG {
		body = InjectDensity(body, dpi)
	}

	g.logger.Debug("label rendered",
		zap.Int("dpi", dpi),
		zap.Int("bytes", len(body)),
		zap.String("format", format))
	return body, nil
}

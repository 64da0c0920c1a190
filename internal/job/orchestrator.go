package job

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ZenDevMaster/barcodecentral/internal/history"
	"github.com/ZenDevMaster/barcodecentral/internal/preview"
	"github.com/ZenDevMaster/barcodecentral/internal/printer"
	"github.com/ZenDevMaster/barcodecentral/internal/zpl"
)

var (
	ErrPrinterNotFound = errors.New("printer not found")
	ErrPrinterDisabled = errors.New("printer disabled")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrSizeMismatch    = errors.New("label size not supported by printer")
)

// Job states, in protocol order. A job that clears validation always ends
// in one of the two terminals, and each terminal appends exactly one
// history entry.
const (
	stateCreated         = "CREATED"
	statePreviewResolved = "PREVIEW_RESOLVED"
	stateDispatched      = "DISPATCHED"
	stateSucceeded       = "SUCCEEDED"
	stateFailed          = "FAILED"
)

// sizeTolerance is how far apart two label dimensions may be, in inches,
// and still count as the same size.
const sizeTolerance = 0.1

// Target is the dispatch-relevant view of a registry printer.
type Target struct {
	ID      int64
	Name    string
	Host    string
	Port    int
	DPI     int
	Sizes   []string // supported label sizes; empty accepts any
	Enabled bool
}

// Transport moves rendered bytes to a printer endpoint, one connection per
// copy. The production implementation is *printer.Dispatcher.
type Transport interface {
	DispatchCopies(ctx context.Context, endpoint string, payload []byte, copies int) (int, error)
}

// PrinterLookup resolves a printer id to its current registry record. It
// must return ErrPrinterNotFound (possibly wrapped) for unknown ids.
type PrinterLookup func(ctx context.Context, id int64) (*Target, error)

// RecordPrint is the post-success accounting hook, wired to the registry's
// print counter in production. May be nil.
type RecordPrint func(ctx context.Context, printerID int64, copies int) error

// Request is one print submission.
type Request struct {
	Template        string
	Variables       map[string]string
	PrinterID       int64
	Quantity        int    // 0 defaults to 1
	PreviewFilename string // caller-approved artifact, optional
	DPI             int    // 0 defaults to the printer's resolution
	User            string
}

// Result is the terminal outcome returned to the caller.
type Result struct {
	JobID           string `json:"job_id"`
	Status          string `json:"status"`
	PrinterName     string `json:"printer_name"`
	Quantity        int    `json:"quantity"`
	PreviewFilename string `json:"preview_filename,omitempty"`
	PreviewReused   bool   `json:"preview_reused"`
	Timestamp       string `json:"timestamp,omitempty"`
}

// PreviewResult is the outcome of a preview-only request.
type PreviewResult struct {
	Filename  string `json:"filename"`
	Reused    bool   `json:"reused"`
	ZPL       string `json:"zpl"`
	LabelSize string `json:"label_size"`
	DPI       int    `json:"dpi"`
}

// ReprintOverrides are the fields a reprint may change. Zero values keep
// the archived entry's originals.
type ReprintOverrides struct {
	PrinterID int64
	Quantity  int
	Variables map[string]string
	User      string
}

// Deps carries the orchestrator's collaborators.
type Deps struct {
	Renderer    Renderer
	Policy      *preview.Policy
	Transport   Transport
	History     *history.Store
	Printers    PrinterLookup
	RecordPrint RecordPrint
	Logger      *zap.Logger
}

// Orchestrator drives a print job through its states: resolve the preview
// artifact, dispatch the ZPL, archive the attempt. Every terminal writes
// exactly one history entry; validation failures reject the request before
// the job exists and write none.
type Orchestrator struct {
	renderer    Renderer
	policy      *preview.Policy
	transport   Transport
	history     *history.Store
	printers    PrinterLookup
	recordPrint RecordPrint
	logger      *zap.Logger
}

func NewOrchestrator(deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		renderer:    deps.Renderer,
		policy:      deps.Policy,
		transport:   deps.Transport,
		history:     deps.History,
		printers:    deps.Printers,
		recordPrint: deps.RecordPrint,
		logger:      logger,
	}
}

// plan is a validated request, ready to enter the pipeline.
type plan struct {
	target   *Target
	rendered *Rendered
	widthIn  float64
	heightIn float64
	dpi      int
	quantity int
}

// Execute runs one print job end to end.
func (o *Orchestrator) Execute(ctx context.Context, req Request) (*Result, error) {
	p, err := o.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	return o.run(ctx, req, p, "")
}

// Validate runs the pre-flight checks without entering the pipeline.
func (o *Orchestrator) Validate(ctx context.Context, req Request) error {
	_, err := o.prepare(ctx, req)
	return err
}

// Preview renders the job and resolves its artifact without dispatching
// anything or touching history.
func (o *Orchestrator) Preview(ctx context.Context, req Request) (*PreviewResult, error) {
	p, err := o.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	ref, reused, err := o.policy.Resolve(ctx, preview.ResolveRequest{
		ZPL:       p.rendered.ZPL,
		WidthIn:   p.widthIn,
		HeightIn:  p.heightIn,
		DPI:       p.dpi,
		CallerRef: req.PreviewFilename,
	})
	if err != nil {
		return nil, err
	}

	return &PreviewResult{
		Filename:  ref,
		Reused:    reused,
		ZPL:       p.rendered.ZPL,
		LabelSize: p.rendered.LabelSize,
		DPI:       p.dpi,
	}, nil
}

// Reprint re-runs an archived job. Unchanged variables reuse the archived
// ZPL and preview artifact byte for byte; changed variables re-render. The
// new attempt carries a reference to the source entry and traverses the
// same pipeline, so failed reprints are archived too.
func (o *Orchestrator) Reprint(ctx context.Context, entryID string, ov ReprintOverrides) (*Result, error) {
	src, err := o.history.Get(entryID)
	if err != nil {
		return nil, err
	}

	req := Request{
		Template:  src.Template,
		Variables: src.Variables,
		PrinterID: src.PrinterID,
		Quantity:  src.Quantity,
		User:      src.User,
	}
	if ov.PrinterID != 0 {
		req.PrinterID = ov.PrinterID
	}
	if ov.Quantity != 0 {
		req.Quantity = ov.Quantity
	}
	if ov.User != "" {
		req.User = ov.User
	}

	variablesChanged := ov.Variables != nil && !maps.Equal(ov.Variables, src.Variables)
	if variablesChanged {
		req.Variables = ov.Variables
	}

	if !variablesChanged && src.RenderedZPL != "" && src.LabelSize != "" {
		req.PreviewFilename = src.PreviewFilename
		rendered := &Rendered{
			ZPL:       src.RenderedZPL,
			LabelSize: src.LabelSize,
			Meta:      src.TemplateMetadata,
		}
		p, err := o.planFor(ctx, req, rendered)
		if err != nil {
			return nil, err
		}
		return o.run(ctx, req, p, src.ID)
	}

	p, err := o.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	return o.run(ctx, req, p, src.ID)
}

func (o *Orchestrator) prepare(ctx context.Context, req Request) (*plan, error) {
	rendered, err := o.renderer.Render(ctx, req.Template, req.Variables)
	if err != nil {
		return nil, err
	}
	return o.planFor(ctx, req, rendered)
}

func (o *Orchestrator) planFor(ctx context.Context, req Request, rendered *Rendered) (*plan, error) {
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 || quantity > printer.MaxCopies {
		return nil, fmt.Errorf("%w: %d (valid: 1-%d)", ErrInvalidQuantity, quantity, printer.MaxCopies)
	}

	target, err := o.printers(ctx, req.PrinterID)
	if err != nil {
		return nil, err
	}
	if !target.Enabled {
		return nil, fmt.Errorf("%w: %s", ErrPrinterDisabled, target.Name)
	}

	widthIn, heightIn, err := zpl.ParseSize(rendered.LabelSize)
	if err != nil {
		return nil, fmt.Errorf("template '%s' has invalid label size: %w", req.Template, err)
	}
	if !zpl.SizeSupported(target.Sizes, rendered.LabelSize, sizeTolerance) {
		return nil, fmt.Errorf("%w: %s does not take %s labels", ErrSizeMismatch, target.Name, rendered.LabelSize)
	}

	// The resolution is defaulted here, once, from the printer record;
	// everything downstream receives it explicitly.
	dpi := req.DPI
	if dpi == 0 {
		dpi = target.DPI
	}
	if dpi == 0 {
		dpi = preview.DefaultDPI
	}
	if _, err := preview.DPMMForDPI(dpi); err != nil {
		return nil, err
	}

	return &plan{
		target:   target,
		rendered: rendered,
		widthIn:  widthIn,
		heightIn: heightIn,
		dpi:      dpi,
		quantity: quantity,
	}, nil
}

func (o *Orchestrator) run(ctx context.Context, req Request, p *plan, reprintOf string) (*Result, error) {
	jobID := uuid.NewString()
	log := o.logger.With(
		zap.String("job_id", jobID),
		zap.String("template", req.Template),
		zap.Int64("printer_id", p.target.ID),
	)
	log.Debug("job state", zap.String("state", stateCreated))

	ref, reused, err := o.policy.Resolve(ctx, preview.ResolveRequest{
		ZPL:       p.rendered.ZPL,
		WidthIn:   p.widthIn,
		HeightIn:  p.heightIn,
		DPI:       p.dpi,
		CallerRef: req.PreviewFilename,
	})
	if err != nil {
		log.Warn("preview resolution failed", zap.Error(err))
		return o.fail(jobID, req, p, reprintOf, "", false, err)
	}
	log.Debug("job state", zap.String("state", statePreviewResolved),
		zap.String("preview", ref), zap.Bool("reused", reused))

	endpoint := printer.Endpoint(p.target.Host, p.target.Port)
	sent, err := o.transport.DispatchCopies(ctx, endpoint, []byte(p.rendered.ZPL), p.quantity)
	if err != nil {
		log.Warn("dispatch failed",
			zap.String("endpoint", endpoint),
			zap.Int("copies_sent", sent),
			zap.Error(err))
		return o.fail(jobID, req, p, reprintOf, ref, reused, err)
	}
	log.Debug("job state", zap.String("state", stateDispatched), zap.Int("copies", sent))

	entry := o.entry(jobID, req, p, reprintOf, ref)
	entry.Status = history.StatusSuccess
	saved, err := o.history.Append(entry)
	if err != nil {
		log.Error("printed but not logged", zap.Error(err))
		return &Result{
			JobID:           jobID,
			Status:          history.StatusFailed,
			PrinterName:     p.target.Name,
			Quantity:        p.quantity,
			PreviewFilename: ref,
			PreviewReused:   reused,
		}, fmt.Errorf("printed but not logged: %w", err)
	}

	if o.recordPrint != nil {
		if err := o.recordPrint(ctx, p.target.ID, p.quantity); err != nil {
			log.Warn("failed to update printer counters", zap.Error(err))
		}
	}

	log.Info("job succeeded",
		zap.String("state", stateSucceeded),
		zap.Int("quantity", p.quantity),
		zap.Bool("preview_reused", reused))
	return &Result{
		JobID:           jobID,
		Status:          history.StatusSuccess,
		PrinterName:     p.target.Name,
		Quantity:        p.quantity,
		PreviewFilename: ref,
		PreviewReused:   reused,
		Timestamp:       saved.Timestamp,
	}, nil
}

// fail archives the failed attempt and hands the cause back to the caller.
// An archive failure on this path is logged but does not mask the cause.
func (o *Orchestrator) fail(jobID string, req Request, p *plan, reprintOf, ref string, reused bool, cause error) (*Result, error) {
	entry := o.entry(jobID, req, p, reprintOf, ref)
	entry.Status = history.StatusFailed
	entry.ErrorMessage = cause.Error()

	saved, err := o.history.Append(entry)
	if err != nil {
		o.logger.Error("failed to record job failure",
			zap.String("job_id", jobID), zap.Error(err))
	}

	o.logger.Info("job failed",
		zap.String("job_id", jobID),
		zap.String("state", stateFailed),
		zap.Error(cause))
	return &Result{
		JobID:           jobID,
		Status:          history.StatusFailed,
		PrinterName:     p.target.Name,
		Quantity:        p.quantity,
		PreviewFilename: ref,
		PreviewReused:   reused,
		Timestamp:       saved.Timestamp,
	}, cause
}

func (o *Orchestrator) entry(jobID string, req Request, p *plan, reprintOf, ref string) history.Entry {
	return history.Entry{
		ID:               jobID,
		Template:         req.Template,
		TemplateMetadata: p.rendered.Meta,
		LabelSize:        p.rendered.LabelSize,
		PrinterID:        p.target.ID,
		PrinterName:      p.target.Name,
		Variables:        req.Variables,
		Quantity:         p.quantity,
		PreviewFilename:  ref,
		RenderedZPL:      p.rendered.ZPL,
		User:             req.User,
		ReprintOf:        reprintOf,
	}
}

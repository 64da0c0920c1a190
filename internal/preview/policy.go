package preview

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// ImageGenerator is the rendering capability the policy drives. The real
// implementation is *Generator; tests substitute counting fakes.
type ImageGenerator interface {
	Generate(ctx context.Context, zpl string, widthIn, heightIn float64, dpi int, format string) ([]byte, error)
}

// ResolveRequest carries everything the reuse decision depends on.
type ResolveRequest struct {
	ZPL       string
	WidthIn   float64
	HeightIn  float64
	DPI       int
	Format    string // empty means png
	CallerRef string
}

// Policy decides whether a job reuses an existing preview artifact or
// generates a new one. It owns the fingerprinting rule.
type Policy struct {
	store *Store
	gen   ImageGenerator
}

func NewPolicy(store *Store, gen ImageGenerator) *Policy {
	return &Policy{store: store, gen: gen}
}

// Fingerprint derives the content address for a rendered label: the same
// payload at the same physical size and resolution always maps to the same
// artifact.
func Fingerprint(zpl string, widthIn, heightIn float64, dpi int) string {
	h := sha256.New()
	io.WriteString(h, zpl)
	fmt.Fprintf(h, "|%gx%g|%d", widthIn, heightIn, dpi)
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// ArtifactName builds the stored filename for a fingerprint.
func ArtifactName(fingerprint, format string) string {
	return "preview_" + fingerprint + "." + format
}

// Resolve returns the artifact reference for a request and whether it was
// reused. A caller-supplied reference that exists wins outright, then a
// fingerprint match, and only then is the generator invoked.
func (p *Policy) Resolve(ctx context.Context, req ResolveRequest) (string, bool, error) {
	if req.CallerRef != "" && p.store.Exists(req.CallerRef) {
		return req.CallerRef, true, nil
	}

	format := req.Format
	if format == "" {
		format = FormatPNG
	}
	name := ArtifactName(Fingerprint(req.ZPL, req.WidthIn, req.HeightIn, req.DPI), format)
	if p.store.Exists(name) {
		return name, true, nil
	}

	data, err := p.gen.Generate(ctx, req.ZPL, req.WidthIn, req.HeightIn, req.DPI, format)
	if err != nil {
		return "", false, err
	}
	if err := p.store.Save(name, data); err != nil {
		return "", false, fmt.Errorf("failed to save preview artifact: %w", err)
	}
	return name, false, nil
}

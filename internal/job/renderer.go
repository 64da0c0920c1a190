package job

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ZenDevMaster/barcodecentral/internal/db"
	"github.com/ZenDevMaster/barcodecentral/internal/history"
	"github.com/ZenDevMaster/barcodecentral/internal/zpl"
)

var ErrTemplateNotFound = errors.New("template not found")

// Rendered is a dispatch-ready label: the final ZPL plus the descriptive
// bits that get archived with the job.
type Rendered struct {
	ZPL       string
	LabelSize string
	Meta      *history.TemplateMeta
}

// Renderer turns a stored template and its variables into dispatchable ZPL.
type Renderer interface {
	Render(ctx context.Context, template string, variables map[string]string) (*Rendered, error)
}

// RegistryRenderer renders templates out of the registry database.
type RegistryRenderer struct{}

func (RegistryRenderer) Render(ctx context.Context, name string, variables map[string]string) (*Rendered, error) {
	tmpl, err := db.Templates.GetTemplateByName(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load template '%s': %w", name, err)
	}

	out, err := zpl.NewRenderer().Render(tmpl.ZPLSource, variables)
	if err != nil {
		return nil, fmt.Errorf("failed to render template '%s': %w", name, err)
	}

	return &Rendered{
		ZPL:       out,
		LabelSize: tmpl.LabelSize,
		Meta:      &history.TemplateMeta{Name: tmpl.Name, Size: tmpl.LabelSize},
	}, nil
}

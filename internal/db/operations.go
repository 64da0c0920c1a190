package db

import (
	"context"
	"database/sql"
	"fmt"
)

type PrinterOperations struct{}

func (o *PrinterOperations) CreatePrinter(ctx context.Context, p *Printer) error {
	result, err := GetDB().ExecContext(ctx, InsertPrinter,
		p.Name, p.IPAddress, p.Port, p.DPI, p.SizesJSON, p.Enabled)
	if err != nil {
		return fmt.Errorf("failed to create printer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get printer id: %w", err)
	}
	p.ID = id
	return nil
}

func (o *PrinterOperations) GetPrinterByID(ctx context.Context, id int64) (*Printer, error) {
	p := &Printer{}
	err := GetDB().QueryRowContext(ctx, GetPrinterByID, id).Scan(
		&p.ID, &p.Name, &p.IPAddress, &p.Port, &p.DPI,
		&p.SizesJSON, &p.Enabled, &p.LastSeenAt, &p.TotalPrints,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get printer: %w", err)
	}
	return p, nil
}

func (o *PrinterOperations) GetPrinterByName(ctx context.Context, name string) (*Printer, error) {
	p := &Printer{}
	err := GetDB().QueryRowContext(ctx, GetPrinterByName, name).Scan(
		&p.ID, &p.Name, &p.IPAddress, &p.Port, &p.DPI,
		&p.SizesJSON, &p.Enabled, &p.LastSeenAt, &p.TotalPrints,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get printer by name: %w", err)
	}
	return p, nil
}

func (o *PrinterOperations) ListPrinters(ctx context.Context) ([]*Printer, error) {
	rows, err := GetDB().QueryContext(ctx, ListPrinters)
	if err != nil {
		return nil, fmt.Errorf("failed to list printers: %w", err)
	}
	defer rows.Close()

	var printers []*Printer
	for rows.Next() {
		p := &Printer{}
		if err := rows.Scan(
			&p.ID, &p.Name, &p.IPAddress, &p.Port, &p.DPI,
			&p.SizesJSON, &p.Enabled, &p.LastSeenAt, &p.TotalPrints,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan printer: %w", err)
		}
		printers = append(printers, p)
	}
	return printers, rows.Err()
}

func (o *PrinterOperations) UpdatePrinter(ctx context.Context, p *Printer) error {
	_, err := GetDB().ExecContext(ctx, UpdatePrinter,
		p.Name, p.IPAddress, p.Port, p.DPI, p.SizesJSON, p.Enabled, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update printer: %w", err)
	}
	return nil
}

func (o *PrinterOperations) UpdateLastSeen(ctx context.Context, id int64) error {
	_, err := GetDB().ExecContext(ctx, UpdatePrinterLastSeen, id)
	if err != nil {
		return fmt.Errorf("failed to update last seen: %w", err)
	}
	return nil
}

func (o *PrinterOperations) IncrementPrintCount(ctx context.Context, id int64, copies int) error {
	_, err := GetDB().ExecContext(ctx, IncrementPrinterPrints, copies, id)
	if err != nil {
		return fmt.Errorf("failed to increment print count: %w", err)
	}
	return nil
}

func (o *PrinterOperations) DeletePrinter(ctx context.Context, id int64) error {
	_, err := GetDB().ExecContext(ctx, DeletePrinter, id)
	if err != nil {
		return fmt.Errorf("failed to delete printer: %w", err)
	}
	return nil
}

type TemplateOperations struct{}

func (o *TemplateOperations) CreateTemplate(ctx context.Context, t *LabelTemplate) error {
	result, err := GetDB().ExecContext(ctx, InsertTemplate,
		t.Name, t.Description, t.ZPLSource, t.LabelSize)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get template id: %w", err)
	}
	t.ID = id
	return nil
}

func (o *TemplateOperations) GetTemplateByID(ctx context.Context, id int64) (*LabelTemplate, error) {
	t := &LabelTemplate{}
	err := GetDB().QueryRowContext(ctx, GetTemplateByID, id).Scan(
		&t.ID, &t.Name, &t.Description, &t.ZPLSource,
		&t.LabelSize, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return t, nil
}

func (o *TemplateOperations) GetTemplateByName(ctx context.Context, name string) (*LabelTemplate, error) {
	t := &LabelTemplate{}
	err := GetDB().QueryRowContext(ctx, GetTemplateByName, name).Scan(
		&t.ID, &t.Name, &t.Description, &t.ZPLSource,
		&t.LabelSize, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get template by name: %w", err)
	}
	return t, nil
}

func (o *TemplateOperations) ListTemplates(ctx context.Context) ([]*LabelTemplate, error) {
	rows, err := GetDB().QueryContext(ctx, ListTemplates)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*LabelTemplate
	for rows.Next() {
		t := &LabelTemplate{}
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Description, &t.ZPLSource,
			&t.LabelSize, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (o *TemplateOperations) UpdateTemplate(ctx context.Context, t *LabelTemplate) error {
	_, err := GetDB().ExecContext(ctx, UpdateTemplate,
		t.Name, t.Description, t.ZPLSource, t.LabelSize, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	return nil
}

func (o *TemplateOperations) DeleteTemplate(ctx context.Context, id int64) error {
	_, err := GetDB().ExecContext(ctx, DeleteTemplate, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}

type SettingsOperations struct{}

func (o *SettingsOperations) GetSetting(ctx context.Context, key string) (*Setting, error) {
	s := &Setting{Key: key}
	err := GetDB().QueryRowContext(ctx, GetSetting, key).Scan(&s.Value, &s.Encrypted)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return s, nil
}

func (o *SettingsOperations) SetSetting(ctx context.Context, key, value string, encrypted bool) error {
	_, err := GetDB().ExecContext(ctx, SetSetting, key, value, encrypted, value, encrypted)
	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}

func (o *SettingsOperations) DeleteSetting(ctx context.Context, key string) error {
	_, err := GetDB().ExecContext(ctx, DeleteSetting, key)
	if err != nil {
		return fmt.Errorf("failed to delete setting: %w", err)
	}
	return nil
}

var (
	Printers  = &PrinterOperations{}
	Templates = &TemplateOperations{}
	Settings  = &SettingsOperations{}
)

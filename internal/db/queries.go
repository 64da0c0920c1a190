package db

const (
	InsertPrinter = `
		INSERT INTO printers (name, ip_address, port, dpi, sizes_json, enabled)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	GetPrinterByID = `
		SELECT id, name, ip_address, port, dpi, sizes_json, enabled, last_seen_at, total_prints, created_at, updated_at
		FROM printers WHERE id = ?
	`

	GetPrinterByName = `
		SELECT id, name, ip_address, port, dpi, sizes_json, enabled, last_seen_at, total_prints, created_at, updated_at
		FROM printers WHERE name = ?
	`

	ListPrinters = `
		SELECT id, name, ip_address, port, dpi, sizes_json, enabled, last_seen_at, total_prints, created_at, updated_at
		FROM printers ORDER BY name ASC
	`

	UpdatePrinter = `
		UPDATE printers SET
			name = ?, ip_address = ?, port = ?, dpi = ?, sizes_json = ?, enabled = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	UpdatePrinterLastSeen = `
		UPDATE printers SET last_seen_at = CURRENT_TIMESTAMP WHERE id = ?
	`

	IncrementPrinterPrints = `
		UPDATE printers SET total_prints = total_prints + ?, last_seen_at = CURRENT_TIMESTAMP WHERE id = ?
	`

	DeletePrinter = `DELETE FROM printers WHERE id = ?`
)

const (
	InsertTemplate = `
		INSERT INTO label_templates (name, description, zpl_source, label_size)
		VALUES (?, ?, ?, ?)
	`

	GetTemplateByID = `
		SELECT id, name, description, zpl_source, label_size, created_at, updated_at
		FROM label_templates WHERE id = ?
	`

	GetTemplateByName = `
		SELECT id, name, description, zpl_source, label_size, created_at, updated_at
		FROM label_templates WHERE name = ?
	`

	ListTemplates = `
		SELECT id, name, description, zpl_source, label_size, created_at, updated_at
		FROM label_templates ORDER BY name ASC
	`

	UpdateTemplate = `
		UPDATE label_templates SET
			name = ?, description = ?, zpl_source = ?, label_size = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	DeleteTemplate = `DELETE FROM label_templates WHERE id = ?`
)

const (
	GetSetting = `SELECT value, encrypted FROM settings WHERE key = ?`

	SetSetting = `
		INSERT INTO settings (key, value, encrypted, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = ?, encrypted = ?, updated_at = CURRENT_TIMESTAMP
	`

	DeleteSetting = `DELETE FROM settings WHERE key = ?`
)

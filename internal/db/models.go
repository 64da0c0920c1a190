package db

import (
	"encoding/json"
	"time"
)

type Printer struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	IPAddress   string     `json:"ip_address"`
	Port        int        `json:"port"`
	DPI         int        `json:"dpi"`
	SizesJSON   string     `json:"sizes_json"`
	Enabled     bool       `json:"enabled"`
	LastSeenAt  *time.Time `json:"last_seen_at"`
	TotalPrints int64      `json:"total_prints"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// SupportedSizes decodes the sizes_json column. An empty or invalid
// column means the printer accepts any label size.
func (p *Printer) SupportedSizes() []string {
	if p.SizesJSON == "" {
		return nil
	}
	var sizes []string
	if err := json.Unmarshal([]byte(p.SizesJSON), &sizes); err != nil {
		return nil
	}
	return sizes
}

type LabelTemplate struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ZPLSource   string    `json:"zpl_source"`
	LabelSize   string    `json:"label_size"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Encrypted bool      `json:"encrypted"`
	UpdatedAt time.Time `json:"updated_at"`
}

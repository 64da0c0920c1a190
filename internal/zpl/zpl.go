package zpl

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ErrMissingVariable = errors.New("missing template variable")

var placeholderRe = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// Metadata holds the ^FX header fields a template may declare.
type Metadata struct {
	Name        string
	Description string
	Size        string
	Variables   []string
}

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render substitutes {{variable}} placeholders in the template source.
// Every placeholder must have a binding; a missing one is an error so a
// half-filled label can never reach a printer.
func (r *Renderer) Render(source string, variables map[string]string) (string, error) {
	var missing []string
	result := placeholderRe.ReplaceAllStringFunc(source, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		value, ok := variables[name]
		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: '%s'", ErrMissingVariable, missing[0])
	}
	return result, nil
}

// ExtractVariables returns the unique placeholder names in order of first
// appearance.
func ExtractVariables(source string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, match := range placeholderRe.FindAllStringSubmatch(source, -1) {
		name := match[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// ParseMetadata reads ^FX comment headers of the form "^FX key: value".
func ParseMetadata(source string) Metadata {
	var meta Metadata
	for _, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "^FX") {
			continue
		}
		rest := strings.TrimSpace(strings.TrimPrefix(line, "^FX"))
		idx := strings.Index(rest, ":")
		if idx < 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(rest[:idx]))
		value := strings.TrimSpace(rest[idx+1:])
		switch key {
		case "name":
			meta.Name = value
		case "description":
			meta.Description = value
		case "size":
			meta.Size = value
		case "variables":
			for _, v := range strings.Split(value, ",") {
				if v = strings.TrimSpace(v); v != "" {
					meta.Variables = append(meta.Variables, v)
				}
			}
		}
	}
	return meta
}

// ValidateContent checks the label is a complete ZPL frame.
func ValidateContent(source string) error {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return fmt.Errorf("template content is empty")
	}
	if !strings.HasPrefix(trimmed, "^XA") {
		return fmt.Errorf("template must start with ^XA")
	}
	if !strings.HasSuffix(trimmed, "^XZ") {
		return fmt.Errorf("template must end with ^XZ")
	}
	return nil
}

// ParseSize parses a label size like "4x6" into width and height in inches.
func ParseSize(size string) (float64, float64, error) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(size)), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid label size: %s (expected WIDTHxHEIGHT)", size)
	}
	width, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid label width: %s", parts[0])
	}
	height, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid label height: %s", parts[1])
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("label dimensions must be positive: %s", size)
	}
	return width, height, nil
}

// SizeSupported reports whether a size matches one of the printer's
// supported sizes within tolerance. An empty list accepts anything.
func SizeSupported(supported []string, size string, tolerance float64) bool {
	if len(supported) == 0 {
		return true
	}
	w, h, err := ParseSize(size)
	if err != nil {
		return false
	}
	for _, s := range supported {
		sw, sh, err := ParseSize(s)
		if err != nil {
			continue
		}
		if abs(sw-w) <= tolerance && abs(sh-h) <= tolerance {
			return true
		}
	}
	return false
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

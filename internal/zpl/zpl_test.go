package zpl

import (
	"errors"
	"strings"
	"testing"
)

const sampleTemplate = `^XA
^FX name: Shipping Label
^FX description: Standard shipping label
^FX size: 4x6
^FX variables: order_id, recipient
^FO50,50^A0N,30,30^FD{{order_id}}^FS
^FO50,100^A0N,30,30^FD{{recipient}}^FS
^XZ`

func TestRenderSubstitutesVariables(t *testing.T) {
	r := NewRenderer()
	out, err := r.Render(sampleTemplate, map[string]string{
		"order_id":  "ORD-1234",
		"recipient": "Pat Smith",
	})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if !strings.Contains(out, "ORD-1234") {
		t.Errorf("rendered output missing order_id value")
	}
	if !strings.Contains(out, "Pat Smith") {
		t.Errorf("rendered output missing recipient value")
	}
	if strings.Contains(out, "{{") {
		t.Errorf("rendered output still contains placeholders: %s", out)
	}
}

func TestRenderMissingVariable(t *testing.T) {
	r := NewRenderer()
	_, err := r.Render(sampleTemplate, map[string]string{"order_id": "ORD-1"})
	if err == nil {
		t.Fatal("expected error for missing variable, got nil")
	}
	if !errors.Is(err, ErrMissingVariable) {
		t.Errorf("err = %v, want ErrMissingVariable", err)
	}
	if !strings.Contains(err.Error(), "recipient") {
		t.Errorf("error should name the missing variable, got: %v", err)
	}
}

func TestRenderAllowsEmptyValue(t *testing.T) {
	r := NewRenderer()
	out, err := r.Render("^XA^FD{{note}}^FS^XZ", map[string]string{"note": ""})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if out != "^XA^FD^FS^XZ" {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestExtractVariables(t *testing.T) {
	vars := ExtractVariables("^XA^FD{{a}}^FS^FD{{b}}^FS^FD{{a}}^FS^XZ")
	if len(vars) != 2 {
		t.Fatalf("expected 2 unique variables, got %d: %v", len(vars), vars)
	}
	if vars[0] != "a" || vars[1] != "b" {
		t.Errorf("expected first-appearance order [a b], got %v", vars)
	}
}

func TestParseMetadata(t *testing.T) {
	meta := ParseMetadata(sampleTemplate)
	if meta.Name != "Shipping Label" {
		t.Errorf("name = %q", meta.Name)
	}
	if meta.Description != "Standard shipping label" {
		t.Errorf("description = %q", meta.Description)
	}
	if meta.Size != "4x6" {
		t.Errorf("size = %q", meta.Size)
	}
	if len(meta.Variables) != 2 || meta.Variables[0] != "order_id" || meta.Variables[1] != "recipient" {
		t.Errorf("variables = %v", meta.Variables)
	}
}

func TestValidateContent(t *testing.T) {
	if err := ValidateContent(sampleTemplate); err != nil {
		t.Errorf("valid template rejected: %v", err)
	}
	if err := ValidateContent(""); err == nil {
		t.Error("empty content accepted")
	}
	if err := ValidateContent("^FD no frame ^FS"); err == nil {
		t.Error("frameless content accepted")
	}
	if err := ValidateContent("^XA^FDunclosed"); err == nil {
		t.Error("unterminated frame accepted")
	}
}

func TestParseSize(t *testing.T) {
	w, h, err := ParseSize("4x6")
	if err != nil {
		t.Fatalf("ParseSize: %v", err)
	}
	if w != 4 || h != 6 {
		t.Errorf("got %gx%g, want 4x6", w, h)
	}

	if _, _, err := ParseSize("4by6"); err == nil {
		t.Error("malformed size accepted")
	}
	if _, _, err := ParseSize("0x6"); err == nil {
		t.Error("zero dimension accepted")
	}
	if _, _, err := ParseSize("-2x4"); err == nil {
		t.Error("negative dimension accepted")
	}
}

func TestSizeSupported(t *testing.T) {
	supported := []string{"4x6", "2.25x1.25"}

	if !SizeSupported(supported, "4x6", 0.1) {
		t.Error("exact match rejected")
	}
	if !SizeSupported(supported, "4.05x6.05", 0.1) {
		t.Error("within-tolerance match rejected")
	}
	if SizeSupported(supported, "3x5", 0.1) {
		t.Error("unsupported size accepted")
	}
	if !SizeSupported(nil, "9x9", 0.1) {
		t.Error("empty list should accept any size")
	}
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// printer writes values as JSON lines or as a stream of YAML documents.
type printer struct {
	json *json.Encoder
	yaml *yaml.Encoder
}

func newPrinter(out io.Writer, format string) (*printer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "":
		return &printer{json: json.NewEncoder(out)}, nil
	case "yaml", "yml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		return &printer{yaml: enc}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q (supported: json, yaml)", format)
	}
}

// Print writes one value. Each value is a separate JSON line or YAML document.
func (p *printer) Print(v any) error {
	if p.yaml != nil {
		return p.yaml.Encode(v)
	}
	return p.json.Encode(v)
}

// Close flushes a YAML stream.
func (p *printer) Close() error {
	if p.yaml != nil {
		return p.yaml.Close()
	}
	return nil
}

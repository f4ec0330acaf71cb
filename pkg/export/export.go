// Package export serialises a form definition for download. JSON is the
// canonical format and writes the element collection exactly as it is
// persisted; YAML carries the same shape; OpenAPI describes the submission the
// form would send.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// Format selects an export encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatOpenAPI Format = "openapi"
)

// FileName is the download name of the JSON export.
const FileName = "form-data.json"

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatOpenAPI}
}

// ParseFormat normalises a user supplied format name. The empty string
// selects JSON.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "openapi", "oas":
		return FormatOpenAPI, nil
	default:
		return "", fmt.Errorf("export: unsupported format %q", raw)
	}
}

// Artifact is an encoded export ready to be written or served.
type Artifact struct {
	Format      Format
	ContentType string
	FileName    string
	Data        []byte
}

// Options tune Render.
type Options struct {
	Info Info
}

// Render encodes elements in the requested format.
func Render(ctx context.Context, format Format, elements []model.Element, opts Options) (Artifact, error) {
	switch format {
	case FormatJSON, "":
		data, err := JSON(elements)
		if err != nil {
			return Artifact{}, err
		}
		return Artifact{Format: FormatJSON, ContentType: "application/json", FileName: FileName, Data: data}, nil
	case FormatYAML:
		data, err := YAML(elements)
		if err != nil {
			return Artifact{}, err
		}
		return Artifact{Format: FormatYAML, ContentType: "application/yaml", FileName: "form-data.yaml", Data: data}, nil
	case FormatOpenAPI:
		doc, err := OpenAPI(ctx, elements, opts.Info)
		if err != nil {
			return Artifact{}, err
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return Artifact{}, fmt.Errorf("export: encode openapi: %w", err)
		}
		return Artifact{Format: FormatOpenAPI, ContentType: "application/json", FileName: "form-openapi.json", Data: data}, nil
	default:
		return Artifact{}, fmt.Errorf("export: unsupported format %q", format)
	}
}

// JSON pretty prints the collection with two-space indentation.
func JSON(elements []model.Element) ([]byte, error) {
	if elements == nil {
		elements = []model.Element{}
	}
	data, err := json.MarshalIndent(elements, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: encode json: %w", err)
	}
	return data, nil
}

// YAML encodes the collection with the same field layout as JSON.
func YAML(elements []model.Element) ([]byte, error) {
	raw, err := JSON(elements)
	if err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("export: convert to yaml: %w", err)
	}
	resetStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("export: encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("export: encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// resetStyle drops the flow and quoting styles inherited from the JSON
// source so the encoder picks block style.
func resetStyle(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		resetStyle(child)
	}
}

// ParseJSON decodes a JSON export back into a collection and checks the
// collection invariants.
func ParseJSON(data []byte) ([]model.Element, error) {
	var elements []model.Element
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, fmt.Errorf("export: decode json: %w", err)
	}
	if err := model.ValidateCollection(elements); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return elements, nil
}

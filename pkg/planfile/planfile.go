// Package planfile reads and writes floor plans as JSON or YAML files.
//
// A plan file is a plain rendition of the engine's own structures — a
// document with a "spaces" list and optional "walls" defaults — not an owned
// format. The serialization is chosen by file extension: .json, .yaml, .yml.
package planfile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/floorsmith/pkg/errors"
	"github.com/matzehuels/floorsmith/pkg/plan"
)

// Document is the on-disk shape of a floor plan.
type Document struct {
	Spaces []plan.Space       `json:"spaces" yaml:"spaces"`
	Walls  *plan.WallSettings `json:"walls,omitempty" yaml:"walls,omitempty"`
}

// WallSettings returns the document's wall defaults, falling back to the
// engine defaults when the file omits them.
func (d *Document) WallSettings() plan.WallSettings {
	if d.Walls == nil || d.Walls.Thickness <= 0 {
		return plan.DefaultWallSettings()
	}
	return *d.Walls
}

// Read decodes a document from r in the given format ("json" or "yaml").
func Read(r io.Reader, format string) (*Document, error) {
	var doc Document
	switch format {
	case "json":
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decoding JSON plan")
		}
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decoding YAML plan")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported plan format %q", format)
	}

	if err := checkKeys(doc.Spaces); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Write encodes a document to w in the given format.
func Write(w io.Writer, doc *Document, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported plan format %q", format)
	}
}

// Load reads a plan file at path, picking the format from the extension.
func Load(path string) (*Document, error) {
	format, err := Format(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := Read(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Save writes a plan file at path, picking the format from the extension.
func Save(path string, doc *Document) error {
	format, err := Format(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(f, doc, format)
}

// Format maps a file extension to a plan format name.
func Format(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json", nil
	case ".yaml":
		return "yaml", nil
	case ".yml":
		return "yml", nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat,
			"cannot infer plan format from %q; use a .json, .yaml, or .yml extension", filepath.Base(path))
	}
}

// checkKeys rejects documents with missing or duplicate identity keys so the
// failure surfaces at load time instead of deep inside a command.
func checkKeys(spaces []plan.Space) error {
	seen := make(map[string]bool, len(spaces))
	for i := range spaces {
		key := spaces[i].Key()
		if key == "" {
			return errors.New(errors.ErrCodeInvalidInput, "space %d has neither code nor name", i)
		}
		if seen[key] {
			return errors.New(errors.ErrCodeDuplicateSpace, "duplicate space identity %q", key)
		}
		seen[key] = true
	}
	return nil
}

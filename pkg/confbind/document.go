package confbind

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format names a structured document format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatHCL  Format = "hcl"
	FormatJSON Format = "json"
)

var errNotMapping = errors.New("document does not hold a mapping")

// ParseFormat validates a format name given by a user (case-insensitive,
// "yml" accepted as an alias for YAML).
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	case "hcl":
		return FormatHCL, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (must be 'yaml', 'toml', 'hcl' or 'json')", name)
	}
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot infer document format of %s: no file extension", path)
	}
	return ParseFormat(ext)
}

// DecodeRecord reads one document in format from r and returns its top-level mapping.
// Decoding failures are reported as *DocumentParseError.
func DecodeRecord(r io.Reader, format Format) (Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return decodeBytes(data, format, "")
}

// LoadRecord reads the document at path, choosing the format by extension.
func LoadRecord(path string) (Record, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	return LoadRecordAs(path, format)
}

// LoadRecordAs reads the document at path in the given format.
func LoadRecordAs(path string, format Format) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return decodeBytes(data, format, path)
}

func decodeBytes(data []byte, format Format, source string) (Record, error) {
	var (
		rec Record
		err error
	)
	switch format {
	case FormatYAML:
		rec, err = recordFrom(decodeYAML(data))
	case FormatTOML:
		rec, err = recordFrom(decodeTOML(data))
	case FormatJSON:
		rec, err = recordFrom(decodeJSON(data))
	case FormatHCL:
		rec, err = decodeHCL(data, source)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, &DocumentParseError{Format: format, Source: source, Err: err}
	}
	return rec, nil
}

func recordFrom(m map[string]any, err error) (Record, error) {
	if err != nil {
		return nil, err
	}
	return RecordFromMap(m)
}

func decodeYAML(data []byte) (map[string]any, error) {
	var m map[string]any
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty document: %w", errNotMapping)
		}
		return nil, err
	}
	if m == nil {
		return nil, errNotMapping
	}
	return m, nil
}

func decodeTOML(data []byte) (map[string]any, error) {
	m := make(map[string]any)
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeJSON(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty document: %w", errNotMapping)
		}
		return nil, err
	}
	if m == nil {
		return nil, errNotMapping
	}
	return m, nil
}

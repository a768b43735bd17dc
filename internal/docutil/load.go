package docutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"go.yaml.in/yaml/v4"
)

// MaxFileSize is the maximum size (in bytes) accepted for schema and document files.
const MaxFileSize = 10 * 1024 * 1024 // 10MB

// Format identifies a serialisation format.
type Format string

const (
	// FormatJSON is JSON
	FormatJSON Format = "json"
	// FormatYAML is YAML (also accepts JSON input)
	FormatYAML Format = "yaml"
)

// FormatForPath picks a format from a file extension. Unknown extensions are YAML,
// since the YAML decoder also reads JSON.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// DetectFormat guesses the format of raw content.
func DetectFormat(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatYAML
}

// Decode parses data in the given format and normalises the result.
func Decode(data []byte, format Format) (any, error) {
	var raw any
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decoding json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decoding yaml: %w", err)
		}
	}
	return Normalize(raw)
}

// LoadFile reads and decodes a document or schema file.
func LoadFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxFileSize {
		return nil, fmt.Errorf("file %s exceeds maximum size limit (%d bytes): file is %d bytes",
			path, MaxFileSize, len(data))
	}
	return Decode(data, FormatForPath(path))
}

// LoadMap is LoadFile for files whose top level must be a mapping.
func LoadMap(path string) (map[string]any, error) {
	v, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("top level is %T, not a mapping", v)
	}
	return m, nil
}

// Marshal encodes a value tree. JSON output is indented.
func Marshal(v any, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(v, "", "  ")
	case FormatYAML:
		return yaml.Marshal(v)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

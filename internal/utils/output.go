package utils

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Output formats for machine-readable command output
const (
	FormatText = ""
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// OutputTo prints data to w in the given format. FormatText returns false
// so the caller can render its own human-readable view. YAML output follows
// the JSON field names and custom JSON marshalers of data.
func OutputTo(w io.Writer, format string, data interface{}) (bool, error) {
	switch format {
	case FormatJSON:
		out, err := MarshalJSON(data)
		if err != nil {
			return true, err
		}
		_, err = fmt.Fprintln(w, string(out))
		return true, err
	case FormatYAML:
		generic, err := viaJSON(data)
		if err != nil {
			return true, err
		}
		out, err := MarshalYAML(generic)
		if err != nil {
			return true, err
		}
		_, err = w.Write(out)
		return true, err
	case FormatText:
		return false, nil
	default:
		return false, fmt.Errorf("unknown output format %q", format)
	}
}

func viaJSON(data interface{}) (interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	return generic, nil
}

// MarshalJSON marshals the provided data as indented JSON.
// Returns the JSON bytes or an error if marshaling fails.
func MarshalJSON(data interface{}) ([]byte, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return jsonData, nil
}

// MarshalYAML marshals the provided data as YAML.
// Returns the YAML bytes or an error if marshaling fails.
func MarshalYAML(data interface{}) ([]byte, error) {
	yamlData, err := yaml.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return yamlData, nil
}

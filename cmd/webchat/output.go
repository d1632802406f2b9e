package main

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// renderStructured prints v as json or yaml. Commands handle their own text
// rendering and only delegate here for the structured formats.
func renderStructured(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(v); err != nil {
			return errors.Wrap(err, "encode json output")
		}
		return nil

	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer func(encoder *yaml.Encoder) {
			_ = encoder.Close()
		}(encoder)
		if err := encoder.Encode(v); err != nil {
			return errors.Wrap(err, "encode yaml output")
		}
		return nil

	default:
		return errors.Errorf("unknown output format %s", format)
	}
}

package scheme

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"themedmark/model"
)

type document struct {
	Schemes []model.ColorScheme `yaml:"schemes"`
}

// ExportYAML writes schemes without their IDs, which are local to one registry.
func ExportYAML(w io.Writer, schemes []model.ColorScheme) error {
	doc := document{Schemes: make([]model.ColorScheme, len(schemes))}
	for i, s := range schemes {
		s.ID = ""
		doc.Schemes[i] = s
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode schemes: %w", err)
	}
	return enc.Close()
}

// ImportYAML reads and validates a scheme list written by ExportYAML.
func ImportYAML(r io.Reader) ([]model.ColorScheme, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode schemes: %w", err)
	}
	for i, s := range doc.Schemes {
		if err := Validate(normalize(s)); err != nil {
			return nil, fmt.Errorf("scheme %d: %w", i+1, err)
		}
	}
	return doc.Schemes, nil
}

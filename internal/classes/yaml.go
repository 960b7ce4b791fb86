package classes

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/theSKAILab/TART/internal/engine/token"
)

// yamlFile is the layout of a class file:
//
//	classes:
//	  - id: 1
//	    name: PERSON
//	    color: red-11
type yamlFile struct {
	Classes []token.LabelClass `yaml:"classes"`
}

// DecodeYAML reads classes from a YAML class file.
func DecodeYAML(r io.Reader) ([]token.LabelClass, error) {
	var f yamlFile
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode class file: %w", err)
	}
	return f.Classes, nil
}

// EncodeYAML writes classes as a YAML class file.
func EncodeYAML(w io.Writer, classes []token.LabelClass) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlFile{Classes: classes}); err != nil {
		return fmt.Errorf("encode class file: %w", err)
	}
	return enc.Close()
}

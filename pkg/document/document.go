package document

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/schema"
)

// Document is the decoded form of a prompt document.
type Document struct {
	Name        string       `mapstructure:"name"`
	Description string       `mapstructure:"description"`
	System      any          `mapstructure:"system"`
	Body        any          `mapstructure:"body"`
	Actions     []ActionSpec `mapstructure:"actions"`
	// Content is free text appended to the body as a paragraph, e.g. a markdown body.
	Content string `mapstructure:"content"`
}

// ActionSpec declares an action and the executor that runs it.
type ActionSpec struct {
	Name        string         `mapstructure:"name"`
	Description string         `mapstructure:"description"`
	Executor    string         `mapstructure:"executor"`
	Parameters  map[string]any `mapstructure:"parameters"`
	Inline      bool           `mapstructure:"inline"`
}

// Parse decodes a document. Unknown top-level fields are rejected.
func Parse(data []byte) (*Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)
	}
	return Decode(raw)
}

// Decode decodes a document from generic data, such as parsed frontmatter.
func Decode(raw map[string]any) (*Document, error) {
	var doc Document
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &doc,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)
	}
	for i, a := range doc.Actions {
		if a.Name == "" {
			return nil, fmt.Errorf("%w: actions[%d] missing name", domain.ErrInvalidDocument, i)
		}
	}
	return &doc, nil
}

// Schema returns the parameter schema of the action.
func (a ActionSpec) Schema() (schema.Schema, error) {
	if len(a.Parameters) == 0 {
		return nil, nil
	}
	s, err := schema.ParseMap(a.Parameters)
	if err != nil {
		return nil, fmt.Errorf("action %s: %w", a.Name, err)
	}
	return s, nil
}

package openapi

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formkit/pkg/model"
)

// ErrUnknownOverlayField is returned when an overlay names a field the
// request body does not declare.
var ErrUnknownOverlayField = errors.New("openapi: overlay references unknown field")

// Overlays holds UI overrides keyed by operation id. They take precedence
// over x-formgen extensions so presentation can change without touching the
// API document.
type Overlays struct {
	Operations map[string]FormOverlay `json:"operations" yaml:"operations"`
}

// FormOverlay overrides form level metadata and individual fields.
type FormOverlay struct {
	Title       string                  `json:"title,omitempty" yaml:"title,omitempty"`
	Description string                  `json:"description,omitempty" yaml:"description,omitempty"`
	Layout      *model.LayoutDescriptor `json:"layout,omitempty" yaml:"layout,omitempty"`
	Fields      map[string]FieldOverlay `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// FieldOverlay overrides the presentation of one field. Empty values keep
// what the schema declares.
type FieldOverlay struct {
	Label       string             `json:"label,omitempty" yaml:"label,omitempty"`
	Placeholder string             `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	HelpText    string             `json:"helpText,omitempty" yaml:"helpText,omitempty"`
	Widget      string             `json:"widget,omitempty" yaml:"widget,omitempty"`
	Layout      *model.LayoutHints `json:"layout,omitempty" yaml:"layout,omitempty"`
}

// ParseOverlays decodes an overlay document, trying JSON first and YAML
// second.
func ParseOverlays(data []byte, source string) (*Overlays, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("openapi: overlay %s is empty", source)
	}
	var doc Overlays
	if err := json.Unmarshal(data, &doc); err != nil {
		doc = Overlays{}
		if yamlErr := yaml.Unmarshal(data, &doc); yamlErr != nil {
			return nil, fmt.Errorf("openapi: parse overlay %s: invalid JSON or YAML", source)
		}
	}
	for id := range doc.Operations {
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("openapi: overlay %s defines an empty operation id", source)
		}
	}
	return &doc, nil
}

// Operation returns the overlay of operation id.
func (o *Overlays) Operation(id string) (FormOverlay, bool) {
	if o == nil {
		return FormOverlay{}, false
	}
	overlay, ok := o.Operations[id]
	return overlay, ok
}

// WithOverlay applies overlay to the generated form.
func WithOverlay(overlay FormOverlay) Option {
	return func(o *options) {
		o.overlay = &overlay
	}
}

func (f FormOverlay) apply(fields []model.FieldSpec, layout model.LayoutDescriptor) ([]model.FieldSpec, model.LayoutDescriptor, error) {
	if f.Layout != nil {
		sections := layout.Sections
		layout = *f.Layout
		for _, section := range sections {
			layout = ensureSection(layout, section.ID)
		}
	}

	index := make(map[string]int, len(fields))
	for i, field := range fields {
		index[field.Name] = i
	}
	for name, override := range f.Fields {
		i, ok := index[name]
		if !ok {
			return nil, layout, fmt.Errorf("%w: %q", ErrUnknownOverlayField, name)
		}
		field := &fields[i]
		if override.Label != "" {
			field.Label = override.Label
		}
		if override.Placeholder != "" {
			field.Placeholder = override.Placeholder
		}
		if override.HelpText != "" {
			field.Help = override.HelpText
		}
		if override.Widget != "" {
			field.Widget = override.Widget
		}
		if override.Layout != nil {
			field.Layout = *override.Layout
			layout = ensureSection(layout, field.Layout.Section)
		}
	}
	return fields, layout, nil
}

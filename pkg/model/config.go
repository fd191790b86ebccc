package model

import (
	"github.com/goliatone/go-formkit/pkg/schema"
)

// FormConfig is the document form of a FormSpec.
type FormConfig struct {
	ID          string           `json:"id" yaml:"id"`
	Title       string           `json:"title,omitempty" yaml:"title,omitempty"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Layout      LayoutDescriptor `json:"layout,omitempty" yaml:"layout,omitempty"`
	Fields      []FieldConfig    `json:"fields" yaml:"fields"`
}

// FieldConfig is the document form of a FieldSpec. Loader names an option
// loader resolved at build time or later by the controller.
type FieldConfig struct {
	Name        string        `json:"name" yaml:"name"`
	Label       string        `json:"label,omitempty" yaml:"label,omitempty"`
	Widget      string        `json:"widget,omitempty" yaml:"widget,omitempty"`
	Schema      schema.Config `json:"schema" yaml:"schema"`
	Options     []Option      `json:"options,omitempty" yaml:"options,omitempty"`
	Loader      string        `json:"loader,omitempty" yaml:"loader,omitempty"`
	DependsOn   string        `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	Default     any           `json:"default,omitempty" yaml:"default,omitempty"`
	Layout      LayoutHints   `json:"layout,omitempty" yaml:"layout,omitempty"`
	Help        string        `json:"help,omitempty" yaml:"help,omitempty"`
	Placeholder string        `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
}

// Build compiles cfg into a FormSpec. Loader names found in loaders are bound
// to their functions; other names are kept on OptionSource.LoaderName so a
// controller can bind them.
func Build(cfg FormConfig, loaders map[string]OptionLoader) (*FormSpec, error) {
	fields := make([]FieldSpec, 0, len(cfg.Fields))
	for _, fc := range cfg.Fields {
		node, err := schema.Build(fc.Schema)
		if err != nil {
			return nil, &ConfigError{Form: cfg.ID, Field: fc.Name, Err: err}
		}
		field := FieldSpec{
			Name:        fc.Name,
			Label:       fc.Label,
			Widget:      fc.Widget,
			Schema:      node,
			DependsOn:   fc.DependsOn,
			Layout:      fc.Layout,
			Help:        fc.Help,
			Placeholder: fc.Placeholder,
			Options: OptionSource{
				Static:     schemaOptions(fc.Options),
				LoaderName: fc.Loader,
			},
		}
		if fc.Default != nil {
			field.Default, field.HasDefault = fc.Default, true
		}
		if fc.Loader != "" {
			field.Options.Loader = loaders[fc.Loader]
		}
		fields = append(fields, field)
	}
	return New(cfg.ID, fields, cfg.Layout, WithTitle(cfg.Title), WithDescription(cfg.Description))
}

// schemaOptions normalises decoded option values so YAML integers and JSON
// floats compare equal.
func schemaOptions(options []Option) []Option {
	if len(options) == 0 {
		return nil
	}
	out := make([]Option, len(options))
	for i, option := range options {
		out[i] = Option{Value: schema.Normalize(option.Value), Label: option.Label}
	}
	return out
}

// BindLoaders returns a copy of spec whose fields named in loaders get their
// OptionSource.Loader set. Fields with a named loader that is still unbound
// afterwards are reported with ErrUnknownLoader.
func BindLoaders(spec *FormSpec, loaders map[string]OptionLoader) (*FormSpec, error) {
	out := *spec
	out.fields = spec.Fields()
	for i, field := range out.fields {
		if field.Options.LoaderName == "" {
			continue
		}
		if loader, ok := loaders[field.Options.LoaderName]; ok && loader != nil {
			out.fields[i].Options.Loader = loader
		}
		if out.fields[i].Options.Loader == nil {
			return nil, configError(spec.ID, field.Name, ErrUnknownLoader, "loader %q is not registered", field.Options.LoaderName)
		}
	}
	return &out, nil
}

package openapi

import (
	"context"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	internalmodel "github.com/goliatone/go-formkit/internal/model"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/schema"
)

// Option customises the generated FormSpec.
type Option func(*options)

type options struct {
	title       string
	description string
	layout      model.LayoutDescriptor
	loaders     map[string]model.OptionLoader
	overlay     *FormOverlay
}

// WithLayout sets the layout descriptor. Sections referenced by x-formgen
// hints but missing from the descriptor are appended.
func WithLayout(layout model.LayoutDescriptor) Option {
	return func(o *options) {
		o.layout = layout
	}
}

// WithLoaders binds option loaders by field name. A bound field gets its
// options from the loader instead of a static enum.
func WithLoaders(loaders map[string]model.OptionLoader) Option {
	return func(o *options) {
		o.loaders = loaders
	}
}

// FormSpecFromOperation loads raw and builds the form of operation id.
func FormSpecFromOperation(ctx context.Context, raw []byte, id string, opts ...Option) (*model.FormSpec, error) {
	doc, err := Load(ctx, raw)
	if err != nil {
		return nil, err
	}
	return FormSpecFromDocument(doc, id, opts...)
}

// FormSpecFromDocument builds the form of operation id from a loaded
// document. Operation summary and description become the form title and
// description.
func FormSpecFromDocument(doc *openapi3.T, id string, opts ...Option) (*model.FormSpec, error) {
	op, err := FindOperation(doc, id)
	if err != nil {
		return nil, err
	}
	ref := requestSchema(op.Op)
	if ref == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoRequestBody, id)
	}
	opts = append([]Option{withMeta(op.Op.Summary, op.Op.Description)}, opts...)
	return FormSpecFromSchema(id, ref, opts...)
}

func withMeta(title, description string) Option {
	return func(o *options) {
		if title != "" {
			o.title = title
		}
		if description != "" {
			o.description = description
		}
	}
}

// FormSpecFromSchema builds a FormSpec whose fields are the properties of an
// object schema, sorted by name.
func FormSpecFromSchema(id string, ref *openapi3.SchemaRef, opts ...Option) (*model.FormSpec, error) {
	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoRequestBody, id)
	}
	root := flatten(ref.Value)
	if kindOf(root) != schema.KindObject {
		return nil, fmt.Errorf("%w: %q", ErrNotObject, id)
	}

	conv := newConverter(ref.Value)
	required := requiredSet(root)
	names := sortedNames(root.Properties)
	fields := make([]model.FieldSpec, 0, len(names))
	layout := cfg.layout
	for _, name := range names {
		prop := root.Properties[name]
		node, err := conv.node(prop, required[name])
		if err != nil {
			return nil, fmt.Errorf("openapi: field %q: %w", name, err)
		}
		field := fieldSpec(name, flatten(prop.Value), node)
		if loader, ok := cfg.loaders[name]; ok {
			field.Options = model.OptionSource{Loader: loader}
		}
		layout = ensureSection(layout, field.Layout.Section)
		fields = append(fields, field)
	}

	title := cfg.title
	if title == "" {
		title = root.Title
	}
	description := cfg.description
	if description == "" {
		description = root.Description
	}
	if cfg.overlay != nil {
		var err error
		if fields, layout, err = cfg.overlay.apply(fields, layout); err != nil {
			return nil, fmt.Errorf("openapi: form %q: %w", id, err)
		}
		if cfg.overlay.Title != "" {
			title = cfg.overlay.Title
		}
		if cfg.overlay.Description != "" {
			description = cfg.overlay.Description
		}
	}
	return model.New(id, fields, layout, model.WithTitle(title), model.WithDescription(description))
}

func fieldSpec(name string, src *openapi3.Schema, node schema.Node) model.FieldSpec {
	hints := internalmodel.ParseExtensions(src.Extensions)
	field := model.FieldSpec{
		Name:        name,
		Label:       hints.Label,
		Widget:      hints.Widget,
		Schema:      node,
		Help:        hints.HelpText,
		Placeholder: hints.Placeholder,
		Layout: model.LayoutHints{
			Span:    hints.Grid.Span,
			Start:   hints.Grid.Start,
			Row:     hints.Grid.Row,
			Order:   hints.Order,
			Section: hints.Section,
			Width:   hints.Width,
		},
	}
	if field.Label == "" {
		field.Label = src.Title
	}
	if field.Help == "" {
		field.Help = src.Description
	}
	return field
}

func ensureSection(layout model.LayoutDescriptor, id string) model.LayoutDescriptor {
	if id == "" {
		return layout
	}
	for _, section := range layout.Sections {
		if section.ID == id {
			return layout
		}
	}
	sections := append([]model.Section(nil), layout.Sections...)
	layout.Sections = append(sections, model.Section{ID: id, Title: internalmodel.DefaultLabeler(id)})
	return layout
}

func requiredSet(src *openapi3.Schema) map[string]bool {
	out := make(map[string]bool, len(src.Required))
	for _, name := range src.Required {
		out[name] = true
	}
	return out
}

func sortedNames(props openapi3.Schemas) []string {
	names := make([]string, 0, len(props))
	for name, prop := range props {
		if prop == nil || prop.Value == nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

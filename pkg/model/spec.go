package model

import (
	"strings"

	internalmodel "github.com/goliatone/go-formkit/internal/model"
	"github.com/goliatone/go-formkit/pkg/schema"
)

// FormSpec is a validated, immutable form description.
type FormSpec struct {
	ID          string
	Title       string
	Description string
	Layout      LayoutDescriptor

	fields     []FieldSpec
	index      map[string]int
	dependents map[string][]string
	order      []string
	root       *schema.ObjectNode
}

// SpecOption customises New.
type SpecOption func(*FormSpec)

// WithTitle sets the form title.
func WithTitle(title string) SpecOption {
	return func(s *FormSpec) {
		s.Title = title
	}
}

// WithDescription sets the form description.
func WithDescription(description string) SpecOption {
	return func(s *FormSpec) {
		s.Description = description
	}
}

// New validates fields and layout and returns the FormSpec. Any violation is
// reported as a *ConfigError. Missing labels are derived from field names.
func New(id string, fields []FieldSpec, layout LayoutDescriptor, opts ...SpecOption) (*FormSpec, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, configError("", "", ErrMissingID, "form id is required")
	}

	spec := &FormSpec{
		ID:         id,
		Layout:     cloneLayout(layout),
		fields:     make([]FieldSpec, 0, len(fields)),
		index:      make(map[string]int, len(fields)),
		dependents: make(map[string][]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(spec)
		}
	}
	if spec.Layout.Kind == "" {
		spec.Layout.Kind = LayoutGrid
	}
	if err := validateLayout(id, spec.Layout); err != nil {
		return nil, err
	}

	sections := make(map[string]struct{}, len(spec.Layout.Sections))
	for _, section := range spec.Layout.Sections {
		sections[section.ID] = struct{}{}
	}

	props := make([]schema.Property, 0, len(fields))
	for _, field := range fields {
		field, err := prepareField(id, field, sections)
		if err != nil {
			return nil, err
		}
		if _, exists := spec.index[field.Name]; exists {
			return nil, configError(id, field.Name, ErrDuplicateField, "declared more than once")
		}
		spec.index[field.Name] = len(spec.fields)
		spec.fields = append(spec.fields, field)
		props = append(props, schema.Property{Name: field.Name, Node: field.Schema})
	}

	for _, field := range spec.fields {
		if field.DependsOn == "" {
			continue
		}
		if field.DependsOn == field.Name {
			return nil, configError(id, field.Name, ErrDependencyCycle, "depends on itself")
		}
		if _, ok := spec.index[field.DependsOn]; !ok {
			return nil, configError(id, field.Name, ErrUnknownDependency, "depends on %q", field.DependsOn)
		}
		spec.dependents[field.DependsOn] = append(spec.dependents[field.DependsOn], field.Name)
	}

	order, err := topologicalOrder(spec.fields, spec.index)
	if err != nil {
		return nil, configError(id, "", ErrDependencyCycle, "%v", err)
	}
	spec.order = order

	root, err := schema.NewObject(schema.Attrs{Required: true}, props)
	if err != nil {
		return nil, &ConfigError{Form: id, Err: err}
	}
	spec.root = root
	return spec, nil
}

// MustNew is like New but panics on error.
func MustNew(id string, fields []FieldSpec, layout LayoutDescriptor, opts ...SpecOption) *FormSpec {
	spec, err := New(id, fields, layout, opts...)
	if err != nil {
		panic(err)
	}
	return spec
}

func prepareField(form string, field FieldSpec, sections map[string]struct{}) (FieldSpec, error) {
	field.Name = strings.TrimSpace(field.Name)
	if field.Name == "" {
		return field, configError(form, "", ErrEmptyFieldName, "every field needs a name")
	}
	if strings.ContainsAny(field.Name, ". ") {
		return field, configError(form, field.Name, ErrEmptyFieldName, "names cannot contain dots or spaces")
	}
	if field.Schema == nil {
		return field, configError(form, field.Name, ErrMissingSchema, "schema node is required")
	}
	if field.Label == "" {
		field.Label = internalmodel.DefaultLabeler(field.Name)
	}
	if field.HasDefault {
		node, err := schema.WithDefault(field.Schema, field.Default)
		if err != nil {
			return field, &ConfigError{Form: form, Field: field.Name, Err: ErrInvalidDefault, Detail: err.Error()}
		}
		field.Schema = node
	}
	if field.DependsOn != "" && !field.Options.Dynamic() {
		return field, configError(form, field.Name, ErrMissingOptionSource, "depends on %q", field.DependsOn)
	}
	if err := checkStaticOptions(form, field); err != nil {
		return field, err
	}
	if section := field.Layout.Section; section != "" {
		if _, ok := sections[section]; !ok {
			return field, configError(form, field.Name, ErrUnknownSection, "section %q", section)
		}
	}
	if field.Layout.Span < 0 || field.Layout.Start < 0 || field.Layout.Row < 0 || field.Layout.Width < 0 {
		return field, configError(form, field.Name, ErrInvalidLayout, "layout hints cannot be negative")
	}
	field.Options.Static = append([]Option(nil), field.Options.Static...)
	return field, nil
}

// checkStaticOptions verifies static option values against the field node,
// or its item node for multi-value fields.
func checkStaticOptions(form string, field FieldSpec) error {
	node := field.Schema
	if array, ok := node.(*schema.ArrayNode); ok {
		node = array.Items
	}
	for _, option := range field.Options.Static {
		if option.Value == nil {
			return configError(form, field.Name, ErrInvalidOption, "option %q has no value", option.Label)
		}
		if _, ok := schema.Coerce(node, option.Value); !ok {
			return configError(form, field.Name, ErrInvalidOption, "option value %v does not fit %s", option.Value, node.Kind())
		}
	}
	return nil
}

func validateLayout(form string, layout LayoutDescriptor) error {
	if !layout.Kind.Valid() {
		return configError(form, "", ErrUnknownLayout, "kind %q", layout.Kind)
	}
	if layout.Columns < 0 || layout.Gutter < 0 || layout.MinFieldWidth < 0 || layout.MaxWidth < 0 {
		return configError(form, "", ErrInvalidLayout, "numeric settings cannot be negative")
	}
	if layout.MaxWidth > 0 && layout.MinFieldWidth > layout.MaxWidth {
		return configError(form, "", ErrInvalidLayout, "minFieldWidth %d exceeds maxWidth %d", layout.MinFieldWidth, layout.MaxWidth)
	}
	seen := make(map[string]struct{}, len(layout.Sections))
	for _, section := range layout.Sections {
		if strings.TrimSpace(section.ID) == "" {
			return configError(form, "", ErrInvalidLayout, "section without id")
		}
		if _, exists := seen[section.ID]; exists {
			return configError(form, "", ErrInvalidLayout, "duplicate section %q", section.ID)
		}
		seen[section.ID] = struct{}{}
	}
	return nil
}

func cloneLayout(layout LayoutDescriptor) LayoutDescriptor {
	layout.Sections = append([]Section(nil), layout.Sections...)
	return layout
}

// Root returns the object node whose properties are the form fields, with
// field default overrides applied.
func (s *FormSpec) Root() *schema.ObjectNode {
	return s.root
}

// Fields returns the fields in declaration order.
func (s *FormSpec) Fields() []FieldSpec {
	out := make([]FieldSpec, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks up a field by name.
func (s *FormSpec) Field(name string) (FieldSpec, bool) {
	idx, ok := s.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.fields[idx], true
}

// Has reports whether name is a field of the form.
func (s *FormSpec) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Dependents returns the fields whose DependsOn is name, in declaration
// order.
func (s *FormSpec) Dependents(name string) []string {
	return append([]string(nil), s.dependents[name]...)
}

// Controls reports whether any field depends on name.
func (s *FormSpec) Controls(name string) bool {
	return len(s.dependents[name]) > 0
}

// TransitiveDependents returns every field reachable from name through
// DependsOn edges, breadth first.
func (s *FormSpec) TransitiveDependents(name string) []string {
	var out []string
	queue := s.dependents[name]
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		out = append(out, next)
		queue = append(queue, s.dependents[next]...)
	}
	return out
}

// DynamicFields returns the fields with an asynchronous option source in
// topological order.
func (s *FormSpec) DynamicFields() []string {
	var out []string
	for _, name := range s.order {
		if s.fields[s.index[name]].Options.Dynamic() {
			out = append(out, name)
		}
	}
	return out
}

// TopologicalOrder returns field names ordered so that every field follows
// the field it depends on. Ties keep declaration order.
func (s *FormSpec) TopologicalOrder() []string {
	return append([]string(nil), s.order...)
}

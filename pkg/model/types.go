package model

import (
	"context"

	"github.com/goliatone/go-formkit/pkg/schema"
)

// Option is a selectable value offered by a field.
type Option struct {
	Value any    `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// OptionLoader fetches the options of a dynamic field. dependency is the
// value of the controlling field, or nil for fields without DependsOn.
// Loaders should return promptly once ctx is cancelled.
type OptionLoader func(ctx context.Context, dependency any) ([]Option, error)

// OptionSource describes where a field's options come from. Static options
// are fixed; Loader (or a loader registered under LoaderName) fetches them
// asynchronously.
type OptionSource struct {
	Static     []Option
	Loader     OptionLoader
	LoaderName string
}

// Dynamic reports whether options are fetched asynchronously.
func (s OptionSource) Dynamic() bool {
	return s.Loader != nil || s.LoaderName != ""
}

// IsZero reports whether no options are configured.
func (s OptionSource) IsZero() bool {
	return len(s.Static) == 0 && !s.Dynamic()
}

// LayoutKind selects the placement strategy of a form.
type LayoutKind string

const (
	LayoutGrid    LayoutKind = "grid"
	LayoutColumns LayoutKind = "columns"
	LayoutInline  LayoutKind = "inline"
	LayoutStack   LayoutKind = "stack"
)

// Valid reports whether k is a known layout kind.
func (k LayoutKind) Valid() bool {
	switch k {
	case LayoutGrid, LayoutColumns, LayoutInline, LayoutStack:
		return true
	default:
		return false
	}
}

// Section groups fields under a title.
type Section struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// LayoutDescriptor configures how a form is laid out. Zero numeric values
// select the compositor defaults.
type LayoutDescriptor struct {
	Kind          LayoutKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Columns       int        `json:"columns,omitempty" yaml:"columns,omitempty"`
	Gutter        int        `json:"gutter,omitempty" yaml:"gutter,omitempty"`
	MinFieldWidth int        `json:"minFieldWidth,omitempty" yaml:"minFieldWidth,omitempty"`
	MaxWidth      int        `json:"maxWidth,omitempty" yaml:"maxWidth,omitempty"`
	Sections      []Section  `json:"sections,omitempty" yaml:"sections,omitempty"`
}

// LayoutHints are per-field placement hints. Span, Start and Row apply to
// grid and column layouts, Width to inline layouts. Order moves a field ahead
// of fields without an explicit order.
type LayoutHints struct {
	Span    int    `json:"span,omitempty" yaml:"span,omitempty"`
	Start   int    `json:"start,omitempty" yaml:"start,omitempty"`
	Row     int    `json:"row,omitempty" yaml:"row,omitempty"`
	Order   *int   `json:"order,omitempty" yaml:"order,omitempty"`
	Section string `json:"section,omitempty" yaml:"section,omitempty"`
	Width   int    `json:"width,omitempty" yaml:"width,omitempty"`
}

// FieldSpec describes one top-level field of a form.
type FieldSpec struct {
	Name   string
	Label  string
	Widget string
	Schema schema.Node
	// Options feeds select-like widgets.
	Options OptionSource
	// DependsOn names the field whose value parameterises Options.Loader.
	DependsOn string
	// Default overrides the declared default of Schema.
	Default     any
	HasDefault  bool
	Layout      LayoutHints
	Help        string
	Placeholder string
}

// Required reports whether the field's schema is required.
func (f FieldSpec) Required() bool {
	return f.Schema != nil && f.Schema.Meta().Required
}

// DataKind returns the schema kind of the field.
func (f FieldSpec) DataKind() schema.Kind {
	if f.Schema == nil {
		return ""
	}
	return f.Schema.Kind()
}

// Package formkit is a declarative form engine. Forms are declared as a
// schema per field plus layout hints; formkit validates values, fills in
// defaults, loads dependent options in the background and drives the
// edit/submit lifecycle through a controller.
package formkit

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goliatone/go-formkit/pkg/controller"
	"github.com/goliatone/go-formkit/pkg/defaults"
	"github.com/goliatone/go-formkit/pkg/layout"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/openapi"
	"github.com/goliatone/go-formkit/pkg/validation"
)

// FormSpec aliases model.FormSpec for callers that only import the root.
type FormSpec = model.FormSpec

// FieldSpec describes one field of a form.
type FieldSpec = model.FieldSpec

// Option is a selectable value offered by a field.
type Option = model.Option

// OptionLoader fetches dependent options.
type OptionLoader = model.OptionLoader

// Catalog is a set of forms loaded from documents.
type Catalog = model.Catalog

// RenderPlan is the placement of a form's fields.
type RenderPlan = layout.RenderPlan

// NewForm validates fields and layout and returns the FormSpec.
func NewForm(id string, fields []FieldSpec, descriptor model.LayoutDescriptor, opts ...model.SpecOption) (*FormSpec, error) {
	return model.New(id, fields, descriptor, opts...)
}

// LoadCatalog reads every JSON and YAML form document in fsys.
func LoadCatalog(fsys fs.FS, loaders map[string]OptionLoader) (*Catalog, error) {
	return model.LoadFS(fsys, loaders)
}

// LoadCatalogPath reads a single form document or every document below a
// directory.
func LoadCatalogPath(path string, loaders map[string]OptionLoader) (*Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("formkit: catalog: %w", err)
	}
	if info.IsDir() {
		return model.LoadFS(os.DirFS(path), loaders)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("formkit: catalog: %w", err)
	}
	doc, err := model.Parse(data, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	return model.NewCatalog([]*model.Document{doc}, loaders)
}

// FromOpenAPI builds the form of an OpenAPI operation's request body.
func FromOpenAPI(ctx context.Context, raw []byte, operationID string, opts ...openapi.Option) (*FormSpec, error) {
	return openapi.FormSpecFromOperation(ctx, raw, operationID, opts...)
}

// NewController starts an editing session for spec.
func NewController(spec *FormSpec, opts ...controller.Option) (*controller.Controller, error) {
	return controller.New(spec, opts...)
}

// Validate checks values against every field of spec.
func Validate(spec *FormSpec, values map[string]any) validation.Result {
	return validation.Compile(spec.Root()).Validate(values)
}

// ResolveDefaults completes raw into a full value tree for spec.
func ResolveDefaults(spec *FormSpec, raw map[string]any, opts ...defaults.Option) (map[string]any, defaults.Report) {
	var input any
	if raw != nil {
		input = raw
	}
	value, report := defaults.New(opts...).Resolve(spec.Root(), input)
	out, _ := value.(map[string]any)
	return out, report
}

// Compose lays out spec.
func Compose(spec *FormSpec) RenderPlan {
	return layout.Compose(spec)
}

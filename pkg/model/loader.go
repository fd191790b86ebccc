package model

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formkit/pkg/schema"
)

// Document is one form file. OptionTables map a table name to options keyed
// by the string form of the controlling value; the key "*" applies when no
// other key matches.
type Document struct {
	Forms        []FormConfig                   `json:"forms" yaml:"forms"`
	OptionTables map[string]map[string][]Option `json:"optionTables,omitempty" yaml:"optionTables,omitempty"`
}

// Catalog is a set of forms loaded from one or more documents.
type Catalog struct {
	forms   map[string]*FormSpec
	loaders map[string]OptionLoader
}

// Parse decodes a JSON or YAML document. source names the input in errors.
func Parse(data []byte, source string) (*Document, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, &ConfigError{Err: ErrInvalidDocument, Detail: fmt.Sprintf("file %s is empty", source)}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err == nil {
		return &doc, nil
	}
	doc = Document{}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return &doc, nil
	}
	return nil, &ConfigError{Err: ErrInvalidDocument, Detail: fmt.Sprintf("parse %s: invalid JSON or YAML", source)}
}

// NewCatalog builds every form of the supplied documents. Option tables are
// registered as loaders by name, next to the extra loaders supplied by the
// caller; caller loaders win on name clashes.
func NewCatalog(docs []*Document, extra map[string]OptionLoader) (*Catalog, error) {
	catalog := &Catalog{
		forms:   make(map[string]*FormSpec),
		loaders: make(map[string]OptionLoader),
	}
	for _, doc := range docs {
		for name, table := range doc.OptionTables {
			if _, exists := catalog.loaders[name]; exists {
				return nil, configError("", "", ErrInvalidDocument, "option table %q declared more than once", name)
			}
			catalog.loaders[name] = TableLoader(table)
		}
	}
	for name, loader := range extra {
		catalog.loaders[name] = loader
	}
	for _, doc := range docs {
		for _, cfg := range doc.Forms {
			id := strings.TrimSpace(cfg.ID)
			if _, exists := catalog.forms[id]; exists {
				return nil, configError(id, "", ErrDuplicateForm, "declared more than once")
			}
			spec, err := Build(cfg, catalog.loaders)
			if err != nil {
				return nil, err
			}
			catalog.forms[spec.ID] = spec
		}
	}
	return catalog, nil
}

// LoadFS walks fsys and loads every .json, .yaml and .yml file into a
// Catalog.
func LoadFS(fsys fs.FS, extra map[string]OptionLoader) (*Catalog, error) {
	var docs []*Document
	if fsys != nil {
		err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if entry.IsDir() || !isFormFile(path) {
				return nil
			}
			data, err := fs.ReadFile(fsys, path)
			if err != nil {
				return fmt.Errorf("model: read %s: %w", path, err)
			}
			doc, err := Parse(data, path)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return NewCatalog(docs, extra)
}

// Form returns the form registered under id.
func (c *Catalog) Form(id string) (*FormSpec, bool) {
	spec, ok := c.forms[id]
	return spec, ok
}

// Forms returns the form ids in lexical order.
func (c *Catalog) Forms() []string {
	ids := make([]string, 0, len(c.forms))
	for id := range c.forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Loaders returns the named loaders known to the catalog.
func (c *Catalog) Loaders() map[string]OptionLoader {
	out := make(map[string]OptionLoader, len(c.loaders))
	for name, loader := range c.loaders {
		out[name] = loader
	}
	return out
}

// TableLoader serves options from an in-memory table keyed by the string
// form of the dependency value.
func TableLoader(table map[string][]Option) OptionLoader {
	normalized := make(map[string][]Option, len(table))
	for key, options := range table {
		normalized[key] = schemaOptions(options)
	}
	return func(ctx context.Context, dependency any) ([]Option, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key := "*"
		if dependency != nil {
			key = fmt.Sprint(schema.Normalize(dependency))
		}
		options, ok := normalized[key]
		if !ok {
			options = normalized["*"]
		}
		return append([]Option(nil), options...), nil
	}
}

func isFormFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

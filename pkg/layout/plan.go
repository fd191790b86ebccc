package layout

import (
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/schema"
	"github.com/goliatone/go-formkit/pkg/validation"
)

// RenderPlan is the placement of every field of a form. It carries no
// values or state.
type RenderPlan struct {
	FormID      string           `json:"formId"`
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Kind        model.LayoutKind `json:"kind"`
	// Columns is the grid width for grid and column layouts, 1 for stacks and
	// the character budget for inline layouts.
	Columns  int           `json:"columns"`
	Gutter   int           `json:"gutter,omitempty"`
	Sections []SectionPlan `json:"sections"`
}

// SectionPlan groups the rows of one section. The default section has an
// empty ID.
type SectionPlan struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Rows        []Row  `json:"rows"`
}

// Row is one visual line of fields.
type Row struct {
	Index int    `json:"index"`
	Items []Item `json:"items"`
}

// Item places a single field. Span and Start are grid columns (Start is
// 1-based); Width is the character width used by inline layouts.
type Item struct {
	Field       string            `json:"field"`
	Label       string            `json:"label"`
	Widget      string            `json:"widget"`
	DataKind    schema.Kind       `json:"dataKind"`
	Span        int               `json:"span"`
	Start       int               `json:"start"`
	Width       int               `json:"width,omitempty"`
	Required    bool              `json:"required,omitempty"`
	Placeholder string            `json:"placeholder,omitempty"`
	HelpHTML    string            `json:"helpHtml,omitempty"`
	DependsOn   string            `json:"dependsOn,omitempty"`
	Dynamic     bool              `json:"dynamic,omitempty"`
	Options     []model.Option    `json:"options,omitempty"`
	Rules       []validation.Rule `json:"rules,omitempty"`
}

// Items returns every item of the plan in render order.
func (p RenderPlan) Items() []Item {
	var out []Item
	for _, section := range p.Sections {
		for _, row := range section.Rows {
			out = append(out, row.Items...)
		}
	}
	return out
}

// Item finds the item of field.
func (p RenderPlan) Item(field string) (Item, bool) {
	for _, item := range p.Items() {
		if item.Field == field {
			return item, true
		}
	}
	return Item{}, false
}

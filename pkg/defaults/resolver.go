// Package defaults turns partial or malformed input into a complete value
// tree for a schema node.
//
// Resolution runs in two phases. The strict phase walks the node depth-first
// and keeps each raw value that passes the type check, falling back to the
// declared default and then to nil for optional nodes. When any value is left
// unresolved the whole partial tree is discarded and regenerated from zero
// values. One bad leaf therefore resets every sibling; callers that want
// partial recovery validate first and only resolve what passed.
package defaults

import (
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/goliatone/go-formkit/internal/clone"
	"github.com/goliatone/go-formkit/pkg/logging"
	"github.com/goliatone/go-formkit/pkg/schema"
)

// Report describes how a tree was resolved.
type Report struct {
	// FellBack is true when the strict phase failed and the tree was zeroed.
	FellBack bool
	// Unresolved lists the paths that could not be resolved strictly.
	Unresolved []string
}

// Resolver resolves value trees. The zero value is not usable; call New.
type Resolver struct {
	logger *zap.Logger
}

// Option customises a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used to report fallbacks.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		r.logger = logging.OrNop(logger)
	}
}

// New constructs a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{logger: logging.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.logger = r.logger.Named("defaults")
	return r
}

// Resolve returns the complete value for node using a resolver without
// logging.
func Resolve(node schema.Node, raw any) any {
	value, _ := New().Resolve(node, raw)
	return value
}

// Resolve builds the complete value tree for node from raw. A top-level
// object is always materialised, even when raw is nil.
func (r *Resolver) Resolve(node schema.Node, raw any) (any, Report) {
	if node == nil {
		return nil, Report{}
	}
	if _, isObject := node.(*schema.ObjectNode); isObject && raw == nil {
		raw = map[string]any{}
	}

	var unresolved []string
	value := strict("", node, raw, &unresolved)
	if len(unresolved) == 0 {
		return value, Report{}
	}

	sort.Strings(unresolved)
	r.logger.Warn("default resolution fell back to zero values",
		zap.Strings("unresolved", unresolved))
	return zeroTop(node), Report{FellBack: true, Unresolved: unresolved}
}

// Zero returns the zero-value tree for node: declared defaults where present,
// nil for optional nodes, otherwise the kind's zero value.
func Zero(node schema.Node) any {
	return zero(node)
}

func strict(path string, node schema.Node, raw any, unresolved *[]string) any {
	meta := node.Meta()

	if raw != nil {
		if value, ok := schema.Coerce(node, raw); ok {
			switch n := node.(type) {
			case *schema.ObjectNode:
				return strictObject(path, n, value.(map[string]any), unresolved)
			case *schema.ArrayNode:
				items := value.([]any)
				out := make([]any, len(items))
				for i, item := range items {
					out[i] = strict(joinPath(path, strconv.Itoa(i)), n.Items, item, unresolved)
				}
				return out
			case *schema.StringNode, *schema.NumberNode, *schema.BooleanNode, *schema.EnumNode, *schema.JSONNode:
				return value
			default:
				panic("defaults: unsupported node type")
			}
		}
	}

	if meta.HasDefault {
		return clone.Value(meta.Default)
	}
	if raw == nil {
		if meta.Optional() {
			return nil
		}
		if object, isObject := node.(*schema.ObjectNode); isObject {
			return strictObject(path, object, map[string]any{}, unresolved)
		}
	}
	*unresolved = append(*unresolved, pathOrRoot(path))
	return nil
}

func strictObject(path string, node *schema.ObjectNode, record map[string]any, unresolved *[]string) map[string]any {
	out := make(map[string]any, len(node.Properties))
	for _, prop := range node.Properties {
		out[prop.Name] = strict(joinPath(path, prop.Name), prop.Node, record[prop.Name], unresolved)
	}
	return out
}

func zeroTop(node schema.Node) any {
	if object, isObject := node.(*schema.ObjectNode); isObject && !object.HasDefault {
		return zeroObject(object)
	}
	return zero(node)
}

func zero(node schema.Node) any {
	meta := node.Meta()
	if meta.HasDefault {
		return clone.Value(meta.Default)
	}
	if meta.Optional() {
		return nil
	}
	switch n := node.(type) {
	case *schema.StringNode, *schema.JSONNode:
		return ""
	case *schema.NumberNode:
		return 0.0
	case *schema.BooleanNode:
		return false
	case *schema.EnumNode:
		return n.Values[0]
	case *schema.ArrayNode:
		return []any{}
	case *schema.ObjectNode:
		return zeroObject(n)
	default:
		panic("defaults: unsupported node type")
	}
}

func zeroObject(node *schema.ObjectNode) map[string]any {
	out := make(map[string]any, len(node.Properties))
	for _, prop := range node.Properties {
		out[prop.Name] = zero(prop.Node)
	}
	return out
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}

func pathOrRoot(path string) string {
	if path == "" {
		return "$"
	}
	return path
}

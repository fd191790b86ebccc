package controller

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formkit/pkg/schema"
)

var (
	ErrValidationFailed = errors.New("controller: validation failed")
	ErrSubmitInProgress = errors.New("controller: submit in progress")
	ErrUnknownField     = errors.New("controller: unknown field")
	ErrClosed           = errors.New("controller: closed")
	ErrNoSubmitHandler  = errors.New("controller: no submit handler")
)

// SubmitError lets a submit handler report field-level and form-level
// messages. Field keys may use dotted paths, JSON pointers or bracket
// notation, optionally wrapped in request segments such as "body" or "data";
// keys that do not match a field become form-level messages.
type SubmitError struct {
	Fields map[string][]string
	Form   []string
	Err    error
}

func (e *SubmitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	if len(e.Form) > 0 {
		return e.Form[0]
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return fmt.Sprintf("submit rejected: %s", strings.Join(keys, ", "))
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// ErrorMapping splits handler messages into field and form messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MapSubmitError converts a handler error into field and form messages for
// the fields described by root.
func MapSubmitError(root *schema.ObjectNode, err error) ErrorMapping {
	if err == nil {
		return ErrorMapping{}
	}
	var submitErr *SubmitError
	if !errors.As(err, &submitErr) {
		return ErrorMapping{Form: normalizeMessages([]string{err.Error()})}
	}
	mapping := MapErrorPayload(root, submitErr.Fields)
	mapping.Form = MergeFormErrors(submitErr.Form, mapping.Form...)
	if len(mapping.Fields) == 0 && len(mapping.Form) == 0 {
		mapping.Form = normalizeMessages([]string{submitErr.Error()})
	}
	return mapping
}

// MergeFormErrors concatenates form-level messages, trimming whitespace and
// dropping blanks and duplicates while keeping order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapErrorPayload maps payload keys onto the dotted field paths of root.
func MapErrorPayload(root *schema.ObjectNode, payload map[string][]string) ErrorMapping {
	var mapping ErrorMapping
	if len(payload) == 0 {
		return mapping
	}

	known := make(map[string]struct{})
	collectPaths(root, "", known)

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		messages := normalizeMessages(payload[key])
		if len(messages) == 0 {
			continue
		}
		path := resolvePath(key, known)
		if path == "" {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		if mapping.Fields == nil {
			mapping.Fields = make(map[string][]string)
		}
		mapping.Fields[path] = append(mapping.Fields[path], messages...)
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func collectPaths(node schema.Node, prefix string, dest map[string]struct{}) {
	switch n := node.(type) {
	case *schema.ObjectNode:
		for _, prop := range n.Properties {
			path := prop.Name
			if prefix != "" {
				path = prefix + "." + prop.Name
			}
			dest[path] = struct{}{}
			collectPaths(prop.Node, path, dest)
		}
	case *schema.ArrayNode:
		collectPaths(n.Items, prefix, dest)
	case *schema.StringNode, *schema.NumberNode, *schema.BooleanNode, *schema.EnumNode, *schema.JSONNode, nil:
	default:
		panic("controller: unsupported node type")
	}
}

// resolvePath returns the longest known path matched by key, trying the key
// as given, without wrapper segments and without array indexes. Form-level
// keys and unmatched keys resolve to "".
func resolvePath(key string, known map[string]struct{}) string {
	if isFormLevelKey(key) {
		return ""
	}
	segments := splitKey(key)
	if len(segments) == 0 {
		return ""
	}
	unwrapped := dropWrappers(segments)
	best := ""
	for _, candidate := range [][]string{segments, unwrapped, dropIndexes(segments), dropIndexes(unwrapped)} {
		for end := len(candidate); end > 0; end-- {
			path := strings.Join(candidate[:end], ".")
			if _, ok := known[path]; ok {
				if strings.Count(path, ".") > strings.Count(best, ".") || best == "" {
					best = path
				}
				break
			}
		}
	}
	return best
}

func splitKey(key string) []string {
	clean := strings.TrimSpace(key)
	clean = strings.TrimLeft(clean, "#$/.")
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)
	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		out = append(out, part)
	}
	return out
}

var wrapperSegments = map[string]struct{}{
	"body":       {},
	"request":    {},
	"payload":    {},
	"data":       {},
	"attributes": {},
}

func dropWrappers(segments []string) []string {
	out := segments
	for len(out) > 0 {
		if _, ok := wrapperSegments[strings.ToLower(out[0])]; !ok {
			break
		}
		out = out[1:]
	}
	return out
}

func dropIndexes(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}

func normalizeMessages(messages []string) []string {
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Package model defines the declarative form description: FieldSpec binds a
// schema node to a name, a label, an option source and layout hints, and
// FormSpec groups fields with a layout descriptor.
//
// A FormSpec is validated once at construction (unique names, known and
// acyclic dependencies, option sources for dependent fields, defaults that
// satisfy their node, declared layout sections) and is immutable afterwards,
// so it can be shared between controllers and goroutines. Specs can be
// authored in Go through New, from a FormConfig through Build, or loaded
// from JSON/YAML documents through Parse and LoadFS.
package model

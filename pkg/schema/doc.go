// Package schema defines the immutable node tree that describes the data shape
// behind every form field. Nodes form a closed set (string, number, boolean,
// enum, object, array, json) implemented by the *Node types in this package;
// callers switch over them exhaustively and never add kinds of their own.
//
// Trees are built from author-supplied Config values through Build, which
// rejects malformed definitions (empty enums, duplicate object properties,
// uncompilable patterns, defaults that violate their own constraints) with a
// *ConfigError. Once built a tree is never mutated; WithDefault returns a copy.
//
// Constraints keep the teacher-style canonical identifiers (min/max,
// minLength/maxLength, pattern) and add format and cross-field kinds. Every
// constraint carries its own message, defaulting to the constraint kind so
// error maps stay deterministic, e.g. {"age": "max"}.
package schema

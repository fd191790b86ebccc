// Package openapi builds FormSpecs from OpenAPI 3 documents. The request body
// schema of an operation becomes the form: each top-level property is a
// field, nested objects and arrays map onto schema nodes, and x-formgen
// extensions supply labels, widgets and grid placement.
package openapi

// Package definition loads wizard definitions. Definitions are declared in
// JSON or YAML files, one wizard per file, or derived from the request body
// schema of an OpenAPI operation.
package definition

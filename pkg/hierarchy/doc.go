// Package hierarchy turns a flat table of type identifiers and the identifiers
// they conform to into a validated conformance graph, its descendant closure
// and a forest view suitable for nested serialization.
package hierarchy

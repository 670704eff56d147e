// Package output writes the artifacts of a hierarchy run: the tree and
// descendant documents in YAML or JSON, and optionally a DOT rendering of the
// conformance graph and a SQLite database. Nothing is moved into place until
// every requested artifact has been produced.
package output

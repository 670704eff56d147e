// Package cue provides the embedded table schema and the bundled snapshot of
// the system-declared type identifier table.
package cue

import "embed"

// FS contains the embedded schema and table files.
//
//go:embed schema/*.cue tables/*.cue
var FS embed.FS

const (
	// SchemaFile holds the #Record and #Table definitions every table is unified with
	SchemaFile = "schema/table.cue"

	// SnapshotFile is the table loaded when no input is given
	SnapshotFile = "tables/uti.cue"
)

// Package tableloader reads type identifier tables from CUE, JSON, YAML, HTML
// and HCL sources and decodes them into hierarchy records. Tables written in
// CUE, JSON or YAML are validated against the embedded #Table schema.
package tableloader

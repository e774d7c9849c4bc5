// Package radtk provides streaming tools for RAD files, the chunked
// binary format used by single-cell and long-read mapping pipelines.
//
// Three operations are exposed, each single-pass and bounded-memory:
//
//	radtk.Cat    — concatenate compatible RAD files into one
//	radtk.Split  — partition one RAD file into near-equal parts
//	radtk.View   — render a RAD file as structured JSON text
//
// All three stream chunks through radfile readers and writers and never
// materialize a whole file. Failures abort the operation: a non-zero
// error means any partially written output should be discarded.
package radtk

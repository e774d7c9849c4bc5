// Package radfile implements the on-disk RAD binary layout: the prelude
// (reference set plus tag schemas), count-prefixed record chunks, and the
// schema-driven records inside them.
//
// Radtk intentionally treats the layout as a compatibility boundary: two
// files may only be combined when their preludes are structurally equal,
// and all bookkeeping fields (chunk header sizes, record counts) are part
// of the contract consumed by downstream quantification tools.
//
// All multi-byte values are little-endian.
package radfile

// Package fs abstracts file system access so that I/O failure paths
// can be exercised deterministically in tests.
package fs

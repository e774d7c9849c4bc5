package radfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// chunkHeaderSize is num_bytes (4) + num_records (4). num_bytes
	// includes the header itself.
	chunkHeaderSize = 8

	// maxChunkBytes bounds a single chunk read. A declared size beyond
	// this is treated as corruption rather than attempted.
	maxChunkBytes = 1 << 30
)

var ErrChunkTooLarge = errors.New("RAD chunk too large")

// Chunk is one count-prefixed batch of serialized records. Chunks are an
// I/O granularity only: re-chunking is free to split or merge them.
type Chunk struct {
	NumRecords uint32
	Payload    []byte
}

// NumBytes returns the on-disk size of the chunk, header included.
func (c *Chunk) NumBytes() uint32 {
	return chunkHeaderSize + uint32(len(c.Payload))
}

// WriteTo serializes the chunk. It implements io.WriterTo.
func (c *Chunk) WriteTo(w io.Writer) (int64, error) {
	var hdr [chunkHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[:4], c.NumBytes())
	binary.LittleEndian.PutUint32(hdr[4:], c.NumRecords)
	n, err := w.Write(hdr[:])
	if err != nil {
		return int64(n), err
	}
	m, err := w.Write(c.Payload)
	return int64(n + m), err
}

// readChunk reads one chunk from r. The declared num_bytes must cover at
// least the chunk header; short streams surface io.ErrUnexpectedEOF.
func readChunk(r io.Reader) (*Chunk, error) {
	var hdr [chunkHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("reading chunk header: %w", err)
	}
	numBytes := binary.LittleEndian.Uint32(hdr[:4])
	numRecords := binary.LittleEndian.Uint32(hdr[4:])
	if numBytes < chunkHeaderSize {
		return nil, fmt.Errorf("declared chunk size %d smaller than chunk header: %w", numBytes, io.ErrUnexpectedEOF)
	}
	if numBytes > maxChunkBytes {
		return nil, fmt.Errorf("%w: declared size %d", ErrChunkTooLarge, numBytes)
	}
	payload := make([]byte, numBytes-chunkHeaderSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("reading chunk payload: %w", err)
	}
	return &Chunk{NumRecords: numRecords, Payload: payload}, nil
}

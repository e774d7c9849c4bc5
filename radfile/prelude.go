package radfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// MagicNumber identifies RAD binary files (ASCII: "RAD1", little-endian).
	MagicNumber = 0x31444152
	// Version is the current file format version.
	Version = 1
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
)

// Prelude is the per-file header: the reference set, the chunk count, and
// the three tag schemas (file-level, read-level, alignment-level).
//
// A Prelude is read once at open time and never mutated by a reader.
// Writers own their own copy so that the chunk count can be patched
// on finalize without aliasing the source header.
type Prelude struct {
	IsPaired bool
	RefNames []string

	// NumChunks is the file-level aggregate chunk count. Writers emit a
	// placeholder and patch the real value on finalize.
	NumChunks uint64

	FileTags TagSchema
	ReadTags TagSchema
	AlnTags  TagSchema
}

// Clone returns a deep copy suitable for an output file.
func (p *Prelude) Clone() *Prelude {
	cp := &Prelude{
		IsPaired:  p.IsPaired,
		RefNames:  append([]string(nil), p.RefNames...),
		NumChunks: p.NumChunks,
		FileTags:  append(TagSchema(nil), p.FileTags...),
		ReadTags:  append(TagSchema(nil), p.ReadTags...),
		AlnTags:   append(TagSchema(nil), p.AlnTags...),
	}
	return cp
}

// numChunksOffset is the byte offset of the NumChunks field from the start
// of the file: magic(4) + version(4) + is_paired(1) + ref_count(8) + names.
func (p *Prelude) numChunksOffset() int64 {
	off := int64(4 + 4 + 1 + 8)
	for _, name := range p.RefNames {
		off += int64(2 + len(name))
	}
	return off
}

// Write serializes the prelude to w.
func (p *Prelude) Write(w io.Writer) error {
	var buf bytes.Buffer
	var scratch [8]byte

	binary.LittleEndian.PutUint32(scratch[:4], MagicNumber)
	buf.Write(scratch[:4])
	binary.LittleEndian.PutUint32(scratch[:4], Version)
	buf.Write(scratch[:4])

	if p.IsPaired {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	binary.LittleEndian.PutUint64(scratch[:], uint64(len(p.RefNames)))
	buf.Write(scratch[:])
	for _, name := range p.RefNames {
		binary.LittleEndian.PutUint16(scratch[:2], uint16(len(name)))
		buf.Write(scratch[:2])
		buf.WriteString(name)
	}
	binary.LittleEndian.PutUint64(scratch[:], p.NumChunks)
	buf.Write(scratch[:])

	p.FileTags.encode(&buf)
	p.ReadTags.encode(&buf)
	p.AlnTags.encode(&buf)

	_, err := w.Write(buf.Bytes())
	return err
}

// ReadPrelude parses a prelude from r, validating magic and version.
func ReadPrelude(r io.Reader) (*Prelude, error) {
	var fixed [8]byte
	if _, err := io.ReadFull(r, fixed[:8]); err != nil {
		return nil, fmt.Errorf("reading RAD magic: %w", err)
	}
	magic := binary.LittleEndian.Uint32(fixed[:4])
	if magic != MagicNumber {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, magic)
	}
	version := binary.LittleEndian.Uint32(fixed[4:8])
	if version != Version {
		return nil, fmt.Errorf("%w: got %d (expected %d)", ErrInvalidVersion, version, Version)
	}

	p := &Prelude{}
	var scratch [8]byte
	if _, err := io.ReadFull(r, scratch[:1]); err != nil {
		return nil, fmt.Errorf("reading prelude: %w", err)
	}
	p.IsPaired = scratch[0] != 0

	if _, err := io.ReadFull(r, scratch[:]); err != nil {
		return nil, fmt.Errorf("reading prelude: %w", err)
	}
	refCount := binary.LittleEndian.Uint64(scratch[:])

	p.RefNames = make([]string, 0, refCount)
	for i := uint64(0); i < refCount; i++ {
		if _, err := io.ReadFull(r, scratch[:2]); err != nil {
			return nil, fmt.Errorf("reading reference name %d: %w", i, err)
		}
		nameLen := binary.LittleEndian.Uint16(scratch[:2])
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, fmt.Errorf("reading reference name %d: %w", i, err)
		}
		p.RefNames = append(p.RefNames, string(name))
	}

	if _, err := io.ReadFull(r, scratch[:]); err != nil {
		return nil, fmt.Errorf("reading prelude: %w", err)
	}
	p.NumChunks = binary.LittleEndian.Uint64(scratch[:])

	for _, dst := range []*TagSchema{&p.FileTags, &p.ReadTags, &p.AlnTags} {
		schema, err := readSchema(r)
		if err != nil {
			return nil, err
		}
		*dst = schema
	}
	return p, nil
}

// readSchema reads one serialized tag schema from a stream.
func readSchema(r io.Reader) (TagSchema, error) {
	var scratch [2]byte
	if _, err := io.ReadFull(r, scratch[:]); err != nil {
		return nil, fmt.Errorf("reading tag schema: %w", err)
	}
	n := binary.LittleEndian.Uint16(scratch[:])

	schema := make(TagSchema, 0, n)
	for i := 0; i < int(n); i++ {
		if _, err := io.ReadFull(r, scratch[:]); err != nil {
			return nil, fmt.Errorf("reading tag schema: %w", err)
		}
		nameLen := binary.LittleEndian.Uint16(scratch[:])
		rest := make([]byte, int(nameLen)+1)
		if _, err := io.ReadFull(r, rest); err != nil {
			return nil, fmt.Errorf("reading tag schema: %w", err)
		}
		tt := TagType(rest[nameLen])
		if !tt.valid() {
			return nil, fmt.Errorf("%w: %d for tag %q", ErrInvalidTagType, rest[nameLen], rest[:nameLen])
		}
		schema = append(schema, TagDesc{Name: string(rest[:nameLen]), Type: tt})
	}
	return schema, nil
}

// TagMap holds the decoded file-level tag values, in schema order.
type TagMap struct {
	schema TagSchema
	values []TagValue
}

// NewTagMap pairs a schema with its values. Values must match the schema
// in count and type.
func NewTagMap(schema TagSchema, values []TagValue) (*TagMap, error) {
	if len(schema) != len(values) {
		return nil, fmt.Errorf("tag map: %d values for %d declared tags", len(values), len(schema))
	}
	for i, td := range schema {
		if values[i].Type() != td.Type {
			return nil, fmt.Errorf("tag map: tag %q declared %s, got %s", td.Name, td.Type, values[i].Type())
		}
	}
	return &TagMap{schema: schema, values: values}, nil
}

// Get returns the value for the named tag.
func (m *TagMap) Get(name string) (TagValue, bool) {
	for i, td := range m.schema {
		if td.Name == name {
			return m.values[i], true
		}
	}
	return TagValue{}, false
}

// Values returns the values in schema order.
func (m *TagMap) Values() []TagValue { return m.values }

// WriteValues serializes the tag values in schema order.
func (m *TagMap) WriteValues(w io.Writer) error {
	var buf bytes.Buffer
	for _, v := range m.values {
		v.encode(&buf)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// readTagMap decodes the file-level tag values that follow the prelude.
func readTagMap(r io.Reader, schema TagSchema) (*TagMap, error) {
	values := make([]TagValue, 0, len(schema))
	for _, td := range schema {
		v, err := readStreamValue(r, td.Type)
		if err != nil {
			return nil, fmt.Errorf("file tag %q: %w", td.Name, err)
		}
		values = append(values, v)
	}
	return &TagMap{schema: schema, values: values}, nil
}

// readStreamValue reads a single tag value directly from a stream.
func readStreamValue(r io.Reader, t TagType) (TagValue, error) {
	var width int
	switch t {
	case TagBool, TagU8:
		width = 1
	case TagU16:
		width = 2
	case TagU32, TagF32:
		width = 4
	case TagU64, TagF64:
		width = 8
	case TagString:
		var lenBuf [2]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return TagValue{}, err
		}
		n := binary.LittleEndian.Uint16(lenBuf[:])
		payload := make([]byte, 2+int(n))
		copy(payload, lenBuf[:])
		if _, err := io.ReadFull(r, payload[2:]); err != nil {
			return TagValue{}, err
		}
		return decodeTagValue(&cursor{buf: payload}, t)
	default:
		return TagValue{}, fmt.Errorf("%w: %d", ErrInvalidTagType, t)
	}
	payload := make([]byte, width)
	if _, err := io.ReadFull(r, payload); err != nil {
		return TagValue{}, err
	}
	return decodeTagValue(&cursor{buf: payload}, t)
}

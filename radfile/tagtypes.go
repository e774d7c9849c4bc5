package radfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// TagType identifies the primitive type of a tag value.
type TagType uint8

const (
	TagBool TagType = iota
	TagU8
	TagU16
	TagU32
	TagU64
	TagF32
	TagF64
	TagString
)

var (
	ErrInvalidTagType = errors.New("invalid tag type")
	ErrShortRead      = errors.New("short read in RAD payload")
)

func (t TagType) String() string {
	switch t {
	case TagBool:
		return "bool"
	case TagU8:
		return "u8"
	case TagU16:
		return "u16"
	case TagU32:
		return "u32"
	case TagU64:
		return "u64"
	case TagF32:
		return "f32"
	case TagF64:
		return "f64"
	case TagString:
		return "string"
	default:
		return fmt.Sprintf("tagtype(%d)", uint8(t))
	}
}

func (t TagType) valid() bool { return t <= TagString }

// TagDesc declares one tag: its schema name and primitive type.
type TagDesc struct {
	Name string
	Type TagType
}

// TagSchema is an ordered list of tag declarations. Order is part of the
// on-disk contract: values are serialized in declaration order.
type TagSchema []TagDesc

// Equal reports structural equality: same names, same types, same order.
func (s TagSchema) Equal(o TagSchema) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

func (s TagSchema) encode(buf *bytes.Buffer) {
	var scratch [2]byte
	binary.LittleEndian.PutUint16(scratch[:], uint16(len(s)))
	buf.Write(scratch[:])
	for _, td := range s {
		binary.LittleEndian.PutUint16(scratch[:], uint16(len(td.Name)))
		buf.Write(scratch[:])
		buf.WriteString(td.Name)
		buf.WriteByte(byte(td.Type))
	}
}

// TagValue holds one decoded tag value together with its on-disk type.
// The type drives both the wire width and the accessor that is populated.
type TagValue struct {
	typ TagType
	b   bool
	u   uint64
	f   float64
	s   string
}

func BoolValue(v bool) TagValue     { return TagValue{typ: TagBool, b: v} }
func U8Value(v uint8) TagValue      { return TagValue{typ: TagU8, u: uint64(v)} }
func U16Value(v uint16) TagValue    { return TagValue{typ: TagU16, u: uint64(v)} }
func U32Value(v uint32) TagValue    { return TagValue{typ: TagU32, u: uint64(v)} }
func U64Value(v uint64) TagValue    { return TagValue{typ: TagU64, u: v} }
func F32Value(v float32) TagValue   { return TagValue{typ: TagF32, f: float64(v)} }
func F64Value(v float64) TagValue   { return TagValue{typ: TagF64, f: v} }
func StringValue(v string) TagValue { return TagValue{typ: TagString, s: v} }

// Type returns the on-disk type of the value.
func (v TagValue) Type() TagType { return v.typ }

// Bool returns the boolean payload (TagBool only).
func (v TagValue) Bool() bool { return v.b }

// Uint64 returns the integer payload widened to uint64 (TagU8..TagU64).
func (v TagValue) Uint64() uint64 { return v.u }

// Float64 returns the float payload widened to float64 (TagF32/TagF64).
func (v TagValue) Float64() float64 { return v.f }

// StringVal returns the string payload (TagString only).
func (v TagValue) StringVal() string { return v.s }

// Interface returns the payload as its natural Go type, for rendering.
func (v TagValue) Interface() any {
	switch v.typ {
	case TagBool:
		return v.b
	case TagF32, TagF64:
		return v.f
	case TagString:
		return v.s
	default:
		return v.u
	}
}

func (v TagValue) String() string {
	return fmt.Sprintf("%s(%v)", v.typ, v.Interface())
}

func (v TagValue) encode(buf *bytes.Buffer) {
	var scratch [8]byte
	switch v.typ {
	case TagBool:
		if v.b {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case TagU8:
		buf.WriteByte(byte(v.u))
	case TagU16:
		binary.LittleEndian.PutUint16(scratch[:2], uint16(v.u))
		buf.Write(scratch[:2])
	case TagU32:
		binary.LittleEndian.PutUint32(scratch[:4], uint32(v.u))
		buf.Write(scratch[:4])
	case TagU64:
		binary.LittleEndian.PutUint64(scratch[:], v.u)
		buf.Write(scratch[:])
	case TagF32:
		binary.LittleEndian.PutUint32(scratch[:4], math.Float32bits(float32(v.f)))
		buf.Write(scratch[:4])
	case TagF64:
		binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(v.f))
		buf.Write(scratch[:])
	case TagString:
		binary.LittleEndian.PutUint16(scratch[:2], uint16(len(v.s)))
		buf.Write(scratch[:2])
		buf.WriteString(v.s)
	}
}

func decodeTagValue(cur *cursor, t TagType) (TagValue, error) {
	switch t {
	case TagBool:
		b, err := cur.u8()
		if err != nil {
			return TagValue{}, err
		}
		return BoolValue(b != 0), nil
	case TagU8:
		b, err := cur.u8()
		if err != nil {
			return TagValue{}, err
		}
		return U8Value(b), nil
	case TagU16:
		u, err := cur.u16()
		if err != nil {
			return TagValue{}, err
		}
		return U16Value(u), nil
	case TagU32:
		u, err := cur.u32()
		if err != nil {
			return TagValue{}, err
		}
		return U32Value(u), nil
	case TagU64:
		u, err := cur.u64()
		if err != nil {
			return TagValue{}, err
		}
		return U64Value(u), nil
	case TagF32:
		u, err := cur.u32()
		if err != nil {
			return TagValue{}, err
		}
		return F32Value(math.Float32frombits(u)), nil
	case TagF64:
		u, err := cur.u64()
		if err != nil {
			return TagValue{}, err
		}
		return F64Value(math.Float64frombits(u)), nil
	case TagString:
		n, err := cur.u16()
		if err != nil {
			return TagValue{}, err
		}
		b, err := cur.bytes(int(n))
		if err != nil {
			return TagValue{}, err
		}
		return StringValue(string(b)), nil
	default:
		return TagValue{}, fmt.Errorf("%w: %d", ErrInvalidTagType, t)
	}
}

// decodeTagValues decodes one value per schema entry, in schema order.
func decodeTagValues(cur *cursor, schema TagSchema) ([]TagValue, error) {
	if len(schema) == 0 {
		return nil, nil
	}
	values := make([]TagValue, 0, len(schema))
	for _, td := range schema {
		v, err := decodeTagValue(cur, td.Type)
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", td.Name, err)
		}
		values = append(values, v)
	}
	return values, nil
}

// cursor is a bounds-checked reader over a byte slice.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) remaining() int { return len(c.buf) - c.pos }

func (c *cursor) u8() (uint8, error) {
	if c.remaining() < 1 {
		return 0, ErrShortRead
	}
	v := c.buf[c.pos]
	c.pos++
	return v, nil
}

func (c *cursor) u16() (uint16, error) {
	if c.remaining() < 2 {
		return 0, ErrShortRead
	}
	v := binary.LittleEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *cursor) u32() (uint32, error) {
	if c.remaining() < 4 {
		return 0, ErrShortRead
	}
	v := binary.LittleEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *cursor) u64() (uint64, error) {
	if c.remaining() < 8 {
		return 0, ErrShortRead
	}
	v := binary.LittleEndian.Uint64(c.buf[c.pos:])
	c.pos += 8
	return v, nil
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, ErrShortRead
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

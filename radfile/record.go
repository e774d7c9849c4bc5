package radfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Alignment is one mapping of a read: a reference index plus the
// alignment-level tag values declared by the owning file's prelude.
type Alignment struct {
	RefID uint32
	Tags  []TagValue
}

// Record is one read's worth of data: its read-level tag values and its
// alignments. A record's shape is fully determined by the prelude it was
// read under; records are not meaningful outside that context.
type Record struct {
	Tags       []TagValue
	Alignments []Alignment
}

// Encode appends the record's serialized form to buf.
func (r *Record) Encode(buf *bytes.Buffer) {
	var scratch [4]byte
	for _, v := range r.Tags {
		v.encode(buf)
	}
	binary.LittleEndian.PutUint32(scratch[:], uint32(len(r.Alignments)))
	buf.Write(scratch[:])
	for _, a := range r.Alignments {
		binary.LittleEndian.PutUint32(scratch[:], a.RefID)
		buf.Write(scratch[:])
		for _, v := range a.Tags {
			v.encode(buf)
		}
	}
}

// decodeRecord decodes one record at the cursor position, advancing it
// past the record's bytes.
func decodeRecord(cur *cursor, p *Prelude) (*Record, error) {
	rec := &Record{}
	tags, err := decodeTagValues(cur, p.ReadTags)
	if err != nil {
		return nil, err
	}
	rec.Tags = tags

	alnCount, err := cur.u32()
	if err != nil {
		return nil, fmt.Errorf("alignment count: %w", err)
	}
	if int64(alnCount)*4 > int64(cur.remaining()) {
		// Each alignment needs at least its 4-byte ref id.
		return nil, fmt.Errorf("alignment count %d exceeds chunk payload: %w", alnCount, ErrShortRead)
	}
	if alnCount == 0 {
		return rec, nil
	}
	rec.Alignments = make([]Alignment, 0, alnCount)
	for i := uint32(0); i < alnCount; i++ {
		refID, err := cur.u32()
		if err != nil {
			return nil, fmt.Errorf("alignment %d: %w", i, err)
		}
		if uint64(refID) >= uint64(len(p.RefNames)) {
			return nil, fmt.Errorf("alignment %d: ref id %d out of range (%d references)", i, refID, len(p.RefNames))
		}
		alnTags, err := decodeTagValues(cur, p.AlnTags)
		if err != nil {
			return nil, fmt.Errorf("alignment %d: %w", i, err)
		}
		rec.Alignments = append(rec.Alignments, Alignment{RefID: refID, Tags: alnTags})
	}
	return rec, nil
}

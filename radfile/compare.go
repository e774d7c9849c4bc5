package radfile

import "fmt"

// MismatchError describes the first structural difference between two
// preludes. Field names the differing section; Detail pinpoints the
// offending entry.
type MismatchError struct {
	Field  string
	Detail string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("prelude mismatch in %s: %s", e.Field, e.Detail)
}

// CompatibleWith reports whether o can be combined with p: identical
// reference sets and identical tag schemas in name, order and type.
// Chunk counts are bookkeeping, not identity, and are ignored. Returns
// nil on compatibility, or a *MismatchError naming the first difference.
//
// Comparison is pure and order-sensitive: a schema with the same tags in
// a different order occupies different on-disk positions and is
// incompatible.
func (p *Prelude) CompatibleWith(o *Prelude) error {
	if p.IsPaired != o.IsPaired {
		return &MismatchError{
			Field:  "pairing",
			Detail: fmt.Sprintf("is_paired %v vs %v", p.IsPaired, o.IsPaired),
		}
	}
	if len(p.RefNames) != len(o.RefNames) {
		return &MismatchError{
			Field:  "reference set",
			Detail: fmt.Sprintf("%d references vs %d", len(p.RefNames), len(o.RefNames)),
		}
	}
	for i, name := range p.RefNames {
		if o.RefNames[i] != name {
			return &MismatchError{
				Field:  "reference set",
				Detail: fmt.Sprintf("reference %d is %q vs %q", i, name, o.RefNames[i]),
			}
		}
	}
	for _, sec := range []struct {
		field string
		a, b  TagSchema
	}{
		{"file tag schema", p.FileTags, o.FileTags},
		{"read tag schema", p.ReadTags, o.ReadTags},
		{"alignment tag schema", p.AlnTags, o.AlnTags},
	} {
		if err := compareSchemas(sec.field, sec.a, sec.b); err != nil {
			return err
		}
	}
	return nil
}

func compareSchemas(field string, a, b TagSchema) error {
	if len(a) != len(b) {
		return &MismatchError{
			Field:  field,
			Detail: fmt.Sprintf("%d tags vs %d", len(a), len(b)),
		}
	}
	for i := range a {
		if a[i].Name != b[i].Name {
			return &MismatchError{
				Field:  field,
				Detail: fmt.Sprintf("tag %d is %q vs %q", i, a[i].Name, b[i].Name),
			}
		}
		if a[i].Type != b[i].Type {
			return &MismatchError{
				Field:  field,
				Detail: fmt.Sprintf("tag %q is %s vs %s", a[i].Name, a[i].Type, b[i].Type),
			}
		}
	}
	return nil
}

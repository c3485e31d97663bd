package migration

// ---------------------------------------------------------------------------
// MappingValue
// ---------------------------------------------------------------------------

// ValueKind discriminates the two shapes a mapped value can take
type ValueKind string

const (
	// ValueKindScalar is a single string value (text, textarea, select)
	ValueKindScalar ValueKind = "scalar"
	// ValueKindMulti is a list of values (multiselect, category IDs)
	ValueKindMulti ValueKind = "multi"
)

// MappingValue is the tagged value of a mapping: either a single string or a
// list of strings, depending on the input kind of the attribute it targets.
type MappingValue struct {
	kind   ValueKind
	scalar string
	multi  []string
}

// Scalar builds a single-string mapping value
func Scalar(v string) MappingValue {
	return MappingValue{kind: ValueKindScalar, scalar: v}
}

// Multi builds a list mapping value. The slice is copied.
func Multi(vs ...string) MappingValue {
	cp := make([]string, len(vs))
	copy(cp, vs)
	return MappingValue{kind: ValueKindMulti, multi: cp}
}

// Kind returns the value kind
func (v MappingValue) Kind() ValueKind {
	return v.kind
}

// IsEmpty returns true for an empty scalar or an empty list
func (v MappingValue) IsEmpty() bool {
	if v.kind == ValueKindMulti {
		return len(v.multi) == 0
	}
	return v.scalar == ""
}

// String returns the scalar value, or "" for a list value
func (v MappingValue) String() string {
	if v.kind == ValueKindMulti {
		return ""
	}
	return v.scalar
}

// Values returns the list value, or a single-element list for a non-empty
// scalar
func (v MappingValue) Values() []string {
	if v.kind == ValueKindMulti {
		cp := make([]string, len(v.multi))
		copy(cp, v.multi)
		return cp
	}
	if v.scalar == "" {
		return nil
	}
	return []string{v.scalar}
}

// ---------------------------------------------------------------------------
// Mapping
// ---------------------------------------------------------------------------

// Mapping links one source field to a target attribute and value. An empty
// TargetCode means no attribute was matched; that is signalled through the
// validation rules, never as an error.
type Mapping struct {
	// SourceValue is the raw value read from the source field
	SourceValue string
	// TargetCode is the matched target attribute code, possibly empty
	TargetCode string
	// Value is the value to write to the target attribute
	Value MappingValue
}

// MappingSet maps a source field name to its mapping. One set exists for the
// product level and one per variant.
type MappingSet map[string]Mapping

// Clone returns a deep copy of the set
func (s MappingSet) Clone() MappingSet {
	cp := make(MappingSet, len(s))
	for name, m := range s {
		cp[name] = m
	}
	return cp
}

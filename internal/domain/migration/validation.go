package migration

// ---------------------------------------------------------------------------
// ValidationState
// ---------------------------------------------------------------------------

// ValidationState classifies one mapping for operator attention. It is always
// derived from the mapping and the attribute definition, never stored.
type ValidationState string

const (
	// ValidationValid marks a mapping that resolves cleanly
	ValidationValid ValidationState = "valid"
	// ValidationWarning marks a plausible but uncertain mapping
	ValidationWarning ValidationState = "warning"
	// ValidationError marks a mapping with no usable value
	ValidationError ValidationState = "error"
)

// String returns the string representation of ValidationState
func (s ValidationState) String() string {
	return string(s)
}

// validMatchSim is the source-to-option similarity above which an enumerated
// mapping is shown as valid rather than a warning.
const validMatchSim = 0.8

// Classify derives the validation state of one mapping against its target
// attribute definition.
//
// An empty value is always an error. For enumerated scalar attributes the
// value must resolve to an option (by value, or case-insensitively by label);
// a resolved option is valid when its label is close to the source value and
// a warning otherwise. Free-text values are valid whenever non-empty, and so
// are non-empty multi-values (multiselect, category IDs).
//
// Classification steers attention only; it never blocks submission.
func Classify(m Mapping, def *AttributeDef) ValidationState {
	if m.Value.IsEmpty() {
		return ValidationError
	}

	if m.Value.Kind() == ValueKindMulti {
		return ValidationValid
	}

	if def != nil && def.HasOptions() {
		opt, found := def.FindOption(m.Value.String())
		if !found {
			return ValidationError
		}
		if Similarity(m.SourceValue, opt.Label) >= validMatchSim {
			return ValidationValid
		}
		return ValidationWarning
	}

	return ValidationValid
}

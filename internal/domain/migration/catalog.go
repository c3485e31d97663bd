package migration

// ---------------------------------------------------------------------------
// AttributeCatalog
// ---------------------------------------------------------------------------

// AttributeCatalog is the session-owned copy of the target attribute set.
// Option lists are append-only: options created on the platform during the
// session are appended, nothing is removed or reordered. The catalog is
// passed explicitly to the matchers and validation rules rather than read
// from ambient state.
type AttributeCatalog struct {
	defs []AttributeDef
}

// NewAttributeCatalog builds a catalog from the fetched attribute set. The
// slice is copied so the caller cannot mutate it behind the session's back.
func NewAttributeCatalog(defs []AttributeDef) *AttributeCatalog {
	cp := make([]AttributeDef, len(defs))
	copy(cp, defs)
	return &AttributeCatalog{defs: cp}
}

// Defs returns the attribute definitions in catalog order
func (c *AttributeCatalog) Defs() []AttributeDef {
	return c.defs
}

// Find returns the definition with the given code
func (c *AttributeCatalog) Find(code string) (*AttributeDef, bool) {
	for i := range c.defs {
		if c.defs[i].Code == code {
			return &c.defs[i], true
		}
	}
	return nil, false
}

// AppendOption appends a newly created option to an enumerated attribute.
// Duplicate values are rejected so a retried create cannot double up.
func (c *AttributeCatalog) AppendOption(code string, opt AttributeOption) error {
	def, ok := c.Find(code)
	if !ok {
		return ErrAttributeNotFound
	}
	if !def.InputKind.IsEnumerated() {
		return ErrAttributeNotEnum
	}
	if _, exists := def.FindOption(opt.Value); exists {
		return ErrOptionExists
	}
	def.Options = append(def.Options, opt)
	return nil
}

// ---------------------------------------------------------------------------
// CategoryForest
// ---------------------------------------------------------------------------

// BuildCategoryForest derives path labels for a flat category list fetched
// from the platform. Nodes arrive with ID, Label, Level and ParentID set;
// PathLabels is filled here so Level and the path stay mutually consistent.
// Nodes whose parent chain cannot be resolved keep their own label as the
// whole path.
func BuildCategoryForest(flat []CategoryNode) []CategoryNode {
	byID := make(map[string]*CategoryNode, len(flat))
	forest := make([]CategoryNode, len(flat))
	copy(forest, flat)
	for i := range forest {
		byID[forest[i].ID] = &forest[i]
	}

	for i := range forest {
		forest[i].PathLabels = pathFor(&forest[i], byID)
	}
	return forest
}

// pathFor walks the parent chain root-to-leaf. The walk is bounded by the
// node's level to survive cyclic parent data.
func pathFor(node *CategoryNode, byID map[string]*CategoryNode) []string {
	labels := []string{node.Label}
	current := node
	for steps := 0; steps < node.Level; steps++ {
		parent, ok := byID[current.ParentID]
		if !ok {
			break
		}
		labels = append([]string{parent.Label}, labels...)
		current = parent
	}
	return labels
}

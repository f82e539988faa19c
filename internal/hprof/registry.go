package hprof

// ClassRegistry holds class definitions keyed by class object id and
// derives instance field layouts from the superclass chain.
type ClassRegistry struct {
	classes map[Identifier]*ClassDef
	order   []Identifier // registration order, for deterministic iteration

	// layouts caches flattened field layouts. Safe because registration
	// is first-writer-wins, so a cached layout never goes stale.
	layouts map[Identifier][]FieldDecl
}

// NewClassRegistry returns an empty registry.
func NewClassRegistry() *ClassRegistry {
	return &ClassRegistry{
		classes: make(map[Identifier]*ClassDef),
		layouts: make(map[Identifier][]FieldDecl),
	}
}

// Register adds a class definition. A second definition for the same id is
// a recoverable DuplicateClassDef; the first definition wins so layouts
// stay stable within a segment group.
func (r *ClassRegistry) Register(def *ClassDef) *DecodeError {
	if _, ok := r.classes[def.ClassID]; ok {
		return newDecodeError(KindDuplicateClassDef, 0,
			"class 0x%x defined twice", uint64(def.ClassID))
	}
	r.classes[def.ClassID] = def
	r.order = append(r.order, def.ClassID)
	return nil
}

// Get returns the definition for a class id.
func (r *ClassRegistry) Get(id Identifier) (*ClassDef, bool) {
	def, ok := r.classes[id]
	return def, ok
}

// Count returns the number of registered classes.
func (r *ClassRegistry) Count() int { return len(r.classes) }

// FieldLayout returns the instance field layout for a class: its own
// declared fields first, then each superclass's in turn. This matches the
// order instance dump blobs are laid out in. A superclass id with no
// registered definition is a recoverable DanglingSuperclass.
func (r *ClassRegistry) FieldLayout(classID Identifier) ([]FieldDecl, *DecodeError) {
	if layout, ok := r.layouts[classID]; ok {
		return layout, nil
	}

	var layout []FieldDecl
	current := classID
	for !current.IsNull() {
		def, ok := r.classes[current]
		if !ok {
			if current == classID {
				return nil, newDecodeError(KindDanglingSuperclass, 0,
					"no definition for class 0x%x", uint64(classID))
			}
			return nil, newDecodeError(KindDanglingSuperclass, 0,
				"class 0x%x: superclass 0x%x never defined",
				uint64(classID), uint64(current))
		}
		layout = append(layout, def.Fields...)
		current = def.SuperClassID
	}

	r.layouts[classID] = layout
	return layout, nil
}

// StaticFields returns the static fields of a class, resolved at
// class-dump time.
func (r *ClassRegistry) StaticFields(classID Identifier) []StaticField {
	if def, ok := r.classes[classID]; ok {
		return def.StaticFields
	}
	return nil
}

// Classes iterates all registered definitions in registration order.
func (r *ClassRegistry) Classes(fn func(*ClassDef) bool) {
	for _, id := range r.order {
		if !fn(r.classes[id]) {
			return
		}
	}
}

// Snapshot returns a shallow copy of the registry so independent segment
// groups can be resolved concurrently without sharing mutable state.
func (r *ClassRegistry) Snapshot() *ClassRegistry {
	s := NewClassRegistry()
	for id, def := range r.classes {
		s.classes[id] = def
	}
	s.order = append(s.order, r.order...)
	return s
}

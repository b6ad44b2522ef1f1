package db

// Each setter below is unique-per-id: the loader is expected to set an
// attribute exactly once per entity. Calling it twice is a programming
// error and panics, matching the contract in spec §4.1.

func (d *DB) SetName(id EntityID, v string) {
	if _, ok := d.name[id]; ok {
		panic("db: name already set")
	}
	d.name[id] = v
	if k, ok := d.kindOf[id]; ok {
		d.indexName(k, v, id)
	}
}

func (d *DB) Name(id EntityID) (string, bool) {
	v, ok := d.name[id]
	return v, ok
}

func (d *DB) SetDescription(id EntityID, v string) {
	if _, ok := d.description[id]; ok {
		panic("db: description already set")
	}
	d.description[id] = v
}

func (d *DB) Description(id EntityID) (string, bool) {
	v, ok := d.description[id]
	return v, ok
}

func (d *DB) SetOffset(id EntityID, v int) {
	if _, ok := d.offset[id]; ok {
		panic("db: offset already set")
	}
	d.offset[id] = v
}

func (d *DB) Offset(id EntityID) (int, bool) {
	v, ok := d.offset[id]
	return v, ok
}

func (d *DB) SetSize(id EntityID, v int) {
	if _, ok := d.size[id]; ok {
		panic("db: size already set")
	}
	d.size[id] = v
}

func (d *DB) Size(id EntityID) (int, bool) {
	v, ok := d.size[id]
	return v, ok
}

func (d *DB) SetAccess(id EntityID, v Access) {
	if _, ok := d.access[id]; ok {
		panic("db: access already set")
	}
	d.access[id] = v
}

func (d *DB) GetAccess(id EntityID) (Access, bool) {
	v, ok := d.access[id]
	return v, ok
}

func (d *DB) SetResetValue(id EntityID, v uint64) {
	if _, ok := d.resetValue[id]; ok {
		panic("db: reset_value already set")
	}
	d.resetValue[id] = v
}

func (d *DB) ResetValue(id EntityID) (uint64, bool) {
	v, ok := d.resetValue[id]
	return v, ok
}

func (d *DB) SetResetMask(id EntityID, v uint64) {
	if _, ok := d.resetMask[id]; ok {
		panic("db: reset_mask already set")
	}
	d.resetMask[id] = v
}

func (d *DB) ResetMask(id EntityID) (uint64, bool) {
	v, ok := d.resetMask[id]
	return v, ok
}

func (d *DB) SetVersion(id EntityID, v string) {
	if _, ok := d.version[id]; ok {
		panic("db: version already set")
	}
	d.version[id] = v
}

func (d *DB) Version(id EntityID) (string, bool) {
	v, ok := d.version[id]
	return v, ok
}

// SetEnumRef records that field id refers to enum type enumID (I5).
func (d *DB) SetEnumRef(id, enumID EntityID) error {
	if _, ok := d.enumRef[id]; ok {
		panic("db: enum_ref already set")
	}
	if !d.EntityIs(KindEnumType, enumID) {
		return &KindMismatchError{ID: enumID, Want: KindEnumType, Got: d.kindOf[enumID], During: "SetEnumRef"}
	}
	d.enumRef[id] = enumID
	return nil
}

func (d *DB) EnumRef(id EntityID) (EntityID, bool) {
	v, ok := d.enumRef[id]
	return v, ok
}

// SetModes records the set of type.mode ids under which id is active (I4).
func (d *DB) SetModes(id EntityID, modeIDs []EntityID) error {
	if _, ok := d.modes[id]; ok {
		panic("db: modes already set")
	}
	for _, m := range modeIDs {
		if !d.EntityIs(KindModeType, m) {
			return &KindMismatchError{ID: m, Want: KindModeType, Got: d.kindOf[m], During: "SetModes"}
		}
	}
	cp := make([]EntityID, len(modeIDs))
	copy(cp, modeIDs)
	d.modes[id] = cp
	return nil
}

func (d *DB) Modes(id EntityID) []EntityID {
	return d.modes[id]
}

// SetTypeRef records which type.peripheral or type.register_group an
// instance.peripheral places (I6).
func (d *DB) SetTypeRef(id, typeID EntityID) error {
	if _, ok := d.typeRef[id]; ok {
		panic("db: type ref already set")
	}
	k, ok := d.kindOf[typeID]
	if !ok || (k != KindPeripheralType && k != KindRegisterGroupType) {
		return &KindMismatchError{ID: typeID, Want: KindPeripheralType, Got: k, During: "SetTypeRef"}
	}
	d.typeRef[id] = typeID
	return nil
}

func (d *DB) TypeRef(id EntityID) (EntityID, bool) {
	v, ok := d.typeRef[id]
	return v, ok
}

func (d *DB) Parent(id EntityID) (EntityID, bool) {
	v, ok := d.parent[id]
	return v, ok
}

// Children returns every child attached to parent, in attachment order,
// regardless of kind.
func (d *DB) Children(parent EntityID) []EntityID {
	out := make([]EntityID, len(d.children[parent]))
	copy(out, d.children[parent])
	return out
}

// ChildrenOfKind filters Children(parent) to those registered as k.
func (d *DB) ChildrenOfKind(parent EntityID, k Kind) []EntityID {
	var out []EntityID
	for _, c := range d.children[parent] {
		if d.kindOf[c] == k {
			out = append(out, c)
		}
	}
	return out
}

// AddChild attaches child under parent, validating the edge kind (I2) and
// that the attachment does not reparent an already-parented child or
// introduce a cycle (I3).
func (d *DB) AddChild(parent, child EntityID) error {
	pk, ok := d.kindOf[parent]
	if !ok {
		return &KindMismatchError{ID: parent, During: "AddChild"}
	}
	ck, ok := d.kindOf[child]
	if !ok {
		return &KindMismatchError{ID: child, During: "AddChild"}
	}
	if d.isAncestor(child, parent) {
		return &CycleDetectedError{Parent: parent, Child: child}
	}
	if !edgeAllowed(pk, ck) {
		return &KindMismatchError{ID: child, Want: pk, Got: ck, During: "AddChild edge"}
	}
	if existing, ok := d.parent[child]; ok {
		if existing != parent {
			return &AlreadyParentedError{Child: child, OldParent: existing, NewParent: parent}
		}
		return nil
	}
	d.children[parent] = append(d.children[parent], child)
	d.parent[child] = parent
	return nil
}

func (d *DB) isAncestor(candidate, id EntityID) bool {
	cur, ok := d.parent[id]
	for ok {
		if cur == candidate {
			return true
		}
		cur, ok = d.parent[cur]
	}
	return false
}

// Ancestors returns id's parent chain, nearest first.
func (d *DB) Ancestors(id EntityID) []EntityID {
	var out []EntityID
	cur, ok := d.parent[id]
	for ok {
		out = append(out, cur)
		cur, ok = d.parent[cur]
	}
	return out
}

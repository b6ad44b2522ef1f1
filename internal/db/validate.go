package db

import "github.com/pkg/errors"

// AssertValid enforces I1-I6. It is run after every load and before every
// emit; a non-nil error is a Contract failure (spec §7), a programming bug
// rather than a condition the loader can skip past.
func (d *DB) AssertValid() error {
	if err := d.checkI1(); err != nil {
		return errors.Wrap(err, "I1 (every entity registered exactly once)")
	}
	if err := d.checkI2I3(); err != nil {
		return err
	}
	if err := d.checkI4(); err != nil {
		return errors.Wrap(err, "I4 (mode scope)")
	}
	if err := d.checkI5(); err != nil {
		return errors.Wrap(err, "I5 (enum scope)")
	}
	if err := d.checkI6(); err != nil {
		return errors.Wrap(err, "I6 (instance typing)")
	}
	return nil
}

func (d *DB) checkI1() error {
	for id := EntityID(1); id <= d.next; id++ {
		if _, ok := d.kindOf[id]; !ok {
			return errors.Errorf("entity %d was created but never registered", id)
		}
	}
	return nil
}

func (d *DB) checkI2I3() error {
	// I2: every child's declared parent matches, and its kind matches the
	// edge it was attached under.
	for parent, kids := range d.children {
		pk := d.kindOf[parent]
		for _, c := range kids {
			ck, ok := d.kindOf[c]
			if !ok {
				return errors.Errorf("I2: child %d of %d has no kind", c, parent)
			}
			if !edgeAllowed(pk, ck) {
				return errors.Errorf("I2: %d (%s) is not a valid child kind under %s", c, ck, pk)
			}
			if got, ok := d.parent[c]; !ok || got != parent {
				return errors.Errorf("I2: child %d does not point back to parent %d", c, parent)
			}
		}
	}
	// I3: the parent relation must be acyclic.
	color := map[EntityID]int{} // 0=white,1=gray,2=black
	var visit func(id EntityID) error
	visit = func(id EntityID) error {
		switch color[id] {
		case 1:
			return errors.Errorf("I3: cycle detected at entity %d", id)
		case 2:
			return nil
		}
		color[id] = 1
		for _, c := range d.children[id] {
			if err := visit(c); err != nil {
				return err
			}
		}
		color[id] = 2
		return nil
	}
	for id := EntityID(1); id <= d.next; id++ {
		if _, ok := d.kindOf[id]; !ok {
			continue
		}
		if color[id] == 0 {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *DB) checkI4() error {
	for id, modeIDs := range d.modes {
		ancestors := append([]EntityID{id}, d.Ancestors(id)...)
	next:
		for _, m := range modeIDs {
			if !d.EntityIs(KindModeType, m) {
				return errors.Errorf("modes entry %d on entity %d is not a type.mode", m, id)
			}
			mp, ok := d.parent[m]
			if !ok {
				return errors.Errorf("mode %d has no parent", m)
			}
			for _, a := range ancestors {
				if mp == a {
					continue next
				}
			}
			return errors.Errorf("mode %d is not a child of an ancestor of entity %d", m, id)
		}
	}
	return nil
}

func (d *DB) checkI5() error {
	for id, enumID := range d.enumRef {
		if !d.EntityIs(KindEnumType, enumID) {
			return errors.Errorf("enum_ref %d on field %d is not a type.enum", enumID, id)
		}
		ep, ok := d.parent[enumID]
		if !ok {
			return errors.Errorf("enum %d has no parent", enumID)
		}
		found := false
		for _, a := range d.Ancestors(id) {
			if ep == a {
				found = true
				break
			}
		}
		if !found {
			return errors.Errorf("enum %d is not reachable by walking ancestors of field %d", enumID, id)
		}
	}
	return nil
}

func (d *DB) checkI6() error {
	for _, id := range d.kindOrder[KindPeripheralInstance] {
		t, ok := d.typeRef[id]
		if !ok {
			return errors.Errorf("instance.peripheral %d has no type reference", id)
		}
		k := d.kindOf[t]
		if k != KindPeripheralType && k != KindRegisterGroupType {
			return errors.Errorf("instance.peripheral %d references entity %d of kind %s, want type.peripheral or type.register_group", id, t, k)
		}
	}
	return nil
}

package db

// EntityID is an opaque, monotonically increasing identifier. It carries no
// type information of its own; Kind(id) is the only way to find out what an
// id denotes.
type EntityID uint32

// ModePayload is the value carried directly in the type.mode kind table,
// rather than in a sparse attribute map, per spec §3.
type ModePayload struct {
	Value     string
	Qualifier string
}

// DB is the single shared entity-attribute store a loader populates and the
// generator/codec later read. It is built by exactly one loader call and is
// expected, but not enforced, to be read-only afterward.
type DB struct {
	next EntityID

	kindOf    map[EntityID]Kind
	kindOrder map[Kind][]EntityID
	nameIndex map[Kind]map[string]EntityID

	name        map[EntityID]string
	description map[EntityID]string
	offset      map[EntityID]int
	size        map[EntityID]int
	access      map[EntityID]Access
	resetValue  map[EntityID]uint64
	resetMask   map[EntityID]uint64
	version     map[EntityID]string
	enumRef     map[EntityID]EntityID
	modes       map[EntityID][]EntityID
	parent      map[EntityID]EntityID
	typeRef     map[EntityID]EntityID // instance.peripheral -> type.peripheral | type.register_group

	enumFieldValue map[EntityID]int64
	modePayload    map[EntityID]ModePayload
	interruptValue map[EntityID]int

	children map[EntityID][]EntityID
}

// New returns an empty database ready for a single loader to populate.
func New() *DB {
	return &DB{
		kindOf:         map[EntityID]Kind{},
		kindOrder:      map[Kind][]EntityID{},
		nameIndex:      map[Kind]map[string]EntityID{},
		name:           map[EntityID]string{},
		description:    map[EntityID]string{},
		offset:         map[EntityID]int{},
		size:           map[EntityID]int{},
		access:         map[EntityID]Access{},
		resetValue:     map[EntityID]uint64{},
		resetMask:      map[EntityID]uint64{},
		version:        map[EntityID]string{},
		enumRef:        map[EntityID]EntityID{},
		modes:          map[EntityID][]EntityID{},
		parent:         map[EntityID]EntityID{},
		typeRef:        map[EntityID]EntityID{},
		enumFieldValue: map[EntityID]int64{},
		modePayload:    map[EntityID]ModePayload{},
		interruptValue: map[EntityID]int{},
		children:       map[EntityID][]EntityID{},
	}
}

// CreateEntity allocates a fresh id. It is not yet a member of any kind
// table; Register must be called before the id is otherwise usable.
func (d *DB) CreateEntity() EntityID {
	d.next++
	return d.next
}

// Register places id into kind's table. Re-registering an id, or an id that
// was never created by this DB, is a programming error and panics.
func (d *DB) Register(id EntityID, k Kind) {
	if id == 0 || id > d.next {
		panic("db: Register called with an id this DB did not create")
	}
	if _, ok := d.kindOf[id]; ok {
		panic("db: Register called twice for the same entity")
	}
	d.kindOf[id] = k
	d.kindOrder[k] = append(d.kindOrder[k], id)
}

// Kind reports the kind id is registered as.
func (d *DB) Kind(id EntityID) (Kind, bool) {
	k, ok := d.kindOf[id]
	return k, ok
}

// EntityIs reports whether id is registered as kind k.
func (d *DB) EntityIs(k Kind, id EntityID) bool {
	got, ok := d.kindOf[id]
	return ok && got == k
}

// IterKind returns every entity registered as k, in registration order.
func (d *DB) IterKind(k Kind) []EntityID {
	out := make([]EntityID, len(d.kindOrder[k]))
	copy(out, d.kindOrder[k])
	return out
}

// indexName records id under name for fast ByName lookups within its kind.
// The first registration of a given name wins, matching the loader's "no
// dedup" policy: later duplicates are still valid entities, just not
// reachable by name.
func (d *DB) indexName(k Kind, name string, id EntityID) {
	if name == "" {
		return
	}
	m, ok := d.nameIndex[k]
	if !ok {
		m = map[string]EntityID{}
		d.nameIndex[k] = m
	}
	if _, exists := m[name]; !exists {
		m[name] = id
	}
}

// ByName looks up an entity of kind k by its short name.
func (d *DB) ByName(k Kind, name string) (EntityID, error) {
	if id, ok := d.nameIndex[k][name]; ok {
		return id, nil
	}
	return 0, &NameNotFoundError{Kind: k, Name: name}
}

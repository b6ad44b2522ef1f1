package db

import "fmt"

// NameNotFoundError is returned by ByName when no entity of the given kind
// carries the given name.
type NameNotFoundError struct {
	Kind Kind
	Name string
}

func (e *NameNotFoundError) Error() string {
	return fmt.Sprintf("db: no %s named %q", e.Kind, e.Name)
}

// MissingAttributeError is returned when a required attribute was never set
// on an entity before it is consumed (the code generator returns it for a
// register without a size or a top-level type without a name).
type MissingAttributeError struct {
	ID   EntityID
	Kind Kind
	Attr string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("db: entity %d (%s) missing required attribute %q", e.ID, e.Kind, e.Attr)
}

// KindMismatchError is returned when an edge, reference, or registration
// names an entity of the wrong kind.
type KindMismatchError struct {
	ID     EntityID
	Want   Kind
	Got    Kind
	During string
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("db: %s: entity %d is %s, want %s", e.During, e.ID, e.Got, e.Want)
}

// CycleDetectedError is returned when attaching a child would make the
// parent relation non-acyclic.
type CycleDetectedError struct {
	Parent, Child EntityID
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("db: attaching %d under %d would create a cycle", e.Child, e.Parent)
}

// AlreadyParentedError is returned by AddChild when the child already has a
// different parent; the parent relation is a forest, so reparenting is
// rejected rather than silently allowed.
type AlreadyParentedError struct {
	Child, OldParent, NewParent EntityID
}

func (e *AlreadyParentedError) Error() string {
	return fmt.Sprintf("db: entity %d already has parent %d, cannot reparent to %d", e.Child, e.OldParent, e.NewParent)
}

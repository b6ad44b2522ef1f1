// Package jsoncodec implements the canonical JSON dump/restore of a
// database (spec §4.3): a round-trippable projection keyed by a semver
// version string, with a types/peripherals tree and a name-keyed devices
// map, both
// preserving the database's insertion order.
package jsoncodec

import (
	"encoding/json"

	"github.com/pkg/errors"

	"hwgen/internal/db"
)

// Version is written into every encoded document and is not otherwise
// interpreted by Unmarshal; it exists so a future incompatible codec change
// has somewhere to branch from.
const Version = "1.0.0"

// Document is the top-level shape described in spec §4.3.
type Document struct {
	Version string        `json:"version"`
	Types   *typesSection `json:"types,omitempty"`
	Devices *omap         `json:"devices,omitempty"`
}

type typesSection struct {
	Peripherals *omap `json:"peripherals,omitempty"`
}

// entityObject is the generic per-entity shape: every kind uses the same
// struct, with fields left at their zero value (and therefore omitted)
// when the underlying attribute was never set.
type entityObject struct {
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
	Offset      *int    `json:"offset,omitempty"`
	Size        *int    `json:"size,omitempty"`
	Access      string  `json:"access,omitempty"`
	ResetValue  *uint64 `json:"reset_value,omitempty"`
	ResetMask   *uint64 `json:"reset_mask,omitempty"`
	Version     string  `json:"version,omitempty"`
	EnumRef     string  `json:"enum_ref,omitempty"`
	Modes       []string `json:"modes,omitempty"`
	Value       *int64  `json:"value,omitempty"`          // type.enum_field
	ModeValue   string  `json:"mode_value,omitempty"`      // type.mode payload
	Qualifier   string  `json:"qualifier,omitempty"`       // type.mode payload
	Interrupt   *int    `json:"interrupt_value,omitempty"` // instance.interrupt
	TypeRef     string  `json:"type_ref,omitempty"`        // instance.peripheral
	Children    *omap   `json:"children,omitempty"`
}

// Marshal renders database as the canonical JSON document.
func Marshal(database *db.DB) ([]byte, error) {
	doc, err := Encode(database)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Encode builds the Document tree without serializing it, exposed
// separately so tests can inspect the tree shape directly.
func Encode(database *db.DB) (*Document, error) {
	doc := &Document{Version: Version}

	peripheralIDs := database.IterKind(db.KindPeripheralType)
	if len(peripheralIDs) > 0 {
		peripherals := newOmap()
		for _, id := range peripheralIDs {
			name, _ := database.Name(id)
			obj, err := buildEntity(database, id)
			if err != nil {
				return nil, err
			}
			if err := peripherals.set(name, obj); err != nil {
				return nil, err
			}
		}
		doc.Types = &typesSection{Peripherals: peripherals}
	}

	deviceIDs := database.IterKind(db.KindDeviceInstance)
	if len(deviceIDs) > 0 {
		devices := newOmap()
		for _, id := range deviceIDs {
			name, _ := database.Name(id)
			obj, err := buildEntity(database, id)
			if err != nil {
				return nil, err
			}
			if err := devices.set(name, obj); err != nil {
				return nil, err
			}
		}
		doc.Devices = devices
	}
	return doc, nil
}

func buildEntity(database *db.DB, id db.EntityID) (*entityObject, error) {
	obj := &entityObject{}
	if name, ok := database.Name(id); ok {
		obj.Name = name
	}
	if desc, ok := database.Description(id); ok {
		obj.Description = desc
	}
	if off, ok := database.Offset(id); ok {
		v := off
		obj.Offset = &v
	}
	if size, ok := database.Size(id); ok {
		v := size
		obj.Size = &v
	}
	if acc, ok := database.GetAccess(id); ok && acc != db.AccessReadWrite {
		obj.Access = acc.String()
	}
	if rv, ok := database.ResetValue(id); ok {
		v := rv
		obj.ResetValue = &v
	}
	if rm, ok := database.ResetMask(id); ok {
		v := rm
		obj.ResetMask = &v
	}
	if ver, ok := database.Version(id); ok {
		obj.Version = ver
	}
	if enumID, ok := database.EnumRef(id); ok {
		if name, ok := database.Name(enumID); ok {
			obj.EnumRef = name
		}
	}
	if modeIDs := database.Modes(id); len(modeIDs) > 0 {
		for _, m := range modeIDs {
			if name, ok := database.Name(m); ok {
				obj.Modes = append(obj.Modes, name)
			}
		}
	}
	if v, ok := database.EnumFieldValue(id); ok {
		obj.Value = &v
	}
	if mp, ok := database.ModePayloadOf(id); ok {
		obj.ModeValue = mp.Value
		obj.Qualifier = mp.Qualifier
	}
	if v, ok := database.InterruptValue(id); ok {
		obj.Interrupt = &v
	}
	if typeID, ok := database.TypeRef(id); ok {
		if name, ok := database.Name(typeID); ok {
			obj.TypeRef = name
		}
	}

	children, err := buildChildren(database, id)
	if err != nil {
		return nil, err
	}
	obj.Children = children
	return obj, nil
}

func buildChildren(database *db.DB, id db.EntityID) (*omap, error) {
	kids := database.Children(id)
	if len(kids) == 0 {
		return nil, nil
	}
	var kindOrder []db.Kind
	grouped := map[db.Kind][]db.EntityID{}
	for _, c := range kids {
		k, _ := database.Kind(c)
		if _, seen := grouped[k]; !seen {
			kindOrder = append(kindOrder, k)
		}
		grouped[k] = append(grouped[k], c)
	}
	m := newOmap()
	for _, k := range kindOrder {
		var objs []*entityObject
		for _, c := range grouped[k] {
			obj, err := buildEntity(database, c)
			if err != nil {
				return nil, err
			}
			objs = append(objs, obj)
		}
		if err := m.set(k.String(), objs); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Unmarshal parses a canonical JSON document and rebuilds a fresh database
// from it, in the same parent-before-child order the document was written
// in. The result is an identity modulo the allocator's fresh id assignment.
func Unmarshal(data []byte) (*db.DB, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "jsoncodec: decode document")
	}
	database := db.New()

	if doc.Types != nil && doc.Types.Peripherals != nil {
		for i, name := range doc.Types.Peripherals.keys {
			var obj entityObject
			if err := json.Unmarshal(doc.Types.Peripherals.vals[i], &obj); err != nil {
				return nil, errors.Wrapf(err, "jsoncodec: type.peripheral %q", name)
			}
			id := database.CreatePeripheralType(name)
			if err := applyScalars(database, id, &obj); err != nil {
				return nil, err
			}
			if err := rebuildChildren(database, id, obj.Children); err != nil {
				return nil, err
			}
		}
	}

	if doc.Devices != nil {
		for i, name := range doc.Devices.keys {
			var obj entityObject
			if err := json.Unmarshal(doc.Devices.vals[i], &obj); err != nil {
				return nil, errors.Wrapf(err, "jsoncodec: instance.device %q", name)
			}
			id := database.CreateDevice(name)
			if err := applyScalars(database, id, &obj); err != nil {
				return nil, err
			}
			if err := rebuildChildren(database, id, obj.Children); err != nil {
				return nil, err
			}
		}
	}
	return database, nil
}

// rebuildChildren recreates the children recorded under parent, grouped by
// kind, in the same order the kind groups and the entities within them
// appeared in the document.
func rebuildChildren(database *db.DB, parent db.EntityID, children *omap) error {
	if children == nil {
		return nil
	}
	for i, kindName := range children.keys {
		k, ok := db.ParseKind(kindName)
		if !ok {
			return errors.Errorf("jsoncodec: unknown child kind %q under entity %d", kindName, parent)
		}
		var objs []*entityObject
		if err := json.Unmarshal(children.vals[i], &objs); err != nil {
			return errors.Wrapf(err, "jsoncodec: children[%q]", kindName)
		}
		for _, obj := range objs {
			id, err := createChild(database, parent, k, obj)
			if err != nil {
				return errors.Wrapf(err, "jsoncodec: %s %q", kindName, obj.Name)
			}
			if err := applyScalars(database, id, obj); err != nil {
				return err
			}
			if err := rebuildChildren(database, id, obj.Children); err != nil {
				return err
			}
		}
	}
	return nil
}

func createChild(database *db.DB, parent db.EntityID, k db.Kind, obj *entityObject) (db.EntityID, error) {
	switch k {
	case db.KindRegisterGroupType:
		id, err := database.CreateRegisterGroup(parent, obj.Name)
		if err == nil && obj.Offset != nil {
			database.SetOffset(id, *obj.Offset)
		}
		return id, err
	case db.KindRegisterType:
		return database.CreateRegister(parent, obj.Name, intOr(obj.Offset, 0), intOr(obj.Size, 0))
	case db.KindFieldType:
		return database.CreateField(parent, obj.Name, intOr(obj.Offset, 0), intOr(obj.Size, 0))
	case db.KindEnumType:
		return database.CreateEnum(parent, obj.Name)
	case db.KindEnumFieldType:
		var v int64
		if obj.Value != nil {
			v = *obj.Value
		}
		return database.CreateEnumField(parent, obj.Name, v)
	case db.KindModeType:
		return database.CreateMode(parent, obj.Name, obj.ModeValue, obj.Qualifier)
	case db.KindPeripheralInstance:
		typeID, err := resolveTypeRefByName(database, obj.TypeRef)
		if err != nil {
			return 0, err
		}
		return database.CreatePeripheralInstance(parent, obj.Name, typeID, intOr(obj.Offset, 0))
	case db.KindInterruptInstance:
		v := 0
		if obj.Interrupt != nil {
			v = *obj.Interrupt
		}
		return database.CreateInterrupt(parent, obj.Name, v)
	default:
		return 0, errors.Errorf("jsoncodec: %s cannot be a document child", k)
	}
}

// applyScalars sets the attributes the Create* builders do not already set
// (name/offset/size are handled by the builder itself).
func applyScalars(database *db.DB, id db.EntityID, obj *entityObject) error {
	if obj.Description != "" {
		database.SetDescription(id, obj.Description)
	}
	if k, ok := database.Kind(id); ok && (k == db.KindRegisterType || k == db.KindFieldType) {
		if obj.Access != "" {
			database.SetAccess(id, db.ParseAccess(obj.Access))
		} else {
			// buildEntity omits "access" when it is the read-write default
			// (spec §4.3 omit-on-default); restore that default here so
			// round-tripping doesn't leave access unset (R1).
			database.SetAccess(id, db.AccessReadWrite)
		}
	}
	if obj.ResetValue != nil {
		database.SetResetValue(id, *obj.ResetValue)
	}
	if obj.ResetMask != nil {
		database.SetResetMask(id, *obj.ResetMask)
	}
	if obj.Version != "" {
		database.SetVersion(id, obj.Version)
	}
	if obj.EnumRef != "" {
		enumID, err := database.ByName(db.KindEnumType, obj.EnumRef)
		if err != nil {
			return errors.Wrapf(err, "jsoncodec: enum_ref %q on entity %d", obj.EnumRef, id)
		}
		if err := database.SetEnumRef(id, enumID); err != nil {
			return err
		}
	}
	if len(obj.Modes) > 0 {
		var modeIDs []db.EntityID
		for _, name := range obj.Modes {
			modeID, err := database.ByName(db.KindModeType, name)
			if err != nil {
				return errors.Wrapf(err, "jsoncodec: mode %q on entity %d", name, id)
			}
			modeIDs = append(modeIDs, modeID)
		}
		if err := database.SetModes(id, modeIDs); err != nil {
			return err
		}
	}
	return nil
}

func resolveTypeRefByName(database *db.DB, name string) (db.EntityID, error) {
	if id, err := database.ByName(db.KindPeripheralType, name); err == nil {
		return id, nil
	}
	if id, err := database.ByName(db.KindRegisterGroupType, name); err == nil {
		return id, nil
	}
	return 0, errors.Errorf("jsoncodec: type_ref %q matches no type.peripheral or type.register_group", name)
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

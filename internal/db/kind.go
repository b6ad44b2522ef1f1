// Package db implements the entity-attribute database that sits between the
// dialect loaders and the code generator. Every peripheral, register, field,
// enum, mode and device instance is an opaque EntityID; membership in a kind
// table is the only thing that gives an id a type.
package db

// Kind identifies which table an entity is registered in. An entity carries
// no intrinsic type tag beyond this.
type Kind int

const (
	KindPeripheralType Kind = iota
	KindRegisterGroupType
	KindRegisterType
	KindFieldType
	KindEnumType
	KindEnumFieldType
	KindModeType
	KindDeviceInstance
	KindPeripheralInstance
	KindInterruptInstance
)

func (k Kind) String() string {
	switch k {
	case KindPeripheralType:
		return "type.peripheral"
	case KindRegisterGroupType:
		return "type.register_group"
	case KindRegisterType:
		return "type.register"
	case KindFieldType:
		return "type.field"
	case KindEnumType:
		return "type.enum"
	case KindEnumFieldType:
		return "type.enum_field"
	case KindModeType:
		return "type.mode"
	case KindDeviceInstance:
		return "instance.device"
	case KindPeripheralInstance:
		return "instance.peripheral"
	case KindInterruptInstance:
		return "instance.interrupt"
	default:
		return "kind(unknown)"
	}
}

// edges declares, for each parent kind, which child kinds may be attached to
// it via AddChild. instance.peripheral -> instance.register_group from the
// spec is modeled as instance.peripheral -> instance.peripheral, since
// instance.register_group is not one of the enumerated kind tables; see
// DESIGN.md for the rationale.
var edges = map[Kind][]Kind{
	KindDeviceInstance:     {KindPeripheralInstance, KindInterruptInstance},
	KindPeripheralType:     {KindRegisterType, KindRegisterGroupType, KindModeType, KindEnumType},
	KindRegisterGroupType:  {KindRegisterType, KindRegisterGroupType, KindModeType, KindEnumType},
	KindRegisterType:       {KindFieldType, KindModeType},
	KindEnumType:           {KindEnumFieldType},
	KindPeripheralInstance: {KindPeripheralInstance},
}

// ParseKind is the inverse of Kind.String, used by the JSON codec to turn a
// children-map key back into a Kind when rebuilding a database.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "type.peripheral":
		return KindPeripheralType, true
	case "type.register_group":
		return KindRegisterGroupType, true
	case "type.register":
		return KindRegisterType, true
	case "type.field":
		return KindFieldType, true
	case "type.enum":
		return KindEnumType, true
	case "type.enum_field":
		return KindEnumFieldType, true
	case "type.mode":
		return KindModeType, true
	case "instance.device":
		return KindDeviceInstance, true
	case "instance.peripheral":
		return KindPeripheralInstance, true
	case "instance.interrupt":
		return KindInterruptInstance, true
	default:
		return 0, false
	}
}

func edgeAllowed(parent, child Kind) bool {
	for _, k := range edges[parent] {
		if k == child {
			return true
		}
	}
	return false
}

package db

// Access is the read/write capability of a register or field. The zero
// value means "not set".
type Access int

const (
	AccessUnset Access = iota
	AccessReadOnly
	AccessWriteOnly
	AccessReadWrite
)

// String renders the hyphenated form the JSON codec and generator expect.
func (a Access) String() string {
	switch a {
	case AccessReadOnly:
		return "read-only"
	case AccessWriteOnly:
		return "write-only"
	case AccessReadWrite:
		return "read-write"
	default:
		return ""
	}
}

// ParseAccess understands the short forms the dialect loaders see on the
// wire ("r", "w", "rw" for ATDF; "read-only" etc. for SVD/JSON).
func ParseAccess(s string) Access {
	switch s {
	case "r", "read-only", "readOnly":
		return AccessReadOnly
	case "w", "write-only", "writeOnly":
		return AccessWriteOnly
	case "rw", "read-write", "readWrite":
		return AccessReadWrite
	default:
		return AccessUnset
	}
}

package codegen

import "strings"

// splitQualifier implements spec §4.4's "Mode selection method" parse: the
// qualifier is dot-separated, the leading component (the peripheral type
// name) is discarded, the trailing component is the field name, and the
// components in between rejoin into the register access path read as
// self.<accessPath>.read().<field>.
func splitQualifier(qualifier string) (accessPath, field string, ok bool) {
	parts := strings.Split(qualifier, ".")
	if len(parts) < 3 {
		return "", "", false
	}
	rest := parts[1:]
	field = rest[len(rest)-1]
	accessPath = strings.Join(rest[:len(rest)-1], ".")
	return accessPath, field, true
}

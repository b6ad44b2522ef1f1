package codegen

import (
	"strings"

	"hwgen/internal/db"
)

// qualifiedTypePath walks parent from typeID up to its root and joins the
// names with ".", prefixed by "types." (spec §4.4 "Namespacing of
// cross-references"). An unnamed type along the path yields an empty
// segment; callers of qualifiedTypePath for an unnamed leaf type should
// prefer an inline anonymous record instead of calling this at all.
func qualifiedTypePath(database *db.DB, typeID db.EntityID) string {
	var chain []string
	if name, ok := database.Name(typeID); ok {
		chain = append(chain, name)
	}
	for _, a := range database.Ancestors(typeID) {
		k, _ := database.Kind(a)
		if k != db.KindPeripheralType && k != db.KindRegisterGroupType {
			continue
		}
		if name, ok := database.Name(a); ok {
			chain = append(chain, name)
		}
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return "types." + strings.Join(chain, ".")
}

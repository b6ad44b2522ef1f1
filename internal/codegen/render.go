package codegen

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"hwgen/internal/db"
	"hwgen/internal/diag"
)

// renderer holds the per-run state the recursive peripheral-record
// synthesis needs: the database it reads from, the diagnostics log it logs
// skips to, and the enum-width table a pre-pass fills in before rendering
// (an enum's own bit width is never stored on the enum itself; it is
// inherited from the first field that references it, per spec §4.4).
type renderer struct {
	db        *db.DB
	log       *diag.Log
	enumWidth map[db.EntityID]int
}

func newRenderer(database *db.DB, log *diag.Log) *renderer {
	return &renderer{db: database, log: log, enumWidth: map[db.EntityID]int{}}
}

// renderTopLevelType renders one entry of the "types" block: "Name = body".
func (r *renderer) renderTopLevelType(id db.EntityID) (string, error) {
	name, ok := r.db.Name(id)
	if !ok || name == "" {
		k, _ := r.db.Kind(id)
		return "", &db.MissingAttributeError{ID: id, Kind: k, Attr: "name"}
	}
	r.collectEnumWidths(id)
	body, err := r.renderContainer(id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s = %s", name, body), nil
}

func (r *renderer) collectEnumWidths(container db.EntityID) {
	for _, reg := range r.db.ChildrenOfKind(container, db.KindRegisterType) {
		for _, f := range r.db.ChildrenOfKind(reg, db.KindFieldType) {
			enumID, ok := r.db.EnumRef(f)
			if !ok {
				continue
			}
			if _, seen := r.enumWidth[enumID]; seen {
				continue
			}
			if w, ok := r.db.Size(f); ok {
				r.enumWidth[enumID] = w
			}
		}
	}
	for _, grp := range r.db.ChildrenOfKind(container, db.KindRegisterGroupType) {
		r.collectEnumWidths(grp)
	}
}

// renderAnonymousType renders id's body with no leading "Name = " (spec
// §4.4: an instance whose type has no name gets an inline anonymous
// record at its pointer-cast site instead of a types.* reference).
func (r *renderer) renderAnonymousType(id db.EntityID) (string, error) {
	r.collectEnumWidths(id)
	return r.renderContainer(id)
}

// renderContainer picks mode-union vs packed-struct synthesis for a
// peripheral or register-group type (spec §4.4 "Peripheral record
// synthesis"), applied recursively since register groups may carry their
// own type.mode children too.
func (r *renderer) renderContainer(id db.EntityID) (string, error) {
	modes := r.db.ChildrenOfKind(id, db.KindModeType)
	if len(modes) > 0 {
		return r.renderModeUnion(id, modes)
	}
	return r.renderPackedStruct(id)
}

func (r *renderer) renderPackedStruct(id db.EntityID) (string, error) {
	items := layoutRegisters(r.db, id, r.log)
	var members []string

	for _, decl := range r.renderEnumDecls(id) {
		members = append(members, decl)
	}
	for _, it := range items {
		if it.reserved {
			members = append(members, fmt.Sprintf("%s: [%d]u8", it.name(r.db), it.bytes))
			continue
		}
		m, err := r.renderRegisterMember(it.id)
		if err != nil {
			name, _ := r.db.Name(it.id)
			r.log.Skipf("register %s: %v", name, err)
			continue
		}
		members = append(members, m)
	}

	groups := r.db.ChildrenOfKind(id, db.KindRegisterGroupType)
	for _, g := range groups {
		gname, ok := r.db.Name(g)
		if !ok || gname == "" {
			r.log.Skipf("register group %d has no name, skipped", g)
			continue
		}
		body, err := r.renderContainer(g)
		if err != nil {
			r.log.Skipf("register group %s: %v", gname, err)
			continue
		}
		members = append(members, fmt.Sprintf("%s: %s", gname, body))
	}

	qualifier := "packed "
	if len(items) == 0 && len(groups) == 0 {
		qualifier = ""
	}
	return fmt.Sprintf("%sstruct { %s }", qualifier, strings.Join(members, ", ")), nil
}

func (r *renderer) renderRegisterMember(regID db.EntityID) (string, error) {
	name, _ := r.db.Name(regID)
	size, ok := r.db.Size(regID)
	if !ok {
		return "", &db.MissingAttributeError{ID: regID, Kind: db.KindRegisterType, Attr: "size"}
	}
	fields := r.db.ChildrenOfKind(regID, db.KindFieldType)
	if len(fields) == 0 {
		return fmt.Sprintf("%s: u%d", name, size), nil
	}
	body, err := r.renderRegisterFields(regID, size)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s: Mmio(%d, %s)", name, size, body), nil
}

func (r *renderer) renderRegisterFields(regID db.EntityID, size int) (string, error) {
	items, padding := layoutFields(r.db, regID, size, r.log)
	var members []string
	for _, it := range items {
		m, err := r.renderFieldMember(it.id, it.width)
		if err != nil {
			name, _ := r.db.Name(it.id)
			r.log.Skipf("field %s: %v", name, err)
			continue
		}
		members = append(members, m)
	}
	if padding > 0 {
		members = append(members, fmt.Sprintf("padding: u%d = 0", padding))
	}
	return fmt.Sprintf("packed struct { %s }", strings.Join(members, ", ")), nil
}

func (r *renderer) renderFieldMember(fieldID db.EntityID, width int) (string, error) {
	name, _ := r.db.Name(fieldID)
	enumID, hasEnum := r.db.EnumRef(fieldID)
	if !hasEnum {
		return fmt.Sprintf("%s: u%d", name, width), nil
	}
	if enumName, ok := r.db.Name(enumID); ok && enumName != "" {
		return fmt.Sprintf("%s: union { raw: u%d, value: %s }", name, width, enumName), nil
	}
	body, err := r.renderEnumBody(enumID, width)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s: union { raw: u%d, value: %s }", name, width, body), nil
}

// renderEnumDecls renders the named (non-anonymous) enum children of
// container as standalone declarations; anonymous enums are instead
// rendered inline at their referencing field.
func (r *renderer) renderEnumDecls(container db.EntityID) []string {
	var out []string
	for _, e := range r.db.ChildrenOfKind(container, db.KindEnumType) {
		name, ok := r.db.Name(e)
		if !ok || name == "" {
			continue
		}
		width, ok := r.enumWidth[e]
		if !ok {
			width = r.fallbackEnumWidth(e)
		}
		body, err := r.renderEnumBody(e, width)
		if err != nil {
			r.log.Skipf("enum %s: %v", name, err)
			continue
		}
		out = append(out, fmt.Sprintf("%s = %s", name, body))
	}
	return out
}

// fallbackEnumWidth covers an enum that no field ever references: its
// width is the minimum needed to represent its largest declared value.
func (r *renderer) fallbackEnumWidth(e db.EntityID) int {
	var max int64
	for _, f := range r.db.ChildrenOfKind(e, db.KindEnumFieldType) {
		if v, ok := r.db.EnumFieldValue(f); ok && v > max {
			max = v
		}
	}
	w := bits.Len64(uint64(max))
	if w == 0 {
		w = 1
	}
	return w
}

// renderEnumBody renders "enum(uN) { A = 0x.., ... [, _] }" (spec §4.4
// "Enum emission", B3).
func (r *renderer) renderEnumBody(e db.EntityID, width int) (string, error) {
	if width <= 0 || width > 63 {
		return "", errors.Errorf("enum has an unusable width %d", width)
	}
	fields := r.db.ChildrenOfKind(e, db.KindEnumFieldType)
	var members []string
	for _, f := range fields {
		name, _ := r.db.Name(f)
		v, _ := r.db.EnumFieldValue(f)
		members = append(members, fmt.Sprintf("%s = 0x%x", name, v))
	}
	if uint64(len(fields)) < uint64(1)<<uint(width) {
		members = append(members, "_")
	}
	return fmt.Sprintf("enum(u%d) { %s }", width, strings.Join(members, ", ")), nil
}

// renderModeUnion implements the union synthesis in spec §4.4: a Mode
// enum, a get_mode method, any enum declarations, nested register groups,
// and one struct variant per mode.
func (r *renderer) renderModeUnion(id db.EntityID, modes []db.EntityID) (string, error) {
	var modeNames []string
	for _, m := range modes {
		name, _ := r.db.Name(m)
		modeNames = append(modeNames, name)
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("Mode = enum { %s }", strings.Join(modeNames, ", ")))
	parts = append(parts, r.renderEnumDecls(id)...)

	for _, g := range r.db.ChildrenOfKind(id, db.KindRegisterGroupType) {
		gname, ok := r.db.Name(g)
		if !ok || gname == "" {
			continue
		}
		body, err := r.renderContainer(g)
		if err != nil {
			r.log.Skipf("register group %s: %v", gname, err)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", gname, body))
	}

	parts = append(parts, r.renderGetMode(modes))
	parts = append(parts, r.renderModeVariants(id, modes)...)
	return fmt.Sprintf("packed union { %s }", strings.Join(parts, ", ")), nil
}

func (r *renderer) renderGetMode(modes []db.EntityID) string {
	var arms []string
	for _, m := range modes {
		modeName, _ := r.db.Name(m)
		payload, ok := r.db.ModePayloadOf(m)
		if !ok {
			continue
		}
		accessPath, field, ok := splitQualifier(payload.Qualifier)
		if !ok {
			r.log.Skipf("mode %s: malformed qualifier %q", modeName, payload.Qualifier)
			continue
		}
		var cases []string
		for _, v := range strings.Fields(payload.Value) {
			cases = append(cases, fmt.Sprintf("case %s: return .%s", v, modeName))
		}
		arms = append(arms, fmt.Sprintf("switch (self.%s.read().%s) { %s }", accessPath, field, strings.Join(cases, ", ")))
	}
	arms = append(arms, "unreachable")
	return fmt.Sprintf("fn get_mode(self) Mode { %s }", strings.Join(arms, " "))
}

// renderModeVariants builds one struct per mode containing the registers
// that apply to it: a register with no modes set is shared by every
// variant, one with an explicit mode list appears only in those variants.
func (r *renderer) renderModeVariants(container db.EntityID, modes []db.EntityID) []string {
	regs := r.db.ChildrenOfKind(container, db.KindRegisterType)
	sorted := append([]db.EntityID{}, regs...)
	sort.Slice(sorted, func(i, j int) bool {
		oi, _ := r.db.Offset(sorted[i])
		oj, _ := r.db.Offset(sorted[j])
		return oi < oj
	})

	var out []string
	for _, m := range modes {
		modeName, _ := r.db.Name(m)
		var members []string
		for _, reg := range sorted {
			modeIDs := r.db.Modes(reg)
			include := len(modeIDs) == 0
			for _, mi := range modeIDs {
				if mi == m {
					include = true
				}
			}
			if !include {
				continue
			}
			member, err := r.renderRegisterMember(reg)
			if err != nil {
				name, _ := r.db.Name(reg)
				r.log.Skipf("register %s: %v", name, err)
				continue
			}
			members = append(members, member)
		}
		out = append(out, fmt.Sprintf("%s: packed struct { %s }", modeName, strings.Join(members, ", ")))
	}
	return out
}

package codegen

import (
	"fmt"
	"sort"

	"hwgen/internal/db"
	"hwgen/internal/diag"
)

// regItem is one slot in a register layout: either a real register or a
// reserved byte-array gap the cursor inserted to cover a hole.
type regItem struct {
	reserved bool
	id       db.EntityID
	offset   int
	bytes    int
}

// layoutRegisters walks the direct type.register children of container in
// byte-offset order, inserting reservedN gaps and resolving same-offset
// overlaps in favor of the smallest register (spec §4.4 "Register layout",
// B1/B2). Only direct registers participate in the cursor; nested register
// groups are rendered as separate named members and do not consume the
// parent's address space in this implementation (see DESIGN.md).
func layoutRegisters(database *db.DB, container db.EntityID, log *diag.Log) []regItem {
	regs := database.ChildrenOfKind(container, db.KindRegisterType)
	byOffset := map[int][]db.EntityID{}
	var offsets []int
	for _, r := range regs {
		off, _ := database.Offset(r)
		if _, seen := byOffset[off]; !seen {
			offsets = append(offsets, off)
		}
		byOffset[off] = append(byOffset[off], r)
	}
	sort.Ints(offsets)

	var items []regItem
	cursor := 0
	for _, off := range offsets {
		ids := byOffset[off]
		winner := smallestByOffset(database, ids)
		for _, id := range ids {
			if id != winner {
				name, _ := database.Name(id)
				log.Skipf("register %s at offset 0x%x overlaps, smaller register kept", name, off)
			}
		}
		if off > cursor {
			items = append(items, regItem{reserved: true, offset: off, bytes: off - cursor})
		} else if off < cursor {
			name, _ := database.Name(winner)
			log.Skipf("register %s at offset 0x%x overlaps the previous register's tail, skipped", name, off)
			continue
		}
		size, _ := database.Size(winner)
		bytes := size / 8
		items = append(items, regItem{id: winner, offset: off, bytes: bytes})
		cursor = off + bytes
	}
	return items
}

func smallestByOffset(database *db.DB, ids []db.EntityID) db.EntityID {
	winner := ids[0]
	ws, _ := database.Size(winner)
	for _, id := range ids[1:] {
		s, _ := database.Size(id)
		if s < ws {
			winner, ws = id, s
		}
	}
	return winner
}

func (it regItem) name(database *db.DB) string {
	if it.reserved {
		return fmt.Sprintf("reserved%d", it.offset)
	}
	n, _ := database.Name(it.id)
	return n
}

// fieldItem is one slot in a register's bit layout.
type fieldItem struct {
	id     db.EntityID
	offset int
	width  int
}

// layoutFields walks a register's type.field children in bit-offset order,
// resolving same-offset overlaps (smallest field wins) and stopping as soon
// as a field would extend past regSize (spec §4.4 "Field layout").
func layoutFields(database *db.DB, regID db.EntityID, regSize int, log *diag.Log) ([]fieldItem, int) {
	flds := database.ChildrenOfKind(regID, db.KindFieldType)
	byOffset := map[int][]db.EntityID{}
	var offsets []int
	for _, f := range flds {
		off, _ := database.Offset(f)
		if _, seen := byOffset[off]; !seen {
			offsets = append(offsets, off)
		}
		byOffset[off] = append(byOffset[off], f)
	}
	sort.Ints(offsets)

	var items []fieldItem
	cursor := 0
	for _, off := range offsets {
		ids := byOffset[off]
		winner := smallestByOffset(database, ids)
		for _, id := range ids {
			if id != winner {
				name, _ := database.Name(id)
				log.Skipf("field %s at bit %d overlaps, smaller field kept", name, off)
			}
		}
		width, _ := database.Size(winner)
		if off < cursor {
			name, _ := database.Name(winner)
			log.Skipf("field %s at bit %d overlaps the previous field, skipped", name, off)
			continue
		}
		if off+width > regSize {
			name, _ := database.Name(winner)
			log.Warnf("field %s spans past register end (bit %d+%d > %d), stopped emitting fields", name, off, width, regSize)
			break
		}
		items = append(items, fieldItem{id: winner, offset: off, width: width})
		cursor = off + width
	}
	return items, regSize - cursor
}

// Package atdf loads Atmel/Microchip ATDF documents into the shared
// database. ATDF separates reusable module templates (modules/module) from
// concrete placements (devices/device/peripherals/module/instance), which
// maps directly onto the type/instance split in the data model.
package atdf

import (
	"math/bits"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"hwgen/internal/db"
	"hwgen/internal/diag"
	"hwgen/internal/loader/domwalk"

	"github.com/clbanning/mxj"
)

// Load populates database from an already-decoded ATDF document.
func Load(database *db.DB, doc mxj.Map) (*diag.Log, error) {
	log := &diag.Log{}
	root := domwalk.Root(doc)
	topNode, ok := root.Child("avr-tools-device-file")
	if !ok {
		return log, errors.New("atdf: no root /avr-tools-device-file element")
	}

	modulesNode, hasModules := topNode.Child("modules")
	if hasModules {
		for _, m := range modulesNode.ChildList("module") {
			loadModule(database, m, log)
		}
	}

	devicesNode, ok := topNode.Child("devices")
	if !ok {
		return log, errors.New("atdf: no devices element")
	}
	for _, dev := range devicesNode.ChildList("device") {
		if err := loadDevice(database, dev, log); err != nil {
			return log, err
		}
	}
	return log, nil
}

func loadModule(database *db.DB, m domwalk.Node, log *diag.Log) {
	name, ok := m.Value("name")
	if !ok || name == "" {
		log.Skipf("module with no name")
		return
	}
	modType := database.CreatePeripheralType(name)
	if caption, ok := m.Value("caption"); ok {
		database.SetDescription(modType, caption)
	}
	for _, vg := range m.ChildList("value-group") {
		loadValueGroup(database, modType, vg, log)
	}
	for _, mode := range m.ChildList("mode") {
		loadMode(database, modType, mode, log)
	}
	rgList := m.ChildList("register-group")
	solo := len(rgList) == 1
	for _, rg := range rgList {
		loadRegisterGroup(database, modType, name, solo, rg, log)
	}
}

func loadMode(database *db.DB, parentType db.EntityID, mode domwalk.Node, log *diag.Log) {
	name, ok := mode.Value("name")
	if !ok || name == "" {
		log.Skipf("mode with no name")
		return
	}
	value, _ := mode.Value("value")
	qualifier, _ := mode.Value("qualifier")
	modeID, err := database.CreateMode(parentType, name, value, qualifier)
	if err != nil {
		log.Skipf("mode %s: %v", name, err)
		return
	}
	if caption, ok := mode.Value("caption"); ok {
		database.SetDescription(modeID, caption)
	}
}

// loadRegisterGroup applies the inlining rule: a register-group whose name
// equals its containing peripheral's name attaches directly, with no
// intermediate type.register_group — but only when it is the sole
// register-group under that parent, mirroring the SVD loader's
// len(clusters) == 1 check.
func loadRegisterGroup(database *db.DB, parentType db.EntityID, parentName string, solo bool, rg domwalk.Node, log *diag.Log) {
	name, ok := rg.Value("name")
	if !ok || name == "" {
		log.Skipf("register-group with no name")
		return
	}
	target := parentType
	if !solo || name != parentName {
		grp, err := database.CreateRegisterGroup(parentType, name)
		if err != nil {
			log.Skipf("register-group %s: %v", name, err)
			return
		}
		if s, ok := rg.Value("offset"); ok {
			if v, ok := domwalk.ParseInt(s); ok {
				database.SetOffset(grp, int(v))
			}
		}
		target = grp
	}
	for _, mode := range rg.ChildList("mode") {
		loadMode(database, target, mode, log)
	}
	for _, r := range rg.ChildList("register") {
		loadRegister(database, target, r, log)
	}
	nested := rg.ChildList("register-group")
	nestedSolo := len(nested) == 1
	for _, n := range nested {
		loadRegisterGroup(database, target, name, nestedSolo, n, log)
	}
}

func loadRegister(database *db.DB, parentType db.EntityID, r domwalk.Node, log *diag.Log) {
	name, ok := r.Value("name")
	if !ok || name == "" {
		log.Skipf("register with no name")
		return
	}
	offset := 0
	if s, ok := r.Value("offset"); ok {
		if v, ok := domwalk.ParseInt(s); ok {
			offset = int(v)
		}
	}
	size := 8
	if s, ok := r.Value("size"); ok {
		if v, ok := domwalk.ParseInt(s); ok {
			size = int(v) * 8 // ATDF register size is given in bytes
		}
	}
	if size%8 != 0 {
		log.Skipf("register %s: size %d is not a multiple of 8 bits", name, size)
		return
	}
	regID, err := database.CreateRegister(parentType, name, offset, size)
	if err != nil {
		log.Skipf("register %s: %v", name, err)
		return
	}
	if caption, ok := r.Value("caption"); ok {
		database.SetDescription(regID, caption)
	}
	if s, ok := r.Value("rw"); ok {
		database.SetAccess(regID, db.ParseAccess(strings.ToLower(s)))
	}
	if s, ok := r.Value("modes"); ok {
		resolveModes(database, regID, s, log)
	}
	for _, bf := range r.ChildList("bitfield") {
		loadBitfield(database, regID, size, bf, log)
	}
}

func loadBitfield(database *db.DB, regID db.EntityID, regSize int, bf domwalk.Node, log *diag.Log) {
	name, ok := bf.Value("name")
	if !ok || name == "" {
		log.Skipf("bitfield with no name")
		return
	}
	maskS, ok := bf.Value("mask")
	if !ok {
		log.Skipf("bitfield %s: no mask", name)
		return
	}
	mask, ok := domwalk.ParseInt(maskS)
	if !ok {
		log.Skipf("bitfield %s: malformed mask %q", name, maskS)
		return
	}
	values, _ := bf.Value("values")
	modesS, hasModes := bf.Value("modes")

	if isDiscontiguous(uint64(mask)) {
		log.Warnf("bitfield %s: discontiguous mask 0x%x, splitting into single-bit fields", name, mask)
		for _, k := range setBitPositions(uint64(mask)) {
			fname := name + "_bit" + strconv.Itoa(k)
			fieldID, err := database.CreateField(regID, fname, k, 1)
			if err != nil {
				log.Skipf("split field %s: %v", fname, err)
				continue
			}
			if hasModes {
				resolveModes(database, fieldID, modesS, log)
			}
		}
		return
	}

	lsb := leastSetBit(uint64(mask))
	width := bits.OnesCount64(uint64(mask))
	fieldID, err := database.CreateField(regID, name, lsb, width)
	if err != nil {
		log.Skipf("bitfield %s: %v", name, err)
		return
	}
	if caption, ok := bf.Value("caption"); ok {
		database.SetDescription(fieldID, caption)
	}
	if hasModes {
		resolveModes(database, fieldID, modesS, log)
	}
	_ = regSize
	if values != "" {
		peripheralType := nearestEnumScope(database, regID)
		enumID, err := findChildByName(database, peripheralType, db.KindEnumType, values)
		if err != nil {
			log.Warnf("bitfield %s: value-group %s not found", name, values)
			return
		}
		if err := database.SetEnumRef(fieldID, enumID); err != nil {
			log.Skipf("bitfield %s: enum_ref: %v", name, err)
		}
	}
}

func isDiscontiguous(mask uint64) bool {
	if mask == 0 {
		return false
	}
	width := highestSetBit(mask) - leastSetBit(mask) + 1
	return bits.OnesCount64(mask) != width
}

func leastSetBit(mask uint64) int {
	if mask == 0 {
		return 0
	}
	return bits.TrailingZeros64(mask)
}

func highestSetBit(mask uint64) int {
	if mask == 0 {
		return 0
	}
	return 63 - bits.LeadingZeros64(mask)
}

func setBitPositions(mask uint64) []int {
	var out []int
	for i := 0; i < 64; i++ {
		if mask&(1<<uint(i)) != 0 {
			out = append(out, i)
		}
	}
	return out
}

func loadValueGroup(database *db.DB, peripheralType db.EntityID, vg domwalk.Node, log *diag.Log) {
	name, ok := vg.Value("name")
	if !ok || name == "" {
		log.Skipf("value-group with no name")
		return
	}
	enumID, err := database.CreateEnum(peripheralType, name)
	if err != nil {
		log.Skipf("value-group %s: %v", name, err)
		return
	}
	for _, v := range vg.ChildList("value") {
		vname, ok := v.Value("name")
		if !ok || vname == "" {
			continue
		}
		valS, ok := v.Value("value")
		if !ok {
			continue
		}
		val, ok := domwalk.ParseInt(valS)
		if !ok {
			continue
		}
		if _, err := database.CreateEnumField(enumID, vname, val); err != nil {
			log.Skipf("value %s: %v", vname, err)
		}
	}
}

// loadDevice fails the whole load when the device lacks its mandatory
// identity (name, architecture); everything below it is logged and skipped.
func loadDevice(database *db.DB, dev domwalk.Node, log *diag.Log) error {
	name, ok := dev.Value("name")
	if !ok || name == "" {
		return errors.New("atdf: device is missing mandatory name")
	}
	arch, ok := dev.Value("architecture")
	if !ok || arch == "" {
		return errors.Errorf("atdf: device %s is missing mandatory architecture", name)
	}
	devID := database.CreateDevice(name)
	log.Warnf("device %s: architecture=%s/family/series have no kind table in the data model, dropped after logging", name, arch)

	if peripheralsNode, ok := dev.Child("peripherals"); ok {
		for _, m := range peripheralsNode.ChildList("module") {
			loadModuleInstances(database, devID, m, log)
		}
	}
	if interruptsNode, ok := dev.Child("interrupts"); ok {
		for _, irq := range interruptsNode.ChildList("interrupt") {
			iname, ok := irq.Value("name")
			if !ok {
				continue
			}
			idx := 0
			if s, ok := irq.Value("index"); ok {
				if v, ok := domwalk.ParseInt(s); ok {
					idx = int(v)
				}
			}
			if _, err := database.CreateInterrupt(devID, iname, idx); err != nil {
				log.Skipf("interrupt %s: %v", iname, err)
			}
		}
	}
	return nil
}

func loadModuleInstances(database *db.DB, devID db.EntityID, m domwalk.Node, log *diag.Log) {
	modName, ok := m.Value("name")
	if !ok || modName == "" {
		log.Skipf("peripheral module reference with no name")
		return
	}
	modType, err := database.ByName(db.KindPeripheralType, modName)
	if err != nil {
		log.Warnf("module instance: type %s not found among loaded modules", modName)
		return
	}
	for _, inst := range m.ChildList("instance") {
		iname, ok := inst.Value("name")
		if !ok || iname == "" {
			log.Skipf("module %s: instance with no name", modName)
			continue
		}
		offset := 0
		if s, ok := inst.Value("offset"); ok {
			if v, ok := domwalk.ParseInt(s); ok {
				offset = int(v)
			}
		}
		target := modType
		if sub, err := findChildByName(database, modType, db.KindRegisterGroupType, iname); err == nil {
			target = sub
		}
		if _, err := database.CreatePeripheralInstance(devID, iname, target, offset); err != nil {
			log.Skipf("instance %s: %v", iname, err)
		}
	}
}

// resolveModes resolves a space-separated list of mode names against id's
// enclosing peripheral/register-group's mode children, warning on (and
// skipping) any name that does not resolve. id may be a register or a
// field: nearestEnumScope walks up past an enclosing register to find the
// scope modes are actually attached under (loadMode is only ever called
// with a peripheral or register-group as parentType).
func resolveModes(database *db.DB, id db.EntityID, names string, log *diag.Log) {
	parent := nearestEnumScope(database, id)
	var resolved []db.EntityID
	for _, n := range strings.Fields(names) {
		modeID, err := findChildByName(database, parent, db.KindModeType, n)
		if err != nil {
			log.Warnf("unresolved mode name %q on entity %d", n, id)
			continue
		}
		resolved = append(resolved, modeID)
	}
	if len(resolved) > 0 {
		if err := database.SetModes(id, resolved); err != nil {
			log.Skipf("modes: %v", err)
		}
	}
}

func findChildByName(database *db.DB, parent db.EntityID, k db.Kind, name string) (db.EntityID, error) {
	for _, c := range database.ChildrenOfKind(parent, k) {
		if n, _ := database.Name(c); n == name {
			return c, nil
		}
	}
	return 0, errors.Errorf("atdf: no %s named %q under entity %d", k, name, parent)
}

func nearestEnumScope(database *db.DB, regID db.EntityID) db.EntityID {
	cur := regID
	for {
		parent, ok := database.Parent(cur)
		if !ok {
			return cur
		}
		if k, _ := database.Kind(parent); k == db.KindPeripheralType || k == db.KindRegisterGroupType {
			return parent
		}
		cur = parent
	}
}

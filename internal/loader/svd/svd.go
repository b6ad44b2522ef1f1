// Package svd loads ARM CMSIS-SVD documents into the shared database. SVD
// register offsets are bytes; bit ranges come in one of three equivalent
// forms (lsb/msb, bitOffset/bitWidth, or a "[msb:lsb]" bitRange string).
package svd

import (
	"github.com/pkg/errors"

	"hwgen/internal/db"
	"hwgen/internal/diag"
	"hwgen/internal/loader/domwalk"
	"hwgen/internal/revision"

	"github.com/clbanning/mxj"
)

// Load populates database from an already-decoded SVD document.
func Load(database *db.DB, doc mxj.Map) (*diag.Log, error) {
	log := &diag.Log{}
	root := domwalk.Root(doc)
	deviceNode, ok := root.Child("device")
	if !ok {
		return log, errors.New("svd: no root /device element")
	}
	name, ok := deviceNode.ChildText("name")
	if !ok || name == "" {
		return log, errors.New("svd: root device is missing mandatory name")
	}
	devID := database.CreateDevice(name)
	if desc, ok := deviceNode.ChildText("description"); ok {
		database.SetDescription(devID, desc)
	}
	if _, ok := deviceNode.Child("licenseText"); ok {
		log.Warnf("device %s: licenseText present but not retained in the data model", name)
	}
	if cpu, ok := deviceNode.Child("cpu"); ok {
		summarizeCPU(log, name, cpu)
	}

	peripheralsNode, ok := deviceNode.Child("peripherals")
	if !ok {
		log.Warnf("device %s: no peripherals element", name)
		return log, nil
	}
	for _, p := range peripheralsNode.ChildList("peripheral") {
		loadPeripheral(database, devID, p, log)
	}
	return log, nil
}

func summarizeCPU(log *diag.Log, device string, cpu domwalk.Node) {
	cpuName, _ := cpu.ChildText("name")
	log.Warnf("device %s: cpu block (%s) has no kind table in the data model, dropped after logging", device, cpuName)
	if rev, ok := cpu.ChildText("revision"); ok && rev != "" {
		if r, err := revision.Parse(rev); err != nil {
			log.Warnf("device %s: cpu revision %q: %v", device, rev, err)
		} else {
			log.Warnf("device %s: cpu revision r%dp%d dropped with the rest of the cpu block", device, r.Release, r.Part)
		}
	}
}

func loadPeripheral(database *db.DB, devID db.EntityID, p domwalk.Node, log *diag.Log) {
	name, ok := p.ChildText("name")
	if !ok || name == "" {
		log.Skipf("peripheral with no name")
		return
	}
	if derived, ok := p.ChildText("derivedFrom"); ok && derived != "" {
		log.Skipf("peripheral %s: derivedFrom=%s not resolved, skipping (see DESIGN.md open question a)", name, derived)
		return
	}
	baseAddr := int64(0)
	if s, ok := p.ChildText("baseAddress"); ok {
		if v, ok := domwalk.ParseInt(s); ok {
			baseAddr = v
		}
	}
	perType := database.CreatePeripheralType(name)
	if desc, ok := p.ChildText("description"); ok {
		database.SetDescription(perType, desc)
	}

	for _, irq := range p.ChildList("interrupt") {
		iname, ok := irq.ChildText("name")
		if !ok {
			log.Skipf("peripheral %s: interrupt with no name", name)
			continue
		}
		value := 0
		if s, ok := irq.ChildText("value"); ok {
			if v, ok := domwalk.ParseInt(s); ok {
				value = int(v)
			}
		}
		if _, err := database.CreateInterrupt(devID, iname, value); err != nil {
			log.Skipf("peripheral %s: interrupt %s: %v", name, iname, err)
		}
	}

	if registersNode, ok := p.Child("registers"); ok {
		loadRegisterContainer(database, perType, name, registersNode, log)
	}

	if _, err := database.CreatePeripheralInstance(devID, name, perType, int(baseAddr)); err != nil {
		log.Skipf("peripheral %s: instance: %v", name, err)
	}
}

// loadRegisterContainer loads the <register> and <cluster> children of a
// <registers> (or nested cluster) element into containerType, which is
// either the owning peripheral or an already-created register group.
//
// Inlining rule (spec §4.2): if the container has exactly one cluster whose
// name equals the container's own name, that cluster's children attach
// directly to the container instead of through an intermediate
// type.register_group. The check runs at every nesting level, so it applies
// to a cluster's sole same-named sub-cluster as well as to a peripheral's.
func loadRegisterContainer(database *db.DB, containerType db.EntityID, containerName string, registersNode domwalk.Node, log *diag.Log) {
	clusters := registersNode.ChildList("cluster")
	if len(clusters) == 1 {
		if cname, ok := clusters[0].ChildText("name"); ok && cname == containerName {
			loadRegisterContainer(database, containerType, containerName, clusters[0], log)
			for _, r := range registersNode.ChildList("register") {
				loadRegister(database, containerType, r, log)
			}
			return
		}
	}
	for _, c := range clusters {
		loadCluster(database, containerType, c, log)
	}
	for _, r := range registersNode.ChildList("register") {
		loadRegister(database, containerType, r, log)
	}
}

func loadCluster(database *db.DB, parentType db.EntityID, c domwalk.Node, log *diag.Log) {
	name, ok := c.ChildText("name")
	if !ok || name == "" {
		log.Skipf("cluster with no name")
		return
	}
	grp, err := database.CreateRegisterGroup(parentType, name)
	if err != nil {
		log.Skipf("cluster %s: %v", name, err)
		return
	}
	if s, ok := c.ChildText("addressOffset"); ok {
		if v, ok := domwalk.ParseInt(s); ok {
			database.SetOffset(grp, int(v))
		}
	}
	loadRegisterContainer(database, grp, name, c, log)
}

func loadRegister(database *db.DB, parentType db.EntityID, r domwalk.Node, log *diag.Log) {
	name, ok := r.ChildText("name")
	if !ok || name == "" {
		log.Skipf("register with no name")
		return
	}
	offset := 0
	if s, ok := r.ChildText("addressOffset"); ok {
		if v, ok := domwalk.ParseInt(s); ok {
			offset = int(v)
		}
	}
	size := 32
	hadSize := false
	if s, ok := r.ChildText("size"); ok {
		if v, ok := domwalk.ParseInt(s); ok {
			size = int(v)
			hadSize = true
		}
	}
	if !hadSize {
		log.Warnf("register %s: no explicit size, defaulting to 32 bits", name)
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
	if desc, ok := r.ChildText("description"); ok {
		database.SetDescription(regID, desc)
	}
	if s, ok := r.ChildText("access"); ok {
		database.SetAccess(regID, db.ParseAccess(s))
	}
	if s, ok := r.ChildText("resetValue"); ok {
		if v, ok := domwalk.ParseInt(s); ok {
			database.SetResetValue(regID, uint64(v))
		}
	}
	if s, ok := r.ChildText("resetMask"); ok {
		if v, ok := domwalk.ParseInt(s); ok {
			database.SetResetMask(regID, uint64(v))
		}
	}
	if fieldsNode, ok := r.Child("fields"); ok {
		for _, f := range fieldsNode.ChildList("field") {
			loadField(database, regID, f, log)
		}
	}
}

func loadField(database *db.DB, regID db.EntityID, f domwalk.Node, log *diag.Log) {
	name, ok := f.ChildText("name")
	if !ok || name == "" {
		log.Skipf("field with no name")
		return
	}
	lsb, msb, ok := bitRange(f)
	if !ok {
		log.Skipf("field %s: could not determine bit range", name)
		return
	}
	width := msb - lsb + 1
	if width <= 0 {
		log.Skipf("field %s: empty bit range", name)
		return
	}
	fieldID, err := database.CreateField(regID, name, lsb, width)
	if err != nil {
		log.Skipf("field %s: %v", name, err)
		return
	}
	if desc, ok := f.ChildText("description"); ok {
		database.SetDescription(fieldID, desc)
	}
	if s, ok := f.ChildText("access"); ok {
		database.SetAccess(fieldID, db.ParseAccess(s))
	}
	if evsNode, ok := f.Child("enumeratedValues"); ok {
		loadEnumeratedValues(database, regID, fieldID, evsNode, log)
	}
}

func bitRange(f domwalk.Node) (lsb, msb int, ok bool) {
	if s, ok := f.ChildText("bitRange"); ok {
		var lo, hi int64
		if n, err := parseBitRangeLiteral(s); err == nil {
			hi, lo = n[0], n[1]
			return int(lo), int(hi), true
		}
	}
	if lsbS, ok1 := f.ChildText("lsb"); ok1 {
		if msbS, ok2 := f.ChildText("msb"); ok2 {
			l, _ := domwalk.ParseInt(lsbS)
			m, _ := domwalk.ParseInt(msbS)
			return int(l), int(m), true
		}
	}
	if offS, ok1 := f.ChildText("bitOffset"); ok1 {
		if widS, ok2 := f.ChildText("bitWidth"); ok2 {
			off, _ := domwalk.ParseInt(offS)
			wid, _ := domwalk.ParseInt(widS)
			return int(off), int(off + wid - 1), true
		}
	}
	return 0, 0, false
}

// parseBitRangeLiteral parses "[msb:lsb]" and returns {msb, lsb}.
func parseBitRangeLiteral(s string) ([2]int64, error) {
	var out [2]int64
	start, end := -1, -1
	for i, r := range s {
		if r == '[' {
			start = i
		}
		if r == ']' {
			end = i
		}
	}
	if start < 0 || end < 0 || end <= start {
		return out, errors.Errorf("svd: malformed bitRange %q", s)
	}
	inner := s[start+1 : end]
	colon := -1
	for i, r := range inner {
		if r == ':' {
			colon = i
			break
		}
	}
	if colon < 0 {
		return out, errors.Errorf("svd: malformed bitRange %q", s)
	}
	msb, ok1 := domwalk.ParseInt(inner[:colon])
	lsb, ok2 := domwalk.ParseInt(inner[colon+1:])
	if !ok1 || !ok2 {
		return out, errors.Errorf("svd: malformed bitRange %q", s)
	}
	out[0], out[1] = msb, lsb
	return out, nil
}

func loadEnumeratedValues(database *db.DB, regID, fieldID db.EntityID, evsNode domwalk.Node, log *diag.Log) {
	peripheralType := nearestEnumScope(database, regID)
	name, _ := evsNode.ChildText("name")
	enumID, err := database.CreateEnum(peripheralType, name)
	if err != nil {
		log.Skipf("field enum: %v", err)
		return
	}
	for _, ev := range evsNode.ChildList("enumeratedValue") {
		evName, ok := ev.ChildText("name")
		if !ok || evName == "" {
			continue
		}
		valS, ok := ev.ChildText("value")
		if !ok {
			continue
		}
		v, ok := domwalk.ParseInt(valS)
		if !ok {
			continue
		}
		if _, err := database.CreateEnumField(enumID, evName, v); err != nil {
			log.Skipf("enum value %s: %v", evName, err)
		}
	}
	if err := database.SetEnumRef(fieldID, enumID); err != nil {
		log.Skipf("enum_ref: %v", err)
	}
}

// nearestEnumScope walks up from a register to the nearest ancestor that
// can hold a type.enum child, per the allowed edges (peripheral or
// register_group).
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

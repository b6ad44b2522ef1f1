// Package codegen emits the generated code artifact (spec §4.4): a fixed
// prologue, a devices block of typed instance pointers, and a types block
// of peripheral records, terminated by a sentinel byte an external
// formatter would strip.
package codegen

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"

	"hwgen/internal/db"
	"hwgen/internal/diag"
)

// Generate walks database and renders the code artifact. A per-peripheral
// emission failure is caught, logged, and the peripheral is skipped so the
// rest of the output remains valid (spec §4.4 "Failure policy"). formatter
// may be nil, in which case IdentityFormatter is used.
func Generate(database *db.DB, log *diag.Log, formatter Formatter) ([]byte, error) {
	if formatter == nil {
		formatter = IdentityFormatter{}
	}
	group := createTemplates()
	var buf bytes.Buffer
	buf.WriteString(prologueText)

	r := newRenderer(database, log)

	deviceIDs := database.IterKind(db.KindDeviceInstance)
	if len(deviceIDs) > 0 {
		var views []deviceView
		for _, devID := range deviceIDs {
			views = append(views, buildDeviceView(database, devID, r, log))
		}
		if err := group.devices.Execute(&buf, struct{ Devices []deviceView }{views}); err != nil {
			return nil, errors.Wrap(err, "codegen: devices block")
		}
	}

	peripheralIDs := database.IterKind(db.KindPeripheralType)
	if len(peripheralIDs) > 0 {
		var views []typeView
		for _, id := range peripheralIDs {
			text, err := renderTypeSafely(r, id)
			if err != nil {
				name, _ := database.Name(id)
				log.Skipf("peripheral type %s: %v", name, err)
				continue
			}
			views = append(views, typeView{Text: text})
		}
		if len(views) > 0 {
			if err := group.types.Execute(&buf, struct{ Types []typeView }{views}); err != nil {
				return nil, errors.Wrap(err, "codegen: types block")
			}
		}
	}

	buf.WriteByte(0)
	return formatter.Format(buf.Bytes())
}

func buildDeviceView(database *db.DB, devID db.EntityID, r *renderer, log *diag.Log) deviceView {
	name, _ := database.Name(devID)
	dv := deviceView{Name: name}
	for _, inst := range database.ChildrenOfKind(devID, db.KindPeripheralInstance) {
		iname, _ := database.Name(inst)
		typeID, ok := database.TypeRef(inst)
		if !ok {
			log.Skipf("instance %s: no type reference, skipped", iname)
			continue
		}
		off, _ := database.Offset(inst)

		var typeExpr string
		if typeName, ok := database.Name(typeID); ok && typeName != "" {
			typeExpr = qualifiedTypePath(database, typeID)
		} else {
			body, err := renderAnonymousTypeSafely(r, typeID)
			if err != nil {
				log.Skipf("instance %s: anonymous type: %v", iname, err)
				continue
			}
			typeExpr = body
		}

		dv.Instances = append(dv.Instances, instanceView{
			Name:      iname,
			TypePath:  typeExpr,
			OffsetHex: fmt.Sprintf("%x", off),
		})
	}
	return dv
}

// renderTypeSafely recovers from a panic in the renderer so one malformed
// peripheral cannot abort the whole generation run.
func renderTypeSafely(r *renderer, id db.EntityID) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Errorf("panic: %v", p)
		}
	}()
	return r.renderTopLevelType(id)
}

// renderAnonymousTypeSafely is renderTypeSafely's counterpart for an
// instance whose type has no name: same panic recovery, no "Name = "
// prefix.
func renderAnonymousTypeSafely(r *renderer, id db.EntityID) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Errorf("panic: %v", p)
		}
	}()
	return r.renderAnonymousType(id)
}

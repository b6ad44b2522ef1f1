// Package dslite is a placeholder for the DSLite dialect. DSLite documents
// are not yet understood well enough to map onto the data model; Load
// always fails so callers get a clear, actionable error instead of a
// silently empty database.
package dslite

import (
	"github.com/pkg/errors"

	"hwgen/internal/db"
	"hwgen/internal/diag"

	"github.com/clbanning/mxj"
)

// Load always returns an error. DSLite support is a stub: wire it up once
// a DSLite corpus is available to ground the loader against.
func Load(database *db.DB, doc mxj.Map) (*diag.Log, error) {
	log := &diag.Log{}
	return log, errors.New("dslite: dialect not implemented")
}

package main

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"hwgen/internal/db"
	"hwgen/internal/diag"
	"hwgen/internal/loader/atdf"
	"hwgen/internal/loader/dslite"
	"hwgen/internal/loader/svd"

	"github.com/clbanning/mxj"
)

// dialectByExtension selects a loader dialect from a file extension when
// --schema was not given (spec §6 "file extension selects the dialect").
func dialectByExtension(path string) (string, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svd":
		return "svd", true
	case ".atdf":
		return "atdf", true
	case ".json":
		return "json", true
	case ".dslite":
		return "dslite", true
	case ".xml":
		return "xml", true
	default:
		return "", false
	}
}

// loadXMLDialect decodes doc with the loader named by dialect. "xml" is
// accepted as a generic alias for svd, since a bare .xml extension in the
// pack's corpus is always a CMSIS-SVD document. json is handled separately
// by the caller since it never goes through the mxj DOM.
func loadXMLDialect(dialect string, doc mxj.Map) (*db.DB, *diag.Log, error) {
	database := db.New()
	var (
		log *diag.Log
		err error
	)
	switch dialect {
	case "svd", "xml":
		log, err = svd.Load(database, doc)
	case "atdf":
		log, err = atdf.Load(database, doc)
	case "dslite":
		log, err = dslite.Load(database, doc)
	default:
		return nil, nil, errors.Errorf("hwgen: unknown dialect %q", dialect)
	}
	return database, log, err
}

// Package sqlanalyze classifies a SQL file's top-level statement and walks
// its query body to discover the resources it destines (creates/writes) and
// references (reads), suppressing names bound by local CTEs.
//
// The full warehouse SQL dialect is a pluggable external concern; this
// package stands in for it by pairing a tagged top-level statement
// classifier with a small SELECT-shaped query parser (internal/sqlparse)
// that together cover exactly the grammar bqport needs: statement headers
// for destination extraction, and the query body for reference extraction.
package sqlanalyze

import (
	"strings"

	"github.com/bqport/bqport/internal/resource"
	"github.com/bqport/bqport/internal/sqlparse"
)

// Destination is a resource this file creates, replaces, or writes. An empty
// Identifier is the load-bearing catch-all: it signals that the statement
// had no SQL-text target to parse (a bare query, or a script-level statement
// this package doesn't classify by name), so the caller should use the
// file's own path-derived namespace instead of a parsed identifier.
type Destination struct {
	Identifier string // raw, not yet normalized against an ambient project
	Kind       resource.Kind
}

// Analysis is the result of analyzing one file's SQL text.
type Analysis struct {
	Destinations []Destination
	References   []string // raw identifiers; CTE-local names already removed
}

var objectKinds = map[sqlparse.ObjectKind]resource.Kind{
	sqlparse.KindSchema:           resource.KindSchema,
	sqlparse.KindTable:            resource.KindTable,
	sqlparse.KindView:             resource.KindView,
	sqlparse.KindMaterializedView: resource.KindMaterializedView,
	sqlparse.KindRoutine:          resource.KindRoutine,
	sqlparse.KindModel:            resource.KindModel,
}

// Analyze classifies sql's top-level statement and extracts its destinations
// and references by walking the tagged statement variant sqlparse.Parse
// returns, per the parent-construct table: schema/table/routine/model
// headers each emit their own destination kind, a call_statement contributes
// a reference only, and any other top-level statement still emits a TABLE
// destination — that catch-all is load-bearing and must never be dropped.
func Analyze(sql string) Analysis {
	stmt := sqlparse.Parse(sql)

	cteNames := map[string]struct{}{}
	refSet := map[string]struct{}{}

	var a Analysis

	switch s := stmt.(type) {
	case *sqlparse.CreateStmt:
		a.Destinations = append(a.Destinations, Destination{Identifier: s.Target, Kind: objectKinds[s.Kind]})
		walkQuery(s.Query, cteNames, refSet)
	case *sqlparse.DropStmt:
		a.Destinations = append(a.Destinations, Destination{Identifier: s.Target, Kind: objectKinds[s.Kind]})
	case *sqlparse.AlterStmt:
		a.Destinations = append(a.Destinations, Destination{Identifier: s.Target, Kind: objectKinds[s.Kind]})
	case *sqlparse.InsertStmt:
		a.Destinations = append(a.Destinations, Destination{Identifier: s.Target, Kind: resource.KindTable})
		walkQuery(s.Query, cteNames, refSet)
	case *sqlparse.UpdateStmt:
		a.Destinations = append(a.Destinations, Destination{Identifier: s.Target, Kind: resource.KindTable})
		walkFrom(s.From, cteNames, refSet)
		walkExpr(s.Where, cteNames, refSet)
	case *sqlparse.DeleteStmt:
		a.Destinations = append(a.Destinations, Destination{Identifier: s.Target, Kind: resource.KindTable})
		walkFrom(s.Using, cteNames, refSet)
		walkExpr(s.Where, cteNames, refSet)
	case *sqlparse.MergeStmt:
		a.Destinations = append(a.Destinations, Destination{Identifier: s.Target, Kind: resource.KindTable})
		walkTableRef(s.Source, cteNames, refSet)
		walkExpr(s.Condition, cteNames, refSet)
	case *sqlparse.CallStmt:
		// call_statement: its target is a reference, never a destination.
		if s.Name != "" {
			refSet[s.Name] = struct{}{}
		}
	case *sqlparse.OtherStmt:
		// Catch-all: no SQL-text destination header to parse, but the rule
		// still requires a TABLE destination scoped to this file's own
		// namespace (see planner.buildFileJob).
		a.Destinations = append(a.Destinations, Destination{Kind: resource.KindTable})
		walkQuery(s.Query, cteNames, refSet)
	}

	for ref := range refSet {
		if _, isCTE := cteNames[strings.ToLower(ref)]; isCTE {
			continue
		}
		a.References = append(a.References, ref)
	}

	return a
}

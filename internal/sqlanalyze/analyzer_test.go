package sqlanalyze

import (
	"testing"

	"github.com/bqport/bqport/internal/resource"
)

func TestAnalyzeCreateTableDestination(t *testing.T) {
	a := Analyze(`CREATE TABLE ds.orders AS SELECT * FROM ds.raw_orders`)
	if len(a.Destinations) != 1 {
		t.Fatalf("expected one destination, got %+v", a.Destinations)
	}
	if a.Destinations[0].Identifier != "ds.orders" || a.Destinations[0].Kind != resource.KindTable {
		t.Fatalf("unexpected destination: %+v", a.Destinations[0])
	}
	if !containsRef(a.References, "ds.raw_orders") {
		t.Fatalf("expected reference to ds.raw_orders, got %v", a.References)
	}
}

func TestAnalyzeCreateViewDestination(t *testing.T) {
	a := Analyze(`CREATE OR REPLACE VIEW ds.v AS SELECT a FROM ds.t1 JOIN ds.t2 ON ds.t1.id = ds.t2.id`)
	if len(a.Destinations) != 1 || a.Destinations[0].Identifier != "ds.v" {
		t.Fatalf("unexpected destinations: %+v", a.Destinations)
	}
	if !containsRef(a.References, "ds.t1") || !containsRef(a.References, "ds.t2") {
		t.Fatalf("expected references to both joined tables, got %v", a.References)
	}
}

func TestAnalyzeSuppressesCTEReferences(t *testing.T) {
	a := Analyze(`CREATE VIEW ds.v AS WITH c AS (SELECT 1 AS x) SELECT * FROM c`)
	if containsRef(a.References, "c") {
		t.Fatalf("expected CTE name c to be suppressed, got %v", a.References)
	}
}

func TestAnalyzeDropSchema(t *testing.T) {
	a := Analyze(`DROP SCHEMA IF EXISTS ds`)
	if len(a.Destinations) != 1 || a.Destinations[0].Kind != resource.KindSchema {
		t.Fatalf("unexpected destinations: %+v", a.Destinations)
	}
}

func TestAnalyzeInsertSelectReference(t *testing.T) {
	a := Analyze(`INSERT INTO ds.summary SELECT user_id, count(*) FROM ds.events GROUP BY user_id`)
	if len(a.Destinations) != 1 || a.Destinations[0].Identifier != "ds.summary" {
		t.Fatalf("unexpected destinations: %+v", a.Destinations)
	}
	if !containsRef(a.References, "ds.events") {
		t.Fatalf("expected reference to ds.events, got %v", a.References)
	}
}

func TestAnalyzeCallStatementIsReferenceOnly(t *testing.T) {
	a := Analyze(`CALL ds.my_proc(1, 2)`)
	if len(a.Destinations) != 0 {
		t.Fatalf("expected no destinations, got %+v", a.Destinations)
	}
	if !containsRef(a.References, "ds.my_proc") {
		t.Fatalf("expected reference to ds.my_proc, got %v", a.References)
	}
}

func TestAnalyzeBareQueryEmitsCatchAllDestination(t *testing.T) {
	a := Analyze(`SELECT * FROM ds.raw_orders`)
	if len(a.Destinations) != 1 {
		t.Fatalf("expected the load-bearing catch-all destination, got %+v", a.Destinations)
	}
	if a.Destinations[0].Identifier != "" || a.Destinations[0].Kind != resource.KindTable {
		t.Fatalf("expected an empty-identifier TABLE destination, got %+v", a.Destinations[0])
	}
	if !containsRef(a.References, "ds.raw_orders") {
		t.Fatalf("expected reference to ds.raw_orders, got %v", a.References)
	}
}

func TestAnalyzeUnrecognizedStatementStillEmitsCatchAllDestination(t *testing.T) {
	a := Analyze(`TRUNCATE TABLE ds.orders`)
	if len(a.Destinations) != 1 || a.Destinations[0].Identifier != "" || a.Destinations[0].Kind != resource.KindTable {
		t.Fatalf("unexpected destinations: %+v", a.Destinations)
	}
}

func TestAnalyzeQualifiedFunctionCallReference(t *testing.T) {
	a := Analyze(`CREATE VIEW ds.v AS SELECT ds.my_func(x) FROM ds.t`)
	if !containsRef(a.References, "DS.MY_FUNC") {
		t.Fatalf("expected reference to qualified function call, got %v", a.References)
	}
}

func TestAnalyzeUpdateFromReference(t *testing.T) {
	a := Analyze(`UPDATE ds.target t SET t.x = s.x FROM ds.source s WHERE t.id = s.id`)
	if len(a.Destinations) != 1 || a.Destinations[0].Identifier != "ds.target" {
		t.Fatalf("unexpected destinations: %+v", a.Destinations)
	}
	if !containsRef(a.References, "ds.source") {
		t.Fatalf("expected reference to ds.source, got %v", a.References)
	}
}

func TestAnalyzeDeleteUsingReference(t *testing.T) {
	a := Analyze(`DELETE FROM ds.target t USING ds.stale s WHERE t.id = s.id`)
	if len(a.Destinations) != 1 || a.Destinations[0].Identifier != "ds.target" {
		t.Fatalf("unexpected destinations: %+v", a.Destinations)
	}
	if !containsRef(a.References, "ds.stale") {
		t.Fatalf("expected reference to ds.stale, got %v", a.References)
	}
}

func TestAnalyzeCreateTableFunctionIsRoutineDestination(t *testing.T) {
	a := Analyze(`CREATE TABLE FUNCTION ds.fn(threshold INT64) AS SELECT * FROM ds.t WHERE x > threshold`)
	if len(a.Destinations) != 1 || a.Destinations[0].Identifier != "ds.fn" || a.Destinations[0].Kind != resource.KindRoutine {
		t.Fatalf("unexpected destinations: %+v", a.Destinations)
	}
}

func TestAnalyzeMergeSourceReference(t *testing.T) {
	a := Analyze(`MERGE INTO ds.target t USING ds.source s ON t.id = s.id`)
	if len(a.Destinations) != 1 || a.Destinations[0].Identifier != "ds.target" {
		t.Fatalf("unexpected destinations: %+v", a.Destinations)
	}
	if !containsRef(a.References, "ds.source") {
		t.Fatalf("expected reference to ds.source, got %v", a.References)
	}
}

func containsRef(refs []string, want string) bool {
	for _, r := range refs {
		if r == want {
			return true
		}
	}
	return false
}

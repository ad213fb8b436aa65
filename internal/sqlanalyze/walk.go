package sqlanalyze

import (
	"strings"

	"github.com/bqport/bqport/internal/sqlparse"
)

// walkQuery records every CTE name bound in q and every from_item /
// function_call identifier it references. cteNames is keyed
// case-insensitively; refSet holds table names as written and function names
// as the parser upper-cased them, so suppression can be applied once the
// whole tree is walked.
func walkQuery(q *sqlparse.Query, cteNames map[string]struct{}, refSet map[string]struct{}) {
	if q == nil {
		return
	}
	for _, cte := range q.CTEs {
		cteNames[strings.ToLower(cte.Name)] = struct{}{}
		walkQuery(cte.Query, cteNames, refSet)
	}
	walkQueryBody(q.Body, cteNames, refSet)
}

func walkQueryBody(body *sqlparse.QueryBody, cteNames map[string]struct{}, refSet map[string]struct{}) {
	if body == nil {
		return
	}
	walkQuerySpec(body.First, cteNames, refSet)
	for _, term := range body.Rest {
		walkQuerySpec(term.Spec, cteNames, refSet)
	}
}

func walkQuerySpec(spec *sqlparse.QuerySpec, cteNames map[string]struct{}, refSet map[string]struct{}) {
	if spec == nil {
		return
	}
	for _, item := range spec.Items {
		walkExpr(item.Expr, cteNames, refSet)
	}
	walkFrom(spec.From, cteNames, refSet)
	walkExpr(spec.Where, cteNames, refSet)
	for _, e := range spec.GroupBy {
		walkExpr(e, cteNames, refSet)
	}
	walkExpr(spec.Having, cteNames, refSet)
	for _, ob := range spec.OrderBy {
		walkExpr(ob.Expr, cteNames, refSet)
	}
	walkExpr(spec.Limit, cteNames, refSet)
	walkExpr(spec.Offset, cteNames, refSet)
	for _, w := range spec.Windows {
		walkWindowSpec(w.Spec, cteNames, refSet)
	}
}

func walkFrom(from *sqlparse.FromClause, cteNames map[string]struct{}, refSet map[string]struct{}) {
	if from == nil {
		return
	}
	walkTableRef(from.First, cteNames, refSet)
	for _, j := range from.Joins {
		walkTableRef(j.Right, cteNames, refSet)
		walkExpr(j.On, cteNames, refSet)
	}
}

// walkTableRef emits a from_item reference for every physical table name it
// finds, skipping names bound by a CTE in this statement.
func walkTableRef(ref sqlparse.TableRef, cteNames map[string]struct{}, refSet map[string]struct{}) {
	switch t := ref.(type) {
	case *sqlparse.TableName:
		if t == nil {
			return
		}
		if _, isCTE := cteNames[strings.ToLower(t.Name)]; isCTE && t.Catalog == "" && t.Schema == "" {
			return
		}
		refSet[qualifiedName(t)] = struct{}{}
	case *sqlparse.DerivedTable:
		if t != nil {
			walkQuery(t.Query, cteNames, refSet)
		}
	case *sqlparse.LateralTable:
		if t != nil {
			walkQuery(t.Query, cteNames, refSet)
		}
	}
}

func qualifiedName(t *sqlparse.TableName) string {
	parts := make([]string, 0, 3)
	if t.Catalog != "" {
		parts = append(parts, t.Catalog)
	}
	if t.Schema != "" {
		parts = append(parts, t.Schema)
	}
	parts = append(parts, t.Name)
	return strings.Join(parts, ".")
}

func walkWindowSpec(w *sqlparse.WindowSpec, cteNames map[string]struct{}, refSet map[string]struct{}) {
	if w == nil {
		return
	}
	for _, e := range w.PartitionBy {
		walkExpr(e, cteNames, refSet)
	}
	for _, ob := range w.OrderBy {
		walkExpr(ob.Expr, cteNames, refSet)
	}
}

// walkExpr recurses through expression nodes, emitting a function_call
// reference for every qualified function name it finds and descending into
// subqueries so their from_items are discovered too.
func walkExpr(expr sqlparse.Expr, cteNames map[string]struct{}, refSet map[string]struct{}) {
	switch e := expr.(type) {
	case nil:
		return
	case *sqlparse.FuncCall:
		if strings.Contains(e.Name, ".") {
			refSet[e.Name] = struct{}{}
		}
		for _, arg := range e.Args {
			walkExpr(arg, cteNames, refSet)
		}
		walkWindowSpec(e.Over, cteNames, refSet)
		walkExpr(e.Filter, cteNames, refSet)
	case *sqlparse.BinaryExpr:
		walkExpr(e.Left, cteNames, refSet)
		walkExpr(e.Right, cteNames, refSet)
	case *sqlparse.UnaryExpr:
		walkExpr(e.Operand, cteNames, refSet)
	case *sqlparse.CaseExpr:
		walkExpr(e.Operand, cteNames, refSet)
		for _, w := range e.Whens {
			walkExpr(w.Condition, cteNames, refSet)
			walkExpr(w.Result, cteNames, refSet)
		}
		walkExpr(e.Else, cteNames, refSet)
	case *sqlparse.CastExpr:
		walkExpr(e.Expr, cteNames, refSet)
	case *sqlparse.InExpr:
		walkExpr(e.Expr, cteNames, refSet)
		for _, v := range e.List {
			walkExpr(v, cteNames, refSet)
		}
		walkQuery(e.Subquery, cteNames, refSet)
	case *sqlparse.BetweenExpr:
		walkExpr(e.Expr, cteNames, refSet)
		walkExpr(e.Low, cteNames, refSet)
		walkExpr(e.High, cteNames, refSet)
	case *sqlparse.IsNullExpr:
		walkExpr(e.Expr, cteNames, refSet)
	case *sqlparse.IsBoolExpr:
		walkExpr(e.Expr, cteNames, refSet)
	case *sqlparse.LikeExpr:
		walkExpr(e.Expr, cteNames, refSet)
		walkExpr(e.Pattern, cteNames, refSet)
	case *sqlparse.ParenExpr:
		walkExpr(e.Expr, cteNames, refSet)
	case *sqlparse.SubqueryExpr:
		walkQuery(e.Query, cteNames, refSet)
	case *sqlparse.ExistsExpr:
		walkQuery(e.Query, cteNames, refSet)
	}
}

package sqlparse

// parseQuery parses "[WITH cte, ...] query_body".
func (p *parser) parseQuery() *Query {
	q := &Query{}
	if p.match(tokWith) {
		q.CTEs = p.parseCTEList()
	}
	q.Body = p.parseQueryBody()
	return q
}

func (p *parser) parseCTEList() []CTE {
	var ctes []CTE
	for {
		cte := CTE{}
		if p.check(tokIdent) {
			cte.Name = p.tok.literal
			p.advance()
		}
		p.expect(tokAs)
		if p.match(tokLParen) {
			cte.Query = p.parseQuery()
			p.expect(tokRParen)
		}
		ctes = append(ctes, cte)
		if !p.match(tokComma) {
			break
		}
	}
	return ctes
}

// parseQueryBody parses a sequence of QuerySpecs joined by UNION/INTERSECT/
// EXCEPT, left-associatively.
func (p *parser) parseQueryBody() *QueryBody {
	body := &QueryBody{First: p.parseQuerySpec()}
	for !p.atEOF() {
		var op SetOp
		switch {
		case p.check(tokUnion):
			p.advance()
			if p.match(tokAll) {
				op = SetOpUnionAll
			} else {
				p.match(tokDistinct)
				op = SetOpUnion
			}
		case p.check(tokIntersect):
			p.advance()
			p.match(tokDistinct)
			op = SetOpIntersect
		case p.check(tokExcept):
			p.advance()
			p.match(tokDistinct)
			op = SetOpExcept
		default:
			return body
		}
		body.Rest = append(body.Rest, SetOpTerm{Op: op, Spec: p.parseQuerySpec()})
	}
	return body
}

// parseQuerySpec parses one "SELECT ... [FROM ...] [WHERE ...] [GROUP BY ...]
// [HAVING ...] [WINDOW ...] [ORDER BY ...] [LIMIT ...] [OFFSET ...]" core. A
// parenthesized query body is also accepted here (for "(SELECT ...) UNION
// (SELECT ...)" style set operations).
func (p *parser) parseQuerySpec() *QuerySpec {
	if p.match(tokLParen) {
		inner := p.parseQueryBody()
		p.expect(tokRParen)
		if len(inner.Rest) == 0 {
			return inner.First
		}
		// A parenthesized compound query body has no single QuerySpec to
		// return; wrap it as the derived table of a synthetic spec so that
		// every arm of the compound stays reachable for reference walking.
		return &QuerySpec{From: &FromClause{First: &DerivedTable{Query: &Query{Body: inner}}}}
	}

	spec := &QuerySpec{}
	p.expect(tokSelect)
	if p.match(tokDistinct) {
		spec.Distinct = true
	} else {
		p.match(tokAll)
	}

	spec.Items = p.parseSelectList()

	if p.match(tokFrom) {
		spec.From = p.parseFromClause()
	}
	if p.match(tokWhere) {
		spec.Where = p.parseExpression()
	}
	if p.match(tokGroup) {
		p.expect(tokBy)
		spec.GroupBy = p.parseExpressionList()
	}
	if p.match(tokHaving) {
		spec.Having = p.parseExpression()
	}
	if p.match(tokWindow) {
		spec.Windows = p.parseWindowDefList()
	}
	if p.match(tokOrder) {
		p.expect(tokBy)
		spec.OrderBy = p.parseOrderByList()
	}
	if p.match(tokLimit) {
		spec.Limit = p.parseExpression()
	}
	if p.match(tokOffset) {
		spec.Offset = p.parseExpression()
	}
	return spec
}

func (p *parser) parseSelectList() []SelectItem {
	var items []SelectItem
	items = append(items, p.parseSelectItem())
	for p.match(tokComma) {
		items = append(items, p.parseSelectItem())
	}
	return items
}

func (p *parser) parseSelectItem() SelectItem {
	// "table.*"
	if p.check(tokIdent) && p.checkPeek(tokDot) && p.checkPeek2(tokStar) {
		table := p.tok.literal
		p.advance()
		p.advance()
		p.advance()
		return SelectItem{Star: true, StarTable: table}
	}
	if p.check(tokStar) {
		p.advance()
		return SelectItem{Star: true}
	}

	item := SelectItem{Expr: p.parseExpression()}
	if p.match(tokAs) {
		if p.check(tokIdent) || p.check(tokQuotedIdent) {
			item.Alias = p.tok.literal
			p.advance()
		}
	} else if p.check(tokIdent) {
		item.Alias = p.tok.literal
		p.advance()
	}
	return item
}

func (p *parser) parseExpressionList() []Expr {
	var exprs []Expr
	exprs = append(exprs, p.parseExpression())
	for p.match(tokComma) {
		exprs = append(exprs, p.parseExpression())
	}
	return exprs
}

func (p *parser) parseWindowDefList() []WindowDef {
	var defs []WindowDef
	for {
		d := WindowDef{}
		if p.check(tokIdent) {
			d.Name = p.tok.literal
			p.advance()
		}
		p.expect(tokAs)
		if p.match(tokLParen) {
			d.Spec = p.parseWindowSpecBody()
			p.expect(tokRParen)
		}
		defs = append(defs, d)
		if !p.match(tokComma) {
			break
		}
	}
	return defs
}

func (p *parser) parseOrderByList() []OrderByItem {
	var items []OrderByItem
	items = append(items, p.parseOrderByItem())
	for p.match(tokComma) {
		items = append(items, p.parseOrderByItem())
	}
	return items
}

func (p *parser) parseOrderByItem() OrderByItem {
	item := OrderByItem{Expr: p.parseExpression()}
	if p.match(tokAsc) {
	} else if p.match(tokDesc) {
		item.Desc = true
	}
	if p.match(tokNulls) {
		p.matchAny(tokFirst, tokLast)
	}
	return item
}

// parseFromClause parses the comma/JOIN-separated table ref list following
// FROM or USING.
func (p *parser) parseFromClause() *FromClause {
	fc := &FromClause{First: p.parseTableRef()}
	for {
		join, ok := p.tryParseJoin()
		if !ok {
			break
		}
		fc.Joins = append(fc.Joins, join)
	}
	return fc
}

func (p *parser) tryParseJoin() (Join, bool) {
	if p.match(tokComma) {
		return Join{Type: JoinComma, Right: p.parseTableRef()}, true
	}

	natural := p.match(tokNatural)

	var jt JoinType
	switch {
	case p.match(tokInner):
		jt = JoinInner
	case p.match(tokLeft):
		jt = JoinLeft
		p.match(tokIdent) // OUTER isn't a reserved word in this grammar; best-effort skip
	case p.match(tokRight):
		jt = JoinRight
		p.match(tokIdent)
	case p.match(tokFull):
		jt = JoinFull
		p.match(tokIdent)
	case p.match(tokCross):
		jt = JoinCross
	case p.check(tokJoin):
		jt = JoinInner
	default:
		return Join{}, false
	}

	if !p.match(tokJoin) {
		return Join{}, false
	}

	j := Join{Type: jt, Natural: natural, Right: p.parseTableRef()}
	if natural {
		return j, true
	}
	if p.match(tokOn) {
		j.On = p.parseExpression()
	} else if p.match(tokUsing) {
		j.Using = p.parseUsingColumns()
	}
	return j, true
}

func (p *parser) parseUsingColumns() []string {
	var cols []string
	if !p.match(tokLParen) {
		return cols
	}
	if p.check(tokIdent) {
		cols = append(cols, p.tok.literal)
		p.advance()
		for p.match(tokComma) {
			if p.check(tokIdent) {
				cols = append(cols, p.tok.literal)
				p.advance()
			}
		}
	}
	p.expect(tokRParen)
	return cols
}

// parseTableRef parses one FROM/JOIN/USING/MERGE-source item: a LATERAL
// subquery, a derived (subquery) table, or a plain qualified table name.
func (p *parser) parseTableRef() TableRef {
	if p.match(tokLateral) {
		p.expect(tokLParen)
		q := p.parseQuery()
		p.expect(tokRParen)
		return &LateralTable{Query: q, Alias: p.parseOptionalAlias()}
	}
	if p.check(tokLParen) {
		p.advance()
		q := p.parseQuery()
		p.expect(tokRParen)
		return &DerivedTable{Query: q, Alias: p.parseOptionalAlias()}
	}
	return p.parseTableName()
}

func (p *parser) parseTableName() *TableName {
	tn := &TableName{}
	var parts []string
	if p.check(tokIdent) || p.check(tokQuotedIdent) {
		parts = append(parts, p.tok.literal)
		p.advance()
	}
	for p.check(tokDot) && (p.checkPeek(tokIdent) || p.checkPeek(tokQuotedIdent)) {
		p.advance()
		parts = append(parts, p.tok.literal)
		p.advance()
	}
	switch len(parts) {
	case 1:
		tn.Name = parts[0]
	case 2:
		tn.Schema, tn.Name = parts[0], parts[1]
	case 3:
		tn.Catalog, tn.Schema, tn.Name = parts[0], parts[1], parts[2]
	}
	tn.Alias = p.parseOptionalAlias()
	return tn
}

// parseOptionalAlias consumes a trailing "[AS] alias", stopping before any
// keyword that can legally follow a table ref (JOIN, ON, USING, WHERE, ...).
func (p *parser) parseOptionalAlias() string {
	if p.match(tokAs) {
		if p.check(tokIdent) || p.check(tokQuotedIdent) {
			name := p.tok.literal
			p.advance()
			return name
		}
		return ""
	}
	if p.check(tokIdent) {
		name := p.tok.literal
		p.advance()
		return name
	}
	return ""
}

package sqlparse

import "strings"

// Precedence levels for the Pratt (precedence-climbing) expression parser.
// Higher binds tighter.
const (
	precLowest = iota
	precOr
	precAnd
	precNot // unary NOT used as a prefix, e.g. "NOT a = b"
	precComparison
	precConcat
	precAdditive
	precMultiplicative
	precUnary
)

func infixPrecedence(k tokenKind) int {
	switch k {
	case tokOr:
		return precOr
	case tokAnd:
		return precAnd
	case tokEq, tokNeq, tokLt, tokLte, tokGt, tokGte,
		tokLike, tokIlike, tokIn, tokIs, tokBetween:
		return precComparison
	case tokConcat:
		return precConcat
	case tokPlus, tokMinus:
		return precAdditive
	case tokStar, tokSlash, tokPercent:
		return precMultiplicative
	default:
		return precLowest
	}
}

// parseExpression parses a full expression at the lowest precedence.
func (p *parser) parseExpression() Expr {
	return p.parseExpressionAt(precLowest)
}

func (p *parser) parseExpressionAt(minPrec int) Expr {
	left := p.parsePrefix()

	for {
		// "NOT" can continue an expression as "NOT IN"/"NOT BETWEEN"/"NOT
		// LIKE", which parseNotInfix handles directly; otherwise NOT never
		// appears as an infix operator.
		if p.check(tokNot) && precComparison > minPrec {
			left = p.parseNotInfix(left)
			continue
		}
		prec := infixPrecedence(p.tok.kind)
		if prec == precLowest || prec <= minPrec {
			break
		}
		left = p.parseInfix(left, prec)
	}
	return left
}

func (p *parser) parsePrefix() Expr {
	switch {
	case p.check(tokNot):
		p.advance()
		return &UnaryExpr{Op: "NOT", Operand: p.parseExpressionAt(precNot)}
	case p.check(tokMinus):
		p.advance()
		return &UnaryExpr{Op: "-", Operand: p.parseExpressionAt(precUnary)}
	case p.check(tokPlus):
		p.advance()
		return &UnaryExpr{Op: "+", Operand: p.parseExpressionAt(precUnary)}
	default:
		return p.parsePrimary()
	}
}

func (p *parser) parseInfix(left Expr, prec int) Expr {
	switch p.tok.kind {
	case tokIs:
		return p.parseIsExpr(left)
	case tokIn:
		return p.parseInExprTail(left, false)
	case tokBetween:
		return p.parseBetweenExprTail(left, false)
	case tokLike:
		return p.parseLikeExprTail(left, false, false)
	case tokIlike:
		return p.parseLikeExprTail(left, false, true)
	default:
		op := p.tok.literal
		if op == "" {
			op = opText(p.tok.kind)
		}
		p.advance()
		right := p.parseExpressionAt(prec)
		return &BinaryExpr{Left: left, Op: op, Right: right}
	}
}

// parseNotInfix handles "NOT IN" / "NOT BETWEEN" / "NOT LIKE" / "NOT ILIKE"
// appearing after an already-parsed left operand.
func (p *parser) parseNotInfix(left Expr) Expr {
	p.advance() // NOT
	switch p.tok.kind {
	case tokIn:
		return p.parseInExprTail(left, true)
	case tokBetween:
		return p.parseBetweenExprTail(left, true)
	case tokLike:
		return p.parseLikeExprTail(left, true, false)
	case tokIlike:
		return p.parseLikeExprTail(left, true, true)
	default:
		p.addError("expected IN, BETWEEN, or LIKE after NOT")
		return left
	}
}

func (p *parser) parseIsExpr(left Expr) Expr {
	p.advance() // IS
	not := p.match(tokNot)
	switch {
	case p.match(tokNull):
		return &IsNullExpr{Expr: left, Not: not}
	case p.match(tokTrue):
		return &IsBoolExpr{Expr: left, Not: not, Value: true}
	case p.match(tokFalse):
		return &IsBoolExpr{Expr: left, Not: not, Value: false}
	default:
		p.addError("expected NULL, TRUE, or FALSE after IS")
		return left
	}
}

func (p *parser) parseInExprTail(left Expr, not bool) Expr {
	p.advance() // IN
	in := &InExpr{Expr: left, Not: not}
	p.expect(tokLParen)
	if p.check(tokSelect) || p.check(tokWith) {
		in.Subquery = p.parseQuery()
	} else if !p.check(tokRParen) {
		in.List = p.parseExpressionList()
	}
	p.expect(tokRParen)
	return in
}

func (p *parser) parseBetweenExprTail(left Expr, not bool) Expr {
	p.advance() // BETWEEN
	low := p.parseExpressionAt(precComparison)
	p.expect(tokAnd)
	high := p.parseExpressionAt(precComparison)
	return &BetweenExpr{Expr: left, Not: not, Low: low, High: high}
}

func (p *parser) parseLikeExprTail(left Expr, not, ci bool) Expr {
	p.advance() // LIKE/ILIKE
	pattern := p.parseExpressionAt(precComparison)
	return &LikeExpr{Expr: left, Not: not, Ci: ci, Pattern: pattern}
}

func (p *parser) parsePrimary() Expr {
	switch {
	case p.check(tokNumber):
		v := p.tok.literal
		p.advance()
		return &Literal{Type: LiteralNumber, Value: v}
	case p.check(tokString):
		v := p.tok.literal
		p.advance()
		return &Literal{Type: LiteralString, Value: v}
	case p.check(tokTrue):
		p.advance()
		return &Literal{Type: LiteralBool, Value: "true"}
	case p.check(tokFalse):
		p.advance()
		return &Literal{Type: LiteralBool, Value: "false"}
	case p.check(tokNull):
		p.advance()
		return &Literal{Type: LiteralNull, Value: "NULL"}
	case p.check(tokCase):
		return p.parseCaseExpr()
	case p.check(tokCast):
		return p.parseCastExpr()
	case p.check(tokExists):
		p.advance()
		p.expect(tokLParen)
		q := p.parseQuery()
		p.expect(tokRParen)
		return &ExistsExpr{Query: q}
	case p.check(tokStar):
		p.advance()
		return &StarExpr{}
	case p.check(tokLParen):
		return p.parseParenExpr()
	case p.check(tokIdent) || p.check(tokQuotedIdent):
		return p.parseIdentOrCall()
	default:
		p.addError("unexpected token in expression")
		p.advance()
		return &Literal{Type: LiteralNull, Value: "NULL"}
	}
}

func (p *parser) parseParenExpr() Expr {
	p.advance() // (
	if p.check(tokSelect) || p.check(tokWith) {
		q := p.parseQuery()
		p.expect(tokRParen)
		return &SubqueryExpr{Query: q}
	}
	expr := p.parseExpression()
	for p.match(tokComma) {
		expr = &BinaryExpr{Left: expr, Op: ",", Right: p.parseExpression()}
	}
	p.expect(tokRParen)
	return &ParenExpr{Expr: expr}
}

// parseIdentOrCall parses a (possibly dotted) identifier, a qualified or
// unqualified function call ("ds.my_func(x)" or "f(x)"), or a bare column
// reference. A dotted name immediately followed by "(" is always a function
// call: unlike the teacher's parser, which only checked for "(" after a
// single bare identifier and so could never attach a dotted name to a
// FuncCall, this reads the whole dotted path first and only then decides.
func (p *parser) parseIdentOrCall() Expr {
	var parts []string
	parts = append(parts, p.tok.literal)
	p.advance()
	for p.check(tokDot) {
		if p.checkPeek(tokStar) {
			break // "t.*" is a select-list construct, not an expression
		}
		if !(p.checkPeek(tokIdent) || p.checkPeek(tokQuotedIdent)) {
			break
		}
		p.advance()
		parts = append(parts, p.tok.literal)
		p.advance()
	}

	if p.check(tokLParen) {
		return p.parseFuncCall(strings.Join(parts, "."))
	}
	return &ColumnRef{Parts: parts}
}

func (p *parser) parseFuncCall(name string) Expr {
	fc := &FuncCall{Name: strings.ToUpper(name)}
	p.expect(tokLParen)
	if p.match(tokDistinct) {
		fc.Distinct = true
	}
	if p.check(tokStar) {
		fc.Star = true
		p.advance()
	} else if !p.check(tokRParen) {
		fc.Args = append(fc.Args, p.parseExpression())
		for p.match(tokComma) {
			fc.Args = append(fc.Args, p.parseExpression())
		}
	}
	p.expect(tokRParen)

	if p.match(tokFilter) {
		p.expect(tokLParen)
		p.expect(tokWhere)
		fc.Filter = p.parseExpression()
		p.expect(tokRParen)
	}

	if p.match(tokOver) {
		if p.check(tokIdent) {
			fc.Over = &WindowSpec{RefName: p.tok.literal}
			p.advance()
		} else if p.match(tokLParen) {
			fc.Over = p.parseWindowSpecBody()
			p.expect(tokRParen)
		}
	}
	return fc
}

func (p *parser) parseCaseExpr() Expr {
	p.advance() // CASE
	ce := &CaseExpr{}
	if !p.check(tokWhen) {
		ce.Operand = p.parseExpression()
	}
	for p.match(tokWhen) {
		w := WhenClause{Condition: p.parseExpression()}
		p.expect(tokThen)
		w.Result = p.parseExpression()
		ce.Whens = append(ce.Whens, w)
	}
	if p.match(tokElse) {
		ce.Else = p.parseExpression()
	}
	p.expect(tokEnd)
	return ce
}

func (p *parser) parseCastExpr() Expr {
	p.advance() // CAST
	p.expect(tokLParen)
	cast := &CastExpr{Expr: p.parseExpression()}
	p.expect(tokAs)
	cast.TypeName = p.parseTypeName()
	p.expect(tokRParen)
	return cast
}

func (p *parser) parseTypeName() string {
	if !(p.check(tokIdent) || p.check(tokQuotedIdent)) {
		p.addError("expected type name")
		return ""
	}
	name := p.tok.literal
	p.advance()
	if p.match(tokLParen) {
		var parts []string
		for !p.check(tokRParen) && !p.atEOF() {
			parts = append(parts, p.tok.literal)
			p.advance()
			if !p.match(tokComma) {
				break
			}
		}
		p.expect(tokRParen)
		name += "(" + strings.Join(parts, ",") + ")"
	}
	return name
}

// parseWindowSpecBody parses the inside of "( [PARTITION BY ...] [ORDER BY
// ...] [frame] )", with the parens consumed by the caller.
func (p *parser) parseWindowSpecBody() *WindowSpec {
	ws := &WindowSpec{}
	if p.match(tokPartition) {
		p.expect(tokBy)
		ws.PartitionBy = p.parseExpressionList()
	}
	if p.match(tokOrder) {
		p.expect(tokBy)
		ws.OrderBy = p.parseOrderByList()
	}
	if p.check(tokRows) || p.check(tokRange) || p.check(tokGroups) {
		ws.Frame = p.parseFrameSpec()
	}
	return ws
}

func (p *parser) parseFrameSpec() *FrameSpec {
	fs := &FrameSpec{}
	switch {
	case p.match(tokRows):
		fs.Type = FrameRows
	case p.match(tokRange):
		fs.Type = FrameRange
	case p.match(tokGroups):
		fs.Type = FrameGroups
	}
	if p.match(tokBetween) {
		fs.Start = p.parseFrameBound()
		p.expect(tokAnd)
		fs.End = p.parseFrameBound()
	} else {
		fs.Start = p.parseFrameBound()
		fs.End = FrameBound{Type: BoundCurrentRow}
	}
	return fs
}

func (p *parser) parseFrameBound() FrameBound {
	if p.match(tokUnbounded) {
		if p.match(tokPreceding) {
			return FrameBound{Type: BoundUnboundedPreceding}
		}
		p.match(tokFollowing)
		return FrameBound{Type: BoundUnboundedFollowing}
	}
	if p.match(tokCurrent) {
		p.match(tokRow)
		return FrameBound{Type: BoundCurrentRow}
	}
	offset := p.parseExpression()
	if p.match(tokPreceding) {
		return FrameBound{Type: BoundPreceding, Offset: offset}
	}
	p.match(tokFollowing)
	return FrameBound{Type: BoundFollowing, Offset: offset}
}

func opText(k tokenKind) string {
	switch k {
	case tokPlus:
		return "+"
	case tokMinus:
		return "-"
	case tokStar:
		return "*"
	case tokSlash:
		return "/"
	case tokPercent:
		return "%"
	case tokEq:
		return "="
	case tokNeq:
		return "<>"
	case tokLt:
		return "<"
	case tokLte:
		return "<="
	case tokGt:
		return ">"
	case tokGte:
		return ">="
	case tokConcat:
		return "||"
	case tokAnd:
		return "AND"
	case tokOr:
		return "OR"
	default:
		return ""
	}
}

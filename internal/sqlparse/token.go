package sqlparse

// tokenKind classifies one lexical token. Unlike the teacher's token
// package, bqport parses a single fixed grammar, so there is no dynamic
// keyword registration: the keyword table below is complete and closed.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokQuotedIdent

	// Punctuation.
	tokLParen
	tokRParen
	tokComma
	tokDot
	tokSemicolon
	tokStar

	// Operators.
	tokPlus
	tokMinus
	tokSlash
	tokPercent
	tokEq
	tokNeq
	tokLt
	tokLte
	tokGt
	tokGte
	tokConcat // ||

	// Keywords.
	tokSelect
	tokFrom
	tokWhere
	tokGroup
	tokBy
	tokHaving
	tokOrder
	tokLimit
	tokOffset
	tokAs
	tokDistinct
	tokAll
	tokWith
	tokUnion
	tokIntersect
	tokExcept
	tokJoin
	tokInner
	tokLeft
	tokRight
	tokFull
	tokCross
	tokNatural
	tokOn
	tokUsing
	tokAnd
	tokOr
	tokNot
	tokIn
	tokIs
	tokNull
	tokTrue
	tokFalse
	tokBetween
	tokLike
	tokIlike
	tokCase
	tokWhen
	tokThen
	tokElse
	tokEnd
	tokCast
	tokExists
	tokLateral
	tokWindow
	tokPartition
	tokRows
	tokRange
	tokGroups
	tokUnbounded
	tokPreceding
	tokFollowing
	tokCurrent
	tokRow
	tokFirst
	tokLast
	tokNulls
	tokFilter
	tokAsc
	tokDesc
	tokOver

	// Statement-header keywords.
	tokCreate
	tokDrop
	tokAlter
	tokInsert
	tokUpdate
	tokDelete
	tokMerge
	tokCall
	tokInto
	tokSet
	tokSchema
	tokTable
	tokView
	tokMaterialized
	tokFunction
	tokProcedure
	tokModel
	tokReplace
	tokIfStmt
	tokTemp
	tokTemporary
)

var keywords = map[string]tokenKind{
	"select": tokSelect, "from": tokFrom, "where": tokWhere, "group": tokGroup,
	"by": tokBy, "having": tokHaving, "order": tokOrder, "limit": tokLimit,
	"offset": tokOffset, "as": tokAs, "distinct": tokDistinct, "all": tokAll,
	"with": tokWith, "union": tokUnion, "intersect": tokIntersect, "except": tokExcept,
	"join": tokJoin, "inner": tokInner, "left": tokLeft, "right": tokRight,
	"full": tokFull, "cross": tokCross, "natural": tokNatural, "on": tokOn,
	"using": tokUsing, "and": tokAnd, "or": tokOr, "not": tokNot, "in": tokIn,
	"is": tokIs, "null": tokNull, "true": tokTrue, "false": tokFalse,
	"between": tokBetween, "like": tokLike, "ilike": tokIlike, "case": tokCase,
	"when": tokWhen, "then": tokThen, "else": tokElse, "end": tokEnd,
	"cast": tokCast, "exists": tokExists, "lateral": tokLateral, "window": tokWindow,
	"partition": tokPartition, "rows": tokRows, "range": tokRange, "groups": tokGroups,
	"unbounded": tokUnbounded, "preceding": tokPreceding, "following": tokFollowing,
	"current": tokCurrent, "row": tokRow, "first": tokFirst, "last": tokLast,
	"nulls": tokNulls, "filter": tokFilter, "asc": tokAsc, "desc": tokDesc,
	"over": tokOver,
	"create": tokCreate, "drop": tokDrop, "alter": tokAlter, "insert": tokInsert,
	"update": tokUpdate, "delete": tokDelete, "merge": tokMerge, "call": tokCall,
	"into": tokInto, "set": tokSet, "schema": tokSchema, "table": tokTable,
	"view": tokView, "materialized": tokMaterialized, "function": tokFunction,
	"procedure": tokProcedure, "model": tokModel, "replace": tokReplace,
	"if": tokIfStmt, "temp": tokTemp, "temporary": tokTemporary,
}

type token struct {
	kind    tokenKind
	literal string
	line    int
	col     int
}

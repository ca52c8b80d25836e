// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package betree

// CompareOp is the operator of a Compare node.
type CompareOp uint8

const (
	OpLT CompareOp = iota
	OpLE
	OpGT
	OpGE
)

// EqualityOp is the operator of an Equality node.
type EqualityOp uint8

const (
	OpEQ EqualityOp = iota
	OpNE
)

// SetOp is the operator of a Set node.
type SetOp uint8

const (
	OpIn SetOp = iota
	OpNotIn
)

// ListOp is the operator of a List node.
type ListOp uint8

const (
	OpOneOf ListOp = iota
	OpNoneOf
	OpAllOf
)

// BoolOp is the operator of a Bool node.
type BoolOp uint8

const (
	OpLiteral BoolOp = iota
	OpVariable
	OpNot
	OpAnd
	OpOr
)

// IsNullOp is the operator of an IsNull node.
type IsNullOp uint8

const (
	OpIsNull IsNullOp = iota
	OpIsNotNull
	OpIsEmpty
)

// SpecialKind tags the closed set of special predicates (§3).
type SpecialKind uint8

const (
	SpecialFrequencyCap SpecialKind = iota
	SpecialSegmentWithin
	SpecialSegmentBefore
	SpecialGeoWithinRadius
	SpecialContains
	SpecialStartsWith
	SpecialEndsWith
)

// Expr is the sealed interface implemented by every AST node variant.
// The unexported marker method closes the sum type to this package.
type Expr interface {
	exprNode()
	memoID() int
	setMemoID(int)
	// usesVariable invokes fn for every variable_id this node (and its
	// children) reads; used by attribute-set computation and bound
	// inference.
	usesVariable(fn func(int))
}

type base struct {
	MemoizeID int // 0 until assignMemoizeIDs runs; exempted leaves get -1 (§4.1)
}

func (b *base) memoID() int      { return b.MemoizeID }
func (b *base) setMemoID(id int) { b.MemoizeID = id }

// CompareExpr is `variable OP constant` for numeric constants.
type CompareExpr struct {
	base
	Op       CompareOp
	Variable int
	IsFloat  bool
	Int      int64
	Float    float64
}

func (*CompareExpr) exprNode() {}
func (e *CompareExpr) usesVariable(fn func(int)) { fn(e.Variable) }

// EqualityExpr is `variable OP constant` for =/≠ over any scalar type.
type EqualityExpr struct {
	base
	Op       EqualityOp
	Variable int
	Const    Value
}

func (*EqualityExpr) exprNode() {}
func (e *EqualityExpr) usesVariable(fn func(int)) { fn(e.Variable) }

// SetSide tags which side of a Set expression is the variable.
type SetSide uint8

const (
	SetSideLeftVar SetSide = iota
	SetSideRightVar
)

// SetExpr is `scalar (not) in list`, exactly one side a variable.
type SetExpr struct {
	base
	Op   SetOp
	Side SetSide

	// Variable is the variable_id of whichever side is SetSide.
	Variable int

	// Scalar is populated when Side == SetSideRightVar (the left side is
	// a literal scalar tested against the variable's list).
	Scalar Value

	// List is populated when Side == SetSideLeftVar (the variable is a
	// scalar tested against a literal list).
	List Value
}

func (*SetExpr) exprNode() {}
func (e *SetExpr) usesVariable(fn func(int)) { fn(e.Variable) }

// ListExpr is `variable OP list` for one-of/none-of/all-of, both sides
// list-typed.
type ListExpr struct {
	base
	Op       ListOp
	Variable int
	List     Value
}

func (*ListExpr) exprNode() {}
func (e *ListExpr) usesVariable(fn func(int)) { fn(e.Variable) }

// BoolExpr covers literal/variable/not/and/or.
type BoolExpr struct {
	base
	Op       BoolOp
	Variable int // meaningful only for OpVariable
	Literal  bool
	Left     Expr // the only child for OpNot; left operand for and/or
	Right    Expr // nil for OpNot and OpVariable/OpLiteral
}

func (*BoolExpr) exprNode() {}
func (e *BoolExpr) usesVariable(fn func(int)) {
	if e.Op == OpVariable {
		fn(e.Variable)
	}
	if e.Left != nil {
		e.Left.usesVariable(fn)
	}
	if e.Right != nil {
		e.Right.usesVariable(fn)
	}
}

// IsNullExpr is is-null/is-not-null/is-empty over one variable.
type IsNullExpr struct {
	base
	Op       IsNullOp
	Variable int
}

func (*IsNullExpr) exprNode() {}
func (e *IsNullExpr) usesVariable(fn func(int)) { fn(e.Variable) }

// SpecialExpr covers frequency-cap, segment, geo and string-match tests.
type SpecialExpr struct {
	base
	Kind SpecialKind

	Variable int // segments/frequency-caps/string variable

	// frequency cap
	FreqCapType      string
	FreqCapID        string
	FreqCapNamespace string
	FreqCapMaxValue  uint32
	FreqCapLength    int64

	// MaxValueConstName/LengthConstName, when non-empty, defer
	// FreqCapMaxValue/FreqCapLength to a named constant resolved by
	// InsertWithConstants.
	MaxValueConstName string
	LengthConstName   string

	// segment
	SegmentID      int64
	SegmentSeconds int64

	// geo
	CenterLat, CenterLon, RadiusKM float64
	LatVariable, LonVariable       int

	// string match
	Needle string
}

func (*SpecialExpr) exprNode() {}
func (e *SpecialExpr) usesVariable(fn func(int)) {
	switch e.Kind {
	case SpecialGeoWithinRadius:
		fn(e.LatVariable)
		fn(e.LonVariable)
	default:
		fn(e.Variable)
	}
}
